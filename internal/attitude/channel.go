// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package attitude

import (
	"github.com/relabs-tech/resource_sync/internal/clock"
	"github.com/relabs-tech/resource_sync/internal/orientation"
	"github.com/relabs-tech/resource_sync/internal/syncx"
)

// Channel owns one Sample and the lock guarding it. Every access to the
// sample goes through the lock; a Channel is shared by handing the same
// pointer to each worker.
type Channel struct {
	lock     syncx.Locker
	clock    clock.Source
	velocity VelocitySource

	sample Sample
}

// NewChannel returns a channel with a zero sample.
func NewChannel(lock syncx.Locker, clk clock.Source, velocity VelocitySource) *Channel {
	return &Channel{
		lock:     lock,
		clock:    clk,
		velocity: velocity,
	}
}

// WriteTimestamp overwrites the sample time with the current clock reading.
// No other field is read or written.
func (c *Channel) WriteTimestamp() error {
	if err := c.lock.Acquire(); err != nil {
		return err
	}
	c.sample.SampleTime = c.clock.Now()
	return c.lock.Release()
}

// SampleAndDerive draws new accelerations against the current sample time,
// derives the angles from them and returns the resulting record. Nothing is
// returned unless the lock was both acquired and released.
//
// A zero sample time yields Inf/NaN accelerations and angles.
func (c *Channel) SampleAndDerive(iteration int) (Record, error) {
	if err := c.lock.Acquire(); err != nil {
		return Record{}, err
	}

	secs := c.sample.SampleTime.Seconds()
	c.sample.X = c.velocity.Velocity() / secs
	c.sample.Y = c.velocity.Velocity() / secs
	c.sample.Z = c.velocity.Velocity() / secs
	c.sample.Pose = orientation.FromAcceleration(c.sample.X, c.sample.Y, c.sample.Z)
	rec := Record{Iteration: iteration, Sample: c.sample}

	if err := c.lock.Release(); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Snapshot returns a copy of the sample taken under the lock.
func (c *Channel) Snapshot() (Sample, error) {
	if err := c.lock.Acquire(); err != nil {
		return Sample{}, err
	}
	s := c.sample
	return s, c.lock.Release()
}
