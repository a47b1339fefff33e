// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package attitude

import (
	"math/rand/v2"

	"github.com/relabs-tech/resource_sync/internal/clock"
	"github.com/relabs-tech/resource_sync/internal/orientation"
)

// Sample is the shared attitude record.
type Sample struct {
	X float64 `json:"x"` // acceleration
	Y float64 `json:"y"`
	Z float64 `json:"z"`

	orientation.Pose

	SampleTime clock.Timestamp `json:"sample_time"`
}

// Record is one derived sample together with the deriver iteration that
// produced it.
type Record struct {
	Iteration int `json:"iteration"`
	Sample
}

// VelocitySource yields the velocity deltas accelerations are derived from.
type VelocitySource interface {
	Velocity() float64
}

type randomVelocity struct {
	rng  *rand.Rand
	span int
}

// NewRandomVelocity returns integer velocities drawn uniformly from
// [-span, span]. The same seed always yields the same sequence.
func NewRandomVelocity(seed uint64, span int) VelocitySource {
	return &randomVelocity{
		rng:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		span: span,
	}
}

func (r *randomVelocity) Velocity() float64 {
	return float64(r.rng.IntN(2*r.span+1) - r.span)
}
