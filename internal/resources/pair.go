// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package resources simulates two actors contending for two locks.
//
// Each actor acquires both resources in its own order. With opposite orders
// and a hold delay the actors deadlock; without the delay they usually
// complete; run one after the other they always complete.
package resources

import (
	"errors"
	"fmt"

	"github.com/relabs-tech/resource_sync/internal/syncx"
)

// ResourceID identifies one of the two shared resources.
type ResourceID int

const (
	A ResourceID = iota
	B
)

func (r ResourceID) String() string {
	switch r {
	case A:
		return "A"
	case B:
		return "B"
	default:
		return fmt.Sprintf("resource(%d)", int(r))
	}
}

// MarshalText encodes the resource by name.
func (r ResourceID) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *ResourceID) UnmarshalText(text []byte) error {
	switch string(text) {
	case "A":
		*r = A
	case "B":
		*r = B
	default:
		return fmt.Errorf("unknown resource %q", text)
	}
	return nil
}

// Counts holds how many times each resource has been acquired.
type Counts struct {
	A int `json:"a"`
	B int `json:"b"`
}

// Pair holds resources A and B and their acquisition counters. A counter is
// only written while its resource's lock is held.
type Pair struct {
	locks    [2]syncx.Locker
	acquired [2]int
}

// NewPair returns a pair of unlocked resources.
func NewPair() *Pair {
	return NewPairWithLocks(syncx.New("A"), syncx.New("B"))
}

// NewPairWithLocks returns a pair guarded by the given locks.
func NewPairWithLocks(a, b syncx.Locker) *Pair {
	return &Pair{locks: [2]syncx.Locker{a, b}}
}

// UnsafeCounts reads the counters WITHOUT taking either lock. While actors
// are running the result may be stale or torn with respect to their
// critical sections, and the race detector will flag it. It is safe only
// once every actor has been joined.
func (p *Pair) UnsafeCounts() Counts {
	return Counts{A: p.acquired[A], B: p.acquired[B]}
}

// Counts reads the counters under both locks, taken in A, B order. It blocks
// while either resource is held.
func (p *Pair) Counts() (Counts, error) {
	if err := p.locks[A].Acquire(); err != nil {
		return Counts{}, err
	}
	if err := p.locks[B].Acquire(); err != nil {
		return Counts{}, errors.Join(err, p.locks[A].Release())
	}
	c := Counts{A: p.acquired[A], B: p.acquired[B]}
	return c, errors.Join(p.locks[B].Release(), p.locks[A].Release())
}

// Destroy destroys both locks. It reports every lock that is still held
// (for example leaked by a failed actor) instead of ignoring it.
func (p *Pair) Destroy() error {
	var errs []error
	for _, l := range p.locks {
		d, ok := l.(interface{ Destroy() error })
		if !ok {
			continue
		}
		if err := d.Destroy(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
