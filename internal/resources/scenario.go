// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package resources

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/relabs-tech/resource_sync/internal/worker"
)

// DefaultHold is how long an actor holds its first resource before trying
// for the second.
const DefaultHold = time.Second

// Mode selects one of the three scenarios.
type Mode string

const (
	ModeUnsafe Mode = "unsafe" // concurrent, with hold delay: deadlocks
	ModeSafe   Mode = "safe"   // actor 2 starts after actor 1 is joined
	ModeRace   Mode = "race"   // concurrent, no hold delay
)

// ParseMode maps a command-line argument to a Mode. Anything other than
// "safe" or "race" selects ModeUnsafe.
func ParseMode(arg string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(arg))) {
	case ModeSafe:
		return ModeSafe
	case ModeRace:
		return ModeRace
	default:
		return ModeUnsafe
	}
}

// Policy is the pair of flags a Mode stands for. NoWait has no effect when
// Safe is set since the actors never overlap.
type Policy struct {
	Safe   bool
	NoWait bool
	Hold   time.Duration
}

// Policy returns the flags for m with the given hold delay.
func (m Mode) Policy(hold time.Duration) Policy {
	switch m {
	case ModeSafe:
		return Policy{Safe: true, Hold: hold}
	case ModeRace:
		return Policy{NoWait: true, Hold: hold}
	default:
		return Policy{Hold: hold}
	}
}

func (p Policy) holdDelay() time.Duration {
	if p.NoWait {
		return 0
	}
	return p.Hold
}

// Options configures Simulate.
type Options struct {
	Policy  Policy
	Observe func(Event)

	// Heartbeat, when set, is called every HeartbeatInterval while a join
	// is still waiting. A deadlocked run calls it forever.
	HeartbeatInterval time.Duration
	Heartbeat         func(actor int, elapsed time.Duration)
}

// Report is what Simulate observed.
type Report struct {
	Policy Policy

	// AfterFirst holds the counters once actor 1 was joined. Safe mode only.
	// This is the reading expected to be exactly A=1, B=1; Final counts
	// both actors.
	AfterFirst      Counts
	AfterFirstValid bool

	// InFlight is the unsynchronized read taken right after actor 2 was
	// spawned. Concurrent modes only.
	InFlight      Counts
	InFlightValid bool

	Outcomes []Outcome
	Final    Counts
}

// Simulate runs Actor1 and Actor2 against p under opts.Policy and joins
// both. In the unsafe scenario it never returns.
func Simulate(p *Pair, opts Options) Report {
	pol := opts.Policy
	hold := pol.holdDelay()
	report := Report{Policy: pol}

	spawn := func(a Actor) *worker.Task[Outcome] {
		log.Printf("deadlock: creating thread %d", a.ID)
		t := worker.Spawn(fmt.Sprintf("thread %d", a.ID), func() Outcome { return p.Run(a, hold, opts.Observe) })
		log.Printf("deadlock: thread %d spawned", a.ID)
		return t
	}
	join := func(a Actor, t *worker.Task[Outcome]) Outcome {
		o := t.JoinWithHeartbeat(opts.HeartbeatInterval, func(elapsed time.Duration) {
			if opts.Heartbeat != nil {
				opts.Heartbeat(a.ID, elapsed)
			}
		})
		if o.Err != nil {
			log.Printf("deadlock: thread %d failed in %s: %v", a.ID, o.State, o.Err)
		} else {
			log.Printf("deadlock: thread %d done", a.ID)
		}
		return o
	}

	t1 := spawn(Actor1)

	var o1 Outcome
	if pol.Safe {
		o1 = join(Actor1, t1)
		// Actor 1 is joined and actor 2 not yet spawned: nothing else
		// touches the counters here.
		report.AfterFirst = p.UnsafeCounts()
		report.AfterFirstValid = true
	}

	t2 := spawn(Actor2)

	if !pol.Safe {
		report.InFlight = p.UnsafeCounts()
		report.InFlightValid = true
		log.Printf("deadlock: acquiredA=%d, acquiredB=%d", report.InFlight.A, report.InFlight.B)
		log.Println("deadlock: will try to join threads unless they deadlock")
		o1 = join(Actor1, t1)
	}
	o2 := join(Actor2, t2)

	report.Outcomes = []Outcome{o1, o2}
	report.Final = p.UnsafeCounts()
	return report
}
