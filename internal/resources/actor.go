// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package resources

import (
	"fmt"
	"time"
)

// State is an actor's progress through acquiring both resources.
type State int

const (
	Idle State = iota
	HoldingFirst
	HoldingBoth
	Released
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case HoldingFirst:
		return "holding-first"
	case HoldingBoth:
		return "holding-both"
	case Released:
		return "released"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Actor acquires Order[0] then Order[1], and releases them in reverse.
type Actor struct {
	ID    int
	Order [2]ResourceID
}

// The two actors of the simulation, with opposite acquisition orders.
var (
	Actor1 = Actor{ID: 1, Order: [2]ResourceID{A, B}}
	Actor2 = Actor{ID: 2, Order: [2]ResourceID{B, A}}
)

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for _, v := range []State{Idle, HoldingFirst, HoldingBoth, Released} {
		if v.String() == string(text) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown actor state %q", text)
}

// Event reports that an actor entered a state.
type Event struct {
	Actor  int        `json:"actor"`
	State  State      `json:"state"`
	First  ResourceID `json:"first"`
	Second ResourceID `json:"second"`
	Err    string     `json:"error,omitempty"`
	Time   time.Time  `json:"time"`
}

func (e Event) String() string {
	switch {
	case e.Err != "":
		return fmt.Sprintf("THREAD %d failed in %s: %s", e.Actor, e.State, e.Err)
	case e.State == Idle:
		return fmt.Sprintf("THREAD %d grabbing resources", e.Actor)
	case e.State == HoldingFirst:
		return fmt.Sprintf("THREAD %d got %s, trying for %s", e.Actor, e.First, e.Second)
	case e.State == HoldingBoth:
		return fmt.Sprintf("THREAD %d got %s and %s", e.Actor, e.First, e.Second)
	default:
		return fmt.Sprintf("THREAD %d done", e.Actor)
	}
}

// Outcome is what an actor reports when it returns. State is the last state
// reached; on failure Err is set and any resource still held stays held.
type Outcome struct {
	Actor int
	State State
	Err   error
}

// Run drives actor a through its state machine against p. A non-zero hold
// is slept while holding the first resource, which is the deadlock window.
//
// On a lock failure the actor returns at once without releasing what it
// holds. The leak is intentional and shows up when the pair is destroyed.
func (p *Pair) Run(a Actor, hold time.Duration, observe func(Event)) Outcome {
	first, second := a.Order[0], a.Order[1]
	emit := func(s State, err error) {
		if observe == nil {
			return
		}
		ev := Event{Actor: a.ID, State: s, First: first, Second: second, Time: time.Now()}
		if err != nil {
			ev.Err = err.Error()
		}
		observe(ev)
	}
	fail := func(s State, err error) Outcome {
		emit(s, err)
		return Outcome{Actor: a.ID, State: s, Err: err}
	}

	emit(Idle, nil)
	if err := p.locks[first].Acquire(); err != nil {
		return fail(Idle, err)
	}
	p.acquired[first]++
	emit(HoldingFirst, nil)

	if hold > 0 {
		time.Sleep(hold)
	}

	if err := p.locks[second].Acquire(); err != nil {
		return fail(HoldingFirst, err)
	}
	p.acquired[second]++
	emit(HoldingBoth, nil)

	if err := p.locks[second].Release(); err != nil {
		return fail(HoldingBoth, err)
	}
	if err := p.locks[first].Release(); err != nil {
		return fail(HoldingFirst, err)
	}
	emit(Released, nil)
	return Outcome{Actor: a.ID, State: Released}
}
