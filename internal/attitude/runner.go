// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package attitude

import (
	"time"

	"github.com/relabs-tech/resource_sync/internal/worker"
)

// DefaultIterations is the number of loop iterations each role runs.
const DefaultIterations = 100

// Role names one of the two workers sharing a Channel.
type Role string

const (
	RoleDeriver Role = "deriver"
	RoleSampler Role = "sampler"
)

// Outcome is what a worker reports when it returns. Err is nil when every
// iteration completed; otherwise it is the lock failure that stopped the
// loop after Completed iterations.
type Outcome struct {
	Role      Role
	Completed int
	Err       error
}

// RunSampler stamps the sample time iterations times with no delay between
// iterations. It stops at the first lock failure.
func RunSampler(c *Channel, iterations int) Outcome {
	for i := 0; i < iterations; i++ {
		if err := c.WriteTimestamp(); err != nil {
			return Outcome{Role: RoleSampler, Completed: i, Err: err}
		}
	}
	return Outcome{Role: RoleSampler, Completed: iterations}
}

// RunDeriver derives iterations records and hands each one to emit after
// the lock has been released. It stops at the first lock failure.
func RunDeriver(c *Channel, iterations int, emit func(Record)) Outcome {
	for i := 0; i < iterations; i++ {
		rec, err := c.SampleAndDerive(i)
		if err != nil {
			return Outcome{Role: RoleDeriver, Completed: i, Err: err}
		}
		if emit != nil {
			emit(rec)
		}
	}
	return Outcome{Role: RoleDeriver, Completed: iterations}
}

// RunOptions configures Run.
type RunOptions struct {
	Iterations int
	Emit       func(Record)

	// Heartbeat, when set, is called every HeartbeatInterval while a join
	// is still waiting.
	HeartbeatInterval time.Duration
	Heartbeat         func(role Role, elapsed time.Duration)
}

// Run spawns the deriver and the sampler on their own threads, both sharing
// c, and joins them in that order. Lock failures are returned in the
// outcomes and never stop the other worker.
func Run(c *Channel, opts RunOptions) []Outcome {
	iterations := opts.Iterations
	if iterations <= 0 {
		iterations = DefaultIterations
	}

	deriver := worker.Spawn(string(RoleDeriver), func() Outcome {
		return RunDeriver(c, iterations, opts.Emit)
	})
	sampler := worker.Spawn(string(RoleSampler), func() Outcome {
		return RunSampler(c, iterations)
	})

	outcomes := make([]Outcome, 0, 2)
	for _, task := range []*worker.Task[Outcome]{deriver, sampler} {
		role := Role(task.Name)
		outcomes = append(outcomes, task.JoinWithHeartbeat(opts.HeartbeatInterval, func(elapsed time.Duration) {
			if opts.Heartbeat != nil {
				opts.Heartbeat(role, elapsed)
			}
		}))
	}
	return outcomes
}
