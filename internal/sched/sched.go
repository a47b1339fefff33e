// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sched configures the real-time scheduling policy of the calling
// thread before the scenario workers are spawned.
package sched

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupported is returned on platforms without real-time scheduling.
var ErrUnsupported = errors.New("real-time scheduling not supported on this platform")

// Policy names a scheduling policy.
type Policy string

const (
	PolicyNone Policy = "none" // leave the inherited policy alone
	PolicyFIFO Policy = "fifo"
	PolicyRR   Policy = "rr"
)

// Priority bounds for the real-time policies.
const (
	MinPriority = 1
	MaxPriority = 99
)

// ParsePolicy maps a configuration value to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "", PolicyNone:
		return PolicyNone, nil
	case PolicyFIFO, PolicyRR:
		return p, nil
	default:
		return "", fmt.Errorf("unknown scheduling policy %q (want none, fifo or rr)", s)
	}
}

// Configure applies policy and priority to the calling thread. PolicyNone is
// a no-op. Any other failure is meant to abort startup.
func Configure(policy Policy, priority int) error {
	if policy == PolicyNone {
		return nil
	}
	if priority < MinPriority || priority > MaxPriority {
		return fmt.Errorf("scheduling priority must be %d-%d, got %d", MinPriority, MaxPriority, priority)
	}
	if err := setScheduler(policy, priority); err != nil {
		return fmt.Errorf("set %s scheduler (priority %d): %w", policy, priority, err)
	}
	return nil
}
