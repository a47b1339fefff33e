// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package clock reads the raw monotonic clock used to stamp samples.
package clock

import (
	"fmt"
	"time"
)

// Timestamp is a monotonic clock reading. It is not wall-clock time.
type Timestamp struct {
	Sec  int64 `json:"sec"`
	Nsec int64 `json:"nsec"`
}

// IsZero reports whether the timestamp was never written.
func (t Timestamp) IsZero() bool { return t.Sec == 0 && t.Nsec == 0 }

// Seconds returns the reading as fractional seconds.
func (t Timestamp) Seconds() float64 {
	return float64(t.Sec) + float64(t.Nsec)/float64(time.Second)
}

// Before reports whether t is strictly earlier than u.
func (t Timestamp) Before(u Timestamp) bool {
	if t.Sec != u.Sec {
		return t.Sec < u.Sec
	}
	return t.Nsec < u.Nsec
}

func (t Timestamp) String() string {
	return fmt.Sprintf("%d.%09d", t.Sec, t.Nsec)
}

// Source provides timestamps.
type Source interface {
	Now() Timestamp
}

// SourceFunc adapts a function to Source.
type SourceFunc func() Timestamp

func (f SourceFunc) Now() Timestamp { return f() }

// Monotonic returns the platform's raw monotonic clock.
func Monotonic() Source { return monotonic{} }
