// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package worker spawns scenario workers on dedicated OS threads and joins
// them through a result channel.
package worker

import (
	"runtime"
	"time"
)

// Task is a running worker whose result can be joined once.
type Task[T any] struct {
	Name   string
	result chan T
}

// Spawn starts fn on its own goroutine locked to an OS thread. Workers are
// not cancellable: the only way out is fn returning.
func Spawn[T any](name string, fn func() T) *Task[T] {
	t := &Task[T]{Name: name, result: make(chan T, 1)}
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		t.result <- fn()
	}()
	return t
}

// Join blocks until the worker returns.
func (t *Task[T]) Join() T {
	return <-t.result
}

// JoinWithHeartbeat blocks until the worker returns, calling waiting every
// interval while it has not. It never gives up. A non-positive interval
// behaves like Join.
func (t *Task[T]) JoinWithHeartbeat(interval time.Duration, waiting func(elapsed time.Duration)) T {
	if interval <= 0 || waiting == nil {
		return t.Join()
	}
	start := time.Now()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case v := <-t.result:
			return v
		case <-ticker.C:
			waiting(time.Since(start))
		}
	}
}
