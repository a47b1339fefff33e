// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package syncx provides the exclusive lock shared by both scenarios.
//
// Unlike sync.Mutex, every operation reports failure as an error: releasing
// a lock that is not held, acquiring a destroyed lock, or destroying a lock
// that is still held all return a *LockError instead of crashing the
// process. Build with -tags deadlock to back the lock with go-deadlock.
package syncx

import (
	"errors"
	"fmt"
	"sync/atomic"
)

var (
	ErrNotHeld   = errors.New("mutex is not held")
	ErrDestroyed = errors.New("mutex destroyed")
	ErrBusy      = errors.New("mutex still held")
)

// LockError describes a failed lock operation on a named mutex.
type LockError struct {
	Op   string // "acquire", "release" or "destroy"
	Name string
	Err  error
}

func (e *LockError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Name, e.Err)
}

func (e *LockError) Unwrap() error { return e.Err }

// Locker is an exclusive lock whose operations can fail.
type Locker interface {
	Acquire() error
	Release() error
}

// Mutex is a non-reentrant exclusive lock. The zero value is not usable;
// create one with New.
type Mutex struct {
	name      string
	mu        mutex
	held      atomic.Bool
	destroyed atomic.Bool
}

// New returns an unlocked mutex. The name is used in errors and logs.
func New(name string) *Mutex {
	return &Mutex{name: name}
}

// Name returns the name given to New.
func (m *Mutex) Name() string { return m.name }

// Acquire blocks until the lock is held by the caller.
// There is no timeout: a lock that is never released blocks forever.
func (m *Mutex) Acquire() error {
	if m.destroyed.Load() {
		return &LockError{Op: "acquire", Name: m.name, Err: ErrDestroyed}
	}
	m.mu.Lock()
	if m.destroyed.Load() {
		m.mu.Unlock()
		return &LockError{Op: "acquire", Name: m.name, Err: ErrDestroyed}
	}
	m.held.Store(true)
	return nil
}

// Release unlocks the mutex. Releasing a mutex that is not held returns
// ErrNotHeld and leaves the lock untouched.
func (m *Mutex) Release() error {
	if !m.held.CompareAndSwap(true, false) {
		return &LockError{Op: "release", Name: m.name, Err: ErrNotHeld}
	}
	m.mu.Unlock()
	return nil
}

// Held reports whether some goroutine currently holds the lock.
func (m *Mutex) Held() bool { return m.held.Load() }

// Destroy marks the mutex unusable. It fails with ErrBusy while the lock is
// held, leaving it intact; later acquires fail with ErrDestroyed.
func (m *Mutex) Destroy() error {
	if m.held.Load() {
		return &LockError{Op: "destroy", Name: m.name, Err: ErrBusy}
	}
	if !m.destroyed.CompareAndSwap(false, true) {
		return &LockError{Op: "destroy", Name: m.name, Err: ErrDestroyed}
	}
	return nil
}
