//go:build !deadlock

package syncx

import "sync"

// DeadlockDetection is true when built with -tags deadlock.
const DeadlockDetection = false

type mutex = sync.Mutex
