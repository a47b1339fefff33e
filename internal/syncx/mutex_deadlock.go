//go:build deadlock

package syncx

import (
	"log"
	"time"

	deadlock "github.com/sasha-s/go-deadlock"
)

// DeadlockDetection is true when built with -tags deadlock.
const DeadlockDetection = true

type mutex = deadlock.Mutex

func init() {
	deadlock.Opts.DeadlockTimeout = 30 * time.Second
	// Report only. The unsafe scenario is expected to stay blocked.
	deadlock.Opts.OnPotentialDeadlock = func() {
		log.Println("syncx: potential deadlock reported by detector")
	}
}
