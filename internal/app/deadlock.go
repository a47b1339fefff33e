// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/relabs-tech/resource_sync/internal/config"
	"github.com/relabs-tech/resource_sync/internal/resources"
	"github.com/relabs-tech/resource_sync/internal/syncx"
)

// RunDeadlock runs the resource-pair scenario selected by mode. In the
// unsafe mode it does not return.
func RunDeadlock(mode resources.Mode) error {
	cfg := config.Get()

	if err := configureScheduler(cfg); err != nil {
		return err
	}

	out, closeSinks, err := openEventSinks(cfg)
	defer closeSinks()
	if err != nil {
		return err
	}

	runDeadlock(cfg, mode, os.Stdout, out)
	fmt.Println("All done")
	return nil
}

func runDeadlock(cfg *config.Config, mode resources.Mode, stdout io.Writer, out eventSink) resources.Report {
	log.Printf("deadlock: %s scenario, hold %v", mode, cfg.HoldDelay())
	if syncx.DeadlockDetection {
		log.Println("deadlock: built with go-deadlock detector")
	}

	pair := resources.NewPair()
	report := resources.Simulate(pair, resources.Options{
		Policy: mode.Policy(cfg.HoldDelay()),
		Observe: func(ev resources.Event) {
			fmt.Fprintln(stdout, ev.String())
			if out == nil {
				return
			}
			if err := out.PublishEvent(ev); err != nil {
				log.Printf("deadlock: publish error: %v", err)
			}
		},
		HeartbeatInterval: cfg.JoinHeartbeat(),
		Heartbeat: func(actor int, elapsed time.Duration) {
			log.Printf("deadlock: still waiting for thread %d after %v", actor, elapsed.Round(time.Millisecond))
		},
	})

	if report.AfterFirstValid {
		log.Printf("deadlock: after thread 1: acquiredA=%d, acquiredB=%d", report.AfterFirst.A, report.AfterFirst.B)
	}
	log.Printf("deadlock: final: acquiredA=%d, acquiredB=%d", report.Final.A, report.Final.B)

	if err := pair.Destroy(); err != nil {
		log.Printf("deadlock: mutex destroy: %v", err)
	}
	return report
}
