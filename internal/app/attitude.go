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

	"github.com/relabs-tech/resource_sync/internal/attitude"
	"github.com/relabs-tech/resource_sync/internal/clock"
	"github.com/relabs-tech/resource_sync/internal/config"
	"github.com/relabs-tech/resource_sync/internal/syncx"
)

// RunAttitude runs the sampler/deriver scenario once with the global config.
func RunAttitude() error {
	cfg := config.Get()

	if err := configureScheduler(cfg); err != nil {
		return err
	}

	out, closeSinks, err := openRecordSinks(cfg)
	defer closeSinks()
	if err != nil {
		return err
	}

	runAttitude(cfg, os.Stdout, out)
	fmt.Println("Test Complete")
	return nil
}

// runAttitude wires a fresh channel, runs both roles and returns their
// outcomes. Worker failures are logged, never returned.
func runAttitude(cfg *config.Config, stdout io.Writer, out recordSink) []attitude.Outcome {
	seed := cfg.RandomSeed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	log.Printf("attitude: %d iterations, seed %d", cfg.Iterations, seed)

	lock := syncx.New("sample")
	ch := attitude.NewChannel(lock, clock.Monotonic(), attitude.NewRandomVelocity(seed, cfg.VelocityRange))

	emit := func(rec attitude.Record) {
		printRecord(stdout, rec)
		if out == nil {
			return
		}
		if err := out.PublishRecord(rec); err != nil {
			log.Printf("attitude: publish error: %v", err)
		}
	}

	outcomes := attitude.Run(ch, attitude.RunOptions{
		Iterations:        cfg.Iterations,
		Emit:              emit,
		HeartbeatInterval: cfg.JoinHeartbeat(),
		Heartbeat: func(role attitude.Role, elapsed time.Duration) {
			log.Printf("attitude: still waiting for %s after %v", role, elapsed.Round(time.Millisecond))
		},
	})

	for _, o := range outcomes {
		if o.Err != nil {
			log.Printf("attitude: %s stopped after %d iterations: %v", o.Role, o.Completed, o.Err)
			continue
		}
		log.Printf("attitude: %s completed %d iterations", o.Role, o.Completed)
	}

	if err := lock.Destroy(); err != nil {
		log.Printf("attitude: mutex destroy: %v", err)
	}
	return outcomes
}

func printRecord(w io.Writer, rec attitude.Record) {
	fmt.Fprintf(w,
		"Test: %d X_Accel: %.3f Y_Accel: %.3f Z_Accel: %.3f Yaw: %.3f Pitch: %.3f Roll: %.3f at time: %s\n",
		rec.Iteration,
		rec.X, rec.Y, rec.Z,
		rec.Yaw, rec.Pitch, rec.Roll,
		rec.SampleTime,
	)
}
