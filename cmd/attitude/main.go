// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/resource_sync/internal/app"
	"github.com/relabs-tech/resource_sync/internal/config"
)

func main() {
	configPath := flag.String("config", "", "path to a KEY=VALUE config file (defaults when empty)")
	flag.Parse()

	log.Println("starting attitude sampler/deriver")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunAttitude(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
