// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/relabs-tech/resource_sync/internal/app"
	"github.com/relabs-tech/resource_sync/internal/config"
	"github.com/relabs-tech/resource_sync/internal/resources"
)

func main() {
	configPath := flag.String("config", "", "path to a KEY=VALUE config file (defaults when empty)")
	flag.Parse()

	mode := resources.ModeUnsafe
	switch flag.NArg() {
	case 0:
	case 1:
		mode = resources.ParseMode(flag.Arg(0))
	default:
		fmt.Println("Usage: deadlock [safe|race|unsafe]")
	}
	if mode == resources.ModeUnsafe {
		log.Println("Will set up unsafe deadlock scenario")
	}

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunDeadlock(mode); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
