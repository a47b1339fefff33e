package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/resource_sync/internal/app"
	"github.com/relabs-tech/resource_sync/internal/config"
)

func main() {
	configPath := flag.String("config", "", "path to a KEY=VALUE config file")
	flag.Parse()

	log.Println("starting resource-sync console (MQTT subscriber)")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunConsoleMQTT(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
