package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/resource_sync/internal/attitude"
	"github.com/relabs-tech/resource_sync/internal/config"
	"github.com/relabs-tech/resource_sync/internal/display"
	"github.com/relabs-tech/resource_sync/internal/publish"
)

// RunDisplay shows the latest published attitude record on the OLED panel.
func RunDisplay() error {
	cfg := config.Get()
	if cfg.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required for the display")
	}
	if cfg.DisplayI2CAddr == 0 {
		return fmt.Errorf("DISPLAY_I2C_ADDR is required for the display")
	}

	panel, err := display.OpenPanel(cfg.DisplayI2CAddr)
	if err != nil {
		return err
	}
	defer panel.Close()
	log.Printf("display: initialized at 0x%02X", cfg.DisplayI2CAddr)

	if err := panel.Show(nil); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	var (
		mu         sync.RWMutex
		lastRecord attitude.Record
		haveRecord bool
	)

	client, err := publish.Connect(cfg.MQTTBroker, cfg.MQTTClientIDDisplay)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	log.Printf("display: connected to MQTT broker at %s", cfg.MQTTBroker)

	if err := subscribe(client, cfg.TopicAttitude, func(_ mqtt.Client, msg mqtt.Message) {
		var rec attitude.Record
		if err := json.Unmarshal(msg.Payload(), &rec); err != nil {
			log.Printf("display: attitude unmarshal error: %v", err)
			return
		}
		mu.Lock()
		lastRecord = rec
		haveRecord = true
		mu.Unlock()
	}); err != nil {
		return err
	}
	log.Printf("display: subscribed to %s", cfg.TopicAttitude)

	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	log.Println("display: starting update loop")

	latest := func() (attitude.Record, bool) {
		mu.RLock()
		defer mu.RUnlock()
		return lastRecord, haveRecord
	}
	refreshLoop(ticker.C, sigCh, latest, panel.Show)

	log.Println("display: shutting down")
	return nil
}

// refreshLoop shows the latest record on every tick until stop fires.
// Ticks before the first record leave the panel alone.
func refreshLoop(tick <-chan time.Time, stop <-chan os.Signal, latest func() (attitude.Record, bool), show func(*attitude.Record) error) {
	for {
		select {
		case <-stop:
			return
		case <-tick:
		}

		rec, ok := latest()
		if !ok {
			continue
		}
		if err := show(&rec); err != nil {
			log.Printf("display: error updating display: %v", err)
		}
	}
}
