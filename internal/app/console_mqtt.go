package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/resource_sync/internal/attitude"
	"github.com/relabs-tech/resource_sync/internal/config"
	"github.com/relabs-tech/resource_sync/internal/publish"
	"github.com/relabs-tech/resource_sync/internal/resources"
)

// RunConsoleMQTT prints every record and transition published on the
// configured topics until interrupted.
func RunConsoleMQTT() error {
	cfg := config.Get()
	if cfg.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required for the console")
	}

	client, err := publish.Connect(cfg.MQTTBroker, cfg.MQTTClientIDConsole)
	if err != nil {
		return err
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	if err := subscribe(client, cfg.TopicAttitude, func(_ mqtt.Client, msg mqtt.Message) {
		var rec attitude.Record
		if err := json.Unmarshal(msg.Payload(), &rec); err != nil {
			log.Printf("console: attitude unmarshal error: %v", err)
			return
		}

		fmt.Printf(
			"[ATT ] #%-4d ROLL=%8.3f  PITCH=%8.3f  YAW=%8.3f  t=%s\n",
			rec.Iteration, rec.Roll, rec.Pitch, rec.Yaw, rec.SampleTime,
		)
	}); err != nil {
		return err
	}
	log.Printf("console: subscribed to %s", cfg.TopicAttitude)

	if err := subscribe(client, cfg.TopicResources, func(_ mqtt.Client, msg mqtt.Message) {
		var ev resources.Event
		if err := json.Unmarshal(msg.Payload(), &ev); err != nil {
			log.Printf("console: resource unmarshal error: %v", err)
			return
		}
		fmt.Printf("[RSRC] %s\n", ev.String())
	}); err != nil {
		return err
	}
	log.Printf("console: subscribed to %s", cfg.TopicResources)

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
