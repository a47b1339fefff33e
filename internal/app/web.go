package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/resource_sync/internal/attitude"
	"github.com/relabs-tech/resource_sync/internal/config"
	"github.com/relabs-tech/resource_sync/internal/publish"
	"github.com/relabs-tech/resource_sync/internal/resources"
	"github.com/relabs-tech/resource_sync/internal/web"
)

// RunWeb mirrors the MQTT topics into a web.Hub and serves it.
func RunWeb() error {
	cfg := config.Get()
	if cfg.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required for the web server")
	}

	client, err := publish.Connect(cfg.MQTTBroker, cfg.MQTTClientIDWeb)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	log.Printf("web: connected to MQTT broker at %s", cfg.MQTTBroker)

	hub := web.NewHub()
	if err := mirror(client, cfg, hub); err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web: server listening on %s", addr)
	return http.ListenAndServe(addr, hub.Handler())
}

// mirror subscribes to both topics and forwards decoded messages to hub.
func mirror(client mqtt.Client, cfg *config.Config, hub *web.Hub) error {
	if err := subscribe(client, cfg.TopicAttitude, func(_ mqtt.Client, msg mqtt.Message) {
		var rec attitude.Record
		if err := json.Unmarshal(msg.Payload(), &rec); err != nil {
			log.Printf("web: attitude unmarshal error: %v", err)
			return
		}
		hub.PublishRecord(rec)
	}); err != nil {
		return err
	}
	log.Printf("web: subscribed to %s", cfg.TopicAttitude)

	if err := subscribe(client, cfg.TopicResources, func(_ mqtt.Client, msg mqtt.Message) {
		var ev resources.Event
		if err := json.Unmarshal(msg.Payload(), &ev); err != nil {
			log.Printf("web: resource unmarshal error: %v", err)
			return
		}
		hub.PublishEvent(ev)
	}); err != nil {
		return err
	}
	log.Printf("web: subscribed to %s", cfg.TopicResources)
	return nil
}
