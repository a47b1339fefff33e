package app

import (
	"fmt"
	"log"
	"os"

	"github.com/relabs-tech/resource_sync/internal/attitude"
	"github.com/relabs-tech/resource_sync/internal/config"
	"github.com/relabs-tech/resource_sync/internal/publish"
	"github.com/relabs-tech/resource_sync/internal/telemetry"
)

// RunTelemetryBridge reads $PATT sentences from the telemetry serial port,
// prints every record and republishes it to MQTT when a broker is set.
func RunTelemetryBridge() error {
	cfg := config.Get()
	if cfg.TelemetrySerialPort == "" {
		return fmt.Errorf("TELEMETRY_SERIAL_PORT is required for the bridge")
	}

	var out recordSink
	if cfg.MQTTBroker != "" {
		client, err := publish.Connect(cfg.MQTTBroker, cfg.MQTTClientIDBridge)
		if err != nil {
			return err
		}
		p := publish.New(client, cfg.TopicAttitude, cfg.TopicResources)
		defer p.Close()
		out = p
		log.Printf("bridge: connected to MQTT broker at %s", cfg.MQTTBroker)
	}

	port, err := telemetry.OpenPort(cfg.TelemetrySerialPort, cfg.TelemetryBaudRate)
	if err != nil {
		return err
	}
	defer port.Close()
	log.Printf("bridge: serial port opened on %s at %d baud", cfg.TelemetrySerialPort, cfg.TelemetryBaudRate)

	skipped, err := telemetry.Scan(port, func(rec attitude.Record) {
		printRecord(os.Stdout, rec)
		if out == nil {
			return
		}
		if err := out.PublishRecord(rec); err != nil {
			log.Printf("bridge: publish error: %v", err)
		}
	})
	log.Printf("bridge: skipped %d malformed lines", skipped)
	return fmt.Errorf("telemetry read: %w", err)
}
