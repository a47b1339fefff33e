package app

import (
	"errors"
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/resource_sync/internal/attitude"
	"github.com/relabs-tech/resource_sync/internal/config"
	"github.com/relabs-tech/resource_sync/internal/publish"
	"github.com/relabs-tech/resource_sync/internal/resources"
	"github.com/relabs-tech/resource_sync/internal/sched"
	"github.com/relabs-tech/resource_sync/internal/telemetry"
)

type recordSink interface {
	PublishRecord(attitude.Record) error
}

type eventSink interface {
	PublishEvent(resources.Event) error
}

// recordFanout forwards a record to every sink and joins their errors.
type recordFanout []recordSink

func (f recordFanout) PublishRecord(rec attitude.Record) error {
	var errs []error
	for _, s := range f {
		errs = append(errs, s.PublishRecord(rec))
	}
	return errors.Join(errs...)
}

type eventFanout []eventSink

func (f eventFanout) PublishEvent(ev resources.Event) error {
	var errs []error
	for _, s := range f {
		errs = append(errs, s.PublishEvent(ev))
	}
	return errors.Join(errs...)
}

// configureScheduler applies the configured real-time policy. A failure is
// fatal for the caller.
func configureScheduler(cfg *config.Config) error {
	policy, err := sched.ParsePolicy(cfg.SchedPolicy)
	if err != nil {
		return err
	}
	if err := sched.Configure(policy, cfg.SchedPriority); err != nil {
		return fmt.Errorf("failed to set schedule for thread: %w", err)
	}
	if policy != sched.PolicyNone {
		log.Printf("scheduler: %s priority %d", policy, cfg.SchedPriority)
	}
	return nil
}

// openRecordSinks opens the MQTT and serial sinks enabled in cfg. With none
// enabled the sink is nil. The returned close func is always safe to call.
func openRecordSinks(cfg *config.Config) (recordSink, func(), error) {
	var (
		out     recordFanout
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.MQTTBroker != "" {
		client, err := publish.Connect(cfg.MQTTBroker, cfg.MQTTClientIDAttitude)
		if err != nil {
			return nil, closeAll, err
		}
		p := publish.New(client, cfg.TopicAttitude, cfg.TopicResources)
		out = append(out, p)
		closers = append(closers, p.Close)
		log.Printf("attitude: publishing records to %s on %s", cfg.MQTTBroker, cfg.TopicAttitude)
	}

	if cfg.TelemetrySerialPort != "" {
		w, err := telemetry.OpenSerial(cfg.TelemetrySerialPort, cfg.TelemetryBaudRate)
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		out = append(out, w)
		closers = append(closers, func() {
			if err := w.Close(); err != nil {
				log.Printf("attitude: telemetry close error: %v", err)
			}
		})
		log.Printf("attitude: telemetry on %s at %d baud", cfg.TelemetrySerialPort, cfg.TelemetryBaudRate)
	}

	if len(out) == 0 {
		return nil, closeAll, nil
	}
	return out, closeAll, nil
}

// openEventSinks opens the MQTT sink for actor transitions if enabled. With
// no broker the sink is nil.
func openEventSinks(cfg *config.Config) (eventSink, func(), error) {
	if cfg.MQTTBroker == "" {
		return nil, func() {}, nil
	}
	client, err := publish.Connect(cfg.MQTTBroker, cfg.MQTTClientIDDeadlock)
	if err != nil {
		return nil, func() {}, err
	}
	p := publish.New(client, cfg.TopicAttitude, cfg.TopicResources)
	log.Printf("deadlock: publishing transitions to %s on %s", cfg.MQTTBroker, cfg.TopicResources)
	return eventFanout{p}, p.Close, nil
}

// subscribe subscribes handler to topic and waits for the broker's ack.
func subscribe(client mqtt.Client, topic string, handler mqtt.MessageHandler) error {
	token := client.Subscribe(topic, 0, handler)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", topic, token.Error())
	}
	return nil
}
