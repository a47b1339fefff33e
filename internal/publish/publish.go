// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package publish sends derived records and actor transitions to MQTT.
package publish

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/resource_sync/internal/attitude"
	"github.com/relabs-tech/resource_sync/internal/resources"
)

// publishTimeout bounds how long a single publish may wait for the broker.
const publishTimeout = 2 * time.Second

// Connect connects to broker and returns the client.
func Connect(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("MQTT connect %s: %w", broker, token.Error())
	}
	return client, nil
}

// Publisher publishes JSON payloads on the configured topics.
type Publisher struct {
	client         mqtt.Client
	topicAttitude  string
	topicResources string
}

// New returns a Publisher using an already connected client.
func New(client mqtt.Client, topicAttitude, topicResources string) *Publisher {
	return &Publisher{
		client:         client,
		topicAttitude:  topicAttitude,
		topicResources: topicResources,
	}
}

// PublishRecord publishes one derived attitude record (retained, so late
// subscribers see the latest one).
func (p *Publisher) PublishRecord(rec attitude.Record) error {
	return p.publish(p.topicAttitude, true, rec)
}

// PublishEvent publishes one actor state transition.
func (p *Publisher) PublishEvent(ev resources.Event) error {
	return p.publish(p.topicResources, false, ev)
}

// Close disconnects the client.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}

func (p *Publisher) publish(topic string, retained bool, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("json marshal (%s): %w", topic, err)
	}
	token := p.client.Publish(topic, 0, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("MQTT publish (%s): timed out after %v", topic, publishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("MQTT publish (%s): %w", topic, err)
	}
	return nil
}
