// Energy Sign Core
// Copyright (c) 2026 The Energy Sign Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Energy Sign Core.
//
// Energy Sign Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Energy Sign Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Energy Sign Core.  If not, see <http://www.gnu.org/licenses/>.

// Package publishers forwards service notifications to external systems.
package publishers

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/EnergySign/energysign-core/pkg/api/models"
	readermqtt "github.com/EnergySign/energysign-core/pkg/readers/mqtt"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

const connectTimeout = 10 * time.Second

// MQTTPublisher publishes each notification's params to
// "<topic>/<method>", for example "energysign/events/display.message".
type MQTTPublisher struct {
	client        mqtt.Client
	clientFactory readermqtt.ClientFactory
	stopCh        chan struct{}
	stopOnce      sync.Once
	wg            sync.WaitGroup
	target        readermqtt.Target
	filter        []string
}

// NewMQTTPublisher parses broker (optionally with a scheme and
// credentials) and topic. An empty filter publishes every notification.
func NewMQTTPublisher(broker, topic string, filter []string) (*MQTTPublisher, error) {
	target, err := readermqtt.ParseTarget(broker + "/" + topic)
	if err != nil {
		return nil, fmt.Errorf("invalid mqtt publisher: %w", err)
	}
	return &MQTTPublisher{
		clientFactory: readermqtt.DefaultClientFactory,
		target:        target,
		filter:        filter,
		stopCh:        make(chan struct{}),
	}, nil
}

// Start connects to the broker and publishes notifications until Stop or
// until notifications closes.
func (p *MQTTPublisher) Start(notifications <-chan models.Notification) error {
	opts := readermqtt.NewClientOptions(p.target, "energysign-publisher-")
	opts.SetConnectRetry(true)

	opts.OnConnect = func(_ mqtt.Client) {
		log.Info().Msgf("mqtt publisher: connected to %s", p.target.Broker)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("mqtt publisher: connection lost")
	}

	p.client = p.clientFactory(opts)

	// with connect retry on, a timeout means the broker is down and the
	// client keeps trying in the background
	token := p.client.Connect()
	if token.WaitTimeout(connectTimeout) && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	p.wg.Add(1)
	go p.publishNotifications(notifications)

	return nil
}

// Stop disconnects and waits for the publish loop to exit. It is safe to
// call more than once.
func (p *MQTTPublisher) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
	})
	p.wg.Wait()

	if p.client != nil && p.client.IsConnected() {
		log.Debug().Msg("mqtt publisher: disconnecting")
		p.client.Disconnect(250)
	}
}

func (p *MQTTPublisher) publishNotifications(notifications <-chan models.Notification) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopCh:
			return
		case notif, ok := <-notifications:
			if !ok {
				log.Debug().Msg("mqtt publisher: notification channel closed")
				return
			}
			if !p.matchesFilter(notif.Method) {
				continue
			}
			if err := p.publish(notif); err != nil {
				log.Error().Err(err).Msgf("mqtt publisher: failed to publish %s", notif.Method)
			}
		}
	}
}

func (p *MQTTPublisher) publish(notif models.Notification) error {
	payload := []byte(notif.Params)
	if payload == nil {
		payload = []byte("{}")
	}
	topic := p.target.Topic + "/" + notif.Method
	token := p.client.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(connectTimeout) {
		return errors.New("publish timed out")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish failed: %w", err)
	}
	log.Debug().Msgf("mqtt publisher: published %s", topic)
	return nil
}

func (p *MQTTPublisher) matchesFilter(method string) bool {
	return len(p.filter) == 0 || slices.Contains(p.filter, method)
}
