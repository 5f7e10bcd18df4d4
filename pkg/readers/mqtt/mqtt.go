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

// Package mqtt reads sign inputs from an MQTT broker. Payloads published to
// the configured topic are submitted as sign writes; JSON track reports
// published to "<topic>/track" set now playing.
package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/EnergySign/energysign-core/pkg/config"
	"github.com/EnergySign/energysign-core/pkg/helpers"
	"github.com/EnergySign/energysign-core/pkg/helpers/syncutil"
	"github.com/EnergySign/energysign-core/pkg/readers"
	"github.com/EnergySign/energysign-core/pkg/service/tracks"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

const (
	TrackSuffix    = "/track"
	connectTimeout = 5 * time.Second
)

type Reader struct {
	client        mqtt.Client
	inputCh       chan<- readers.Input
	clientFactory ClientFactory
	device        config.ReadersConnect
	target        Target
	mu            syncutil.RWMutex
}

func NewReader() *Reader {
	return &Reader{
		clientFactory: DefaultClientFactory,
	}
}

func (*Reader) Metadata() readers.DriverMetadata {
	return readers.DriverMetadata{
		ID:          "mqtt",
		Description: "MQTT input topic",
	}
}

func (*Reader) IDs() []string {
	return []string{"mqtt"}
}

func (r *Reader) Open(device config.ReadersConnect, inputCh chan<- readers.Input) error {
	if !helpers.Contains(r.IDs(), device.Driver) {
		return errors.New("invalid reader id: " + device.Driver)
	}

	target, err := ParseTarget(device.Path)
	if err != nil {
		return fmt.Errorf("failed to parse MQTT path: %w", err)
	}

	r.device = device
	r.target = target
	r.inputCh = inputCh

	opts := NewClientOptions(target, "energysign-in-")

	// subscriptions are renewed on every reconnect
	opts.OnConnect = func(client mqtt.Client) {
		log.Info().Msgf("mqtt reader: connected to %s", target.Broker)

		subs := map[string]mqtt.MessageHandler{
			target.Topic:               r.handlePayload,
			target.Topic + TrackSuffix: r.handleTrack,
		}
		for topic, handler := range subs {
			token := client.Subscribe(topic, 1, handler)
			if token.Wait() && token.Error() != nil {
				log.Error().Err(token.Error()).Msgf("mqtt reader: failed to subscribe to %s", topic)
				continue
			}
			log.Info().Msgf("mqtt reader: subscribed to topic %s", topic)
		}
	}

	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("mqtt reader: connection lost")
	}

	client := r.clientFactory(opts)

	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		client.Disconnect(0)
		return errors.New("failed to connect to MQTT broker: connection timeout")
	}
	if err := token.Error(); err != nil {
		client.Disconnect(0)
		return fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}

	r.mu.Lock()
	r.client = client
	r.mu.Unlock()

	log.Info().Msgf("mqtt reader: opened connection to %s (topic: %s)", target.Broker, target.Topic)
	return nil
}

func (r *Reader) handlePayload(_ mqtt.Client, msg mqtt.Message) {
	payload := msg.Payload()
	if len(payload) == 0 {
		log.Debug().Msg("mqtt reader: ignoring empty message")
		return
	}
	log.Debug().Msgf("mqtt reader: received payload: %s", payload)
	r.inputCh <- readers.PayloadInput(r.device.ConnectionString(), payload)
}

func (r *Reader) handleTrack(_ mqtt.Client, msg mqtt.Message) {
	var t tracks.Track
	if len(msg.Payload()) > 0 {
		if err := json.Unmarshal(msg.Payload(), &t); err != nil {
			log.Warn().Err(err).Msgf("mqtt reader: invalid track report: %s", msg.Payload())
			return
		}
	}
	r.inputCh <- readers.TrackInput(r.device.ConnectionString(), t)
}

func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.client != nil && r.client.IsConnected() {
		log.Debug().Msg("mqtt reader: disconnecting")
		r.client.Disconnect(250)
	}
	return nil
}

func (r *Reader) Device() string {
	return r.device.ConnectionString()
}

func (r *Reader) Connected() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.client != nil && r.client.IsConnected()
}

func (r *Reader) Info() string {
	return "MQTT: " + r.target.Topic
}
