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

package mqtt

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Target is a broker connection plus the topic to use on it.
type Target struct {
	Broker   string
	Topic    string
	Username string
	Password string
	TLS      bool
}

// ParseTarget parses "[scheme://][user:pass@]host:port/topic". Schemes
// mqtts, ssl and tls select TLS; anything else is plain TCP.
//
// Examples:
//   - "localhost:1883/energysign/in" -> {Broker: "localhost:1883", Topic: "energysign/in"}
//   - "mqtts://sign:pw@broker:8883/sign" -> TLS with credentials
func ParseTarget(path string) (Target, error) {
	if path == "" {
		return Target{}, errors.New("path cannot be empty")
	}

	urlStr := path
	if !strings.Contains(path, "://") {
		urlStr = "mqtt://" + path
	}

	u, err := url.Parse(urlStr)
	if err != nil {
		return Target{}, fmt.Errorf("failed to parse MQTT URL: %w", err)
	}

	if u.Host == "" {
		return Target{}, errors.New("broker address (host:port) is required")
	}

	topic := strings.Trim(u.Path, "/")
	if topic == "" {
		return Target{}, errors.New("topic is required")
	}

	t := Target{Broker: u.Host, Topic: topic}
	switch u.Scheme {
	case "mqtts", "ssl", "tls":
		t.TLS = true
	case "mqtt", "tcp":
	default:
		return Target{}, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}

	if u.User != nil {
		t.Username = u.User.Username()
		t.Password, _ = u.User.Password()
	}

	return t, nil
}

// BrokerURL is the broker address in the form paho expects.
func (t Target) BrokerURL() string {
	if t.TLS {
		return "ssl://" + t.Broker
	}
	return "tcp://" + t.Broker
}

// NewClientOptions builds client options for t with a unique client id made
// from clientIDPrefix.
func NewClientOptions(t Target, clientIDPrefix string) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(t.BrokerURL())
	opts.SetClientID(clientIDPrefix + uuid.New().String()[:8])
	opts.SetAutoReconnect(true)
	// initial connect failures are reported to the caller
	opts.SetConnectRetry(false)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetOrderMatters(false)

	if t.Username != "" {
		opts.SetUsername(t.Username)
		opts.SetPassword(t.Password)
		log.Debug().Msgf("mqtt: using authentication for %s", t.Broker)
	}

	if t.TLS {
		opts.SetTLSConfig(&tls.Config{
			MinVersion: tls.VersionTLS12,
		})
		log.Debug().Msgf("mqtt: using TLS for %s", t.Broker)
	}

	return opts
}

type ClientFactory func(opts *mqtt.ClientOptions) mqtt.Client

func DefaultClientFactory(opts *mqtt.ClientOptions) mqtt.Client {
	return mqtt.NewClient(opts)
}
