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

package config

import (
	"net"
	"slices"
	"strconv"
)

const DefaultAPIListen = "127.0.0.1:7497"

type API struct {
	Listen         string    `toml:"listen,omitempty"`
	AllowedOrigins []string  `toml:"allowed_origins,omitempty"`
	Disabled       bool      `toml:"disabled,omitempty"`
	Discovery      Discovery `toml:"discovery,omitempty"`
}

// Discovery advertises the API over mDNS. It only applies when the API
// listens on something other than loopback.
type Discovery struct {
	Enabled      *bool  `toml:"enabled,omitempty"`
	InstanceName string `toml:"instance_name,omitempty"`
}

type Publishers struct {
	MQTT []MQTTPublisher `toml:"mqtt,omitempty"`
}

// MQTTPublisher forwards notifications to a broker topic. An empty Filter
// forwards everything.
type MQTTPublisher struct {
	Enabled *bool    `toml:"enabled,omitempty"`
	Broker  string   `toml:"broker"`
	Topic   string   `toml:"topic"`
	Filter  []string `toml:"filter,omitempty,multiline"`
}

func (c *Instance) APIListen() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.API.Listen == "" {
		return DefaultAPIListen
	}
	return c.vals.API.Listen
}

func (c *Instance) APIEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.vals.API.Disabled
}

// APIPort returns the port of the API listen address, or 0 when it can't
// be parsed.
func (c *Instance) APIPort() int {
	_, port, err := net.SplitHostPort(c.APIListen())
	if err != nil {
		return 0
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		return 0
	}
	return p
}

// DiscoveryEnabled reports whether the API should be advertised over mDNS.
// It defaults to on for APIs reachable from the network.
func (c *Instance) DiscoveryEnabled() bool {
	if !c.APIEnabled() {
		return false
	}
	host, _, err := net.SplitHostPort(c.APIListen())
	if err != nil {
		return false
	}
	if ip := net.ParseIP(host); host == "localhost" || (ip != nil && ip.IsLoopback()) {
		return false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.API.Discovery.Enabled == nil {
		return true
	}
	return *c.vals.API.Discovery.Enabled
}

func (c *Instance) DiscoveryInstanceName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.API.Discovery.InstanceName
}

func (c *Instance) AllowedOrigins() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.vals.API.AllowedOrigins)
}

func (c *Instance) GetMQTTPublishers() []MQTTPublisher {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.vals.Publishers.MQTT)
}
