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
	"fmt"
	"slices"
)

// Readers lists the input sources to connect at startup, in addition to
// the HTTP API which is always available.
type Readers struct {
	Connect []ReadersConnect `toml:"connect,omitempty"`
}

// ReadersConnect names an input driver and its connection target: a serial
// device path, or "broker/topic" for mqtt.
type ReadersConnect struct {
	Enabled *bool  `toml:"enabled,omitempty"`
	Driver  string `toml:"driver"`
	Path    string `toml:"path,omitempty"`
}

func (r ReadersConnect) ConnectionString() string {
	return fmt.Sprintf("%s:%s", r.Driver, r.Path)
}

func (r ReadersConnect) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

func (c *Instance) Readers() Readers {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Readers{Connect: slices.Clone(c.vals.Readers.Connect)}
}

func (c *Instance) SetReaderConnections(rcs []ReadersConnect) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Readers.Connect = rcs
}
