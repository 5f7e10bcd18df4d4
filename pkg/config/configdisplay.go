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
	"time"
)

const (
	RendererLog    = "log"
	RendererSerial = "serial"

	DefaultDisplayIntervalMs = 3000
	DefaultDisplayBaudRate   = 19200
)

type Display struct {
	Renderer   string `toml:"renderer"`
	SerialPath string `toml:"serial_path,omitempty"`
	IntervalMs int    `toml:"interval_ms,omitempty"`
	BaudRate   int    `toml:"baud_rate,omitempty"`
}

// Scheduler tunes the message engine. Zero values fall back to the engine
// defaults.
type Scheduler struct {
	AdvertiseEvery    int `toml:"advertise_every,omitempty"`
	MaxRotation       int `toml:"max_rotation,omitempty"`
	PlayedTracks      int `toml:"played_tracks,omitempty"`
	KeyboardTimeoutMs int `toml:"keyboard_timeout_ms,omitempty"`
	KeyboardWarningMs int `toml:"keyboard_warning_ms,omitempty"`
	MinEntryMs        int `toml:"min_entry_ms,omitempty"`
}

type Storage struct {
	DataDir string `toml:"data_dir,omitempty"`
}

func (c *Instance) Display() Display {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Display
}

func (c *Instance) DisplayInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Display.IntervalMs <= 0 {
		return DefaultDisplayIntervalMs * time.Millisecond
	}
	return time.Duration(c.vals.Display.IntervalMs) * time.Millisecond
}

func (c *Instance) DisplayBaudRate() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Display.BaudRate <= 0 {
		return DefaultDisplayBaudRate
	}
	return c.vals.Display.BaudRate
}

func (c *Instance) Scheduler() Scheduler {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Scheduler
}

// StorageDir returns the configured data directory, or fallback when unset.
func (c *Instance) StorageDir(fallback string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Storage.DataDir == "" {
		return fallback
	}
	return c.vals.Storage.DataDir
}
