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

// Package display sends the message chosen for each display cycle to the
// physical sign.
package display

import (
	"fmt"

	"github.com/EnergySign/energysign-core/pkg/config"
	"github.com/EnergySign/energysign-core/pkg/messages"
	"github.com/rs/zerolog/log"
)

type Renderer interface {
	Render(msg messages.Message) error
	Close() error
}

// New returns the renderer selected in the display config.
func New(cfg *config.Instance) (Renderer, error) {
	d := cfg.Display()
	switch d.Renderer {
	case "", config.RendererLog:
		return LogRenderer{}, nil
	case config.RendererSerial:
		if d.SerialPath == "" {
			return nil, fmt.Errorf("display renderer %q needs serial_path", d.Renderer)
		}
		return NewSerialRenderer(d.SerialPath, cfg.DisplayBaudRate()), nil
	default:
		return nil, fmt.Errorf("unknown display renderer: %q", d.Renderer)
	}
}

// LogRenderer writes each message to the log. It stands in for the sign
// during development.
type LogRenderer struct{}

func (LogRenderer) Render(msg messages.Message) error {
	log.Info().Str("kind", string(msg.Kind)).Msgf("display: %s", msg)
	return nil
}

func (LogRenderer) Close() error {
	return nil
}
