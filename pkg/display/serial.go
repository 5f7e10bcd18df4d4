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

package display

import (
	"fmt"

	"github.com/EnergySign/energysign-core/pkg/helpers"
	"github.com/EnergySign/energysign-core/pkg/helpers/syncutil"
	"github.com/EnergySign/energysign-core/pkg/messages"
	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
)

// SerialRenderer writes each message to the sign controller as one JSON
// line terminated by '\r'. The port is opened on first use and reopened
// after a failed write.
type SerialRenderer struct {
	port        helpers.SerialPort
	portFactory helpers.SerialPortFactory
	path        string
	baud        int
	mu          syncutil.Mutex
}

func NewSerialRenderer(path string, baud int) *SerialRenderer {
	return &SerialRenderer{
		portFactory: helpers.OpenSerialPort,
		path:        path,
		baud:        baud,
	}
}

// EncodeLine is the wire form of msg.
func EncodeLine(msg messages.Message) ([]byte, error) {
	b, err := msg.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}
	return append(b, '\r'), nil
}

func (r *SerialRenderer) Render(msg messages.Message) error {
	line, err := EncodeLine(msg)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.port == nil {
		port, err := r.portFactory(r.path, &serial.Mode{BaudRate: r.baud})
		if err != nil {
			return fmt.Errorf("failed to open display port %s: %w", r.path, err)
		}
		log.Info().Msgf("display: opened %s at %d baud", r.path, r.baud)
		r.port = port
	}

	if _, err := r.port.Write(line); err != nil {
		r.closeLocked()
		return fmt.Errorf("failed to write to display: %w", err)
	}
	return nil
}

func (r *SerialRenderer) closeLocked() {
	if r.port == nil {
		return
	}
	if err := r.port.Close(); err != nil {
		log.Warn().Err(err).Msg("display: error closing port")
	}
	r.port = nil
}

func (r *SerialRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeLocked()
	return nil
}
