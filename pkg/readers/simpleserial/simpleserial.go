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

// Package simpleserial reads sign inputs from a microcontroller speaking a
// tab separated line protocol over a serial port:
//
//	MSG\t<payload>                 sign content or a ! command
//	KEY\t<char>                    keyboard key
//	BKSP                           keyboard backspace
//	ENTER                          keyboard submit
//	TRACK\tartist=<a>\ttitle=<t>   now playing, bare TRACK clears
//
// MSG payloads may escape newlines as \n so ad templates fit on one line.
package simpleserial

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/EnergySign/energysign-core/pkg/config"
	"github.com/EnergySign/energysign-core/pkg/helpers"
	"github.com/EnergySign/energysign-core/pkg/helpers/syncutil"
	"github.com/EnergySign/energysign-core/pkg/readers"
	"github.com/EnergySign/energysign-core/pkg/service/tracks"
	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
)

const (
	BaudRate    = 115200
	readTimeout = 100 * time.Millisecond
)

var payloadUnescaper = strings.NewReplacer(`\\`, `\`, `\n`, "\n", `\t`, "\t")

type SimpleSerialReader struct {
	port        helpers.SerialPort
	portFactory helpers.SerialPortFactory
	device      config.ReadersConnect
	path        string
	polling     bool
	mu          syncutil.RWMutex // protects polling
}

func NewReader() *SimpleSerialReader {
	return &SimpleSerialReader{
		portFactory: helpers.OpenSerialPort,
	}
}

func (*SimpleSerialReader) Metadata() readers.DriverMetadata {
	return readers.DriverMetadata{
		ID:          "simpleserial",
		Description: "Simple serial protocol input",
	}
}

func (*SimpleSerialReader) IDs() []string {
	return []string{"simpleserial", "simple_serial"}
}

// parseLine returns false for blank lines and anything it doesn't
// understand.
func (r *SimpleSerialReader) parseLine(line string) (readers.Input, bool) {
	line = strings.TrimRight(line, "\r")
	source := r.device.ConnectionString()

	cmd, args, _ := strings.Cut(line, "\t")
	switch cmd {
	case "MSG":
		if strings.TrimSpace(args) == "" {
			return readers.Input{}, false
		}
		return readers.PayloadInput(source, []byte(payloadUnescaper.Replace(args))), true
	case "KEY":
		key, size := utf8.DecodeRuneInString(args)
		if size == 0 || key == utf8.RuneError {
			return readers.Input{}, false
		}
		return readers.KeyInput(source, key), true
	case "BKSP":
		return readers.BackspaceInput(source), true
	case "ENTER":
		return readers.SubmitInput(source), true
	case "TRACK":
		var t tracks.Track
		for _, arg := range strings.Split(args, "\t") {
			switch {
			case strings.HasPrefix(arg, "artist="):
				t.Artist = arg[len("artist="):]
			case strings.HasPrefix(arg, "title="):
				t.Title = arg[len("title="):]
			}
		}
		return readers.TrackInput(source, t), true
	default:
		if strings.TrimSpace(line) != "" {
			log.Debug().Msgf("simpleserial: ignoring line: %q", line)
		}
		return readers.Input{}, false
	}
}

func (r *SimpleSerialReader) Open(device config.ReadersConnect, iq chan<- readers.Input) error {
	if !helpers.Contains(r.IDs(), device.Driver) {
		return errors.New("invalid reader id: " + device.Driver)
	}

	path := device.Path

	if runtime.GOOS != "windows" {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("failed to stat device path %s: %w", path, err)
		}
	}

	port, err := r.portFactory(path, &serial.Mode{
		BaudRate: BaudRate,
	})
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", path, err)
	}

	err = port.SetReadTimeout(readTimeout)
	if err != nil {
		if closeErr := port.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close serial port")
		}
		return fmt.Errorf("failed to set read timeout on serial port: %w", err)
	}

	r.port = port
	r.device = device
	r.path = path
	r.mu.Lock()
	r.polling = true
	r.mu.Unlock()

	go r.poll(iq)

	return nil
}

func (r *SimpleSerialReader) poll(iq chan<- readers.Input) {
	var lineBuf []byte
	buf := make([]byte, 1024)

	for r.isPolling() {
		n, err := r.port.Read(buf)
		if err != nil {
			log.Error().Err(err).Msg("failed to read from serial port")
			if err := r.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close serial port")
			}
			return
		}

		for i := range n {
			if buf[i] != '\n' {
				lineBuf = append(lineBuf, buf[i])
				continue
			}
			in, ok := r.parseLine(string(lineBuf))
			lineBuf = lineBuf[:0]
			if ok {
				iq <- in
			}
		}
	}
}

func (r *SimpleSerialReader) isPolling() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.polling
}

func (r *SimpleSerialReader) Close() error {
	r.mu.Lock()
	r.polling = false
	r.mu.Unlock()
	if r.port != nil {
		err := r.port.Close()
		if err != nil {
			return fmt.Errorf("failed to close serial port: %w", err)
		}
	}
	return nil
}

func (r *SimpleSerialReader) Device() string {
	return r.device.ConnectionString()
}

func (r *SimpleSerialReader) Connected() bool {
	return r.isPolling() && r.port != nil
}

func (r *SimpleSerialReader) Info() string {
	return r.path
}
