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

package readers

import (
	"crypto/sha256"
	"encoding/base32"
	"fmt"
	"strings"

	"github.com/EnergySign/energysign-core/pkg/config"
	"github.com/EnergySign/energysign-core/pkg/service/tracks"
)

type InputKind int

const (
	// InputPayload is a raw BLE-style write: sign content or a command.
	InputPayload InputKind = iota
	InputKey
	InputBackspace
	InputSubmit
	// InputTrack reports the track the DJ software is playing. An empty
	// track clears now playing.
	InputTrack
)

var inputKindNames = map[InputKind]string{
	InputPayload:   "payload",
	InputKey:       "key",
	InputBackspace: "backspace",
	InputSubmit:    "submit",
	InputTrack:     "track",
}

func (k InputKind) String() string {
	if name, ok := inputKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("InputKind(%d)", int(k))
}

// Input is a single event from a producer. Only the field matching Kind is
// meaningful.
type Input struct {
	Source  string
	Payload []byte
	Track   tracks.Track
	Kind    InputKind
	Key     rune
}

func PayloadInput(source string, payload []byte) Input {
	return Input{Source: source, Kind: InputPayload, Payload: payload}
}

func KeyInput(source string, key rune) Input {
	return Input{Source: source, Kind: InputKey, Key: key}
}

func BackspaceInput(source string) Input {
	return Input{Source: source, Kind: InputBackspace}
}

func SubmitInput(source string) Input {
	return Input{Source: source, Kind: InputSubmit}
}

func TrackInput(source string, track tracks.Track) Input {
	return Input{Source: source, Kind: InputTrack, Track: track}
}

type DriverMetadata struct {
	ID          string
	Description string
}

type Reader interface {
	// Metadata returns static configuration for this driver.
	Metadata() DriverMetadata
	// IDs returns the driver names accepted in a reader connection.
	IDs() []string
	// Open connects to the device and starts forwarding inputs until Close.
	Open(config.ReadersConnect, chan<- Input) error
	// Close any open connections to the device and stop polling.
	Close() error
	// Device returns the device connection string.
	Device() string
	// Connected returns true if the device is connected and active.
	Connected() bool
	// Info returns a string with information about the connected device.
	Info() string
}

// NormalizeDriverID drops underscores so legacy names like "simple_serial"
// match their current form.
func NormalizeDriverID(driver string) string {
	return strings.ReplaceAll(driver, "_", "")
}

// GenerateReaderID returns a stable "{driver}-{hash}" id for a driver and
// device path. The hash is 8 lowercase base32 characters of a SHA-256 over
// the normalized inputs.
func GenerateReaderID(driver, path string) string {
	d := strings.ToLower(NormalizeDriverID(driver))
	p := strings.ToLower(strings.ReplaceAll(path, "\\", "/"))

	sum := sha256.Sum256([]byte(d + "\x00" + p))
	encoded := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(sum[:5])
	return d + "-" + strings.ToLower(encoded)
}
