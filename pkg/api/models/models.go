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

package models

import (
	"encoding/json"

	"github.com/EnergySign/energysign-core/pkg/messages"
	"github.com/google/uuid"
)

// Methods accepted over the websocket. The REST routes map to the same
// handlers.
const (
	MethodPayload = "payload"
	MethodKeys    = "keys"
	MethodTrack   = "track"
	MethodState   = "state"
	MethodAds     = "ads"
	MethodReaders = "readers"
	MethodVersion = "version"
)

const (
	NotificationDisplayMessage      = "display.message"
	NotificationRotationChanged     = "rotation.changed"
	NotificationNowPlaying          = "tracks.nowplaying"
	NotificationReadersConnected    = "readers.added"
	NotificationReadersDisconnected = "readers.removed"
)

// Notification is a server-initiated event. Params is already encoded so
// every subscriber sends the same bytes.
type Notification struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

type DisplayMessageParams struct {
	Message   messages.Message `json:"message"`
	Displayed int              `json:"displayed"`
}

type RotationChangedParams struct {
	Rotation []string `json:"rotation"`
}

type NowPlayingParams struct {
	Artist string `json:"artist"`
	Title  string `json:"title"`
	Label  string `json:"label"`
}

type ReaderParams struct {
	ID     string `json:"id"`
	Driver string `json:"driver"`
	Path   string `json:"path"`
}

// Key actions accepted by the keys endpoint in place of a key.
const (
	KeyActionBackspace = "backspace"
	KeyActionSubmit    = "submit"
)

type PayloadParams struct {
	Text string `json:"text" validate:"required,notblank,max=4096"`
}

type KeyParams struct {
	Key    string `json:"key,omitempty" validate:"omitempty,single_rune"`
	Action string `json:"action,omitempty" validate:"omitempty,oneof=backspace submit"`
}

type TrackParams struct {
	Artist string `json:"artist" validate:"max=256"`
	Title  string `json:"title" validate:"max=256"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// InputResponse acknowledges that an input was queued for the engine. The
// engine applies it asynchronously.
type InputResponse struct {
	Queued bool `json:"queued"`
}

type AdsResponse struct {
	Ads []messages.Message `json:"ads"`
}

type ReaderResponse struct {
	ID        string `json:"id"`
	Driver    string `json:"driver"`
	Path      string `json:"path"`
	Info      string `json:"info"`
	Connected bool   `json:"connected"`
}

type ReadersResponse struct {
	Readers []ReaderResponse `json:"readers"`
}

type VersionResponse struct {
	Version string `json:"version"`
}

// JSON-RPC 2.0 envelopes used on the websocket.

type RequestObject struct {
	ID      *uuid.UUID      `json:"id,omitempty"`
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type ErrorObject struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type ResponseObject struct {
	Result  any          `json:"result,omitempty"`
	Error   *ErrorObject `json:"error,omitempty"`
	JSONRPC string       `json:"jsonrpc"`
	ID      uuid.UUID    `json:"id"`
}
