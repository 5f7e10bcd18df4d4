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

// Package methods implements the control API. Every handler serves both
// the REST routes and the websocket JSON-RPC methods.
package methods

import (
	"context"
	"encoding/json"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/EnergySign/energysign-core/pkg/api/models"
	"github.com/EnergySign/energysign-core/pkg/api/validation"
	"github.com/EnergySign/energysign-core/pkg/config"
	"github.com/EnergySign/energysign-core/pkg/messages"
	"github.com/EnergySign/energysign-core/pkg/readers"
	"github.com/EnergySign/energysign-core/pkg/service/queue"
	"github.com/EnergySign/energysign-core/pkg/service/state"
	"github.com/EnergySign/energysign-core/pkg/service/tracks"
	"github.com/rs/zerolog/log"
)

const inputTimeout = 2 * time.Second

// ErrBusy is returned when the input queue stays full for inputTimeout.
var ErrBusy = errors.New("input queue is full")

// Engine is the read side of queue.Engine. Writes go through the input
// queue so API clients are ordered with every other producer.
type Engine interface {
	Snapshot() queue.Snapshot
	Ads() []messages.Message
}

type RequestEnv struct {
	Context context.Context
	Config  *config.Instance
	State   *state.State
	Engine  Engine
	Inputs  chan<- readers.Input
	Source  string
	Params  json.RawMessage
}

type Handler func(RequestEnv) (any, error)

// Map lists the handlers by method name.
var Map = map[string]Handler{
	models.MethodPayload: HandlePayload,
	models.MethodKeys:    HandleKeys,
	models.MethodTrack:   HandleTrack,
	models.MethodState:   HandleState,
	models.MethodAds:     HandleAds,
	models.MethodReaders: HandleReaders,
	models.MethodVersion: HandleVersion,
}

func sendInput(env RequestEnv, in readers.Input) (any, error) {
	ctx := env.Context
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, inputTimeout)
	defer cancel()

	select {
	case env.Inputs <- in:
		return models.InputResponse{Queued: true}, nil
	case <-ctx.Done():
		log.Warn().Str("kind", in.Kind.String()).Msg("input queue full, rejecting request")
		return nil, ErrBusy
	}
}

//nolint:gocritic // single-use parameter in API handler
func HandlePayload(env RequestEnv) (any, error) {
	var p models.PayloadParams
	if err := validation.ValidateAndUnmarshal(env.Params, &p); err != nil {
		return nil, err
	}
	log.Debug().Str("source", env.Source).Int("len", len(p.Text)).Msg("received payload")
	return sendInput(env, readers.PayloadInput(env.Source, []byte(p.Text)))
}

//nolint:gocritic // single-use parameter in API handler
func HandleKeys(env RequestEnv) (any, error) {
	var p models.KeyParams
	if err := validation.ValidateAndUnmarshal(env.Params, &p); err != nil {
		return nil, err
	}

	switch p.Action {
	case models.KeyActionBackspace:
		return sendInput(env, readers.BackspaceInput(env.Source))
	case models.KeyActionSubmit:
		return sendInput(env, readers.SubmitInput(env.Source))
	}

	key, _ := utf8.DecodeRuneInString(p.Key)
	return sendInput(env, readers.KeyInput(env.Source, key))
}

// HandleTrack reports the playing track. Empty artist and title clear it.
//
//nolint:gocritic // single-use parameter in API handler
func HandleTrack(env RequestEnv) (any, error) {
	var p models.TrackParams
	if err := validation.ValidateAndUnmarshal(env.Params, &p); err != nil {
		return nil, err
	}
	return sendInput(env, readers.TrackInput(env.Source, tracks.Track{
		Artist: p.Artist,
		Title:  p.Title,
	}))
}

//nolint:gocritic // single-use parameter in API handler
func HandleState(env RequestEnv) (any, error) {
	return env.Engine.Snapshot(), nil
}

//nolint:gocritic // single-use parameter in API handler
func HandleAds(env RequestEnv) (any, error) {
	ads := env.Engine.Ads()
	if ads == nil {
		ads = []messages.Message{}
	}
	return models.AdsResponse{Ads: ads}, nil
}

//nolint:gocritic // single-use parameter in API handler
func HandleReaders(env RequestEnv) (any, error) {
	resp := models.ReadersResponse{Readers: []models.ReaderResponse{}}
	for _, r := range env.State.ListReaders() {
		resp.Readers = append(resp.Readers, models.ReaderResponse{
			ID:        r.ID,
			Driver:    r.Device.Driver,
			Path:      r.Device.Path,
			Info:      r.Reader.Info(),
			Connected: r.Reader.Connected(),
		})
	}
	return resp, nil
}

func HandleVersion(RequestEnv) (any, error) {
	return models.VersionResponse{Version: config.AppVersion}, nil
}
