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

package service

import (
	"context"

	"github.com/EnergySign/energysign-core/pkg/readers"
	"github.com/EnergySign/energysign-core/pkg/service/metrics"
	"github.com/EnergySign/energysign-core/pkg/service/queue"
	"github.com/rs/zerolog/log"
)

// inputBuffer absorbs a burst such as a pasted ad template arriving
// line by line over serial.
const inputBuffer = 64

// processInputs applies inputs to the engine in arrival order. After ctx
// is done it keeps draining iq so readers blocked on a send can stop, and
// returns once readersDone closes.
func processInputs(
	ctx context.Context,
	engine *queue.Engine,
	iq <-chan readers.Input,
	readersDone <-chan struct{},
	m *metrics.Metrics,
) {
	for {
		select {
		case in := <-iq:
			m.Input(in.Kind.String())
			dispatchInput(engine, in)
		case <-ctx.Done():
			for {
				select {
				case <-iq:
				case <-readersDone:
					return
				}
			}
		}
	}
}

func dispatchInput(engine *queue.Engine, in readers.Input) {
	log.Debug().Str("source", in.Source).Stringer("kind", in.Kind).Msg("input")

	switch in.Kind {
	case readers.InputPayload:
		engine.HandlePayload(in.Payload)
	case readers.InputKey:
		if !engine.PushKey(in.Key) {
			log.Debug().Msg("key rejected")
		}
	case readers.InputBackspace:
		engine.PopKey()
	case readers.InputSubmit:
		if !engine.SubmitKeyboard() {
			log.Debug().Msg("keyboard text not accepted")
		}
	case readers.InputTrack:
		engine.SetNowPlaying(in.Track)
	default:
		log.Warn().Msgf("unknown input kind: %s", in.Kind)
	}
}
