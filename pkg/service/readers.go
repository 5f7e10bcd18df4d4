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
	"strings"
	"time"

	"github.com/EnergySign/energysign-core/pkg/config"
	"github.com/EnergySign/energysign-core/pkg/readers"
	"github.com/EnergySign/energysign-core/pkg/readers/file"
	"github.com/EnergySign/energysign-core/pkg/readers/mqtt"
	"github.com/EnergySign/energysign-core/pkg/readers/simpleserial"
	"github.com/EnergySign/energysign-core/pkg/readers/terminal"
	"github.com/EnergySign/energysign-core/pkg/service/state"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const readerCheckInterval = 1 * time.Second

// ReaderFactory returns fresh, unopened instances of every driver the
// service supports.
type ReaderFactory func() []readers.Reader

func supportedReaders(opts Options) ReaderFactory {
	return func() []readers.Reader {
		return []readers.Reader{
			simpleserial.NewReader(),
			mqtt.NewReader(),
			file.NewReader(),
			terminal.NewReader(opts.OnInterrupt),
		}
	}
}

// readerManager keeps the open readers in line with the config: missing
// readers are opened, disconnected ones are dropped and retried, and
// readers removed from the config are closed. It runs on every tick so
// config reloads take effect without a restart.
type readerManager struct {
	cfg       *config.Instance
	st        *state.State
	iq        chan<- readers.Input
	supported ReaderFactory
	failures  map[string]int
	extra     []config.ReadersConnect
}

func newReaderManager(
	cfg *config.Instance,
	st *state.State,
	iq chan<- readers.Input,
	supported ReaderFactory,
	extra []config.ReadersConnect,
) *readerManager {
	return &readerManager{
		cfg:       cfg,
		st:        st,
		iq:        iq,
		supported: supported,
		extra:     extra,
		failures:  make(map[string]int),
	}
}

// run syncs readers until ctx is done, then closes them all.
func (m *readerManager) run(ctx context.Context, clock clockwork.Clock) {
	ticker := clock.NewTicker(readerCheckInterval)
	defer ticker.Stop()
	defer m.st.CloseReaders()

	log.Info().Msg("reader manager started")
	m.sync()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("reader manager shutting down")
			return
		case <-ticker.Chan():
			m.sync()
		}
	}
}

// wanted returns the enabled connections by reader id, in config order.
func (m *readerManager) wanted() (ids []string, byID map[string]config.ReadersConnect) {
	byID = make(map[string]config.ReadersConnect)
	for _, rc := range append(m.cfg.Readers().Connect, m.extra...) {
		if !rc.IsEnabled() {
			continue
		}
		id := readers.GenerateReaderID(rc.Driver, rc.Path)
		if first, dup := byID[id]; dup {
			if m.failures[id] == 0 {
				log.Warn().Msgf("reader %s configured more than once, ignoring %s",
					first.ConnectionString(), rc.ConnectionString())
			}
			continue
		}
		byID[id] = rc
		ids = append(ids, id)
	}
	return ids, byID
}

func (m *readerManager) sync() {
	ids, byID := m.wanted()

	for _, cr := range m.st.ListReaders() {
		if _, ok := byID[cr.ID]; !ok {
			log.Info().Msgf("reader removed from config: %s", cr.Device.ConnectionString())
			m.st.RemoveReader(cr.ID)
		} else if !cr.Reader.Connected() {
			log.Info().Msgf("reader disconnected: %s", cr.Device.ConnectionString())
			m.st.RemoveReader(cr.ID)
		}
	}

	for _, id := range ids {
		if _, ok := m.st.GetReader(id); ok {
			continue
		}
		m.connect(id, byID[id])
	}

	for id := range m.failures {
		if _, ok := byID[id]; !ok {
			delete(m.failures, id)
		}
	}
}

func (m *readerManager) newReader(driver string) readers.Reader {
	want := readers.NormalizeDriverID(strings.ToLower(driver))
	for _, r := range m.supported() {
		for _, id := range r.IDs() {
			if readers.NormalizeDriverID(id) == want {
				return r
			}
		}
	}
	return nil
}

// connect opens one reader. Failures are retried on the next sync and only
// the first one is logged as a warning.
func (m *readerManager) connect(id string, rc config.ReadersConnect) {
	m.failures[id]++
	first := m.failures[id] == 1

	r := m.newReader(rc.Driver)
	if r == nil {
		if first {
			log.Warn().Msgf("unknown reader driver: %s", rc.Driver)
		}
		return
	}

	if err := r.Open(rc, m.iq); err != nil {
		if first {
			log.Warn().Err(err).Msgf("error opening reader: %s", rc.ConnectionString())
		} else {
			log.Debug().Err(err).Msgf("error opening reader: %s", rc.ConnectionString())
		}
		return
	}

	delete(m.failures, id)
	log.Info().Msgf("opened reader: %s (%s)", rc.ConnectionString(), r.Info())
	m.st.SetReader(state.ConnectedReader{ID: id, Reader: r, Device: rc})
}
