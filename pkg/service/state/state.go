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

package state

import (
	"context"
	"slices"
	"strings"

	"github.com/EnergySign/energysign-core/pkg/api/models"
	"github.com/EnergySign/energysign-core/pkg/api/notifications"
	"github.com/EnergySign/energysign-core/pkg/config"
	"github.com/EnergySign/energysign-core/pkg/helpers/syncutil"
	"github.com/EnergySign/energysign-core/pkg/readers"
	"github.com/rs/zerolog/log"
)

// notificationBuffer gives the broker headroom during bursts such as a
// replayed rotation without dropping display updates.
const notificationBuffer = 500

// ConnectedReader is an open input source and the connection it was
// opened with.
type ConnectedReader struct {
	Reader readers.Reader
	Device config.ReadersConnect
	ID     string
}

func (c ConnectedReader) params() models.ReaderParams {
	return models.ReaderParams{
		ID:     c.ID,
		Driver: c.Device.Driver,
		Path:   c.Device.Path,
	}
}

// State holds the runtime state of the sign service outside the message
// engine: the service context, the connected readers and the notification
// queue.
//
// LOCKING RULES: mu protects readers. Never close a reader or send a
// notification while holding it.
type State struct {
	ctx           context.Context
	readers       map[string]ConnectedReader
	ctxCancelFunc context.CancelFunc
	Notifications chan<- models.Notification
	mu            syncutil.RWMutex
}

func NewState() (state *State, notificationCh <-chan models.Notification) {
	ns := make(chan models.Notification, notificationBuffer)
	ctx, ctxCancelFunc := context.WithCancel(context.Background())
	return &State{
		readers:       make(map[string]ConnectedReader),
		Notifications: ns,
		ctx:           ctx,
		ctxCancelFunc: ctxCancelFunc,
	}, ns
}

func (s *State) GetContext() context.Context {
	return s.ctx
}

func (s *State) StopService() {
	s.ctxCancelFunc()
}

func (s *State) GetReader(id string) (ConnectedReader, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.readers[id]
	return r, ok
}

// SetReader registers an open reader under its id. A reader already
// registered with the same id is closed and replaced.
func (s *State) SetReader(cr ConnectedReader) {
	s.mu.Lock()
	existing, ok := s.readers[cr.ID]
	s.readers[cr.ID] = cr
	s.mu.Unlock()

	if ok && existing.Reader != nil && existing.Reader != cr.Reader {
		if err := existing.Reader.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing replaced reader")
		}
	}

	notifications.ReadersAdded(s.Notifications, cr.params())
}

// RemoveReader closes a reader and forgets it. Unknown ids are ignored.
func (s *State) RemoveReader(id string) {
	s.mu.Lock()
	cr, ok := s.readers[id]
	delete(s.readers, id)
	s.mu.Unlock()

	if !ok {
		return
	}
	if cr.Reader != nil {
		if err := cr.Reader.Close(); err != nil {
			log.Warn().Err(err).Str("reader", id).Msg("error closing reader")
		}
	}

	notifications.ReadersRemoved(s.Notifications, cr.params())
}

// ListReaders returns the connected readers ordered by id.
func (s *State) ListReaders() []ConnectedReader {
	s.mu.RLock()
	rs := make([]ConnectedReader, 0, len(s.readers))
	for _, r := range s.readers {
		rs = append(rs, r)
	}
	s.mu.RUnlock()

	slices.SortFunc(rs, func(a, b ConnectedReader) int {
		return strings.Compare(a.ID, b.ID)
	})
	return rs
}

// CloseReaders closes and removes every reader, used on shutdown.
func (s *State) CloseReaders() {
	for _, r := range s.ListReaders() {
		s.RemoveReader(r.ID)
	}
}
