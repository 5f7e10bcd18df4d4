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

// Package file follows a "now playing" text file of the kind DJ software
// writes for stream overlays. The file holds one line, "Artist - Title";
// an empty file means nothing is playing.
package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/EnergySign/energysign-core/pkg/config"
	"github.com/EnergySign/energysign-core/pkg/helpers"
	"github.com/EnergySign/energysign-core/pkg/helpers/syncutil"
	"github.com/EnergySign/energysign-core/pkg/readers"
	"github.com/EnergySign/energysign-core/pkg/service/tracks"
	"github.com/rs/zerolog/log"
)

const pollInterval = 100 * time.Millisecond

type Reader struct {
	stop     chan struct{}
	done     chan struct{}
	device   config.ReadersConnect
	path     string
	interval time.Duration
	mu       syncutil.RWMutex
}

func NewReader() *Reader {
	return &Reader{interval: pollInterval}
}

func (*Reader) Metadata() readers.DriverMetadata {
	return readers.DriverMetadata{
		ID:          "file",
		Description: "Now playing text file",
	}
}

func (*Reader) IDs() []string {
	return []string{"file", "nowplaying"}
}

// ParseTrack splits a now playing line on the first " - ". A line with no
// separator is all title.
func ParseTrack(line string) tracks.Track {
	line = strings.TrimSpace(line)
	if artist, title, ok := strings.Cut(line, " - "); ok {
		return tracks.Track{Artist: strings.TrimSpace(artist), Title: strings.TrimSpace(title)}
	}
	return tracks.Track{Title: line}
}

func (r *Reader) Open(device config.ReadersConnect, iq chan<- readers.Input) error {
	if !helpers.Contains(r.IDs(), device.Driver) {
		return errors.New("invalid reader id: " + device.Driver)
	}

	path := device.Path
	if !filepath.IsAbs(path) {
		return errors.New("invalid device path, must be absolute")
	}

	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to stat parent directory: %w", err)
	}

	r.mu.Lock()
	r.device = device
	r.path = path
	r.stop = make(chan struct{})
	r.done = make(chan struct{})
	stop, done := r.stop, r.done
	r.mu.Unlock()

	go r.poll(iq, stop, done)

	return nil
}

func (r *Reader) poll(iq chan<- readers.Input, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	source := r.device.ConnectionString()
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	// last is the line most recently reported; a missing file reads as
	// empty so deleting it clears now playing.
	last := ""
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		contents, err := os.ReadFile(r.path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Msgf("file reader: failed to read %s", r.path)
			continue
		}

		line, _, _ := strings.Cut(string(contents), "\n")
		line = strings.TrimSpace(line)
		if line == last {
			continue
		}
		last = line

		log.Debug().Msgf("file reader: now playing %q", line)
		select {
		case iq <- readers.TrackInput(source, ParseTrack(line)):
		case <-stop:
			return
		}
	}
}

func (r *Reader) Close() error {
	r.mu.Lock()
	stop, done := r.stop, r.done
	r.stop = nil
	r.mu.Unlock()

	if stop == nil {
		return nil
	}
	close(stop)
	<-done
	return nil
}

func (r *Reader) Device() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.device.ConnectionString()
}

func (r *Reader) Connected() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stop != nil
}

func (r *Reader) Info() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.path
}
