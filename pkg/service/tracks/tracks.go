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

// Package tracks follows the DJ's "now playing" feed and decides when a
// track deserves an announcement.
package tracks

import (
	"slices"
	"strings"

	"github.com/EnergySign/energysign-core/pkg/helpers"
	"github.com/EnergySign/energysign-core/pkg/messages"
)

// DefaultMemory is how many recently announced tracks are remembered.
const DefaultMemory = 4

// Track identifies a song. The zero Track (both fields blank) means nothing
// is playing.
type Track struct {
	Artist string `json:"artist"`
	Title  string `json:"title"`
}

func (t Track) IsEmpty() bool {
	return strings.TrimSpace(t.Artist) == "" && strings.TrimSpace(t.Title) == ""
}

// Label is the text shown on the sign for this track.
func (t Track) Label() string {
	return helpers.NormalizeText(t.Artist) + " - " + helpers.NormalizeText(t.Title)
}

type Result int

const (
	// ResultCleared means the feed reported silence and the active track
	// was dropped.
	ResultCleared Result = iota
	// ResultDuplicate means the track was announced recently and is ignored.
	ResultDuplicate
	// ResultStarted means a new track became active and should be announced.
	ResultStarted
)

func (r Result) String() string {
	switch r {
	case ResultCleared:
		return "cleared"
	case ResultDuplicate:
		return "duplicate"
	case ResultStarted:
		return "started"
	default:
		return "unknown"
	}
}

// Tracker is not safe for concurrent use; the queue engine serializes
// access to it.
type Tracker struct {
	nowPlaying *messages.Message
	played     []Track
	memory     int
}

func NewTracker(memory int) *Tracker {
	if memory <= 0 {
		memory = DefaultMemory
	}
	return &Tracker{memory: memory}
}

// Observe records a report from the now playing feed.
func (t *Tracker) Observe(track Track) Result {
	if track.IsEmpty() {
		t.nowPlaying = nil
		return ResultCleared
	}
	if slices.Contains(t.played, track) {
		return ResultDuplicate
	}

	msg := messages.NowPlayingTrack(track.Label())
	t.nowPlaying = &msg

	t.played = append(t.played, track)
	if len(t.played) > t.memory {
		t.played = slices.Delete(t.played, 0, len(t.played)-t.memory)
	}
	return ResultStarted
}

// NowPlaying returns the message for the active track, if any.
func (t *Tracker) NowPlaying() (messages.Message, bool) {
	if t.nowPlaying == nil {
		return messages.Message{}, false
	}
	return *t.nowPlaying, true
}

// Recent returns the remembered tracks, oldest first.
func (t *Tracker) Recent() []Track {
	return slices.Clone(t.played)
}
