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

package tracks

import (
	"testing"

	"github.com/EnergySign/energysign-core/pkg/messages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveAnnouncesOnce(t *testing.T) {
	t.Parallel()

	tr := NewTracker(DefaultMemory)
	song := Track{Artist: "Röyksopp", Title: "Eple"}

	assert.Equal(t, ResultStarted, tr.Observe(song))
	assert.Equal(t, ResultDuplicate, tr.Observe(song))

	msg, ok := tr.NowPlaying()
	require.True(t, ok)
	assert.Equal(t, messages.NowPlayingTrack("Royksopp - Eple"), msg)
}

func TestObserveEmptyClears(t *testing.T) {
	t.Parallel()

	tr := NewTracker(DefaultMemory)
	tr.Observe(Track{Artist: "A", Title: "B"})

	assert.Equal(t, ResultCleared, tr.Observe(Track{}))
	_, ok := tr.NowPlaying()
	assert.False(t, ok)

	assert.Equal(t, ResultDuplicate, tr.Observe(Track{Artist: "A", Title: "B"}),
		"clearing does not forget recent tracks")
}

func TestObserveEvictsOldest(t *testing.T) {
	t.Parallel()

	tr := NewTracker(DefaultMemory)
	songs := []Track{
		{Artist: "1", Title: "a"},
		{Artist: "2", Title: "b"},
		{Artist: "3", Title: "c"},
		{Artist: "4", Title: "d"},
		{Artist: "5", Title: "e"},
	}
	for _, s := range songs {
		require.Equal(t, ResultStarted, tr.Observe(s))
	}

	assert.Equal(t, songs[1:], tr.Recent())
	assert.Equal(t, ResultStarted, tr.Observe(songs[0]), "evicted track can be announced again")
	assert.Equal(t, ResultDuplicate, tr.Observe(songs[4]))
}

func TestIsEmpty(t *testing.T) {
	t.Parallel()

	assert.True(t, Track{}.IsEmpty())
	assert.True(t, Track{Artist: " ", Title: ""}.IsEmpty())
	assert.False(t, Track{Title: "Eple"}.IsEmpty())
}

func TestRecentIsCopy(t *testing.T) {
	t.Parallel()

	tr := NewTracker(2)
	tr.Observe(Track{Artist: "A", Title: "1"})
	recent := tr.Recent()
	recent[0] = Track{}

	assert.Equal(t, []Track{{Artist: "A", Title: "1"}}, tr.Recent())
}
