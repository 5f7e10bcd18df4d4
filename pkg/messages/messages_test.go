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

package messages

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ABCDEFG", Truncate("ABCDEFGHIJ", 7))
	assert.Equal(t, "ABC", Truncate("ABC", 7))
	assert.Equal(t, "ÄÖÜ", Truncate("ÄÖÜß", 3))
	assert.Empty(t, Truncate("ABC", 0))
}

func TestChooserTruncatesPreview(t *testing.T) {
	t.Parallel()

	m := Chooser(1, 3, "HELLO WORLD")
	assert.Equal(t, KindChooser, m.Kind)
	assert.Equal(t, "HELLO W", m.Preview)
	assert.Equal(t, 1, m.Position)
	assert.Equal(t, 3, m.Total)
}

func TestMessagesAreComparable(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Invaders(), Invaders())
	assert.NotEqual(t, Invaders(), EnableMic())
	assert.True(t, User("A") == User("A"))
	assert.False(t, User("A") == NowPlayingTrack("A"))
}

func TestPredicates(t *testing.T) {
	t.Parallel()

	assert.True(t, EnableMic().IsUtility())
	assert.True(t, DisableMic().IsUtility())
	assert.False(t, Invaders().IsUtility())
	assert.True(t, NowPlayingTrack("").IsPlaceholder())
	assert.False(t, NowPlayingTrack("A - B").IsPlaceholder())
}

func TestKindValid(t *testing.T) {
	t.Parallel()

	for _, k := range Kinds {
		assert.True(t, k.Valid(), k)
	}
	assert.False(t, Kind("Marquee").Valid())
}

func TestString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `UserMessage("HI")`, User("HI").String())
	assert.Equal(t, "Invaders", Invaders().String())
	assert.Equal(t, `OneByOneMessage("X", #FF9146FF, 1000ms)`, OneByOne("X", ColorTwitch, 1000).String())
}
