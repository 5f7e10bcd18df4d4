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

package store

import (
	"errors"
	"testing"

	"github.com/EnergySign/energysign-core/pkg/messages"
	"github.com/EnergySign/energysign-core/pkg/service/queue"
	testhelpers "github.com/EnergySign/energysign-core/pkg/testing/helpers"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var _ queue.Store = (*Store)(nil)

const testDir = "/data/energysign"

func newTestStore(t *testing.T) (*Store, *testhelpers.FSHelper) {
	t.Helper()
	h := testhelpers.NewMemoryFS()
	s, err := New(h.Fs, testDir, 0)
	require.NoError(t, err)
	return s, h
}

func TestLoadRotationMissingFile(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	got, err := s.LoadRotation()
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestLoadRotationReversesAndDropsBlanks(t *testing.T) {
	t.Parallel()

	s, h := newTestStore(t)
	require.NoError(t, h.CreateRotationFile(s.RotationPath(),
		"OLDEST", "", "   ", "MIDDLE\r", "NEWEST"))

	got, err := s.LoadRotation()
	require.NoError(t, err)
	assert.Equal(t, []string{"NEWEST", "MIDDLE", "OLDEST"}, got)
}

func TestLoadRotationKeepsNewest(t *testing.T) {
	t.Parallel()

	h := testhelpers.NewMemoryFS()
	s, err := New(h.Fs, testDir, 2)
	require.NoError(t, err)
	require.NoError(t, h.CreateRotationFile(s.RotationPath(), "1", "2", "3"))

	got, err := s.LoadRotation()
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "2"}, got)
}

func TestSaveRotationOldestFirstOnDisk(t *testing.T) {
	t.Parallel()

	s, h := newTestStore(t)
	require.NoError(t, s.SaveRotation([]string{"NEW", "OLD"}))

	lines, err := h.ReadLines(s.RotationPath())
	require.NoError(t, err)
	assert.Equal(t, []string{"OLD", "NEW"}, lines)
	assert.False(t, h.FileExists(s.RotationPath()+".tmp"))
}

func TestPropertyRotationRoundTrip(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		texts := rapid.SliceOf(rapid.StringMatching(`[ -~]*[!-~][ -~]*`)).Draw(t, "texts")

		s, err := New(afero.NewMemMapFs(), testDir, len(texts)+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := s.SaveRotation(texts); err != nil {
			t.Fatal(err)
		}
		got, err := s.LoadRotation()
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != len(texts) {
			t.Fatalf("got %d entries, want %d", len(got), len(texts))
		}
		for i := range texts {
			if got[i] != texts[i] {
				t.Fatalf("entry %d: got %q, want %q", i, got[i], texts[i])
			}
		}
	})
}

func TestAdsRoundTrip(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	ads := []messages.Message{
		messages.ChonkySlide("BEACH!", messages.ColorInstagram, 2000),
		messages.OneByOne("@APHEX", messages.ColorTwitter, 1000),
		messages.NowPlayingTrack(""),
		messages.Invaders(),
	}
	require.NoError(t, s.SaveAds(ads))

	got, err := s.LoadAds()
	require.NoError(t, err)
	assert.Equal(t, ads, got)
}

func TestLoadAdsMissingFile(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	got, err := s.LoadAds()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoadAdsUnknownKind(t *testing.T) {
	t.Parallel()

	s, h := newTestStore(t)
	require.NoError(t, h.WriteFile(s.AdsPath(),
		[]byte(`[{"type":"Invaders"},{"type":"Fireworks"}]`)))

	_, err := s.LoadAds()
	require.Error(t, err)
	assert.True(t, errors.Is(err, messages.ErrUnknownKind))
}

func TestLoadAdsCorrupt(t *testing.T) {
	t.Parallel()

	s, h := newTestStore(t)
	require.NoError(t, h.WriteFile(s.AdsPath(), []byte(`[{`)))

	_, err := s.LoadAds()
	assert.Error(t, err)
}

func TestSaveErrorOnReadOnlyFs(t *testing.T) {
	t.Parallel()

	base := afero.NewMemMapFs()
	require.NoError(t, base.MkdirAll(testDir, 0o750))
	s := &Store{fs: afero.NewReadOnlyFs(base), dir: testDir, maxRotation: DefaultMaxRotation}

	assert.Error(t, s.SaveRotation([]string{"A"}))
	assert.Error(t, s.SaveAds(nil))
}

func TestEngineWithStore(t *testing.T) {
	t.Parallel()

	s, h := newTestStore(t)
	require.NoError(t, h.CreateRotationFile(s.RotationPath(), "FIRST"))

	e := queue.NewEngine(s, queue.Options{})
	e.SubmitContent("SECOND")

	lines, err := h.ReadLines(s.RotationPath())
	require.NoError(t, err)
	assert.Equal(t, []string{"FIRST", "SECOND"}, lines)

	reloaded := queue.NewEngine(s, queue.Options{})
	assert.Equal(t, []string{"SECOND", "FIRST"}, reloaded.Snapshot().Rotation)
}
