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

// Package store persists the rotation and the advertisement templates in
// the data directory.
//
// The rotation file holds one message per line, oldest first, so it reads
// naturally and can be edited by hand. The advertisement file is a JSON
// array of tagged messages.
package store

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/EnergySign/energysign-core/pkg/messages"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const (
	RotationFile = "signstrings.txt"
	AdsFile      = "ads.json"

	// DefaultMaxRotation matches the engine cap; older lines on disk are
	// ignored on load.
	DefaultMaxRotation = 1000
)

type Store struct {
	fs          afero.Fs
	dir         string
	maxRotation int
}

// New returns a store rooted at dir. A nil fs uses the OS filesystem.
func New(fs afero.Fs, dir string, maxRotation int) (*Store, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if maxRotation <= 0 {
		maxRotation = DefaultMaxRotation
	}
	if err := fs.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Store{fs: fs, dir: dir, maxRotation: maxRotation}, nil
}

func (s *Store) RotationPath() string {
	return filepath.Join(s.dir, RotationFile)
}

func (s *Store) AdsPath() string {
	return filepath.Join(s.dir, AdsFile)
}

// LoadRotation returns the rotation newest first. A missing file is an
// empty rotation.
func (s *Store) LoadRotation() ([]string, error) {
	data, err := afero.ReadFile(s.fs, s.RotationPath())
	if errors.Is(err, os.ErrNotExist) {
		log.Debug().Str("path", s.RotationPath()).Msg("no rotation file, starting empty")
		return []string{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read rotation: %w", err)
	}

	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to parse rotation: %w", err)
	}

	if len(lines) > s.maxRotation {
		lines = lines[len(lines)-s.maxRotation:]
	}
	slices.Reverse(lines)
	if lines == nil {
		lines = []string{}
	}

	log.Info().Int("count", len(lines)).Msg("loaded rotation")
	return lines, nil
}

// SaveRotation writes texts, given newest first, oldest first on disk.
func (s *Store) SaveRotation(texts []string) error {
	var buf bytes.Buffer
	for i := len(texts) - 1; i >= 0; i-- {
		buf.WriteString(texts[i])
		buf.WriteByte('\n')
	}
	if err := s.writeFile(s.RotationPath(), buf.Bytes()); err != nil {
		return fmt.Errorf("failed to save rotation: %w", err)
	}
	return nil
}

// LoadAds returns the advertisement templates. A missing file is an empty
// list; an unknown message kind fails the whole load.
func (s *Store) LoadAds() ([]messages.Message, error) {
	data, err := afero.ReadFile(s.fs, s.AdsPath())
	if errors.Is(err, os.ErrNotExist) {
		log.Debug().Str("path", s.AdsPath()).Msg("no advertisements file, starting empty")
		return []messages.Message{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read advertisements: %w", err)
	}

	ads, err := messages.UnmarshalList(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", AdsFile, err)
	}

	log.Info().Int("count", len(ads)).Msg("loaded advertisements")
	return ads, nil
}

func (s *Store) SaveAds(ads []messages.Message) error {
	data, err := messages.MarshalList(ads)
	if err != nil {
		return fmt.Errorf("failed to encode advertisements: %w", err)
	}
	if err := s.writeFile(s.AdsPath(), data); err != nil {
		return fmt.Errorf("failed to save advertisements: %w", err)
	}
	return nil
}

// writeFile replaces path through a temp file and a rename.
func (s *Store) writeFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
