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

package helpers

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/EnergySign/energysign-core/pkg/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLogging(t *testing.T) {
	// Note: Cannot use t.Parallel() because InitLogging modifies global log.Logger
	prevLogger := log.Logger
	prevLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})

	t.Run("creates log directory and writes to extra writers", func(t *testing.T) {
		logDir := filepath.Join(t.TempDir(), "logs", "nested")
		var buf bytes.Buffer

		require.NoError(t, InitLogging(logDir, false, &buf))

		info, err := os.Stat(logDir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())

		log.Info().Msg("sign online")
		log.Debug().Msg("hidden")
		assert.Contains(t, buf.String(), "sign online")
		assert.NotContains(t, buf.String(), "hidden")

		_, err = os.Stat(filepath.Join(logDir, config.LogFile))
		assert.NoError(t, err, "file writer receives the same lines")
	})

	t.Run("debug level", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, InitLogging(t.TempDir(), true, &buf))

		log.Debug().Msg("cursor moved")
		assert.Contains(t, buf.String(), "cursor moved")
		assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
	})
}
