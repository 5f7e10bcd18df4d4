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
	"testing"

	"github.com/EnergySign/energysign-core/pkg/config"
	"github.com/stretchr/testify/require"
)

// NewTestConfig writes vals as a fresh config in a temp dir and loads it.
//
//nolint:gocritic // config struct copied for immutability
func NewTestConfig(t *testing.T, vals config.Values) *config.Instance {
	t.Helper()
	if vals.ConfigSchema == 0 {
		vals.ConfigSchema = config.SchemaVersion
	}
	cfg, err := config.NewConfig(t.TempDir(), vals)
	require.NoError(t, err)
	return cfg
}
