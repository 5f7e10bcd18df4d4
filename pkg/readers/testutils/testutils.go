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

// Package testutils provides common testing utilities for reader tests.
package testutils

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/EnergySign/energysign-core/pkg/readers"
	"github.com/stretchr/testify/require"
)

func CreateTestInputChannel(_ *testing.T) chan readers.Input {
	return make(chan readers.Input, 10)
}

// AssertInputReceived waits up to timeout for an input and returns it.
func AssertInputReceived(t *testing.T, ch chan readers.Input, timeout time.Duration) readers.Input {
	t.Helper()
	select {
	case in := <-ch:
		return in
	case <-time.After(timeout):
		require.Fail(t, "expected input to be received within timeout", "timeout: %v", timeout)
		return readers.Input{}
	}
}

func AssertNoInput(t *testing.T, ch chan readers.Input, timeout time.Duration) {
	t.Helper()
	select {
	case in := <-ch:
		require.Fail(t, "unexpected input received",
			"input: source=%s, kind=%s", in.Source, in.Kind)
	case <-time.After(timeout):
	}
}

// CreateTempDevicePath returns a path that passes a device existence check.
// Windows COM ports are not checked, so any name works there.
func CreateTempDevicePath(t *testing.T) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		return "COM1"
	}

	path := filepath.Join(t.TempDir(), "ttyUSB0")
	require.NoError(t, os.WriteFile(path, nil, 0o600))
	return path
}
