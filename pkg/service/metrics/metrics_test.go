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


package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/EnergySign/energysign-core/pkg/service/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	t.Parallel()

	m := New(func() queue.Snapshot { return queue.Snapshot{} })
	m.Displayed("UserMessage")
	m.Displayed("UserMessage")
	m.Displayed("Idle")
	m.Input("payload")
	m.RenderError()

	body := scrape(t, m)
	for _, line := range []string{
		`energysign_messages_displayed_total{kind="UserMessage"} 2`,
		`energysign_messages_displayed_total{kind="Idle"} 1`,
		`energysign_inputs_total{kind="payload"} 1`,
		"energysign_render_errors_total 1",
	} {
		assert.True(t, strings.Contains(body, line), "missing %q", line)
	}
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestHandlerReportsSnapshot(t *testing.T) {
	t.Parallel()

	m := New(func() queue.Snapshot {
		return queue.Snapshot{Rotation: []string{"A", "B", "C"}, Queued: 2, Ads: 5}
	})

	body := scrape(t, m)
	for _, line := range []string{
		"energysign_rotation_messages 3",
		"energysign_queued_messages 2",
		"energysign_advertisements 5",
	} {
		assert.True(t, strings.Contains(body, line), "missing %q", line)
	}
}
