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

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestParseRemoteIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		addr string
		want string
	}{
		{"192.168.1.10:5555", "192.168.1.10"},
		{"[::1]:7497", "::1"},
		{"10.0.0.1", "10.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseRemoteIP(tt.addr).String())
		})
	}
	assert.Nil(t, ParseRemoteIP("not an address"))
}

func TestIPRateLimiterBurst(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	limiter := NewIPRateLimiterWithClock(clock, 60, 3)

	for i := range 3 {
		assert.True(t, limiter.Allow("192.168.1.100"), "request %d within burst", i+1)
	}
	assert.False(t, limiter.Allow("192.168.1.100"))
	assert.True(t, limiter.Allow("192.168.1.101"), "other addresses have their own bucket")

	clock.Advance(time.Second)
	assert.True(t, limiter.Allow("192.168.1.100"), "one token refills per second at 60/min")
	assert.False(t, limiter.Allow("192.168.1.100"))
}

func TestIPRateLimiterSameIPReuse(t *testing.T) {
	t.Parallel()

	limiter := NewIPRateLimiter()
	assert.Same(t, limiter.GetLimiter("10.0.0.1"), limiter.GetLimiter("10.0.0.1"))
	assert.NotSame(t, limiter.GetLimiter("10.0.0.1"), limiter.GetLimiter("10.0.0.2"))
}

func TestIPRateLimiterCleanup(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	limiter := NewIPRateLimiterWithClock(clock, RequestsPerMinute, BurstSize)

	limiter.GetLimiter("10.0.0.1")
	clock.Advance(staleAfter / 2)
	limiter.GetLimiter("10.0.0.2")
	clock.Advance(staleAfter/2 + time.Second)

	limiter.Cleanup()
	assert.Equal(t, 1, limiter.Len())
}

func TestHTTPRateLimitMiddleware(t *testing.T) {
	t.Parallel()

	limiter := NewIPRateLimiterWithClock(clockwork.NewFakeClock(), 60, 2)
	handler := HTTPRateLimitMiddleware(limiter)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/api/state", http.NoBody)
		req.RemoteAddr = "192.168.1.50:40000"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}

	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
}
