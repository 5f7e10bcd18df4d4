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

package state

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/EnergySign/energysign-core/pkg/api/models"
	"github.com/EnergySign/energysign-core/pkg/config"
	"github.com/EnergySign/energysign-core/pkg/testing/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connected(id string, r *mocks.MockReader) ConnectedReader {
	return ConnectedReader{
		ID:     id,
		Reader: r,
		Device: config.ReadersConnect{Driver: "simpleserial", Path: "/dev/" + id},
	}
}

func nextNotification(t *testing.T, ns <-chan models.Notification) models.Notification {
	t.Helper()
	select {
	case n := <-ns:
		return n
	case <-time.After(time.Second):
		t.Fatal("no notification")
		return models.Notification{}
	}
}

func TestSetReaderNotifies(t *testing.T) {
	t.Parallel()

	st, ns := NewState()
	st.SetReader(connected("a", mocks.NewMockReader()))

	n := nextNotification(t, ns)
	assert.Equal(t, models.NotificationReadersConnected, n.Method)

	var params models.ReaderParams
	require.NoError(t, json.Unmarshal(n.Params, &params))
	assert.Equal(t, models.ReaderParams{ID: "a", Driver: "simpleserial", Path: "/dev/a"}, params)

	got, ok := st.GetReader("a")
	require.True(t, ok)
	assert.Equal(t, "a", got.ID)
}

func TestSetReaderReplacesExisting(t *testing.T) {
	t.Parallel()

	st, _ := NewState()
	old := &mocks.MockReader{}
	old.On("Close").Return(nil).Once()
	st.SetReader(connected("a", old))
	st.SetReader(connected("a", mocks.NewMockReader()))

	old.AssertExpectations(t)
	assert.Len(t, st.ListReaders(), 1)
}

func TestRemoveReaderClosesAndNotifies(t *testing.T) {
	t.Parallel()

	st, ns := NewState()
	r := &mocks.MockReader{}
	r.On("Close").Return(errors.New("already gone")).Once()
	st.SetReader(connected("a", r))
	_ = nextNotification(t, ns)

	st.RemoveReader("a")
	r.AssertExpectations(t)
	assert.Equal(t, models.NotificationReadersDisconnected, nextNotification(t, ns).Method)

	_, ok := st.GetReader("a")
	assert.False(t, ok)

	st.RemoveReader("a")
	select {
	case n := <-ns:
		t.Fatalf("unexpected notification %s", n.Method)
	default:
	}
}

func TestListReadersSorted(t *testing.T) {
	t.Parallel()

	st, _ := NewState()
	for _, id := range []string{"c", "a", "b"} {
		st.SetReader(connected(id, mocks.NewMockReader()))
	}

	var ids []string
	for _, r := range st.ListReaders() {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)

	st.CloseReaders()
	assert.Empty(t, st.ListReaders())
}

func TestStopServiceCancelsContext(t *testing.T) {
	t.Parallel()

	st, _ := NewState()
	st.StopService()
	select {
	case <-st.GetContext().Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled")
	}
}

// Notifications are sent after the lock is released, so a full queue with
// no consumer must not block other callers.
func TestReadersNoDeadlockWithFullQueue(t *testing.T) {
	t.Parallel()

	st, _ := NewState()

	done := make(chan struct{})
	go func() {
		defer close(done)
		var wg sync.WaitGroup
		for i := range 4 {
			wg.Go(func() {
				for j := range notificationBuffer {
					id := string(rune('a'+i)) + string(rune('0'+j%10))
					st.SetReader(connected(id, mocks.NewMockReader()))
					_ = st.ListReaders()
					st.RemoveReader(id)
				}
			})
		}
		wg.Wait()
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("deadlock: reader registry blocked on a full notification queue")
	}
	assert.Empty(t, st.ListReaders())
}
