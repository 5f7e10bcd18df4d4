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

package broker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/EnergySign/energysign-core/pkg/api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startBroker runs b until the test ends.
func startBroker(t *testing.T, b *Broker) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = b.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestBroker_Subscribe(t *testing.T) {
	t.Parallel()

	broker := NewBroker(make(chan models.Notification))

	ch, id := broker.Subscribe(10)
	assert.NotNil(t, ch)
	assert.Equal(t, 0, id)

	_, id2 := broker.Subscribe(20)
	assert.Equal(t, 1, id2)
	assert.Len(t, broker.subscribers, 2)
}

func TestBroker_Unsubscribe(t *testing.T) {
	t.Parallel()

	broker := NewBroker(make(chan models.Notification))
	ch, id := broker.Subscribe(10)

	broker.Unsubscribe(id)
	assert.Empty(t, broker.subscribers)

	_, ok := <-ch
	assert.False(t, ok, "channel should be closed")

	broker.Unsubscribe(id)
}

func TestBroker_BroadcastToMultipleSubscribers(t *testing.T) {
	t.Parallel()

	source := make(chan models.Notification, 10)
	broker := NewBroker(source)
	sub1, _ := broker.Subscribe(10)
	sub2, _ := broker.Subscribe(10)
	startBroker(t, broker)

	source <- models.Notification{Method: models.NotificationDisplayMessage, Params: []byte(`{}`)}

	assert.Equal(t, models.NotificationDisplayMessage, (<-sub1).Method)
	assert.Equal(t, models.NotificationDisplayMessage, (<-sub2).Method)
}

func TestBroker_FullSubscriberDropsInsteadOfBlocking(t *testing.T) {
	t.Parallel()

	source := make(chan models.Notification, 100)
	broker := NewBroker(source)
	slow, _ := broker.Subscribe(2)
	fast, _ := broker.Subscribe(100)
	startBroker(t, broker)

	for range 20 {
		source <- models.Notification{Method: models.NotificationRotationChanged}
	}

	for range 20 {
		select {
		case <-fast:
		case <-time.After(time.Second):
			require.FailNow(t, "fast subscriber starved by slow one")
		}
	}
	assert.Len(t, slow, 2)
}

func TestBroker_ContextCancellationClosesSubscribers(t *testing.T) {
	t.Parallel()

	broker := NewBroker(make(chan models.Notification))
	sub, _ := broker.Subscribe(10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, broker.Run(ctx))

	_, ok := <-sub
	assert.False(t, ok)

	late, _ := broker.Subscribe(1)
	_, ok = <-late
	assert.False(t, ok, "subscribing after shutdown yields a closed channel")
}

func TestBroker_SourceClosureStopsBroker(t *testing.T) {
	t.Parallel()

	source := make(chan models.Notification)
	broker := NewBroker(source)
	sub, _ := broker.Subscribe(10)

	close(source)
	require.NoError(t, broker.Run(context.Background()))

	_, ok := <-sub
	assert.False(t, ok)
}

func TestBroker_ConcurrentSubscribeUnsubscribe(t *testing.T) {
	t.Parallel()

	source := make(chan models.Notification, 100)
	broker := NewBroker(source)
	startBroker(t, broker)

	var wg sync.WaitGroup
	for range 10 {
		wg.Go(func() {
			_, id := broker.Subscribe(5)
			time.Sleep(5 * time.Millisecond)
			broker.Unsubscribe(id)
		})
	}
	wg.Go(func() {
		for range 20 {
			source <- models.Notification{Method: models.NotificationNowPlaying}
		}
	})
	wg.Wait()
}

func TestBroker_SubscriberReceivesInOrder(t *testing.T) {
	t.Parallel()

	source := make(chan models.Notification, 100)
	broker := NewBroker(source)
	sub, _ := broker.Subscribe(100)
	startBroker(t, broker)

	methods := []string{
		models.NotificationNowPlaying,
		models.NotificationDisplayMessage,
		models.NotificationRotationChanged,
		models.NotificationDisplayMessage,
	}
	for _, m := range methods {
		source <- models.Notification{Method: m}
	}
	for i, want := range methods {
		assert.Equal(t, want, (<-sub).Method, "notification %d out of order", i)
	}
}
