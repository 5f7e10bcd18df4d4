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

// Package keyboard holds text typed on the sign's remote keyboard until it
// is submitted to the rotation or abandoned.
//
// A Buffer is not safe for concurrent use; the queue engine owns one and
// only touches it while holding its own lock.
package keyboard

import (
	"strings"
	"time"

	"github.com/EnergySign/energysign-core/pkg/messages"
	"github.com/jonboulle/clockwork"
)

const (
	// DefaultTimeout is how long typed text survives without a keystroke.
	DefaultTimeout = 30 * time.Second
	// DefaultWarning is the trailing part of the timeout during which the
	// echo switches to its warning style.
	DefaultWarning = 7 * time.Second
	// DefaultMinEntry is the minimum time between the first keystroke and a
	// submit for the text to be accepted.
	DefaultMinEntry = 5 * time.Second
)

type Timing struct {
	Timeout  time.Duration
	Warning  time.Duration
	MinEntry time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		Timeout:  DefaultTimeout,
		Warning:  DefaultWarning,
		MinEntry: DefaultMinEntry,
	}
}

type Buffer struct {
	clock     clockwork.Clock
	startedAt time.Time
	lastKeyAt time.Time
	keys      []rune
	timing    Timing
}

func NewBuffer(clock clockwork.Clock, timing Timing) *Buffer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Buffer{
		clock:  clock,
		timing: timing,
	}
}

// Push appends a key. The NUL rune is rejected.
func (b *Buffer) Push(key rune) bool {
	if key == 0 {
		return false
	}
	now := b.clock.Now()
	if len(b.keys) == 0 {
		b.startedAt = now
	}
	b.lastKeyAt = now
	b.keys = append(b.keys, key)
	return true
}

// Pop removes the last key, if any.
func (b *Buffer) Pop() {
	if len(b.keys) == 0 {
		return
	}
	b.lastKeyAt = b.clock.Now()
	b.keys = b.keys[:len(b.keys)-1]
}

// TrySubmit hands back the typed text when it has been worked on for longer
// than the minimum entry period and is not blank. On success the buffer is
// emptied.
func (b *Buffer) TrySubmit() (string, bool) {
	dwell := b.clock.Since(b.startedAt)
	text := string(b.keys)
	if dwell <= b.timing.MinEntry || strings.TrimSpace(text) == "" {
		return "", false
	}
	b.Clear()
	return text, true
}

// Clear empties the buffer and forgets the keystroke timestamps.
func (b *Buffer) Clear() {
	b.keys = b.keys[:0]
	b.startedAt = time.Time{}
	b.lastKeyAt = time.Time{}
}

func (b *Buffer) Len() int {
	return len(b.keys)
}

func (b *Buffer) String() string {
	return string(b.keys)
}

// Echo returns the live typing feedback for the current instant. Text left
// alone for the full timeout is dropped and no echo is returned.
func (b *Buffer) Echo() (messages.Message, bool) {
	if len(b.keys) == 0 {
		return messages.Message{}, false
	}

	elapsed := b.clock.Since(b.lastKeyAt)
	switch {
	case elapsed >= b.timing.Timeout:
		b.Clear()
		return messages.Message{}, false
	case elapsed > b.timing.Timeout-b.timing.Warning:
		return messages.KeyboardInputWarning(b.String()), true
	default:
		return messages.KeyboardInput(b.String()), true
	}
}
