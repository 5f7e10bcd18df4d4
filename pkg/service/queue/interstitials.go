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

package queue

import (
	"slices"

	"github.com/EnergySign/energysign-core/pkg/messages"
)

// interstitials is the FIFO of one-shot messages shown ahead of the
// rotation. It relies on the engine lock.
type interstitials struct {
	items []messages.Message
}

// PushFront puts msgs at the head of the queue keeping their order, so
// PushFront(A, B) followed by Pop yields A then B.
func (q *interstitials) PushFront(msgs ...messages.Message) {
	if len(msgs) == 0 {
		return
	}
	q.items = slices.Insert(q.items, 0, msgs...)
}

func (q *interstitials) Enqueue(msg messages.Message) {
	q.items = append(q.items, msg)
}

func (q *interstitials) Pop() (messages.Message, bool) {
	if len(q.items) == 0 {
		return messages.Message{}, false
	}
	msg := q.items[0]
	q.items[0] = messages.Message{}
	q.items = q.items[1:]
	return msg, true
}

func (q *interstitials) Contains(msg messages.Message) bool {
	return slices.Contains(q.items, msg)
}

// RemoveIf drops every queued message matching fn and returns how many were
// removed.
func (q *interstitials) RemoveIf(fn func(messages.Message) bool) int {
	before := len(q.items)
	q.items = slices.DeleteFunc(q.items, fn)
	return before - len(q.items)
}

func (q *interstitials) Len() int {
	return len(q.items)
}

func (q *interstitials) Items() []messages.Message {
	return slices.Clone(q.items)
}
