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

package messages

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownKind is returned when decoding a message with an unrecognised
// "type" discriminator.
var ErrUnknownKind = errors.New("unknown message kind")

// wireMessage is the persisted shape of a Message. Only the fields that
// belong to the variant named by Type are written.
type wireMessage struct {
	Text     *string `json:"text,omitempty"`
	Color    *Color  `json:"color,omitempty"`
	DelayMs  *int    `json:"delayMs,omitempty"`
	Position *int    `json:"position,omitempty"`
	Total    *int    `json:"total,omitempty"`
	Preview  *string `json:"preview,omitempty"`
	Type     Kind    `json:"type"`
}

func (m Message) MarshalJSON() ([]byte, error) {
	w := wireMessage{Type: m.Kind}
	switch m.Kind {
	case KindUser, KindNowPlayingTrack, KindKeyboardInput, KindKeyboardInputWarning:
		w.Text = &m.Text
	case KindChonkySlide, KindOneByOne:
		w.Text = &m.Text
		w.Color = &m.Color
		w.DelayMs = &m.DelayMs
	case KindChooser:
		w.Position = &m.Position
		w.Total = &m.Total
		w.Preview = &m.Preview
	case KindNewMessageAnnouncement, KindNowPlayingAnnouncement,
		KindInvaders, KindEnableMic, KindDisableMic, KindIdle:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, m.Kind)
	}

	data, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", m.Kind, err)
	}
	return data, nil
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("failed to unmarshal message: %w", err)
	}
	if !w.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownKind, w.Type)
	}

	out := Message{Kind: w.Type}
	switch w.Type {
	case KindUser, KindNowPlayingTrack, KindKeyboardInput, KindKeyboardInputWarning:
		out.Text = deref(w.Text)
	case KindChonkySlide, KindOneByOne:
		out.Text = deref(w.Text)
		out.Color = deref(w.Color)
		out.DelayMs = deref(w.DelayMs)
		if w.DelayMs == nil {
			out.DelayMs = DefaultDelayMs
		}
	case KindChooser:
		out.Position = deref(w.Position)
		out.Total = deref(w.Total)
		out.Preview = deref(w.Preview)
	default:
	}

	*m = out
	return nil
}

func deref[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}
	return *v
}

// MarshalList encodes an ordered list of messages as a JSON array.
func MarshalList(ms []Message) ([]byte, error) {
	if ms == nil {
		ms = []Message{}
	}
	data, err := json.MarshalIndent(ms, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message list: %w", err)
	}
	return data, nil
}

// UnmarshalList decodes a JSON array of messages. A single bad element
// fails the whole list.
func UnmarshalList(data []byte) ([]Message, error) {
	var ms []Message
	if err := json.Unmarshal(data, &ms); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message list: %w", err)
	}
	return ms, nil
}
