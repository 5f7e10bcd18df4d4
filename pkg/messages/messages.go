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

// Package messages defines everything the sign can display.
//
// A Message is a flat tagged union: Kind selects the variant and only the
// fields belonging to that variant are meaningful. Messages are plain
// comparable values, so two messages of the same variant with the same
// fields are equal under ==.
package messages

import "fmt"

type Kind string

const (
	KindUser                   Kind = "UserMessage"
	KindChonkySlide            Kind = "ChonkySlide"
	KindOneByOne               Kind = "OneByOneMessage"
	KindNowPlayingTrack        Kind = "NowPlayingTrackMessage"
	KindNewMessageAnnouncement Kind = "NewMessageAnnouncement"
	KindNowPlayingAnnouncement Kind = "NowPlayingAnnouncement"
	KindKeyboardInput          Kind = "KeyboardInput"
	KindKeyboardInputWarning   Kind = "KeyboardInputWarning"
	KindChooser                Kind = "Chooser"
	KindInvaders               Kind = "Invaders"
	KindEnableMic              Kind = "EnableMic"
	KindDisableMic             Kind = "DisableMic"
	KindIdle                   Kind = "Idle"
)

// Kinds lists every known variant.
var Kinds = []Kind{
	KindUser,
	KindChonkySlide,
	KindOneByOne,
	KindNowPlayingTrack,
	KindNewMessageAnnouncement,
	KindNowPlayingAnnouncement,
	KindKeyboardInput,
	KindKeyboardInputWarning,
	KindChooser,
	KindInvaders,
	KindEnableMic,
	KindDisableMic,
	KindIdle,
}

// Valid reports whether k is a known variant.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Color is a 32-bit ARGB color as understood by the sign controller.
type Color uint32

const (
	ColorInstagram   Color = 0xFFE1306C
	ColorInstaHandle Color = 0xFFFF0000
	ColorTwitter     Color = 0xFF1DA1F2
	ColorSoundcloud  Color = 0xFFFF7700
	ColorTwitch      Color = 0xFF9146FF
	ColorGreen       Color = 0xFF00FF00
	ColorPink        Color = 0xFFFF69B4
)

func (c Color) String() string {
	return fmt.Sprintf("#%08X", uint32(c))
}

// DefaultDelayMs is the dwell time of a styled message with no clock glyphs.
const DefaultDelayMs = 1000

// ChooserPreviewLen is the number of runes of the selected entry shown in
// chooser mode.
const ChooserPreviewLen = 7

type Message struct {
	Kind     Kind
	Text     string
	Preview  string
	Color    Color
	DelayMs  int
	Position int
	Total    int
}

func User(text string) Message {
	return Message{Kind: KindUser, Text: text}
}

func ChonkySlide(text string, color Color, delayMs int) Message {
	return Message{Kind: KindChonkySlide, Text: text, Color: color, DelayMs: delayMs}
}

func OneByOne(text string, color Color, delayMs int) Message {
	return Message{Kind: KindOneByOne, Text: text, Color: color, DelayMs: delayMs}
}

// NowPlayingTrack returns a track message. An empty label is the
// advertisement placeholder substituted with the live track at injection.
func NowPlayingTrack(label string) Message {
	return Message{Kind: KindNowPlayingTrack, Text: label}
}

func NewMessageAnnouncement() Message {
	return Message{Kind: KindNewMessageAnnouncement}
}

func NowPlayingAnnouncement() Message {
	return Message{Kind: KindNowPlayingAnnouncement}
}

func KeyboardInput(text string) Message {
	return Message{Kind: KindKeyboardInput, Text: text}
}

func KeyboardInputWarning(text string) Message {
	return Message{Kind: KindKeyboardInputWarning, Text: text}
}

// Chooser builds the selection-mode view of a rotation entry. Position is
// 1-based and the preview is cut to ChooserPreviewLen runes.
func Chooser(position, total int, entry string) Message {
	return Message{
		Kind:     KindChooser,
		Position: position,
		Total:    total,
		Preview:  Truncate(entry, ChooserPreviewLen),
	}
}

func Invaders() Message {
	return Message{Kind: KindInvaders}
}

func EnableMic() Message {
	return Message{Kind: KindEnableMic}
}

func DisableMic() Message {
	return Message{Kind: KindDisableMic}
}

// Idle is returned when there is nothing at all to show.
func Idle() Message {
	return Message{Kind: KindIdle}
}

// IsUtility reports whether m is a side-channel control signal.
func (m Message) IsUtility() bool {
	return m.Kind == KindEnableMic || m.Kind == KindDisableMic
}

// IsPlaceholder reports whether m is the now playing advertisement slot.
func (m Message) IsPlaceholder() bool {
	return m.Kind == KindNowPlayingTrack && m.Text == ""
}

func (m Message) String() string {
	switch m.Kind {
	case KindChonkySlide, KindOneByOne:
		return fmt.Sprintf("%s(%q, %s, %dms)", m.Kind, m.Text, m.Color, m.DelayMs)
	case KindChooser:
		return fmt.Sprintf("%s(%d/%d, %q)", m.Kind, m.Position, m.Total, m.Preview)
	case KindUser, KindNowPlayingTrack, KindKeyboardInput, KindKeyboardInputWarning:
		return fmt.Sprintf("%s(%q)", m.Kind, m.Text)
	default:
		return string(m.Kind)
	}
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
