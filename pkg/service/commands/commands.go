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

// Package commands decodes the control language received over the remote
// link. A payload starting with "!" is a command; anything else is content
// for the rotation.
package commands

import (
	"strings"

	"github.com/EnergySign/energysign-core/pkg/helpers"
	"github.com/EnergySign/energysign-core/pkg/messages"
)

const (
	Sigil   = "!"
	AdSigil = "!🅰"

	variationSelector = "\uFE0F"
	clockGlyph        = "🕰"
)

type Op int

const (
	OpUnknown Op = iota
	OpChoose
	OpEndChoose
	OpNext
	OpPrev
	OpFirst
	OpLast
	OpDelete
	OpPause
	OpUnpause
	OpMicOn
	OpMicOff
	OpReplaceAds
)

var opNames = map[Op]string{
	OpUnknown:    "unknown",
	OpChoose:     "choose",
	OpEndChoose:  "endchoose",
	OpNext:       "next",
	OpPrev:       "prev",
	OpFirst:      "first",
	OpLast:       "last",
	OpDelete:     "delete",
	OpPause:      "pause",
	OpUnpause:    "unpause",
	OpMicOn:      "micOn",
	OpMicOff:     "micOff",
	OpReplaceAds: "replaceAds",
}

func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return "unknown"
}

var exact = map[string]Op{
	"!choose":    OpChoose,
	"!endchoose": OpEndChoose,
	"!next":      OpNext,
	"!prev":      OpPrev,
	"!first":     OpFirst,
	"!last":      OpLast,
	"!delete":    OpDelete,
	"!pause":     OpPause,
	"!unpause":   OpUnpause,
	"!micOn":     OpMicOn,
	"!micOff":    OpMicOff,
	"!🔇":         OpMicOff,
}

// Command is a decoded control command. Ads is only set for OpReplaceAds
// and Raw always holds the original text.
type Command struct {
	Raw string
	Ads []messages.Message
	Op  Op
}

// Classify reports whether payload is a command and, if so, decodes it.
// Non-command payloads are rotation content.
func Classify(payload []byte) (Command, bool) {
	if len(payload) == 0 || payload[0] != Sigil[0] {
		return Command{}, false
	}
	return Parse(string(payload)), true
}

// Parse decodes a command string. Unrecognised commands come back as
// OpUnknown rather than an error; the sender never gets feedback.
func Parse(cmd string) Command {
	if op, ok := exact[cmd]; ok {
		return Command{Op: op, Raw: cmd}
	}
	if body, ok := strings.CutPrefix(cmd, AdSigil); ok {
		body = strings.TrimPrefix(body, variationSelector)
		return Command{
			Op:  OpReplaceAds,
			Raw: cmd,
			Ads: ParseAdTemplate(body),
		}
	}
	return Command{Op: OpUnknown, Raw: cmd}
}

type colorGlyph struct {
	glyphs []string
	color  messages.Color
}

// First match wins.
var colorGlyphs = []colorGlyph{
	{glyphs: []string{"💛"}, color: messages.ColorInstagram},
	{glyphs: []string{"🔴", "❤️"}, color: messages.ColorInstaHandle},
	{glyphs: []string{"💙"}, color: messages.ColorTwitter},
	{glyphs: []string{"🧡"}, color: messages.ColorSoundcloud},
	{glyphs: []string{"💜"}, color: messages.ColorTwitch},
	{glyphs: []string{"💚"}, color: messages.ColorGreen},
	{glyphs: []string{"💗"}, color: messages.ColorPink},
}

func lineColor(line string) messages.Color {
	for _, cg := range colorGlyphs {
		for _, g := range cg.glyphs {
			if strings.Contains(line, g) {
				return cg.color
			}
		}
	}
	return messages.ColorInstagram
}

func lineDelay(line string) int {
	return (strings.Count(line, clockGlyph) + 1) * messages.DefaultDelayMs
}

// ParseAdTemplate compiles an advertisement template, one entry per line.
// Lines that don't start with a known marker are dropped.
//
//	🆑🕰BEACH!      chonky slide, 2s
//	🅾️💙TWITTER:    one by one, twitter blue, 1s
//	🛤️              now playing placeholder
//	👾              invaders
func ParseAdTemplate(body string) []messages.Message {
	ads := make([]messages.Message, 0)
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if msg, ok := parseAdLine(line); ok {
			ads = append(ads, msg)
		}
	}
	return ads
}

func parseAdLine(line string) (messages.Message, bool) {
	switch {
	case strings.HasPrefix(line, "🆑"):
		return messages.ChonkySlide(
			helpers.NormalizeText(line),
			messages.ColorInstagram,
			lineDelay(line),
		), true
	case strings.HasPrefix(line, "🅾"):
		return messages.OneByOne(
			helpers.NormalizeText(line),
			lineColor(line),
			lineDelay(line),
		), true
	case strings.HasPrefix(line, "🛤"):
		return messages.NowPlayingTrack(""), true
	case strings.HasPrefix(line, "👾"):
		return messages.Invaders(), true
	default:
		return messages.Message{}, false
	}
}
