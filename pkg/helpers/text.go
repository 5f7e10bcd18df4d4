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

package helpers

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// punctuationReplacer maps typographic punctuation that phone keyboards
// insert onto the ASCII glyphs the sign font has.
var punctuationReplacer = strings.NewReplacer(
	"‘", "'",
	"’", "'",
	"‚", ",",
	"“", `"`,
	"”", `"`,
	"„", `"`,
	"–", "-",
	"—", "-",
	"…", "...",
	"•", "*",
	"×", "x",
)

// whitespaceReplacer turns line breaks and tabs into single spaces so words
// on either side stay apart once control characters are dropped.
var whitespaceReplacer = strings.NewReplacer(
	"\r\n", " ",
	"\r", " ",
	"\n", " ",
	"\t", " ",
	"\v", " ",
	"\f", " ",
)

// displayable reports whether the sign font has a glyph for r.
func displayable(r rune) bool {
	return r >= 0x20 && r <= 0x7E
}

// NormalizeText folds arbitrary UTF-8 text down to what the sign can draw:
// compatibility decomposition, accents stripped, typographic punctuation
// replaced, line breaks and tabs turned into spaces and any remaining glyph
// outside printable ASCII (emoji, markers, control characters) dropped.
// Spacing is otherwise preserved.
func NormalizeText(s string) string {
	s = whitespaceReplacer.Replace(punctuationReplacer.Replace(s))
	t := transform.Chain(
		norm.NFKD,
		runes.Remove(runes.In(unicode.Mn)),
		runes.Remove(runes.Predicate(func(r rune) bool {
			return !displayable(r)
		})),
		norm.NFC,
	)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Contains reports whether xs holds x.
func Contains[T comparable](xs []T, x T) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
