// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package formatter

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/staranto/cargo2port/internal/lockfile"
)

// Header is the Portfile directive that opens every block.
const Header = "cargo.crates"

const (
	// continuation ends every line but the last.
	continuation = " \\\n"
	indent       = "    "

	normalNameWidth    = 28
	normalVersionWidth = 8

	// justifyGap is the number of spaces between name and version on the
	// widest line of a Justify block.
	justifyGap = 5
)

// AlignmentMode selects the column layout of a block.
type AlignmentMode int

const (
	// Normal pads names to 28 columns and right-aligns versions in 8.
	Normal AlignmentMode = iota
	// Maxlen pads names and versions to the widest of each in the block.
	Maxlen
	// Multiline puts name, version and checksum on their own lines.
	Multiline
	// Justify pads between name and version so every checksum starts in the
	// same column.
	Justify
)

var modeNames = []string{"normal", "maxlen", "multiline", "justify"}

func (m AlignmentMode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("AlignmentMode(%d)", int(m))
	}
	return modeNames[m]
}

// Modes returns the accepted mode names in declaration order.
func Modes() []string {
	return append([]string(nil), modeNames...)
}

// ParseAlignmentMode maps a mode name (case-insensitive) to its mode.
func ParseAlignmentMode(s string) (AlignmentMode, error) {
	for i, name := range modeNames {
		if strings.EqualFold(s, name) {
			return AlignmentMode(i), nil
		}
	}
	return Normal, fmt.Errorf("invalid alignment %q: must be one of %v", s, modeNames)
}

// widths holds the block-wide measurements Maxlen and Justify need before
// any line is rendered.
type widths struct {
	name    int
	version int
	pair    int
}

func measure(packages []lockfile.Package) widths {
	var w widths
	for _, p := range packages {
		n, v := width(p.Name), width(p.Version)
		w.name = max(w.name, n)
		w.version = max(w.version, v)
		w.pair = max(w.pair, n+v)
	}
	return w
}

// width counts runes, matching how fmt pads %s.
func width(s string) int {
	return utf8.RuneCountInString(s)
}

// Format renders packages, which must already be resolved, as a cargo.crates
// block. The result has no trailing newline. Packages without a checksum are
// skipped; an empty list yields the bare header.
func Format(packages []lockfile.Package, mode AlignmentMode) string {
	var w widths
	if mode == Maxlen || mode == Justify {
		w = measure(packages)
	}

	var b strings.Builder
	b.WriteString(Header)

	for _, p := range packages {
		if !p.HasChecksum() {
			continue
		}
		b.WriteString(continuation)
		b.WriteString(indent)
		b.WriteString(mode.line(w, p))
	}

	return b.String()
}

func (m AlignmentMode) line(w widths, p lockfile.Package) string {
	switch m {
	case Maxlen:
		return fmt.Sprintf("%-*s  %-*s  %s", w.name, p.Name, w.version, p.Version, p.Checksum)
	case Multiline:
		return p.Name + continuation + indent + p.Version + continuation + indent + p.Checksum
	case Justify:
		pad := JustifyPadding(w.pair, p.Name, p.Version)
		return p.Name + strings.Repeat(" ", pad) + p.Version + "  " + p.Checksum
	default:
		return fmt.Sprintf("%-*s  %*s  %s", normalNameWidth, p.Name, normalVersionWidth, p.Version, p.Checksum)
	}
}

// JustifyPadding returns the spaces placed between name and version in a
// Justify block whose widest name plus version measures pair. Widths count
// runes, so for every line of a block the rune count of name, padding and
// version adds up to pair + 5.
func JustifyPadding(pair int, name, version string) int {
	return pair - width(name) - width(version) + justifyGap
}
