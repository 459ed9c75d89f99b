// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package lockfile

import (
	"strings"

	version "github.com/hashicorp/go-version"
)

// CompareVersions orders two version strings by semantic-version precedence.
// Every version that parses sorts before every one that does not. Unparseable
// strings, and versions that differ only in build metadata, fall back to byte
// order. The result is a total order, so it is safe for sorting mixed input.
func CompareVersions(a, b string) int {
	if a == b {
		return 0
	}
	va, errA := version.NewVersion(a)
	vb, errB := version.NewVersion(b)
	switch {
	case errA == nil && errB == nil:
		if c := va.Compare(vb); c != 0 {
			return c
		}
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	return strings.Compare(a, b)
}

// Compare orders packages by name, then version. Checksum only breaks ties
// between entries that share a name and version.
func Compare(a, b Package) int {
	if c := strings.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	if c := CompareVersions(a.Version, b.Version); c != 0 {
		return c
	}
	return strings.Compare(a.Checksum, b.Checksum)
}

// Less reports whether a sorts before b.
func Less(a, b Package) bool {
	return Compare(a, b) < 0
}
