// Copyright © 2026 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package formatter renders resolved packages as a cargo.crates block for a
// MacPorts Portfile, in one of several column alignments.
package formatter
