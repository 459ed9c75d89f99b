// Copyright © 2026 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package source turns command line arguments into lockfile sources (a path,
// standard input, or a crate published to a registry) and loads them.
package source
