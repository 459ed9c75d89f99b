// Copyright © 2026 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package registry downloads published .crate archives, from a Cargo registry
// over HTTP or from an S3 mirror, and extracts the Cargo.lock they ship.
package registry
