// Copyright © 2026 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package lockfile reads Cargo.lock documents into ordered package records and
// defines the ordering used for emitted cargo.crates blocks.
package lockfile
