// Copyright © 2026 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package resolver merges the packages of several lockfiles into a single
// sorted, deduplicated list of registry artifacts.
package resolver
