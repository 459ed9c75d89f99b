// Copyright © 2026 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package command defines the cargo2port CLI. It wires flags, validators, the
// root action, and shell completion scripts.
package command
