// Copyright © 2026 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// cargo2port prints the cargo.crates block of a MacPorts Portfile from one or
// more Cargo.lock files. It wires the CLI, delegates to internal packages, and
// serves as the entry point.
package main
