// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/apex/log"

	"github.com/staranto/cargo2port/internal/cacheutil"
	"github.com/staranto/cargo2port/internal/command"
	mylog "github.com/staranto/cargo2port/internal/log"
	"github.com/staranto/cargo2port/internal/version"
)

var ctx = context.Background()

func main() {
	os.Exit(realMain())
}

func realMain() int {
	mylog.InitLogger()

	args := os.Args

	// Short-circuit --version/-v.
	for _, a := range args[1:] {
		if a == "--" {
			break
		}
		if a == "--version" || a == "-v" {
			fmt.Println(version.Version)
			return command.ExitOK
		}
	}

	// Best-effort: pre-create cache directory when caching is enabled.
	if _, _, err := cacheutil.EnsureBaseDir(); err != nil {
		log.WithError(err).Warn("continuing without cache directory")
	}

	return command.Run(ctx, args, os.Stdin, os.Stdout, os.Stderr)
}
