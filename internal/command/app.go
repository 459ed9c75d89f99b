// Copyright © 2026 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT
package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/urfave/cli/v3"

	"github.com/staranto/cargo2port/internal/config"
	"github.com/staranto/cargo2port/internal/meta"
)

// Exit codes returned by Run.
const (
	ExitOK       = 0
	ExitInitFail = 1
	ExitRunFail  = 2
)

func InitApp(ctx context.Context, args []string) (*cli.Command, error) {
	sd, _ := os.Getwd()

	// A missing config file is normal. One that exists but cannot be read is
	// not.
	cfg, err := config.Load()
	if err != nil && !errors.Is(err, config.ErrNotFound) {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	meta := meta.Meta{
		Args:        args,
		Config:      cfg,
		Context:     ctx,
		StartingDir: sd,
	}

	app := RootCommandBuilder(meta)

	// Make sure flags are sorted for the --help text.
	sort.Slice(app.Flags, func(i, j int) bool {
		return app.Flags[i].Names()[0] < app.Flags[j].Names()[0]
	})

	return app, nil
}

// Run builds the app, runs it with args, and returns the process exit code.
// Errors are reported on stderr as "Error: <msg>".
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	app, err := InitApp(ctx, args)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitInitFail
	}

	app.Reader = stdin
	app.Writer = stdout
	app.ErrWriter = stderr

	if err := app.Run(ctx, args); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitRunFail
	}

	return ExitOK
}
