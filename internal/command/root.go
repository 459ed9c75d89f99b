// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/cargo2port/internal/cacheutil"
	"github.com/staranto/cargo2port/internal/config"
	"github.com/staranto/cargo2port/internal/formatter"
	"github.com/staranto/cargo2port/internal/meta"
	"github.com/staranto/cargo2port/internal/resolver"
	"github.com/staranto/cargo2port/internal/source"
	"github.com/staranto/cargo2port/internal/version"
)

// NoPackagesMessage is written to stderr when nothing is left to emit.
const NoPackagesMessage = "No packages with checksums found."

// RootCommandAction loads every lockfile named on the command line, merges
// their registry packages and prints one cargo.crates block on stdout. Any
// load failure aborts before anything is printed.
func RootCommandAction(ctx context.Context, cmd *cli.Command) error {
	stdout, stderr := cmd.Root().Writer, cmd.Root().ErrWriter

	if shell := cmd.String("completion"); shell != "" {
		return WriteCompletion(stdout, shell)
	}
	if cmd.Bool("version") {
		fmt.Fprintln(stdout, version.Version)
		return nil
	}

	mode, err := formatter.ParseAlignmentMode(cmd.String("align"))
	if err != nil {
		return err
	}

	sources, err := source.Parse(cmd.Args().Slice())
	if err != nil {
		return err
	}

	env := source.Env{
		Stdin:   cmd.Root().Reader,
		Fetcher: NewRegistryClient(cmd),
	}
	lockfiles, err := source.LoadAll(ctx, env, sources, cmd.Int("jobs"))
	if err != nil {
		return err
	}

	packages := resolver.ResolveLockfiles(lockfiles)
	for _, c := range resolver.Conflicts(packages) {
		log.WithFields(log.Fields{
			"name":      c.Name,
			"version":   c.Version,
			"checksums": strings.Join(c.Checksums, ","),
		}).Warn("conflicting checksums, emitting each")
	}

	if len(packages) == 0 {
		fmt.Fprintln(stderr, NoPackagesMessage)
		return nil
	}

	_, err = fmt.Fprintln(stdout, formatter.Format(packages, mode))
	return err
}

// RootCommandBefore expires old cache entries when cache.clean names a
// number of hours.
func RootCommandBefore(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	m := GetMeta(cmd)
	log.WithFields(log.Fields{
		"config": m.Config.Source,
		"cwd":    m.StartingDir,
	}).Debug("starting")

	if !CacheEnabled(cmd) {
		return ctx, nil
	}
	hours, err := config.GetInt("cache.clean", 0)
	if err != nil {
		log.WithError(err).Warn("ignoring cache.clean")
		return ctx, nil
	}
	if err := cacheutil.Purge(hours); err != nil {
		log.WithError(err).Warn("failed to purge cache")
	}
	return ctx, nil
}

// RootCommandBuilder constructs the cargo2port command, wiring metadata,
// flags, and the before/action handlers.
func RootCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "cargo2port",
		Usage:     "print a MacPorts cargo.crates block for Cargo.lock files",
		UsageText: "cargo2port [options] [PATH|-|NAME@VERSION]...",
		Description: "Reads each lockfile (a path, - for stdin, or the Cargo.lock shipped\n" +
			"with a published crate), merges the packages that carry a checksum and\n" +
			"prints them sorted by name and version. With no arguments ./Cargo.lock is read.",
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags:           NewRootFlags(meta.Config.Source),
		HideHelpCommand: true,
		Before:          RootCommandBefore,
		Action:          RootCommandAction,
		OnUsageError: func(ctx context.Context, cmd *cli.Command, err error, isSubcommand bool) error {
			return err
		},
	}
}
