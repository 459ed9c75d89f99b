// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"runtime"

	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/staranto/cargo2port/internal/formatter"
	"github.com/staranto/cargo2port/internal/registry"
)

// NewRootFlags constructs the root command flags. Values come from the command
// line, then the environment, then keys of the config file at cfgPath.
func NewRootFlags(cfgPath string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "align",
			Aliases: []string{"a"},
			Usage:   "alignment of the emitted lines: normal, maxlen, multiline or justify",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("CARGO2PORT_ALIGN"),
				yaml.YAML("align", altsrc.StringSourcer(cfgPath)),
			),
			Value: formatter.Normal.String(),
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator, AlignValidator)
			},
		},
		&cli.StringFlag{
			Name:   "completion",
			Usage:  "print the shell completion script for bash or zsh",
			Hidden: true,
			Validator: func(value string) error {
				return FlagValidators(value, ShellValidator)
			},
		},
		&cli.StringFlag{
			Name:  "download",
			Usage: "crate download template or s3://bucket/prefix mirror. Overrides the index",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("CARGO2PORT_DOWNLOAD"),
				yaml.YAML("registry.download", altsrc.StringSourcer(cfgPath)),
			),
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator)
			},
		},
		&cli.StringFlag{
			Name:  "index",
			Usage: "sparse registry index used to locate crate downloads",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("CARGO2PORT_INDEX"),
				yaml.YAML("registry.index", altsrc.StringSourcer(cfgPath)),
			),
			Value: registry.DefaultIndexURL,
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator)
			},
		},
		&cli.IntFlag{
			Name:    "jobs",
			Aliases: []string{"j"},
			Usage:   "number of lockfiles loaded at once, 0 for no limit",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("CARGO2PORT_JOBS"),
				yaml.YAML("jobs", altsrc.StringSourcer(cfgPath)),
			),
			Value: runtime.NumCPU(),
			Validator: func(value int) error {
				return FlagValidators(value, NonNegativeValidator)
			},
		},
		&cli.BoolFlag{
			Name:  "no-cache",
			Usage: "do not read or write the crate archive cache",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("CARGO2PORT_NO_CACHE"),
			),
			Value: false,
		},
		&cli.IntFlag{
			Name:   "retries",
			Usage:  "how many times a failed download is retried",
			Hidden: true,
			Sources: cli.NewValueSourceChain(
				yaml.YAML("registry.retries", altsrc.StringSourcer(cfgPath)),
			),
			Value: 3,
			Validator: func(value int) error {
				return FlagValidators(value, NonNegativeValidator)
			},
		},
		&cli.BoolFlag{
			Name:   "s3-path-style",
			Usage:  "use path-style addressing for an S3-compatible download mirror",
			Hidden: true,
			Sources: cli.NewValueSourceChain(
				yaml.YAML("registry.s3.path_style", altsrc.StringSourcer(cfgPath)),
			),
			Value: false,
		},
		&cli.StringFlag{
			Name:   "s3-profile",
			Usage:  "AWS shared config profile for an s3:// download mirror",
			Hidden: true,
			Sources: cli.NewValueSourceChain(
				yaml.YAML("registry.s3.profile", altsrc.StringSourcer(cfgPath)),
			),
		},
		&cli.StringFlag{
			Name:   "s3-region",
			Usage:  "AWS region for an s3:// download mirror",
			Hidden: true,
			Sources: cli.NewValueSourceChain(
				yaml.YAML("registry.s3.region", altsrc.StringSourcer(cfgPath)),
			),
		},
		&cli.BoolFlag{
			Name:        "version",
			Aliases:     []string{"v"},
			Usage:       "cargo2port version info",
			HideDefault: true,
		},
	}
}
