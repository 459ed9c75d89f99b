// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"github.com/urfave/cli/v3"

	awsx "github.com/staranto/cargo2port/internal/aws"
	"github.com/staranto/cargo2port/internal/cacheutil"
	"github.com/staranto/cargo2port/internal/config"
	"github.com/staranto/cargo2port/internal/meta"
	"github.com/staranto/cargo2port/internal/registry"
)

// GetMeta returns the meta.Meta stored in the command's Metadata. If missing
// or of an unexpected type, it returns the zero value.
func GetMeta(cmd *cli.Command) meta.Meta {
	if cmd == nil || cmd.Metadata == nil {
		return meta.Meta{}
	}
	if m, ok := cmd.Metadata["meta"].(meta.Meta); ok {
		return m
	}
	return meta.Meta{}
}

// CacheEnabled reports whether crate archives may be cached. --no-cache,
// CARGO2PORT_CACHE and the cache.enabled config key can each turn it off.
func CacheEnabled(cmd *cli.Command) bool {
	if cmd.Bool("no-cache") || !cacheutil.Enabled() {
		return false
	}
	enabled, err := config.GetBool("cache.enabled", true)
	return err != nil || enabled
}

// AWSOptions returns how the S3 download mirror's AWS config is loaded. Each
// request is tried once plus --retries times.
func AWSOptions(cmd *cli.Command) []awsx.Option {
	opts := []awsx.Option{awsx.WithMaxAttempts(cmd.Int("retries") + 1)}
	if profile := cmd.String("s3-profile"); profile != "" {
		opts = append(opts, awsx.WithProfile(profile))
	}
	if region := cmd.String("s3-region"); region != "" {
		opts = append(opts, awsx.WithRegion(region))
	}
	return opts
}

// NewRegistryClient builds the registry client from the --index, --download,
// --retries and --s3-* flags.
func NewRegistryClient(cmd *cli.Command) *registry.Client {
	opts := []registry.Option{
		registry.WithIndexURL(cmd.String("index")),
		registry.WithRetries(cmd.Int("retries")),
		registry.WithCache(CacheEnabled(cmd)),
		registry.WithAWSOptions(AWSOptions(cmd)...),
	}
	if dl := cmd.String("download"); dl != "" {
		opts = append(opts, registry.WithDownloadURL(dl))
	}
	if cmd.Bool("s3-path-style") {
		opts = append(opts, registry.WithS3Options(awsx.WithPathStyle()))
	}

	return registry.New(opts...)
}
