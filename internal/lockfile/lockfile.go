// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package lockfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/apex/log"
	"github.com/pelletier/go-toml/v2"
)

// DefaultName is the lockfile read when no arguments are given.
const DefaultName = "Cargo.lock"

// Package is one [[package]] entry of a lockfile. An empty Checksum means the
// package is not fetched from a registry (path or git dependency).
type Package struct {
	Name     string
	Version  string
	Source   string
	Checksum string
}

// HasChecksum reports whether p refers to a fetchable registry artifact.
func (p Package) HasChecksum() bool {
	return p.Checksum != ""
}

func (p Package) String() string {
	if p.Checksum == "" {
		return p.Name + " " + p.Version
	}
	return p.Name + " " + p.Version + " " + p.Checksum
}

// Lockfile is a parsed Cargo.lock. Packages keep their declared order.
type Lockfile struct {
	// Source names where the document came from: a path, "-" for stdin, or a
	// name@version registry specifier.
	Source   string
	Version  int
	Packages []Package
}

// ParseError is returned when a lockfile does not decode as a Cargo.lock.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// NotFoundError is returned when a lockfile path does not exist or cannot be
// read.
type NotFoundError struct {
	Path string
	Err  error
}

func (e *NotFoundError) Error() string {
	if e.Err == nil {
		return "cannot find file " + e.Path
	}
	return fmt.Sprintf("cannot find file %s: %v", e.Path, e.Err)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// ErrIsDirectory is wrapped by NotFoundError when a path names a directory.
var ErrIsDirectory = errors.New("is a directory")

type rawPackage struct {
	Name     string `toml:"name"`
	Version  string `toml:"version"`
	Source   string `toml:"source"`
	Checksum string `toml:"checksum"`
}

type rawLockfile struct {
	Version  int            `toml:"version"`
	Packages []rawPackage   `toml:"package"`
	Metadata map[string]any `toml:"metadata"`
}

// Load reads and parses the lockfile at path.
func Load(path string) (*Lockfile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &NotFoundError{Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, &NotFoundError{Path: path, Err: ErrIsDirectory}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &NotFoundError{Path: path, Err: err}
	}
	defer f.Close()

	log.Debugf("loading lockfile %s", path)
	return Parse(f, path)
}

// Parse decodes a lockfile from r. source is recorded on the result and used
// in error messages.
func Parse(r io.Reader, source string) (*Lockfile, error) {
	var raw rawLockfile
	if err := toml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, &ParseError{Source: source, Err: err}
	}

	// Format v1 lockfiles keep checksums in [metadata] rather than inline.
	legacy := legacyChecksums(raw.Metadata)

	lf := &Lockfile{
		Source:   source,
		Version:  raw.Version,
		Packages: make([]Package, 0, len(raw.Packages)),
	}
	for i, rp := range raw.Packages {
		if rp.Name == "" {
			return nil, &ParseError{Source: source, Err: fmt.Errorf("package #%d has no name", i+1)}
		}
		if rp.Version == "" {
			return nil, &ParseError{Source: source, Err: fmt.Errorf("package %s has no version", rp.Name)}
		}

		pkg := Package{
			Name:     rp.Name,
			Version:  rp.Version,
			Source:   rp.Source,
			Checksum: rp.Checksum,
		}
		if pkg.Checksum == "" {
			pkg.Checksum = legacy[legacyKey(rp.Name, rp.Version, rp.Source)]
		}
		lf.Packages = append(lf.Packages, pkg)
	}

	log.WithFields(log.Fields{
		"source":   source,
		"version":  lf.Version,
		"packages": len(lf.Packages),
	}).Debug("parsed lockfile")

	return lf, nil
}

// legacyChecksums maps "name version source" to the checksum recorded under
// keys of the form `checksum <name> <version> (<source>)`.
func legacyChecksums(metadata map[string]any) map[string]string {
	sums := make(map[string]string)
	for k, v := range metadata {
		sum, ok := v.(string)
		if !ok || sum == "" || sum == "<none>" {
			continue
		}
		fields := strings.Fields(k)
		if len(fields) != 4 || fields[0] != "checksum" {
			continue
		}
		src := strings.TrimSuffix(strings.TrimPrefix(fields[3], "("), ")")
		sums[legacyKey(fields[1], fields[2], src)] = sum
	}
	return sums
}

func legacyKey(name, version, source string) string {
	return name + " " + version + " " + source
}
