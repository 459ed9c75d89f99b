// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/apex/log"
	"golang.org/x/term"

	"github.com/staranto/cargo2port/internal/lockfile"
)

// StdinName is the argument that reads a lockfile from standard input.
const StdinName = "-"

// ErrDuplicateStdin is returned when standard input is named more than once.
var ErrDuplicateStdin = errors.New("standard input (-) may only be given once")

// ErrNoFetcher is returned when a registry source is loaded without a
// Fetcher in the Env.
var ErrNoFetcher = errors.New("no registry client configured")

var crateName = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// InvalidSpecifierError is returned for an argument that looks like a
// name@version crate specifier but is not one.
type InvalidSpecifierError struct {
	Arg    string
	Reason string
}

func (e *InvalidSpecifierError) Error() string {
	return fmt.Sprintf("invalid crate specifier %q: %s", e.Arg, e.Reason)
}

// Fetcher returns the lockfile shipped with a published crate.
type Fetcher interface {
	Lockfile(ctx context.Context, name, version string) (*lockfile.Lockfile, error)
}

// Env is what sources need from the outside world to load.
type Env struct {
	// Stdin is read by the "-" source. Nil means os.Stdin.
	Stdin   io.Reader
	Fetcher Fetcher
}

// Source is one place a lockfile is read from.
type Source interface {
	String() string
	Load(ctx context.Context, env Env) (*lockfile.Lockfile, error)
}

// File is a lockfile on disk.
type File struct {
	Path string
}

func (f File) String() string { return f.Path }

func (f File) Load(ctx context.Context, _ Env) (*lockfile.Lockfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return lockfile.Load(f.Path)
}

// Stdin is a lockfile piped on standard input.
type Stdin struct{}

func (Stdin) String() string { return StdinName }

func (Stdin) Load(ctx context.Context, env Env) (*lockfile.Lockfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r := env.Stdin
	if r == nil {
		r = os.Stdin
	}
	if f, ok := r.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		log.Warn("reading lockfile from the terminal, end input with Ctrl-D")
	}

	// The read is not interruptible, so it runs aside and is abandoned on
	// cancellation.
	type read struct {
		data []byte
		err  error
	}
	done := make(chan read, 1)
	go func() {
		data, err := io.ReadAll(r)
		done <- read{data: data, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		if res.err != nil {
			return nil, &lockfile.ParseError{Source: StdinName, Err: res.err}
		}
		return lockfile.Parse(bytes.NewReader(res.data), StdinName)
	}
}

// Registry is the lockfile shipped inside a published crate archive.
type Registry struct {
	Name    string
	Version string
}

func (r Registry) String() string { return r.Name + "@" + r.Version }

func (r Registry) Load(ctx context.Context, env Env) (*lockfile.Lockfile, error) {
	if env.Fetcher == nil {
		return nil, fmt.Errorf("%s: %w", r, ErrNoFetcher)
	}
	return env.Fetcher.Lockfile(ctx, r.Name, r.Version)
}

// Parse classifies args. "-" is standard input, an argument holding "@" that
// is not an existing path is a crate specifier, and anything else is a path.
// Empty arguments are ignored. When nothing is left, Cargo.lock in the
// working directory is read.
func Parse(args []string) ([]Source, error) {
	var (
		sources []Source
		seen    bool
	)

	for _, arg := range args {
		switch {
		case arg == "":
			continue

		case arg == StdinName:
			if seen {
				return nil, ErrDuplicateStdin
			}
			seen = true
			sources = append(sources, Stdin{})

		case strings.Contains(arg, "@") && !exists(arg):
			spec, err := ParseSpecifier(arg)
			if err != nil {
				return nil, err
			}
			sources = append(sources, spec)

		default:
			sources = append(sources, File{Path: arg})
		}
	}

	if len(sources) == 0 {
		sources = append(sources, File{Path: lockfile.DefaultName})
	}

	log.Debugf("sources: %v", sources)
	return sources, nil
}

// ParseSpecifier parses a name@version crate specifier.
func ParseSpecifier(arg string) (Registry, error) {
	name, version, ok := strings.Cut(arg, "@")
	switch {
	case !ok:
		return Registry{}, &InvalidSpecifierError{Arg: arg, Reason: "expected NAME@VERSION"}
	case name == "":
		return Registry{}, &InvalidSpecifierError{Arg: arg, Reason: "missing crate name"}
	case !crateName.MatchString(name):
		return Registry{}, &InvalidSpecifierError{Arg: arg, Reason: "crate name may only hold letters, digits, '-' and '_'"}
	case version == "":
		return Registry{}, &InvalidSpecifierError{Arg: arg, Reason: "missing version"}
	case strings.ContainsAny(version, "@/\\") || strings.IndexFunc(version, isSpace) >= 0:
		return Registry{}, &InvalidSpecifierError{Arg: arg, Reason: "malformed version"}
	}
	return Registry{Name: name, Version: version}, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f'
}
