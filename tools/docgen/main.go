// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	md2man "github.com/cpuguy83/go-md2man/v2/md2man"
)

// Doc generator:
// - Reads docs/cargo2port.md as the canonical manual
// - Generates:
//   - docs/man/share/man1/cargo2port.1 via md2man
//   - docs/tldr/cargo2port.md from the short description and Examples block

const name = "cargo2port"

func main() {
	var (
		repoRoot           string
		writeOnlyIfChanged bool
	)

	flag.StringVar(&repoRoot, "root", ".", "repo root (default current dir)")
	flag.BoolVar(&writeOnlyIfChanged, "only-if-changed", true, "only write files if content changed")
	flag.Parse()

	if err := generate(repoRoot, writeOnlyIfChanged); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func generate(repoRoot string, onlyIfChanged bool) error {
	inPath := filepath.Join(repoRoot, "docs", name+".md")
	manOutDir := filepath.Join(repoRoot, "docs", "man", "share", "man1")
	tldrOutDir := filepath.Join(repoRoot, "docs", "tldr")

	raw, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", inPath, err)
	}

	for _, dir := range []string{manOutDir, tldrOutDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output dir %s: %w", dir, err)
		}
	}

	manPath := filepath.Join(manOutDir, name+".1")
	if err := writeFileIfChanged(manPath, md2man.Render(raw), onlyIfChanged); err != nil {
		return fmt.Errorf("writing man page: %w", err)
	}

	md := string(raw)
	tldr := buildTLDR(shortDescription(md), examples(md))
	tldrPath := filepath.Join(tldrOutDir, name+".md")
	if err := writeFileIfChanged(tldrPath, []byte(tldr), onlyIfChanged); err != nil {
		return fmt.Errorf("writing tldr page: %w", err)
	}

	return nil
}

func writeFileIfChanged(path string, new []byte, onlyIfChanged bool) error {
	if !onlyIfChanged {
		return os.WriteFile(path, new, 0o644)
	}
	old, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return os.WriteFile(path, new, 0o644)
		}
		return err
	}
	if bytes.Equal(bytes.TrimSpace(old), bytes.TrimSpace(new)) {
		return nil
	}
	return os.WriteFile(path, new, 0o644)
}

var (
	headingRe = regexp.MustCompile(`(?m)^#{1,6}[ \t]+(.+)$`)
	fenceRe   = regexp.MustCompile("(?s)```[a-z]*\n(.*?)```")
)

// section returns the body under the first heading matching title, up to the
// next heading. Only use it for sections without code fences, since a
// "# comment" inside a fence reads as a heading.
func section(md, title string) string {
	start := headingEnd(md, title)
	if start < 0 {
		return ""
	}
	rest := md[start:]
	if loc := headingRe.FindStringIndex(rest); loc != nil {
		rest = rest[:loc[0]]
	}
	return rest
}

// headingEnd returns the offset just past the first heading matching title,
// or -1.
func headingEnd(md, title string) int {
	for _, loc := range headingRe.FindAllStringSubmatchIndex(md, -1) {
		if strings.EqualFold(strings.TrimSpace(md[loc[2]:loc[3]]), title) {
			return loc[1]
		}
	}
	return -1
}

// shortDescription is the first paragraph of the DESCRIPTION section.
func shortDescription(md string) string {
	var parts []string
	for _, ln := range strings.Split(section(md, "description"), "\n") {
		ln = strings.TrimSpace(ln)
		if ln == "" {
			if len(parts) > 0 {
				break
			}
			continue
		}
		parts = append(parts, ln)
	}
	return strings.Join(parts, " ")
}

type example struct {
	Desc string
	Cmd  string
}

// examples reads "# description" / command pairs from the first code fence
// of the EXAMPLES section.
func examples(md string) []example {
	start := headingEnd(md, "examples")
	if start < 0 {
		return nil
	}
	m := fenceRe.FindStringSubmatch(md[start:])
	if m == nil {
		return nil
	}

	var (
		exs  []example
		desc string
	)
	for _, ln := range strings.Split(m[1], "\n") {
		s := strings.TrimSpace(ln)
		switch {
		case s == "":
			continue
		case strings.HasPrefix(s, "#"):
			desc = strings.TrimSpace(strings.TrimPrefix(s, "#"))
		default:
			if desc == "" {
				desc = "Example"
			}
			exs = append(exs, example{Desc: desc, Cmd: strings.Join(strings.Fields(s), " ")})
			desc = ""
		}
	}
	return exs
}

func buildTLDR(short string, exs []example) string {
	var b strings.Builder
	b.WriteString("# " + name + "\n\n")
	if short == "" {
		short = "Print a MacPorts cargo.crates block from Cargo.lock files."
	}
	b.WriteString("> " + short + "\n")
	b.WriteString("> More information: https://github.com/staranto/cargo2port.\n\n")

	if len(exs) == 0 {
		b.WriteString("- Show help:\n\n")
		b.WriteString("`" + name + " --help`\n")
		return b.String()
	}

	for i, ex := range exs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- " + ex.Desc + ":\n\n")
		b.WriteString("`" + ex.Cmd + "`\n")
	}
	return b.String()
}
