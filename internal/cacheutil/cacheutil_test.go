// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package cacheutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/cargo2port/internal/config"
)

func TestDir(t *testing.T) {
	t.Setenv(EnvDir, "/tmp/somewhere")
	dir, ok := Dir()
	assert.True(t, ok)
	assert.Equal(t, "/tmp/somewhere", dir)

	t.Setenv(EnvDir, "")
	t.Setenv(config.EnvPath, filepath.Join(t.TempDir(), "none.yaml"))
	config.Config = config.Type{}
	t.Cleanup(func() { config.Config = config.Type{} })
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	t.Setenv("HOME", "/tmp/home")
	dir, ok = Dir()
	assert.True(t, ok)
	assert.Equal(t, "cargo2port", filepath.Base(dir))
}

func TestDir_Config(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "cargo2port.yaml")
	t.Setenv(config.EnvPath, cfg)
	config.Config = config.Type{}
	t.Cleanup(func() { config.Config = config.Type{} })

	require.NoError(t, os.WriteFile(cfg, []byte("cache:\n  dir: /tmp/from-config\n"), 0o600))

	t.Setenv(EnvDir, "")
	dir, ok := Dir()
	assert.True(t, ok)
	assert.Equal(t, "/tmp/from-config", dir)

	t.Setenv(EnvDir, "/tmp/from-env")
	dir, ok = Dir()
	assert.True(t, ok)
	assert.Equal(t, "/tmp/from-env", dir, "environment wins over config")

	require.NoError(t, os.WriteFile(cfg, []byte("cache:\n  dir: 42\n"), 0o600))
	config.Config = config.Type{}
	t.Setenv(EnvDir, "")
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	t.Setenv("HOME", "/tmp/home")
	dir, ok = Dir()
	assert.True(t, ok)
	assert.Equal(t, "cargo2port", filepath.Base(dir), "a non-string value is ignored")
}

func TestEnabled(t *testing.T) {
	for value, want := range map[string]bool{"": true, "1": true, "true": true, "0": false, "false": false} {
		t.Run(value, func(t *testing.T) {
			t.Setenv(EnvEnabled, value)
			assert.Equal(t, want, Enabled())
		})
	}
}

func TestWriteRead(t *testing.T) {
	t.Setenv(EnvDir, t.TempDir())
	t.Setenv(EnvEnabled, "")

	subdirs := []string{"crates", "static.crates.io"}
	key := "https://static.crates.io/crates/foo/1.0.0/download"
	data := []byte{0x1f, 0x8b, 0x08, 0x00, '\n', ' '}

	_, ok := Read(subdirs, key)
	assert.False(t, ok, "nothing cached yet")

	require.NoError(t, Write(subdirs, key, data))

	entry, ok := Read(subdirs, key)
	require.True(t, ok)
	assert.Equal(t, key, entry.Key)
	assert.Equal(t, encodeKey(key), entry.EncodedKey)
	assert.Equal(t, data, entry.Data, "binary data is not trimmed")

	p, exists := EntryPath(subdirs, key)
	assert.True(t, exists)
	assert.Equal(t, entry.Path, p)

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(p), "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestWriteRead_Disabled(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvDir, dir)
	t.Setenv(EnvEnabled, "false")

	require.NoError(t, Write([]string{"crates"}, "k", []byte("v")))
	_, ok := Read([]string{"crates"}, "k")
	assert.False(t, ok)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "disabled cache writes nothing")

	_, usable, err := EnsureBaseDir()
	assert.NoError(t, err)
	assert.False(t, usable)
}

func TestEnsureBaseDir(t *testing.T) {
	base := filepath.Join(t.TempDir(), "nested", "cache")
	t.Setenv(EnvDir, base)
	t.Setenv(EnvEnabled, "")

	got, usable, err := EnsureBaseDir()
	require.NoError(t, err)
	assert.True(t, usable)
	assert.Equal(t, base, got)
	assert.DirExists(t, base)
}

func TestPurge(t *testing.T) {
	t.Setenv(EnvDir, t.TempDir())
	t.Setenv(EnvEnabled, "")

	require.NoError(t, Write([]string{"crates"}, "old", []byte("old")))
	require.NoError(t, Write([]string{"crates"}, "new", []byte("new")))

	oldPath, _ := EntryPath([]string{"crates"}, "old")
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(oldPath, past, past))

	require.NoError(t, Purge(0), "disabled purge is a no-op")
	_, ok := Read([]string{"crates"}, "old")
	assert.True(t, ok)

	require.NoError(t, Purge(24))
	_, ok = Read([]string{"crates"}, "old")
	assert.False(t, ok)
	_, ok = Read([]string{"crates"}, "new")
	assert.True(t, ok)
}

func TestPurge_MissingDir(t *testing.T) {
	t.Setenv(EnvDir, filepath.Join(t.TempDir(), "never-created"))
	assert.NoError(t, Purge(1))
}
