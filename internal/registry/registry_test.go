// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package registry

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/cargo2port/internal/cacheutil"
	"github.com/staranto/cargo2port/internal/lockfile"
)

const crateLock = `version = 3

[[package]]
name = "ripgrep"
version = "14.1.0"
dependencies = ["memchr"]

[[package]]
name = "memchr"
version = "2.7.1"
source = "registry+https://github.com/rust-lang/crates.io-index"
checksum = "523dc4f511e55ab87b694dc30d0f820d60906ef06413f93d4d7a1385599cc149"
`

// buildCrate returns a gzipped tarball holding files, in order.
func buildCrate(t *testing.T, files map[string]string, order ...string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(zw)
	for _, name := range order {
		body := files[name]
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Mode:     0o644,
			Size:     int64(len(body)),
			Typeflag: tar.TypeReg,
		}))
		_, err := io.WriteString(tw, body)
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func ripgrepCrate(t *testing.T) []byte {
	return buildCrate(t, map[string]string{
		"ripgrep-14.1.0/Cargo.toml":        "[package]\nname = \"ripgrep\"\n",
		"ripgrep-14.1.0/vendor/Cargo.lock": "not = [the one",
		"./ripgrep-14.1.0/Cargo.lock":      crateLock,
		"ripgrep-14.1.0/src/main.rs":       "fn main() {}\n",
	}, "ripgrep-14.1.0/Cargo.toml", "ripgrep-14.1.0/vendor/Cargo.lock", "./ripgrep-14.1.0/Cargo.lock", "ripgrep-14.1.0/src/main.rs")
}

func TestExtractLockfile(t *testing.T) {
	lf, err := ExtractLockfile(ripgrepCrate(t), "ripgrep", "14.1.0")
	require.NoError(t, err)

	assert.Equal(t, "ripgrep@14.1.0", lf.Source)
	require.Len(t, lf.Packages, 2)
	assert.Equal(t, "memchr", lf.Packages[1].Name)
}

func TestExtractLockfile_Errors(t *testing.T) {
	noLock := buildCrate(t, map[string]string{
		"tiny-0.1.0/Cargo.toml": "[package]\n",
	}, "tiny-0.1.0/Cargo.toml")

	wrongRoot := buildCrate(t, map[string]string{
		"tiny-0.2.0/Cargo.lock": crateLock,
	}, "tiny-0.2.0/Cargo.lock")

	badLock := buildCrate(t, map[string]string{
		"tiny-0.1.0/Cargo.lock": "[[package]\n",
	}, "tiny-0.1.0/Cargo.lock")

	tests := []struct {
		name        string
		archive     []byte
		wantMissing bool
		wantParse   bool
	}{
		{name: "no lockfile", archive: noLock, wantMissing: true},
		{name: "lockfile of another version", archive: wrongRoot, wantMissing: true},
		{name: "not gzip", archive: []byte("PK\x03\x04 zip, not a crate")},
		{name: "truncated", archive: noLock[:len(noLock)/2]},
		{name: "empty", archive: nil},
		{name: "malformed lockfile", archive: badLock, wantParse: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lf, err := ExtractLockfile(tt.archive, "tiny", "0.1.0")
			require.Error(t, err)
			assert.Nil(t, lf)

			if tt.wantParse {
				var pe *lockfile.ParseError
				require.ErrorAs(t, err, &pe)
				assert.Equal(t, "tiny@0.1.0", pe.Source)
				return
			}

			var ae *ArchiveError
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, "tiny@0.1.0", ae.Crate)
			assert.Equal(t, tt.wantMissing, errors.Is(err, ErrMissingManifest))
		})
	}
}

func TestExpandTemplate(t *testing.T) {
	tests := []struct {
		tmpl    string
		name    string
		want    string
		wantErr bool
	}{
		{
			tmpl: "https://static.crates.io/crates",
			name: "serde",
			want: "https://static.crates.io/crates/serde/1.0.0/download",
		},
		{
			tmpl: "https://crates.io/api/v1/crates/",
			name: "serde",
			want: "https://crates.io/api/v1/crates/serde/1.0.0/download",
		},
		{
			tmpl: "https://mirror.example/{crate}/{crate}-{version}.crate",
			name: "serde",
			want: "https://mirror.example/serde/serde-1.0.0.crate",
		},
		{
			tmpl: "https://mirror.example/{prefix}/{crate}",
			name: "Inflector",
			want: "https://mirror.example/In/fl/Inflector",
		},
		{
			tmpl: "https://mirror.example/{lowerprefix}/{crate}",
			name: "Inflector",
			want: "https://mirror.example/in/fl/Inflector",
		},
		{
			tmpl: "https://mirror.example/{prefix}/{crate}",
			name: "syn",
			want: "https://mirror.example/3/s/syn",
		},
		{
			tmpl:    "https://mirror.example/{sha256-checksum}",
			name:    "serde",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.tmpl, func(t *testing.T) {
			got, err := ExpandTemplate(tt.tmpl, tt.name, "1.0.0")
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedTemplate)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIndexPrefix(t *testing.T) {
	for name, want := range map[string]string{
		"":       "",
		"a":      "1",
		"cc":     "2",
		"syn":    "3/s",
		"log":    "3/l",
		"serde":  "se/rd",
		"memchr": "me/mc",
	} {
		assert.Equal(t, want, IndexPrefix(name), name)
	}
}

// registryServer serves a sparse index config.json and crate downloads.
type registryServer struct {
	*httptest.Server
	crates    map[string][]byte
	downloads atomic.Int32
	configs   atomic.Int32
}

func newRegistryServer(t *testing.T, crates map[string][]byte) *registryServer {
	t.Helper()

	rs := &registryServer{crates: crates}
	mux := http.NewServeMux()
	mux.HandleFunc("/index/config.json", func(w http.ResponseWriter, r *http.Request) {
		rs.configs.Add(1)
		_, _ = io.WriteString(w, `{"dl": "`+rs.URL+`/api/v1/crates", "api": "`+rs.URL+`"}`)
	})
	mux.HandleFunc("/api/v1/crates/{name}/{version}/download", func(w http.ResponseWriter, r *http.Request) {
		rs.downloads.Add(1)
		body, ok := rs.crates[r.PathValue("name")+"@"+r.PathValue("version")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(body)
	})
	mux.HandleFunc("/broken/config.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"api": "nowhere"}`)
	})
	rs.Server = httptest.NewServer(mux)
	t.Cleanup(rs.Close)
	return rs
}

func noCache(t *testing.T) {
	t.Setenv(cacheutil.EnvDir, t.TempDir())
	t.Setenv(cacheutil.EnvEnabled, "false")
}

func TestClient_Lockfile(t *testing.T) {
	noCache(t)
	rs := newRegistryServer(t, map[string][]byte{"ripgrep@14.1.0": ripgrepCrate(t)})

	c := New(WithIndexURL("sparse+"+rs.URL+"/index/"), WithRetries(0))

	lf, err := c.Lockfile(context.Background(), "ripgrep", "14.1.0")
	require.NoError(t, err)
	require.Len(t, lf.Packages, 2)

	u, err := c.DownloadURL(context.Background(), "ripgrep", "14.1.0")
	require.NoError(t, err)
	assert.Equal(t, rs.URL+"/api/v1/crates/ripgrep/14.1.0/download", u)
	assert.EqualValues(t, 1, rs.configs.Load(), "config.json is read once")
}

func TestClient_FetchErrors(t *testing.T) {
	noCache(t)
	rs := newRegistryServer(t, map[string][]byte{})

	t.Run("not found", func(t *testing.T) {
		c := New(WithIndexURL(rs.URL+"/index"), WithRetries(0))
		_, err := c.Lockfile(context.Background(), "nope", "1.0.0")

		var fe *FetchError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, http.StatusNotFound, fe.StatusCode)
		assert.Contains(t, err.Error(), "404 Not Found")
	})

	t.Run("config without dl", func(t *testing.T) {
		c := New(WithIndexURL(rs.URL+"/broken/"), WithRetries(0))
		_, err := c.Fetch(context.Background(), "nope", "1.0.0")

		var fe *FetchError
		require.ErrorAs(t, err, &fe)
		assert.Contains(t, err.Error(), "no dl entry")
	})

	t.Run("unreachable", func(t *testing.T) {
		c := New(WithDownloadURL("http://127.0.0.1:1/crates"), WithRetries(0))
		_, err := c.Fetch(context.Background(), "nope", "1.0.0")

		var fe *FetchError
		require.ErrorAs(t, err, &fe)
		assert.Zero(t, fe.StatusCode)
		assert.Equal(t, "http://127.0.0.1:1/crates/nope/1.0.0/download", fe.URL)
	})
}

func TestClient_RetriesServerErrors(t *testing.T) {
	noCache(t)
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	c := New(WithDownloadURL(srv.URL), WithRetries(2), WithRetryWait(time.Millisecond, 5*time.Millisecond))
	_, err := c.Fetch(context.Background(), "foo", "1.0.0")

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusBadGateway, fe.StatusCode)
	assert.EqualValues(t, 3, calls.Load())
}

func TestClient_Cache(t *testing.T) {
	t.Setenv(cacheutil.EnvDir, t.TempDir())
	t.Setenv(cacheutil.EnvEnabled, "")
	rs := newRegistryServer(t, map[string][]byte{"ripgrep@14.1.0": ripgrepCrate(t)})

	c := New(WithDownloadURL(rs.URL+"/api/v1/crates"), WithRetries(0))
	first, err := c.Fetch(context.Background(), "ripgrep", "14.1.0")
	require.NoError(t, err)

	second, err := c.Fetch(context.Background(), "ripgrep", "14.1.0")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, rs.downloads.Load(), "second fetch is served from cache")

	uncached := New(WithDownloadURL(rs.URL+"/api/v1/crates"), WithRetries(0), WithCache(false))
	_, err = uncached.Fetch(context.Background(), "ripgrep", "14.1.0")
	require.NoError(t, err)
	assert.EqualValues(t, 2, rs.downloads.Load())
}

type fakeS3 struct {
	objects map[string][]byte
	keys    []string
}

func (f *fakeS3) GetObject(_ context.Context, in *s3v2.GetObjectInput, _ ...func(*s3v2.Options)) (*s3v2.GetObjectOutput, error) {
	key := *in.Bucket + "/" + *in.Key
	f.keys = append(f.keys, key)
	body, ok := f.objects[key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3v2.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

func TestClient_S3Mirror(t *testing.T) {
	noCache(t)
	s3 := &fakeS3{objects: map[string][]byte{
		"mirror/crates/ripgrep/ripgrep-14.1.0.crate": ripgrepCrate(t),
	}}

	c := New(WithDownloadURL("s3://mirror/crates/"), WithS3Client(s3))

	lf, err := c.Lockfile(context.Background(), "ripgrep", "14.1.0")
	require.NoError(t, err)
	assert.Len(t, lf.Packages, 2)

	_, err = c.Lockfile(context.Background(), "missing", "0.1.0")
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusNotFound, fe.StatusCode)
	assert.Equal(t, "s3://mirror/crates/missing/missing-0.1.0.crate", fe.URL)

	assert.Equal(t, []string{
		"mirror/crates/ripgrep/ripgrep-14.1.0.crate",
		"mirror/crates/missing/missing-0.1.0.crate",
	}, s3.keys)
}
