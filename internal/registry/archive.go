// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"archive/tar"
	"bytes"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/apex/log"
	"github.com/klauspost/compress/gzip"

	"github.com/staranto/cargo2port/internal/lockfile"
)

// MemberName is the path of the lockfile inside a .crate archive.
func MemberName(name, version string) string {
	return name + "-" + version + "/" + lockfile.DefaultName
}

// ExtractLockfile reads the Cargo.lock shipped in a .crate archive, which is
// a gzipped tarball rooted at <name>-<version>/.
func ExtractLockfile(archive []byte, name, version string) (*lockfile.Lockfile, error) {
	crate := name + "@" + version
	want := MemberName(name, version)

	zr, err := gzip.NewReader(bytes.NewReader(archive))
	if err != nil {
		return nil, &ArchiveError{Crate: crate, Err: err}
	}
	defer zr.Close()

	tr := tar.NewReader(zr)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil, &ArchiveError{Crate: crate, Err: ErrMissingManifest}
		}
		if err != nil {
			return nil, &ArchiveError{Crate: crate, Err: err}
		}

		if hdr.Typeflag != tar.TypeReg || memberPath(hdr.Name) != want {
			continue
		}

		log.Debugf("found %s in archive for %s", hdr.Name, crate)
		return lockfile.Parse(tr, crate)
	}
}

func memberPath(name string) string {
	return path.Clean(strings.TrimPrefix(name, "./"))
}
