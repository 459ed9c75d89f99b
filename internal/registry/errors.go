// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrMissingManifest is wrapped by ArchiveError when a crate archive does not
// ship a Cargo.lock.
var ErrMissingManifest = errors.New("archive has no Cargo.lock")

// ErrUnsupportedTemplate is returned for download templates needing data we
// do not have, such as the archive checksum.
var ErrUnsupportedTemplate = errors.New("unsupported download template")

// FetchError is returned when a crate archive or registry config cannot be
// retrieved. StatusCode is set when the server answered with a non-2xx status.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to fetch %s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("failed to fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ArchiveError is returned when a crate archive cannot be decompressed or
// read, or lacks the expected Cargo.lock member.
type ArchiveError struct {
	// Crate is the name@version the archive was fetched for.
	Crate string
	Err   error
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf("invalid crate archive for %s: %v", e.Crate, e.Err)
}

func (e *ArchiveError) Unwrap() error { return e.Err }
