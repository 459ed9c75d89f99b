// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"context"
	"sync"

	"github.com/apex/log"
	"golang.org/x/sync/errgroup"

	"github.com/staranto/cargo2port/internal/lockfile"
)

// LoadAll loads every source, at most jobs at a time (unbounded when jobs is
// less than 1). Results keep the order of sources. When a source fails, the
// loads after it in argument order are cancelled and the error of the first
// failing source in argument order is returned alone. Loads before it still
// run to completion since any of them may fail too.
func LoadAll(ctx context.Context, env Env, sources []Source, jobs int) ([]*lockfile.Lockfile, error) {
	lockfiles := make([]*lockfile.Lockfile, len(sources))
	errs := make([]error, len(sources))

	ctxs := make([]context.Context, len(sources))
	cancels := make([]context.CancelFunc, len(sources))
	for i := range sources {
		ctxs[i], cancels[i] = context.WithCancel(ctx)
	}
	defer func() {
		for _, cancel := range cancels {
			cancel()
		}
	}()

	var (
		mu     sync.Mutex
		failed = len(sources)
	)
	fail := func(i int) {
		mu.Lock()
		defer mu.Unlock()
		for j := i + 1; j < failed; j++ {
			cancels[j]()
		}
		failed = min(failed, i)
	}

	var g errgroup.Group
	if jobs > 0 {
		g.SetLimit(jobs)
	}

	for i, src := range sources {
		g.Go(func() error {
			lf, err := src.Load(ctxs[i], env)
			if err != nil {
				log.WithError(err).Debugf("failed to load %s", src)
				errs[i] = err
				fail(i)
				return nil
			}
			lockfiles[i] = lf
			return nil
		})
	}
	_ = g.Wait()

	// Only sources after a failure are cancelled, so the first error is a
	// real one (or the caller's own cancellation).
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return lockfiles, nil
}
