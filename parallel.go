// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package cbt

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ParallelFor runs fn(i) for every i in [0, n), and must not return
// until every call has completed. It is the library's sole concurrency
// hook: the library does not own any goroutines beyond what a
// ParallelFor implementation spawns for the duration of a single call.
//
// fn may be called from many goroutines concurrently; it must be safe
// for that.
type ParallelFor func(n int, fn func(i int))

// defaultParallelFor spreads n independent tasks across
// runtime.GOMAXPROCS(0) worker goroutines using an errgroup, mirroring
// the reference implementation's "#pragma omp parallel for": the
// caller doesn't pick a thread count, but the whole phase is still a
// single synchronous join point.
func defaultParallelFor(n int, fn func(i int)) {
	if n <= 0 {
		return
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}

	g, _ := errgroup.WithContext(context.Background())

	chunk := (n + workers - 1) / workers
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}

		g.Go(func() error {
			for i := start; i < end; i++ {
				fn(i)
			}
			return nil
		})
	}

	// The reference implementation never fails a task; defaultParallelFor
	// has no error to propagate, it only uses errgroup for its Wait barrier.
	_ = g.Wait()
}
