// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package concurrent

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// WorkerPool runs batches of jobs with a bounded number of goroutines.
type WorkerPool struct {
	workerCount int
}

// NewWorkerPool creates a new worker pool with the specified number of workers
func NewWorkerPool(workerCount int) *WorkerPool {
	if workerCount <= 0 {
		workerCount = 1
	}
	return &WorkerPool{
		workerCount: workerCount,
	}
}

// Run executes the jobs and returns the first error. Remaining jobs that have
// not started yet are skipped once a job fails or ctx is cancelled.
func (wp *WorkerPool) Run(ctx context.Context, jobs ...func(context.Context) error) error {
	if len(jobs) == 0 {
		return nil
	}

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(wp.workerCount)

	for _, job := range jobs {
		g.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			return job(groupCtx)
		})
	}

	return g.Wait()
}

// RunAll executes every job regardless of failures and returns the non-nil
// errors. A job that could not start because ctx was done reports ctx.Err().
func (wp *WorkerPool) RunAll(ctx context.Context, jobs ...func(context.Context) error) []error {
	if len(jobs) == 0 {
		return nil
	}

	var (
		mu   sync.Mutex
		errs []error
	)
	record := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	g := new(errgroup.Group)
	g.SetLimit(wp.workerCount)

	for _, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				record(err)
				return nil
			}
			if err := job(ctx); err != nil {
				record(err)
			}
			return nil
		})
	}

	_ = g.Wait()
	return errs
}

// ForEach runs fn for every item through the pool, collecting failures like RunAll.
func ForEach[T any](ctx context.Context, wp *WorkerPool, items []T, fn func(context.Context, T) error) []error {
	jobs := make([]func(context.Context) error, 0, len(items))
	for _, item := range items {
		jobs = append(jobs, func(ctx context.Context) error {
			return fn(ctx, item)
		})
	}
	return wp.RunAll(ctx, jobs...)
}
