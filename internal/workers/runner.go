// Package workers runs page jobs on a bounded pool of goroutines and
// funnels their outcomes to a single consumer.
package workers

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
)

// WorkerFunc processes one item.
type WorkerFunc[T any, R any] func(ctx context.Context, item T) (R, error)

// RunnerConfig configures the concurrent runner
type RunnerConfig struct {
	MaxConcurrency int          // 0 means runtime.NumCPU()
	LogPrefix      string       // Added to every log record as "runner"
	Logger         *slog.Logger // Defaults to slog.Default()
}

// Runner encapsulates concurrent processing with channels and wait groups
type Runner[T any, R any] struct {
	config RunnerConfig
}

// NewRunner creates a new concurrent runner with the given configuration
func NewRunner[T any, R any](config RunnerConfig) *Runner[T, R] {
	if config.LogPrefix == "" {
		config.LogPrefix = "runner"
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = runtime.NumCPU()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Runner[T, R]{config: config}
}

// Concurrency returns the worker limit.
func (r *Runner[T, R]) Concurrency() int {
	return r.config.MaxConcurrency
}

// RunResult contains the results of a concurrent run
type RunResult[R any] struct {
	Results []R
	Errors  []error
	Skipped int // Items never started because the context ended
}

type outcome[T any, R any] struct {
	item   T
	result R
	err    error
}

// Run executes the worker for each item and collects the outcomes.
func (r *Runner[T, R]) Run(ctx context.Context, items []T, worker WorkerFunc[T, R]) RunResult[R] {
	res := RunResult[R]{Results: []R{}, Errors: []error{}}
	res.Skipped = r.RunWithCallbacks(ctx, items, worker,
		func(_ T, v R) { res.Results = append(res.Results, v) },
		func(_ T, err error) { res.Errors = append(res.Errors, err) },
	)
	return res
}

// RunWithCallbacks executes the worker for each item, at most
// MaxConcurrency at a time, and hands every outcome to onResult or
// onError. The callbacks run on one goroutine, one at a time, in
// completion order, so they may touch shared state without locking.
//
// Once ctx is done no new items are started; items already running are
// allowed to finish and their outcomes are still delivered. It returns
// the number of items that were never started.
func (r *Runner[T, R]) RunWithCallbacks(
	ctx context.Context,
	items []T,
	worker WorkerFunc[T, R],
	onResult func(T, R),
	onError func(T, error),
) int {
	if len(items) == 0 {
		return 0
	}

	logger := r.config.Logger.With("runner", r.config.LogPrefix)

	// Single consumer for all outcomes
	outcomes := make(chan outcome[T, R])
	var consumerWG sync.WaitGroup
	consumerWG.Add(1)
	go func() {
		defer consumerWG.Done()
		for o := range outcomes {
			if o.err != nil {
				if onError != nil {
					onError(o.item, o.err)
				}
				continue
			}
			if onResult != nil {
				onResult(o.item, o.result)
			}
		}
	}()

	// Throttle channel for limiting concurrency
	throttle := make(chan struct{}, r.config.MaxConcurrency)

	var workersWG sync.WaitGroup
	started := 0
dispatch:
	for _, item := range items {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break dispatch
		case throttle <- struct{}{}:
		}

		started++
		workersWG.Add(1)
		go func(item T) {
			defer workersWG.Done()
			defer func() { <-throttle }()

			v, err := worker(ctx, item)
			outcomes <- outcome[T, R]{item: item, result: v, err: err}
		}(item)
	}

	workersWG.Wait()
	close(outcomes)
	consumerWG.Wait()

	skipped := len(items) - started
	if skipped > 0 {
		logger.Info("workers.cancelled", "started", started, "skipped", skipped)
	}
	return skipped
}
