package runner

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/khanhnv2901/seca-stacks/internal/stacks"
)

// PageResult is the detection outcome for one target.
type PageResult struct {
	RunID      string              `json:"run_id"`
	Target     string              `json:"target"`
	URL        string              `json:"url,omitempty"`
	CheckedAt  time.Time           `json:"checked_at"`
	DurationMs float64             `json:"duration_ms"`
	Stacks     []stacks.StackEntry `json:"stacks"`
	Error      string              `json:"error,omitempty"`
}

// PageFunc navigates to url and returns its stacks. Errors mean the page
// could not be loaded at all; detection itself is best effort.
type PageFunc func(ctx context.Context, url string) ([]stacks.StackEntry, error)

// ResultFunc is invoked once per finished target, possibly concurrently.
type ResultFunc func(result PageResult)

// Runner fans independent page detections out over a bounded worker pool.
type Runner struct {
	Concurrency int           // Maximum number of pages in flight
	RateLimit   int           // Page loads per second (global), 0 disables
	Timeout     time.Duration // Timeout for each page
}

// Run detects stacks on every target and returns the results in input order.
func (r *Runner) Run(ctx context.Context, targets []string, fn PageFunc, onResult ResultFunc) []PageResult {
	concurrency := max(r.Concurrency, 1)

	var limiter *rate.Limiter
	if r.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(r.RateLimit), r.RateLimit)
	}

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	results := make([]PageResult, len(targets))

	for i, target := range targets {
		wg.Add(1)
		go func() {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			result := r.runOne(ctx, target, fn, limiter)
			if onResult != nil {
				onResult(result)
			}
			results[i] = result
		}()
	}

	wg.Wait()
	return results
}

func (r *Runner) runOne(ctx context.Context, target string, fn PageFunc, limiter *rate.Limiter) PageResult {
	result := PageResult{
		RunID:     uuid.NewString(),
		Target:    target,
		CheckedAt: time.Now().UTC(),
		Stacks:    []stacks.StackEntry{},
	}

	url, err := NormalizeTarget(target)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.URL = url

	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			result.Error = err.Error()
			return result
		}
	}

	pageCtx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		pageCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	start := time.Now()
	entries, err := fn(pageCtx, url)
	result.DurationMs = float64(time.Since(start).Microseconds()) / 1000

	if err != nil {
		result.Error = err.Error()
		return result
	}
	if entries != nil {
		result.Stacks = entries
	}
	return result
}
