// Package download retrieves chapter images to disk with bounded
// concurrency, per-task retry and idempotent skip of existing files.
package download

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"toonpull/config"
	"toonpull/fetcher"
	"toonpull/parser"
)

// renderWorkerCeiling caps concurrency while a shared browser context is
// active; Chrome does not tolerate the full worker budget.
const renderWorkerCeiling = 2

// Task is one image to fetch: its 1-based page index, source URL,
// destination path and the chapter URL used as Referer.
type Task struct {
	Page    int
	URL     string
	Dest    string
	Referer string
}

// Engine downloads a chapter's task list. A fresh Engine value is used per
// chapter; only the Fetcher, RunState and worker budget are shared.
type Engine struct {
	Fetcher    fetcher.Fetcher
	State      *config.RunState
	MaxWorkers int
	Rendering  bool

	// delay before the single per-task retry, lowered in tests
	retryDelay time.Duration
}

func NewEngine(f fetcher.Fetcher, state *config.RunState, maxWorkers int, rendering bool) *Engine {
	return &Engine{
		Fetcher:    f,
		State:      state,
		MaxWorkers: maxWorkers,
		Rendering:  rendering,
		retryDelay: 2 * time.Second,
	}
}

// Run executes the task list and returns how many tasks succeeded and how
// many were attempted. Page ordinals are fixed before dispatch, so output
// filenames are stable regardless of completion order. Once an interrupt is
// observed no new tasks start; in-flight tasks finish so no file is left
// half-written.
func (e *Engine) Run(ctx context.Context, tasks []Task) (succeeded, attempted int) {
	if len(tasks) == 0 {
		return 0, 0
	}

	workers := e.MaxWorkers
	if workers > len(tasks) {
		workers = len(tasks)
	}
	if workers < 1 {
		workers = 1
	}
	if e.Rendering && workers > renderWorkerCeiling {
		workers = renderWorkerCeiling
	}

	var okCount atomic.Int64

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)

	for _, task := range tasks {
		if e.State.Interrupted() {
			break
		}
		attempted++

		group.Go(func() error {
			if err := e.runTask(groupCtx, task); err != nil {
				log.Printf("[Download] ✗ Page %d failed (%s): %v", task.Page, task.URL, err)
				return nil
			}
			okCount.Add(1)
			return nil
		})
	}

	_ = group.Wait()
	return int(okCount.Load()), attempted
}

// runTask downloads one image, retrying once after a short delay. An
// existing destination file counts as success without touching the network.
func (e *Engine) runTask(ctx context.Context, task Task) error {
	if _, err := os.Stat(task.Dest); err == nil {
		return nil
	}

	headers := fetcher.AssetHeaders(task.Referer)

	data, err := e.Fetcher.FetchAsset(ctx, task.URL, headers)
	if err != nil {
		select {
		case <-time.After(e.retryDelay):
		case <-ctx.Done():
			return ctx.Err()
		}

		data, err = e.Fetcher.FetchAsset(ctx, task.URL, headers)
		if err != nil {
			return fmt.Errorf("fetch failed after retry: %w", err)
		}
	}

	if err := parser.SaveAsJPEG(data, task.Dest); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}
