// Package validate runs the optional reachability pass over extracted image
// candidates before they become download tasks.
package validate

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"

	"toonpull/config"
	"toonpull/fetcher"
)

// Filter probes candidate URLs across a bounded worker pool and returns the
// ones that look retrievable, preserving input order. Probes started before
// an interrupt finish naturally; no new probes begin after the flag is
// observed. Validation is advisory: callers that skip it pass candidates
// through untouched.
func Filter(ctx context.Context, f fetcher.Fetcher, state *config.RunState, urls []string, referer string, maxWorkers int) []string {
	if len(urls) == 0 {
		return nil
	}

	workers := maxWorkers
	if workers > len(urls) {
		workers = len(urls)
	}
	if workers < 1 {
		workers = 1
	}

	headers := fetcher.AssetHeaders(referer)
	alive := make([]bool, len(urls))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)

	for i, candidate := range urls {
		if state.Interrupted() {
			break
		}

		group.Go(func() error {
			if state.Interrupted() {
				return nil
			}
			alive[i] = f.Probe(groupCtx, candidate, headers)
			return nil
		})
	}

	// Probe goroutines never return errors.
	_ = group.Wait()

	valid := make([]string, 0, len(urls))
	for i, candidate := range urls {
		if alive[i] {
			valid = append(valid, candidate)
		}
	}

	if dropped := len(urls) - len(valid); dropped > 0 {
		log.Printf("[Validate] ⚠️ Dropped %d of %d candidates for %s", dropped, len(urls), referer)
	}
	return valid
}
