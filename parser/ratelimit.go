package parser

import (
	"time"
)

// RateLimiter spaces sequential operations by a fixed interval. The runner
// uses one to pace chapter downloads within a series.
//
//	limiter := parser.NewRateLimiter(time.Second)
//	defer limiter.Stop()
//	for _, ch := range chapters {
//	    // ... download chapter ...
//	    limiter.Wait()
//	}
type RateLimiter struct {
	ticker   *time.Ticker
	interval time.Duration
}

// NewRateLimiter creates a rate limiter with the given minimum interval
// between operations. Intervals of zero or less disable pacing.
func NewRateLimiter(interval time.Duration) *RateLimiter {
	rl := &RateLimiter{interval: interval}
	if interval > 0 {
		rl.ticker = time.NewTicker(interval)
	}
	return rl
}

// Wait blocks until the next tick, or returns immediately when pacing is
// disabled.
func (rl *RateLimiter) Wait() {
	if rl.ticker != nil {
		<-rl.ticker.C
	}
}

// Stop releases the underlying ticker. Typically deferred.
func (rl *RateLimiter) Stop() {
	if rl.ticker != nil {
		rl.ticker.Stop()
	}
}
