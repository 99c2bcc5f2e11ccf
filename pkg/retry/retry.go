// Package retry provides bounded re-attempt logic for transient failures,
// used for infrastructure bootstrap such as database and cache connections.
// Trigger execution retries are not driven through this package; those are
// accounted per trigger record and re-attempted on explicit caller request.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Config controls retry behaviour.
type Config struct {
	// MaxAttempts is the total number of calls including the first attempt.
	MaxAttempts int
	// BaseDelay is the base for quadratic backoff: wait = BaseDelay * attempt².
	BaseDelay time.Duration
	// OnRetry is invoked after a failed attempt, before sleeping. The attempt
	// argument is 1-indexed (1 = first attempt just failed).
	OnRetry func(attempt int, err error)
}

// Do calls fn until it succeeds, up to cfg.MaxAttempts times, sleeping
// BaseDelay*attempt² between failures. It returns nil on the first success,
// the last error once attempts are spent, or the context error if ctx ends
// mid-wait.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, lastErr)
		}

		select {
		case <-time.After(cfg.BaseDelay * time.Duration(attempt*attempt)):
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled after attempt %d: %w", attempt, ctx.Err())
		}
	}
	return lastErr
}
