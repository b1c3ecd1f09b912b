package net

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vcptools/internal/domain/consts"
	"vcptools/internal/domain/errs"
	"vcptools/internal/utils/logging"
)

// Retrier retries metadata fetches with exponential backoff.
// File transfers are never retried; this wrapper exists only for
// metadata fetches (login, listings, per-work JSON).
type Retrier struct {
	MaxAttempts int
	// BackoffBase scales the 2^attempt delay. Tests shrink it.
	BackoffBase time.Duration
}

// NewRetrier returns a retrier with the default policy.
func NewRetrier() Retrier {
	return Retrier{
		MaxAttempts: consts.MetaMaxAttempts,
		BackoffBase: consts.MetaBackoffBase,
	}
}

// Fetch runs fn up to MaxAttempts times. An empty or error response
// triggers another attempt after a 2^attempt backoff; a malformed
// response does not. Exhaustion surfaces one aggregated error naming
// the last cause.
func (r Retrier) Fetch(ctx context.Context, op string, fn func() (FetchResult, error)) (FetchResult, error) {
	var lastErr error

	for attempt := 1; attempt <= r.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := r.BackoffBase * (1 << (attempt - 1))
			logging.D(1, "%s: retrying in %v (attempt %d/%d)", op, delay, attempt, r.MaxAttempts)

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return FetchResult{}, ctx.Err()
			}
		}

		res, err := fn()
		if err != nil {
			if errors.Is(err, errs.ErrMalformedInput) {
				return FetchResult{}, err
			}
			lastErr = err
			continue
		}

		if res.StatusCode >= 500 || res.Body == "" {
			lastErr = fmt.Errorf("empty or error response (HTTP %d)", res.StatusCode)
			continue
		}

		return res, nil
	}

	return FetchResult{}, fmt.Errorf("%s failed after %d attempts: %w", op, r.MaxAttempts, lastErr)
}
