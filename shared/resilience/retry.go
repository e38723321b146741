package resilience

import (
	"context"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"

	"pitch-pipeline/internal/models"
	"pitch-pipeline/shared/config"
)

// Do runs op with bounded exponential-backoff retries. Errors classified as
// non-retryable fail fast on the first attempt; once attempts are exhausted
// the last error is returned with its kind intact. Quota errors get a wider
// backoff curve than plain upstream failures.
func Do[T any](ctx context.Context, name string, cfg config.RetryConfig, op func(ctx context.Context) (T, error)) (T, error) {
	attempt := 0

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = cfg.BaseDelay()
	bo.MaxInterval = cfg.MaxDelay()
	bo.Multiplier = 2
	bo.MaxElapsedTime = 0 // Attempt count is the only bound.

	wrapped := func() (T, error) {
		attempt++
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}

		kind := models.KindOf(err)
		if !kind.Retryable() {
			log.Printf("%s: attempt %d failed with non-retryable %s, giving up", name, attempt, kind)
			return result, backoff.Permanent(err)
		}
		if kind == models.ErrQuotaExceeded {
			// Rate limits need more breathing room than transient
			// network failures before the next probe.
			bo.Multiplier = 4
		}

		log.Printf("%s: attempt %d failed (%s): %v", name, attempt, kind, err)
		return result, err
	}

	maxRetries := uint64(0)
	if cfg.MaxAttempts > 1 {
		maxRetries = uint64(cfg.MaxAttempts - 1)
	}

	return backoff.RetryWithData(wrapped,
		backoff.WithContext(backoff.WithMaxRetries(bo, maxRetries), ctx))
}

// Delay computes the raw exponential delay for a given attempt, capped at
// the configured ceiling. Exposed for callers that schedule their own waits.
func Delay(cfg config.RetryConfig, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := cfg.BaseDelay() << uint(attempt-1)
	if max := cfg.MaxDelay(); d > max {
		return max
	}
	return d
}
