package feed

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/cairnfeed/activity/internal/metrics"
)

// RetryConfig bounds the retry policy of §4.9: idempotent provider
// operations are retried with exponential backoff and jitter on transient
// TransportErrors before the error is surfaced to the caller.
type RetryConfig struct {
	MaxRetries uint64
	BaseDelay  time.Duration
}

// DefaultRetryConfig returns 3 retries starting at 25ms, doubling each time.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxRetries: 3, BaseDelay: 25 * time.Millisecond}
}

// withRetry runs fn, retrying on transient TransportErrors per cfg. A
// backoff is stateful and must be constructed fresh for each logical call.
// operation labels the retry/exhaustion metrics it emits.
func withRetry[T any](ctx context.Context, operation string, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	backoff := retry.WithMaxRetries(cfg.MaxRetries, retry.WithJitter(cfg.BaseDelay/2, retry.NewExponential(cfg.BaseDelay)))

	attempt := 0
	var result T
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if attempt > 0 {
			metrics.RecordRetryAttempt(operation)
		}
		attempt++

		v, err := fn(ctx)
		if err != nil {
			if IsTransient(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		result = v
		return nil
	})
	if err != nil && IsTransient(err) {
		metrics.RecordRetryExhausted(operation)
	}
	return result, err
}
