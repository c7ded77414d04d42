package workflow

import (
	"context"
	"math"
	"time"

	"github.com/vithaluntold/rai-compliance-client/internal/infra/api"
)

// RetryConfig defines retry behavior for a single network operation.
// A call-scoped override never mutates the default.
type RetryConfig struct {
	MaxRetries    int           `yaml:"max_retries"`
	BaseDelay     time.Duration `yaml:"base_delay"`
	MaxDelay      time.Duration `yaml:"max_delay"`
	BackoffFactor float64       `yaml:"backoff_factor"`
}

// DefaultRetryConfig provides sensible defaults.
var DefaultRetryConfig = RetryConfig{
	MaxRetries:    3,
	BaseDelay:     1 * time.Second,
	MaxDelay:      10 * time.Second,
	BackoffFactor: 2.0,
}

// SleepFunc suspends until the duration elapses or ctx is done. Injectable
// so tests can simulate time without real delays.
type SleepFunc func(ctx context.Context, d time.Duration) error

// DefaultSleep is a context-aware time.After wait.
func DefaultSleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// RetryCallback is notified that a retry is pending. attempt is the number
// of the attempt that just failed, starting at 1.
type RetryCallback func(attempt int, delay time.Duration, err *api.Error)

// WithRetry attempts op, classifying each failure. Non-retryable errors and
// exhausted ceilings surface immediately; otherwise it waits a capped
// exponential backoff and tries again. MaxRetries=0 means try exactly once.
// The engine knows nothing about what op does, only whether its failures
// are retryable.
func WithRetry[T any](
	ctx context.Context,
	cfg RetryConfig,
	sleep SleepFunc,
	onRetry RetryCallback,
	op func(ctx context.Context) (T, error),
) (T, error) {
	var zero T
	if sleep == nil {
		sleep = DefaultSleep
	}

	for attempt := 0; ; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}

		apiErr := api.Classify(err)
		if !apiErr.Retryable || attempt == cfg.MaxRetries {
			return zero, apiErr
		}

		delay := Backoff(cfg, attempt)
		if onRetry != nil {
			onRetry(attempt+1, delay, apiErr)
		}
		if err := sleep(ctx, delay); err != nil {
			return zero, api.Classify(err)
		}
	}
}

// Backoff computes the delay before retrying after the given zero-based
// attempt: BaseDelay * BackoffFactor^attempt, capped at MaxDelay. Pure
// exponential, no jitter.
func Backoff(cfg RetryConfig, attempt int) time.Duration {
	delay := float64(cfg.BaseDelay) * math.Pow(cfg.BackoffFactor, float64(attempt))
	if delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	return time.Duration(delay)
}
