package recovery

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/voxpilot/voxpilot/internal/config"
	"github.com/voxpilot/voxpilot/internal/platform"
)

// Policy bounds a retry loop. The delay before attempt n (0-indexed) is
// min(BaseDelay * BackoffFactor^n, MaxDelay).
type Policy struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// PolicyFromConfig converts the loaded recovery configuration to a Policy.
func PolicyFromConfig(cfg config.RecoveryConfig) Policy {
	return Policy{
		MaxAttempts:   cfg.MaxAttempts,
		BaseDelay:     cfg.BaseDelay,
		MaxDelay:      cfg.MaxDelay,
		BackoffFactor: cfg.BackoffFactor,
	}
}

// Do runs op with bounded exponential-backoff retry. Only transient errors
// (platform.IsTransient) are retried; permanent errors return immediately.
// After MaxAttempts the last error is surfaced unchanged.
func Do[T any](ctx context.Context, pol Policy, log *zap.Logger, op func(ctx context.Context) (T, error)) (T, error) {
	var result T

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = pol.BaseDelay
	b.MaxInterval = pol.MaxDelay
	b.Multiplier = pol.BackoffFactor
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0

	attempt := 0
	wrapped := func() error {
		attempt++
		r, err := op(ctx)
		if err == nil {
			result = r
			return nil
		}
		if !platform.IsTransient(err) {
			return backoff.Permanent(err)
		}
		log.Debug("transient failure, will retry",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", pol.MaxAttempts),
			zap.Error(err))
		return err
	}

	maxRetries := uint64(0)
	if pol.MaxAttempts > 1 {
		maxRetries = uint64(pol.MaxAttempts - 1)
	}
	err := backoff.Retry(wrapped, backoff.WithContext(backoff.WithMaxRetries(b, maxRetries), ctx))
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
