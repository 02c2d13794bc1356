package paas

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
)

// RetryPolicy bounds the retry loop for transient platform errors:
// exponential backoff from BaseDelay, capped at MaxDelay per step, abandoned
// once Budget of wall-clock time has elapsed.
type RetryPolicy struct {
	Budget    time.Duration
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// DefaultRetryPolicy matches the platform's observed cooldown behavior:
// mutations can be blocked for a couple of minutes after a previous one.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Budget:    3 * time.Minute,
		BaseDelay: 5 * time.Second,
		MaxDelay:  20 * time.Second,
	}
}

// Do runs fn, retrying transient platform errors within the policy's
// budget. Non-transient errors propagate immediately. When the budget runs
// out the last transient error is returned as a terminal failure.
func (p RetryPolicy) Do(ctx context.Context, logger zerolog.Logger, label string, fn func(context.Context) error) error {
	backoff := retry.WithMaxDuration(p.Budget,
		retry.WithCappedDuration(p.MaxDelay, retry.NewExponential(p.BaseDelay)))

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if IsTransient(err) {
			logger.Warn().Str("call", label).Int("attempt", attempt).Err(err).
				Msg("platform call blocked, retrying")
			return retry.RetryableError(err)
		}
		return err
	})
	if err == nil {
		return nil
	}
	if IsTransient(err) {
		return fmt.Errorf("%s: retry budget exhausted after %d attempts: %w", label, attempt, err)
	}
	return fmt.Errorf("%s: %w", label, err)
}
