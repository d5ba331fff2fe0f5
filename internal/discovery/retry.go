package discovery

import (
	"context"
	"time"

	"flickpick-discovery-service/internal/model"
	"flickpick-discovery-service/internal/provider"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
)

// RetryPolicy is exponential backoff for one provider call
type RetryPolicy struct {
	MaxRetries      uint
	InitialInterval time.Duration
	Multiplier      float64
	MaxInterval     time.Duration
}

// DefaultRetryPolicy retries twice: 500ms, then 1s, capped at 3s
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:      2,
		InitialInterval: 500 * time.Millisecond,
		Multiplier:      2,
		MaxInterval:     3 * time.Second,
	}
}

func (p RetryPolicy) backOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.Multiplier = p.Multiplier
	b.MaxInterval = p.MaxInterval
	b.RandomizationFactor = 0
	return b
}

type fetchFunc func(ctx context.Context) ([]model.RawRecommendation, error)

// run calls fetch until it succeeds, fails with a non-retryable error or
// exhausts the retries. Configuration, quota and rate-limit errors return
// immediately.
func (p RetryPolicy) run(ctx context.Context, name string, fetch fetchFunc) ([]model.RawRecommendation, error) {
	attempt := 0
	op := func() ([]model.RawRecommendation, error) {
		attempt++
		recs, err := fetch(ctx)
		if err == nil {
			return recs, nil
		}
		if !provider.IsRetryable(err) {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(p.backOff()),
		backoff.WithMaxTries(p.MaxRetries+1),
		backoff.WithNotify(func(err error, wait time.Duration) {
			retriesTotal.WithLabelValues(name).Inc()
			log.Warn().
				Err(err).
				Str("provider", name).
				Int("attempt", attempt).
				Dur("wait", wait).
				Msg("🔁 Retrying provider")
		}),
	)
}
