// Package provider holds the upstream recommendation sources. Every source
// implements Provider; the orchestrator only ever sees that interface.
//
// Constraints:
//   - GetRecommendations performs exactly one upstream call; retries belong to the caller
//   - "found nothing" is an empty list, never an error
//   - a rate-limited upstream writes its throttle flag before the error is returned
package provider

import (
	"context"
	"time"

	"flickpick-discovery-service/internal/model"
	"flickpick-discovery-service/internal/parser"

	"github.com/rs/zerolog/log"
)

// Provider is one upstream recommendation source
type Provider interface {
	Name() string
	IsAvailable(ctx context.Context) bool
	GetRecommendations(ctx context.Context, prompt string, contentTypes []model.ContentType) ([]model.RawRecommendation, error)
}

// StatusReporter is implemented by providers that can explain unavailability
type StatusReporter interface {
	Status(ctx context.Context) model.ProviderStatus
}

// FlagStore is the rate-limit state: boolean flags with a TTL
type FlagStore interface {
	GetFlag(ctx context.Context, key string) (bool, error)
	SetFlag(ctx context.Context, key string, ttl time.Duration) error
}

// DefaultThrottleTTL is how long a provider stays skipped after a 429
const DefaultThrottleTTL = 60 * time.Second

// ThrottleKey is the flag key for a provider name
func ThrottleKey(name string) string {
	return "ratelimit:" + name
}

// base carries what every generative adapter shares: identity, credential
// presence, call timeout and the throttle flag.
type base struct {
	name        string
	configured  bool
	timeout     time.Duration
	flags       FlagStore
	throttleTTL time.Duration
}

func newBase(name string, configured bool, timeout time.Duration, flags FlagStore, throttleTTL time.Duration) base {
	if throttleTTL <= 0 {
		throttleTTL = DefaultThrottleTTL
	}
	return base{
		name:        name,
		configured:  configured,
		timeout:     timeout,
		flags:       flags,
		throttleTTL: throttleTTL,
	}
}

// Name returns the provider name
func (b *base) Name() string { return b.name }

// IsAvailable is false without credentials or while throttled. It never fails.
func (b *base) IsAvailable(ctx context.Context) bool {
	return b.Status(ctx).Available
}

// Status reports availability with a reason
func (b *base) Status(ctx context.Context) model.ProviderStatus {
	status := model.ProviderStatus{Name: b.name}
	switch {
	case !b.configured:
		status.Reason = "not configured"
	case b.throttled(ctx):
		status.Reason = "rate limited"
	default:
		status.Available = true
	}
	return status
}

func (b *base) throttled(ctx context.Context) bool {
	if b.flags == nil {
		return false
	}
	limited, err := b.flags.GetFlag(ctx, ThrottleKey(b.name))
	if err != nil {
		// unknown state counts as available; a 429 will set it again
		log.Warn().Err(err).Str("provider", b.name).Msg("Failed to read throttle flag")
		return false
	}
	return limited
}

func (b *base) markThrottled(ctx context.Context) {
	if b.flags == nil {
		return
	}
	// the request context may already be done; the flag must still land
	setCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := b.flags.SetFlag(setCtx, ThrottleKey(b.name), b.throttleTTL); err != nil {
		log.Warn().Err(err).Str("provider", b.name).Msg("Failed to write throttle flag")
		return
	}
	log.Warn().Str("provider", b.name).Dur("ttl", b.throttleTTL).Msg("⏳ Provider rate limited, throttled")
}

func (b *base) notConfigured() error {
	return newError(b.name, KindConfiguration, ErrNotConfigured)
}

// withTimeout bounds one upstream call
func (b *base) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, b.timeout)
}

// fail records the throttle flag for rate-limit errors and returns err
func (b *base) fail(ctx context.Context, err error) error {
	if KindOf(err) == KindRateLimited {
		b.markThrottled(ctx)
	}
	return err
}

// finish parses model text; a parse failure degrades to an empty list
func (b *base) finish(text string, started time.Time) []model.RawRecommendation {
	recs := parser.ParseAIResponse(text)
	log.Info().
		Str("provider", b.name).
		Int("count", len(recs)).
		Int("size", len(text)).
		Dur("latency", time.Since(started)).
		Msg("🤖 Provider responded")
	return recs
}
