// Package discovery turns a free-text prompt into catalog-backed
// recommendations by walking an ordered provider chain.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"flickpick-discovery-service/internal/intent"
	"flickpick-discovery-service/internal/model"
	"flickpick-discovery-service/internal/provider"

	"github.com/rs/zerolog/log"
)

// Recorder persists provider outcomes for analytics
type Recorder interface {
	RecordProviderOutcome(ctx context.Context, provider, outcome string) error
}

// Engine is the orchestrator. Providers are tried strictly in order, one at a
// time; the first one whose recommendations resolve in the catalog wins.
type Engine struct {
	providers []provider.Provider
	enricher  *Enricher
	retry     RetryPolicy
	recorder  Recorder
	now       func() time.Time
}

// Option configures an Engine
type Option func(*Engine)

// WithRetryPolicy overrides the default retry policy
func WithRetryPolicy(p RetryPolicy) Option {
	return func(e *Engine) { e.retry = p }
}

// WithRecorder records provider outcomes
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// NewEngine creates an Engine over providers in priority order
func NewEngine(providers []provider.Provider, enricher *Enricher, opts ...Option) *Engine {
	e := &Engine{
		providers: providers,
		enricher:  enricher,
		retry:     DefaultRetryPolicy(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Providers returns the chain in priority order
func (e *Engine) Providers() []provider.Provider {
	return e.providers
}

// Discover runs the provider chain. It fails only with an
// *AllProvidersFailedError once every provider is exhausted.
func (e *Engine) Discover(ctx context.Context, prompt string, contentTypes []model.ContentType, excludeIDs []int) (*model.DiscoveryResult, error) {
	started := e.now()
	filter := Filter{
		ExcludeIDs:   make(map[int]struct{}, len(excludeIDs)),
		ContentTypes: contentTypes,
		Intent:       intent.ParseAt(prompt, contentTypes, started),
	}
	for _, id := range excludeIDs {
		filter.ExcludeIDs[id] = struct{}{}
	}

	var (
		attempts []Attempt
		lastErr  error
	)
	note := func(name, outcome string, err error) {
		a := Attempt{Provider: name, Outcome: outcome}
		if err != nil {
			a.Error = err.Error()
			lastErr = err
		}
		attempts = append(attempts, a)
		e.record(ctx, name, outcome)
	}

	for i, p := range e.providers {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}
		name := p.Name()

		if !p.IsAvailable(ctx) {
			log.Info().Str("provider", name).Msg("⏭️  Provider unavailable, skipping")
			note(name, OutcomeSkipped, nil)
			continue
		}

		raw, err := e.retry.run(ctx, name, func(ctx context.Context) ([]model.RawRecommendation, error) {
			return p.GetRecommendations(ctx, prompt, contentTypes)
		})
		if err != nil {
			if provider.KindOf(err) == provider.KindParse {
				log.Warn().Err(err).Str("provider", name).Msg("Provider response unusable")
				note(name, OutcomeEmpty, err)
				continue
			}
			log.Warn().
				Err(err).
				Str("provider", name).
				Str("kind", string(provider.KindOf(err))).
				Msg("❌ Provider failed")
			note(name, OutcomeError, err)
			continue
		}
		if len(raw) == 0 {
			log.Info().Str("provider", name).Msg("Provider returned no recommendations")
			note(name, OutcomeEmpty, fmt.Errorf("%s: %w", name, ErrEmptyResult))
			continue
		}

		results := e.enricher.Enrich(ctx, raw, filter)
		if len(results) == 0 {
			log.Info().Str("provider", name).Int("raw", len(raw)).Msg("No recommendation matched the catalog")
			note(name, OutcomeNoMatch, fmt.Errorf("%s: %w", name, ErrNoMatch))
			continue
		}

		note(name, OutcomeSuccess, nil)
		discoveryDuration.WithLabelValues(OutcomeSuccess).Observe(time.Since(started).Seconds())
		log.Info().
			Str("provider", name).
			Int("raw", len(raw)).
			Int("results", len(results)).
			Bool("fallback", i > 0).
			Dur("latency", time.Since(started)).
			Msg("✅ Discovery complete")

		return &model.DiscoveryResult{
			Results:      results,
			ProviderName: name,
			IsFallback:   i > 0,
		}, nil
	}

	discoveryDuration.WithLabelValues("exhausted").Observe(time.Since(started).Seconds())
	failure := &AllProvidersFailedError{Attempts: attempts, Last: lastErr}
	log.Error().Err(failure).Msg("🚫 All providers exhausted")
	return nil, failure
}

// Statuses reports every provider's availability in chain order
func (e *Engine) Statuses(ctx context.Context) []model.ProviderStatus {
	statuses := make([]model.ProviderStatus, 0, len(e.providers))
	for _, p := range e.providers {
		if sr, ok := p.(provider.StatusReporter); ok {
			statuses = append(statuses, sr.Status(ctx))
			continue
		}
		status := model.ProviderStatus{Name: p.Name(), Available: p.IsAvailable(ctx)}
		if !status.Available {
			status.Reason = "unavailable"
		}
		statuses = append(statuses, status)
	}
	return statuses
}

func (e *Engine) record(ctx context.Context, name, outcome string) {
	providerAttemptsTotal.WithLabelValues(name, outcome).Inc()
	if e.recorder == nil {
		return
	}
	if err := e.recorder.RecordProviderOutcome(ctx, name, outcome); err != nil && !errors.Is(err, context.Canceled) {
		log.Warn().Err(err).Str("provider", name).Msg("Failed to record provider outcome")
	}
}
