package provider

import "time"

// ChainConfig holds credentials and timeouts for the default provider chain
type ChainConfig struct {
	Gemini      GeminiConfig
	Claude      ClaudeConfig
	TasteDive   TasteDiveConfig
	DeepSeek    OpenAICompatConfig
	ThrottleTTL time.Duration
}

// DefaultChain returns the providers in priority order. The catalog discover
// fallback is always last. New sources are added by appending here.
func DefaultChain(cfg ChainConfig, flags FlagStore, catalog Discoverer) []Provider {
	return []Provider{
		NewGemini(cfg.Gemini, flags, cfg.ThrottleTTL),
		NewClaude(cfg.Claude, flags, cfg.ThrottleTTL),
		NewTasteDive(cfg.TasteDive, flags, cfg.ThrottleTTL),
		NewDeepSeek(cfg.DeepSeek, flags, cfg.ThrottleTTL),
		NewCatalogDiscover(catalog),
	}
}

// Find returns the provider with the given name
func Find(providers []Provider, name string) (Provider, bool) {
	for _, p := range providers {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}
