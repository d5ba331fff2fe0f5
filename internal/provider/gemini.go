package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"flickpick-discovery-service/internal/model"

	"google.golang.org/genai"
)

// GeminiConfig configures the Gemini adapter
type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string // override for tests
	Timeout time.Duration
}

// Gemini asks Google Gemini for recommendations
type Gemini struct {
	base
	cfg GeminiConfig
}

// NewGemini creates the Gemini adapter. An empty API key leaves it unavailable.
func NewGemini(cfg GeminiConfig, flags FlagStore, throttleTTL time.Duration) *Gemini {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Gemini{
		base: newBase("gemini", cfg.APIKey != "", cfg.Timeout, flags, throttleTTL),
		cfg:  cfg,
	}
}

// GetRecommendations performs one GenerateContent call
func (g *Gemini) GetRecommendations(ctx context.Context, prompt string, contentTypes []model.ContentType) ([]model.RawRecommendation, error) {
	if !g.configured {
		return nil, g.notConfigured()
	}
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      g.cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: g.cfg.BaseURL},
	})
	if err != nil {
		return nil, newError(g.name, KindConfiguration, fmt.Errorf("create client: %w", err))
	}

	started := time.Now()
	resp, err := client.Models.GenerateContent(ctx, g.cfg.Model, genai.Text(buildUserPrompt(prompt)), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(buildSystemPrompt(contentTypes), genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    recommendationSchema(),
		Temperature:       genai.Ptr[float32](0.7),
	})
	if err != nil {
		return nil, g.fail(ctx, g.classify(err))
	}
	return g.finish(resp.Text(), started), nil
}

func (g *Gemini) classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return newError(g.name, classifyStatus(apiErr.Code, apiErr.Message+" "+apiErr.Status), err)
	}
	return classify(g.name, err)
}

// recommendationSchema constrains Gemini's JSON output to the raw recommendation shape
func recommendationSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"title":  {Type: genai.TypeString},
				"year":   {Type: genai.TypeInteger},
				"type":   {Type: genai.TypeString, Enum: []string{"movie", "tv", "anime"}},
				"reason": {Type: genai.TypeString},
			},
			Required: []string{"title", "type"},
		},
	}
}
