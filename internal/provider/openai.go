package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"flickpick-discovery-service/internal/model"
	"flickpick-discovery-service/pkg/httpclient"
)

// OpenAICompatConfig configures an adapter for an OpenAI-compatible
// chat completions endpoint
type OpenAICompatConfig struct {
	Name    string
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// OpenAICompat talks to any OpenAI-compatible chat completions API
type OpenAICompat struct {
	base
	apiKey   string
	endpoint string
	model    string
	client   *httpclient.Client
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// NewDeepSeek creates the DeepSeek adapter
func NewDeepSeek(cfg OpenAICompatConfig, flags FlagStore, throttleTTL time.Duration) *OpenAICompat {
	cfg.Name = "deepseek"
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.deepseek.com"
	}
	if cfg.Model == "" {
		cfg.Model = "deepseek-chat"
	}
	return NewOpenAICompat(cfg, flags, throttleTTL)
}

// NewOpenAICompat creates an adapter for an OpenAI-compatible endpoint
func NewOpenAICompat(cfg OpenAICompatConfig, flags FlagStore, throttleTTL time.Duration) *OpenAICompat {
	if cfg.Timeout == 0 {
		cfg.Timeout = 45 * time.Second
	}
	return &OpenAICompat{
		base:     newBase(cfg.Name, cfg.APIKey != "", cfg.Timeout, flags, throttleTTL),
		apiKey:   cfg.APIKey,
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions",
		model:    cfg.Model,
		client:   httpclient.NewClient(httpclient.WithTimeout(cfg.Timeout)),
	}
}

// GetRecommendations performs one chat completion
func (o *OpenAICompat) GetRecommendations(ctx context.Context, prompt string, contentTypes []model.ContentType) ([]model.RawRecommendation, error) {
	if !o.configured {
		return nil, o.notConfigured()
	}
	ctx, cancel := o.withTimeout(ctx)
	defer cancel()

	req := chatRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "system", Content: buildSystemPrompt(contentTypes)},
			{Role: "user", Content: buildUserPrompt(prompt)},
		},
		Temperature: 0.7,
		MaxTokens:   2048,
	}
	headers := map[string]string{"Authorization": "Bearer " + o.apiKey}

	started := time.Now()
	var resp chatResponse
	if err := o.client.PostJSON(ctx, o.endpoint, headers, req, &resp); err != nil {
		return nil, o.fail(ctx, classify(o.name, err))
	}
	if resp.Error != nil {
		kind := KindTransient
		if hasQuotaMarker(resp.Error.Message + " " + resp.Error.Type) {
			kind = KindQuota
		}
		return nil, newError(o.name, kind, fmt.Errorf("api error: %s", resp.Error.Message))
	}
	if len(resp.Choices) == 0 {
		return nil, newError(o.name, KindParse, fmt.Errorf("no choices in response"))
	}
	return o.finish(resp.Choices[0].Message.Content, started), nil
}
