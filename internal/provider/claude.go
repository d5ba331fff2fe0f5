package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"flickpick-discovery-service/internal/model"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// ClaudeConfig configures the Anthropic adapter
type ClaudeConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Claude asks the Anthropic Messages API for recommendations
type Claude struct {
	base
	client anthropic.Client
	model  string
}

// NewClaude creates the Claude adapter. SDK retries are disabled; the
// orchestrator owns the retry policy.
func NewClaude(cfg ClaudeConfig, flags FlagStore, throttleTTL time.Duration) *Claude {
	if cfg.Model == "" {
		cfg.Model = "claude-3-5-haiku-latest"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 45 * time.Second
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Claude{
		base:   newBase("claude", cfg.APIKey != "", cfg.Timeout, flags, throttleTTL),
		client: anthropic.NewClient(opts...),
		model:  cfg.Model,
	}
}

// GetRecommendations performs one Messages.New call
func (c *Claude) GetRecommendations(ctx context.Context, prompt string, contentTypes []model.ContentType) ([]model.RawRecommendation, error) {
	if !c.configured {
		return nil, c.notConfigured()
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	started := time.Now()
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: 2048,
		System: []anthropic.TextBlockParam{
			{Text: buildSystemPrompt(contentTypes)},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildUserPrompt(prompt))),
		},
	})
	if err != nil {
		return nil, c.fail(ctx, c.classify(err))
	}

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, newError(c.name, KindParse, fmt.Errorf("no text content in response"))
	}
	return c.finish(text.String(), started), nil
}

func (c *Claude) classify(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return newError(c.name, classifyStatus(apiErr.StatusCode, apiErr.Error()), err)
	}
	return classify(c.name, err)
}
