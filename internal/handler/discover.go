package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"flickpick-discovery-service/internal/discovery"
	"flickpick-discovery-service/internal/intent"
	"flickpick-discovery-service/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const maxPromptLength = 500

// Engine is the part of the discovery engine the HTTP layer needs
type Engine interface {
	Discover(ctx context.Context, prompt string, contentTypes []model.ContentType, excludeIDs []int) (*model.DiscoveryResult, error)
	Statuses(ctx context.Context) []model.ProviderStatus
}

// DiscoverHandler handles discovery API requests
type DiscoverHandler struct {
	engine Engine
}

// NewDiscoverHandler creates a new DiscoverHandler
func NewDiscoverHandler(engine Engine) *DiscoverHandler {
	return &DiscoverHandler{engine: engine}
}

type discoverRequest struct {
	Prompt       string   `json:"prompt"`
	ContentTypes []string `json:"content_types"`
	ExcludeIDs   []int    `json:"exclude_ids"`
}

// Discover runs a prompt through the provider chain
// POST /api/v1/discover
func (h *DiscoverHandler) Discover(c *gin.Context) {
	var req discoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		badRequest(c, "prompt is required")
		return
	}
	if utf8.RuneCountInString(prompt) > maxPromptLength {
		badRequest(c, "prompt is too long")
		return
	}
	contentTypes, ok := parseContentTypes(req.ContentTypes)
	if !ok {
		badRequest(c, "content_types must be movie, tv, animation or anime")
		return
	}

	// a disconnecting client does not abort discovery; provider timeouts bound it
	ctx := context.WithoutCancel(c.Request.Context())

	result, err := h.engine.Discover(ctx, prompt, contentTypes, req.ExcludeIDs)
	if err != nil {
		var failure *discovery.AllProvidersFailedError
		if errors.As(err, &failure) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"code":     503,
				"error":    "no recommendation provider is available right now",
				"attempts": failure.Attempts,
			})
			return
		}
		log.Error().Err(err).Msg("Discovery failed")
		c.JSON(http.StatusInternalServerError, model.APIResponse{
			Code:  500,
			Error: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, model.APIResponse{
		Code: 200,
		Data: result,
	})
}

// GetIntent previews the filters extracted from a prompt
// GET /api/v1/intent?q=cozy+anime&content_types=anime
func (h *DiscoverHandler) GetIntent(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		badRequest(c, "missing query parameter q")
		return
	}
	var raw []string
	if v := c.Query("content_types"); v != "" {
		raw = strings.Split(v, ",")
	}
	contentTypes, ok := parseContentTypes(raw)
	if !ok {
		badRequest(c, "content_types must be movie, tv, animation or anime")
		return
	}

	c.JSON(http.StatusOK, model.APIResponse{
		Code: 200,
		Data: intent.Parse(q, contentTypes),
	})
}

// GetProviders lists the provider chain with availability
// GET /api/v1/providers
func (h *DiscoverHandler) GetProviders(c *gin.Context) {
	c.JSON(http.StatusOK, model.APIResponse{
		Code: 200,
		Data: h.engine.Statuses(c.Request.Context()),
	})
}

// parseContentTypes validates and deduplicates content types
func parseContentTypes(raw []string) ([]model.ContentType, bool) {
	if len(raw) == 0 {
		return nil, true
	}
	out := make([]model.ContentType, 0, len(raw))
	seen := make(map[model.ContentType]bool, len(raw))
	for _, s := range raw {
		ct, ok := model.ParseContentType(s)
		if !ok {
			return nil, false
		}
		if !seen[ct] {
			seen[ct] = true
			out = append(out, ct)
		}
	}
	return out, true
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, model.APIResponse{
		Code:  400,
		Error: msg,
	})
}
