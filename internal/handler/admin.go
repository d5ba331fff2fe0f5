package handler

import (
	"net/http"

	"flickpick-discovery-service/internal/discovery"
	"flickpick-discovery-service/internal/provider"
	"flickpick-discovery-service/internal/repository"
	"flickpick-discovery-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// AdminHandler handles admin-related endpoints
type AdminHandler struct {
	engine    Engine
	providers []provider.Provider
	tmdb      *service.TMDBService
	cache     *repository.Cache
	analytics *repository.Analytics
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(engine Engine, providers []provider.Provider, tmdb *service.TMDBService, cache *repository.Cache, analytics *repository.Analytics) *AdminHandler {
	return &AdminHandler{
		engine:    engine,
		providers: providers,
		tmdb:      tmdb,
		cache:     cache,
		analytics: analytics,
	}
}

// GetStatus returns service status
// GET /api/v1/status
func (h *AdminHandler) GetStatus(c *gin.Context) {
	ctx := c.Request.Context()

	redisOK := h.cache.Ping(ctx) == nil
	status := "ok"
	if !redisOK {
		status = "degraded"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       status,
		"redis":        redisOK,
		"tmdb_enabled": h.tmdb.IsConfigured(),
		"tmdb_keys":    h.tmdb.KeyCount(),
		"providers":    h.engine.Statuses(ctx),
	})
}

// GetAnalytics returns API and provider analytics
// GET /api/v1/analytics
func (h *AdminHandler) GetAnalytics(c *gin.Context) {
	stats, err := h.analytics.GetOverallStats(c.Request.Context())
	if err != nil {
		internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": stats,
	})
}

// GetEndpointStats returns stats for a specific endpoint
// GET /api/v1/analytics/endpoint?path=/api/v1/discover
func (h *AdminHandler) GetEndpointStats(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":  400,
			"error": "path parameter required",
		})
		return
	}

	stats, err := h.analytics.GetAPIStats(c.Request.Context(), path)
	if err != nil {
		internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": stats,
	})
}

// ResetAnalytics resets all analytics data
// DELETE /api/v1/analytics
func (h *AdminHandler) ResetAnalytics(c *gin.Context) {
	deleted, err := h.analytics.Reset(c.Request.Context())
	if err != nil {
		internalError(c, err)
		return
	}

	log.Info().Int64("keys", deleted).Msg("🧹 Analytics reset")
	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "all analytics data has been reset",
		"deleted": deleted,
	})
}

// ClearEnrichmentCache drops every memoized enrichment batch
// DELETE /api/v1/cache
func (h *AdminHandler) ClearEnrichmentCache(c *gin.Context) {
	deleted, err := h.cache.DeletePattern(c.Request.Context(), discovery.MemoKeyPrefix+"*")
	if err != nil {
		internalError(c, err)
		return
	}

	log.Info().Int64("keys", deleted).Msg("🗑️ Enrichment cache cleared")
	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "enrichment cache cleared",
		"deleted": deleted,
	})
}

// ClearThrottle makes a rate-limited provider available again
// DELETE /api/v1/providers/:name/throttle
func (h *AdminHandler) ClearThrottle(c *gin.Context) {
	name := c.Param("name")
	if _, ok := provider.Find(h.providers, name); !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"code":  404,
			"error": "unknown provider: " + name,
		})
		return
	}

	if err := h.cache.Delete(c.Request.Context(), provider.ThrottleKey(name)); err != nil {
		internalError(c, err)
		return
	}

	log.Info().Str("provider", name).Msg("Throttle flag cleared")
	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "throttle cleared for " + name,
	})
}

func internalError(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"code":  500,
		"error": err.Error(),
	})
}
