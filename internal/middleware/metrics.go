package middleware

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

// CacheSourceKey marks a response served from cache
const CacheSourceKey = "cache_source"

var httpRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "API requests by path and status",
	},
	[]string{"method", "path", "status"},
)

// CallRecorder stores per-endpoint analytics
type CallRecorder interface {
	RecordAPICall(ctx context.Context, path string, statusCode int, latencyMs float64, cacheHit bool) error
}

// Metrics returns a middleware that records API metrics
func Metrics(recorder CallRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Only track API endpoints
		if !strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.Next()
			return
		}

		start := time.Now()

		c.Next()

		latency := float64(time.Since(start).Milliseconds())
		status := c.Writer.Status()
		cacheHit := c.GetString(CacheSourceKey) == "redis-cache"
		path := normalizePath(c.Request.URL.Path)

		httpRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(status)).Inc()

		// the request context may already be canceled by a disconnecting client
		ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), 2*time.Second)
		defer cancel()
		if err := recorder.RecordAPICall(ctx, path, status, latency, cacheHit); err != nil {
			log.Warn().Err(err).Msg("Failed to record metrics")
		}
	}
}

// normalizePath groups paths with numeric ids, /api/v1/x/123 -> /api/v1/x/:id
func normalizePath(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if isNumeric(part) {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}

// isNumeric checks if a string is purely numeric
func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
