package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flickpick-discovery-service/internal/config"
	"flickpick-discovery-service/internal/discovery"
	"flickpick-discovery-service/internal/handler"
	"flickpick-discovery-service/internal/middleware"
	"flickpick-discovery-service/internal/provider"
	"flickpick-discovery-service/internal/repository"
	"flickpick-discovery-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	// Load configuration
	cfg := config.Load()
	log.Info().
		Str("port", cfg.Port).
		Str("mode", cfg.GinMode).
		Msg("🚀 Starting flickpick-discovery-service")

	gin.SetMode(cfg.GinMode)
	if cfg.GinMode == gin.ReleaseMode {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	// Redis backs the enrichment memo, throttle flags and analytics
	cache, err := repository.NewCache(cfg.RedisURL, cfg.CacheTTLEnrich)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer cache.Close()

	analytics := repository.NewAnalytics(cache.Client())
	analytics.RecordServerStart(context.Background())
	log.Info().Msg("📊 Analytics enabled")

	tmdb := service.NewTMDBService(service.TMDBConfig{
		APIKeys:   cfg.TMDBAPIKeys,
		BaseURL:   cfg.TMDBBaseURL,
		ImageBase: cfg.TMDBImageBase,
		Language:  cfg.TMDBLanguage,
		Region:    cfg.TMDBRegion,
		RateLimit: cfg.TMDBRateLimit,
	})
	if tmdb.IsConfigured() {
		log.Info().Int("keys", tmdb.KeyCount()).Msg("🎬 TMDB catalog enabled")
	} else {
		log.Warn().Msg("⚠️  TMDB_API_KEY not set, no recommendation can be enriched")
	}

	chain := provider.DefaultChain(provider.ChainConfig{
		Gemini: provider.GeminiConfig{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			Timeout: cfg.TimeoutGemini,
		},
		Claude: provider.ClaudeConfig{
			APIKey:  cfg.AnthropicAPIKey,
			Model:   cfg.AnthropicModel,
			Timeout: cfg.TimeoutClaude,
		},
		TasteDive: provider.TasteDiveConfig{
			APIKey:  cfg.TasteDiveAPIKey,
			BaseURL: cfg.TasteDiveURL,
			Timeout: cfg.TimeoutTasteDive,
		},
		DeepSeek: provider.OpenAICompatConfig{
			APIKey:  cfg.DeepSeekAPIKey,
			BaseURL: cfg.DeepSeekBaseURL,
			Model:   cfg.DeepSeekModel,
			Timeout: cfg.TimeoutDeepSeek,
		},
		ThrottleTTL: cfg.RateLimitTTL,
	}, cache, tmdb)

	var channels discovery.ChannelLookup
	if cfg.AttachChannels {
		channels = tmdb
	}
	enricher := discovery.NewEnricher(tmdb, channels, cache, cfg.CacheTTLEnrich)
	engine := discovery.NewEngine(chain, enricher, discovery.WithRecorder(analytics))

	for _, status := range engine.Statuses(context.Background()) {
		log.Info().
			Str("provider", status.Name).
			Bool("available", status.Available).
			Str("reason", status.Reason).
			Msg("🔌 Provider registered")
	}

	discoverHandler := handler.NewDiscoverHandler(engine)
	adminHandler := handler.NewAdminHandler(engine, chain, tmdb, cache, analytics)

	// Setup router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logging())
	r.Use(middleware.Metrics(analytics))
	r.Use(middleware.CORS())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
			"time":   time.Now().Unix(),
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public routes
	api := r.Group("/api/v1")
	{
		api.GET("/status", adminHandler.GetStatus)
		api.POST("/discover", discoverHandler.Discover)
		api.GET("/intent", discoverHandler.GetIntent)
		api.GET("/providers", discoverHandler.GetProviders)
	}

	// Admin routes, authenticated when ADMIN_API_KEY is set
	admin := r.Group("/api/v1")
	admin.Use(middleware.AdminAuth(cfg.AdminAPIKey))
	{
		admin.GET("/analytics", adminHandler.GetAnalytics)
		admin.GET("/analytics/endpoint", adminHandler.GetEndpointStats)
		admin.DELETE("/analytics", adminHandler.ResetAnalytics)

		admin.DELETE("/cache", adminHandler.ClearEnrichmentCache)
		admin.DELETE("/providers/:name/throttle", adminHandler.ClearThrottle)
	}

	if cfg.AdminAPIKey != "" {
		log.Info().Msg("🔐 Admin API authentication enabled")
	} else {
		log.Warn().Msg("⚠️  ADMIN_API_KEY not set, admin endpoints are open")
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("🌐 Server listening")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("🛑 Shutting down server...")

	// a discovery walks several providers, so allow the slowest one to finish
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("👋 Server exited")
}
