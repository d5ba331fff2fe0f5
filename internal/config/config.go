package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the service
type Config struct {
	Port        string
	GinMode     string
	RedisURL    string
	AdminAPIKey string

	TMDBAPIKeys   []string // rotated round-robin
	TMDBBaseURL   string
	TMDBImageBase string
	TMDBLanguage  string
	TMDBRegion    string
	TMDBRateLimit float64 // requests per second, 0 disables pacing

	GeminiAPIKey    string
	GeminiModel     string
	AnthropicAPIKey string
	AnthropicModel  string
	DeepSeekAPIKey  string
	DeepSeekBaseURL string
	DeepSeekModel   string
	TasteDiveAPIKey string
	TasteDiveURL    string

	TimeoutGemini    time.Duration
	TimeoutClaude    time.Duration
	TimeoutDeepSeek  time.Duration
	TimeoutTasteDive time.Duration

	RateLimitTTL   time.Duration
	CacheTTLEnrich time.Duration
	AttachChannels bool
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379"),
		AdminAPIKey: os.Getenv("ADMIN_API_KEY"),

		TMDBAPIKeys:   getList("TMDB_API_KEY"),
		TMDBBaseURL:   getEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
		TMDBImageBase: getEnv("TMDB_IMAGE_BASE", "https://image.tmdb.org/t/p/original"),
		TMDBLanguage:  getEnv("TMDB_LANGUAGE", "en-US"),
		TMDBRegion:    getEnv("TMDB_REGION", "US"),
		TMDBRateLimit: getFloat("TMDB_RATE_LIMIT", 20),

		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     os.Getenv("GEMINI_MODEL"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  os.Getenv("ANTHROPIC_MODEL"),
		DeepSeekAPIKey:  os.Getenv("DEEPSEEK_API_KEY"),
		DeepSeekBaseURL: os.Getenv("DEEPSEEK_BASE_URL"),
		DeepSeekModel:   os.Getenv("DEEPSEEK_MODEL"),
		TasteDiveAPIKey: os.Getenv("TASTEDIVE_API_KEY"),
		TasteDiveURL:    os.Getenv("TASTEDIVE_BASE_URL"),

		TimeoutGemini:    getDuration("PROVIDER_TIMEOUT_GEMINI", 30*time.Second),
		TimeoutClaude:    getDuration("PROVIDER_TIMEOUT_CLAUDE", 45*time.Second),
		TimeoutDeepSeek:  getDuration("PROVIDER_TIMEOUT_DEEPSEEK", 45*time.Second),
		TimeoutTasteDive: getDuration("PROVIDER_TIMEOUT_TASTEDIVE", 30*time.Second),

		RateLimitTTL:   getDuration("RATE_LIMIT_TTL", 60*time.Second),
		CacheTTLEnrich: getDuration("CACHE_TTL_ENRICH", 6*time.Hour),
		AttachChannels: getBool("ATTACH_CHANNELS", true),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getList splits a comma-separated variable, dropping blanks
func getList(key string) []string {
	items := []string{}
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// getDuration accepts Go durations ("90s") or plain seconds ("90")
func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil && f >= 0 {
		return f
	}
	return defaultValue
}
