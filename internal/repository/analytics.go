package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const analyticsPrefix = "analytics:"

// Analytics stores API and provider counters in Redis for the admin dashboard
type Analytics struct {
	client *redis.Client
	now    func() time.Time
}

// APIStats represents statistics for an API endpoint
type APIStats struct {
	Path         string  `json:"path"`
	TotalCalls   int64   `json:"total_calls"`
	SuccessCalls int64   `json:"success_calls"`
	ErrorCalls   int64   `json:"error_calls"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
	MaxLatencyMs float64 `json:"max_latency_ms"`
	MinLatencyMs float64 `json:"min_latency_ms"`
	CacheHits    int64   `json:"cache_hits"`
	CacheMisses  int64   `json:"cache_misses"`
}

// ProviderStats counts discovery outcomes for one provider
type ProviderStats struct {
	Provider string           `json:"provider"`
	Outcomes map[string]int64 `json:"outcomes"`
	Total    int64            `json:"total"`
}

// DailyStats represents daily API statistics
type DailyStats struct {
	Date       string  `json:"date"`
	TotalCalls int64   `json:"total_calls"`
	AvgLatency float64 `json:"avg_latency"`
}

// OverallStats represents overall system statistics
type OverallStats struct {
	TotalAPICalls int64           `json:"total_api_calls"`
	TodayAPICalls int64           `json:"today_api_calls"`
	AvgLatencyMs  float64         `json:"avg_latency_ms"`
	CacheHitRate  float64         `json:"cache_hit_rate"`
	TopEndpoints  []APIStats      `json:"top_endpoints"`
	Providers     []ProviderStats `json:"providers"`
	DailyTrend    []DailyStats    `json:"daily_trend"`
	ErrorRate     float64         `json:"error_rate"`
	Uptime        int64           `json:"uptime_seconds"`
}

// NewAnalytics creates an Analytics store on a shared client
func NewAnalytics(client *redis.Client) *Analytics {
	return &Analytics{client: client, now: time.Now}
}

func pathKey(path string) string { return analyticsPrefix + "path:" + path }
func providerKey(name string) string { return analyticsPrefix + "provider:" + name }
func dailyKey(date string) string { return analyticsPrefix + "daily:" + date }
func hourlyKey(hour string) string { return analyticsPrefix + "hourly:" + hour }
func startTimeKey() string { return analyticsPrefix + "server:start_time" }
func setKey(kind string) string { return analyticsPrefix + kind }
func globalKey(field string) string { return analyticsPrefix + "global:" + field }

// RecordAPICall records an API call
func (a *Analytics) RecordAPICall(ctx context.Context, path string, statusCode int, latencyMs float64, cacheHit bool) error {
	now := a.now()
	today := now.Format("2006-01-02")
	hour := now.Format("2006-01-02-15")

	pipe := a.client.Pipeline()

	pk := pathKey(path)
	pipe.HIncrBy(ctx, pk, "total", 1)
	pipe.HIncrByFloat(ctx, pk, "latency_sum", latencyMs)
	pipe.HSetNX(ctx, pk, "min_latency", latencyMs)
	pipe.HSetNX(ctx, pk, "max_latency", latencyMs)

	if statusCode >= 200 && statusCode < 400 {
		pipe.HIncrBy(ctx, pk, "success", 1)
	} else {
		pipe.HIncrBy(ctx, pk, "error", 1)
	}

	if cacheHit {
		pipe.HIncrBy(ctx, pk, "cache_hits", 1)
	} else {
		pipe.HIncrBy(ctx, pk, "cache_misses", 1)
	}

	dk := dailyKey(today)
	pipe.HIncrBy(ctx, dk, "total", 1)
	pipe.HIncrByFloat(ctx, dk, "latency_sum", latencyMs)
	pipe.Expire(ctx, dk, 30*24*time.Hour)

	hk := hourlyKey(hour)
	pipe.HIncrBy(ctx, hk, "total", 1)
	pipe.Expire(ctx, hk, 48*time.Hour)

	pipe.Incr(ctx, globalKey("total"))
	pipe.IncrByFloat(ctx, globalKey("latency_sum"), latencyMs)
	pipe.SAdd(ctx, setKey("paths"), path)

	if _, err := pipe.Exec(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to record analytics")
		return err
	}

	a.trackLatencyBounds(ctx, pk, latencyMs)
	return nil
}

// trackLatencyBounds updates min/max after HSetNX seeded them
func (a *Analytics) trackLatencyBounds(ctx context.Context, key string, latencyMs float64) {
	vals, err := a.client.HMGet(ctx, key, "min_latency", "max_latency").Result()
	if err != nil || len(vals) != 2 {
		return
	}
	if minVal := parseFloat(vals[0]); latencyMs < minVal {
		a.client.HSet(ctx, key, "min_latency", latencyMs)
	}
	if maxVal := parseFloat(vals[1]); latencyMs > maxVal {
		a.client.HSet(ctx, key, "max_latency", latencyMs)
	}
}

// RecordProviderOutcome counts one discovery outcome for a provider
func (a *Analytics) RecordProviderOutcome(ctx context.Context, provider, outcome string) error {
	pipe := a.client.Pipeline()
	pipe.HIncrBy(ctx, providerKey(provider), outcome, 1)
	pipe.SAdd(ctx, setKey("providers"), provider)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record provider outcome: %w", err)
	}
	return nil
}

// GetProviderStats returns outcome counters for every provider seen
func (a *Analytics) GetProviderStats(ctx context.Context) ([]ProviderStats, error) {
	names, err := a.client.SMembers(ctx, setKey("providers")).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	stats := make([]ProviderStats, 0, len(names))
	for _, name := range names {
		fields, err := a.client.HGetAll(ctx, providerKey(name)).Result()
		if err != nil {
			return nil, err
		}
		ps := ProviderStats{Provider: name, Outcomes: make(map[string]int64, len(fields))}
		for outcome, raw := range fields {
			n, _ := strconv.ParseInt(raw, 10, 64)
			ps.Outcomes[outcome] = n
			ps.Total += n
		}
		stats = append(stats, ps)
	}
	return stats, nil
}

// GetAPIStats gets statistics for a specific API path
func (a *Analytics) GetAPIStats(ctx context.Context, path string) (*APIStats, error) {
	result, err := a.client.HGetAll(ctx, pathKey(path)).Result()
	if err != nil {
		return nil, err
	}

	if len(result) == 0 {
		return &APIStats{Path: path}, nil
	}

	total, _ := strconv.ParseInt(result["total"], 10, 64)
	success, _ := strconv.ParseInt(result["success"], 10, 64)
	failures, _ := strconv.ParseInt(result["error"], 10, 64)
	latencySum, _ := strconv.ParseFloat(result["latency_sum"], 64)
	minLatency, _ := strconv.ParseFloat(result["min_latency"], 64)
	maxLatency, _ := strconv.ParseFloat(result["max_latency"], 64)
	cacheHits, _ := strconv.ParseInt(result["cache_hits"], 10, 64)
	cacheMisses, _ := strconv.ParseInt(result["cache_misses"], 10, 64)

	avgLatency := 0.0
	if total > 0 {
		avgLatency = latencySum / float64(total)
	}

	return &APIStats{
		Path:         path,
		TotalCalls:   total,
		SuccessCalls: success,
		ErrorCalls:   failures,
		AvgLatencyMs: avgLatency,
		MaxLatencyMs: maxLatency,
		MinLatencyMs: minLatency,
		CacheHits:    cacheHits,
		CacheMisses:  cacheMisses,
	}, nil
}

// GetOverallStats gets overall system statistics
func (a *Analytics) GetOverallStats(ctx context.Context) (*OverallStats, error) {
	stats := &OverallStats{}

	total, err := a.client.Get(ctx, globalKey("total")).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("read totals: %w", err)
	}
	latencySum, _ := a.client.Get(ctx, globalKey("latency_sum")).Float64()
	stats.TotalAPICalls = total
	if total > 0 {
		stats.AvgLatencyMs = latencySum / float64(total)
	}

	today := a.now().Format("2006-01-02")
	stats.TodayAPICalls, _ = a.client.HGet(ctx, dailyKey(today), "total").Int64()

	paths, _ := a.client.SMembers(ctx, setKey("paths")).Result()
	var allStats []APIStats
	var totalCacheHits, totalCacheMisses, totalErrors int64

	for _, path := range paths {
		pathStats, err := a.GetAPIStats(ctx, path)
		if err == nil && pathStats.TotalCalls > 0 {
			allStats = append(allStats, *pathStats)
			totalCacheHits += pathStats.CacheHits
			totalCacheMisses += pathStats.CacheMisses
			totalErrors += pathStats.ErrorCalls
		}
	}

	sort.Slice(allStats, func(i, j int) bool {
		return allStats[i].TotalCalls > allStats[j].TotalCalls
	})
	if len(allStats) > 10 {
		allStats = allStats[:10]
	}
	stats.TopEndpoints = allStats

	if ops := totalCacheHits + totalCacheMisses; ops > 0 {
		stats.CacheHitRate = float64(totalCacheHits) / float64(ops) * 100
	}
	if total > 0 {
		stats.ErrorRate = float64(totalErrors) / float64(total) * 100
	}

	providers, err := a.GetProviderStats(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read provider analytics")
	}
	stats.Providers = providers

	stats.DailyTrend = a.getDailyTrend(ctx, 7)

	startTime, err := a.client.Get(ctx, startTimeKey()).Int64()
	if err == nil && startTime > 0 {
		stats.Uptime = a.now().Unix() - startTime
	}

	return stats, nil
}

// getDailyTrend gets daily statistics for the last N days
func (a *Analytics) getDailyTrend(ctx context.Context, days int) []DailyStats {
	trend := make([]DailyStats, 0, days)
	now := a.now()

	for i := days - 1; i >= 0; i-- {
		date := now.AddDate(0, 0, -i).Format("2006-01-02")

		result, err := a.client.HGetAll(ctx, dailyKey(date)).Result()
		if err != nil {
			continue
		}

		total, _ := strconv.ParseInt(result["total"], 10, 64)
		latencySum, _ := strconv.ParseFloat(result["latency_sum"], 64)

		avgLatency := 0.0
		if total > 0 {
			avgLatency = latencySum / float64(total)
		}

		trend = append(trend, DailyStats{
			Date:       date,
			TotalCalls: total,
			AvgLatency: avgLatency,
		})
	}

	return trend
}

// RecordServerStart records server start time
func (a *Analytics) RecordServerStart(ctx context.Context) {
	if err := a.client.Set(ctx, startTimeKey(), a.now().Unix(), 0).Err(); err != nil {
		log.Warn().Err(err).Msg("Failed to record server start")
	}
}

// Reset deletes every analytics key
func (a *Analytics) Reset(ctx context.Context) (int64, error) {
	return NewCacheWithClient(a.client, 0).DeletePattern(ctx, analyticsPrefix+"*")
}

func parseFloat(v interface{}) float64 {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
