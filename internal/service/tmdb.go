package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"flickpick-discovery-service/internal/model"
	"flickpick-discovery-service/pkg/httpclient"

	"github.com/rs/zerolog/log"
)

// ErrTMDBNotConfigured is returned when no API key is set
var ErrTMDBNotConfigured = errors.New("TMDB API key not configured")

// TMDBConfig configures the TMDB client
type TMDBConfig struct {
	APIKeys   []string
	BaseURL   string
	ImageBase string
	Language  string
	Region    string
	RateLimit float64 // requests per second, 0 disables pacing
	Timeout   time.Duration
}

// TMDBService is the catalog: title search, discover and watch providers,
// with API key rotation
type TMDBService struct {
	apiKeys   []string
	baseURL   string
	imageBase string
	language  string
	region    string
	client    *httpclient.Client
	keyIndex  uint64 // atomic round-robin counter
}

// NewTMDBService creates a new TMDBService
func NewTMDBService(cfg TMDBConfig) *TMDBService {
	if len(cfg.APIKeys) > 0 {
		log.Info().Int("count", len(cfg.APIKeys)).Msg("🔑 TMDB API keys configured, rotating")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Language == "" {
		cfg.Language = "en-US"
	}
	if cfg.Region == "" {
		cfg.Region = "US"
	}
	burst := int(cfg.RateLimit)
	if burst < 1 {
		burst = 1
	}
	return &TMDBService{
		apiKeys:   cfg.APIKeys,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		imageBase: cfg.ImageBase,
		language:  cfg.Language,
		region:    strings.ToUpper(cfg.Region),
		client: httpclient.NewClient(
			httpclient.WithTimeout(cfg.Timeout),
			httpclient.WithRateLimit(cfg.RateLimit, burst),
		),
	}
}

// getNextKey returns the next API key using round-robin
func (s *TMDBService) getNextKey() string {
	if len(s.apiKeys) == 0 {
		return ""
	}
	idx := atomic.AddUint64(&s.keyIndex, 1) - 1
	return s.apiKeys[idx%uint64(len(s.apiKeys))]
}

// IsConfigured returns true if TMDB is configured
func (s *TMDBService) IsConfigured() bool {
	return len(s.apiKeys) > 0
}

// KeyCount returns the number of configured API keys
func (s *TMDBService) KeyCount() int {
	return len(s.apiKeys)
}

// tmdbItem covers both movie and tv result shapes
type tmdbItem struct {
	ID               int      `json:"id"`
	Title            string   `json:"title"`
	Name             string   `json:"name"`
	OriginalTitle    string   `json:"original_title"`
	OriginalName     string   `json:"original_name"`
	ReleaseDate      string   `json:"release_date"`
	FirstAirDate     string   `json:"first_air_date"`
	GenreIDs         []int    `json:"genre_ids"`
	OriginalLanguage string   `json:"original_language"`
	OriginCountry    []string `json:"origin_country"`
	Popularity       float64  `json:"popularity"`
	VoteAverage      float64  `json:"vote_average"`
	VoteCount        int      `json:"vote_count"`
	PosterPath       string   `json:"poster_path"`
	BackdropPath     string   `json:"backdrop_path"`
	Overview         string   `json:"overview"`
}

type tmdbPage struct {
	Page         int        `json:"page"`
	Results      []tmdbItem `json:"results"`
	TotalResults int        `json:"total_results"`
}

type tmdbWatchProviders struct {
	ID      int `json:"id"`
	Results map[string]struct {
		Link     string `json:"link"`
		Flatrate []struct {
			ProviderID   int    `json:"provider_id"`
			ProviderName string `json:"provider_name"`
		} `json:"flatrate"`
	} `json:"results"`
}

func (s *TMDBService) toHit(item tmdbItem, kind model.MediaType) model.CatalogHit {
	hit := model.CatalogHit{
		ID:               item.ID,
		MediaType:        kind,
		GenreIDs:         item.GenreIDs,
		OriginalLanguage: item.OriginalLanguage,
		OriginCountry:    item.OriginCountry,
		Popularity:       item.Popularity,
		VoteAverage:      item.VoteAverage,
		VoteCount:        item.VoteCount,
		PosterPath:       s.imageURL(item.PosterPath),
		BackdropPath:     s.imageURL(item.BackdropPath),
		Overview:         item.Overview,
	}
	if kind == model.MediaTV {
		hit.Title, hit.OriginalTitle = item.Name, item.OriginalName
		hit.Year = yearOf(item.FirstAirDate)
	} else {
		hit.Title, hit.OriginalTitle = item.Title, item.OriginalTitle
		hit.Year = yearOf(item.ReleaseDate)
	}
	if hit.GenreIDs == nil {
		hit.GenreIDs = []int{}
	}
	return hit
}

func (s *TMDBService) imageURL(path string) string {
	if path == "" || s.imageBase == "" {
		return path
	}
	return s.imageBase + path
}

// SearchByTitle searches one catalog by title, optionally constrained by year
func (s *TMDBService) SearchByTitle(ctx context.Context, kind model.MediaType, query string, yearHint int) ([]model.CatalogHit, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("include_adult", "false")
	if yearHint > 0 {
		if kind == model.MediaTV {
			params.Set("first_air_date_year", strconv.Itoa(yearHint))
		} else {
			params.Set("primary_release_year", strconv.Itoa(yearHint))
		}
	}

	var page tmdbPage
	if err := s.get(ctx, "/search/"+string(kind), params, &page); err != nil {
		return nil, fmt.Errorf("tmdb search %s: %w", kind, err)
	}

	hits := make([]model.CatalogHit, 0, len(page.Results))
	for _, item := range page.Results {
		hits = append(hits, s.toHit(item, kind))
	}
	log.Debug().
		Str("kind", string(kind)).
		Str("query", query).
		Int("year", yearHint).
		Int("hits", len(hits)).
		Msg("TMDB: search")
	return hits, nil
}

// Discover runs the discover endpoint for one catalog
func (s *TMDBService) Discover(ctx context.Context, kind model.MediaType, q model.DiscoverQuery) ([]model.CatalogHit, error) {
	params := discoverParams(kind, q)

	var page tmdbPage
	if err := s.get(ctx, "/discover/"+string(kind), params, &page); err != nil {
		return nil, fmt.Errorf("tmdb discover %s: %w", kind, err)
	}

	hits := make([]model.CatalogHit, 0, len(page.Results))
	for _, item := range page.Results {
		hits = append(hits, s.toHit(item, kind))
	}
	return hits, nil
}

func discoverParams(kind model.MediaType, q model.DiscoverQuery) url.Values {
	params := url.Values{}
	params.Set("include_adult", "false")
	params.Set("page", "1")

	sortBy := q.SortBy
	if sortBy == "" {
		sortBy = "popularity.desc"
	}
	params.Set("sort_by", sortBy)

	if len(q.Genres) > 0 {
		ids := make([]string, len(q.Genres))
		for i, g := range q.Genres {
			ids[i] = strconv.Itoa(g)
		}
		sep := ","
		if q.AnyGenre {
			sep = "|"
		}
		params.Set("with_genres", strings.Join(ids, sep))
	}

	dateField := "primary_release_date"
	if kind == model.MediaTV {
		dateField = "first_air_date"
	}
	if q.YearGte > 0 {
		params.Set(dateField+".gte", fmt.Sprintf("%04d-01-01", q.YearGte))
	}
	if q.YearLte > 0 {
		params.Set(dateField+".lte", fmt.Sprintf("%04d-12-31", q.YearLte))
	}
	if q.MinRating > 0 {
		params.Set("vote_average.gte", strconv.FormatFloat(q.MinRating, 'f', 1, 64))
	}
	if q.MinVotes > 0 {
		params.Set("vote_count.gte", strconv.Itoa(q.MinVotes))
	}
	if q.MaxVotes > 0 {
		params.Set("vote_count.lte", strconv.Itoa(q.MaxVotes))
	}
	if q.Language != "" {
		params.Set("with_original_language", q.Language)
	}
	return params
}

// GetChannelsForTitle returns the subscription provider ids for the configured region
func (s *TMDBService) GetChannelsForTitle(ctx context.Context, kind model.MediaType, id int) ([]int, error) {
	var resp tmdbWatchProviders
	path := fmt.Sprintf("/%s/%d/watch/providers", kind, id)
	if err := s.get(ctx, path, url.Values{}, &resp); err != nil {
		return nil, fmt.Errorf("tmdb watch providers: %w", err)
	}

	region, ok := resp.Results[s.region]
	if !ok {
		return nil, nil
	}
	ids := make([]int, 0, len(region.Flatrate))
	for _, p := range region.Flatrate {
		ids = append(ids, p.ProviderID)
	}
	return ids, nil
}

func (s *TMDBService) get(ctx context.Context, path string, params url.Values, dest interface{}) error {
	apiKey := s.getNextKey()
	if apiKey == "" {
		return ErrTMDBNotConfigured
	}
	if params.Get("language") == "" {
		params.Set("language", s.language)
	}
	headers := map[string]string{
		"Authorization": "Bearer " + apiKey,
	}
	return s.client.GetJSON(ctx, s.baseURL+path+"?"+params.Encode(), headers, dest)
}

func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return y
}
