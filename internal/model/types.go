package model

import "strings"

// ================== Common response ==================

// APIResponse is the standard API response format
type APIResponse struct {
	Code    int         `json:"code"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Source  string      `json:"source,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ================== Content classification ==================

// MediaType is the catalog a title lives in
type MediaType string

const (
	MediaMovie MediaType = "movie"
	MediaTV    MediaType = "tv"
)

// ContentType is the four-way classification derived from catalog signals
type ContentType string

const (
	ContentMovie     ContentType = "movie"
	ContentTV        ContentType = "tv"
	ContentAnimation ContentType = "animation"
	ContentAnime     ContentType = "anime"
)

// ParseContentType maps user input onto a ContentType
func ParseContentType(s string) (ContentType, bool) {
	switch ContentType(strings.ToLower(strings.TrimSpace(s))) {
	case ContentMovie:
		return ContentMovie, true
	case ContentTV:
		return ContentTV, true
	case ContentAnimation:
		return ContentAnimation, true
	case ContentAnime:
		return ContentAnime, true
	}
	return "", false
}

// RecommendationType is the type a provider claims for a raw recommendation
type RecommendationType string

const (
	TypeMovie RecommendationType = "movie"
	TypeTV    RecommendationType = "tv"
	TypeAnime RecommendationType = "anime"
)

// Genre ids used by the catalog
const (
	GenreAnimation = 16
)

// ================== Discovery ==================

// RawRecommendation is an unverified suggestion produced by a provider
type RawRecommendation struct {
	Title  string             `json:"title"`
	Year   int                `json:"year"`
	Type   RecommendationType `json:"type"`
	Reason string             `json:"reason"`
}

// YearRange bounds release years; zero means unbounded
type YearRange struct {
	Gte int `json:"gte,omitempty"`
	Lte int `json:"lte,omitempty"`
}

// MediaPreference is the media type a prompt asks for
type MediaPreference string

const (
	PreferMovie MediaPreference = "movie"
	PreferTV    MediaPreference = "tv"
	PreferBoth  MediaPreference = "both"
)

// ParsedIntent holds the structured filters extracted from a prompt
type ParsedIntent struct {
	Genres              []int           `json:"genres"`
	YearRange           *YearRange      `json:"year_range,omitempty"`
	MinRating           float64         `json:"min_rating,omitempty"`
	SortHint            string          `json:"sort_hint,omitempty"`
	Keywords            []string        `json:"keywords"`
	MediaTypePreference MediaPreference `json:"media_type_preference"`
	Mood                string          `json:"mood,omitempty"`
	LanguageHint        string          `json:"language_hint,omitempty"`
	HiddenGem           bool            `json:"hidden_gem,omitempty"`
}

// HasGenre reports whether the intent includes the genre id
func (p ParsedIntent) HasGenre(id int) bool {
	for _, g := range p.Genres {
		if g == id {
			return true
		}
	}
	return false
}

// CatalogHit is one entry returned by the catalog search or discover APIs
type CatalogHit struct {
	ID               int       `json:"id"`
	MediaType        MediaType `json:"media_type"`
	Title            string    `json:"title"`
	OriginalTitle    string    `json:"original_title,omitempty"`
	Year             int       `json:"year"`
	GenreIDs         []int     `json:"genre_ids"`
	OriginalLanguage string    `json:"original_language"`
	OriginCountry    []string  `json:"origin_country,omitempty"`
	Popularity       float64   `json:"popularity"`
	VoteAverage      float64   `json:"vote_average"`
	VoteCount        int       `json:"vote_count"`
	PosterPath       string    `json:"poster_path"`
	BackdropPath     string    `json:"backdrop_path"`
	Overview         string    `json:"overview"`
}

// ContentType derives the final classification from genre and origin signals
func (h CatalogHit) ContentType() ContentType {
	animated := false
	for _, g := range h.GenreIDs {
		if g == GenreAnimation {
			animated = true
			break
		}
	}
	if animated {
		if h.isJapanese() {
			return ContentAnime
		}
		return ContentAnimation
	}
	if h.MediaType == MediaTV {
		return ContentTV
	}
	return ContentMovie
}

func (h CatalogHit) isJapanese() bool {
	if strings.EqualFold(h.OriginalLanguage, "ja") {
		return true
	}
	for _, c := range h.OriginCountry {
		if strings.EqualFold(c, "JP") {
			return true
		}
	}
	return false
}

// EnrichedRecommendation is a raw recommendation resolved against the catalog
type EnrichedRecommendation struct {
	CatalogID              int         `json:"catalog_id"`
	Title                  string      `json:"title"`
	Year                   int         `json:"year"`
	MediaType              MediaType   `json:"media_type"`
	ContentType            ContentType `json:"content_type"`
	PosterPath             string      `json:"poster_path"`
	BackdropPath           string      `json:"backdrop_path"`
	VoteAverage            float64     `json:"vote_average"`
	VoteCount              int         `json:"vote_count"`
	Overview               string      `json:"overview"`
	Popularity             float64     `json:"popularity"`
	GenreIDs               []int       `json:"genre_ids"`
	OriginalLanguage       string      `json:"original_language"`
	Reason                 string      `json:"reason"`
	DistributionChannelIDs []int       `json:"distribution_channel_ids,omitempty"`
}

// DiscoveryResult is the outward contract of one discovery request
type DiscoveryResult struct {
	Results      []EnrichedRecommendation `json:"results"`
	ProviderName string                   `json:"provider_name"`
	IsFallback   bool                     `json:"is_fallback"`
}

// ProviderStatus is a diagnostic snapshot of one provider
type ProviderStatus struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// DiscoverQuery is a filter set for the catalog discover endpoint
type DiscoverQuery struct {
	Genres    []int
	AnyGenre  bool
	YearGte   int
	YearLte   int
	MinRating float64
	MinVotes  int
	MaxVotes  int
	SortBy    string
	Language  string
}
