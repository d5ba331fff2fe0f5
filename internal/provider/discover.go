package provider

import (
	"context"
	"fmt"
	"time"

	"flickpick-discovery-service/internal/intent"
	"flickpick-discovery-service/internal/model"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Discoverer is the catalog discover endpoint
type Discoverer interface {
	Discover(ctx context.Context, kind model.MediaType, q model.DiscoverQuery) ([]model.CatalogHit, error)
}

const (
	discoverLimit    = 20
	defaultMinVotes  = 100
	ratedMinVotes    = 200
	hiddenGemMinVote = 50
	hiddenGemMaxVote = 1500
)

// movie genre ids with a different id in the TV taxonomy; -1 has no TV equivalent
var tvGenreMap = map[int]int{
	28:    10759, // action -> action & adventure
	12:    10759,
	878:   10765, // sci-fi -> sci-fi & fantasy
	14:    10765,
	10752: 10768, // war -> war & politics
	27:    -1,
	10749: -1,
	53:    -1,
	36:    -1,
	10402: -1,
	10770: -1,
}

// CatalogDiscover is the deterministic fallback: it turns the prompt's intent
// into a catalog discover query. It is always available.
type CatalogDiscover struct {
	catalog Discoverer
	now     func() time.Time
}

// NewCatalogDiscover creates the catalog discover fallback
func NewCatalogDiscover(catalog Discoverer) *CatalogDiscover {
	return &CatalogDiscover{catalog: catalog, now: time.Now}
}

// Name returns the provider name
func (d *CatalogDiscover) Name() string { return "tmdb-discover" }

// IsAvailable always holds
func (d *CatalogDiscover) IsAvailable(context.Context) bool { return true }

// Status reports the fallback as available
func (d *CatalogDiscover) Status(context.Context) model.ProviderStatus {
	return model.ProviderStatus{Name: d.Name(), Available: true}
}

// GetRecommendations runs the intent-derived discover query against one or
// both catalogs and maps the hits to raw recommendations.
func (d *CatalogDiscover) GetRecommendations(ctx context.Context, prompt string, contentTypes []model.ContentType) ([]model.RawRecommendation, error) {
	parsed := intent.ParseAt(prompt, contentTypes, d.now())
	base := buildDiscoverQuery(parsed, contentTypes)

	var kinds []model.MediaType
	switch parsed.MediaTypePreference {
	case model.PreferMovie:
		kinds = []model.MediaType{model.MediaMovie}
	case model.PreferTV:
		kinds = []model.MediaType{model.MediaTV}
	default:
		kinds = []model.MediaType{model.MediaMovie, model.MediaTV}
	}

	// indexed slots keep catalog order stable
	hits := make([][]model.CatalogHit, len(kinds))
	errs := make([]error, len(kinds))
	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		g.Go(func() error {
			hits[i], errs[i] = d.discoverKind(gctx, kind, base)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for i, err := range errs {
		if err != nil {
			failed++
			log.Warn().Err(err).Str("kind", string(kinds[i])).Msg("Catalog discover failed")
		}
	}
	if failed == len(kinds) {
		return nil, newError(d.Name(), KindTransient, fmt.Errorf("discover: %w", errs[0]))
	}

	merged := interleave(hits, discoverLimit)
	recs := make([]model.RawRecommendation, 0, len(merged))
	for _, hit := range merged {
		recs = append(recs, model.RawRecommendation{
			Title:  hit.Title,
			Year:   hit.Year,
			Type:   recommendationType(hit),
			Reason: intent.GenerateReasonFromIntent(parsed, hit),
		})
	}

	log.Info().
		Str("provider", d.Name()).
		Ints("genres", base.Genres).
		Str("sort", base.SortBy).
		Int("count", len(recs)).
		Msg("🧭 Catalog discover fallback")
	return recs, nil
}

// discoverKind requires every genre first and relaxes to any genre when that finds nothing
func (d *CatalogDiscover) discoverKind(ctx context.Context, kind model.MediaType, q model.DiscoverQuery) ([]model.CatalogHit, error) {
	if kind == model.MediaTV {
		q.Genres = tvGenres(q.Genres)
	}
	hits, err := d.catalog.Discover(ctx, kind, q)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 && len(q.Genres) > 1 {
		q.AnyGenre = true
		return d.catalog.Discover(ctx, kind, q)
	}
	return hits, nil
}

func buildDiscoverQuery(parsed model.ParsedIntent, contentTypes []model.ContentType) model.DiscoverQuery {
	q := model.DiscoverQuery{
		Genres:    append([]int(nil), parsed.Genres...),
		MinRating: parsed.MinRating,
		SortBy:    parsed.SortHint,
		Language:  parsed.LanguageHint,
		MinVotes:  defaultMinVotes,
	}
	if parsed.YearRange != nil {
		q.YearGte = parsed.YearRange.Gte
		q.YearLte = parsed.YearRange.Lte
	}
	if q.MinRating > 0 {
		q.MinVotes = ratedMinVotes
	}
	if parsed.HiddenGem {
		q.MinVotes = hiddenGemMinVote
		q.MaxVotes = hiddenGemMaxVote
	}

	animatedOnly, animeOnly := len(contentTypes) > 0, len(contentTypes) > 0
	for _, ct := range contentTypes {
		if ct != model.ContentAnime && ct != model.ContentAnimation {
			animatedOnly = false
		}
		if ct != model.ContentAnime {
			animeOnly = false
		}
	}
	if animatedOnly && !parsed.HasGenre(model.GenreAnimation) {
		q.Genres = append(q.Genres, model.GenreAnimation)
	}
	if animeOnly && q.Language == "" {
		q.Language = "ja"
	}
	return q
}

func tvGenres(genres []int) []int {
	out := make([]int, 0, len(genres))
	seen := make(map[int]bool, len(genres))
	for _, g := range genres {
		if mapped, ok := tvGenreMap[g]; ok {
			if mapped < 0 {
				continue
			}
			g = mapped
		}
		if !seen[g] {
			seen[g] = true
			out = append(out, g)
		}
	}
	return out
}

func interleave(lists [][]model.CatalogHit, limit int) []model.CatalogHit {
	out := make([]model.CatalogHit, 0, limit)
	for i := 0; len(out) < limit; i++ {
		added := false
		for _, list := range lists {
			if i < len(list) && len(out) < limit {
				out = append(out, list[i])
				added = true
			}
		}
		if !added {
			break
		}
	}
	return out
}

func recommendationType(hit model.CatalogHit) model.RecommendationType {
	switch {
	case hit.ContentType() == model.ContentAnime:
		return model.TypeAnime
	case hit.MediaType == model.MediaTV:
		return model.TypeTV
	}
	return model.TypeMovie
}
