package discovery

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"flickpick-discovery-service/internal/intent"
	"flickpick-discovery-service/internal/model"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Catalog resolves titles against the canonical catalog
type Catalog interface {
	SearchByTitle(ctx context.Context, kind model.MediaType, query string, yearHint int) ([]model.CatalogHit, error)
}

// ChannelLookup returns distribution channel ids for a catalog entry
type ChannelLookup interface {
	GetChannelsForTitle(ctx context.Context, kind model.MediaType, id int) ([]int, error)
}

// Memo is a JSON cache with TTL
type Memo interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl ...time.Duration) error
}

// MemoKeyPrefix namespaces enrichment memo entries
const MemoKeyPrefix = "enrich:"

// Enricher resolves raw recommendations into catalog entries
type Enricher struct {
	catalog  Catalog
	channels ChannelLookup
	memo     Memo
	memoTTL  time.Duration
}

// NewEnricher creates an Enricher. channels and memo may be nil.
func NewEnricher(catalog Catalog, channels ChannelLookup, memo Memo, memoTTL time.Duration) *Enricher {
	return &Enricher{catalog: catalog, channels: channels, memo: memo, memoTTL: memoTTL}
}

// Filter is applied after resolution and memoization
type Filter struct {
	ExcludeIDs   map[int]struct{}
	ContentTypes []model.ContentType
	Intent       model.ParsedIntent
}

// Enrich resolves raw concurrently, deduplicates by catalog id and applies
// the filter. Unmatched titles are dropped silently. Output order follows
// input order.
func (e *Enricher) Enrich(ctx context.Context, raw []model.RawRecommendation, f Filter) []model.EnrichedRecommendation {
	if len(raw) == 0 {
		return []model.EnrichedRecommendation{}
	}

	key := memoKey(raw)
	var resolved []model.EnrichedRecommendation
	if e.memo != nil {
		if err := e.memo.Get(ctx, key, &resolved); err == nil {
			enrichMemoTotal.WithLabelValues("hit").Inc()
			log.Debug().Str("key", key).Int("count", len(resolved)).Msg("Enrichment memo hit")
			return applyFilter(resolved, f)
		}
		enrichMemoTotal.WithLabelValues("miss").Inc()
	}

	resolved, complete := e.resolveAll(ctx, raw)
	resolved = dedupe(resolved)
	e.attachChannels(ctx, resolved)

	// partial batches (lookup errors) are not memoized
	if e.memo != nil && complete && len(resolved) > 0 {
		if err := e.memo.Set(ctx, key, resolved, e.memoTTL); err != nil {
			log.Warn().Err(err).Msg("Failed to memoize enrichment")
		}
	}
	return applyFilter(resolved, f)
}

func (e *Enricher) resolveAll(ctx context.Context, raw []model.RawRecommendation) ([]model.EnrichedRecommendation, bool) {
	slots := make([]*model.EnrichedRecommendation, len(raw))
	var failed atomic.Bool

	g, gctx := errgroup.WithContext(ctx)
	for i, r := range raw {
		g.Go(func() error {
			rec, err := e.resolve(gctx, r)
			if err != nil {
				failed.Store(true)
				enrichLookupsTotal.WithLabelValues("error").Inc()
				log.Warn().Err(err).Str("title", r.Title).Msg("Catalog lookup failed")
			}
			if rec == nil {
				if err == nil {
					enrichLookupsTotal.WithLabelValues("no_match").Inc()
					log.Debug().Str("title", r.Title).Int("year", r.Year).Msg("No catalog match")
				}
				return nil
			}
			enrichLookupsTotal.WithLabelValues("matched").Inc()
			slots[i] = rec
			return nil
		})
	}
	_ = g.Wait()

	out := make([]model.EnrichedRecommendation, 0, len(raw))
	for _, rec := range slots {
		if rec != nil {
			out = append(out, *rec)
		}
	}
	return out, !failed.Load()
}

// catalogsFor returns the catalogs to search for a raw type
func catalogsFor(t model.RecommendationType) []model.MediaType {
	switch t {
	case model.TypeTV:
		return []model.MediaType{model.MediaTV}
	case model.TypeAnime:
		// anime is reported unreliably as movie or series
		return []model.MediaType{model.MediaMovie, model.MediaTV}
	}
	return []model.MediaType{model.MediaMovie}
}

// resolve returns nil without error when no catalog matches
func (e *Enricher) resolve(ctx context.Context, raw model.RawRecommendation) (*model.EnrichedRecommendation, error) {
	var (
		candidates []model.CatalogHit
		lastErr    error
	)
	for _, kind := range catalogsFor(raw.Type) {
		hit, ok, err := e.lookup(ctx, kind, raw.Title, raw.Year)
		if err != nil {
			lastErr = err
			continue
		}
		if ok {
			candidates = append(candidates, hit)
		}
	}
	if len(candidates) == 0 {
		return nil, lastErr
	}

	best := candidates[0]
	if len(candidates) > 1 {
		best = pickAcrossCatalogs(candidates, raw.Year)
	}
	rec := toEnriched(best, raw)
	return &rec, lastErr
}

// lookup searches one catalog, relaxing the year when it finds nothing
func (e *Enricher) lookup(ctx context.Context, kind model.MediaType, title string, year int) (model.CatalogHit, bool, error) {
	hits, err := e.catalog.SearchByTitle(ctx, kind, title, year)
	if err != nil {
		return model.CatalogHit{}, false, fmt.Errorf("search %s %q: %w", kind, title, err)
	}
	if len(hits) == 0 && year > 0 {
		hits, err = e.catalog.SearchByTitle(ctx, kind, title, 0)
		if err != nil {
			return model.CatalogHit{}, false, fmt.Errorf("search %s %q: %w", kind, title, err)
		}
	}
	if len(hits) == 0 {
		return model.CatalogHit{}, false, nil
	}
	return bestHit(hits, title, year), true, nil
}

// bestHit prefers an exact release-year match, then the top search result
func bestHit(hits []model.CatalogHit, title string, year int) model.CatalogHit {
	if year > 0 {
		bestIdx, bestScore := -1, -1
		for i, h := range hits {
			if h.Year != year {
				continue
			}
			if s := titleScore(h, title); s > bestScore {
				bestIdx, bestScore = i, s
			}
		}
		if bestIdx >= 0 {
			return hits[bestIdx]
		}
	}
	return hits[0]
}

func titleScore(h model.CatalogHit, title string) int {
	want := strings.ToLower(strings.TrimSpace(title))
	for _, got := range []string{h.Title, h.OriginalTitle} {
		if strings.ToLower(got) == want {
			return 2
		}
	}
	got := strings.ToLower(h.Title)
	if got != "" && (strings.Contains(got, want) || strings.Contains(want, got)) {
		return 1
	}
	return 0
}

// pickAcrossCatalogs chooses between movie and tv matches for an anime title
func pickAcrossCatalogs(candidates []model.CatalogHit, year int) model.CatalogHit {
	for _, c := range candidates {
		if c.ContentType() == model.ContentAnime {
			return c
		}
	}
	if year > 0 {
		for _, c := range candidates {
			if c.Year == year {
				return c
			}
		}
	}
	return candidates[0]
}

func toEnriched(hit model.CatalogHit, raw model.RawRecommendation) model.EnrichedRecommendation {
	year := hit.Year
	if year == 0 {
		year = raw.Year
	}
	genres := hit.GenreIDs
	if genres == nil {
		genres = []int{}
	}
	return model.EnrichedRecommendation{
		CatalogID:        hit.ID,
		Title:            hit.Title,
		Year:             year,
		MediaType:        hit.MediaType,
		ContentType:      hit.ContentType(),
		PosterPath:       hit.PosterPath,
		BackdropPath:     hit.BackdropPath,
		VoteAverage:      hit.VoteAverage,
		VoteCount:        hit.VoteCount,
		Overview:         hit.Overview,
		Popularity:       hit.Popularity,
		GenreIDs:         genres,
		OriginalLanguage: hit.OriginalLanguage,
		Reason:           strings.TrimSpace(raw.Reason),
	}
}

// attachChannels is best effort: a failed lookup leaves the item without channels
func (e *Enricher) attachChannels(ctx context.Context, recs []model.EnrichedRecommendation) {
	if e.channels == nil || len(recs) == 0 {
		return
	}
	var g errgroup.Group
	for i := range recs {
		g.Go(func() error {
			ids, err := e.channels.GetChannelsForTitle(ctx, recs[i].MediaType, recs[i].CatalogID)
			if err != nil {
				log.Debug().Err(err).Int("id", recs[i].CatalogID).Msg("Channel lookup failed")
				return nil
			}
			if len(ids) > 0 {
				recs[i].DistributionChannelIDs = ids
			}
			return nil
		})
	}
	_ = g.Wait()
}

// entryKey identifies an entry; movie and tv ids share one number space
type entryKey struct {
	kind model.MediaType
	id   int
}

// dedupe keeps the first occurrence of each catalog entry
func dedupe(recs []model.EnrichedRecommendation) []model.EnrichedRecommendation {
	seen := make(map[entryKey]struct{}, len(recs))
	out := recs[:0]
	for _, r := range recs {
		key := entryKey{r.MediaType, r.CatalogID}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}

// applyFilter drops excluded ids and unrequested content types and fills in
// missing reasons. Callers exclude by bare catalog id, so an excluded id drops
// both the movie and the tv entry carrying it. It never mutates the input.
func applyFilter(recs []model.EnrichedRecommendation, f Filter) []model.EnrichedRecommendation {
	allowed := make(map[model.ContentType]bool, len(f.ContentTypes))
	for _, ct := range f.ContentTypes {
		allowed[ct] = true
	}

	out := make([]model.EnrichedRecommendation, 0, len(recs))
	for _, r := range recs {
		if _, excluded := f.ExcludeIDs[r.CatalogID]; excluded {
			continue
		}
		if len(allowed) > 0 && !allowed[r.ContentType] {
			continue
		}
		if r.Reason == "" {
			r.Reason = intent.GenerateReasonFromIntent(f.Intent, model.CatalogHit{Year: r.Year, VoteAverage: r.VoteAverage})
		}
		out = append(out, r)
	}
	return out
}

// memoKey hashes the normalized (title, year, type) list
func memoKey(raw []model.RawRecommendation) string {
	h := sha256.New()
	for _, r := range raw {
		fmt.Fprintf(h, "%s|%d|%s\n", strings.ToLower(strings.TrimSpace(r.Title)), r.Year, r.Type)
	}
	return MemoKeyPrefix + hex.EncodeToString(h.Sum(nil))[:32]
}
