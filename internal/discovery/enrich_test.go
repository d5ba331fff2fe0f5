package discovery

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"flickpick-discovery-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrich_PreservesOrderAndDropsUnmatched(t *testing.T) {
	enricher := NewEnricher(standardCatalog(), nil, nil, 0)
	got := enricher.Enrich(context.Background(), []model.RawRecommendation{
		raw("The Wire", 2002, model.TypeTV),
		raw("Unknown", 1999, model.TypeMovie),
		raw("Heat", 1995, model.TypeMovie),
	}, Filter{})

	require.Len(t, got, 2)
	assert.Equal(t, "The Wire", got[0].Title)
	assert.Equal(t, model.ContentTV, got[0].ContentType)
	assert.Equal(t, "Heat", got[1].Title)
	assert.Equal(t, "Because.", got[1].Reason)
	assert.Equal(t, []int{18}, got[1].GenreIDs)
}

func TestEnrich_Empty(t *testing.T) {
	enricher := NewEnricher(standardCatalog(), nil, nil, 0)
	got := enricher.Enrich(context.Background(), nil, Filter{})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestEnrich_MemoHitSkipsCatalog(t *testing.T) {
	cache, _ := newRedis(t)
	catalog := standardCatalog()
	enricher := NewEnricher(catalog, nil, cache, time.Hour)
	ctx := context.Background()
	batch := []model.RawRecommendation{
		raw("Heat", 1995, model.TypeMovie),
		raw("Collateral", 2004, model.TypeMovie),
	}

	first := enricher.Enrich(ctx, batch, Filter{})
	require.Len(t, first, 2)
	calls := catalog.callCount()

	// exclusions apply on top of the memoized batch
	second := enricher.Enrich(ctx, batch, Filter{ExcludeIDs: map[int]struct{}{1: {}}})
	assert.Equal(t, calls, catalog.callCount())
	require.Len(t, second, 1)
	assert.Equal(t, 2, second[0].CatalogID)

	third := enricher.Enrich(ctx, batch, Filter{})
	assert.Equal(t, first, third)
}

func TestEnrich_PartialBatchNotMemoized(t *testing.T) {
	cache, mr := newRedis(t)
	catalog := standardCatalog()
	catalog.errs[catalogKey(model.MediaMovie, "Collateral")] = errors.New("catalog timeout")
	enricher := NewEnricher(catalog, nil, cache, time.Hour)

	got := enricher.Enrich(context.Background(), []model.RawRecommendation{
		raw("Heat", 1995, model.TypeMovie),
		raw("Collateral", 2004, model.TypeMovie),
	}, Filter{})

	require.Len(t, got, 1)
	for _, key := range mr.Keys() {
		assert.False(t, strings.HasPrefix(key, MemoKeyPrefix), key)
	}
}

func TestEnrich_ContentTypeFilterAndReasonFill(t *testing.T) {
	catalog := standardCatalog()
	enricher := NewEnricher(catalog, nil, nil, 0)
	batch := []model.RawRecommendation{
		{Title: "Heat", Year: 1995, Type: model.TypeMovie},
		raw("The Wire", 2002, model.TypeTV),
	}

	got := enricher.Enrich(context.Background(), batch, Filter{
		ContentTypes: []model.ContentType{model.ContentMovie},
		Intent:       model.ParsedIntent{Mood: "tense"},
	})
	require.Len(t, got, 1)
	assert.Equal(t, "Heat", got[0].Title)
	assert.True(t, strings.HasPrefix(got[0].Reason, "Fits a tense mood"), got[0].Reason)
}

func TestEnrich_Channels(t *testing.T) {
	channels := &fakeChannels{
		ids:  map[int][]int{1: {8, 337}},
		fail: map[int]bool{2: true},
	}
	enricher := NewEnricher(standardCatalog(), channels, nil, 0)

	got := enricher.Enrich(context.Background(), []model.RawRecommendation{
		raw("Heat", 1995, model.TypeMovie),
		raw("Collateral", 2004, model.TypeMovie),
	}, Filter{})

	require.Len(t, got, 2)
	assert.Equal(t, []int{8, 337}, got[0].DistributionChannelIDs)
	assert.Nil(t, got[1].DistributionChannelIDs)
}

func TestEnrich_AnimePrefersAnimeHit(t *testing.T) {
	catalog := newFakeCatalog().
		add(hit(10, "Cowboy Bebop", model.MediaMovie, 2021)).
		add(model.CatalogHit{ID: 11, Title: "Cowboy Bebop", MediaType: model.MediaTV, Year: 1998, GenreIDs: []int{16, 10759}, OriginCountry: []string{"JP"}})
	enricher := NewEnricher(catalog, nil, nil, 0)

	got := enricher.Enrich(context.Background(), []model.RawRecommendation{raw("Cowboy Bebop", 2021, model.TypeAnime)}, Filter{})
	require.Len(t, got, 1)
	assert.Equal(t, 11, got[0].CatalogID)
	assert.Equal(t, model.ContentAnime, got[0].ContentType)
	assert.Equal(t, model.MediaTV, got[0].MediaType)
}

func TestEnrich_YearRelaxed(t *testing.T) {
	catalog := newFakeCatalog().add(hit(7, "Heat", model.MediaMovie, 1995))
	catalog.strictYear = true
	enricher := NewEnricher(catalog, nil, nil, 0)

	got := enricher.Enrich(context.Background(), []model.RawRecommendation{raw("Heat", 1996, model.TypeMovie)}, Filter{})
	require.Len(t, got, 1)
	assert.Equal(t, 7, got[0].CatalogID)
	assert.Equal(t, 1995, got[0].Year)
	assert.Equal(t, 2, catalog.callCount())
}

func TestBestHit(t *testing.T) {
	hits := []model.CatalogHit{
		{ID: 1, Title: "Dune", Year: 1984},
		{ID: 2, Title: "Dune: Part Two", Year: 2021},
		{ID: 3, Title: "Dune", Year: 2021},
	}
	assert.Equal(t, 3, bestHit(hits, "Dune", 2021).ID)
	assert.Equal(t, 1, bestHit(hits, "Dune", 0).ID)
	assert.Equal(t, 1, bestHit(hits, "Dune", 1999).ID)
}

func TestMemoKey(t *testing.T) {
	a := memoKey([]model.RawRecommendation{raw("Heat", 1995, model.TypeMovie)})
	b := memoKey([]model.RawRecommendation{{Title: "  heat ", Year: 1995, Type: model.TypeMovie, Reason: "other"}})
	c := memoKey([]model.RawRecommendation{raw("Heat", 1995, model.TypeTV)})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.True(t, strings.HasPrefix(a, MemoKeyPrefix))
	assert.Len(t, a, len(MemoKeyPrefix)+32)
}

func TestDedupe_MovieAndTVShareID(t *testing.T) {
	recs := []model.EnrichedRecommendation{
		{CatalogID: 5, MediaType: model.MediaMovie, Title: "Movie Five"},
		{CatalogID: 5, MediaType: model.MediaTV, Title: "Show Five"},
		{CatalogID: 5, MediaType: model.MediaMovie, Title: "Movie Five again"},
	}
	got := dedupe(recs)
	require.Len(t, got, 2)
	assert.Equal(t, "Movie Five", got[0].Title)
	assert.Equal(t, "Show Five", got[1].Title)
}

func TestEnrich_SameIDAcrossCatalogsKeptApart(t *testing.T) {
	catalog := newFakeCatalog().
		add(hit(5, "Fargo", model.MediaMovie, 1996)).
		add(hit(5, "Fargo", model.MediaTV, 2014))
	enricher := NewEnricher(catalog, nil, nil, 0)
	batch := []model.RawRecommendation{
		raw("Fargo", 1996, model.TypeMovie),
		raw("Fargo", 2014, model.TypeTV),
	}

	got := enricher.Enrich(context.Background(), batch, Filter{})
	require.Len(t, got, 2)
	assert.Equal(t, model.MediaMovie, got[0].MediaType)
	assert.Equal(t, model.MediaTV, got[1].MediaType)

	// exclusion is by bare id and drops both
	got = enricher.Enrich(context.Background(), batch, Filter{ExcludeIDs: map[int]struct{}{5: {}}})
	assert.Empty(t, got)
}
