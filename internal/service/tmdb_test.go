package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"flickpick-discovery-service/internal/model"
	"flickpick-discovery-service/pkg/httpclient"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTMDB(t *testing.T, handler http.HandlerFunc, keys ...string) *TMDBService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	if len(keys) == 0 {
		keys = []string{"key-a"}
	}
	return NewTMDBService(TMDBConfig{APIKeys: keys, BaseURL: srv.URL, ImageBase: "https://img/t/p/w500"})
}

func TestTMDB_SearchByTitleMovie(t *testing.T) {
	svc := newTestTMDB(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/movie", r.URL.Path)
		assert.Equal(t, "Inception", r.URL.Query().Get("query"))
		assert.Equal(t, "2010", r.URL.Query().Get("primary_release_year"))
		assert.Equal(t, "en-US", r.URL.Query().Get("language"))
		assert.Equal(t, "Bearer key-a", r.Header.Get("Authorization"))
		w.Write([]byte(`{"page": 1, "results": [{
			"id": 27205, "title": "Inception", "original_title": "Inception",
			"release_date": "2010-07-15", "genre_ids": [28, 878],
			"original_language": "en", "popularity": 80.5,
			"vote_average": 8.4, "vote_count": 35000,
			"poster_path": "/p.jpg", "backdrop_path": "", "overview": "Dreams."
		}]}`))
	})

	hits, err := svc.SearchByTitle(context.Background(), model.MediaMovie, "Inception", 2010)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, model.CatalogHit{
		ID: 27205, MediaType: model.MediaMovie, Title: "Inception", OriginalTitle: "Inception",
		Year: 2010, GenreIDs: []int{28, 878}, OriginalLanguage: "en", Popularity: 80.5,
		VoteAverage: 8.4, VoteCount: 35000, PosterPath: "https://img/t/p/w500/p.jpg", Overview: "Dreams.",
	}, hits[0])
}

func TestTMDB_SearchByTitleTV(t *testing.T) {
	svc := newTestTMDB(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/tv", r.URL.Path)
		assert.Equal(t, "2019", r.URL.Query().Get("first_air_date_year"))
		w.Write([]byte(`{"results": [{
			"id": 85937, "name": "Demon Slayer", "original_name": "鬼滅の刃",
			"first_air_date": "2019-04-06", "genre_ids": [16, 10759],
			"original_language": "ja", "origin_country": ["JP"]
		}]}`))
	})

	hits, err := svc.SearchByTitle(context.Background(), model.MediaTV, "Demon Slayer", 2019)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Demon Slayer", hits[0].Title)
	assert.Equal(t, 2019, hits[0].Year)
	assert.Equal(t, model.ContentAnime, hits[0].ContentType())
}

func TestTMDB_DiscoverParams(t *testing.T) {
	params := discoverParams(model.MediaMovie, model.DiscoverQuery{
		Genres: []int{27, 878}, YearGte: 1990, YearLte: 1999, MinRating: 7.5,
		MinVotes: 200, SortBy: "vote_average.desc", Language: "ko",
	})
	assert.Equal(t, "27,878", params.Get("with_genres"))
	assert.Equal(t, "1990-01-01", params.Get("primary_release_date.gte"))
	assert.Equal(t, "1999-12-31", params.Get("primary_release_date.lte"))
	assert.Equal(t, "7.5", params.Get("vote_average.gte"))
	assert.Equal(t, "200", params.Get("vote_count.gte"))
	assert.Empty(t, params.Get("vote_count.lte"))
	assert.Equal(t, "vote_average.desc", params.Get("sort_by"))
	assert.Equal(t, "ko", params.Get("with_original_language"))

	params = discoverParams(model.MediaTV, model.DiscoverQuery{Genres: []int{16, 35}, AnyGenre: true, YearGte: 2023, MaxVotes: 1500})
	assert.Equal(t, "16|35", params.Get("with_genres"))
	assert.Equal(t, "2023-01-01", params.Get("first_air_date.gte"))
	assert.Equal(t, "1500", params.Get("vote_count.lte"))
	assert.Equal(t, "popularity.desc", params.Get("sort_by"))
}

func TestTMDB_Discover(t *testing.T) {
	svc := newTestTMDB(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/discover/tv", r.URL.Path)
		w.Write([]byte(`{"results": [{"id": 1, "name": "Mushishi", "first_air_date": "2005-10-22", "genre_ids": [16]}]}`))
	})

	hits, err := svc.Discover(context.Background(), model.MediaTV, model.DiscoverQuery{Genres: []int{16}})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, model.MediaTV, hits[0].MediaType)
	assert.Equal(t, 2005, hits[0].Year)
}

func TestTMDB_GetChannelsForTitle(t *testing.T) {
	svc := newTestTMDB(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movie/27205/watch/providers", r.URL.Path)
		w.Write([]byte(`{"id": 27205, "results": {
			"US": {"flatrate": [{"provider_id": 8, "provider_name": "Netflix"}, {"provider_id": 337}]},
			"GB": {"flatrate": [{"provider_id": 9}]}
		}}`))
	})

	ids, err := svc.GetChannelsForTitle(context.Background(), model.MediaMovie, 27205)
	require.NoError(t, err)
	assert.Equal(t, []int{8, 337}, ids)
}

func TestTMDB_KeyRotation(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	svc := newTestTMDB(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get("Authorization"))
		mu.Unlock()
		w.Write([]byte(`{"results": []}`))
	}, "a", "b")

	for i := 0; i < 3; i++ {
		_, err := svc.SearchByTitle(context.Background(), model.MediaMovie, "x", 0)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"Bearer a", "Bearer b", "Bearer a"}, seen)
	assert.Equal(t, 2, svc.KeyCount())
}

func TestTMDB_NotConfigured(t *testing.T) {
	svc := NewTMDBService(TMDBConfig{BaseURL: "http://unused"})
	assert.False(t, svc.IsConfigured())

	_, err := svc.SearchByTitle(context.Background(), model.MediaMovie, "x", 0)
	assert.ErrorIs(t, err, ErrTMDBNotConfigured)
}

func TestTMDB_StatusErrorPreserved(t *testing.T) {
	svc := newTestTMDB(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := svc.Discover(context.Background(), model.MediaMovie, model.DiscoverQuery{})
	se, ok := httpclient.AsStatusError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
}
