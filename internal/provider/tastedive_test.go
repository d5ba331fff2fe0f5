package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"flickpick-discovery-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractReferenceTitle(t *testing.T) {
	tests := []struct {
		prompt string
		want   string
	}{
		{"mind-bending sci-fi like Inception", "Inception"},
		{"shows similar to Breaking Bad but funnier", "Breaking Bad"},
		{"something like \"The Matrix\".", "The Matrix"},
		{"I'd like something cozy", ""},
		{"I would like a comedy like Superbad", "Superbad"},
		{"cozy anime for a rainy day", ""},
		{"Like Parasite, with more comedy", "Parasite"},
	}
	for _, tt := range tests {
		t.Run(tt.prompt, func(t *testing.T) {
			assert.Equal(t, tt.want, extractReferenceTitle(tt.prompt))
		})
	}
}

func TestTasteDiveType(t *testing.T) {
	assert.Equal(t, "movie", tasteDiveType([]model.ContentType{model.ContentMovie}))
	assert.Equal(t, "show", tasteDiveType([]model.ContentType{model.ContentTV}))
	assert.Empty(t, tasteDiveType([]model.ContentType{model.ContentTV, model.ContentMovie}))
	assert.Empty(t, tasteDiveType([]model.ContentType{model.ContentAnime}))
	assert.Empty(t, tasteDiveType(nil))
}

func TestTasteDive_GetRecommendations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/similar", r.URL.Path)
		assert.Equal(t, "Inception", r.URL.Query().Get("q"))
		assert.Equal(t, "td-key", r.URL.Query().Get("k"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"Similar": {
			"Info": [{"Name": "Inception", "Type": "movie"}],
			"Results": [
				{"Name": "Interstellar", "Type": "movie"},
				{"Name": "Westworld", "Type": "show"},
				{"Name": "Hans Zimmer", "Type": "music"},
				{"Name": " ", "Type": "movie"}
			]
		}}`))
	}))
	defer srv.Close()

	td := NewTasteDive(TasteDiveConfig{APIKey: "td-key", BaseURL: srv.URL, Timeout: 2 * time.Second}, nil, 0)
	recs, err := td.GetRecommendations(context.Background(), "mind-bending sci-fi like Inception", nil)
	require.NoError(t, err)
	assert.Equal(t, []model.RawRecommendation{
		{Title: "Interstellar", Type: model.TypeMovie, Reason: "Because you liked Inception"},
		{Title: "Westworld", Type: model.TypeTV, Reason: "Because you liked Inception"},
	}, recs)
}

func TestTasteDive_NoReferenceSkipsCall(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	td := NewTasteDive(TasteDiveConfig{APIKey: "td-key", BaseURL: srv.URL}, nil, 0)
	recs, err := td.GetRecommendations(context.Background(), "cozy anime for a rainy day", nil)
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestTasteDive_ErrorPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": "Invalid API key"}`))
	}))
	defer srv.Close()

	td := NewTasteDive(TasteDiveConfig{APIKey: "bad", BaseURL: srv.URL}, nil, 0)
	_, err := td.GetRecommendations(context.Background(), "like Alien", nil)
	require.Error(t, err)
	assert.Equal(t, KindConfiguration, KindOf(err))
}
