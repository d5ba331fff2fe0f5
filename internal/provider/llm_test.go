package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"flickpick-discovery-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const recsJSON = `[{"title": "Arrival", "year": 2016, "type": "movie", "reason": "Language as time."}]`

func TestGemini_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, ":generateContent"), r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), "application/json")

		w.Header().Set("Content-Type", "application/json")
		resp := map[string]interface{}{
			"candidates": []map[string]interface{}{{
				"content": map[string]interface{}{
					"role":  "model",
					"parts": []map[string]string{{"text": recsJSON}},
				},
				"finishReason": "STOP",
			}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	g := NewGemini(GeminiConfig{APIKey: "k", BaseURL: srv.URL, Timeout: 5 * time.Second}, nil, 0)
	recs, err := g.GetRecommendations(context.Background(), "thoughtful sci-fi", nil)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, model.RawRecommendation{Title: "Arrival", Year: 2016, Type: model.TypeMovie, Reason: "Language as time."}, recs[0])
}

func TestGemini_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"code": 429, "message": "Resource has been exhausted", "status": "RESOURCE_EXHAUSTED"}}`))
	}))
	defer srv.Close()

	flags := newMemFlags()
	g := NewGemini(GeminiConfig{APIKey: "k", BaseURL: srv.URL, Timeout: 5 * time.Second}, flags, 30*time.Second)
	_, err := g.GetRecommendations(context.Background(), "anything", nil)
	require.Error(t, err)
	assert.Equal(t, KindRateLimited, KindOf(err))

	assert.Equal(t, 30*time.Second, flags.flags["ratelimit:gemini"])
	assert.False(t, g.IsAvailable(context.Background()))
}

func claudeServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "k", r.Header.Get("X-Api-Key"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClaude_Success(t *testing.T) {
	text, _ := json.Marshal("Here you go:\n```json\n" + recsJSON + "\n```")
	body := `{
		"id": "msg_01",
		"type": "message",
		"role": "assistant",
		"model": "claude-3-5-haiku-latest",
		"content": [{"type": "text", "text": ` + string(text) + `}],
		"stop_reason": "end_turn",
		"usage": {"input_tokens": 10, "output_tokens": 20}
	}`
	srv := claudeServer(t, http.StatusOK, body)

	c := NewClaude(ClaudeConfig{APIKey: "k", BaseURL: srv.URL, Timeout: 5 * time.Second}, nil, 0)
	recs, err := c.GetRecommendations(context.Background(), "thoughtful sci-fi", nil)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Arrival", recs[0].Title)
}

func TestClaude_CreditBalanceIsQuota(t *testing.T) {
	body := `{"type": "error", "error": {"type": "invalid_request_error", "message": "Your credit balance is too low to access the Anthropic API."}}`
	srv := claudeServer(t, http.StatusBadRequest, body)
	flags := newMemFlags()

	c := NewClaude(ClaudeConfig{APIKey: "k", BaseURL: srv.URL, Timeout: 5 * time.Second}, flags, 0)
	_, err := c.GetRecommendations(context.Background(), "anything", nil)
	require.Error(t, err)
	assert.Equal(t, KindQuota, KindOf(err))
	assert.False(t, IsRetryable(err))
	assert.Empty(t, flags.flags)
}

func TestClaude_Overloaded(t *testing.T) {
	srv := claudeServer(t, 529, `{"type": "error", "error": {"type": "overloaded_error", "message": "Overloaded"}}`)

	c := NewClaude(ClaudeConfig{APIKey: "k", BaseURL: srv.URL, Timeout: 5 * time.Second}, nil, 0)
	_, err := c.GetRecommendations(context.Background(), "anything", nil)
	require.Error(t, err)
	assert.Equal(t, KindTransient, KindOf(err))
	assert.True(t, IsRetryable(err))
}
