package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"flickpick-discovery-service/internal/model"
	"flickpick-discovery-service/pkg/httpclient"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memFlags is an in-memory FlagStore
type memFlags struct {
	mu    sync.Mutex
	flags map[string]time.Duration
	err   error
}

func newMemFlags() *memFlags {
	return &memFlags{flags: make(map[string]time.Duration)}
}

func (m *memFlags) GetFlag(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.flags[key]
	return ok, nil
}

func (m *memFlags) SetFlag(_ context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flags[key] = ttl
	return nil
}

func chatServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func chatBody(t *testing.T, content string) string {
	t.Helper()
	payload := map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	}
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return string(data)
}

func newTestDeepSeek(baseURL string, flags FlagStore) *OpenAICompat {
	return NewDeepSeek(OpenAICompatConfig{APIKey: "test-key", BaseURL: baseURL, Timeout: 2 * time.Second}, flags, time.Minute)
}

func TestBase_Status(t *testing.T) {
	flags := newMemFlags()

	unconfigured := NewDeepSeek(OpenAICompatConfig{}, flags, 0)
	assert.Equal(t, model.ProviderStatus{Name: "deepseek", Reason: "not configured"}, unconfigured.Status(context.Background()))
	assert.False(t, unconfigured.IsAvailable(context.Background()))

	configured := newTestDeepSeek("http://unused", flags)
	assert.True(t, configured.IsAvailable(context.Background()))

	require.NoError(t, flags.SetFlag(context.Background(), ThrottleKey("deepseek"), time.Minute))
	assert.Equal(t, "rate limited", configured.Status(context.Background()).Reason)
	assert.False(t, configured.IsAvailable(context.Background()))
}

func TestBase_FlagReadErrorCountsAsAvailable(t *testing.T) {
	flags := newMemFlags()
	flags.err = errors.New("redis down")

	p := newTestDeepSeek("http://unused", flags)
	assert.True(t, p.IsAvailable(context.Background()))
}

func TestOpenAICompat_Success(t *testing.T) {
	content := "```json\n[{\"title\": \"Primer\", \"year\": 2004, \"type\": \"movie\", \"reason\": \"Time travel.\"}, {\"name\": \"Dark\", \"year\": 2017, \"type\": \"tv\"}]\n```"
	srv := chatServer(t, http.StatusOK, chatBody(t, content))

	recs, err := newTestDeepSeek(srv.URL, newMemFlags()).GetRecommendations(context.Background(), "mind-bending sci-fi", nil)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, model.RawRecommendation{Title: "Primer", Year: 2004, Type: model.TypeMovie, Reason: "Time travel."}, recs[0])
	assert.Equal(t, model.TypeTV, recs[1].Type)
}

func TestOpenAICompat_UnparseableTextIsEmpty(t *testing.T) {
	srv := chatServer(t, http.StatusOK, chatBody(t, "Sorry, I can't help with that."))

	recs, err := newTestDeepSeek(srv.URL, newMemFlags()).GetRecommendations(context.Background(), "anything", nil)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestOpenAICompat_RateLimitedSetsThrottle(t *testing.T) {
	srv := chatServer(t, http.StatusTooManyRequests, `{"error": {"message": "rate limit reached"}}`)
	flags := newMemFlags()
	p := newTestDeepSeek(srv.URL, flags)

	_, err := p.GetRecommendations(context.Background(), "anything", nil)
	require.Error(t, err)
	assert.Equal(t, KindRateLimited, KindOf(err))
	assert.False(t, IsRetryable(err))

	limited, _ := flags.GetFlag(context.Background(), "ratelimit:deepseek")
	assert.True(t, limited)
	assert.Equal(t, time.Minute, flags.flags["ratelimit:deepseek"])
	assert.False(t, p.IsAvailable(context.Background()))
}

func TestOpenAICompat_ErrorKinds(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantKind  Kind
		retryable bool
	}{
		{"insufficient balance", http.StatusPaymentRequired, `{"error": {"message": "Insufficient Balance"}}`, KindQuota, false},
		{"bad key", http.StatusUnauthorized, `{"error": {"message": "invalid api key"}}`, KindConfiguration, false},
		{"server error", http.StatusBadGateway, `upstream down`, KindTransient, true},
		{"quota via 429", http.StatusTooManyRequests, `{"error": {"type": "insufficient_quota"}}`, KindQuota, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := chatServer(t, tt.status, tt.body)
			flags := newMemFlags()

			_, err := newTestDeepSeek(srv.URL, flags).GetRecommendations(context.Background(), "anything", nil)
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, KindOf(err))
			assert.Equal(t, tt.retryable, IsRetryable(err))
			assert.Empty(t, flags.flags)

			se, ok := httpclient.AsStatusError(err)
			require.True(t, ok)
			assert.Equal(t, tt.status, se.StatusCode)
		})
	}
}

func TestOpenAICompat_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	p := NewDeepSeek(OpenAICompatConfig{APIKey: "k", BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, nil, 0)
	_, err := p.GetRecommendations(context.Background(), "anything", nil)
	require.Error(t, err)
	assert.Equal(t, KindTransient, KindOf(err))
	assert.True(t, IsRetryable(err))
}

func TestNotConfigured(t *testing.T) {
	chain := DefaultChain(ChainConfig{}, newMemFlags(), &fakeDiscoverer{})
	require.Len(t, chain, 5)

	for _, p := range chain[:4] {
		assert.False(t, p.IsAvailable(context.Background()), p.Name())
		_, err := p.GetRecommendations(context.Background(), "anything", nil)
		assert.Equal(t, KindConfiguration, KindOf(err), p.Name())
		assert.ErrorIs(t, err, ErrNotConfigured)
	}
	assert.True(t, chain[4].IsAvailable(context.Background()))
}

func TestDefaultChain_Order(t *testing.T) {
	chain := DefaultChain(ChainConfig{}, nil, &fakeDiscoverer{})
	names := make([]string, 0, len(chain))
	for _, p := range chain {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{"gemini", "claude", "tastedive", "deepseek", "tmdb-discover"}, names)

	p, ok := Find(chain, "tastedive")
	require.True(t, ok)
	assert.Equal(t, "tastedive", p.Name())
	_, ok = Find(chain, "nope")
	assert.False(t, ok)
}

func TestClassifyStatus(t *testing.T) {
	assert.Equal(t, KindQuota, classifyStatus(http.StatusBadRequest, "Your credit balance is too low"))
	assert.Equal(t, KindTransient, classifyStatus(http.StatusBadRequest, "bad prompt"))
	assert.Equal(t, KindConfiguration, classifyStatus(http.StatusForbidden, ""))
	assert.Equal(t, KindTransient, classifyStatus(http.StatusServiceUnavailable, ""))
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(context.Canceled))
	assert.True(t, IsRetryable(context.DeadlineExceeded))
	assert.True(t, IsRetryable(errors.New("connection reset")))
	assert.False(t, IsRetryable(newError("x", KindParse, errors.New("no text"))))
}

func TestBuildSystemPrompt(t *testing.T) {
	assert.Contains(t, buildSystemPrompt(nil), "all acceptable")
	got := buildSystemPrompt([]model.ContentType{model.ContentTV, model.ContentAnime})
	assert.Contains(t, got, "Only recommend TV series or anime.")
	assert.Contains(t, got, `"title"`)
}
