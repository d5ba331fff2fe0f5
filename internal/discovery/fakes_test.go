package discovery

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"flickpick-discovery-service/internal/model"
)

var fastRetry = RetryPolicy{
	MaxRetries:      2,
	InitialInterval: time.Millisecond,
	Multiplier:      2,
	MaxInterval:     5 * time.Millisecond,
}

// scriptedProvider answers from fn; call counts from zero
type scriptedProvider struct {
	name      string
	available bool
	fn        func(call int) ([]model.RawRecommendation, error)
	calls     int32
}

func (p *scriptedProvider) Name() string                         { return p.name }
func (p *scriptedProvider) IsAvailable(ctx context.Context) bool { return p.available }
func (p *scriptedProvider) GetRecommendations(ctx context.Context, prompt string, contentTypes []model.ContentType) ([]model.RawRecommendation, error) {
	n := atomic.AddInt32(&p.calls, 1) - 1
	return p.fn(int(n))
}

func (p *scriptedProvider) callCount() int { return int(atomic.LoadInt32(&p.calls)) }

func returns(recs ...model.RawRecommendation) func(int) ([]model.RawRecommendation, error) {
	return func(int) ([]model.RawRecommendation, error) { return recs, nil }
}

func fails(err error) func(int) ([]model.RawRecommendation, error) {
	return func(int) ([]model.RawRecommendation, error) { return nil, err }
}

func raw(title string, year int, t model.RecommendationType) model.RawRecommendation {
	return model.RawRecommendation{Title: title, Year: year, Type: t, Reason: "Because."}
}

func hit(id int, title string, kind model.MediaType, year int) model.CatalogHit {
	return model.CatalogHit{ID: id, Title: title, MediaType: kind, Year: year, GenreIDs: []int{18}, OriginalLanguage: "en"}
}

// fakeCatalog resolves titles from a fixed table keyed by kind and lower-cased title
type fakeCatalog struct {
	mu         sync.Mutex
	hits       map[string][]model.CatalogHit
	errs       map[string]error
	strictYear bool
	calls      int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{hits: map[string][]model.CatalogHit{}, errs: map[string]error{}}
}

func catalogKey(kind model.MediaType, title string) string {
	return string(kind) + "|" + strings.ToLower(title)
}

func (f *fakeCatalog) add(h model.CatalogHit) *fakeCatalog {
	return f.addAs(h.Title, h)
}

func (f *fakeCatalog) addAs(query string, h model.CatalogHit) *fakeCatalog {
	key := catalogKey(h.MediaType, query)
	f.hits[key] = append(f.hits[key], h)
	return f
}

func (f *fakeCatalog) SearchByTitle(_ context.Context, kind model.MediaType, query string, yearHint int) ([]model.CatalogHit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	key := catalogKey(kind, query)
	if err := f.errs[key]; err != nil {
		return nil, err
	}
	hits := f.hits[key]
	if !f.strictYear || yearHint == 0 {
		return hits, nil
	}
	var out []model.CatalogHit
	for _, h := range hits {
		if h.Year == yearHint {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeCatalog) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeChannels struct {
	ids  map[int][]int
	fail map[int]bool
}

func (f *fakeChannels) GetChannelsForTitle(_ context.Context, _ model.MediaType, id int) ([]int, error) {
	if f.fail[id] {
		return nil, errors.New("watch providers down")
	}
	return f.ids[id], nil
}
