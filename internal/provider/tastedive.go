package provider

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"flickpick-discovery-service/internal/model"
	"flickpick-discovery-service/pkg/httpclient"

	"github.com/rs/zerolog/log"
)

// TasteDiveConfig configures the taste-similarity adapter
type TasteDiveConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// TasteDive recommends titles similar to a reference title named in the prompt
type TasteDive struct {
	base
	baseURL string
	apiKey  string
	client  *httpclient.Client
}

// NewTasteDive creates the TasteDive adapter
func NewTasteDive(cfg TasteDiveConfig, flags FlagStore, throttleTTL time.Duration) *TasteDive {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://tastedive.com/api"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &TasteDive{
		base:    newBase("tastedive", cfg.APIKey != "", cfg.Timeout, flags, throttleTTL),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  httpclient.NewClient(httpclient.WithTimeout(cfg.Timeout)),
		apiKey:  cfg.APIKey,
	}
}

type tasteDiveItem struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// field names are matched case-insensitively, so both the "Similar"/"Results"
// and the lower-case variants of the payload decode here
type tasteDiveResponse struct {
	Similar struct {
		Info    []tasteDiveItem `json:"info"`
		Results []tasteDiveItem `json:"results"`
	} `json:"similar"`
	Error string `json:"error"`
}

// GetRecommendations queries TasteDive for the reference title. A prompt
// without one yields an empty list.
func (t *TasteDive) GetRecommendations(ctx context.Context, prompt string, contentTypes []model.ContentType) ([]model.RawRecommendation, error) {
	if !t.configured {
		return nil, t.notConfigured()
	}
	reference := extractReferenceTitle(prompt)
	if reference == "" {
		log.Debug().Str("provider", t.name).Msg("No reference title in prompt")
		return []model.RawRecommendation{}, nil
	}

	ctx, cancel := t.withTimeout(ctx)
	defer cancel()

	params := url.Values{}
	params.Set("q", reference)
	params.Set("limit", fmt.Sprint(recommendationCount))
	params.Set("k", t.apiKey)
	if kind := tasteDiveType(contentTypes); kind != "" {
		params.Set("type", kind)
	}

	started := time.Now()
	var resp tasteDiveResponse
	if err := t.client.GetJSON(ctx, t.baseURL+"/similar?"+params.Encode(), nil, &resp); err != nil {
		return nil, t.fail(ctx, classify(t.name, err))
	}
	if resp.Error != "" {
		kind := KindTransient
		if strings.Contains(strings.ToLower(resp.Error), "key") {
			kind = KindConfiguration
		}
		return nil, newError(t.name, kind, fmt.Errorf("tastedive: %s", resp.Error))
	}

	reason := "Because you liked " + reference
	recs := make([]model.RawRecommendation, 0, len(resp.Similar.Results))
	for _, item := range resp.Similar.Results {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			continue
		}
		var recType model.RecommendationType
		switch strings.ToLower(item.Type) {
		case "movie", "":
			recType = model.TypeMovie
		case "show":
			recType = model.TypeTV
		default:
			// music, books, games
			continue
		}
		recs = append(recs, model.RawRecommendation{Title: name, Type: recType, Reason: reason})
	}

	log.Info().
		Str("provider", t.name).
		Str("reference", reference).
		Int("count", len(recs)).
		Dur("latency", time.Since(started)).
		Msg("🤖 Provider responded")
	return recs, nil
}

// tasteDiveType narrows the query when the caller wants a single catalog
func tasteDiveType(contentTypes []model.ContentType) string {
	movie, tv := false, false
	for _, ct := range contentTypes {
		switch ct {
		case model.ContentMovie:
			movie = true
		case model.ContentTV:
			tv = true
		default:
			// animation and anime live in both catalogs
			return ""
		}
	}
	switch {
	case movie && !tv:
		return "movie"
	case tv && !movie:
		return "show"
	}
	return ""
}

var (
	referencePattern = regexp.MustCompile(`(?i)(?:^|\s)(similar to|like)\s+([^,.;!?]+)`)
	referenceTail    = regexp.MustCompile(`(?i)\s+(?:but|with|and|for|that|which|or|except|only|please)\b.*$`)
)

// subjects that turn "like" into a verb ("I'd like something cozy")
var likeSubjects = map[string]bool{
	"i": true, "i'd": true, "we": true, "we'd": true, "you": true,
	"they": true, "would": true, "don't": true, "dont": true, "really": true,
}

// extractReferenceTitle finds the title in "like X" / "similar to X"
func extractReferenceTitle(prompt string) string {
	for offset := 0; offset < len(prompt); {
		m := referencePattern.FindStringSubmatchIndex(prompt[offset:])
		if m == nil {
			return ""
		}
		markerStart, markerEnd := offset+m[2], offset+m[3]
		if strings.EqualFold(prompt[markerStart:markerEnd], "like") {
			before := strings.Fields(strings.ToLower(prompt[:markerStart]))
			if len(before) > 0 && likeSubjects[before[len(before)-1]] {
				offset = markerEnd
				continue
			}
		}
		ref := referenceTail.ReplaceAllString(prompt[offset+m[4]:offset+m[5]], "")
		ref = strings.Trim(strings.TrimSpace(ref), `"'“”`)
		if ref != "" {
			return ref
		}
		offset = offset + m[1]
	}
	return ""
}
