package parser

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"flickpick-discovery-service/internal/model"
)

// Accepted spellings per logical field, tried in order. Matching is
// case-insensitive, so "Title" and "TITLE" are covered by "title".
var (
	titleKeys  = []string{"title", "name", "movie", "show", "series", "original_title", "original_name"}
	yearKeys   = []string{"year", "release_year", "releaseyear", "release_date", "releasedate", "first_air_date", "first_air_year", "date"}
	typeKeys   = []string{"type", "media_type", "mediatype", "content_type", "contenttype", "kind", "category", "format"}
	reasonKeys = []string{"reason", "why", "explanation", "rationale", "description", "summary", "pitch"}
)

var yearPattern = regexp.MustCompile(`\b(1[89]\d{2}|20\d{2})\b`)

// normalizeElement maps one array element onto a RawRecommendation. Elements
// without a usable title are rejected.
func normalizeElement(raw json.RawMessage) (model.RawRecommendation, bool) {
	var title string
	if err := json.Unmarshal(raw, &title); err == nil {
		return fromBareTitle(title)
	}

	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return model.RawRecommendation{}, false
	}
	fields := foldKeys(obj)

	title = stringValue(pick(fields, titleKeys))
	title = strings.TrimSpace(title)
	if title == "" {
		return model.RawRecommendation{}, false
	}

	year := parseYear(pick(fields, yearKeys))
	if embedded := extractYearFromTitle(title); embedded != "" {
		if year == 0 {
			year, _ = strconv.Atoi(embedded)
		}
		if stripped := removeYearFromTitle(title); stripped != "" {
			title = stripped
		}
	}

	return model.RawRecommendation{
		Title:  title,
		Year:   year,
		Type:   parseType(stringValue(pick(fields, typeKeys))),
		Reason: strings.TrimSpace(stringValue(pick(fields, reasonKeys))),
	}, true
}

func fromBareTitle(title string) (model.RawRecommendation, bool) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.RawRecommendation{}, false
	}
	rec := model.RawRecommendation{Title: title, Type: model.TypeMovie}
	if embedded := extractYearFromTitle(title); embedded != "" {
		rec.Year, _ = strconv.Atoi(embedded)
		if stripped := removeYearFromTitle(title); stripped != "" {
			rec.Title = stripped
		}
	}
	return rec, true
}

// foldKeys lower-cases keys; an exactly lower-case key wins over a variant.
func foldKeys(obj map[string]interface{}) map[string]interface{} {
	folded := make(map[string]interface{}, len(obj))
	for k, v := range obj {
		lower := strings.ToLower(strings.TrimSpace(k))
		if _, exists := folded[lower]; exists && k != lower {
			continue
		}
		folded[lower] = v
	}
	return folded
}

func pick(fields map[string]interface{}, candidates []string) interface{} {
	for _, key := range candidates {
		if v, ok := fields[key]; ok && v != nil {
			if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
				continue
			}
			return v
		}
	}
	return nil
}

func stringValue(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

func parseYear(v interface{}) int {
	switch t := v.(type) {
	case float64:
		if t >= 1800 && t <= 2100 && t == math.Trunc(t) {
			return int(t)
		}
	case string:
		if m := yearPattern.FindString(t); m != "" {
			year, _ := strconv.Atoi(m)
			return year
		}
	}
	return 0
}

func parseType(s string) model.RecommendationType {
	t := strings.ToLower(strings.TrimSpace(s))
	switch t {
	case "movie", "film", "feature", "feature film", "movies":
		return model.TypeMovie
	case "tv", "tv show", "tv series", "tv_show", "tvshow", "show", "series", "miniseries", "mini-series", "tv-series", "television":
		return model.TypeTV
	case "anime", "anime series", "anime movie", "anime film":
		return model.TypeAnime
	}
	if strings.Contains(t, "anime") {
		return model.TypeAnime
	}
	return model.TypeMovie
}

// extractYearFromTitle returns the year from a trailing "(YYYY)"
func extractYearFromTitle(title string) string {
	for i := len(title) - 1; i >= 4; i-- {
		if title[i] == ')' {
			start := i - 5
			if start >= 0 && title[start] == '(' {
				year := title[start+1 : i]
				if len(year) == 4 && isDigits(year) {
					return year
				}
			}
		}
	}
	return ""
}

func removeYearFromTitle(title string) string {
	for i := len(title) - 1; i >= 4; i-- {
		if title[i] == ')' {
			start := i - 5
			if start >= 0 && title[start] == '(' {
				year := title[start+1 : i]
				if len(year) == 4 && isDigits(year) {
					return strings.TrimSpace(title[:start])
				}
			}
		}
	}
	return title
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
