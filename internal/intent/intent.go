// Package intent extracts structured discovery filters from a free-text
// prompt. It is pure keyword and pattern matching; nothing here touches the
// network.
package intent

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"flickpick-discovery-service/internal/model"
)

var (
	explicitRange = regexp.MustCompile(`\b((?:19|20)\d{2})\s*(?:-|–|to|and|through|thru|until)\s*((?:19|20)\d{2})\b`)
	lowerBound    = regexp.MustCompile(`\b(after|since|post|from)\s+((?:19|20)\d{2})\b`)
	upperBound    = regexp.MustCompile(`\b(before|until|till|pre|prior to)\s+((?:19|20)\d{2})\b`)
	fullDecade    = regexp.MustCompile(`\b((?:19|20)\d0)'?s\b`)
	shortDecade   = regexp.MustCompile(`(?:^|[^\d'])'?(\d0)'?s\b`)
)

var (
	recentTokens  = []string{"recent", "latest", "newest", "new release", "new releases", "this year"}
	classicTokens = []string{"classic", "classics", "old school", "old-school", "vintage", "golden age"}
)

const (
	recentWindow   = 3
	classicCeiling = 1999
)

// Parse extracts a ParsedIntent from prompt. A non-empty hint lists the
// content types the caller already knows the user wants and overrides the
// media type found in the prompt.
func Parse(prompt string, hint []model.ContentType) model.ParsedIntent {
	return ParseAt(prompt, hint, time.Now())
}

// ParseAt is Parse with an explicit clock for relative year qualifiers.
func ParseAt(prompt string, hint []model.ContentType, now time.Time) model.ParsedIntent {
	text := strings.ToLower(strings.TrimSpace(prompt))

	genres, keywords := extractGenres(text)
	intent := model.ParsedIntent{
		Genres:              genres,
		Keywords:            keywords,
		MediaTypePreference: detectMediaType(text, hint),
		Mood:                extractMood(text),
		LanguageHint:        extractLanguage(text),
		YearRange:           extractYearRange(text, now.Year()),
	}
	applyQualityBar(text, &intent)
	return intent
}

func detectMediaType(text string, hint []model.ContentType) model.MediaPreference {
	if pref, ok := preferenceFromHint(hint); ok {
		return pref
	}
	if containsAny(text, tvTokens) {
		return model.PreferTV
	}
	if containsAny(text, movieTokens) {
		return model.PreferMovie
	}
	return model.PreferBoth
}

func preferenceFromHint(hint []model.ContentType) (model.MediaPreference, bool) {
	if len(hint) == 0 {
		return "", false
	}
	var movie, tv, either bool
	for _, ct := range hint {
		switch ct {
		case model.ContentMovie:
			movie = true
		case model.ContentTV:
			tv = true
		default:
			either = true
		}
	}
	switch {
	case either || (movie && tv):
		return model.PreferBoth, true
	case tv:
		return model.PreferTV, true
	case movie:
		return model.PreferMovie, true
	}
	return "", false
}

func extractGenres(text string) ([]int, []string) {
	seen := make(map[int]bool)
	genres := []int{}
	keywords := []string{}
	for _, gk := range genreKeywords {
		if !hasPhrase(text, gk.keyword) {
			continue
		}
		keywords = append(keywords, gk.keyword)
		for _, id := range gk.genres {
			if !seen[id] {
				seen[id] = true
				genres = append(genres, id)
			}
		}
	}
	sort.Ints(genres)
	return genres, keywords
}

func extractMood(text string) string {
	for _, bucket := range moodBuckets {
		if containsAny(text, bucket.keywords) {
			return bucket.mood
		}
	}
	return ""
}

func extractLanguage(text string) string {
	for _, lk := range languageKeywords {
		if hasPhrase(text, lk.keyword) {
			return lk.code
		}
	}
	return ""
}

// extractYearRange checks explicit ranges, open bounds, decades and relative
// qualifiers in that order; the first layer that matches wins.
func extractYearRange(text string, currentYear int) *model.YearRange {
	if m := explicitRange.FindStringSubmatch(text); m != nil {
		from, _ := strconv.Atoi(m[1])
		to, _ := strconv.Atoi(m[2])
		if from > to {
			from, to = to, from
		}
		return &model.YearRange{Gte: from, Lte: to}
	}

	var bounded model.YearRange
	if m := lowerBound.FindStringSubmatch(text); m != nil {
		year, _ := strconv.Atoi(m[2])
		if m[1] == "after" || m[1] == "post" {
			year++
		}
		bounded.Gte = year
	}
	if m := upperBound.FindStringSubmatch(text); m != nil {
		year, _ := strconv.Atoi(m[2])
		if m[1] == "before" || m[1] == "pre" || m[1] == "prior to" {
			year--
		}
		bounded.Lte = year
	}
	if bounded.Gte != 0 || bounded.Lte != 0 {
		return &bounded
	}

	if m := fullDecade.FindStringSubmatch(text); m != nil {
		start, _ := strconv.Atoi(m[1])
		return &model.YearRange{Gte: start, Lte: start + 9}
	}
	if m := shortDecade.FindStringSubmatch(text); m != nil {
		d, _ := strconv.Atoi(m[1])
		start := 1900 + d
		if d <= currentYear%100 {
			start = 2000 + d
		}
		return &model.YearRange{Gte: start, Lte: start + 9}
	}

	if containsAny(text, recentTokens) {
		return &model.YearRange{Gte: currentYear - recentWindow}
	}
	if containsAny(text, classicTokens) {
		return &model.YearRange{Lte: classicCeiling}
	}
	return nil
}

// applyQualityBar sets the rating floor and sort order. Acclaim language
// and hidden-gem language both raise the floor; popularity language forces
// popularity ordering.
func applyQualityBar(text string, intent *model.ParsedIntent) {
	if containsAny(text, acclaimTokens) {
		intent.MinRating = acclaimMinRating
		intent.SortHint = SortRating
	}
	if containsAny(text, hiddenGemTerms) {
		if intent.MinRating < hiddenGemMinRating {
			intent.MinRating = hiddenGemMinRating
		}
		intent.HiddenGem = true
		intent.SortHint = SortRating
	}
	if containsAny(text, popularTokens) {
		intent.SortHint = SortPopularity
	}

	if intent.SortHint == "" {
		intent.SortHint = SortPopularity
		if intent.MinRating > 0 {
			intent.SortHint = SortRating
		}
	}
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if hasPhrase(text, p) {
			return true
		}
	}
	return false
}

// hasPhrase reports whether phrase occurs in text on word boundaries.
func hasPhrase(text, phrase string) bool {
	if phrase == "" {
		return false
	}
	for offset := 0; offset <= len(text)-len(phrase); {
		i := strings.Index(text[offset:], phrase)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(phrase)
		if (start == 0 || !isWordByte(text[start-1])) && (end == len(text) || !isWordByte(text[end])) {
			return true
		}
		offset = start + 1
	}
	return false
}

func isWordByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c >= 'A' && c <= 'Z'
}
