package provider

import (
	"fmt"
	"strings"

	"flickpick-discovery-service/internal/model"
)

// recommendationCount is how many titles generative providers are asked for
const recommendationCount = 10

const systemPrompt = `You are a film and television recommendation engine.
Given a viewer's request, recommend %d titles that fit it.
%s
Respond with JSON only: an array of objects with exactly these fields:
  "title"  the official English title
  "year"   release year (first air year for series) as a number
  "type"   one of "movie", "tv", "anime"
  "reason" one sentence on why it fits the request
No prose, no markdown, no numbering.`

// buildSystemPrompt renders the shared instruction for the requested content types
func buildSystemPrompt(contentTypes []model.ContentType) string {
	return fmt.Sprintf(systemPrompt, recommendationCount, contentConstraint(contentTypes))
}

func contentConstraint(contentTypes []model.ContentType) string {
	if len(contentTypes) == 0 {
		return "Movies, TV series and anime are all acceptable."
	}
	labels := make([]string, 0, len(contentTypes))
	for _, ct := range contentTypes {
		switch ct {
		case model.ContentMovie:
			labels = append(labels, "movies")
		case model.ContentTV:
			labels = append(labels, "TV series")
		case model.ContentAnimation:
			labels = append(labels, "animated titles")
		case model.ContentAnime:
			labels = append(labels, "anime")
		}
	}
	if len(labels) == 0 {
		return "Movies, TV series and anime are all acceptable."
	}
	return "Only recommend " + strings.Join(labels, " or ") + "."
}

func buildUserPrompt(prompt string) string {
	return "Viewer request: " + strings.TrimSpace(prompt)
}
