package intent

import (
	"fmt"
	"strings"
	"time"

	"flickpick-discovery-service/internal/model"
)

const genericReason = "A popular choice that fits what you're looking for."

// GenerateReasonFromIntent explains why item was picked for intent.
func GenerateReasonFromIntent(intent model.ParsedIntent, item model.CatalogHit) string {
	return generateReason(intent, item, time.Now().Year())
}

func generateReason(intent model.ParsedIntent, item model.CatalogHit, currentYear int) string {
	var parts []string

	if len(intent.Keywords) > 0 {
		kw := intent.Keywords
		if len(kw) > 2 {
			kw = kw[:2]
		}
		parts = append(parts, "Matches your interest in "+strings.Join(kw, " and "))
	}
	if intent.Mood != "" {
		parts = append(parts, fmt.Sprintf("Fits a %s mood", intent.Mood))
	}
	if tier := ratingTier(item.VoteAverage); tier != "" {
		parts = append(parts, tier)
	}
	if era := eraTier(item.Year, currentYear); era != "" {
		parts = append(parts, era)
	}

	if len(parts) == 0 {
		return genericReason
	}
	return strings.Join(parts, ". ") + "."
}

func ratingTier(vote float64) string {
	switch {
	case vote >= 8:
		return fmt.Sprintf("Critically acclaimed at %.1f/10", vote)
	case vote >= 7:
		return fmt.Sprintf("Highly rated at %.1f/10", vote)
	case vote >= 6:
		return fmt.Sprintf("Well received at %.1f/10", vote)
	}
	return ""
}

func eraTier(year, currentYear int) string {
	switch {
	case year <= 0:
		return ""
	case year >= currentYear-recentWindow:
		return "A recent release"
	case year < 1980:
		return fmt.Sprintf("A timeless classic from %d", year)
	case year < 2000:
		return fmt.Sprintf("A %ds favorite", year/10%10*10)
	}
	return ""
}
