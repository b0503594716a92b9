package identify

import (
	"math"
	"strings"

	"github.com/fpang/broll-media-cli/internal/clip"
)

// Component weights for the relevance score.
const (
	tagWeight     = 0.5
	descWeight    = 0.3
	qualityWeight = 0.2
)

// RecommendThreshold marks the score at which a clip is worth surfacing.
const RecommendThreshold = 0.70

// RelevanceScore rates a candidate against the script keywords.
// Tag and description matches each contribute the fraction of keywords
// matched, capped at 1.0, and visual quality contributes its weight.
// Keywords match tags by substring, descriptions by containment, both
// case-insensitive. The result is rounded to two decimals.
func RelevanceScore(c clip.Candidate, keywords []string) float64 {
	normalized := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			normalized = append(normalized, kw)
		}
	}
	if len(normalized) == 0 {
		return round2(c.VisualQuality.Weight() * qualityWeight)
	}

	tags := make([]string, len(c.Tags))
	for i, t := range c.Tags {
		tags[i] = strings.ToLower(t)
	}
	tagMatches := 0
	for _, kw := range normalized {
		for _, tag := range tags {
			if strings.Contains(tag, kw) {
				tagMatches++
				break
			}
		}
	}

	desc := strings.ToLower(c.Description)
	descMatches := 0
	for _, kw := range normalized {
		if strings.Contains(desc, kw) {
			descMatches++
		}
	}

	n := float64(len(normalized))
	tagScore := math.Min(float64(tagMatches)/n, 1.0) * tagWeight
	descScore := math.Min(float64(descMatches)/n, 1.0) * descWeight
	qualityScore := c.VisualQuality.Weight() * qualityWeight

	return round2(tagScore + descScore + qualityScore)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
