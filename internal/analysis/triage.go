package analysis

import (
	"strings"

	"github.com/danielolaszy/triage/internal/rules"
	"github.com/danielolaszy/triage/pkg/models"
)

// ClassifyTriage assigns a category and confidence by matching the title,
// body and extracted sections against category-indicative phrase sets.
// Confidence grows with the number of matched phrases. Ties resolve to
// bug when error phrasing is present, otherwise to a lowest-confidence
// question.
func ClassifyTriage(n models.NormalizedIssue) models.TriageClassification {
	tables := rules.Load()

	var sb strings.Builder
	if n.Issue != nil {
		sb.WriteString(n.Issue.Title)
		sb.WriteString("\n")
		sb.WriteString(n.Issue.Body)
	}
	for _, key := range models.CanonicalSections {
		if text, ok := n.Sections[key]; ok {
			sb.WriteString("\n")
			sb.WriteString(text)
		}
	}
	text := strings.ToLower(sb.String())

	bugHits := countPhrases(text, tables.BugPhrases)
	featureHits := countPhrases(text, tables.FeaturePhrases)
	supportHits := countPhrases(text, tables.SupportPhrases)
	interrogative := strings.Contains(text, "?")

	switch {
	case bugHits > 0 && bugHits >= featureHits && bugHits >= supportHits:
		return models.TriageClassification{
			Category:   models.CategoryBug,
			Confidence: phraseConfidence(bugHits),
			Reasons:    []string{"error/bug phrasing"},
		}
	case featureHits > 0 && featureHits >= supportHits:
		return models.TriageClassification{
			Category:   models.CategoryFeature,
			Confidence: phraseConfidence(featureHits),
			Reasons:    []string{"feature request phrasing"},
		}
	case supportHits > 0:
		return models.TriageClassification{
			Category:   models.CategorySupport,
			Confidence: phraseConfidence(supportHits),
			Reasons:    []string{"support/how-to phrasing"},
		}
	case interrogative:
		return models.TriageClassification{
			Category:   models.CategoryQuestion,
			Confidence: 0.4,
			Reasons:    []string{"interrogative phrasing without error markers"},
		}
	default:
		return models.TriageClassification{
			Category:   models.CategoryQuestion,
			Confidence: 0.25,
			Reasons:    []string{"no category phrasing matched"},
		}
	}
}

func countPhrases(text string, phrases []string) int {
	hits := 0
	for _, p := range phrases {
		if strings.Contains(text, p) {
			hits++
		}
	}
	return hits
}

// phraseConfidence maps a match count into [0,1]: more and stronger
// matches mean higher confidence, capped below certainty.
func phraseConfidence(hits int) float64 {
	c := 0.5 + 0.15*float64(hits)
	if c > 0.95 {
		c = 0.95
	}
	return c
}
