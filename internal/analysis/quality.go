package analysis

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/danielolaszy/triage/internal/rules"
	"github.com/danielolaszy/triage/pkg/models"
)

var exclamationRunRe = regexp.MustCompile(`!{2,}`)

// ScoreQuality computes the four-axis quality breakdown for a normalized
// issue. Every rule that moves a score appends a human-readable reason;
// all axes are clamped to [0,100].
func ScoreQuality(n models.NormalizedIssue) models.QualityBreakdown {
	var reasons []string

	completeness := scoreCompleteness(n, &reasons)
	clarity := scoreClarity(n, &reasons)
	reproducibility := scoreReproducibility(n, &reasons)
	noise := scoreNoise(n, &reasons)

	return models.QualityBreakdown{
		Completeness:    clamp(completeness),
		Clarity:         clamp(clarity),
		Reproducibility: clamp(reproducibility),
		Noise:           clamp(noise),
		Reasons:         reasons,
	}
}

// scoreCompleteness rewards presence of canonical sections: 20 points
// each, 100 when all five are present.
func scoreCompleteness(n models.NormalizedIssue, reasons *[]string) int {
	present := 0
	for _, key := range models.CanonicalSections {
		if _, ok := n.Sections[key]; ok {
			present++
		}
	}
	if present == 0 {
		*reasons = append(*reasons, "completeness: no canonical sections found")
		return 0
	}
	*reasons = append(*reasons, fmt.Sprintf("completeness: %d of %d canonical sections present", present, len(models.CanonicalSections)))
	return present * 20
}

// scoreClarity starts from a structural baseline and rewards section
// presence and sentence-like text, penalizing shouting.
func scoreClarity(n models.NormalizedIssue, reasons *[]string) int {
	body := ""
	if n.Issue != nil {
		body = n.Issue.Body
	}

	score := 40
	if len(n.Sections) > 0 {
		bonus := 10 * len(n.Sections)
		if bonus > 50 {
			bonus = 50
		}
		score += bonus
		*reasons = append(*reasons, "clarity: structured sections present")
	}
	if strings.Contains(body, ". ") || strings.Count(body, "\n") >= 3 {
		score += 10
		*reasons = append(*reasons, "clarity: sentence-like structure")
	}
	if runs := len(exclamationRunRe.FindAllString(body, -1)); runs > 0 {
		penalty := 10 * runs
		if penalty > 30 {
			penalty = 30
		}
		score -= penalty
		*reasons = append(*reasons, "clarity: excessive exclamation marks")
	}
	if ratio, letters := capsRatio(body); letters >= 20 && ratio > 0.3 {
		score -= 20
		*reasons = append(*reasons, "clarity: excessive capitalization")
	}
	return score
}

// scoreReproducibility is high only when both reproduction steps and
// log/trace evidence are present.
func scoreReproducibility(n models.NormalizedIssue, reasons *[]string) int {
	_, hasRepro := n.Sections[models.SectionReproductionSteps]
	_, hasLogs := n.Sections[models.SectionLogs]
	hasEvidence := hasLogs || n.HasCodeFence

	switch {
	case hasRepro && hasEvidence:
		*reasons = append(*reasons, "reproducibility: reproduction steps and log evidence present")
		return 95
	case hasRepro:
		*reasons = append(*reasons, "reproducibility: reproduction steps without log evidence")
		return 40
	case hasEvidence:
		*reasons = append(*reasons, "reproducibility: log evidence without reproduction steps")
		return 30
	default:
		*reasons = append(*reasons, "reproducibility: no reproduction steps or log evidence")
		return 0
	}
}

// scoreNoise is the inverse axis: spam keywords, shouting and very short
// bodies raise it, a real stack trace suppresses it.
func scoreNoise(n models.NormalizedIssue, reasons *[]string) int {
	tables := rules.Load()

	title, body := "", ""
	if n.Issue != nil {
		title, body = n.Issue.Title, n.Issue.Body
	}
	lowered := strings.ToLower(title + "\n" + body)

	score := 0
	for _, phrase := range tables.SpamPhrases {
		if strings.Contains(lowered, phrase) {
			score += 30
			*reasons = append(*reasons, fmt.Sprintf("noise: spam phrase %q", phrase))
		}
	}

	keywordHits := 0
	words := fieldsSet(lowered)
	for _, kw := range tables.NoiseKeywords {
		if words[kw] {
			keywordHits++
		}
	}
	if keywordHits > 0 {
		bonus := 15 * keywordHits
		if bonus > 45 {
			bonus = 45
		}
		score += bonus
		*reasons = append(*reasons, fmt.Sprintf("noise: %d low-effort keywords", keywordHits))
	}

	if exclamationRunRe.MatchString(body) {
		score += 15
		*reasons = append(*reasons, "noise: exclamation runs")
	}
	if ratio, letters := capsRatio(body); letters >= 10 && ratio > 0.3 {
		score += 15
		*reasons = append(*reasons, "noise: excessive capitalization")
	}
	if len(strings.TrimSpace(body)) < minBodyLength {
		score += 30
		*reasons = append(*reasons, "noise: very short body")
	}

	// A short body containing a real stack trace is not noise.
	if hasTraceEvidence(n) && score > 20 {
		score = 20
		*reasons = append(*reasons, "noise: suppressed, stack trace present")
	}
	return score
}

func capsRatio(s string) (float64, int) {
	upper, letters := 0, 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	if letters == 0 {
		return 0, 0
	}
	return float64(upper) / float64(letters), letters
}

func fieldsSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, f := range strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		set[f] = true
	}
	return set
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
