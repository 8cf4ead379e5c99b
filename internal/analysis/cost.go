package analysis

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/danielolaszy/triage/pkg/models"
)

var fileTokenRe = regexp.MustCompile(`\b[\w./-]*\w\.(?:go|py|js|jsx|ts|tsx|java|rb|c|h|cc|cpp|rs|php|cs|swift|kt|yaml|yml|json|toml|ini|cfg|sh|sql|md|txt)\b`)

const (
	costManyFilesFloor = 3
	costShortBodyLimit = 600
	costLowReproFloor  = 75
)

// EstimateCost estimates the maintainer effort an issue will take.
// Signals are collected first and exposed verbatim on the result so every
// threshold decision can be audited.
func EstimateCost(n models.NormalizedIssue, quality models.QualityBreakdown) models.MaintainerCostEstimate {
	body := ""
	if n.Issue != nil {
		body = n.Issue.Body
	}
	_, hasRepro := n.Sections[models.SectionReproductionSteps]

	signals := models.CostSignals{
		DistinctFilesMentioned: countDistinctFiles(body),
		HasReproductionSteps:   hasRepro,
		Reproducibility:        quality.Reproducibility,
		Noise:                  quality.Noise,
		BodyLength:             len(body),
	}

	var level models.CostLevel
	var reasons []string
	switch {
	case signals.DistinctFilesMentioned >= costManyFilesFloor && !signals.HasReproductionSteps:
		level = models.CostHigh
		reasons = append(reasons,
			fmt.Sprintf("%d distinct files mentioned", signals.DistinctFilesMentioned),
			"missing reproduction steps")
	case signals.Reproducibility >= costLowReproFloor && signals.BodyLength < costShortBodyLimit:
		level = models.CostLow
		reasons = append(reasons, "reproducible with a concise report")
	default:
		level = models.CostMedium
		reasons = append(reasons, "no strong cost signal either way")
	}

	return models.MaintainerCostEstimate{
		Level:   level,
		Reasons: reasons,
		Signals: signals,
	}
}

func countDistinctFiles(body string) int {
	seen := make(map[string]bool)
	for _, tok := range fileTokenRe.FindAllString(body, -1) {
		seen[strings.ToLower(tok)] = true
	}
	return len(seen)
}
