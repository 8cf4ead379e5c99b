package analysis

import (
	"fmt"
	"time"

	"github.com/danielolaszy/triage/internal/rules"
	"github.com/danielolaszy/triage/pkg/models"
)

// LifecycleLimits are the tunable thresholds for lifecycle classification.
type LifecycleLimits struct {
	// StalenessDays is the age of the last update after which an open
	// issue is considered stale.
	StalenessDays int

	// ReproducibilityThreshold is the quality score below which an
	// issue needs more information.
	ReproducibilityThreshold int

	// HighConfidenceMargin is how far below the threshold the score
	// must fall for a HIGH-confidence needs-info call.
	HighConfidenceMargin int
}

// DefaultLifecycleLimits are the documented defaults: 90-day staleness
// window, reproducibility threshold of 50.
var DefaultLifecycleLimits = LifecycleLimits{
	StalenessDays:            90,
	ReproducibilityThreshold: 50,
	HighConfidenceMargin:     25,
}

// ClassifyLifecycle assigns a lifecycle state using the default limits.
func ClassifyLifecycle(n models.NormalizedIssue, quality models.QualityBreakdown, triage models.TriageClassification, now time.Time) models.LifecycleClassification {
	return ClassifyLifecycleWithLimits(n, quality, triage, now, DefaultLifecycleLimits)
}

// ClassifyLifecycleWithLimits evaluates the lifecycle rules in strict
// precedence order, first match wins:
//
//  1. blocked  - a blocking-dependency pattern matches, whatever the scores
//  2. stale    - open with no updates inside the staleness window
//  3. needs-info - reproducibility below threshold
//  4. actionable - everything else
//
// Dependency and staleness signals are structural and deliberately
// override content-quality judgments. When both a blocking pattern and
// the staleness age hold, blocked wins.
func ClassifyLifecycleWithLimits(n models.NormalizedIssue, quality models.QualityBreakdown, triage models.TriageClassification, now time.Time, limits LifecycleLimits) models.LifecycleClassification {
	tables := rules.Load()

	body := ""
	if n.Issue != nil {
		body = n.Issue.Body
	}
	for _, pattern := range tables.BlockingPatterns() {
		if pattern.MatchString(body) {
			return models.LifecycleClassification{
				State:      models.StateBlocked,
				Confidence: models.ConfidenceHigh,
				Reasons:    []string{"dependency reference found"},
			}
		}
	}

	if n.Issue != nil && n.Issue.State != "closed" {
		if last := lastActivity(n.Issue); last != nil {
			age := now.Sub(*last)
			if age > time.Duration(limits.StalenessDays)*24*time.Hour {
				return models.LifecycleClassification{
					State:      models.StateStale,
					Confidence: models.ConfidenceHigh,
					Reasons:    []string{fmt.Sprintf("no updates within staleness window (%d days)", limits.StalenessDays)},
				}
			}
		}
	}

	if quality.Reproducibility < limits.ReproducibilityThreshold {
		confidence := models.ConfidenceMedium
		if limits.ReproducibilityThreshold-quality.Reproducibility >= limits.HighConfidenceMargin {
			confidence = models.ConfidenceHigh
		}
		return models.LifecycleClassification{
			State:      models.StateNeedsInfo,
			Confidence: confidence,
			Reasons:    []string{"missing key issue sections"},
		}
	}

	return models.LifecycleClassification{
		State:      models.StateActionable,
		Confidence: models.ConfidenceMedium,
		Reasons:    []string{"no blocking, staleness or information-gap signals"},
	}
}

// lastActivity prefers the update timestamp, falling back to creation.
// Issues with neither carry no age evidence and never go stale.
func lastActivity(issue *models.Issue) *time.Time {
	if issue.UpdatedAt != nil {
		return issue.UpdatedAt
	}
	return issue.CreatedAt
}
