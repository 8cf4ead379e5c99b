package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/danielolaszy/triage/pkg/models"
)

func lifecycleIssue(state string, lastUpdate *time.Time, body string) models.NormalizedIssue {
	issue := &models.Issue{
		Number:    1,
		Title:     "Something",
		Body:      body,
		State:     state,
		UpdatedAt: lastUpdate,
	}
	return Normalize(issue)
}

func TestClassifyLifecycle(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	recent := now.AddDate(0, 0, -5)
	old := now.AddDate(0, 0, -120)

	tests := []struct {
		name            string
		issue           models.NormalizedIssue
		reproducibility int
		wantState       models.LifecycleState
		wantConfidence  models.Confidence
		wantReason      string
	}{
		{
			name:            "Blocked by dependency reference",
			issue:           lifecycleIssue("open", &recent, "Blocked by #12, cannot proceed"),
			reproducibility: 90,
			wantState:       models.StateBlocked,
			wantConfidence:  models.ConfidenceHigh,
			wantReason:      "dependency reference found",
		},
		{
			name:            "Blocked wins over stale",
			issue:           lifecycleIssue("open", &old, "This depends on #7"),
			reproducibility: 90,
			wantState:       models.StateBlocked,
			wantConfidence:  models.ConfidenceHigh,
			wantReason:      "dependency reference found",
		},
		{
			name:            "Stale open issue",
			issue:           lifecycleIssue("open", &old, "Still reproducible on latest release"),
			reproducibility: 90,
			wantState:       models.StateStale,
			wantConfidence:  models.ConfidenceHigh,
			wantReason:      "no updates within staleness window (90 days)",
		},
		{
			name:            "Closed issue never goes stale",
			issue:           lifecycleIssue("closed", &old, "Still reproducible on latest release"),
			reproducibility: 90,
			wantState:       models.StateActionable,
			wantConfidence:  models.ConfidenceMedium,
			wantReason:      "no blocking, staleness or information-gap signals",
		},
		{
			name:            "No timestamps never goes stale",
			issue:           lifecycleIssue("open", nil, "Still reproducible on latest release"),
			reproducibility: 90,
			wantState:       models.StateActionable,
			wantConfidence:  models.ConfidenceMedium,
			wantReason:      "no blocking, staleness or information-gap signals",
		},
		{
			name:            "Needs info far below threshold",
			issue:           lifecycleIssue("open", &recent, "it does not start"),
			reproducibility: 10,
			wantState:       models.StateNeedsInfo,
			wantConfidence:  models.ConfidenceHigh,
			wantReason:      "missing key issue sections",
		},
		{
			name:            "Needs info just below threshold",
			issue:           lifecycleIssue("open", &recent, "it does not start"),
			reproducibility: 40,
			wantState:       models.StateNeedsInfo,
			wantConfidence:  models.ConfidenceMedium,
			wantReason:      "missing key issue sections",
		},
		{
			name:            "Actionable",
			issue:           lifecycleIssue("open", &recent, "Full report with everything attached"),
			reproducibility: 80,
			wantState:       models.StateActionable,
			wantConfidence:  models.ConfidenceMedium,
			wantReason:      "no blocking, staleness or information-gap signals",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quality := models.QualityBreakdown{Reproducibility: tt.reproducibility}
			triage := models.TriageClassification{Category: models.CategoryBug}
			got := ClassifyLifecycle(tt.issue, quality, triage, now)

			assert.Equal(t, tt.wantState, got.State)
			assert.Equal(t, tt.wantConfidence, got.Confidence)
			assert.Contains(t, got.Reasons, tt.wantReason)
		})
	}
}

func TestClassifyLifecycleCustomStalenessWindow(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	updated := now.AddDate(0, 0, -45)
	issue := lifecycleIssue("open", &updated, "Still reproducible on latest release")
	quality := models.QualityBreakdown{Reproducibility: 90}
	triage := models.TriageClassification{Category: models.CategoryBug}

	limits := DefaultLifecycleLimits
	limits.StalenessDays = 30
	got := ClassifyLifecycleWithLimits(issue, quality, triage, now, limits)
	assert.Equal(t, models.StateStale, got.State)
	assert.Contains(t, got.Reasons, "no updates within staleness window (30 days)")

	limits.StalenessDays = 60
	got = ClassifyLifecycleWithLimits(issue, quality, triage, now, limits)
	assert.Equal(t, models.StateActionable, got.State)
}

func TestClassifyLifecycleFallsBackToCreationTime(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	created := now.AddDate(0, 0, -120)
	issue := Normalize(&models.Issue{
		Number:    1,
		Title:     "Old report",
		Body:      "Still reproducible on latest release",
		State:     "open",
		CreatedAt: &created,
	})
	quality := models.QualityBreakdown{Reproducibility: 90}
	got := ClassifyLifecycle(issue, quality, models.TriageClassification{}, now)
	assert.Equal(t, models.StateStale, got.State)
}
