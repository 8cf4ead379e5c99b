package analysis

import (
	"fmt"
	"strings"

	"github.com/danielolaszy/triage/pkg/models"
)

// missingSectionChecklist maps canonical sections to the checklist labels
// shown to reporters.
var missingSectionChecklist = map[models.SectionKey]string{
	models.SectionReproductionSteps: "Reproduction steps",
	models.SectionExpectedBehavior:  "Expected behavior",
	models.SectionActualBehavior:    "Actual behavior",
	models.SectionEnvironment:       "Environment details",
	models.SectionLogs:              "Logs / stack trace",
}

// RecommendActions derives follow-up actions for maintainers from the
// per-issue phase results.
func RecommendActions(n models.NormalizedIssue, lifecycle models.LifecycleClassification, duplicates *models.DuplicateLink) models.MaintainerAction {
	var actions []string

	switch lifecycle.State {
	case models.StateNeedsInfo:
		actions = append(actions, "Request reproduction steps")
	case models.StateBlocked:
		actions = append(actions, "Follow up on the blocking dependency")
	case models.StateStale:
		actions = append(actions, "Ping the reporter or close as stale")
	default:
		actions = append(actions, "Review")
	}
	if duplicates != nil {
		actions = append(actions, fmt.Sprintf("Review possible duplicates: %s", joinIssueRefs(duplicates.LikelyDuplicatesOf)))
	}
	if n.IsLowSignal {
		actions = append(actions, "Consider closing as low-signal")
	}

	return models.MaintainerAction{RecommendedActions: actions}
}

// RecommendLabels suggests tracker labels: a type label from triage, a
// state label from lifecycle, and "triage" when the issue still needs a
// human look (low confidence or poor content).
func RecommendLabels(n models.NormalizedIssue, quality models.QualityBreakdown, triage models.TriageClassification, lifecycle models.LifecycleClassification) []models.LabelRecommendation {
	var labels []models.LabelRecommendation

	typeLabel := string(triage.Category)
	if triage.Category == models.CategorySupport {
		typeLabel = "support"
	}
	labels = append(labels, models.LabelRecommendation{
		Name:   typeLabel,
		Reason: fmt.Sprintf("triage category %q", triage.Category),
	})

	if lifecycle.State != models.StateActionable {
		labels = append(labels, models.LabelRecommendation{
			Name:   string(lifecycle.State),
			Reason: "lifecycle state",
		})
	}

	if triage.Confidence < 0.6 || quality.Completeness < 40 || quality.Noise >= 60 {
		labels = append(labels, models.LabelRecommendation{
			Name:   "triage",
			Reason: "low classification confidence or poor content quality",
		})
	}

	return labels
}

// RenderContributorGuide builds the per-issue markdown checklist telling
// the reporter exactly what is missing from their report.
func RenderContributorGuide(a models.IssueAnalysis, mode models.GovernanceMode) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Contributor guide for issue #%d\n\n", a.IssueNumber)
	fmt.Fprintf(&b, "Governance mode: `%s`\n\n", mode)
	fmt.Fprintf(&b, "Current lifecycle state: `%s` (%s confidence)\n\n", a.Lifecycle.State, a.Lifecycle.Confidence)

	missing := MissingSections(a.Normalized)
	if len(missing) > 0 {
		b.WriteString("## What this report still needs\n\n")
		for _, item := range missing {
			fmt.Fprintf(&b, "- [ ] %s\n", item)
		}
		b.WriteString("\n")
	} else {
		b.WriteString("All canonical sections are present. Thank you!\n\n")
	}

	if len(a.MaintainerAction.RecommendedActions) > 0 {
		b.WriteString("## Recommended maintainer actions\n\n")
		for _, action := range a.MaintainerAction.RecommendedActions {
			fmt.Fprintf(&b, "- %s\n", action)
		}
	}

	return b.String()
}

// MissingSections lists the checklist labels of canonical sections absent
// from the report, in canonical order.
func MissingSections(n models.NormalizedIssue) []string {
	var missing []string
	for _, key := range models.CanonicalSections {
		if _, ok := n.Sections[key]; !ok {
			missing = append(missing, missingSectionChecklist[key])
		}
	}
	return missing
}

func joinIssueRefs(numbers []int) string {
	refs := make([]string, len(numbers))
	for i, n := range numbers {
		refs[i] = fmt.Sprintf("#%d", n)
	}
	return strings.Join(refs, ", ")
}
