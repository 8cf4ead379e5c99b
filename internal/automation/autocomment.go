// Package automation decides whether the tool should comment on an issue
// based on the analysis result and the governance mode. It is the only
// place the governance mode is interpreted; the analysis core just
// carries it through.
package automation

import (
	"fmt"
	"strings"

	"github.com/danielolaszy/triage/internal/analysis"
	"github.com/danielolaszy/triage/pkg/models"
)

// CommentMarker tags every auto-comment so a prior comment suppresses
// repeats. Changing it orphans existing markers; don't.
const CommentMarker = "<!-- triage:auto-comment -->"

// Decision is the outcome of the auto-comment policy for one issue.
type Decision struct {
	ShouldComment bool
	Body          string
	Reason        string
}

// Decide applies the governance-gated auto-comment policy:
//
//   - dry-run never comments
//   - strict comments only on needs-info issues
//   - aggressive comments on needs-info and stale issues and includes
//     label suggestions
//
// A previous comment carrying the marker always suppresses a new one.
func Decide(mode models.GovernanceMode, a models.IssueAnalysis) Decision {
	if hasMarker(a.Normalized.Issue) {
		return Decision{Reason: "auto-comment marker already present"}
	}

	switch mode {
	case models.GovernanceDryRun:
		return Decision{Reason: "dry-run mode never comments"}
	case models.GovernanceStrict:
		if a.Lifecycle.State != models.StateNeedsInfo {
			return Decision{Reason: "strict mode only comments on needs-info issues"}
		}
	case models.GovernanceAggressive:
		if a.Lifecycle.State != models.StateNeedsInfo && a.Lifecycle.State != models.StateStale {
			return Decision{Reason: "no comment trigger for this lifecycle state"}
		}
	default:
		return Decision{Reason: fmt.Sprintf("unknown governance mode %q", mode)}
	}

	return Decision{
		ShouldComment: true,
		Body:          renderComment(mode, a),
		Reason:        fmt.Sprintf("lifecycle state %s triggered a comment", a.Lifecycle.State),
	}
}

// renderComment builds the comment body: the dedupe marker, a checklist
// of what is missing, and the rules that fired so the decision is
// auditable by the reporter.
func renderComment(mode models.GovernanceMode, a models.IssueAnalysis) string {
	var b strings.Builder

	b.WriteString(CommentMarker)
	b.WriteString("\n")
	fmt.Fprintf(&b, "Thanks for the report! This issue is currently classified as `%s`.\n\n", a.Lifecycle.State)

	if missing := analysis.MissingSections(a.Normalized); len(missing) > 0 {
		b.WriteString("To make it actionable, please add:\n\n")
		for _, item := range missing {
			fmt.Fprintf(&b, "- [ ] %s\n", item)
		}
		b.WriteString("\n")
	}

	if mode == models.GovernanceAggressive && len(a.Labels) > 0 {
		names := make([]string, len(a.Labels))
		for i, label := range a.Labels {
			names[i] = label.Name
		}
		fmt.Fprintf(&b, "Suggested labels: %s\n\n", strings.Join(names, ", "))
	}

	b.WriteString("Explainability rules referenced:\n")
	for _, reason := range a.Lifecycle.Reasons {
		fmt.Fprintf(&b, "- %s\n", reason)
	}
	for _, reason := range a.Quality.Reasons {
		fmt.Fprintf(&b, "- %s\n", reason)
	}

	return b.String()
}

func hasMarker(issue *models.Issue) bool {
	if issue == nil {
		return false
	}
	for _, comment := range issue.Comments {
		if strings.Contains(comment.Body, CommentMarker) {
			return true
		}
	}
	return false
}
