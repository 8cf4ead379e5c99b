package analysis

import (
	"fmt"

	"github.com/danielolaszy/triage/pkg/models"
)

// Playbook is a reusable maintainer response recipe. The catalog is
// closed; selection picks exactly one per issue.
type Playbook struct {
	Key        string   `json:"key"`
	Title      string   `json:"title"`
	WhenToUse  string   `json:"when_to_use"`
	Steps      []string `json:"steps"`
	NotCovered string   `json:"not_covered"`
}

// PlaybookSelection pairs the chosen playbook with the rules that chose
// it.
type PlaybookSelection struct {
	Playbook Playbook `json:"playbook"`
	Reasons  []string `json:"reasons"`
}

var (
	playbookMergeDuplicates = Playbook{
		Key:       "merge-duplicates",
		Title:     "Merge duplicate reports",
		WhenToUse: "The issue shares an error signature with at least one other open report.",
		Steps: []string{
			"Compare the error signatures and pick the best-documented report as canonical",
			"Link the others to it and close them as duplicates",
			"Carry over any unique reproduction details before closing",
		},
		NotCovered: "Deciding whether the underlying bug is valid; that happens on the canonical issue.",
	}
	playbookUnblock = Playbook{
		Key:       "unblock-dependency",
		Title:     "Follow up on a blocking dependency",
		WhenToUse: "The issue declares itself blocked by or waiting on another issue.",
		Steps: []string{
			"Check the state of the referenced blocking issue",
			"Ping its assignee or escalate if it has gone quiet",
			"Re-triage this issue once the blocker resolves",
		},
		NotCovered: "Working around the blocker; that is a scope decision for the issue itself.",
	}
	playbookRequestInfo = Playbook{
		Key:       "request-information",
		Title:     "Request missing information",
		WhenToUse: "The report lacks the reproduction steps or evidence needed to act on it.",
		Steps: []string{
			"Ask the reporter for the missing sections, listing them explicitly",
			"Apply the needs-info label and set a follow-up window",
			"Close politely if no response arrives within the window",
		},
		NotCovered: "Debugging from an incomplete report; wait for the information first.",
	}
	playbookStale = Playbook{
		Key:       "stale-followup",
		Title:     "Revive or close a stale issue",
		WhenToUse: "The issue is open with no activity inside the staleness window.",
		Steps: []string{
			"Check whether the problem still reproduces on the current release",
			"Ping the reporter asking if the issue is still relevant",
			"Close as stale if nobody responds",
		},
		NotCovered: "Issues kept open deliberately as trackers; exempt those from staleness.",
	}
	playbookRedirectSupport = Playbook{
		Key:       "redirect-support",
		Title:     "Answer or redirect a support question",
		WhenToUse: "The issue is a how-to or usage question rather than a defect report.",
		Steps: []string{
			"Answer briefly if the question is quick, linking the relevant docs",
			"Redirect to the discussion forum or support channel otherwise",
			"Note recurring questions as documentation gaps",
		},
		NotCovered: "Feature gaps surfaced by the question; file those separately.",
	}
	playbookInvestigate = Playbook{
		Key:       "investigate-bug",
		Title:     "Investigate an actionable report",
		WhenToUse: "The report is complete enough to reproduce and act on.",
		Steps: []string{
			"Reproduce using the steps and environment in the report",
			"Narrow the failure with the attached logs or trace",
			"Fix, reference the issue from the commit, and ask the reporter to verify",
		},
		NotCovered: "Prioritization; this playbook assumes the issue is already scheduled.",
	}
)

// Catalog lists every playbook in selection-precedence order.
func Catalog() []Playbook {
	return []Playbook{
		playbookMergeDuplicates,
		playbookUnblock,
		playbookRequestInfo,
		playbookStale,
		playbookRedirectSupport,
		playbookInvestigate,
	}
}

// SelectPlaybook picks the single most relevant playbook for an analyzed
// issue. Duplicate evidence outranks lifecycle state, lifecycle state
// outranks triage category, and every choice records why it was made.
func SelectPlaybook(a models.IssueAnalysis) PlaybookSelection {
	if a.Duplicates != nil {
		return PlaybookSelection{
			Playbook: playbookMergeDuplicates,
			Reasons: []string{
				fmt.Sprintf("duplicate link to %s", joinIssueRefs(a.Duplicates.LikelyDuplicatesOf)),
			},
		}
	}

	switch a.Lifecycle.State {
	case models.StateBlocked:
		return PlaybookSelection{
			Playbook: playbookUnblock,
			Reasons:  append([]string{"lifecycle state blocked"}, a.Lifecycle.Reasons...),
		}
	case models.StateNeedsInfo:
		return PlaybookSelection{
			Playbook: playbookRequestInfo,
			Reasons:  append([]string{"lifecycle state needs-info"}, a.Lifecycle.Reasons...),
		}
	case models.StateStale:
		return PlaybookSelection{
			Playbook: playbookStale,
			Reasons:  append([]string{"lifecycle state stale"}, a.Lifecycle.Reasons...),
		}
	}

	if a.Triage.Category == models.CategorySupport || a.Triage.Category == models.CategoryQuestion {
		return PlaybookSelection{
			Playbook: playbookRedirectSupport,
			Reasons:  []string{fmt.Sprintf("triage category %q", a.Triage.Category)},
		}
	}

	return PlaybookSelection{
		Playbook: playbookInvestigate,
		Reasons:  []string{"actionable with no overriding signals"},
	}
}
