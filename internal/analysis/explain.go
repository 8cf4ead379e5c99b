package analysis

import (
	"fmt"
	"strconv"

	"github.com/danielolaszy/triage/pkg/models"
)

// ExplainSection documents one analysis phase for one issue: the rules
// that fired, why the outcome matters, and what it must not be read as.
type ExplainSection struct {
	RulesFired           []string `json:"rules_fired"`
	WhyThisMatters       string   `json:"why_this_matters"`
	WhatThisDoesNotImply string   `json:"what_this_does_not_imply"`
}

// IssueExplainability is the full audit record for one issue, keyed by
// phase name.
type IssueExplainability struct {
	IssueNumber int                       `json:"issue_number"`
	Sections    map[string]ExplainSection `json:"sections"`
}

// ExplainabilityRule is one entry in the run-level rule index.
type ExplainabilityRule struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ExplainabilityReport is the run-level explainability artifact: the
// index of rule families plus a per-issue audit record.
type ExplainabilityReport struct {
	Rules    []ExplainabilityRule  `json:"rules"`
	PerIssue []IssueExplainability `json:"per_issue"`
}

// RuleIndex describes every rule family the pipeline applies. It is
// static documentation; the per-issue sections say which rules actually
// fired.
func RuleIndex() []ExplainabilityRule {
	return []ExplainabilityRule{
		{Name: "title-noise-words", Description: "Configured noise words are stripped from titles during normalization."},
		{Name: "section-synonyms", Description: "Markdown and inline headings are mapped to the five canonical sections."},
		{Name: "spam-phrases", Description: "Configured spam phrases pre-flag an issue as low signal and raise its noise score."},
		{Name: "noise-keywords", Description: "Low-effort keywords raise the noise score, capped, unless a stack trace is present."},
		{Name: "completeness-per-section", Description: "Each canonical section present adds 20 completeness points."},
		{Name: "reproducibility-evidence", Description: "Reproduction steps plus log evidence score high; either alone scores low."},
		{Name: "triage-phrase-sets", Description: "Bug, feature and support phrase sets decide the category; ties resolve to bug."},
		{Name: "lifecycle-precedence", Description: "Lifecycle rules apply in strict order: blocked, then stale, then needs-info, then actionable."},
		{Name: "blocking-patterns", Description: "Dependency phrasings like 'depends on #N' force the blocked state."},
		{Name: "staleness-window", Description: "Open issues with no updates inside the window become stale; closed issues never do."},
		{Name: "cost-thresholds", Description: "Many files without reproduction steps cost high; reproducible concise reports cost low."},
		{Name: "error-signature-grouping", Description: "Issues sharing an exception type and value-stripped message template group as duplicates."},
		{Name: "cross-reference-grammars", Description: "#N, GH-N and owner/repo#N references build the dependency graph; heading tokens are excluded."},
		{Name: "playbook-selection", Description: "Duplicate evidence, then lifecycle state, then triage category select the maintainer playbook."},
	}
}

// BuildExplainability assembles the run-level explainability report.
func BuildExplainability(run *models.AnalysisRun) ExplainabilityReport {
	report := ExplainabilityReport{
		Rules:    RuleIndex(),
		PerIssue: make([]IssueExplainability, 0, len(run.Issues)),
	}
	for _, a := range run.Issues {
		report.PerIssue = append(report.PerIssue,
			ExplainIssue(a, IssueDependencies(run, a.IssueNumber), SelectPlaybook(a)))
	}
	return report
}

// IssueDependencies filters the run's dependency links down to those
// originating from one issue.
func IssueDependencies(run *models.AnalysisRun, number int) []models.CrossReferenceLink {
	id := strconv.Itoa(number)
	var out []models.CrossReferenceLink
	for _, link := range run.Dependencies {
		if link.Source.Kind == models.RefIssue && link.Source.Identifier == id {
			out = append(out, link)
		}
	}
	return out
}

// ExplainIssue builds the per-issue audit record. Every phase gets a
// section even when no rule fired, so absence is visible too.
func ExplainIssue(a models.IssueAnalysis, deps []models.CrossReferenceLink, selection PlaybookSelection) IssueExplainability {
	sections := map[string]ExplainSection{
		"normalization": {
			RulesFired:           orNone(a.Normalized.LowSignalReasons),
			WhyThisMatters:       "Normalization decides what text the later phases see and pre-flags low-signal reports.",
			WhatThisDoesNotImply: "A low-signal pre-flag is not a verdict; scoring and lifecycle still run in full.",
		},
		"quality": {
			RulesFired:           orNone(a.Quality.Reasons),
			WhyThisMatters:       "Quality scores drive the needs-info decision and the cost estimate.",
			WhatThisDoesNotImply: "A low score measures the report, not the validity of the underlying problem.",
		},
		"triage": {
			RulesFired:           orNone(a.Triage.Reasons),
			WhyThisMatters:       "The category routes the issue to the right workflow and label.",
			WhatThisDoesNotImply: "Phrase matching is heuristic; confidence below certainty means a human should confirm.",
		},
		"lifecycle": {
			RulesFired:           orNone(a.Lifecycle.Reasons),
			WhyThisMatters:       "The lifecycle state decides what happens next: follow up, wait, or act.",
			WhatThisDoesNotImply: "States reflect the current evidence only; new information re-triages the issue.",
		},
		"maintainer_cost": {
			RulesFired:           orNone(a.MaintainerCost.Reasons),
			WhyThisMatters:       "Cost estimates let maintainers schedule expensive issues deliberately.",
			WhatThisDoesNotImply: "Cost is effort to act on the report, not the severity of the bug.",
		},
		"maintainer_actions": {
			RulesFired:           orNone(a.MaintainerAction.RecommendedActions),
			WhyThisMatters:       "Recommended actions turn the classification into a concrete next step.",
			WhatThisDoesNotImply: "Recommendations are defaults, not obligations; maintainer judgment wins.",
		},
		"duplicates": {
			RulesFired:           orNone(duplicateRules(a.Duplicates)),
			WhyThisMatters:       "Grouping duplicate reports concentrates the discussion in one place.",
			WhatThisDoesNotImply: "A shared error signature is strong but not conclusive; verify before closing.",
		},
		"labels": {
			RulesFired:           orNone(labelRules(a.Labels)),
			WhyThisMatters:       "Suggested labels keep tracker taxonomy consistent across reporters.",
			WhatThisDoesNotImply: "Suggestions are never auto-applied; labeling stays a maintainer action.",
		},
		"dependencies": {
			RulesFired:           orNone(dependencyRules(deps)),
			WhyThisMatters:       "Cross-references expose ordering constraints between issues.",
			WhatThisDoesNotImply: "A textual reference is not a confirmed dependency; it marks where to look.",
		},
		"playbook": {
			RulesFired:           orNone(selection.Reasons),
			WhyThisMatters:       "The playbook gives the maintainer a ready-made response recipe.",
			WhatThisDoesNotImply: "Selection picks the closest recipe, not the only valid response.",
		},
	}

	return IssueExplainability{IssueNumber: a.IssueNumber, Sections: sections}
}

func duplicateRules(link *models.DuplicateLink) []string {
	if link == nil {
		return nil
	}
	rules := append([]string{}, link.SimilarityReasons...)
	rules = append(rules, fmt.Sprintf("grouped with %s", joinIssueRefs(link.LikelyDuplicatesOf)))
	return rules
}

func labelRules(labels []models.LabelRecommendation) []string {
	var rules []string
	for _, label := range labels {
		rules = append(rules, fmt.Sprintf("%s: %s", label.Name, label.Reason))
	}
	return rules
}

func dependencyRules(deps []models.CrossReferenceLink) []string {
	var rules []string
	for _, link := range deps {
		rule := fmt.Sprintf("references %s %s", link.Target.Kind, link.Target.Identifier)
		if link.OriginPhrase != "" {
			rule += fmt.Sprintf(" (%s)", link.OriginPhrase)
		}
		rules = append(rules, rule)
	}
	return rules
}

func orNone(rules []string) []string {
	if len(rules) == 0 {
		return []string{"no rules fired"}
	}
	return rules
}
