package report

import (
	"fmt"
	"strings"

	"github.com/danielolaszy/triage/internal/analysis"
	"github.com/danielolaszy/triage/pkg/models"
)

func healthPayload(health analysis.HealthMetrics) any {
	return struct {
		Limits  analysis.HealthLimits  `json:"limits"`
		Metrics analysis.HealthMetrics `json:"metrics"`
	}{analysis.DefaultHealthLimits, health}
}

func dependencyPayload(run *models.AnalysisRun) any {
	links := run.Dependencies
	if links == nil {
		links = []models.CrossReferenceLink{}
	}
	return struct {
		Limits analysis.DependencyLimits   `json:"limits"`
		Links  []models.CrossReferenceLink `json:"links"`
	}{analysis.DefaultDependencyLimits, links}
}

func renderHealth(run *models.AnalysisRun, health analysis.HealthMetrics) string {
	var b strings.Builder
	b.WriteString("# Issue health\n\n")
	fmt.Fprintf(&b, "Governance mode: `%s`\n\n", run.GovernanceMode)
	fmt.Fprintf(&b, "- Needs info: %.1f%%\n", health.NeedsInfoPct)
	fmt.Fprintf(&b, "- Stale: %.1f%%\n", health.StalePct)
	fmt.Fprintf(&b, "- Average reproducibility: %.1f\n", health.AvgQualityReproducibility)
	fmt.Fprintf(&b, "- Average noise: %.1f\n", health.AvgQualityNoise)
	return b.String()
}

func renderDigest(run *models.AnalysisRun, digest analysis.Digest) string {
	var b strings.Builder
	b.WriteString("# Weekly digest\n\n")
	fmt.Fprintf(&b, "Governance mode: `%s`\n\n", run.GovernanceMode)
	fmt.Fprintf(&b, "Issues opened in the last %d days: %d\n\n", digest.Limits.WindowDays, digest.RecentIssueCount)
	fmt.Fprintf(&b, "High-cost issues: %s\n\n", issueList(digest.HighCostIssues))
	fmt.Fprintf(&b, "Needs-info issues: %s\n", issueList(digest.NeedsInfoIssues))
	return b.String()
}

func renderDependencies(run *models.AnalysisRun) string {
	var b strings.Builder
	b.WriteString("# Issue dependencies\n\n")
	fmt.Fprintf(&b, "Governance mode: `%s`\n\n", run.GovernanceMode)
	if len(run.Dependencies) == 0 {
		b.WriteString("No cross-reference links found.\n")
		return b.String()
	}
	for _, link := range run.Dependencies {
		line := fmt.Sprintf("- %s %s -> %s %s",
			link.Source.Kind, link.Source.Identifier, link.Target.Kind, link.Target.Identifier)
		if link.Target.Repo != run.Repo {
			line += fmt.Sprintf(" (%s)", link.Target.Repo)
		}
		if link.OriginPhrase != "" {
			line += fmt.Sprintf(" [%s]", link.OriginPhrase)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func renderKnowledgeBase(run *models.AnalysisRun, kb analysis.KnowledgeBase) string {
	var b strings.Builder
	b.WriteString("# Knowledge base\n\n")
	fmt.Fprintf(&b, "Governance mode: `%s`\n\n", run.GovernanceMode)

	b.WriteString("## Top error signatures\n\n")
	if len(kb.TopErrorSignatures) == 0 {
		b.WriteString("None extracted.\n")
	}
	for _, sig := range kb.TopErrorSignatures {
		fmt.Fprintf(&b, "- `%s` (%d): %s\n", sig.Signature, sig.Count, issueList(sig.IssueNumbers))
	}

	b.WriteString("\n## Top mentioned files\n\n")
	if len(kb.TopMentionedFiles) == 0 {
		b.WriteString("None extracted.\n")
	}
	for _, file := range kb.TopMentionedFiles {
		fmt.Fprintf(&b, "- `%s` (%d): %s\n", file.File, file.Count, issueList(file.IssueNumbers))
	}

	b.WriteString("\n## FAQ patterns\n\n")
	if len(kb.FAQPatterns) == 0 {
		b.WriteString("None extracted.\n")
	}
	for _, faq := range kb.FAQPatterns {
		fmt.Fprintf(&b, "- \"%s\": %s\n", faq.Pattern, issueList(faq.IssueNumbers))
	}
	return b.String()
}

func renderExplainability(run *models.AnalysisRun, report analysis.ExplainabilityReport) string {
	var b strings.Builder
	b.WriteString("# Explainability\n\n")
	fmt.Fprintf(&b, "Governance mode: `%s`\n\n", run.GovernanceMode)

	b.WriteString("## Rule index\n\n")
	for _, rule := range report.Rules {
		fmt.Fprintf(&b, "- `%s`: %s\n", rule.Name, rule.Description)
	}

	b.WriteString("\n## Per-issue explainability\n\n")
	for _, issue := range report.PerIssue {
		fmt.Fprintf(&b, "Issue #%d: see `issues/%d/explainability.json`\n", issue.IssueNumber, issue.IssueNumber)
	}
	return b.String()
}

func renderPlaybookIndex(run *models.AnalysisRun) string {
	var b strings.Builder
	b.WriteString("# Maintainer Playbooks\n\n")
	fmt.Fprintf(&b, "Governance mode: `%s`\n\n", run.GovernanceMode)

	b.WriteString("## Global playbooks\n\n")
	for _, playbook := range analysis.Catalog() {
		fmt.Fprintf(&b, "### %s\n\n", playbook.Title)
		fmt.Fprintf(&b, "%s\n\n", playbook.WhenToUse)
	}

	b.WriteString("## Per-issue playbooks\n\n")
	for _, a := range run.Issues {
		selection := analysis.SelectPlaybook(a)
		fmt.Fprintf(&b, "- #%d: %s (issues/%d/playbook.md)\n",
			a.IssueNumber, selection.Playbook.Title, a.IssueNumber)
	}
	return b.String()
}

func renderPlaybook(number int, selection analysis.PlaybookSelection) string {
	var b strings.Builder
	playbook := selection.Playbook

	fmt.Fprintf(&b, "# %s (issue #%d)\n\n", playbook.Title, number)

	b.WriteString("## When to use\n\n")
	b.WriteString(playbook.WhenToUse + "\n\n")

	b.WriteString("## Steps\n\n")
	for i, step := range playbook.Steps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}

	b.WriteString("\n## Why this playbook was selected\n\n")
	for _, reason := range selection.Reasons {
		fmt.Fprintf(&b, "- %s\n", reason)
	}

	b.WriteString("\n## What this does not cover\n\n")
	b.WriteString(playbook.NotCovered + "\n")
	return b.String()
}

func issueList(numbers []int) string {
	if len(numbers) == 0 {
		return "none"
	}
	refs := make([]string, len(numbers))
	for i, n := range numbers {
		refs[i] = fmt.Sprintf("#%d", n)
	}
	return strings.Join(refs, ", ")
}
