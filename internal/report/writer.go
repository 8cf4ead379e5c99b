// Package report renders an AnalysisRun into artifacts: a tree of
// markdown and JSON files for humans and machines, plus a terminal
// summary table. It only reads the run; all analysis happened upstream.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/danielolaszy/triage/internal/analysis"
	"github.com/danielolaszy/triage/internal/logging"
	"github.com/danielolaszy/triage/pkg/models"
)

// Writer writes run artifacts beneath OutputDir.
type Writer struct {
	OutputDir string
}

// NewWriter returns a Writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{OutputDir: dir}
}

// Write renders the full artifact tree for a run:
//
//	issues.json                    the complete machine-readable run
//	quality_breakdown.json         per-issue quality scores
//	ISSUE_SUMMARY.md               the human-readable overview
//	DUPLICATE_GROUPS.md            error-signature duplicate buckets
//	LOW_SIGNAL_ISSUES.md/.json     spam and low-effort findings
//	MAINTAINER_LOAD.md/.json       corpus load counts and level
//	ISSUE_HEALTH.md/.json          aggregate health metrics
//	WEEKLY_DIGEST.md/.json         recent-activity digest
//	ISSUE_DEPENDENCIES.md/.json    the cross-reference graph
//	KNOWLEDGE_BASE.md/.json        recurring signatures, files and FAQs
//	EXPLAINABILITY.md/.json        rule index and per-issue audit records
//	MAINTAINER_PLAYBOOKS.md        playbook catalog and per-issue links
//	issues/<n>/...                 per-issue artifacts
//
// The governance mode is embedded in every artifact so downstream
// consumers never have to guess which run produced a file.
func (w *Writer) Write(run *models.AnalysisRun) error {
	if err := os.MkdirAll(w.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := w.writeJSON("issues.json", run); err != nil {
		return err
	}
	if err := w.writeJSON("quality_breakdown.json", qualityPayload(run)); err != nil {
		return err
	}
	if err := w.writeFile("ISSUE_SUMMARY.md", renderSummary(run)); err != nil {
		return err
	}
	if err := w.writeFile("DUPLICATE_GROUPS.md", renderDuplicateGroups(run)); err != nil {
		return err
	}

	lowSignal := analysis.DetectLowSignalIssues(run, analysis.DefaultLowSignalLimits)
	if err := w.writeJSON("low_signal_issues.json", withMode(run, lowSignal)); err != nil {
		return err
	}
	if err := w.writeFile("LOW_SIGNAL_ISSUES.md", renderLowSignal(run, lowSignal)); err != nil {
		return err
	}

	load := analysis.ComputeMaintainerLoad(run)
	if err := w.writeJSON("maintainer_load.json", withMode(run, load)); err != nil {
		return err
	}
	if err := w.writeFile("MAINTAINER_LOAD.md", renderMaintainerLoad(run, load)); err != nil {
		return err
	}

	health := analysis.ComputeIssueHealth(run)
	if err := w.writeJSON("issue_health.json", withMode(run, healthPayload(health))); err != nil {
		return err
	}
	if err := w.writeFile("ISSUE_HEALTH.md", renderHealth(run, health)); err != nil {
		return err
	}
	digest := analysis.BuildDigest(run, run.GeneratedAt, analysis.DefaultDigestLimits)
	if err := w.writeJSON("weekly_digest.json", withMode(run, digest)); err != nil {
		return err
	}
	if err := w.writeFile("WEEKLY_DIGEST.md", renderDigest(run, digest)); err != nil {
		return err
	}

	if err := w.writeJSON("issue_dependencies.json", withMode(run, dependencyPayload(run))); err != nil {
		return err
	}
	if err := w.writeFile("ISSUE_DEPENDENCIES.md", renderDependencies(run)); err != nil {
		return err
	}

	kb := analysis.BuildKnowledgeBase(run)
	if err := w.writeJSON("knowledge_base.json", withMode(run, kb)); err != nil {
		return err
	}
	if err := w.writeFile("KNOWLEDGE_BASE.md", renderKnowledgeBase(run, kb)); err != nil {
		return err
	}

	explain := analysis.BuildExplainability(run)
	if err := w.writeJSON("explainability.json", withMode(run, explain)); err != nil {
		return err
	}
	if err := w.writeFile("EXPLAINABILITY.md", renderExplainability(run, explain)); err != nil {
		return err
	}

	if err := w.writeFile("MAINTAINER_PLAYBOOKS.md", renderPlaybookIndex(run)); err != nil {
		return err
	}

	for i := range run.Issues {
		if err := w.writeIssueArtifacts(run, &run.Issues[i]); err != nil {
			return err
		}
	}

	logging.Info("artifacts written", "output_dir", w.OutputDir, "issues", len(run.Issues))
	return nil
}

func (w *Writer) writeIssueArtifacts(run *models.AnalysisRun, a *models.IssueAnalysis) error {
	dir := filepath.Join("issues", strconv.Itoa(a.IssueNumber))
	if err := os.MkdirAll(filepath.Join(w.OutputDir, dir), 0o755); err != nil {
		return fmt.Errorf("failed to create issue directory: %w", err)
	}

	selection := analysis.SelectPlaybook(*a)
	explain := analysis.ExplainIssue(*a, analysis.IssueDependencies(run, a.IssueNumber), selection)

	files := []struct {
		name    string
		payload any
	}{
		{"normalized_issue.json", withMode(run, a.Normalized)},
		{"quality_breakdown.json", withMode(run, a.Quality)},
		{"maintainer_cost.json", withMode(run, a.MaintainerCost)},
		{"labels.json", withMode(run, struct {
			Labels []models.LabelRecommendation `json:"labels"`
		}{a.Labels})},
		{"explainability.json", withMode(run, explain)},
	}
	for _, f := range files {
		if err := w.writeJSON(filepath.Join(dir, f.name), f.payload); err != nil {
			return err
		}
	}

	if err := w.writeFile(filepath.Join(dir, "playbook.md"), renderPlaybook(a.IssueNumber, selection)); err != nil {
		return err
	}

	guide := analysis.RenderContributorGuide(*a, run.GovernanceMode)
	return w.writeFile(filepath.Join(dir, "CONTRIBUTOR_GUIDE.md"), guide)
}

// withMode flattens an artifact payload into a generic object and stamps
// the run's governance mode onto it. Payloads are always structs that
// marshal to JSON objects.
func withMode(run *models.AnalysisRun, payload any) any {
	data, err := json.Marshal(payload)
	if err != nil {
		return payload
	}
	flat := make(map[string]any)
	if err := json.Unmarshal(data, &flat); err != nil {
		return payload
	}
	flat["governance_mode"] = string(run.GovernanceMode)
	return flat
}

func (w *Writer) writeJSON(name string, payload any) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	return w.writeFile(name, string(data)+"\n")
}

func (w *Writer) writeFile(name, content string) error {
	path := filepath.Join(w.OutputDir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func qualityPayload(run *models.AnalysisRun) any {
	type entry struct {
		IssueNumber int                     `json:"issue_number"`
		Quality     models.QualityBreakdown `json:"quality"`
	}
	entries := make([]entry, 0, len(run.Issues))
	for _, a := range run.Issues {
		entries = append(entries, entry{IssueNumber: a.IssueNumber, Quality: a.Quality})
	}
	return struct {
		GovernanceMode models.GovernanceMode `json:"governance_mode"`
		GeneratedAt    time.Time             `json:"generated_at"`
		Issues         []entry               `json:"issues"`
	}{run.GovernanceMode, run.GeneratedAt, entries}
}

func renderSummary(run *models.AnalysisRun) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Issue summary for %s\n\n", run.Repo)
	fmt.Fprintf(&b, "Generated at: %s\n\n", run.GeneratedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Governance mode: `%s`\n\n", run.GovernanceMode)

	b.WriteString("| Issue | Category | Lifecycle | Cost | Low signal |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, a := range run.Issues {
		fmt.Fprintf(&b, "| #%d | %s | %s | %s | %v |\n",
			a.IssueNumber, a.Triage.Category, a.Lifecycle.State, a.MaintainerCost.Level, a.Normalized.IsLowSignal)
	}
	fmt.Fprintf(&b, "\nCross-reference links: %d\n", len(run.Dependencies))
	return b.String()
}

func renderDuplicateGroups(run *models.AnalysisRun) string {
	// Rebuild the buckets from the per-issue links so groups render once.
	groups := make(map[string][]int)
	for _, a := range run.Issues {
		if a.Duplicates == nil {
			continue
		}
		members := append([]int{a.IssueNumber}, a.Duplicates.LikelyDuplicatesOf...)
		sort.Ints(members)
		key := fmt.Sprint(members)
		groups[key] = members
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("# Duplicate groups\n\n")
	if len(keys) == 0 {
		b.WriteString("No duplicate groups detected.\n")
		return b.String()
	}
	for i, key := range keys {
		members := groups[key]
		fmt.Fprintf(&b, "## Group %d\n\n", i+1)
		b.WriteString("Reason: error signature hash match\n\n")
		for _, number := range members {
			line := fmt.Sprintf("- #%d", number)
			if sig := signatureFor(run, number); sig != "" {
				line += fmt.Sprintf(" (`%s`)", sig)
			}
			b.WriteString(line + "\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func signatureFor(run *models.AnalysisRun, number int) string {
	for _, a := range run.Issues {
		if a.IssueNumber == number {
			return analysis.SignatureSummary(a.Normalized)
		}
	}
	return ""
}

func renderLowSignal(run *models.AnalysisRun, report analysis.LowSignalReport) string {
	var b strings.Builder
	b.WriteString("# Low-signal issues\n\n")
	fmt.Fprintf(&b, "Governance mode: `%s`\n\n", run.GovernanceMode)
	if len(report.Items) == 0 {
		b.WriteString("No low-signal issues detected.\n")
		return b.String()
	}
	for _, item := range report.Items {
		fmt.Fprintf(&b, "- #%d (%s): %s\n", item.IssueNumber, item.Classification, strings.Join(item.Reasons, "; "))
	}
	return b.String()
}

func renderMaintainerLoad(run *models.AnalysisRun, load analysis.MaintainerLoadReport) string {
	var b strings.Builder
	b.WriteString("# Maintainer load\n\n")
	fmt.Fprintf(&b, "Governance mode: `%s`\n\n", run.GovernanceMode)
	fmt.Fprintf(&b, "Overall level: **%s**\n\n", load.Level)
	fmt.Fprintf(&b, "- Total issues: %d\n", load.Counts.TotalIssues)
	fmt.Fprintf(&b, "- High cost: %d\n", load.Counts.HighCost)
	fmt.Fprintf(&b, "- Needs info: %d\n", load.Counts.NeedsInfo)
	fmt.Fprintf(&b, "- Stale: %d\n", load.Counts.Stale)
	return b.String()
}
