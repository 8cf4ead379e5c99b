package report

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielolaszy/triage/internal/analysis"
	"github.com/danielolaszy/triage/pkg/models"
)

func fixtureRun(t *testing.T, mode models.GovernanceMode) *models.AnalysisRun {
	t.Helper()
	run, err := analysis.Run(context.Background(), analysis.Input{
		Repo: "acme/widgets",
		Issues: []models.Issue{
			{Number: 1, Title: "Crash on save", Body: "### Logs\nValueError: cannot open 'a.txt'", State: "open"},
			{Number: 2, Title: "Crash on load", Body: "### Logs\nValueError: cannot open 'b.txt'", State: "open"},
			{Number: 3, Title: "help", Body: "pls fix", State: "open"},
		},
		Now:            time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		GovernanceMode: mode,
	})
	require.NoError(t, err)
	return run
}

func readArtifact(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(data)
}

func TestWriterWritesFullArtifactTree(t *testing.T) {
	dir := t.TempDir()
	run := fixtureRun(t, models.GovernanceStrict)
	require.NoError(t, NewWriter(dir).Write(run))

	for _, name := range []string{
		"issues.json",
		"quality_breakdown.json",
		"ISSUE_SUMMARY.md",
		"DUPLICATE_GROUPS.md",
		"low_signal_issues.json",
		"LOW_SIGNAL_ISSUES.md",
		"maintainer_load.json",
		"MAINTAINER_LOAD.md",
		"issue_health.json",
		"ISSUE_HEALTH.md",
		"weekly_digest.json",
		"WEEKLY_DIGEST.md",
		"issue_dependencies.json",
		"ISSUE_DEPENDENCIES.md",
		"knowledge_base.json",
		"KNOWLEDGE_BASE.md",
		"explainability.json",
		"EXPLAINABILITY.md",
		"MAINTAINER_PLAYBOOKS.md",
		filepath.Join("issues", "1", "normalized_issue.json"),
		filepath.Join("issues", "1", "quality_breakdown.json"),
		filepath.Join("issues", "1", "maintainer_cost.json"),
		filepath.Join("issues", "1", "labels.json"),
		filepath.Join("issues", "1", "explainability.json"),
		filepath.Join("issues", "1", "playbook.md"),
		filepath.Join("issues", "1", "CONTRIBUTOR_GUIDE.md"),
		filepath.Join("issues", "3", "playbook.md"),
		filepath.Join("issues", "3", "CONTRIBUTOR_GUIDE.md"),
	} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

func TestWriterStampsGovernanceMode(t *testing.T) {
	dir := t.TempDir()
	run := fixtureRun(t, models.GovernanceStrict)
	require.NoError(t, NewWriter(dir).Write(run))

	for _, name := range []string{
		"quality_breakdown.json",
		"low_signal_issues.json",
		"maintainer_load.json",
		"issue_health.json",
		"weekly_digest.json",
		"issue_dependencies.json",
		"knowledge_base.json",
		"explainability.json",
		filepath.Join("issues", "1", "quality_breakdown.json"),
		filepath.Join("issues", "1", "maintainer_cost.json"),
		filepath.Join("issues", "1", "explainability.json"),
	} {
		var payload map[string]any
		require.NoError(t, json.Unmarshal([]byte(readArtifact(t, dir, name)), &payload), name)
		assert.Equal(t, "strict", payload["governance_mode"], name)
	}

	assert.Contains(t, readArtifact(t, dir, "ISSUE_SUMMARY.md"), "Governance mode: `strict`")
	assert.Contains(t, readArtifact(t, dir, filepath.Join("issues", "1", "CONTRIBUTOR_GUIDE.md")), "Governance mode: `strict`")
}

func TestWriterIssuesJSONRoundTrips(t *testing.T) {
	dir := t.TempDir()
	run := fixtureRun(t, models.GovernanceDryRun)
	require.NoError(t, NewWriter(dir).Write(run))

	var decoded models.AnalysisRun
	require.NoError(t, json.Unmarshal([]byte(readArtifact(t, dir, "issues.json")), &decoded))
	assert.Equal(t, "acme/widgets", decoded.Repo)
	assert.Equal(t, models.GovernanceDryRun, decoded.GovernanceMode)
	require.Len(t, decoded.Issues, 3)
	assert.Equal(t, 1, decoded.Issues[0].IssueNumber)
}

func TestWriterDuplicateGroups(t *testing.T) {
	dir := t.TempDir()
	run := fixtureRun(t, models.GovernanceDryRun)
	require.NoError(t, NewWriter(dir).Write(run))

	groups := readArtifact(t, dir, "DUPLICATE_GROUPS.md")
	assert.Contains(t, groups, "## Group 1")
	assert.Contains(t, groups, "Reason: error signature hash match")
	assert.Contains(t, groups, "- #1")
	assert.Contains(t, groups, "- #2")
	assert.Contains(t, groups, "ValueError: cannot open <val>")
	assert.NotContains(t, groups, "## Group 2")
}

func TestWriterLowSignalReport(t *testing.T) {
	dir := t.TempDir()
	run := fixtureRun(t, models.GovernanceDryRun)
	require.NoError(t, NewWriter(dir).Write(run))

	md := readArtifact(t, dir, "LOW_SIGNAL_ISSUES.md")
	assert.Contains(t, md, "- #3 (low_effort)")
	assert.Contains(t, md, "body below minimum length")
}

func TestWriterSummaryTable(t *testing.T) {
	dir := t.TempDir()
	run := fixtureRun(t, models.GovernanceDryRun)
	require.NoError(t, NewWriter(dir).Write(run))

	summary := readArtifact(t, dir, "ISSUE_SUMMARY.md")
	assert.Contains(t, summary, "# Issue summary for acme/widgets")
	assert.Contains(t, summary, "| #1 |")
	assert.Contains(t, summary, "| #3 |")
	assert.Contains(t, summary, "Cross-reference links: 0")
}

func TestWriterPlaybookArtifacts(t *testing.T) {
	dir := t.TempDir()
	run := fixtureRun(t, models.GovernanceDryRun)
	require.NoError(t, NewWriter(dir).Write(run))

	index := readArtifact(t, dir, "MAINTAINER_PLAYBOOKS.md")
	assert.Contains(t, index, "# Maintainer Playbooks")
	assert.Contains(t, index, "## Global playbooks")
	assert.Contains(t, index, "## Per-issue playbooks")
	assert.Contains(t, index, "issues/1/playbook.md")
	assert.Contains(t, index, "issues/3/playbook.md")

	// Issues 1 and 2 share an error signature, so their playbook is the
	// duplicate-merge one; issue 3 needs information.
	playbook1 := readArtifact(t, dir, filepath.Join("issues", "1", "playbook.md"))
	assert.Contains(t, playbook1, "## When to use")
	assert.Contains(t, playbook1, "## Why this playbook was selected")
	assert.Contains(t, playbook1, "## What this does not cover")
	assert.Contains(t, playbook1, "duplicate link to #2")

	playbook3 := readArtifact(t, dir, filepath.Join("issues", "3", "playbook.md"))
	assert.Contains(t, playbook3, "Request missing information")
}

func TestWriterKnowledgeBaseArtifacts(t *testing.T) {
	dir := t.TempDir()
	run := fixtureRun(t, models.GovernanceDryRun)
	require.NoError(t, NewWriter(dir).Write(run))

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(readArtifact(t, dir, "knowledge_base.json")), &payload))
	for _, key := range []string{"limits", "top_error_signatures", "top_mentioned_files", "faq_patterns"} {
		assert.Contains(t, payload, key)
	}

	md := readArtifact(t, dir, "KNOWLEDGE_BASE.md")
	assert.Contains(t, md, "# Knowledge base")
	assert.Contains(t, md, "## Top error signatures")
	assert.Contains(t, md, "ValueError: cannot open <val>")
	assert.Contains(t, md, "a.txt")
}

func TestWriterExplainabilityArtifacts(t *testing.T) {
	dir := t.TempDir()
	run := fixtureRun(t, models.GovernanceDryRun)
	require.NoError(t, NewWriter(dir).Write(run))

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(readArtifact(t, dir, "explainability.json")), &payload))
	assert.Contains(t, payload, "rules")
	assert.Contains(t, payload, "per_issue")

	md := readArtifact(t, dir, "EXPLAINABILITY.md")
	assert.Contains(t, md, "# Explainability")
	assert.Contains(t, md, "## Rule index")
	assert.Contains(t, md, "## Per-issue explainability")

	var perIssue map[string]any
	require.NoError(t, json.Unmarshal([]byte(readArtifact(t, dir, filepath.Join("issues", "3", "explainability.json"))), &perIssue))
	assert.Equal(t, float64(3), perIssue["issue_number"])
	sections, ok := perIssue["sections"].(map[string]any)
	require.True(t, ok)
	for _, name := range []string{
		"normalization", "quality", "triage", "lifecycle", "maintainer_cost",
		"maintainer_actions", "duplicates", "labels", "dependencies", "playbook",
	} {
		section, ok := sections[name].(map[string]any)
		require.True(t, ok, name)
		assert.Contains(t, section, "rules_fired")
		assert.Contains(t, section, "why_this_matters")
		assert.Contains(t, section, "what_this_does_not_imply")
	}
}

func TestWriterDependencyArtifacts(t *testing.T) {
	dir := t.TempDir()
	run, err := analysis.Run(context.Background(), analysis.Input{
		Repo: "acme/widgets",
		Issues: []models.Issue{
			{Number: 1, Title: "A", Body: "See #2", State: "open"},
			{Number: 2, Title: "B", Body: "older report", State: "open"},
		},
		Commits:        []models.Commit{{SHA: "abc", Message: "Fixes #2"}},
		Now:            time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		GovernanceMode: models.GovernanceDryRun,
	})
	require.NoError(t, err)
	require.NoError(t, NewWriter(dir).Write(run))

	var payload struct {
		Limits map[string]any `json:"limits"`
		Links  []struct {
			Target struct {
				Identifier string `json:"identifier"`
			} `json:"target"`
		} `json:"links"`
	}
	require.NoError(t, json.Unmarshal([]byte(readArtifact(t, dir, "issue_dependencies.json")), &payload))
	assert.NotEmpty(t, payload.Limits)
	require.Len(t, payload.Links, 2)
	assert.Equal(t, "2", payload.Links[0].Target.Identifier)

	md := readArtifact(t, dir, "ISSUE_DEPENDENCIES.md")
	assert.Contains(t, md, "# Issue dependencies")
	assert.Contains(t, md, "commit abc -> issue 2 [fixes]")
	assert.Contains(t, md, "issue 1 -> issue 2")
}

func TestWriterHealthAndDigestMarkdown(t *testing.T) {
	dir := t.TempDir()
	run := fixtureRun(t, models.GovernanceDryRun)
	require.NoError(t, NewWriter(dir).Write(run))

	var health map[string]any
	require.NoError(t, json.Unmarshal([]byte(readArtifact(t, dir, "issue_health.json")), &health))
	assert.Contains(t, health, "limits")
	assert.Contains(t, health, "metrics")

	assert.Contains(t, readArtifact(t, dir, "ISSUE_HEALTH.md"), "# Issue health")

	digest := readArtifact(t, dir, "WEEKLY_DIGEST.md")
	assert.Contains(t, digest, "# Weekly digest")
	assert.Contains(t, digest, "last 7 days")
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{name: "Short string untouched", in: "Crash on save", max: 48, want: "Crash on save"},
		{name: "Exact length untouched", in: "abcde", max: 5, want: "abcde"},
		{name: "Long ASCII shortened", in: "abcdefghij", max: 8, want: "abcde..."},
		{name: "Multibyte title shortened on rune boundary", in: "保存時にクラッシュが発生する問題", max: 8, want: "保存時にク..."},
		{name: "Multibyte at exact rune count untouched", in: "保存時にクラッシュ", max: 9, want: "保存時にクラッシュ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.max)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestPrintSummary(t *testing.T) {
	run := fixtureRun(t, models.GovernanceDryRun)

	var buf bytes.Buffer
	require.NoError(t, PrintSummary(&buf, run))

	out := buf.String()
	assert.Contains(t, out, "#1")
	assert.Contains(t, out, "#3")
	assert.Contains(t, out, "needs-info")
}
