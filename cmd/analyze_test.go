package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielolaszy/triage/pkg/models"
)

func writeSnapshot(t *testing.T, payload any) string {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func runAnalyze(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"analyze"}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestAnalyzeFromSnapshotFile(t *testing.T) {
	snapshotPath := writeSnapshot(t, snapshot{
		Issues: []models.Issue{
			{Number: 2, Title: "Crash on save", Body: "### Logs\nValueError: cannot open 'a.txt'", State: "open"},
			{Number: 1, Title: "help", Body: "pls fix", State: "open"},
		},
		Commits: []models.Commit{{SHA: "abc123", Message: "Fixes #1"}},
	})
	outputDir := t.TempDir()

	out, err := runAnalyze(t,
		"--repository", "acme/widgets",
		"--issues-file", snapshotPath,
		"--output-dir", outputDir,
		"--governance-mode", "strict",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "#1")
	assert.Contains(t, out, "#2")

	data, err := os.ReadFile(filepath.Join(outputDir, "issues.json"))
	require.NoError(t, err)

	var run models.AnalysisRun
	require.NoError(t, json.Unmarshal(data, &run))
	assert.Equal(t, "acme/widgets", run.Repo)
	assert.Equal(t, models.GovernanceStrict, run.GovernanceMode)
	require.Len(t, run.Issues, 2)
	assert.Equal(t, 1, run.Issues[0].IssueNumber)
	assert.Equal(t, 2, run.Issues[1].IssueNumber)
	require.Len(t, run.Dependencies, 1)
	assert.Equal(t, "abc123", run.Dependencies[0].Source.Identifier)
}

func TestAnalyzeAcceptsBareIssueArray(t *testing.T) {
	snapshotPath := writeSnapshot(t, []models.Issue{
		{Number: 4, Title: "Crash", Body: "it crashed", State: "open"},
	})
	outputDir := t.TempDir()

	_, err := runAnalyze(t,
		"--repository", "",
		"--issues-file", snapshotPath,
		"--output-dir", outputDir,
		"--governance-mode", "dry-run",
	)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(outputDir, "issues.json"))
	require.NoError(t, err)

	var run models.AnalysisRun
	require.NoError(t, json.Unmarshal(data, &run))
	assert.Equal(t, "local/snapshot", run.Repo)
	require.Len(t, run.Issues, 1)
	assert.Equal(t, 4, run.Issues[0].IssueNumber)
}

func TestAnalyzeRejectsInvalidGovernanceMode(t *testing.T) {
	snapshotPath := writeSnapshot(t, []models.Issue{{Number: 1, Title: "x", Body: "y"}})

	_, err := runAnalyze(t,
		"--issues-file", snapshotPath,
		"--output-dir", t.TempDir(),
		"--governance-mode", "yolo",
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid governance mode")
}

func TestAnalyzeRequiresRepositoryOrSnapshot(t *testing.T) {
	_, err := runAnalyze(t,
		"--repository", "",
		"--issues-file", "",
		"--governance-mode", "dry-run",
		"--output-dir", t.TempDir(),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "repository flag is required")
}

func TestReadSnapshotRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := readSnapshot(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse issues file")

	_, err = readSnapshot(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read issues file")
}
