package analysis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielolaszy/triage/pkg/models"
)

var runNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func runInput(issues ...models.Issue) Input {
	return Input{
		Repo:           "acme/widgets",
		Issues:         issues,
		Now:            runNow,
		GovernanceMode: models.GovernanceDryRun,
	}
}

func TestRunSortsIssuesAscending(t *testing.T) {
	input := runInput(
		models.Issue{Number: 3, Title: "Third", Body: "three"},
		models.Issue{Number: 1, Title: "First", Body: "one"},
		models.Issue{Number: 2, Title: "Second", Body: "two"},
	)

	run, err := Run(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, run.Issues, 3)

	assert.Equal(t, 1, run.Issues[0].IssueNumber)
	assert.Equal(t, 2, run.Issues[1].IssueNumber)
	assert.Equal(t, 3, run.Issues[2].IssueNumber)
	assert.Equal(t, "acme/widgets", run.Repo)
	assert.Equal(t, runNow, run.GeneratedAt)
	assert.Equal(t, models.GovernanceDryRun, run.GovernanceMode)
}

func TestRunIsIndependentOfInputOrder(t *testing.T) {
	a := models.Issue{Number: 1, Title: "Crash on save", Body: "### Logs\nValueError: cannot open 'x'"}
	b := models.Issue{Number: 2, Title: "Crash on load", Body: "### Logs\nValueError: cannot open 'y'"}

	first, err := Run(context.Background(), runInput(a, b))
	require.NoError(t, err)
	second, err := Run(context.Background(), runInput(b, a))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRunIsDeterministic(t *testing.T) {
	input := runInput(
		models.Issue{Number: 4, Title: "Crash", Body: "### Logs\nValueError: boom at 10"},
		models.Issue{Number: 7, Title: "Crash", Body: "### Logs\nValueError: boom at 99"},
		models.Issue{Number: 2, Title: "How do I install this?", Body: "help me with setup"},
	)
	input.Parallelism = 2

	first, err := Run(context.Background(), input)
	require.NoError(t, err)
	second, err := Run(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRunAttachesDuplicateLinks(t *testing.T) {
	run, err := Run(context.Background(), runInput(
		models.Issue{Number: 1, Title: "Crash", Body: "### Logs\nValueError: cannot open 'a.txt'"},
		models.Issue{Number: 2, Title: "Crash", Body: "### Logs\nValueError: cannot open 'b.txt'"},
		models.Issue{Number: 3, Title: "Unrelated", Body: "just a note"},
	))
	require.NoError(t, err)

	require.NotNil(t, run.Issues[0].Duplicates)
	assert.Equal(t, []int{2}, run.Issues[0].Duplicates.LikelyDuplicatesOf)
	assert.Contains(t, run.Issues[0].MaintainerAction.RecommendedActions, "Review possible duplicates: #2")
	require.NotNil(t, run.Issues[1].Duplicates)
	assert.Nil(t, run.Issues[2].Duplicates)
}

func TestRunExtractsDependencies(t *testing.T) {
	input := runInput(models.Issue{Number: 1, Title: "Source", Body: "Fixes #5"})
	input.Commits = []models.Commit{{SHA: "abc", Message: "Closes #1"}}

	run, err := Run(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, run.Dependencies, 2)
	assert.Equal(t, models.RefCommit, run.Dependencies[0].Source.Kind)
	assert.Equal(t, "5", run.Dependencies[1].Target.Identifier)
}

func TestRunDeduplicatesFetchedIssues(t *testing.T) {
	run, err := Run(context.Background(), runInput(
		models.Issue{Number: 1, Title: "First fetch", Body: "original body"},
		models.Issue{Number: 1, Title: "Second fetch", Body: "refreshed body"},
	))
	require.NoError(t, err)

	require.Len(t, run.Issues, 1)
	assert.Equal(t, "First fetch", run.Issues[0].Normalized.Issue.Title)
}

func TestRunValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Input)
		wantErr string
	}{
		{
			name:    "Invalid governance mode",
			mutate:  func(in *Input) { in.GovernanceMode = "yolo" },
			wantErr: "invalid governance mode",
		},
		{
			name: "Non-positive issue number",
			mutate: func(in *Input) {
				in.Issues = append(in.Issues, models.Issue{Number: 0, Title: "Bad"})
			},
			wantErr: "non-positive number",
		},
		{
			name: "Non-positive pull request number",
			mutate: func(in *Input) {
				in.PullRequests = []models.PullRequest{{Number: -4}}
			},
			wantErr: "non-positive number",
		},
		{
			name: "Empty commit sha",
			mutate: func(in *Input) {
				in.Commits = []models.Commit{{Message: "no sha"}}
			},
			wantErr: "empty sha",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := runInput(models.Issue{Number: 1, Title: "Fine", Body: "ok"})
			tt.mutate(&input)
			_, err := Run(context.Background(), input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRunHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	input := runInput(
		models.Issue{Number: 1, Title: "A", Body: "a"},
		models.Issue{Number: 2, Title: "B", Body: "b"},
	)
	input.Parallelism = 1

	_, err := Run(ctx, input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "analysis canceled")
}
