package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/danielolaszy/triage/internal/analysis"
	"github.com/danielolaszy/triage/internal/automation"
	"github.com/danielolaszy/triage/internal/config"
	"github.com/danielolaszy/triage/internal/github"
	"github.com/danielolaszy/triage/internal/jira"
	"github.com/danielolaszy/triage/internal/logging"
	"github.com/danielolaszy/triage/internal/report"
	"github.com/danielolaszy/triage/pkg/models"
)

// snapshot is the shape of a local issues file: either this object or a
// bare JSON array of issues.
type snapshot struct {
	Issues       []models.Issue       `json:"issues"`
	PullRequests []models.PullRequest `json:"pull_requests"`
	Commits      []models.Commit      `json:"commits"`
}

// analyzeCmd runs the full analysis pipeline and writes artifacts.
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a repository's issues and write explainable artifacts",
	Long: `Analyze runs the deterministic analysis pipeline over a corpus of
issues, pull requests and commits.

The corpus comes from one of three sources:

1. A local snapshot file (--issues-file): no network access at all
2. GitHub (default): fetched live via the GitHub API
3. Jira (--source jira --jira-project KEY): fetched live via the Jira API

Artifacts are written beneath the output directory: a machine-readable
issues.json, human-readable summaries, duplicate groups, low-signal and
maintainer-load reports, and one directory per issue with its normalized
view, quality breakdown, cost estimate, label suggestions and a
contributor guide.

Auto-commenting is gated by --governance-mode: dry-run never comments,
strict comments only on needs-info issues, aggressive also suggests
labels. Comments are only ever posted for live GitHub corpora with
--post-comments set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		repository, err := cmd.Flags().GetString("repository")
		if err != nil {
			return err
		}
		issuesFile, _ := cmd.Flags().GetString("issues-file")
		outputDir, _ := cmd.Flags().GetString("output-dir")
		modeStr, _ := cmd.Flags().GetString("governance-mode")
		source, _ := cmd.Flags().GetString("source")
		jiraProject, _ := cmd.Flags().GetString("jira-project")
		stalenessDays, _ := cmd.Flags().GetInt("staleness-days")
		postComments, _ := cmd.Flags().GetBool("post-comments")

		mode := models.GovernanceMode(modeStr)
		if !mode.Valid() {
			return fmt.Errorf("invalid governance mode %q (want dry-run, strict or aggressive)", modeStr)
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if outputDir == "" {
			outputDir = cfg.Analysis.OutputDir
		}
		if stalenessDays <= 0 {
			stalenessDays = cfg.Analysis.StalenessDays
		}
		if repository == "" && issuesFile == "" {
			return fmt.Errorf("repository flag is required unless --issues-file is given")
		}
		if repository == "" {
			repository = "local/snapshot"
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		input := analysis.Input{
			Repo:           repository,
			Now:            time.Now().UTC(),
			GovernanceMode: mode,
			Lifecycle: analysis.LifecycleLimits{
				StalenessDays:            stalenessDays,
				ReproducibilityThreshold: analysis.DefaultLifecycleLimits.ReproducibilityThreshold,
				HighConfidenceMargin:     analysis.DefaultLifecycleLimits.HighConfidenceMargin,
			},
		}

		var githubClient *github.Client
		switch {
		case issuesFile != "":
			snap, err := readSnapshot(issuesFile)
			if err != nil {
				return err
			}
			input.Issues = snap.Issues
			input.PullRequests = snap.PullRequests
			input.Commits = snap.Commits
			logging.Info("loaded snapshot",
				"file", issuesFile,
				"issues", len(snap.Issues),
				"pull_requests", len(snap.PullRequests),
				"commits", len(snap.Commits))

		case source == "jira":
			if jiraProject == "" {
				return fmt.Errorf("--jira-project is required with --source jira")
			}
			jiraClient, err := jira.NewClient()
			if err != nil {
				return fmt.Errorf("failed to initialize jira client: %w", err)
			}
			input.Issues, err = jiraClient.GetProjectIssues(jiraProject)
			if err != nil {
				return fmt.Errorf("failed to fetch jira issues: %w", err)
			}

		case source == "github" || source == "":
			githubClient, err = github.NewClient()
			if err != nil {
				return fmt.Errorf("failed to initialize github client: %w", err)
			}
			input.Issues, err = githubClient.GetAllIssues(ctx, repository, true)
			if err != nil {
				return fmt.Errorf("failed to fetch github issues: %w", err)
			}
			input.PullRequests, err = githubClient.GetPullRequests(ctx, repository)
			if err != nil {
				logging.Warn("failed to fetch pull requests", "error", err)
			}
			input.Commits, err = githubClient.GetCommits(ctx, repository)
			if err != nil {
				logging.Warn("failed to fetch commits", "error", err)
			}

		default:
			return fmt.Errorf("unknown source %q (want github or jira)", source)
		}

		logging.Info("starting analysis",
			"repository", repository,
			"issue_count", len(input.Issues),
			"governance_mode", mode)

		run, err := analysis.Run(ctx, input)
		if err != nil {
			return fmt.Errorf("analysis failed: %w", err)
		}

		if err := report.NewWriter(outputDir).Write(run); err != nil {
			return fmt.Errorf("failed to write artifacts: %w", err)
		}
		if err := report.PrintSummary(cmd.OutOrStdout(), run); err != nil {
			return err
		}

		applyAutomation(ctx, run, githubClient, repository, postComments)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringP("issues-file", "f", "", "local JSON snapshot to analyze instead of fetching")
	analyzeCmd.Flags().StringP("output-dir", "o", "", "directory for artifacts (default from TRIAGE_OUTPUT_DIR)")
	analyzeCmd.Flags().StringP("governance-mode", "g", string(models.GovernanceDryRun), "automation aggressiveness: dry-run, strict or aggressive")
	analyzeCmd.Flags().String("source", "github", "issue source: github or jira")
	analyzeCmd.Flags().String("jira-project", "", "Jira project key when --source jira")
	analyzeCmd.Flags().Int("staleness-days", 0, "staleness window in days (default from TRIAGE_STALENESS_DAYS)")
	analyzeCmd.Flags().Bool("post-comments", false, "actually post auto-comments (live GitHub corpora only)")
}

// applyAutomation evaluates the auto-comment policy for every issue and,
// when allowed, posts the comments. Decisions are always logged so
// dry-run output shows exactly what would have happened.
func applyAutomation(ctx context.Context, run *models.AnalysisRun, githubClient *github.Client, repository string, postComments bool) {
	for _, a := range run.Issues {
		decision := automation.Decide(run.GovernanceMode, a)
		if !decision.ShouldComment {
			logging.Debug("no auto-comment",
				"issue_number", a.IssueNumber,
				"reason", decision.Reason)
			continue
		}

		if githubClient == nil || !postComments {
			logging.Info("auto-comment withheld",
				"issue_number", a.IssueNumber,
				"reason", decision.Reason)
			continue
		}

		if err := githubClient.AddComment(ctx, repository, a.IssueNumber, decision.Body); err != nil {
			logging.Error("failed to post auto-comment",
				"issue_number", a.IssueNumber,
				"error", err)
			continue
		}
		logging.Info("posted auto-comment", "issue_number", a.IssueNumber)
	}
}

// readSnapshot loads a local corpus file: either a snapshot object or a
// bare array of issues.
func readSnapshot(path string) (*snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read issues file: %w", err)
	}

	trimmed := strings.TrimSpace(string(data))
	snap := &snapshot{}
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(data, &snap.Issues); err != nil {
			return nil, fmt.Errorf("failed to parse issues file: %w", err)
		}
		return snap, nil
	}
	if err := json.Unmarshal(data, snap); err != nil {
		return nil, fmt.Errorf("failed to parse issues file: %w", err)
	}
	return snap, nil
}
