package analysis

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/danielolaszy/triage/pkg/models"
)

// Input is the fully materialized data set for one pipeline run. Fetching
// happens upstream; the pipeline itself performs no I/O.
type Input struct {
	Repo           string
	Issues         []models.Issue
	PullRequests   []models.PullRequest
	Commits        []models.Commit
	Now            time.Time
	GovernanceMode models.GovernanceMode

	// Lifecycle overrides the default lifecycle limits when non-zero.
	Lifecycle LifecycleLimits

	// Parallelism bounds concurrent per-issue analysis; defaults to
	// the number of CPUs.
	Parallelism int64
}

// Run executes every per-issue phase for every issue, the corpus-wide
// phases once, and assembles an AnalysisRun sorted by ascending issue
// number regardless of input order. The governance mode is validated and
// then carried through unmodified.
//
// Contract violations by the caller (invalid governance mode, artifacts
// with non-positive numbers or empty shas) fail the run; everything else
// degrades gracefully inside the phases.
func Run(ctx context.Context, input Input) (*models.AnalysisRun, error) {
	if err := validate(input); err != nil {
		return nil, err
	}

	limits := input.Lifecycle
	if limits == (LifecycleLimits{}) {
		limits = DefaultLifecycleLimits
	}
	parallelism := input.Parallelism
	if parallelism <= 0 {
		parallelism = int64(runtime.NumCPU())
	}

	// Upstream fetchers may deliver the same issue more than once;
	// first occurrence wins.
	issues := dedupeIssues(input.Issues)

	// Per-issue phases are independent across issues; run them in
	// parallel, bounded, writing each result into its own slot.
	analyses := make([]models.IssueAnalysis, len(issues))
	sem := semaphore.NewWeighted(parallelism)
	var wg sync.WaitGroup
	for i := range issues {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Already-launched goroutines still hold slice slots; let
			// them drain before the slice goes out of scope.
			wg.Wait()
			return nil, fmt.Errorf("analysis canceled: %w", err)
		}
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			defer sem.Release(1)
			analyses[slot] = AnalyzeIssue(&issues[slot], input.Now, limits)
		}(i)
	}
	wg.Wait()

	// Corpus-wide phases only start once every issue is normalized:
	// this join is the pipeline's synchronization barrier.
	corpus := make([]models.NormalizedIssue, len(analyses))
	for i, a := range analyses {
		corpus[i] = a.Normalized
	}
	duplicates := DetectDuplicates(corpus)
	for i := range analyses {
		if link, ok := duplicates[analyses[i].IssueNumber]; ok {
			l := link
			analyses[i].Duplicates = &l
			analyses[i].MaintainerAction = RecommendActions(analyses[i].Normalized, analyses[i].Lifecycle, &l)
		}
	}

	dependencies := ExtractDependencies(input.Repo, issues, input.PullRequests, input.Commits)

	sort.Slice(analyses, func(i, j int) bool {
		return analyses[i].IssueNumber < analyses[j].IssueNumber
	})

	return &models.AnalysisRun{
		GeneratedAt:    input.Now,
		Repo:           input.Repo,
		Issues:         analyses,
		Dependencies:   dependencies,
		GovernanceMode: input.GovernanceMode,
	}, nil
}

// AnalyzeIssue runs every per-issue phase for a single issue. Duplicate
// links are corpus-wide and attached later by Run.
func AnalyzeIssue(issue *models.Issue, now time.Time, limits LifecycleLimits) models.IssueAnalysis {
	normalized := Normalize(issue)
	quality := ScoreQuality(normalized)
	triage := ClassifyTriage(normalized)
	lifecycle := ClassifyLifecycleWithLimits(normalized, quality, triage, now, limits)
	cost := EstimateCost(normalized, quality)

	return models.IssueAnalysis{
		IssueNumber:      issue.Number,
		Normalized:       normalized,
		Quality:          quality,
		Triage:           triage,
		Lifecycle:        lifecycle,
		MaintainerCost:   cost,
		MaintainerAction: RecommendActions(normalized, lifecycle, nil),
		Labels:           RecommendLabels(normalized, quality, triage, lifecycle),
	}
}

func validate(input Input) error {
	if !input.GovernanceMode.Valid() {
		return fmt.Errorf("invalid governance mode %q (want dry-run, strict or aggressive)", input.GovernanceMode)
	}
	for _, issue := range input.Issues {
		if issue.Number <= 0 {
			return fmt.Errorf("issue with non-positive number %d", issue.Number)
		}
	}
	for _, pr := range input.PullRequests {
		if pr.Number <= 0 {
			return fmt.Errorf("pull request with non-positive number %d", pr.Number)
		}
	}
	for _, commit := range input.Commits {
		if commit.SHA == "" {
			return fmt.Errorf("commit with empty sha")
		}
	}
	return nil
}

func dedupeIssues(issues []models.Issue) []models.Issue {
	seen := make(map[int]bool, len(issues))
	out := make([]models.Issue, 0, len(issues))
	for _, issue := range issues {
		if seen[issue.Number] {
			continue
		}
		seen[issue.Number] = true
		out = append(out, issue)
	}
	return out
}
