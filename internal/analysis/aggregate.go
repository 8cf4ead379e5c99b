package analysis

import (
	"strings"
	"time"

	"github.com/danielolaszy/triage/pkg/models"
)

// LowSignalLimits tune the corpus-wide low-signal report.
type LowSignalLimits struct {
	MinBodyLength  int `json:"min_body_length"`
	NoiseThreshold int `json:"noise_threshold"`
}

// DefaultLowSignalLimits are the report defaults.
var DefaultLowSignalLimits = LowSignalLimits{MinBodyLength: minBodyLength, NoiseThreshold: 70}

// LowSignalItem is one flagged issue in the low-signal report.
type LowSignalItem struct {
	IssueNumber    int      `json:"issue_number"`
	Classification string   `json:"classification"`
	Reasons        []string `json:"reasons"`
}

// LowSignalReport is the corpus-wide spam/low-effort summary.
type LowSignalReport struct {
	Limits LowSignalLimits `json:"limits"`
	Items  []LowSignalItem `json:"items"`
}

// DetectLowSignalIssues flags spam and low-effort issues across a run.
// An issue carrying real stack-trace evidence is never flagged, however
// short its body: a terse report with a traceback is still a report.
func DetectLowSignalIssues(run *models.AnalysisRun, limits LowSignalLimits) LowSignalReport {
	report := LowSignalReport{Limits: limits, Items: []LowSignalItem{}}
	for _, a := range run.Issues {
		if !a.Normalized.IsLowSignal && a.Quality.Noise < limits.NoiseThreshold {
			continue
		}
		if hasTraceEvidence(a.Normalized) {
			continue
		}
		classification := "low_effort"
		for _, reason := range a.Normalized.LowSignalReasons {
			if strings.Contains(reason, "spam indicator phrase") {
				classification = "spam"
				break
			}
		}
		reasons := a.Normalized.LowSignalReasons
		if len(reasons) == 0 {
			reasons = []string{"noise score above threshold"}
		}
		report.Items = append(report.Items, LowSignalItem{
			IssueNumber:    a.IssueNumber,
			Classification: classification,
			Reasons:        reasons,
		})
	}
	return report
}

// MaintainerLoadLimits tune the load-level thresholds.
type MaintainerLoadLimits struct {
	// HighLoadShare is the fraction of high-cost issues above which the
	// overall level is high.
	HighLoadShare float64 `json:"high_load_share"`
}

// DefaultMaintainerLoadLimits are the load-report defaults.
var DefaultMaintainerLoadLimits = MaintainerLoadLimits{HighLoadShare: 0.5}

// MaintainerLoadCounts are the headline corpus counts.
type MaintainerLoadCounts struct {
	TotalIssues int `json:"total_issues"`
	HighCost    int `json:"high_cost"`
	NeedsInfo   int `json:"needs_info"`
	Stale       int `json:"stale"`
}

// MaintainerLoadReport summarizes how much attention the corpus demands.
type MaintainerLoadReport struct {
	Limits MaintainerLoadLimits `json:"limits"`
	Counts MaintainerLoadCounts `json:"counts"`
	Level  string               `json:"level"`
}

// ComputeMaintainerLoad counts high-cost, needs-info and stale issues and
// grades the overall load.
func ComputeMaintainerLoad(run *models.AnalysisRun) MaintainerLoadReport {
	return ComputeMaintainerLoadWithLimits(run, DefaultMaintainerLoadLimits)
}

// ComputeMaintainerLoadWithLimits is ComputeMaintainerLoad with explicit
// limits.
func ComputeMaintainerLoadWithLimits(run *models.AnalysisRun, limits MaintainerLoadLimits) MaintainerLoadReport {
	counts := MaintainerLoadCounts{TotalIssues: len(run.Issues)}
	for _, a := range run.Issues {
		if a.MaintainerCost.Level == models.CostHigh {
			counts.HighCost++
		}
		switch a.Lifecycle.State {
		case models.StateNeedsInfo:
			counts.NeedsInfo++
		case models.StateStale:
			counts.Stale++
		}
	}

	level := "medium"
	switch {
	case counts.TotalIssues == 0 || (counts.HighCost == 0 && counts.NeedsInfo == 0 && counts.Stale == 0):
		level = "low"
	case float64(counts.HighCost) >= limits.HighLoadShare*float64(counts.TotalIssues):
		level = "high"
	}

	return MaintainerLoadReport{Limits: limits, Counts: counts, Level: level}
}

// HealthLimits are the thresholds above which a health metric is
// considered concerning in reports.
type HealthLimits struct {
	NeedsInfoPctWarn float64 `json:"needs_info_pct_warn"`
	StalePctWarn     float64 `json:"stale_pct_warn"`
}

// DefaultHealthLimits are the health-report defaults.
var DefaultHealthLimits = HealthLimits{NeedsInfoPctWarn: 50, StalePctWarn: 25}

// HealthMetrics are corpus-wide quality metrics.
type HealthMetrics struct {
	NeedsInfoPct              float64 `json:"needs_info_pct"`
	StalePct                  float64 `json:"stale_pct"`
	AvgQualityReproducibility float64 `json:"avg_quality_reproducibility"`
	AvgQualityNoise           float64 `json:"avg_quality_noise"`
}

// ComputeIssueHealth derives aggregate health metrics for a run. An empty
// run yields all-zero metrics.
func ComputeIssueHealth(run *models.AnalysisRun) HealthMetrics {
	total := len(run.Issues)
	if total == 0 {
		return HealthMetrics{}
	}
	var needsInfo, stale, reproSum, noiseSum int
	for _, a := range run.Issues {
		switch a.Lifecycle.State {
		case models.StateNeedsInfo:
			needsInfo++
		case models.StateStale:
			stale++
		}
		reproSum += a.Quality.Reproducibility
		noiseSum += a.Quality.Noise
	}
	return HealthMetrics{
		NeedsInfoPct:              100 * float64(needsInfo) / float64(total),
		StalePct:                  100 * float64(stale) / float64(total),
		AvgQualityReproducibility: float64(reproSum) / float64(total),
		AvgQualityNoise:           float64(noiseSum) / float64(total),
	}
}

// DigestLimits tune the recent-activity digest.
type DigestLimits struct {
	WindowDays int `json:"window_days"`
}

// DefaultDigestLimits cover the trailing week.
var DefaultDigestLimits = DigestLimits{WindowDays: 7}

// Digest is the recent-activity summary of a run.
type Digest struct {
	Limits           DigestLimits `json:"limits"`
	RecentIssueCount int          `json:"recent_issue_count"`
	HighCostIssues   []int        `json:"high_cost_issues"`
	NeedsInfoIssues  []int        `json:"needs_info_issues"`
}

// BuildDigest summarizes recent issues and the corpus hot spots.
func BuildDigest(run *models.AnalysisRun, now time.Time, limits DigestLimits) Digest {
	digest := Digest{
		Limits:          limits,
		HighCostIssues:  []int{},
		NeedsInfoIssues: []int{},
	}
	window := time.Duration(limits.WindowDays) * 24 * time.Hour
	for _, a := range run.Issues {
		if a.Normalized.Issue != nil && a.Normalized.Issue.CreatedAt != nil &&
			now.Sub(*a.Normalized.Issue.CreatedAt) <= window {
			digest.RecentIssueCount++
		}
		if a.MaintainerCost.Level == models.CostHigh {
			digest.HighCostIssues = append(digest.HighCostIssues, a.IssueNumber)
		}
		if a.Lifecycle.State == models.StateNeedsInfo {
			digest.NeedsInfoIssues = append(digest.NeedsInfoIssues, a.IssueNumber)
		}
	}
	return digest
}
