// Package models defines data structures shared across the application.
package models

import (
	"time"
)

// GovernanceMode controls how aggressively the automation layer is allowed
// to act on analysis results. The analysis core never interprets it; it is
// validated at the boundary and carried through to every output record.
type GovernanceMode string

const (
	// GovernanceDryRun never posts or mutates anything.
	GovernanceDryRun GovernanceMode = "dry-run"
	// GovernanceStrict only acts on high-confidence triggers.
	GovernanceStrict GovernanceMode = "strict"
	// GovernanceAggressive acts on every trigger and includes suggestions.
	GovernanceAggressive GovernanceMode = "aggressive"
)

// Valid reports whether the mode is one of the supported values.
func (m GovernanceMode) Valid() bool {
	switch m {
	case GovernanceDryRun, GovernanceStrict, GovernanceAggressive:
		return true
	}
	return false
}

// IssueAuthor identifies the account that created an issue or comment.
type IssueAuthor struct {
	Login string `json:"login"`
}

// IssueComment is a single comment on an issue or pull request.
type IssueComment struct {
	ID        int64        `json:"id"`
	Author    *IssueAuthor `json:"author,omitempty"`
	Body      string       `json:"body"`
	CreatedAt *time.Time   `json:"created_at,omitempty"`
	UpdatedAt *time.Time   `json:"updated_at,omitempty"`
}

// Issue represents a tracker issue with its essential fields.
// Instances are treated as immutable once constructed; the analysis
// pipeline never mutates its inputs.
type Issue struct {
	// Number is the issue number in the tracker (e.g., 42)
	Number int `json:"number"`

	// Title is the issue's title or summary
	Title string `json:"title"`

	// Body is the full body text of the issue, possibly empty
	Body string `json:"body"`

	// Author is the reporting account, when known
	Author *IssueAuthor `json:"author,omitempty"`

	// State is the current state of the issue ("open" or "closed")
	State string `json:"state"`

	// CreatedAt is the timestamp when the issue was created
	CreatedAt *time.Time `json:"created_at,omitempty"`

	// UpdatedAt is the timestamp when the issue was last updated
	UpdatedAt *time.Time `json:"updated_at,omitempty"`

	// Labels is a slice of label names attached to the issue
	Labels []string `json:"labels,omitempty"`

	// Comments is the ordered sequence of comments on the issue
	Comments []IssueComment `json:"comments,omitempty"`
}

// PullRequest represents a pull request with the text-bearing fields the
// pipeline scans.
type PullRequest struct {
	Number    int            `json:"number"`
	Title     string         `json:"title"`
	Body      string         `json:"body"`
	Author    *IssueAuthor   `json:"author,omitempty"`
	State     string         `json:"state"`
	CreatedAt *time.Time     `json:"created_at,omitempty"`
	UpdatedAt *time.Time     `json:"updated_at,omitempty"`
	Comments  []IssueComment `json:"comments,omitempty"`
}

// Commit carries the two fields the cross-reference extractor scans.
type Commit struct {
	SHA     string `json:"sha"`
	Message string `json:"message"`
}

// SectionKey is a canonical issue-body section name. The vocabulary is
// closed: only the constants below ever appear as keys in
// NormalizedIssue.Sections.
type SectionKey string

const (
	SectionReproductionSteps SectionKey = "reproduction_steps"
	SectionExpectedBehavior  SectionKey = "expected_behavior"
	SectionActualBehavior    SectionKey = "actual_behavior"
	SectionEnvironment       SectionKey = "environment"
	SectionLogs              SectionKey = "logs"
)

// CanonicalSections lists every canonical section key in a fixed order.
var CanonicalSections = []SectionKey{
	SectionReproductionSteps,
	SectionExpectedBehavior,
	SectionActualBehavior,
	SectionEnvironment,
	SectionLogs,
}

// NormalizedIssue is the derived, cleaned-up view of an issue. It is never
// mutated after creation.
type NormalizedIssue struct {
	// Issue is the source record this view was derived from
	Issue *Issue `json:"-"`

	// NormalizedTitle is the title with symbols, noise words and extra
	// whitespace removed, lowercased
	NormalizedTitle string `json:"normalized_title"`

	// Sections maps canonical section keys to extracted body text
	Sections map[SectionKey]string `json:"sections"`

	// HasCodeFence is true when the body contains a fenced code block
	HasCodeFence bool `json:"has_code_fence"`

	// IsLowSignal is true when any low-signal pre-flag fired
	IsLowSignal bool `json:"is_low_signal"`

	// LowSignalReasons names the pre-flags that fired, in order
	LowSignalReasons []string `json:"low_signal_reasons"`
}

// QualityBreakdown is the four-axis quality score for one issue. Every
// field lies in [0,100] and every rule that moved a score appends a reason.
type QualityBreakdown struct {
	Completeness    int      `json:"completeness"`
	Clarity         int      `json:"clarity"`
	Reproducibility int      `json:"reproducibility"`
	Noise           int      `json:"noise"`
	Reasons         []string `json:"reasons"`
}

// TriageCategory is the coarse issue category assigned by triage.
type TriageCategory string

const (
	CategoryBug      TriageCategory = "bug"
	CategoryFeature  TriageCategory = "feature"
	CategoryQuestion TriageCategory = "question"
	CategorySupport  TriageCategory = "support request"
)

// TriageClassification is the triage result: a category plus a confidence
// in [0,1] and the matched phrase categories that produced it.
type TriageClassification struct {
	Category   TriageCategory `json:"category"`
	Confidence float64        `json:"confidence"`
	Reasons    []string       `json:"reasons"`
}

// LifecycleState is one of the four workflow states assigned by the
// lifecycle classifier.
type LifecycleState string

const (
	StateActionable LifecycleState = "actionable"
	StateNeedsInfo  LifecycleState = "needs-info"
	StateBlocked    LifecycleState = "blocked"
	StateStale      LifecycleState = "stale"
)

// Confidence is a coarse confidence grade.
type Confidence string

const (
	ConfidenceLow    Confidence = "LOW"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceHigh   Confidence = "HIGH"
)

// LifecycleClassification is the lifecycle result with the specific
// trigger rules that fired.
type LifecycleClassification struct {
	State      LifecycleState `json:"state"`
	Confidence Confidence     `json:"confidence"`
	Reasons    []string       `json:"reasons"`
}

// CostLevel is the coarse maintainer-effort estimate.
type CostLevel string

const (
	CostLow    CostLevel = "low"
	CostMedium CostLevel = "medium"
	CostHigh   CostLevel = "high"
)

// CostSignals exposes every intermediate value the cost estimator looked
// at. The vocabulary is deliberately closed: a struct rather than a map,
// so downstream consumers and tests can rely on the exact set of signals.
type CostSignals struct {
	DistinctFilesMentioned int  `json:"distinct_files_mentioned"`
	HasReproductionSteps   bool `json:"has_reproduction_steps"`
	Reproducibility        int  `json:"reproducibility"`
	Noise                  int  `json:"noise"`
	BodyLength             int  `json:"body_length"`
}

// MaintainerCostEstimate is the effort estimate plus its evidence.
type MaintainerCostEstimate struct {
	Level   CostLevel   `json:"level"`
	Reasons []string    `json:"reasons"`
	Signals CostSignals `json:"signals"`
}

// DuplicateLink records that an issue shares an error signature with
// other issues in the same corpus.
type DuplicateLink struct {
	IssueNumber        int      `json:"issue_number"`
	LikelyDuplicatesOf []int    `json:"likely_duplicates_of"`
	SimilarityReasons  []string `json:"similarity_reasons"`
}

// RefKind is the kind of artifact at either end of a cross-reference.
type RefKind string

const (
	RefIssue       RefKind = "issue"
	RefPullRequest RefKind = "pull_request"
	RefCommit      RefKind = "commit"
)

// RefEndpoint identifies one end of a cross-reference link. Repo defaults
// to the analyzed repository and differs only for cross-repo references.
type RefEndpoint struct {
	Kind       RefKind `json:"kind"`
	Identifier string  `json:"identifier"`
	Repo       string  `json:"repo"`
}

// CrossReferenceLink is a directed edge from a scanned artifact to an
// issue or pull request it references.
type CrossReferenceLink struct {
	Source RefEndpoint `json:"source"`
	Target RefEndpoint `json:"target"`

	// OriginPhrase is the verb phrase that introduced the reference
	// ("fixes", "closes", ...), empty for bare references.
	OriginPhrase string `json:"origin_phrase,omitempty"`
}

// MaintainerAction is the set of recommended follow-up actions for one
// issue.
type MaintainerAction struct {
	RecommendedActions []string `json:"recommended_actions"`
}

// LabelRecommendation is a single suggested tracker label with the rule
// that produced it.
type LabelRecommendation struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// IssueAnalysis aggregates every per-issue phase result for one issue.
type IssueAnalysis struct {
	IssueNumber      int                     `json:"issue_number"`
	Normalized       NormalizedIssue         `json:"normalized"`
	Quality          QualityBreakdown        `json:"quality"`
	Triage           TriageClassification    `json:"triage"`
	Lifecycle        LifecycleClassification `json:"lifecycle"`
	MaintainerCost   MaintainerCostEstimate  `json:"maintainer_cost"`
	Duplicates       *DuplicateLink          `json:"duplicates,omitempty"`
	MaintainerAction MaintainerAction        `json:"maintainer_action"`
	Labels           []LabelRecommendation   `json:"labels,omitempty"`
}

// AnalysisRun is the complete, deterministically ordered result of one
// pipeline run. Issues are always sorted by ascending number regardless of
// fetch order.
type AnalysisRun struct {
	GeneratedAt    time.Time            `json:"generated_at"`
	Repo           string               `json:"repo"`
	Issues         []IssueAnalysis      `json:"issues"`
	Dependencies   []CrossReferenceLink `json:"dependencies"`
	GovernanceMode GovernanceMode       `json:"governance_mode"`
}
