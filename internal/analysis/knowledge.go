package analysis

import (
	"sort"
	"strings"

	"github.com/danielolaszy/triage/internal/rules"
	"github.com/danielolaszy/triage/pkg/models"
)

// KnowledgeBaseLimits cap the size of each knowledge-base list.
type KnowledgeBaseLimits struct {
	TopErrorSignatures int `json:"top_error_signatures"`
	TopMentionedFiles  int `json:"top_mentioned_files"`
	FAQPatterns        int `json:"faq_patterns"`
}

// DefaultKnowledgeBaseLimits are the knowledge-base defaults.
var DefaultKnowledgeBaseLimits = KnowledgeBaseLimits{
	TopErrorSignatures: 10,
	TopMentionedFiles:  10,
	FAQPatterns:        10,
}

// SignatureCount is one recurring error signature and where it appears.
type SignatureCount struct {
	Signature    string `json:"signature"`
	Count        int    `json:"count"`
	IssueNumbers []int  `json:"issue_numbers"`
}

// FileMention is one source file mentioned across the corpus.
type FileMention struct {
	File         string `json:"file"`
	Count        int    `json:"count"`
	IssueNumbers []int  `json:"issue_numbers"`
}

// FAQPattern is a recurring how-to phrasing and the issues asking it.
type FAQPattern struct {
	Pattern      string `json:"pattern"`
	IssueNumbers []int  `json:"issue_numbers"`
}

// KnowledgeBase is the corpus-wide distillation of what keeps coming up:
// recurring error signatures, hot files and frequently asked questions.
type KnowledgeBase struct {
	Limits             KnowledgeBaseLimits `json:"limits"`
	TopErrorSignatures []SignatureCount    `json:"top_error_signatures"`
	TopMentionedFiles  []FileMention       `json:"top_mentioned_files"`
	FAQPatterns        []FAQPattern        `json:"faq_patterns"`
}

// BuildKnowledgeBase builds the knowledge base with the default limits.
func BuildKnowledgeBase(run *models.AnalysisRun) KnowledgeBase {
	return BuildKnowledgeBaseWithLimits(run, DefaultKnowledgeBaseLimits)
}

// BuildKnowledgeBaseWithLimits aggregates error signatures (one per issue,
// from the logs section), mentioned file paths (deduplicated per issue,
// original casing preserved) and support phrasings across the run. Lists
// are ordered by descending count, ties broken alphabetically, and capped
// by the limits.
func BuildKnowledgeBaseWithLimits(run *models.AnalysisRun, limits KnowledgeBaseLimits) KnowledgeBase {
	kb := KnowledgeBase{
		Limits:             limits,
		TopErrorSignatures: []SignatureCount{},
		TopMentionedFiles:  []FileMention{},
		FAQPatterns:        []FAQPattern{},
	}

	signatures := make(map[string][]int)
	type fileEntry struct {
		display string
		issues  []int
	}
	files := make(map[string]*fileEntry)
	faq := make(map[string][]int)
	tables := rules.Load()

	for _, a := range run.Issues {
		if sig := SignatureSummary(a.Normalized); sig != "" {
			signatures[sig] = append(signatures[sig], a.IssueNumber)
		}

		body := ""
		title := ""
		if a.Normalized.Issue != nil {
			body = a.Normalized.Issue.Body
			title = a.Normalized.Issue.Title
		}

		seen := make(map[string]bool)
		for _, tok := range fileTokenRe.FindAllString(body, -1) {
			key := strings.ToLower(tok)
			if seen[key] {
				continue
			}
			seen[key] = true
			entry, ok := files[key]
			if !ok {
				entry = &fileEntry{display: tok}
				files[key] = entry
			}
			entry.issues = append(entry.issues, a.IssueNumber)
		}

		lowered := strings.ToLower(title + "\n" + body)
		for _, phrase := range tables.SupportPhrases {
			if strings.Contains(lowered, phrase) {
				faq[phrase] = append(faq[phrase], a.IssueNumber)
			}
		}
	}

	for sig, issues := range signatures {
		sort.Ints(issues)
		kb.TopErrorSignatures = append(kb.TopErrorSignatures, SignatureCount{
			Signature:    sig,
			Count:        len(issues),
			IssueNumbers: issues,
		})
	}
	sort.Slice(kb.TopErrorSignatures, func(i, j int) bool {
		a, b := kb.TopErrorSignatures[i], kb.TopErrorSignatures[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Signature < b.Signature
	})
	kb.TopErrorSignatures = capSignatures(kb.TopErrorSignatures, limits.TopErrorSignatures)

	for _, entry := range files {
		sort.Ints(entry.issues)
		kb.TopMentionedFiles = append(kb.TopMentionedFiles, FileMention{
			File:         entry.display,
			Count:        len(entry.issues),
			IssueNumbers: entry.issues,
		})
	}
	sort.Slice(kb.TopMentionedFiles, func(i, j int) bool {
		a, b := kb.TopMentionedFiles[i], kb.TopMentionedFiles[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.File < b.File
	})
	if len(kb.TopMentionedFiles) > limits.TopMentionedFiles {
		kb.TopMentionedFiles = kb.TopMentionedFiles[:limits.TopMentionedFiles]
	}

	for pattern, issues := range faq {
		sort.Ints(issues)
		kb.FAQPatterns = append(kb.FAQPatterns, FAQPattern{
			Pattern:      pattern,
			IssueNumbers: issues,
		})
	}
	sort.Slice(kb.FAQPatterns, func(i, j int) bool {
		a, b := kb.FAQPatterns[i], kb.FAQPatterns[j]
		if len(a.IssueNumbers) != len(b.IssueNumbers) {
			return len(a.IssueNumbers) > len(b.IssueNumbers)
		}
		return a.Pattern < b.Pattern
	})
	if len(kb.FAQPatterns) > limits.FAQPatterns {
		kb.FAQPatterns = kb.FAQPatterns[:limits.FAQPatterns]
	}

	return kb
}

func capSignatures(s []SignatureCount, max int) []SignatureCount {
	if len(s) > max {
		return s[:max]
	}
	return s
}
