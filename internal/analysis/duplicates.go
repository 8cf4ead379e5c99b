package analysis

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"sort"
	"strings"

	"github.com/danielolaszy/triage/pkg/models"
)

var (
	exceptionLineRe = regexp.MustCompile(`(?m)^\s*([A-Za-z_][A-Za-z0-9_.]*(?:Error|Exception))\s*:\s*(.*)$`)
	quotedValueRe   = regexp.MustCompile(`'[^']*'|"[^"]*"`)
	hexValueRe      = regexp.MustCompile(`\b0x[0-9a-fA-F]+\b`)
	numberRe        = regexp.MustCompile(`\d+`)
	whitespaceRe    = regexp.MustCompile(`\s+`)
)

// errorSignature is the duplicate-grouping key: an exception type plus a
// message template with variable literals stripped, so messages differing
// only in values collapse together.
type errorSignature struct {
	exceptionType string
	template      string
}

func (s errorSignature) hash() uint64 {
	h := fnv.New64a()
	h.Write([]byte(s.exceptionType))
	h.Write([]byte{'|'})
	h.Write([]byte(s.template))
	return h.Sum64()
}

// DetectDuplicates groups a fully normalized corpus by error signature.
// Buckets with two or more members produce a DuplicateLink for every
// member, each listing the others. Issues without an extractable
// signature never appear in the result.
func DetectDuplicates(corpus []models.NormalizedIssue) map[int]models.DuplicateLink {
	buckets := make(map[uint64][]int)
	for _, n := range corpus {
		if n.Issue == nil {
			continue
		}
		sig, ok := extractSignature(n)
		if !ok {
			continue
		}
		buckets[sig.hash()] = append(buckets[sig.hash()], n.Issue.Number)
	}

	links := make(map[int]models.DuplicateLink)
	for _, members := range buckets {
		if len(members) < 2 {
			continue
		}
		sort.Ints(members)
		for _, number := range members {
			others := make([]int, 0, len(members)-1)
			for _, m := range members {
				if m != number {
					others = append(others, m)
				}
			}
			links[number] = models.DuplicateLink{
				IssueNumber:        number,
				LikelyDuplicatesOf: others,
				SimilarityReasons:  []string{"error signature hash match"},
			}
		}
	}
	return links
}

// extractSignature pulls the first exception-type line out of the logs
// section and strips value-like substrings from its message.
func extractSignature(n models.NormalizedIssue) (errorSignature, bool) {
	logs, ok := n.Sections[models.SectionLogs]
	if !ok {
		return errorSignature{}, false
	}
	m := exceptionLineRe.FindStringSubmatch(logs)
	if m == nil {
		return errorSignature{}, false
	}
	return errorSignature{
		exceptionType: m[1],
		template:      messageTemplate(m[2]),
	}, true
}

// messageTemplate normalizes away variable substrings: quoted values,
// hex ids and digit runs become placeholders, whitespace collapses, case
// folds.
func messageTemplate(msg string) string {
	t := quotedValueRe.ReplaceAllString(msg, "<val>")
	t = hexValueRe.ReplaceAllString(t, "<hex>")
	t = numberRe.ReplaceAllString(t, "<n>")
	t = whitespaceRe.ReplaceAllString(t, " ")
	return strings.ToLower(strings.TrimSpace(t))
}

// SignatureSummary renders the issue's error signature in a short
// human-readable form for reports, or "" when none is extractable.
func SignatureSummary(n models.NormalizedIssue) string {
	sig, ok := extractSignature(n)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s: %s", sig.exceptionType, sig.template)
}
