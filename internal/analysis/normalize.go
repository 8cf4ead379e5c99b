// Package analysis implements the deterministic issue-analysis pipeline:
// normalization, quality scoring, triage and lifecycle classification,
// maintainer-cost estimation, duplicate detection and cross-reference
// extraction, composed by Run into a single ordered record.
//
// Every phase function is pure and total: identical inputs always yield
// identical outputs, malformed input degrades to neutral results instead
// of failing, and no phase touches the network or the filesystem.
package analysis

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/danielolaszy/triage/internal/rules"
	"github.com/danielolaszy/triage/pkg/models"
)

const minBodyLength = 40

var (
	markdownHeadingRe = regexp.MustCompile(`^#{1,6}\s*(.+?)\s*$`)
	inlineHeadingRe   = regexp.MustCompile(`^([A-Za-z][A-Za-z /-]{1,40}?)\s*:\s*(.*)$`)
	codeFenceRe       = regexp.MustCompile("(?s)```[a-zA-Z0-9]*\\n?(.*?)```")
	traceMarkerRe     = regexp.MustCompile(`(?m)Traceback \(most recent call last\)|^\s*[A-Za-z_][A-Za-z0-9_.]*(?:Error|Exception)\b|^\s*panic:|^\s+at .+\(.+:\d+\)`)
)

// Normalize produces the cleaned-up view of an issue: a de-noised title,
// canonical sections extracted from the body, and low-signal pre-flags.
// It never fails, whatever the input looks like.
func Normalize(issue *models.Issue) models.NormalizedIssue {
	tables := rules.Load()

	sections := extractSections(issue.Body, tables)
	fences := codeFenceRe.FindAllStringSubmatch(issue.Body, -1)

	// Fenced blocks that look like a stack trace belong in the logs
	// section even when no heading announces them.
	for _, fence := range fences {
		content := strings.TrimSpace(fence[1])
		if content == "" || !traceMarkerRe.MatchString(content) {
			continue
		}
		appendSection(sections, models.SectionLogs, content)
	}

	// Unfenced trace text counts too; a reporter pasting a raw traceback
	// should not score worse than one who fenced it.
	if _, ok := sections[models.SectionLogs]; !ok {
		if trace := unfencedTrace(issue.Body); trace != "" {
			sections[models.SectionLogs] = trace
		}
	}

	var reasons []string
	body := strings.TrimSpace(issue.Body)
	if len(body) < minBodyLength {
		reasons = append(reasons, "body below minimum length")
	}
	if len(sections) == 0 {
		reasons = append(reasons, "no recognizable sections")
	}
	lowered := strings.ToLower(issue.Title + "\n" + issue.Body)
	for _, phrase := range tables.SpamPhrases {
		if strings.Contains(lowered, phrase) {
			reasons = append(reasons, fmt.Sprintf("spam indicator phrase: %q", phrase))
		}
	}

	return models.NormalizedIssue{
		Issue:            issue,
		NormalizedTitle:  NormalizeTitle(issue.Title),
		Sections:         sections,
		HasCodeFence:     len(fences) > 0,
		IsLowSignal:      len(reasons) > 0,
		LowSignalReasons: reasons,
	}
}

// NormalizeTitle strips symbols and emoji, lowercases, drops configured
// noise words and collapses whitespace. "URGENT: Help!!! Bug in login"
// becomes "in login".
func NormalizeTitle(title string) string {
	tables := rules.Load()

	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, title)
	cleaned = strings.ToLower(cleaned)

	noise := make(map[string]bool, len(tables.TitleNoiseWords))
	for _, w := range tables.TitleNoiseWords {
		noise[w] = true
	}

	var kept []string
	for _, word := range strings.Fields(cleaned) {
		if !noise[word] {
			kept = append(kept, word)
		}
	}
	return strings.Join(kept, " ")
}

// extractSections scans the body line by line for canonical headings,
// recognizing both markdown headings ("### Steps to reproduce") and
// inline headings ("Expected behavior: should login"). Text is captured
// until the next heading or end of body. Unknown headings are ignored.
// Lines inside code fences are never treated as headings.
func extractSections(body string, tables *rules.Tables) map[models.SectionKey]string {
	sections := make(map[models.SectionKey]string)

	var current models.SectionKey
	var buf []string
	inFence := false

	flush := func() {
		if current == "" {
			return
		}
		appendSection(sections, current, strings.TrimSpace(strings.Join(buf, "\n")))
		current = ""
		buf = nil
	}

	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			if current != "" {
				buf = append(buf, line)
			}
			continue
		}
		if inFence {
			if current != "" {
				buf = append(buf, line)
			}
			continue
		}

		if m := markdownHeadingRe.FindStringSubmatch(trimmed); m != nil {
			flush()
			if key, ok := tables.SectionKeyFor(strings.ToLower(strings.TrimSpace(m[1]))); ok {
				current = key
			}
			continue
		}
		if m := inlineHeadingRe.FindStringSubmatch(trimmed); m != nil {
			if key, ok := tables.SectionKeyFor(strings.ToLower(strings.TrimSpace(m[1]))); ok {
				flush()
				current = key
				if rest := strings.TrimSpace(m[2]); rest != "" {
					buf = append(buf, rest)
				}
				continue
			}
		}
		if current != "" {
			buf = append(buf, line)
		}
	}
	flush()

	return sections
}

// unfencedTrace returns the contiguous block of lines starting at the
// first trace marker outside any code fence, or "" when none exists.
func unfencedTrace(body string) string {
	if !traceMarkerRe.MatchString(body) {
		return ""
	}
	lines := strings.Split(body, "\n")
	start := -1
	for i, line := range lines {
		if traceMarkerRe.MatchString(line) {
			start = i
			break
		}
	}
	if start < 0 {
		return ""
	}
	end := start
	for end < len(lines) && strings.TrimSpace(lines[end]) != "" {
		end++
	}
	return strings.TrimSpace(strings.Join(lines[start:end], "\n"))
}

func appendSection(sections map[models.SectionKey]string, key models.SectionKey, text string) {
	if text == "" {
		return
	}
	if existing, ok := sections[key]; ok && existing != "" {
		sections[key] = existing + "\n" + text
		return
	}
	sections[key] = text
}

// hasTraceEvidence reports whether the normalized issue carries anything
// resembling a stack trace.
func hasTraceEvidence(n models.NormalizedIssue) bool {
	if logs, ok := n.Sections[models.SectionLogs]; ok && traceMarkerRe.MatchString(logs) {
		return true
	}
	return false
}
