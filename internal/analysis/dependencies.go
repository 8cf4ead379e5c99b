package analysis

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/danielolaszy/triage/pkg/models"
)

// DependencyLimits bound cross-reference extraction.
type DependencyLimits struct {
	// MaxLinksPerSource caps how many links a single artifact may yield,
	// guarding against pathological bodies.
	MaxLinksPerSource int `json:"max_links_per_source"`
}

// DefaultDependencyLimits are the extraction defaults.
var DefaultDependencyLimits = DependencyLimits{MaxLinksPerSource: 50}

var (
	crossRepoRefRe = regexp.MustCompile(`([A-Za-z0-9][A-Za-z0-9_.-]*/[A-Za-z0-9][A-Za-z0-9_.-]*)#(\d+)`)
	bareRefRe      = regexp.MustCompile(`#(\d+)\b`)
	ghRefRe        = regexp.MustCompile(`\bGH-(\d+)\b`)
	prContextRe    = regexp.MustCompile(`(?i)(?:pull request|\bPR\b)\s*$`)
	originPhraseRe = regexp.MustCompile(`(?i)\b(fixes|fixed by|closes|closed by|resolves|resolved by|related)\b[^\n#]*$`)
)

// scanSource is one artifact whose text is searched for references.
type scanSource struct {
	endpoint models.RefEndpoint
	texts    []string
}

// ExtractDependencies scans issue and PR bodies, their comments and
// commit messages for cross-reference grammars and returns the resulting
// links sorted by source kind and identifier, then target kind and
// identifier. Extraction uses the default limits.
func ExtractDependencies(repo string, issues []models.Issue, pullRequests []models.PullRequest, commits []models.Commit) []models.CrossReferenceLink {
	return ExtractDependenciesWithLimits(repo, issues, pullRequests, commits, DefaultDependencyLimits)
}

// ExtractDependenciesWithLimits is ExtractDependencies with explicit
// limits. Recognized grammars:
//
//   - bare "#N": same-repo target, kind issue unless nearby wording
//     ("PR #N", "Merge pull request #N") marks it a pull request
//   - "owner/repo#N": explicit cross-repo target
//   - "GH-N": alternate same-repo syntax, same resolution as "#N"
//   - verb-qualified phrases ("Fixes", "Closes", "Resolves", "Related")
//     are recorded as the link's origin phrase
//
// A line consisting solely of "#" plus digits is a markdown heading
// token, not a reference, and is excluded.
func ExtractDependenciesWithLimits(repo string, issues []models.Issue, pullRequests []models.PullRequest, commits []models.Commit, limits DependencyLimits) []models.CrossReferenceLink {
	var sources []scanSource
	for i := range issues {
		issue := &issues[i]
		sources = append(sources, scanSource{
			endpoint: models.RefEndpoint{Kind: models.RefIssue, Identifier: strconv.Itoa(issue.Number), Repo: repo},
			texts:    gatherTexts(issue.Body, issue.Comments),
		})
	}
	for i := range pullRequests {
		pr := &pullRequests[i]
		sources = append(sources, scanSource{
			endpoint: models.RefEndpoint{Kind: models.RefPullRequest, Identifier: strconv.Itoa(pr.Number), Repo: repo},
			texts:    gatherTexts(pr.Body, pr.Comments),
		})
	}
	for _, commit := range commits {
		sources = append(sources, scanSource{
			endpoint: models.RefEndpoint{Kind: models.RefCommit, Identifier: commit.SHA, Repo: repo},
			texts:    []string{commit.Message},
		})
	}

	var links []models.CrossReferenceLink
	for _, src := range sources {
		seen := make(map[models.RefEndpoint]bool)
		count := 0
		for _, text := range src.texts {
			for _, link := range scanText(repo, src.endpoint, text) {
				if link.Target == link.Source {
					continue // self-reference carries no dependency signal
				}
				if seen[link.Target] || count >= limits.MaxLinksPerSource {
					continue
				}
				seen[link.Target] = true
				count++
				links = append(links, link)
			}
		}
	}

	sort.Slice(links, func(i, j int) bool {
		a, b := links[i], links[j]
		if a.Source.Kind != b.Source.Kind {
			return a.Source.Kind < b.Source.Kind
		}
		if a.Source.Identifier != b.Source.Identifier {
			return identifierLess(a.Source.Identifier, b.Source.Identifier)
		}
		if a.Target.Kind != b.Target.Kind {
			return a.Target.Kind < b.Target.Kind
		}
		return identifierLess(a.Target.Identifier, b.Target.Identifier)
	})
	return links
}

// scanText finds every reference in one text. A non-matching grammar is
// simply no signal, never an error.
func scanText(repo string, source models.RefEndpoint, text string) []models.CrossReferenceLink {
	var links []models.CrossReferenceLink
	claimed := make(map[int]bool)

	for _, m := range crossRepoRefRe.FindAllStringSubmatchIndex(text, -1) {
		for i := m[0]; i < m[1]; i++ {
			claimed[i] = true
		}
		targetRepo := text[m[2]:m[3]]
		number := text[m[4]:m[5]]
		links = append(links, models.CrossReferenceLink{
			Source:       source,
			Target:       models.RefEndpoint{Kind: models.RefIssue, Identifier: number, Repo: targetRepo},
			OriginPhrase: originPhrase(text, m[0]),
		})
	}

	for _, m := range ghRefRe.FindAllStringSubmatchIndex(text, -1) {
		number := text[m[2]:m[3]]
		links = append(links, models.CrossReferenceLink{
			Source:       source,
			Target:       models.RefEndpoint{Kind: refKindFromContext(text, m[0]), Identifier: number, Repo: repo},
			OriginPhrase: originPhrase(text, m[0]),
		})
	}

	for _, m := range bareRefRe.FindAllStringSubmatchIndex(text, -1) {
		start := m[0]
		if claimed[start] {
			continue // part of an owner/repo#N match
		}
		if isHeadingToken(text, start) {
			continue
		}
		number := text[m[2]:m[3]]
		links = append(links, models.CrossReferenceLink{
			Source:       source,
			Target:       models.RefEndpoint{Kind: refKindFromContext(text, start), Identifier: number, Repo: repo},
			OriginPhrase: originPhrase(text, start),
		})
	}

	return links
}

// isHeadingToken reports whether the "#" at offset starts a line that is
// nothing but "#" plus digits: a markdown heading, not a reference.
func isHeadingToken(text string, offset int) bool {
	lineStart := strings.LastIndexByte(text[:offset], '\n') + 1
	if lineStart != offset {
		return false
	}
	lineEnd := strings.IndexByte(text[offset:], '\n')
	if lineEnd < 0 {
		lineEnd = len(text)
	} else {
		lineEnd += offset
	}
	line := strings.TrimSpace(text[offset:lineEnd])
	for _, r := range strings.TrimPrefix(line, "#") {
		if r < '0' || r > '9' {
			return false
		}
	}
	return strings.HasPrefix(line, "#")
}

// refKindFromContext inspects the wording just before a reference to
// decide between issue and pull_request. "Merge pull request #9" and
// "Fixed by PR #5" both resolve to pull_request.
func refKindFromContext(text string, offset int) models.RefKind {
	context := precedingContext(text, offset)
	if prContextRe.MatchString(context) {
		return models.RefPullRequest
	}
	return models.RefIssue
}

// originPhrase returns the canonical verb phrase preceding a reference on
// the same line, or "" for a bare reference.
func originPhrase(text string, offset int) string {
	context := precedingContext(text, offset)
	m := originPhraseRe.FindStringSubmatch(context)
	if m == nil {
		return ""
	}
	return strings.ToLower(m[1])
}

// precedingContext is the same-line text immediately before offset,
// capped to a short window.
func precedingContext(text string, offset int) string {
	lineStart := strings.LastIndexByte(text[:offset], '\n') + 1
	start := offset - 40
	if start < lineStart {
		start = lineStart
	}
	return text[start:offset]
}

// identifierLess orders identifiers numerically when both are numbers,
// lexically otherwise, so issue #9 sorts before issue #10.
func identifierLess(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		return na < nb
	}
	return a < b
}

func gatherTexts(body string, comments []models.IssueComment) []string {
	texts := []string{body}
	for _, c := range comments {
		texts = append(texts, c.Body)
	}
	return texts
}
