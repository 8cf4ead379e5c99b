package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielolaszy/triage/pkg/models"
)

func normalizedCorpus(bodies map[int]string) []models.NormalizedIssue {
	var corpus []models.NormalizedIssue
	for number, body := range bodies {
		corpus = append(corpus, Normalize(&models.Issue{Number: number, Title: "Crash", Body: body}))
	}
	return corpus
}

func TestDetectDuplicatesGroupsMatchingSignatures(t *testing.T) {
	corpus := normalizedCorpus(map[int]string{
		1: "### Logs\nValueError: cannot open 'alpha.txt' at line 10",
		2: "### Logs\nValueError: cannot open \"beta.cfg\" at line 242",
		3: "### Logs\nKeyError: missing key 'user'",
	})

	links := DetectDuplicates(corpus)

	require.Contains(t, links, 1)
	require.Contains(t, links, 2)
	assert.NotContains(t, links, 3)

	assert.Equal(t, []int{2}, links[1].LikelyDuplicatesOf)
	assert.Equal(t, []int{1}, links[2].LikelyDuplicatesOf)
	assert.Equal(t, []string{"error signature hash match"}, links[1].SimilarityReasons)
}

func TestDetectDuplicatesThreeWayGroup(t *testing.T) {
	corpus := normalizedCorpus(map[int]string{
		5: "### Logs\nTimeoutError: request to host 10.0.0.1 timed out after 30s",
		9: "### Logs\nTimeoutError: request to host 10.9.8.7 timed out after 5s",
		2: "### Logs\nTimeoutError: request to host 192.168.1.4 timed out after 120s",
	})

	links := DetectDuplicates(corpus)

	require.Len(t, links, 3)
	assert.Equal(t, []int{5, 9}, links[2].LikelyDuplicatesOf)
	assert.Equal(t, []int{2, 9}, links[5].LikelyDuplicatesOf)
	assert.Equal(t, []int{2, 5}, links[9].LikelyDuplicatesOf)
}

func TestDetectDuplicatesRequiresLogsSection(t *testing.T) {
	corpus := normalizedCorpus(map[int]string{
		1: "ValueError mentioned in prose but no logs section with a colon line",
		2: "Another body without logs",
	})
	assert.Empty(t, DetectDuplicates(corpus))
}

func TestDetectDuplicatesDifferentExceptionTypesStaySeparate(t *testing.T) {
	corpus := normalizedCorpus(map[int]string{
		1: "### Logs\nValueError: cannot open 'x'",
		2: "### Logs\nKeyError: cannot open 'x'",
	})
	assert.Empty(t, DetectDuplicates(corpus))
}

func TestMessageTemplate(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		want string
	}{
		{
			name: "Quoted values become placeholders",
			msg:  `cannot open 'alpha.txt' or "beta.cfg"`,
			want: "cannot open <val> or <val>",
		},
		{
			name: "Hex and digits become placeholders",
			msg:  "segfault at 0xDEADBEEF in worker 42",
			want: "segfault at <hex> in worker <n>",
		},
		{
			name: "Whitespace collapses and case folds",
			msg:  "  Connection   REFUSED  ",
			want: "connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, messageTemplate(tt.msg))
		})
	}
}

func TestSignatureSummary(t *testing.T) {
	n := Normalize(&models.Issue{
		Number: 1,
		Title:  "Crash",
		Body:   "### Logs\nValueError: cannot open 'alpha.txt' at line 10",
	})
	assert.Equal(t, "ValueError: cannot open <val> at line <n>", SignatureSummary(n))

	empty := Normalize(&models.Issue{Number: 2, Title: "Question", Body: "how does this work"})
	assert.Equal(t, "", SignatureSummary(empty))
}
