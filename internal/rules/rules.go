// Package rules loads the immutable rule tables driving classification.
//
// The tables (noise words, spam phrases, section-heading synonyms, triage
// phrase sets, blocking patterns) are data, not code: they live in
// tables.yaml and are embedded at build time so behavior stays
// deterministic while remaining editable without touching Go sources.
package rules

import (
	_ "embed"
	"fmt"
	"regexp"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/danielolaszy/triage/pkg/models"
)

// Embedding is the only loading path; rule tables are never read from
// disk at runtime.
//
//go:embed tables.yaml
var rawTables []byte

// Tables holds every rule table used by the analysis phases.
type Tables struct {
	TitleNoiseWords []string            `yaml:"title_noise_words"`
	SpamPhrases     []string            `yaml:"spam_phrases"`
	NoiseKeywords   []string            `yaml:"noise_keywords"`
	SectionSynonyms map[string][]string `yaml:"section_synonyms"`
	BugPhrases      []string            `yaml:"bug_phrases"`
	SupportPhrases  []string            `yaml:"support_phrases"`
	FeaturePhrases  []string            `yaml:"feature_phrases"`
	BlockingRaw     []string            `yaml:"blocking_patterns"`

	// compiled views, built once at load
	blocking []*regexp.Regexp
	synonyms map[string]models.SectionKey
}

var (
	loadOnce sync.Once
	loaded   *Tables
)

// Load returns the embedded rule tables, decoding and compiling them on
// first use. The tables are compiled into the binary, so a decode failure
// is a build defect and panics.
func Load() *Tables {
	loadOnce.Do(func() {
		t := &Tables{}
		if err := yaml.Unmarshal(rawTables, t); err != nil {
			panic(fmt.Sprintf("rules: embedded tables.yaml is invalid: %v", err))
		}
		t.blocking = make([]*regexp.Regexp, 0, len(t.BlockingRaw))
		for _, p := range t.BlockingRaw {
			t.blocking = append(t.blocking, regexp.MustCompile(p))
		}
		t.synonyms = make(map[string]models.SectionKey)
		for key, names := range t.SectionSynonyms {
			for _, name := range names {
				t.synonyms[name] = models.SectionKey(key)
			}
		}
		loaded = t
	})
	return loaded
}

// BlockingPatterns returns the compiled blocking-dependency patterns.
func (t *Tables) BlockingPatterns() []*regexp.Regexp {
	return t.blocking
}

// SectionKeyFor resolves a lowercased heading to its canonical section
// key. The second result is false when the heading is not recognized.
func (t *Tables) SectionKeyFor(heading string) (models.SectionKey, bool) {
	key, ok := t.synonyms[heading]
	return key, ok
}
