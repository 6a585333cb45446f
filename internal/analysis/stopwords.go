package analysis

import (
	"strings"
	"sync"

	blevean "github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
)

var (
	defaultStopWordsOnce sync.Once
	defaultStopWords     map[string]struct{}
)

// DefaultStopWords returns the built-in English stop-word set, loaded from
// the bleve snowball word list. The returned map is shared; callers must
// not mutate it.
func DefaultStopWords() map[string]struct{} {
	defaultStopWordsOnce.Do(func() {
		tm := blevean.NewTokenMap()
		if err := tm.LoadBytes(en.EnglishStopWords); err != nil {
			// The word list is compiled in; a parse failure means a
			// broken build, not a runtime condition.
			panic("analysis: loading built-in stop words: " + err.Error())
		}
		defaultStopWords = make(map[string]struct{}, len(tm))
		for word := range tm {
			defaultStopWords[strings.ToLower(word)] = struct{}{}
		}
	})
	return defaultStopWords
}

// BuildStopWordSet merges the default stop words with extras from
// configuration. Lookup keys are lowercased.
func BuildStopWordSet(extra []string) map[string]struct{} {
	base := DefaultStopWords()
	set := make(map[string]struct{}, len(base)+len(extra))
	for word := range base {
		set[word] = struct{}{}
	}
	for _, word := range extra {
		word = strings.TrimSpace(strings.ToLower(word))
		if word != "" {
			set[word] = struct{}{}
		}
	}
	return set
}
