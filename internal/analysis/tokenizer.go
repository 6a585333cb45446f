// Package analysis implements the tokenization and normalization pipeline.
//
// The exact same pipeline configuration must be applied at index time and
// query time; mixing configurations silently produces empty or wrong search
// results. Callers construct one Pipeline per index and share it between
// the indexer and the query engine.
package analysis

import (
	"strings"
	"unicode"
)

// Token is a raw lowercased token with its position in the original text.
type Token struct {
	// Text is the lowercased token text.
	Text string

	// CharOffset is the absolute rune offset of the token's first
	// character in the original content.
	CharOffset int

	// WordIndex is the 0-based index of the token in the raw token
	// sequence, before any normalization filtering.
	WordIndex int
}

// Tokenizer splits raw text on a configurable delimiter set, lowercases
// each fragment, and discards empties. Deterministic and stateless.
type Tokenizer struct {
	delimiters map[rune]struct{}
}

// NewTokenizer creates a tokenizer splitting on the given delimiter set.
func NewTokenizer(delimiters string) *Tokenizer {
	set := make(map[rune]struct{}, len(delimiters))
	for _, r := range delimiters {
		set[r] = struct{}{}
	}
	return &Tokenizer{delimiters: set}
}

func (t *Tokenizer) isDelimiter(r rune) bool {
	_, ok := t.delimiters[r]
	return ok
}

// Tokenize splits content into lowercased tokens in a single left-to-right
// scan, recording rune offsets and word indices as it goes.
func (t *Tokenizer) Tokenize(content string) []Token {
	var tokens []Token
	var current strings.Builder
	start := 0
	word := 0

	flush := func(offset int) {
		if current.Len() == 0 {
			return
		}
		tokens = append(tokens, Token{
			Text:       strings.ToLower(current.String()),
			CharOffset: offset,
			WordIndex:  word,
		})
		word++
		current.Reset()
	}

	pos := 0
	for _, r := range content {
		if t.isDelimiter(r) {
			flush(start)
		} else {
			if current.Len() == 0 {
				start = pos
			}
			current.WriteRune(r)
		}
		pos++
	}
	flush(start)

	return tokens
}

// RuneLength returns the character count of content, the unit used for
// document length bookkeeping.
func RuneLength(content string) int {
	n := 0
	for range content {
		n++
	}
	return n
}

// IsBlank reports whether content contains no non-space characters.
func IsBlank(content string) bool {
	return strings.IndexFunc(content, func(r rune) bool {
		return !unicode.IsSpace(r)
	}) < 0
}
