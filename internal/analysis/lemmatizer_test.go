package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLemmatize_SuffixRules(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		// plurals
		{"documents", "document"},
		{"cities", "city"},
		{"boxes", "box"},
		{"churches", "church"},
		{"wishes", "wish"},
		{"scarves", "scarf"},
		// -ss/-us/-is endings are not plurals
		{"glass", "glass"},
		{"bus", "bus"},
		{"analysis", "analysis"},
		// past tense with undoubling
		{"walked", "walk"},
		{"stopped", "stop"},
		{"planned", "plan"},
		// past tense with silent-e restoration
		{"moved", "move"},
		{"indexed", "index"},
		// progressive with undoubling and silent-e restoration
		{"running", "run"},
		{"making", "make"},
		{"searching", "search"},
		// comparative and superlative
		{"bigger", "big"},
		{"biggest", "big"},
		{"faster", "fast"},
		{"fastest", "fast"},
		// adverbial
		{"quickly", "quick"},
		{"happily", "happy"},
	}

	lem := NewLemmatizer()
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, lem.Lemmatize(tt.input))
		})
	}
}

func TestLemmatize_IrregularWords(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"was", "be"},
		{"were", "be"},
		{"went", "go"},
		{"children", "child"},
		{"mice", "mouse"},
		{"wolves", "wolf"},
		{"knives", "knife"},
		{"indices", "index"},
		{"criteria", "criterion"},
		{"wrote", "write"},
		{"thought", "think"},
	}

	lem := NewLemmatizer()
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, lem.Lemmatize(tt.input))
		})
	}
}

func TestLemmatize_ShortWordsPassThrough(t *testing.T) {
	lem := NewLemmatizer()

	// Two characters or fewer are never touched.
	assert.Equal(t, "go", lem.Lemmatize("go"))
	assert.Equal(t, "a", lem.Lemmatize("a"))
	// Short stems refuse suffix rules rather than emptying the word.
	assert.Equal(t, "ring", lem.Lemmatize("ring"))
	assert.Equal(t, "thing", lem.Lemmatize("thing"))
	assert.Equal(t, "red", lem.Lemmatize("red"))
}

func TestLemmatize_NeverReturnsEmpty(t *testing.T) {
	lem := NewLemmatizer()
	inputs := []string{"s", "es", "ies", "ed", "ing", "ly", "er", "est", "abc", "aed"}
	for _, in := range inputs {
		assert.NotEmpty(t, lem.Lemmatize(in), "input %q", in)
	}
}
