package analysis

import (
	"unicode/utf8"

	"github.com/verbexhq/verbex/internal/config"
)

// Pipeline applies the fixed normalization order to every raw token:
// stop-word rejection, then length filtering, then lemmatization. The
// stop-word check and the length bounds are evaluated on the raw
// lowercased token, not the lemmatized form, so "running" with
// MaxTokenLength=6 is rejected even though "run" would fit.
type Pipeline struct {
	tokenizer  *Tokenizer
	stopWords  map[string]struct{}
	lemmatizer *Lemmatizer
	minLen     int
	maxLen     int
}

// NewPipeline builds the pipeline from analysis configuration. The
// configuration is assumed validated (config.Validate).
func NewPipeline(cfg config.AnalysisConfig) *Pipeline {
	p := &Pipeline{
		tokenizer: NewTokenizer(cfg.EffectiveDelimiters()),
		minLen:    cfg.MinTokenLength,
		maxLen:    cfg.MaxTokenLength,
	}
	if cfg.EnableStopWordFilter {
		p.stopWords = BuildStopWordSet(cfg.ExtraStopWords)
	}
	if cfg.EnableLemmatizer {
		p.lemmatizer = NewLemmatizer()
	}
	return p
}

// Normalize runs one raw lowercased token through the pipeline.
// Returns the normalized term and false if the token was rejected.
func (p *Pipeline) Normalize(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	if p.stopWords != nil {
		if _, stop := p.stopWords[raw]; stop {
			return "", false
		}
	}
	if p.minLen > 0 || p.maxLen > 0 {
		n := utf8.RuneCountInString(raw)
		if p.minLen > 0 && n < p.minLen {
			return "", false
		}
		if p.maxLen > 0 && n > p.maxLen {
			return "", false
		}
	}
	if p.lemmatizer != nil {
		return p.lemmatizer.Lemmatize(raw), true
	}
	return raw, true
}

// Analyze tokenizes content and normalizes each token, preserving the
// original positions. Rejected tokens keep their word index gap so that
// recorded term positions reflect the raw word sequence.
func (p *Pipeline) Analyze(content string) []Token {
	raw := p.tokenizer.Tokenize(content)
	out := make([]Token, 0, len(raw))
	for _, tok := range raw {
		term, ok := p.Normalize(tok.Text)
		if !ok {
			continue
		}
		out = append(out, Token{
			Text:       term,
			CharOffset: tok.CharOffset,
			WordIndex:  tok.WordIndex,
		})
	}
	return out
}

// QueryTerms normalizes a query string into deduplicated terms in first
// occurrence order. Repeated query words contribute once to retrieval.
func (p *Pipeline) QueryTerms(query string) []string {
	tokens := p.Analyze(query)
	seen := make(map[string]struct{}, len(tokens))
	terms := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if _, dup := seen[tok.Text]; dup {
			continue
		}
		seen[tok.Text] = struct{}{}
		terms = append(terms, tok.Text)
	}
	return terms
}
