// Package search executes queries against the index: query analysis,
// candidate retrieval with filter pushdown, TF-IDF scoring, and
// sigmoid normalization into the [0, 1] range.
package search

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/verbexhq/verbex/internal/analysis"
	"github.com/verbexhq/verbex/internal/config"
	verrors "github.com/verbexhq/verbex/internal/errors"
	"github.com/verbexhq/verbex/internal/store"
)

// Result is one scored document.
type Result struct {
	Document         *store.Document
	Score            float64
	MatchedTermCount int
	TotalFrequency   int64
}

// Response is the outcome of one query execution. TotalCount is the
// number of matching documents before the result limit was applied.
type Response struct {
	Results    []*Result
	TotalCount int
	Elapsed    time.Duration
}

// Engine resolves query text to ranked documents. Resolved terms are
// held in an LRU cache that the owner must purge after every index
// mutation; between mutations term frequencies are immutable, so
// cached entries stay exact.
type Engine struct {
	store     store.Store
	pipeline  *analysis.Pipeline
	cfg       config.SearchConfig
	termCache *lru.Cache[string, *store.Term]
	logger    *slog.Logger
}

// NewEngine creates a query engine. The pipeline must be configured
// identically to the one used at indexing time.
func NewEngine(s store.Store, pipeline *analysis.Pipeline, cfg config.SearchConfig, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	size := cfg.TermCacheSize
	if size <= 0 {
		size = 1024
	}
	cache, err := lru.New[string, *store.Term](size)
	if err != nil {
		return nil, verrors.ConfigError("invalid term cache size")
	}
	return &Engine{
		store:     s,
		pipeline:  pipeline,
		cfg:       cfg,
		termCache: cache,
		logger:    logger,
	}, nil
}

// InvalidateCache drops every cached term. Must be called after any
// mutation that touches the term dictionary.
func (e *Engine) InvalidateCache() {
	e.termCache.Purge()
}

// Search runs a query and returns documents ranked by relevance.
// A blank query matches nothing. Results are ordered by score
// descending with ties broken by document id.
func (e *Engine) Search(ctx context.Context, query string, opts ...Option) (*Response, error) {
	started := time.Now()

	options := e.defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	if analysis.IsBlank(query) {
		return &Response{Elapsed: time.Since(started)}, nil
	}

	queryTerms := e.pipeline.QueryTerms(query)
	if len(queryTerms) == 0 {
		return &Response{Elapsed: time.Since(started)}, nil
	}

	terms, err := e.resolveTerms(ctx, queryTerms)
	if err != nil {
		return nil, err
	}

	// Terms absent from the dictionary drop out before retrieval; in
	// AND mode the conjunction is taken over the resolved terms only.
	if len(terms) == 0 {
		return &Response{Elapsed: time.Since(started)}, nil
	}

	totalDocs, err := e.store.CountDocuments(ctx)
	if err != nil {
		return nil, err
	}

	// The IDF sum is a query-level constant over every resolved term;
	// only the frequency factor is restricted to the matched terms.
	termIDs := make([]string, 0, len(terms))
	var idfSum float64
	for _, term := range terms {
		termIDs = append(termIDs, term.ID)
		idfSum += inverseDocumentFrequency(totalDocs, term.DocumentFrequency)
	}

	filter := store.SearchFilter{Labels: options.labels, Tags: options.tags}
	matches, err := e.store.SearchPostings(ctx, termIDs, options.andLogic, filter, 0)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return &Response{Elapsed: time.Since(started)}, nil
	}

	scored := make([]*Result, 0, len(matches))
	for _, m := range matches {
		raw := idfSum * float64(m.TotalFrequency)
		scored = append(scored, &Result{
			Document:         &store.Document{ID: m.DocumentID},
			Score:            sigmoid(raw, e.cfg.NormalizationDivisor),
			MatchedTermCount: m.MatchedTermCount,
			TotalFrequency:   m.TotalFrequency,
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Document.ID < scored[j].Document.ID
	})

	totalCount := len(scored)
	if options.limit > 0 && len(scored) > options.limit {
		scored = scored[:options.limit]
	}

	if err := e.attachDocuments(ctx, scored); err != nil {
		return nil, err
	}

	elapsed := time.Since(started)
	e.logger.Debug("search_executed",
		slog.String("query", query),
		slog.Int("query_terms", len(queryTerms)),
		slog.Int("matches", totalCount),
		slog.Duration("elapsed", elapsed))

	return &Response{Results: scored, TotalCount: totalCount, Elapsed: elapsed}, nil
}

// resolveTerms maps normalized query term texts to dictionary entries,
// serving from the cache where possible. Terms absent from the
// dictionary are dropped.
func (e *Engine) resolveTerms(ctx context.Context, texts []string) ([]*store.Term, error) {
	resolved := make([]*store.Term, 0, len(texts))
	var misses []string
	for _, text := range texts {
		if term, ok := e.termCache.Get(text); ok {
			resolved = append(resolved, term)
			continue
		}
		misses = append(misses, text)
	}
	if len(misses) == 0 {
		return resolved, nil
	}

	fetched, err := e.store.GetTermsByText(ctx, misses)
	if err != nil {
		return nil, err
	}
	for _, text := range misses {
		term, ok := fetched[text]
		if !ok {
			continue
		}
		e.termCache.Add(text, term)
		resolved = append(resolved, term)
	}
	return resolved, nil
}

// attachDocuments swaps the id-only document stubs for full rows in
// one batch fetch.
func (e *Engine) attachDocuments(ctx context.Context, results []*Result) error {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.Document.ID
	}
	docs, err := e.store.GetDocuments(ctx, ids)
	if err != nil {
		return err
	}
	byID := make(map[string]*store.Document, len(docs))
	for _, doc := range docs {
		byID[doc.ID] = doc
	}
	for _, r := range results {
		if doc, ok := byID[r.Document.ID]; ok {
			r.Document = doc
		}
	}
	return nil
}

// inverseDocumentFrequency is ln(totalDocs / documentFrequency), zero
// when either count is zero. A term present in every document scores
// zero, so a query of only ubiquitous terms lands at the sigmoid
// midpoint of 0.5.
func inverseDocumentFrequency(totalDocs, documentFrequency int64) float64 {
	if totalDocs == 0 || documentFrequency == 0 {
		return 0
	}
	return math.Log(float64(totalDocs) / float64(documentFrequency))
}

// sigmoid squashes a raw relevance sum into (0, 1).
func sigmoid(raw, divisor float64) float64 {
	if divisor <= 0 {
		divisor = 10.0
	}
	return 1.0 / (1.0 + math.Exp(-raw/divisor))
}
