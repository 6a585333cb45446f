// Package stats aggregates index-wide and per-term statistics.
package stats

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/verbexhq/verbex/internal/analysis"
	verrors "github.com/verbexhq/verbex/internal/errors"
	"github.com/verbexhq/verbex/internal/store"
)

// DefaultTopTerms is how many top terms Collect includes when the
// caller passes no count.
const DefaultTopTerms = 10

// IndexStatistics is a point-in-time snapshot of the whole index.
type IndexStatistics struct {
	IndexName            string
	CreatedAt            time.Time
	UpdatedAt            time.Time
	DocumentCount        int64
	TermCount            int64
	PostingCount         int64
	AvgDocumentLength    float64
	MinDocumentLength    int64
	MaxDocumentLength    int64
	AvgTermsPerDocument  float64
	AvgDocumentFrequency float64
	MaxDocumentFrequency int64
	TopTerms             []TermCount
}

// TermCount is one entry of the most-frequent-terms listing.
type TermCount struct {
	Text              string
	DocumentFrequency int64
	TotalFrequency    int64
}

// TermStatistics describes one dictionary term.
type TermStatistics struct {
	Text                     string
	DocumentFrequency        int64
	TotalFrequency           int64
	AvgFrequencyPerDocument  float64
	InverseDocumentFrequency float64
}

// Service reads statistics from the store. Per-term lookups normalize
// the input through the same pipeline used at indexing time so callers
// can pass surface forms.
type Service struct {
	store    store.Store
	pipeline *analysis.Pipeline
}

// NewService creates a statistics service.
func NewService(s store.Store, pipeline *analysis.Pipeline) *Service {
	return &Service{store: s, pipeline: pipeline}
}

// Collect gathers the index-wide snapshot with the topN most frequent
// terms. topN of zero or less uses DefaultTopTerms.
func (sv *Service) Collect(ctx context.Context, topN int) (*IndexStatistics, error) {
	if topN <= 0 {
		topN = DefaultTopTerms
	}

	meta, err := sv.store.GetIndexMetadata(ctx)
	if err != nil {
		return nil, err
	}
	agg, err := sv.store.GetAggregateStats(ctx)
	if err != nil {
		return nil, err
	}
	top, err := sv.store.GetTopTerms(ctx, topN)
	if err != nil {
		return nil, err
	}

	out := &IndexStatistics{
		IndexName:            meta.Name,
		CreatedAt:            meta.CreatedAt,
		UpdatedAt:            meta.UpdatedAt,
		DocumentCount:        agg.DocumentCount,
		TermCount:            agg.TermCount,
		PostingCount:         agg.PostingCount,
		AvgDocumentLength:    agg.AvgDocumentLength,
		MinDocumentLength:    agg.MinDocumentLength,
		MaxDocumentLength:    agg.MaxDocumentLength,
		AvgTermsPerDocument:  agg.AvgTermsPerDocument,
		AvgDocumentFrequency: agg.AvgDocumentFrequency,
		MaxDocumentFrequency: agg.MaxDocumentFrequency,
		TopTerms:             make([]TermCount, 0, len(top)),
	}
	for _, entry := range top {
		out.TopTerms = append(out.TopTerms, TermCount{
			Text:              entry.Text,
			DocumentFrequency: entry.DocumentFrequency,
			TotalFrequency:    entry.TotalFrequency,
		})
	}
	return out, nil
}

// Term returns statistics for one term, normalizing the surface form
// first. A form the pipeline rejects outright is reported as unknown.
func (sv *Service) Term(ctx context.Context, text string) (*TermStatistics, error) {
	normalized, ok := sv.pipeline.Normalize(strings.ToLower(strings.TrimSpace(text)))
	if !ok {
		return nil, verrors.New(verrors.ErrCodeTermNotFound,
			"term is filtered out by the analysis configuration", nil)
	}

	term, err := sv.store.GetTerm(ctx, normalized)
	if err != nil {
		return nil, err
	}
	totalDocs, err := sv.store.CountDocuments(ctx)
	if err != nil {
		return nil, err
	}

	var idf, avgFreq float64
	if totalDocs > 0 && term.DocumentFrequency > 0 {
		idf = math.Log(float64(totalDocs) / float64(term.DocumentFrequency))
	}
	if term.DocumentFrequency > 0 {
		avgFreq = float64(term.TotalFrequency) / float64(term.DocumentFrequency)
	}
	return &TermStatistics{
		Text:                     term.Text,
		DocumentFrequency:        term.DocumentFrequency,
		TotalFrequency:           term.TotalFrequency,
		AvgFrequencyPerDocument:  avgFreq,
		InverseDocumentFrequency: idf,
	}, nil
}
