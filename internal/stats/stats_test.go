package stats

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verbexhq/verbex/internal/analysis"
	"github.com/verbexhq/verbex/internal/config"
	verrors "github.com/verbexhq/verbex/internal/errors"
	"github.com/verbexhq/verbex/internal/index"
	"github.com/verbexhq/verbex/internal/store"
)

func newTestService(t *testing.T, cfg config.AnalysisConfig) (*Service, *index.Indexer) {
	t.Helper()
	s, err := store.Open("stats-test", config.StorageConfig{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	pipeline := analysis.NewPipeline(cfg)
	return NewService(s, pipeline), index.NewIndexer(s, pipeline, nil)
}

func TestCollectEmptyIndex(t *testing.T) {
	sv, _ := newTestService(t, config.AnalysisConfig{})

	got, err := sv.Collect(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "stats-test", got.IndexName)
	assert.Equal(t, int64(0), got.DocumentCount)
	assert.Equal(t, int64(0), got.TermCount)
	assert.Empty(t, got.TopTerms)
}

func TestCollect(t *testing.T) {
	sv, ix := newTestService(t, config.AnalysisConfig{})
	ctx := context.Background()

	_, err := ix.AddDocument(ctx, "a", "red red red blue", nil, nil)
	require.NoError(t, err)
	_, err = ix.AddDocument(ctx, "b", "red green", nil, nil)
	require.NoError(t, err)

	got, err := sv.Collect(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.DocumentCount)
	assert.Equal(t, int64(3), got.TermCount)
	assert.Equal(t, int64(4), got.PostingCount)
	assert.Equal(t, int64(9), got.MinDocumentLength)
	assert.Equal(t, int64(16), got.MaxDocumentLength)
	assert.Equal(t, int64(2), got.MaxDocumentFrequency)

	require.Len(t, got.TopTerms, 2)
	assert.Equal(t, "red", got.TopTerms[0].Text)
	assert.Equal(t, int64(4), got.TopTerms[0].TotalFrequency)
	assert.Equal(t, int64(2), got.TopTerms[0].DocumentFrequency)
}

func TestTermStatistics(t *testing.T) {
	sv, ix := newTestService(t, config.AnalysisConfig{})
	ctx := context.Background()

	_, err := ix.AddDocument(ctx, "a", "fig olive fig", nil, nil)
	require.NoError(t, err)
	_, err = ix.AddDocument(ctx, "b", "olive oil", nil, nil)
	require.NoError(t, err)

	got, err := sv.Term(ctx, "Olive")
	require.NoError(t, err)
	assert.Equal(t, "olive", got.Text)
	assert.Equal(t, int64(2), got.DocumentFrequency)
	assert.Equal(t, int64(2), got.TotalFrequency)
	// Present in every document: idf is zero.
	assert.Equal(t, 0.0, got.InverseDocumentFrequency)

	got, err = sv.Term(ctx, "fig")
	require.NoError(t, err)
	assert.InDelta(t, math.Log(2), got.InverseDocumentFrequency, 1e-9)
	assert.InDelta(t, 2.0, got.AvgFrequencyPerDocument, 1e-9)
}

func TestTermStatisticsNotFound(t *testing.T) {
	sv, ix := newTestService(t, config.AnalysisConfig{})
	ctx := context.Background()

	_, err := ix.AddDocument(ctx, "a", "something here", nil, nil)
	require.NoError(t, err)

	_, err = sv.Term(ctx, "absent")
	assert.True(t, verrors.IsNotFound(err))
}

func TestTermStatisticsNormalizesSurfaceForm(t *testing.T) {
	cfg := config.AnalysisConfig{EnableLemmatizer: true, EnableStopWordFilter: true}
	sv, ix := newTestService(t, cfg)
	ctx := context.Background()

	_, err := ix.AddDocument(ctx, "a", "many cats sleeping", nil, nil)
	require.NoError(t, err)

	// The inflected form resolves to the stored lemma.
	got, err := sv.Term(ctx, "cats")
	require.NoError(t, err)
	assert.Equal(t, "cat", got.Text)

	// Stop words are rejected by the pipeline before lookup.
	_, err = sv.Term(ctx, "the")
	assert.True(t, verrors.IsNotFound(err))
}
