package index

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verbexhq/verbex/internal/analysis"
	"github.com/verbexhq/verbex/internal/config"
	verrors "github.com/verbexhq/verbex/internal/errors"
	"github.com/verbexhq/verbex/internal/store"
)

func newTestIndexer(t *testing.T) (*Indexer, *store.SQLiteStore) {
	t.Helper()
	s, err := store.Open("indexer-test", config.StorageConfig{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	pipeline := analysis.NewPipeline(config.AnalysisConfig{})
	return NewIndexer(s, pipeline, nil), s
}

func TestAddDocument(t *testing.T) {
	ix, s := newTestIndexer(t)
	ctx := context.Background()

	doc, err := ix.AddDocument(ctx, "greeting", "the quick brown fox", nil, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, 4, doc.TermCount)
	assert.Equal(t, 19, doc.Length)
	assert.NotEmpty(t, doc.ContentHash)

	quick, err := s.GetTerm(ctx, "quick")
	require.NoError(t, err)
	assert.Equal(t, int64(1), quick.DocumentFrequency)
	assert.Equal(t, int64(1), quick.TotalFrequency)

	postings, err := s.GetPostingsByDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Len(t, postings, 4)
}

func TestAddDocumentRepeatedTerms(t *testing.T) {
	ix, s := newTestIndexer(t)
	ctx := context.Background()

	doc, err := ix.AddDocument(ctx, "repeats", "go go go stop", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, doc.TermCount)

	goTerm, err := s.GetTerm(ctx, "go")
	require.NoError(t, err)
	assert.Equal(t, int64(1), goTerm.DocumentFrequency)
	assert.Equal(t, int64(3), goTerm.TotalFrequency)

	postings, err := s.GetPostingsByDocument(ctx, doc.ID)
	require.NoError(t, err)
	for _, p := range postings {
		if p.TermID != goTerm.ID {
			continue
		}
		assert.Equal(t, 3, p.TermFrequency)
		assert.Equal(t, []int{0, 3, 6}, p.CharacterPositions)
		assert.Equal(t, []int{0, 1, 2}, p.TermPositions)
	}
}

func TestAddDocumentValidation(t *testing.T) {
	ix, _ := newTestIndexer(t)
	ctx := context.Background()

	_, err := ix.AddDocument(ctx, "   ", "content", nil, nil)
	assert.Equal(t, verrors.ErrCodeInvalidInput, verrors.GetCode(err))

	_, err = ix.AddDocument(ctx, "empty", "   ", nil, nil)
	assert.Equal(t, verrors.ErrCodeEmptyContent, verrors.GetCode(err))

	_, err = ix.AddDocument(ctx, "delimiters-only", "... ,,, !!!", nil, nil)
	assert.Equal(t, verrors.ErrCodeEmptyContent, verrors.GetCode(err))
}

func TestAddDocumentWithMetadata(t *testing.T) {
	ix, s := newTestIndexer(t)
	ctx := context.Background()

	doc, err := ix.AddDocument(ctx, "tagged", "hello world",
		[]string{"Tech"}, map[string]string{"lang": "en"})
	require.NoError(t, err)

	labels, err := s.GetLabels(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"tech"}, labels)

	tags, err := s.GetTags(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"lang": "en"}, tags)
}

func TestReindexSameName(t *testing.T) {
	ix, s := newTestIndexer(t)
	ctx := context.Background()

	first, err := ix.AddDocument(ctx, "article", "apples and oranges",
		[]string{"fruit"}, nil)
	require.NoError(t, err)

	second, err := ix.AddDocument(ctx, "article", "bananas only",
		[]string{"tropical"}, map[string]string{"v": "2"})
	require.NoError(t, err)

	// The document keeps its identity across re-indexing, but the
	// content hash tracks the new content.
	assert.Equal(t, first.ID, second.ID)
	assert.NotEqual(t, first.ContentHash, second.ContentHash)
	assert.Equal(t, hashContent("bananas only"), second.ContentHash)

	n, err := s.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// Old terms are unwound and dropped when orphaned.
	_, err = s.GetTerm(ctx, "apples")
	assert.True(t, verrors.IsNotFound(err))

	bananas, err := s.GetTerm(ctx, "bananas")
	require.NoError(t, err)
	assert.Equal(t, int64(1), bananas.DocumentFrequency)

	// Metadata is replaced, not merged.
	labels, err := s.GetLabels(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"tropical"}, labels)
	tags, err := s.GetTags(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"v": "2"}, tags)
}

func TestReindexSharedTermSurvives(t *testing.T) {
	ix, s := newTestIndexer(t)
	ctx := context.Background()

	_, err := ix.AddDocument(ctx, "one", "shared term here", nil, nil)
	require.NoError(t, err)
	_, err = ix.AddDocument(ctx, "two", "shared elsewhere", nil, nil)
	require.NoError(t, err)

	// Re-index "one" without the shared term.
	_, err = ix.AddDocument(ctx, "one", "different words", nil, nil)
	require.NoError(t, err)

	shared, err := s.GetTerm(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, int64(1), shared.DocumentFrequency)
}

func TestRemoveDocument(t *testing.T) {
	ix, s := newTestIndexer(t)
	ctx := context.Background()

	doc, err := ix.AddDocument(ctx, "victim", "unique words here", nil, nil)
	require.NoError(t, err)
	keeper, err := ix.AddDocument(ctx, "keeper", "words remain", nil, nil)
	require.NoError(t, err)

	removed, err := ix.RemoveDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	_, err = s.GetDocument(ctx, doc.ID)
	assert.True(t, verrors.IsNotFound(err))

	// Terms only the removed document used are gone.
	_, err = s.GetTerm(ctx, "unique")
	assert.True(t, verrors.IsNotFound(err))

	// Shared terms shrink but survive.
	words, err := s.GetTerm(ctx, "words")
	require.NoError(t, err)
	assert.Equal(t, int64(1), words.DocumentFrequency)

	postings, err := s.GetPostingsByDocument(ctx, keeper.ID)
	require.NoError(t, err)
	assert.Len(t, postings, 2)
}

func TestRemoveDocumentMissing(t *testing.T) {
	ix, s := newTestIndexer(t)
	ctx := context.Background()

	_, err := ix.AddDocument(ctx, "keeper", "stays put", nil, nil)
	require.NoError(t, err)

	// A missing id is reported as false, not an error, and nothing
	// else changes.
	removed, err := ix.RemoveDocument(ctx, "no-such-id")
	require.NoError(t, err)
	assert.False(t, removed)

	count, err := s.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRemoveDocumentByName(t *testing.T) {
	ix, s := newTestIndexer(t)
	ctx := context.Background()

	_, err := ix.AddDocument(ctx, "named", "some content", nil, nil)
	require.NoError(t, err)

	removed, err := ix.RemoveDocumentByName(ctx, "named")
	require.NoError(t, err)
	assert.True(t, removed)

	_, err = s.GetDocumentByName(ctx, "named")
	assert.True(t, verrors.IsNotFound(err))

	removed, err = ix.RemoveDocumentByName(ctx, "named")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestClear(t *testing.T) {
	ix, s := newTestIndexer(t)
	ctx := context.Background()

	_, err := ix.AddDocument(ctx, "a", "first document", nil, nil)
	require.NoError(t, err)
	_, err = ix.AddDocument(ctx, "b", "second document", nil, nil)
	require.NoError(t, err)

	n, err := ix.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	docs, err := s.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), docs)
	terms, err := s.CountTerms(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), terms)
}

func TestPipelineConfigApplied(t *testing.T) {
	s, err := store.Open("pipeline-test", config.StorageConfig{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	pipeline := analysis.NewPipeline(config.AnalysisConfig{
		EnableStopWordFilter: true,
		EnableLemmatizer:     true,
	})
	ix := NewIndexer(s, pipeline, nil)
	ctx := context.Background()

	doc, err := ix.AddDocument(ctx, "filtered", "the cats are running", nil, nil)
	require.NoError(t, err)

	// Stop words dropped, remaining tokens lemmatized.
	assert.Equal(t, 2, doc.TermCount)
	_, err = s.GetTerm(ctx, "cat")
	assert.NoError(t, err)
	_, err = s.GetTerm(ctx, "run")
	assert.NoError(t, err)
	_, err = s.GetTerm(ctx, "the")
	assert.True(t, verrors.IsNotFound(err))
}
