// Package index turns document content into posting rows. Every
// mutation runs as one storage transaction: the document row, its
// postings, the term dictionary updates, and any attached metadata
// land together or not at all.
package index

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/verbexhq/verbex/internal/analysis"
	verrors "github.com/verbexhq/verbex/internal/errors"
	"github.com/verbexhq/verbex/internal/store"
)

// Indexer writes analyzed documents into the store.
type Indexer struct {
	store    store.Store
	pipeline *analysis.Pipeline
	logger   *slog.Logger
}

// NewIndexer creates an indexer over the given store and analysis
// pipeline. The same pipeline configuration must be used by the query
// engine or query terms will not line up with indexed terms.
func NewIndexer(s store.Store, pipeline *analysis.Pipeline, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{store: s, pipeline: pipeline, logger: logger}
}

// termEntry accumulates one distinct term's occurrences in a document.
// Tokens arrive in content order, so both position lists stay sorted.
type termEntry struct {
	text          string
	frequency     int
	charPositions []int
	wordPositions []int
}

// analyzeContent groups the token stream by normalized term text,
// preserving first-seen order.
func (ix *Indexer) analyzeContent(content string) []*termEntry {
	tokens := ix.pipeline.Analyze(content)

	byText := make(map[string]*termEntry)
	var ordered []*termEntry
	for _, tok := range tokens {
		entry, ok := byText[tok.Text]
		if !ok {
			entry = &termEntry{text: tok.Text}
			byText[tok.Text] = entry
			ordered = append(ordered, entry)
		}
		entry.frequency++
		entry.charPositions = append(entry.charPositions, tok.CharOffset)
		entry.wordPositions = append(entry.wordPositions, tok.WordIndex)
	}
	return ordered
}

// AddDocument analyzes content and indexes it under the given name,
// attaching any labels and tags in the same transaction. If a document
// with the same name already exists it is re-indexed in place: its
// postings are unwound, the new content replaces the old, and the
// document keeps its id.
func (ix *Indexer) AddDocument(ctx context.Context, name, content string, labels []string, tags map[string]string) (*store.Document, error) {
	if analysis.IsBlank(name) {
		return nil, verrors.ValidationError("document name must not be blank")
	}
	if analysis.IsBlank(content) {
		return nil, verrors.New(verrors.ErrCodeEmptyContent,
			fmt.Sprintf("document %q has no indexable content", name), nil)
	}

	entries := ix.analyzeContent(content)
	if len(entries) == 0 {
		return nil, verrors.New(verrors.ErrCodeEmptyContent,
			fmt.Sprintf("document %q has no indexable content after normalization", name), nil)
	}

	started := time.Now()
	var doc *store.Document
	err := ix.store.RunInTransaction(ctx, func(tx *store.Tx) error {
		existing, err := tx.GetDocumentByName(ctx, name)
		if err != nil && !verrors.IsNotFound(err) {
			return err
		}

		now := time.Now().UTC()
		if existing != nil {
			// Re-index: unwind the old postings before the new
			// content lands, keeping term frequencies exact.
			if err := unwindPostings(ctx, tx, existing.ID); err != nil {
				return err
			}
			doc = existing
			doc.ContentHash = hashContent(content)
			doc.Length = analysis.RuneLength(content)
			doc.TermCount = len(entries)
			doc.IndexedAt = now
			doc.LastModifiedAt = now
			if err := tx.UpdateDocument(ctx, doc); err != nil {
				return err
			}
		} else {
			doc = &store.Document{
				Name:        name,
				ContentHash: hashContent(content),
				Length:      analysis.RuneLength(content),
				TermCount:   len(entries),
			}
			if err := tx.InsertDocument(ctx, doc); err != nil {
				return err
			}
		}

		texts := make([]string, len(entries))
		for i, e := range entries {
			texts[i] = e.text
		}
		terms, err := tx.AddOrGetTermsBatch(ctx, texts)
		if err != nil {
			return err
		}

		postings := make([]store.PostingInsert, 0, len(entries))
		deltas := make(map[string]store.FrequencyDelta, len(entries))
		for _, e := range entries {
			term, ok := terms[e.text]
			if !ok {
				return verrors.New(verrors.ErrCodeTermNotFound,
					fmt.Sprintf("term %q vanished during indexing", e.text), nil)
			}
			postings = append(postings, store.PostingInsert{
				TermID:             term.ID,
				TermFrequency:      e.frequency,
				CharacterPositions: e.charPositions,
				TermPositions:      e.wordPositions,
			})
			deltas[term.ID] = store.FrequencyDelta{
				DocumentFrequency: 1,
				TotalFrequency:    int64(e.frequency),
			}
		}
		if err := tx.InsertPostings(ctx, doc.ID, postings); err != nil {
			return err
		}
		if err := tx.ApplyFrequencyDeltas(ctx, deltas); err != nil {
			return err
		}

		// Re-indexing may have orphaned terms the new content no
		// longer uses.
		if existing != nil {
			if _, err := tx.DeleteOrphanTerms(ctx); err != nil {
				return err
			}
			if err := tx.ReplaceLabels(ctx, doc.ID, labels); err != nil {
				return err
			}
			if err := tx.ReplaceTags(ctx, doc.ID, tags); err != nil {
				return err
			}
		} else {
			if err := tx.AddLabelsBatch(ctx, doc.ID, labels); err != nil {
				return err
			}
			if err := tx.SetTagsBatch(ctx, doc.ID, tags); err != nil {
				return err
			}
		}

		return tx.TouchIndexMetadata(ctx)
	})
	if err != nil {
		return nil, err
	}

	ix.logger.Debug("document_indexed",
		slog.String("document_id", doc.ID),
		slog.String("name", name),
		slog.Int("distinct_terms", len(entries)),
		slog.Duration("elapsed", time.Since(started)))
	return doc, nil
}

// RemoveDocument deletes a document and everything attached to it,
// reporting whether a document was removed. A missing id is not an
// error. Term frequencies are decremented from the document's own
// postings before the cascade delete, then terms no other document
// uses are dropped.
func (ix *Indexer) RemoveDocument(ctx context.Context, id string) (bool, error) {
	removed := false
	err := ix.store.RunInTransaction(ctx, func(tx *store.Tx) error {
		if _, err := tx.GetDocument(ctx, id); err != nil {
			if verrors.IsNotFound(err) {
				return nil
			}
			return err
		}
		if err := unwindPostings(ctx, tx, id); err != nil {
			return err
		}
		if err := tx.DeleteDocument(ctx, id); err != nil {
			return err
		}
		if _, err := tx.DeleteOrphanTerms(ctx); err != nil {
			return err
		}
		removed = true
		return tx.TouchIndexMetadata(ctx)
	})
	if err != nil || !removed {
		return false, err
	}

	ix.logger.Debug("document_removed", slog.String("document_id", id))
	return true, nil
}

// RemoveDocumentByName resolves the name and removes the document,
// reporting whether one was removed. A missing name is not an error.
func (ix *Indexer) RemoveDocumentByName(ctx context.Context, name string) (bool, error) {
	doc, err := ix.store.GetDocumentByName(ctx, name)
	if err != nil {
		if verrors.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return ix.RemoveDocument(ctx, doc.ID)
}

// Clear removes every document, posting, and term, returning how many
// documents were dropped. Index-scoped labels and tags survive.
func (ix *Indexer) Clear(ctx context.Context) (int64, error) {
	var n int64
	err := ix.store.RunInTransaction(ctx, func(tx *store.Tx) error {
		var txErr error
		if n, txErr = tx.DeleteAllDocuments(ctx); txErr != nil {
			return txErr
		}
		return tx.TouchIndexMetadata(ctx)
	})
	if err != nil {
		return 0, err
	}

	ix.logger.Info("index_cleared", slog.Int64("documents_removed", n))
	return n, nil
}

// unwindPostings reverses a document's contribution to the term
// dictionary and deletes its posting rows.
func unwindPostings(ctx context.Context, tx *store.Tx, documentID string) error {
	postings, err := tx.GetPostingsByDocument(ctx, documentID)
	if err != nil {
		return err
	}
	if len(postings) == 0 {
		return nil
	}

	deltas := make(map[string]store.FrequencyDelta, len(postings))
	for _, p := range postings {
		deltas[p.TermID] = store.FrequencyDelta{
			DocumentFrequency: -1,
			TotalFrequency:    -int64(p.TermFrequency),
		}
	}
	if err := tx.ApplyFrequencyDeltas(ctx, deltas); err != nil {
		return err
	}
	_, err = tx.DeletePostingsByDocument(ctx, documentID)
	return err
}

func hashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
