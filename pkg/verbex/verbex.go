// Package verbex is the embeddable full-text search engine. An Engine
// owns one index: documents go in through AddDocument, ranked results
// come back from Search, and everything lives in a single SQLite
// database (or in memory when no path is configured).
//
// Minimal usage:
//
//	engine, err := verbex.Open("articles", nil)
//	if err != nil { ... }
//	defer engine.Close()
//
//	doc, err := engine.AddDocument(ctx, "intro", "hello search world")
//	resp, err := engine.Search(ctx, "hello")
package verbex

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/verbexhq/verbex/internal/analysis"
	"github.com/verbexhq/verbex/internal/config"
	verrors "github.com/verbexhq/verbex/internal/errors"
	"github.com/verbexhq/verbex/internal/index"
	"github.com/verbexhq/verbex/internal/logging"
	"github.com/verbexhq/verbex/internal/search"
	"github.com/verbexhq/verbex/internal/stats"
	"github.com/verbexhq/verbex/internal/store"
)

// Re-exported configuration and entity types. The engine's internal
// packages are not importable; these aliases are the public names.
type (
	// Config is the complete engine configuration.
	Config = config.Config

	// Document is one indexed document's metadata.
	Document = store.Document

	// DocumentWithMetadata is a document with its labels and tags.
	DocumentWithMetadata = store.DocumentWithMetadata

	// Result is one scored search hit.
	Result = search.Result

	// IndexStatistics is the index-wide statistics snapshot.
	IndexStatistics = stats.IndexStatistics

	// TermStatistics describes one dictionary term.
	TermStatistics = stats.TermStatistics

	// SearchOption customizes a single Search call.
	SearchOption = search.Option
)

// DefaultConfig returns a Config with every field at its default.
func DefaultConfig() *Config {
	return config.New()
}

// LoadConfig reads and validates a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// WithLimit caps the number of returned results for one query.
func WithLimit(limit int) SearchOption { return search.WithLimit(limit) }

// WithANDLogic requires every query term to be present in a document.
func WithANDLogic() SearchOption { return search.WithANDLogic() }

// WithORLogic accepts documents containing any query term.
func WithORLogic() SearchOption { return search.WithORLogic() }

// WithLabels restricts results to documents carrying all given labels.
func WithLabels(labels ...string) SearchOption { return search.WithLabels(labels...) }

// WithTags restricts results to documents carrying all given tags.
func WithTags(tags map[string]string) SearchOption { return search.WithTags(tags) }

// SearchResponse is the outcome of one query.
type SearchResponse struct {
	Query      string
	Results    []*Result
	TotalCount int
	Elapsed    time.Duration
}

// DocumentInput is one document for bulk indexing.
type DocumentInput struct {
	Name    string
	Content string
	Labels  []string
	Tags    map[string]string
}

// Engine is the top-level handle for one index. Safe for concurrent
// use; writes serialize internally and transient write-lock contention
// is retried with backoff before surfacing.
type Engine struct {
	mu       sync.RWMutex
	cfg      *config.Config
	store    *store.SQLiteStore
	indexer  *index.Indexer
	querier  *search.Engine
	stats    *stats.Service
	logger   *slog.Logger
	logClose func()
	retry    verrors.RetryConfig
	closed   bool
}

// Open creates or opens the named index. A nil cfg uses defaults,
// which means a fully in-memory index. The configuration is validated
// before anything touches disk.
func Open(indexName string, cfg *Config) (*Engine, error) {
	if analysis.IsBlank(indexName) {
		return nil, verrors.ValidationError("index name must not be blank")
	}
	if cfg == nil {
		cfg = config.New()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, logClose, err := engineLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}
	logger = logger.With(slog.String("index", indexName))

	st, err := store.Open(indexName, cfg.Storage)
	if err != nil {
		logClose()
		return nil, err
	}

	pipeline := analysis.NewPipeline(cfg.Analysis)
	querier, err := search.NewEngine(st, pipeline, cfg.Search, logger)
	if err != nil {
		_ = st.Close()
		logClose()
		return nil, err
	}

	return &Engine{
		cfg:      cfg,
		store:    st,
		indexer:  index.NewIndexer(st, pipeline, logger),
		querier:  querier,
		stats:    stats.NewService(st, pipeline),
		logger:   logger,
		logClose: logClose,
		retry:    verrors.DefaultRetryConfig(),
	}, nil
}

// engineLogger builds the engine logger from configuration. A file
// path enables rotating JSON file logging; otherwise records flow to
// the process-default handler filtered to the configured level.
func engineLogger(cfg config.LoggingConfig) (*slog.Logger, func(), error) {
	if cfg.FilePath == "" {
		handler := logging.NewLevelHandler(
			logging.LevelFromString(cfg.Level), slog.Default().Handler())
		return slog.New(handler), func() {}, nil
	}
	return logging.Setup(logging.Config{
		Level:         cfg.Level,
		FilePath:      cfg.FilePath,
		MaxSizeMB:     cfg.MaxSizeMB,
		MaxFiles:      cfg.MaxFiles,
		WriteToStderr: cfg.Stderr,
	})
}

// Close releases the database and the index lock. Idempotent; every
// operation after Close fails with a lifecycle error.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	err := e.store.Close()
	e.logClose()
	return err
}

// guard returns a lifecycle error when the engine is closed. The
// returned release must be called once the operation finishes.
func (e *Engine) guard(operation string) (func(), error) {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return nil, verrors.NotOpenError(operation)
	}
	return e.mu.RUnlock, nil
}

// mutate runs fn with busy-retry and invalidates the query term cache
// on success.
func (e *Engine) mutate(ctx context.Context, operation string, fn func() error) error {
	release, err := e.guard(operation)
	if err != nil {
		return err
	}
	defer release()

	if err := verrors.Retry(ctx, e.retry, fn); err != nil {
		return err
	}
	e.querier.InvalidateCache()
	return nil
}

// AddDocument analyzes content and indexes it under the given name.
// Indexing an existing name replaces that document's content in place.
func (e *Engine) AddDocument(ctx context.Context, name, content string) (*Document, error) {
	return e.AddDocumentWithMetadata(ctx, name, content, nil, nil)
}

// AddDocumentWithMetadata indexes a document and attaches labels and
// tags in the same transaction.
func (e *Engine) AddDocumentWithMetadata(ctx context.Context, name, content string, labels []string, tags map[string]string) (*Document, error) {
	var doc *Document
	err := e.mutate(ctx, "add_document", func() error {
		var opErr error
		doc, opErr = e.indexer.AddDocument(ctx, name, content, labels, tags)
		return opErr
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// AddDocuments indexes a batch concurrently. The first failure cancels
// the remaining work and is returned; documents indexed before the
// failure stay indexed, each having committed in its own transaction.
// The result slice matches the input order.
func (e *Engine) AddDocuments(ctx context.Context, inputs []DocumentInput) ([]*Document, error) {
	release, err := e.guard("add_documents")
	if err != nil {
		return nil, err
	}
	defer release()

	docs := make([]*Document, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	for i, input := range inputs {
		i, input := i, input
		g.Go(func() error {
			doc, opErr := verrors.RetryWithResult(gctx, e.retry, func() (*store.Document, error) {
				return e.indexer.AddDocument(gctx, input.Name, input.Content, input.Labels, input.Tags)
			})
			if opErr != nil {
				return opErr
			}
			docs[i] = doc
			return nil
		})
	}
	err = g.Wait()
	e.querier.InvalidateCache()
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// RemoveDocument deletes a document by id together with its postings,
// labels, and tags, reporting whether a document was removed. A
// missing id returns false without error.
func (e *Engine) RemoveDocument(ctx context.Context, id string) (bool, error) {
	var removed bool
	err := e.mutate(ctx, "remove_document", func() error {
		var opErr error
		removed, opErr = e.indexer.RemoveDocument(ctx, id)
		return opErr
	})
	return removed, err
}

// RemoveDocumentByName deletes a document by name, reporting whether
// one was removed. A missing name returns false without error.
func (e *Engine) RemoveDocumentByName(ctx context.Context, name string) (bool, error) {
	var removed bool
	err := e.mutate(ctx, "remove_document", func() error {
		var opErr error
		removed, opErr = e.indexer.RemoveDocumentByName(ctx, name)
		return opErr
	})
	return removed, err
}

// Clear removes every document from the index, returning how many were
// dropped. Index-scoped labels and tags survive.
func (e *Engine) Clear(ctx context.Context) (int64, error) {
	var n int64
	err := e.mutate(ctx, "clear", func() error {
		var opErr error
		n, opErr = e.indexer.Clear(ctx)
		return opErr
	})
	return n, err
}

// Search runs a query and returns ranked results. A blank query
// matches nothing.
func (e *Engine) Search(ctx context.Context, query string, opts ...SearchOption) (*SearchResponse, error) {
	release, err := e.guard("search")
	if err != nil {
		return nil, err
	}
	defer release()

	resp, err := e.querier.Search(ctx, query, opts...)
	if err != nil {
		return nil, err
	}
	return &SearchResponse{
		Query:      query,
		Results:    resp.Results,
		TotalCount: resp.TotalCount,
		Elapsed:    resp.Elapsed,
	}, nil
}

// GetDocument fetches a document by id.
func (e *Engine) GetDocument(ctx context.Context, id string) (*Document, error) {
	release, err := e.guard("get_document")
	if err != nil {
		return nil, err
	}
	defer release()
	return e.store.GetDocument(ctx, id)
}

// GetDocumentByName fetches a document by its unique name.
func (e *Engine) GetDocumentByName(ctx context.Context, name string) (*Document, error) {
	release, err := e.guard("get_document")
	if err != nil {
		return nil, err
	}
	defer release()
	return e.store.GetDocumentByName(ctx, name)
}

// GetDocumentWithMetadata fetches a document with its labels and tags.
func (e *Engine) GetDocumentWithMetadata(ctx context.Context, id string) (*DocumentWithMetadata, error) {
	release, err := e.guard("get_document")
	if err != nil {
		return nil, err
	}
	defer release()
	return e.store.GetDocumentWithMetadata(ctx, id)
}

// ListDocuments pages through documents in insertion order. A limit of
// zero or less returns everything.
func (e *Engine) ListDocuments(ctx context.Context, limit, offset int) ([]*Document, error) {
	release, err := e.guard("list_documents")
	if err != nil {
		return nil, err
	}
	defer release()
	return e.store.ListDocuments(ctx, limit, offset)
}

// CountDocuments returns the number of indexed documents.
func (e *Engine) CountDocuments(ctx context.Context) (int64, error) {
	release, err := e.guard("count_documents")
	if err != nil {
		return 0, err
	}
	defer release()
	return e.store.CountDocuments(ctx)
}

// Flush forces pending writes durable. A non-empty targetPath
// additionally serializes the full database there, which is how an
// in-memory index is persisted.
func (e *Engine) Flush(ctx context.Context, targetPath string) error {
	release, err := e.guard("flush")
	if err != nil {
		return err
	}
	defer release()
	return e.store.Flush(ctx, targetPath)
}

// Statistics returns the index-wide snapshot including the topN most
// widespread terms (0 uses the default).
func (e *Engine) Statistics(ctx context.Context, topN int) (*IndexStatistics, error) {
	release, err := e.guard("statistics")
	if err != nil {
		return nil, err
	}
	defer release()
	return e.stats.Collect(ctx, topN)
}

// TermStatistics returns frequencies for one term. The surface form is
// normalized through the analysis pipeline first.
func (e *Engine) TermStatistics(ctx context.Context, term string) (*TermStatistics, error) {
	release, err := e.guard("term_statistics")
	if err != nil {
		return nil, err
	}
	defer release()
	return e.stats.Term(ctx, term)
}
