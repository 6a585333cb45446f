package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure Go SQLite driver, no CGO

	"github.com/verbexhq/verbex/internal/config"
	verrors "github.com/verbexhq/verbex/internal/errors"
)

// SQLiteStore implements Store on SQLite. WAL mode and a single-writer
// connection pool give concurrent readers a consistent snapshot while
// writes serialize; busy_timeout bounds lock waits so contention
// surfaces as a retryable storage-busy error instead of a hang.
type SQLiteStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	lock   *flock.Flock
	closed bool
}

// Verify interface implementation at compile time.
var _ Store = (*SQLiteStore)(nil)

// Open creates or opens a SQLite store. An empty path opens an
// in-memory store. On-disk stores take an advisory file lock so two
// processes cannot mutate the same index concurrently.
func Open(indexName string, cfg config.StorageConfig) (*SQLiteStore, error) {
	s := &SQLiteStore{path: cfg.Path}

	var dsn string
	if cfg.Path == "" {
		dsn = ":memory:"
	} else {
		dir := filepath.Dir(cfg.Path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, verrors.StorageError("open", err)
		}

		s.lock = flock.New(cfg.Path + ".lock")
		locked, err := s.lock.TryLock()
		if err != nil {
			return nil, verrors.StorageError("open", err)
		}
		if !locked {
			return nil, verrors.New(verrors.ErrCodeIndexLocked,
				fmt.Sprintf("index at %s is locked by another process", cfg.Path), nil)
		}

		dsn = cfg.Path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		s.unlock()
		return nil, verrors.StorageError("open", err)
	}

	// A single connection serializes writers and keeps an in-memory
	// database from fragmenting across pool connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	busyTimeout := cfg.BusyTimeoutMS
	if busyTimeout <= 0 {
		busyTimeout = 5000
	}
	cacheMB := cfg.CacheSizeMB
	if cacheMB <= 0 {
		cacheMB = 64
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeout),
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
		fmt.Sprintf("PRAGMA cache_size = -%d", cacheMB*1024),
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			s.unlock()
			return nil, verrors.StorageError("open", fmt.Errorf("set pragma: %w", err))
		}
	}

	s.db = db

	if err := s.initSchema(indexName); err != nil {
		_ = db.Close()
		s.unlock()
		return nil, err
	}

	slog.Debug("store_opened",
		slog.String("index", indexName),
		slog.Bool("in_memory", cfg.Path == ""))

	return s, nil
}

// initSchema creates the six record sets and the index metadata row.
// Index-scoped labels/tags use a NULL document_id; their uniqueness is
// enforced by partial indexes since SQLite treats NULLs as distinct.
func (s *SQLiteStore) initSchema(indexName string) error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS documents (
		id               TEXT PRIMARY KEY,
		name             TEXT NOT NULL,
		content_hash     TEXT NOT NULL,
		length           INTEGER NOT NULL DEFAULT 0,
		term_count       INTEGER NOT NULL DEFAULT 0,
		indexed_at       TEXT NOT NULL,
		last_modified_at TEXT NOT NULL,
		created_at       TEXT NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_documents_name ON documents(name);

	CREATE TABLE IF NOT EXISTS terms (
		id                 TEXT PRIMARY KEY,
		text               TEXT NOT NULL UNIQUE,
		document_frequency INTEGER NOT NULL DEFAULT 0,
		total_frequency    INTEGER NOT NULL DEFAULT 0,
		created_at         TEXT NOT NULL,
		updated_at         TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS document_terms (
		id                  TEXT PRIMARY KEY,
		document_id         TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		term_id             TEXT NOT NULL REFERENCES terms(id) ON DELETE CASCADE,
		term_frequency      INTEGER NOT NULL,
		character_positions TEXT NOT NULL DEFAULT '[]',
		term_positions      TEXT NOT NULL DEFAULT '[]',
		created_at          TEXT NOT NULL,
		UNIQUE(document_id, term_id)
	);
	CREATE INDEX IF NOT EXISTS idx_document_terms_term ON document_terms(term_id);
	CREATE INDEX IF NOT EXISTS idx_document_terms_document ON document_terms(document_id);

	CREATE TABLE IF NOT EXISTS labels (
		id          TEXT PRIMARY KEY,
		document_id TEXT REFERENCES documents(id) ON DELETE CASCADE,
		text        TEXT NOT NULL,
		created_at  TEXT NOT NULL,
		UNIQUE(document_id, text)
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_labels_index_scope ON labels(text) WHERE document_id IS NULL;
	CREATE INDEX IF NOT EXISTS idx_labels_text ON labels(text);

	CREATE TABLE IF NOT EXISTS tags (
		id          TEXT PRIMARY KEY,
		document_id TEXT REFERENCES documents(id) ON DELETE CASCADE,
		key         TEXT NOT NULL,
		value       TEXT,
		created_at  TEXT NOT NULL,
		UNIQUE(document_id, key)
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_tags_index_scope ON tags(key) WHERE document_id IS NULL;
	CREATE INDEX IF NOT EXISTS idx_tags_key ON tags(key);

	CREATE TABLE IF NOT EXISTS index_metadata (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return verrors.StorageError("init_schema", err)
	}

	now := formatTime(time.Now())
	_, err := s.db.Exec(`
		INSERT INTO index_metadata (id, name, created_at, updated_at)
		SELECT ?, ?, ?, ?
		WHERE NOT EXISTS (SELECT 1 FROM index_metadata)`,
		NewID(), indexName, now, now)
	if err != nil {
		return verrors.StorageError("init_schema", err)
	}
	return nil
}

// Tx exposes the batch mutation primitives inside one transaction.
// Obtained via RunInTransaction; either every operation in the
// function lands or none of them do.
type Tx struct {
	*queries
}

// RunInTransaction executes fn within a single write transaction.
// Any error (including context cancellation) rolls the whole
// transaction back.
func (s *SQLiteStore) RunInTransaction(ctx context.Context, fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return verrors.NotOpenError("transaction")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapSQLError("begin_transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&Tx{&queries{ex: tx}}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return mapSQLError("commit_transaction", err)
	}
	return nil
}

// write runs a single mutation inside its own transaction.
func (s *SQLiteStore) write(ctx context.Context, fn func(tx *Tx) error) error {
	return s.RunInTransaction(ctx, fn)
}

// read returns a queries view over the live connection. The returned
// release function must be called when the caller is done.
func (s *SQLiteStore) read() (*queries, func(), error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, nil, verrors.NotOpenError("read")
	}
	return &queries{ex: s.db}, s.mu.RUnlock, nil
}

// Flush forces pending writes durable via a WAL checkpoint. When
// targetPath is non-empty the whole database is additionally serialized
// to that path, which is the only way to persist an in-memory store.
func (s *SQLiteStore) Flush(ctx context.Context, targetPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return verrors.NotOpenError("flush")
	}

	if s.path != "" {
		if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
			return verrors.Wrap(verrors.ErrCodeFlushFailed, err)
		}
	}

	if targetPath != "" {
		if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
			return verrors.Wrap(verrors.ErrCodeFlushFailed, err)
		}
		// VACUUM INTO refuses to overwrite an existing file.
		if err := os.Remove(targetPath); err != nil && !os.IsNotExist(err) {
			return verrors.Wrap(verrors.ErrCodeFlushFailed, err)
		}
		if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", targetPath); err != nil {
			return verrors.Wrap(verrors.ErrCodeFlushFailed, err)
		}
	}

	return nil
}

// Close checkpoints and closes the database. Idempotent.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	var err error
	if s.db != nil {
		if s.path != "" {
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
		}
		err = s.db.Close()
	}
	s.unlock()
	return err
}

func (s *SQLiteStore) unlock() {
	if s.lock != nil {
		_ = s.lock.Unlock()
	}
}

// executor is satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries holds the row-level operations shared by direct reads and
// transactional writes.
type queries struct {
	ex executor
}

// NewID returns a new K-sortable id: UUIDv7 byte order follows creation
// time, so lexical ordering matches chronological ordering.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// formatTime renders a timestamp as UTC RFC 3339 with nanoseconds, the
// canonical column encoding.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// mapSQLError converts driver errors into the engine taxonomy:
// uniqueness violations become conflicts, lock contention becomes a
// retryable busy error, everything else is a storage I/O failure.
func mapSQLError(operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return verrors.New(verrors.ErrCodeDuplicateName, msg, err).
			WithDetail("operation", operation)
	case strings.Contains(msg, "database is locked"),
		strings.Contains(msg, "SQLITE_BUSY"):
		return verrors.BusyError(operation, err)
	case strings.Contains(msg, "malformed"),
		strings.Contains(msg, "corrupt"):
		return verrors.New(verrors.ErrCodeCorruptIndex, msg, err).
			WithDetail("operation", operation)
	default:
		return verrors.StorageError(operation, err)
	}
}

// inPlaceholders builds "?,?,...,?" for n parameters.
func inPlaceholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}
