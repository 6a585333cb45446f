package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	verrors "github.com/verbexhq/verbex/internal/errors"
)

const documentColumns = `id, name, content_hash, length, term_count, indexed_at, last_modified_at, created_at`

// InsertDocument adds a new document row. The name must be unique among
// live documents.
func (q *queries) InsertDocument(ctx context.Context, doc *Document) error {
	if doc.ID == "" {
		doc.ID = NewID()
	}
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	if doc.IndexedAt.IsZero() {
		doc.IndexedAt = now
	}
	if doc.LastModifiedAt.IsZero() {
		doc.LastModifiedAt = now
	}

	_, err := q.ex.ExecContext(ctx, `
		INSERT INTO documents (id, name, content_hash, length, term_count, indexed_at, last_modified_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Name, doc.ContentHash, doc.Length, doc.TermCount,
		formatTime(doc.IndexedAt), formatTime(doc.LastModifiedAt), formatTime(doc.CreatedAt))
	if err != nil {
		if verrors.GetCode(mapSQLError("insert_document", err)) == verrors.ErrCodeDuplicateName {
			return verrors.New(verrors.ErrCodeDuplicateName,
				fmt.Sprintf("document name %q already exists", doc.Name), err)
		}
		return mapSQLError("insert_document", err)
	}
	return nil
}

// UpdateDocument rewrites a document's mutable columns in place; the id
// and created_at are preserved.
func (q *queries) UpdateDocument(ctx context.Context, doc *Document) error {
	res, err := q.ex.ExecContext(ctx, `
		UPDATE documents
		SET name = ?, content_hash = ?, length = ?, term_count = ?, indexed_at = ?, last_modified_at = ?
		WHERE id = ?`,
		doc.Name, doc.ContentHash, doc.Length, doc.TermCount,
		formatTime(doc.IndexedAt), formatTime(doc.LastModifiedAt), doc.ID)
	if err != nil {
		return mapSQLError("update_document", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return documentNotFound(doc.ID)
	}
	return nil
}

// DeleteDocument removes a document row. Postings, labels, and tags
// cascade via foreign keys; term frequency maintenance is the caller's
// responsibility and must happen before the delete.
func (q *queries) DeleteDocument(ctx context.Context, id string) error {
	res, err := q.ex.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return mapSQLError("delete_document", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return documentNotFound(id)
	}
	return nil
}

// GetDocument fetches one document by id.
func (q *queries) GetDocument(ctx context.Context, id string) (*Document, error) {
	row := q.ex.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, documentNotFound(id)
	}
	if err != nil {
		return nil, mapSQLError("get_document", err)
	}
	return doc, nil
}

// GetDocumentByName fetches one document by its unique name.
func (q *queries) GetDocumentByName(ctx context.Context, name string) (*Document, error) {
	row := q.ex.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE name = ?`, name)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, verrors.New(verrors.ErrCodeDocumentNotFound,
			fmt.Sprintf("document named %q not found", name), nil)
	}
	if err != nil {
		return nil, mapSQLError("get_document_by_name", err)
	}
	return doc, nil
}

// GetDocuments fetches a batch of documents by id in one query. Missing
// ids are silently omitted; the result preserves the input order.
func (q *queries) GetDocuments(ctx context.Context, ids []string) ([]*Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := q.ex.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id IN (`+inPlaceholders(len(ids))+`)`,
		args...)
	if err != nil {
		return nil, mapSQLError("get_documents", err)
	}
	defer rows.Close()

	byID := make(map[string]*Document, len(ids))
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, mapSQLError("get_documents", err)
		}
		byID[doc.ID] = doc
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLError("get_documents", err)
	}

	docs := make([]*Document, 0, len(byID))
	for _, id := range ids {
		if doc, ok := byID[id]; ok {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// ListDocuments pages through all documents ordered by id, which for
// K-sortable ids means insertion order.
func (q *queries) ListDocuments(ctx context.Context, limit, offset int) ([]*Document, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := q.ex.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents ORDER BY id LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, mapSQLError("list_documents", err)
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, mapSQLError("list_documents", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLError("list_documents", err)
	}
	return docs, nil
}

// CountDocuments returns the number of live documents.
func (q *queries) CountDocuments(ctx context.Context) (int64, error) {
	var n int64
	err := q.ex.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n)
	if err != nil {
		return 0, mapSQLError("count_documents", err)
	}
	return n, nil
}

// DeleteAllDocuments clears every document and, via cascade, every
// posting, document label, and document tag. The term dictionary is
// cleared as well since every term would be orphaned. Index-scoped
// labels and tags survive.
func (q *queries) DeleteAllDocuments(ctx context.Context) (int64, error) {
	res, err := q.ex.ExecContext(ctx, `DELETE FROM documents`)
	if err != nil {
		return 0, mapSQLError("delete_all_documents", err)
	}
	n, _ := res.RowsAffected()

	if _, err := q.ex.ExecContext(ctx, `DELETE FROM terms`); err != nil {
		return 0, mapSQLError("delete_all_documents", err)
	}
	return n, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*Document, error) {
	var doc Document
	var indexedAt, modifiedAt, createdAt string
	err := row.Scan(&doc.ID, &doc.Name, &doc.ContentHash, &doc.Length,
		&doc.TermCount, &indexedAt, &modifiedAt, &createdAt)
	if err != nil {
		return nil, err
	}
	doc.IndexedAt = parseTime(indexedAt)
	doc.LastModifiedAt = parseTime(modifiedAt)
	doc.CreatedAt = parseTime(createdAt)
	return &doc, nil
}

func documentNotFound(id string) error {
	return verrors.New(verrors.ErrCodeDocumentNotFound,
		fmt.Sprintf("document %s not found", id), nil)
}

// Store interface wrappers.

func (s *SQLiteStore) AddDocument(ctx context.Context, doc *Document) error {
	return s.write(ctx, func(tx *Tx) error {
		return tx.InsertDocument(ctx, doc)
	})
}

func (s *SQLiteStore) UpdateDocument(ctx context.Context, doc *Document) error {
	return s.write(ctx, func(tx *Tx) error {
		return tx.UpdateDocument(ctx, doc)
	})
}

func (s *SQLiteStore) GetDocument(ctx context.Context, id string) (*Document, error) {
	q, release, err := s.read()
	if err != nil {
		return nil, err
	}
	defer release()
	return q.GetDocument(ctx, id)
}

func (s *SQLiteStore) GetDocumentByName(ctx context.Context, name string) (*Document, error) {
	q, release, err := s.read()
	if err != nil {
		return nil, err
	}
	defer release()
	return q.GetDocumentByName(ctx, name)
}

// GetDocumentWithMetadata returns a document together with its labels
// and tags, resolved in a single read section.
func (s *SQLiteStore) GetDocumentWithMetadata(ctx context.Context, id string) (*DocumentWithMetadata, error) {
	q, release, err := s.read()
	if err != nil {
		return nil, err
	}
	defer release()

	doc, err := q.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	labels, err := q.GetLabels(ctx, id)
	if err != nil {
		return nil, err
	}
	tags, err := q.GetTags(ctx, id)
	if err != nil {
		return nil, err
	}
	return &DocumentWithMetadata{Document: *doc, Labels: labels, Tags: tags}, nil
}

func (s *SQLiteStore) GetDocuments(ctx context.Context, ids []string) ([]*Document, error) {
	q, release, err := s.read()
	if err != nil {
		return nil, err
	}
	defer release()
	return q.GetDocuments(ctx, ids)
}

func (s *SQLiteStore) ListDocuments(ctx context.Context, limit, offset int) ([]*Document, error) {
	q, release, err := s.read()
	if err != nil {
		return nil, err
	}
	defer release()
	return q.ListDocuments(ctx, limit, offset)
}

func (s *SQLiteStore) CountDocuments(ctx context.Context) (int64, error) {
	q, release, err := s.read()
	if err != nil {
		return 0, err
	}
	defer release()
	return q.CountDocuments(ctx)
}

func (s *SQLiteStore) DeleteAllDocuments(ctx context.Context) (int64, error) {
	var n int64
	err := s.write(ctx, func(tx *Tx) error {
		var txErr error
		n, txErr = tx.DeleteAllDocuments(ctx)
		return txErr
	})
	return n, err
}
