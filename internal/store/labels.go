package store

import (
	"context"
	"strings"
	"time"
)

// nullableDocID maps the empty-string index scope onto a NULL column
// value.
func nullableDocID(documentID string) any {
	if documentID == "" {
		return nil
	}
	return documentID
}

// docScope returns the WHERE fragment and arguments selecting either a
// document's rows or the index-scoped rows.
func docScope(documentID string) (string, []any) {
	if documentID == "" {
		return "document_id IS NULL", nil
	}
	return "document_id = ?", []any{documentID}
}

// AddLabel attaches a label to a document, or to the index when
// documentID is empty. Labels are stored lowercased and adding an
// existing label is a no-op.
func (q *queries) AddLabel(ctx context.Context, documentID, text string) error {
	_, err := q.ex.ExecContext(ctx, `
		INSERT OR IGNORE INTO labels (id, document_id, text, created_at)
		VALUES (?, ?, ?, ?)`,
		NewID(), nullableDocID(documentID), strings.ToLower(text), formatTime(time.Now()))
	if err != nil {
		return mapSQLError("add_label", err)
	}
	return nil
}

// AddLabelsBatch attaches multiple labels in one pass.
func (q *queries) AddLabelsBatch(ctx context.Context, documentID string, texts []string) error {
	for _, text := range texts {
		if err := q.AddLabel(ctx, documentID, text); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceLabels removes every existing label in the scope and installs
// the given set. Full replacement, not a merge.
func (q *queries) ReplaceLabels(ctx context.Context, documentID string, texts []string) error {
	clause, args := docScope(documentID)
	if _, err := q.ex.ExecContext(ctx, `DELETE FROM labels WHERE `+clause, args...); err != nil {
		return mapSQLError("replace_labels", err)
	}
	return q.AddLabelsBatch(ctx, documentID, texts)
}

// RemoveLabel detaches a label, reporting whether it was present.
func (q *queries) RemoveLabel(ctx context.Context, documentID, text string) (bool, error) {
	clause, args := docScope(documentID)
	args = append([]any{strings.ToLower(text)}, args...)
	res, err := q.ex.ExecContext(ctx,
		`DELETE FROM labels WHERE text = ? AND `+clause, args...)
	if err != nil {
		return false, mapSQLError("remove_label", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// GetLabels returns the labels in the scope, sorted.
func (q *queries) GetLabels(ctx context.Context, documentID string) ([]string, error) {
	clause, args := docScope(documentID)
	rows, err := q.ex.QueryContext(ctx,
		`SELECT text FROM labels WHERE `+clause+` ORDER BY text`, args...)
	if err != nil {
		return nil, mapSQLError("get_labels", err)
	}
	defer rows.Close()

	var labels []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, mapSQLError("get_labels", err)
		}
		labels = append(labels, text)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLError("get_labels", err)
	}
	return labels, nil
}

// GetDocumentsByLabel returns the ids of every document carrying the
// label, ordered by id.
func (q *queries) GetDocumentsByLabel(ctx context.Context, text string) ([]string, error) {
	rows, err := q.ex.QueryContext(ctx, `
		SELECT document_id FROM labels
		WHERE text = ? AND document_id IS NOT NULL
		ORDER BY document_id`, strings.ToLower(text))
	if err != nil {
		return nil, mapSQLError("get_documents_by_label", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, mapSQLError("get_documents_by_label", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLError("get_documents_by_label", err)
	}
	return ids, nil
}

// Store interface wrappers.

func (s *SQLiteStore) AddLabel(ctx context.Context, documentID, text string) error {
	return s.write(ctx, func(tx *Tx) error {
		if err := tx.requireDocument(ctx, documentID); err != nil {
			return err
		}
		return tx.AddLabel(ctx, documentID, text)
	})
}

func (s *SQLiteStore) AddLabelsBatch(ctx context.Context, documentID string, texts []string) error {
	return s.write(ctx, func(tx *Tx) error {
		if err := tx.requireDocument(ctx, documentID); err != nil {
			return err
		}
		return tx.AddLabelsBatch(ctx, documentID, texts)
	})
}

func (s *SQLiteStore) ReplaceLabels(ctx context.Context, documentID string, texts []string) error {
	return s.write(ctx, func(tx *Tx) error {
		if err := tx.requireDocument(ctx, documentID); err != nil {
			return err
		}
		return tx.ReplaceLabels(ctx, documentID, texts)
	})
}

func (s *SQLiteStore) RemoveLabel(ctx context.Context, documentID, text string) (bool, error) {
	var removed bool
	err := s.write(ctx, func(tx *Tx) error {
		var txErr error
		removed, txErr = tx.RemoveLabel(ctx, documentID, text)
		return txErr
	})
	return removed, err
}

func (s *SQLiteStore) GetLabels(ctx context.Context, documentID string) ([]string, error) {
	q, release, err := s.read()
	if err != nil {
		return nil, err
	}
	defer release()
	return q.GetLabels(ctx, documentID)
}

func (s *SQLiteStore) GetDocumentsByLabel(ctx context.Context, text string) ([]string, error) {
	q, release, err := s.read()
	if err != nil {
		return nil, err
	}
	defer release()
	return q.GetDocumentsByLabel(ctx, text)
}

// requireDocument verifies a non-empty document id refers to a live
// document before metadata is attached to it.
func (q *queries) requireDocument(ctx context.Context, documentID string) error {
	if documentID == "" {
		return nil
	}
	_, err := q.GetDocument(ctx, documentID)
	return err
}
