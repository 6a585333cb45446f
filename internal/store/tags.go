package store

import (
	"context"
	"database/sql"
	"sort"
	"time"
)

// SetTag attaches or overwrites a key-value tag on a document, or on
// the index when documentID is empty. Setting an existing key replaces
// its value.
func (q *queries) SetTag(ctx context.Context, documentID, key, value string) error {
	// The partial unique index on index-scoped tags does not drive
	// ON CONFLICT upserts, so resolve the existing row explicitly.
	clause, args := docScope(documentID)
	delArgs := append([]any{key}, args...)
	if _, err := q.ex.ExecContext(ctx,
		`DELETE FROM tags WHERE key = ? AND `+clause, delArgs...); err != nil {
		return mapSQLError("set_tag", err)
	}
	_, err := q.ex.ExecContext(ctx, `
		INSERT INTO tags (id, document_id, key, value, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		NewID(), nullableDocID(documentID), key, value, formatTime(time.Now()))
	if err != nil {
		return mapSQLError("set_tag", err)
	}
	return nil
}

// SetTagsBatch sets multiple tags in one pass, sorted by key for a
// deterministic write order.
func (q *queries) SetTagsBatch(ctx context.Context, documentID string, tags map[string]string) error {
	keys := make([]string, 0, len(tags))
	for key := range tags {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := q.SetTag(ctx, documentID, key, tags[key]); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceTags removes every tag in the scope and installs the given
// set. Full replacement, not a merge.
func (q *queries) ReplaceTags(ctx context.Context, documentID string, tags map[string]string) error {
	clause, args := docScope(documentID)
	if _, err := q.ex.ExecContext(ctx, `DELETE FROM tags WHERE `+clause, args...); err != nil {
		return mapSQLError("replace_tags", err)
	}
	return q.SetTagsBatch(ctx, documentID, tags)
}

// RemoveTag detaches a tag by key, reporting whether it was present.
func (q *queries) RemoveTag(ctx context.Context, documentID, key string) (bool, error) {
	clause, args := docScope(documentID)
	args = append([]any{key}, args...)
	res, err := q.ex.ExecContext(ctx,
		`DELETE FROM tags WHERE key = ? AND `+clause, args...)
	if err != nil {
		return false, mapSQLError("remove_tag", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// GetTags returns the scope's tags as a key-value map.
func (q *queries) GetTags(ctx context.Context, documentID string) (map[string]string, error) {
	clause, args := docScope(documentID)
	rows, err := q.ex.QueryContext(ctx,
		`SELECT key, value FROM tags WHERE `+clause, args...)
	if err != nil {
		return nil, mapSQLError("get_tags", err)
	}
	defer rows.Close()

	tags := make(map[string]string)
	for rows.Next() {
		var key string
		var value sql.NullString
		if err := rows.Scan(&key, &value); err != nil {
			return nil, mapSQLError("get_tags", err)
		}
		// value is nullable in the schema; a NULL reads as the empty
		// string.
		tags[key] = value.String
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLError("get_tags", err)
	}
	return tags, nil
}

// GetDocumentsByTag returns the ids of every document carrying the
// exact key-value pair, ordered by id.
func (q *queries) GetDocumentsByTag(ctx context.Context, key, value string) ([]string, error) {
	rows, err := q.ex.QueryContext(ctx, `
		SELECT document_id FROM tags
		WHERE key = ? AND value = ? AND document_id IS NOT NULL
		ORDER BY document_id`, key, value)
	if err != nil {
		return nil, mapSQLError("get_documents_by_tag", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, mapSQLError("get_documents_by_tag", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLError("get_documents_by_tag", err)
	}
	return ids, nil
}

// Store interface wrappers.

func (s *SQLiteStore) SetTag(ctx context.Context, documentID, key, value string) error {
	return s.write(ctx, func(tx *Tx) error {
		if err := tx.requireDocument(ctx, documentID); err != nil {
			return err
		}
		return tx.SetTag(ctx, documentID, key, value)
	})
}

func (s *SQLiteStore) SetTagsBatch(ctx context.Context, documentID string, tags map[string]string) error {
	return s.write(ctx, func(tx *Tx) error {
		if err := tx.requireDocument(ctx, documentID); err != nil {
			return err
		}
		return tx.SetTagsBatch(ctx, documentID, tags)
	})
}

func (s *SQLiteStore) ReplaceTags(ctx context.Context, documentID string, tags map[string]string) error {
	return s.write(ctx, func(tx *Tx) error {
		if err := tx.requireDocument(ctx, documentID); err != nil {
			return err
		}
		return tx.ReplaceTags(ctx, documentID, tags)
	})
}

func (s *SQLiteStore) RemoveTag(ctx context.Context, documentID, key string) (bool, error) {
	var removed bool
	err := s.write(ctx, func(tx *Tx) error {
		var txErr error
		removed, txErr = tx.RemoveTag(ctx, documentID, key)
		return txErr
	})
	return removed, err
}

func (s *SQLiteStore) GetTags(ctx context.Context, documentID string) (map[string]string, error) {
	q, release, err := s.read()
	if err != nil {
		return nil, err
	}
	defer release()
	return q.GetTags(ctx, documentID)
}

func (s *SQLiteStore) GetDocumentsByTag(ctx context.Context, key, value string) ([]string, error) {
	q, release, err := s.read()
	if err != nil {
		return nil, err
	}
	defer release()
	return q.GetDocumentsByTag(ctx, key, value)
}
