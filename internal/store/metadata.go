package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	verrors "github.com/verbexhq/verbex/internal/errors"
)

// GetIndexMetadata returns the index identity row.
func (q *queries) GetIndexMetadata(ctx context.Context) (*IndexMetadata, error) {
	row := q.ex.QueryRowContext(ctx,
		`SELECT id, name, created_at, updated_at FROM index_metadata LIMIT 1`)

	var meta IndexMetadata
	var createdAt, updatedAt string
	err := row.Scan(&meta.ID, &meta.Name, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, verrors.New(verrors.ErrCodeIndexNotFound, "index metadata missing", nil)
	}
	if err != nil {
		return nil, mapSQLError("get_index_metadata", err)
	}
	meta.CreatedAt = parseTime(createdAt)
	meta.UpdatedAt = parseTime(updatedAt)
	return &meta, nil
}

// TouchIndexMetadata bumps the index updated_at timestamp after a
// content mutation.
func (q *queries) TouchIndexMetadata(ctx context.Context) error {
	_, err := q.ex.ExecContext(ctx,
		`UPDATE index_metadata SET updated_at = ?`, formatTime(time.Now()))
	if err != nil {
		return mapSQLError("touch_index_metadata", err)
	}
	return nil
}

func (s *SQLiteStore) GetIndexMetadata(ctx context.Context) (*IndexMetadata, error) {
	q, release, err := s.read()
	if err != nil {
		return nil, err
	}
	defer release()
	return q.GetIndexMetadata(ctx)
}
