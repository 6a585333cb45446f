package store

import (
	"context"
	"encoding/json"
	"time"

	verrors "github.com/verbexhq/verbex/internal/errors"
)

// InsertPostings writes one posting row per term for a document. The
// position lists are stored as JSON arrays; frequency maintenance on
// the term dictionary is handled separately via ApplyFrequencyDeltas.
func (q *queries) InsertPostings(ctx context.Context, documentID string, postings []PostingInsert) error {
	now := formatTime(time.Now())
	for _, p := range postings {
		charJSON, err := encodePositions(p.CharacterPositions)
		if err != nil {
			return verrors.StorageError("insert_postings", err)
		}
		termJSON, err := encodePositions(p.TermPositions)
		if err != nil {
			return verrors.StorageError("insert_postings", err)
		}
		_, err = q.ex.ExecContext(ctx, `
			INSERT INTO document_terms (id, document_id, term_id, term_frequency, character_positions, term_positions, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			NewID(), documentID, p.TermID, p.TermFrequency, charJSON, termJSON, now)
		if err != nil {
			return mapSQLError("insert_postings", err)
		}
	}
	return nil
}

// GetPostingsByDocument returns every posting for a document. Used by
// removal to compute frequency decrements before the cascade delete.
func (q *queries) GetPostingsByDocument(ctx context.Context, documentID string) ([]*Posting, error) {
	rows, err := q.ex.QueryContext(ctx, `
		SELECT id, document_id, term_id, term_frequency, character_positions, term_positions, created_at
		FROM document_terms
		WHERE document_id = ?
		ORDER BY term_id`, documentID)
	if err != nil {
		return nil, mapSQLError("get_postings", err)
	}
	defer rows.Close()

	var postings []*Posting
	for rows.Next() {
		var p Posting
		var charJSON, termJSON, createdAt string
		if err := rows.Scan(&p.ID, &p.DocumentID, &p.TermID, &p.TermFrequency,
			&charJSON, &termJSON, &createdAt); err != nil {
			return nil, mapSQLError("get_postings", err)
		}
		if p.CharacterPositions, err = decodePositions(charJSON); err != nil {
			return nil, verrors.New(verrors.ErrCodeCorruptIndex,
				"malformed character position list", err)
		}
		if p.TermPositions, err = decodePositions(termJSON); err != nil {
			return nil, verrors.New(verrors.ErrCodeCorruptIndex,
				"malformed term position list", err)
		}
		p.CreatedAt = parseTime(createdAt)
		postings = append(postings, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLError("get_postings", err)
	}
	return postings, nil
}

// DeletePostingsByDocument removes all postings for a document,
// returning how many rows were removed.
func (q *queries) DeletePostingsByDocument(ctx context.Context, documentID string) (int64, error) {
	res, err := q.ex.ExecContext(ctx,
		`DELETE FROM document_terms WHERE document_id = ?`, documentID)
	if err != nil {
		return 0, mapSQLError("delete_postings", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// CountPostings returns the total number of posting rows.
func (q *queries) CountPostings(ctx context.Context) (int64, error) {
	var n int64
	err := q.ex.QueryRowContext(ctx, `SELECT COUNT(*) FROM document_terms`).Scan(&n)
	if err != nil {
		return 0, mapSQLError("count_postings", err)
	}
	return n, nil
}

func encodePositions(positions []int) (string, error) {
	if len(positions) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(positions)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodePositions(data string) ([]int, error) {
	if data == "" || data == "[]" {
		return nil, nil
	}
	var positions []int
	if err := json.Unmarshal([]byte(data), &positions); err != nil {
		return nil, err
	}
	return positions, nil
}

// Store interface wrappers.

func (s *SQLiteStore) GetPostingsByDocument(ctx context.Context, documentID string) ([]*Posting, error) {
	q, release, err := s.read()
	if err != nil {
		return nil, err
	}
	defer release()
	return q.GetPostingsByDocument(ctx, documentID)
}

func (s *SQLiteStore) CountPostings(ctx context.Context) (int64, error) {
	q, release, err := s.read()
	if err != nil {
		return 0, err
	}
	defer release()
	return q.CountPostings(ctx)
}
