package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	verrors "github.com/verbexhq/verbex/internal/errors"
)

const termColumns = `id, text, document_frequency, total_frequency, created_at, updated_at`

// AddOrGetTermsBatch resolves the given normalized term texts to term
// rows, inserting any that do not exist yet with zero frequencies. The
// returned map is keyed by term text.
func (q *queries) AddOrGetTermsBatch(ctx context.Context, texts []string) (map[string]*Term, error) {
	if len(texts) == 0 {
		return map[string]*Term{}, nil
	}

	now := formatTime(time.Now())
	for _, text := range texts {
		_, err := q.ex.ExecContext(ctx, `
			INSERT INTO terms (id, text, document_frequency, total_frequency, created_at, updated_at)
			VALUES (?, ?, 0, 0, ?, ?)
			ON CONFLICT(text) DO NOTHING`,
			NewID(), text, now, now)
		if err != nil {
			return nil, mapSQLError("add_terms", err)
		}
	}

	return q.GetTermsByText(ctx, texts)
}

// GetTermsByText fetches term rows for the given texts in one query.
// Unknown texts are absent from the returned map.
func (q *queries) GetTermsByText(ctx context.Context, texts []string) (map[string]*Term, error) {
	if len(texts) == 0 {
		return map[string]*Term{}, nil
	}

	args := make([]any, len(texts))
	for i, t := range texts {
		args[i] = t
	}
	rows, err := q.ex.QueryContext(ctx,
		`SELECT `+termColumns+` FROM terms WHERE text IN (`+inPlaceholders(len(texts))+`)`,
		args...)
	if err != nil {
		return nil, mapSQLError("get_terms", err)
	}
	defer rows.Close()

	terms := make(map[string]*Term, len(texts))
	for rows.Next() {
		term, err := scanTerm(rows)
		if err != nil {
			return nil, mapSQLError("get_terms", err)
		}
		terms[term.Text] = term
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLError("get_terms", err)
	}
	return terms, nil
}

// GetTerm fetches one term by its normalized text.
func (q *queries) GetTerm(ctx context.Context, text string) (*Term, error) {
	row := q.ex.QueryRowContext(ctx,
		`SELECT `+termColumns+` FROM terms WHERE text = ?`, text)
	term, err := scanTerm(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, verrors.New(verrors.ErrCodeTermNotFound,
			fmt.Sprintf("term %q not found", text), nil)
	}
	if err != nil {
		return nil, mapSQLError("get_term", err)
	}
	return term, nil
}

// ApplyFrequencyDeltas adjusts aggregate counters for a set of terms.
// Deltas may be negative during document removal.
func (q *queries) ApplyFrequencyDeltas(ctx context.Context, deltas map[string]FrequencyDelta) error {
	now := formatTime(time.Now())
	for termID, delta := range deltas {
		if delta.DocumentFrequency == 0 && delta.TotalFrequency == 0 {
			continue
		}
		res, err := q.ex.ExecContext(ctx, `
			UPDATE terms
			SET document_frequency = document_frequency + ?,
			    total_frequency = total_frequency + ?,
			    updated_at = ?
			WHERE id = ?`,
			delta.DocumentFrequency, delta.TotalFrequency, now, termID)
		if err != nil {
			return mapSQLError("apply_frequency_deltas", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return verrors.New(verrors.ErrCodeTermNotFound,
				fmt.Sprintf("term %s not found", termID), nil)
		}
	}
	return nil
}

// DeleteOrphanTerms removes terms whose document frequency has dropped
// to zero, keeping the dictionary bounded by live content.
func (q *queries) DeleteOrphanTerms(ctx context.Context) (int64, error) {
	res, err := q.ex.ExecContext(ctx,
		`DELETE FROM terms WHERE document_frequency <= 0`)
	if err != nil {
		return 0, mapSQLError("delete_orphan_terms", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// CountTerms returns the dictionary size.
func (q *queries) CountTerms(ctx context.Context) (int64, error) {
	var n int64
	err := q.ex.QueryRowContext(ctx, `SELECT COUNT(*) FROM terms`).Scan(&n)
	if err != nil {
		return 0, mapSQLError("count_terms", err)
	}
	return n, nil
}

func scanTerm(row rowScanner) (*Term, error) {
	var term Term
	var createdAt, updatedAt string
	err := row.Scan(&term.ID, &term.Text, &term.DocumentFrequency,
		&term.TotalFrequency, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	term.CreatedAt = parseTime(createdAt)
	term.UpdatedAt = parseTime(updatedAt)
	return &term, nil
}

// Store interface wrappers.

func (s *SQLiteStore) GetTerm(ctx context.Context, text string) (*Term, error) {
	q, release, err := s.read()
	if err != nil {
		return nil, err
	}
	defer release()
	return q.GetTerm(ctx, text)
}

func (s *SQLiteStore) GetTermsByText(ctx context.Context, texts []string) (map[string]*Term, error) {
	q, release, err := s.read()
	if err != nil {
		return nil, err
	}
	defer release()
	return q.GetTermsByText(ctx, texts)
}

func (s *SQLiteStore) TermExists(ctx context.Context, text string) (bool, error) {
	q, release, err := s.read()
	if err != nil {
		return false, err
	}
	defer release()

	var one int
	err = q.ex.QueryRowContext(ctx,
		`SELECT 1 FROM terms WHERE text = ?`, text).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, mapSQLError("term_exists", err)
	}
	return true, nil
}

func (s *SQLiteStore) CountTerms(ctx context.Context) (int64, error) {
	q, release, err := s.read()
	if err != nil {
		return 0, err
	}
	defer release()
	return q.CountTerms(ctx)
}
