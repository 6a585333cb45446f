package store

import (
	"context"
)

// GetAggregateStats computes the index-wide aggregation snapshot in
// two queries: one over documents, one over the term dictionary.
func (q *queries) GetAggregateStats(ctx context.Context) (*AggregateStats, error) {
	var stats AggregateStats

	err := q.ex.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(AVG(length), 0),
		       COALESCE(MIN(length), 0),
		       COALESCE(MAX(length), 0),
		       COALESCE(AVG(term_count), 0)
		FROM documents`).Scan(
		&stats.DocumentCount,
		&stats.AvgDocumentLength,
		&stats.MinDocumentLength,
		&stats.MaxDocumentLength,
		&stats.AvgTermsPerDocument)
	if err != nil {
		return nil, mapSQLError("get_aggregate_stats", err)
	}

	err = q.ex.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(AVG(document_frequency), 0),
		       COALESCE(MAX(document_frequency), 0)
		FROM terms`).Scan(
		&stats.TermCount,
		&stats.AvgDocumentFrequency,
		&stats.MaxDocumentFrequency)
	if err != nil {
		return nil, mapSQLError("get_aggregate_stats", err)
	}

	err = q.ex.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM document_terms`).Scan(&stats.PostingCount)
	if err != nil {
		return nil, mapSQLError("get_aggregate_stats", err)
	}

	return &stats, nil
}

// GetTopTerms returns the n terms appearing in the most documents,
// ties broken by total frequency then alphabetically.
func (q *queries) GetTopTerms(ctx context.Context, n int) ([]*TermCountEntry, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := q.ex.QueryContext(ctx, `
		SELECT text, document_frequency, total_frequency
		FROM terms
		ORDER BY document_frequency DESC, total_frequency DESC, text ASC
		LIMIT ?`, n)
	if err != nil {
		return nil, mapSQLError("get_top_terms", err)
	}
	defer rows.Close()

	var entries []*TermCountEntry
	for rows.Next() {
		var e TermCountEntry
		if err := rows.Scan(&e.Text, &e.DocumentFrequency, &e.TotalFrequency); err != nil {
			return nil, mapSQLError("get_top_terms", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLError("get_top_terms", err)
	}
	return entries, nil
}

func (s *SQLiteStore) GetAggregateStats(ctx context.Context) (*AggregateStats, error) {
	q, release, err := s.read()
	if err != nil {
		return nil, err
	}
	defer release()
	return q.GetAggregateStats(ctx)
}

func (s *SQLiteStore) GetTopTerms(ctx context.Context, n int) ([]*TermCountEntry, error) {
	q, release, err := s.read()
	if err != nil {
		return nil, err
	}
	defer release()
	return q.GetTopTerms(ctx, n)
}
