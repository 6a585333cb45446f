package store

import (
	"context"
	"sort"
	"strings"
)

// SearchPostings returns the candidate documents containing the given
// terms. In AND mode only documents containing every term qualify; in
// OR mode any term suffices. Label and tag filters are pushed into the
// retrieval query so non-matching documents never leave the storage
// layer. A limit of zero or less returns all candidates.
//
// Candidates are ordered by document id so callers that score and
// re-sort see a deterministic input.
func (q *queries) SearchPostings(ctx context.Context, termIDs []string, andLogic bool, filter SearchFilter, limit int) ([]*SearchMatch, error) {
	if len(termIDs) == 0 {
		return nil, nil
	}

	var sb strings.Builder
	args := make([]any, 0, len(termIDs)+len(filter.Labels)+2*len(filter.Tags)+2)

	sb.WriteString(`
		SELECT dt.document_id,
		       GROUP_CONCAT(DISTINCT dt.term_id) AS matched_term_ids,
		       COUNT(DISTINCT dt.term_id) AS matched_terms,
		       SUM(dt.term_frequency) AS total_frequency
		FROM document_terms dt
		WHERE dt.term_id IN (`)
	sb.WriteString(inPlaceholders(len(termIDs)))
	sb.WriteString(`)`)
	for _, id := range termIDs {
		args = append(args, id)
	}

	// Each label must be present on the document; labels are matched
	// case-insensitively against their lowercased stored form.
	for _, label := range filter.Labels {
		sb.WriteString(`
		AND dt.document_id IN (SELECT document_id FROM labels WHERE text = ? AND document_id IS NOT NULL)`)
		args = append(args, strings.ToLower(label))
	}

	// Each tag pair must be present; keys sorted for a stable query.
	tagKeys := make([]string, 0, len(filter.Tags))
	for key := range filter.Tags {
		tagKeys = append(tagKeys, key)
	}
	sort.Strings(tagKeys)
	for _, key := range tagKeys {
		sb.WriteString(`
		AND dt.document_id IN (SELECT document_id FROM tags WHERE key = ? AND value = ? AND document_id IS NOT NULL)`)
		args = append(args, key, filter.Tags[key])
	}

	sb.WriteString(`
		GROUP BY dt.document_id`)
	if andLogic {
		sb.WriteString(`
		HAVING COUNT(DISTINCT dt.term_id) = ?`)
		args = append(args, len(termIDs))
	}
	sb.WriteString(`
		ORDER BY dt.document_id`)
	if limit > 0 {
		sb.WriteString(`
		LIMIT ?`)
		args = append(args, limit)
	}

	rows, err := q.ex.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, mapSQLError("search_postings", err)
	}
	defer rows.Close()

	var matches []*SearchMatch
	for rows.Next() {
		var m SearchMatch
		var matchedIDs string
		if err := rows.Scan(&m.DocumentID, &matchedIDs, &m.MatchedTermCount, &m.TotalFrequency); err != nil {
			return nil, mapSQLError("search_postings", err)
		}
		if matchedIDs != "" {
			m.MatchedTermIDs = strings.Split(matchedIDs, ",")
		}
		matches = append(matches, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLError("search_postings", err)
	}
	return matches, nil
}

func (s *SQLiteStore) SearchPostings(ctx context.Context, termIDs []string, andLogic bool, filter SearchFilter, limit int) ([]*SearchMatch, error) {
	q, release, err := s.read()
	if err != nil {
		return nil, err
	}
	defer release()
	return q.SearchPostings(ctx, termIDs, andLogic, filter, limit)
}
