// Package store implements the durable storage engine for documents,
// terms, postings, labels, and tags on SQLite. It is the only component
// that owns persistent entity state; the indexer and query engine
// operate purely on values passed through this API.
package store

import (
	"context"
	"time"
)

// Document is the metadata row for one indexed document.
type Document struct {
	ID             string    // K-sortable opaque id, never changes
	Name           string    // unique display key among live documents
	ContentHash    string    // SHA-256 hex of the original content
	Length         int       // character count of the original content
	TermCount      int       // distinct terms currently indexed for this document
	IndexedAt      time.Time // UTC
	LastModifiedAt time.Time // UTC
	CreatedAt      time.Time // UTC
}

// DocumentWithMetadata is a document eager-loaded with its labels and
// tags in one round trip.
type DocumentWithMetadata struct {
	Document
	Labels []string
	Tags   map[string]string
}

// Term is one entry in the term dictionary with aggregate frequencies.
type Term struct {
	ID                string
	Text              string
	DocumentFrequency int64 // distinct documents currently containing this term
	TotalFrequency    int64 // occurrences across all documents
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Posting records one term's occurrences within one document.
// Invariant: TermFrequency == len(CharacterPositions) == len(TermPositions),
// and both position lists are monotonically increasing.
type Posting struct {
	ID                 string
	DocumentID         string
	TermID             string
	TermFrequency      int
	CharacterPositions []int // absolute rune offsets in the original content
	TermPositions      []int // 0-based word indices
	CreatedAt          time.Time
}

// PostingInsert is the per-term payload for AddPostingsBatch.
type PostingInsert struct {
	TermID             string
	TermFrequency      int
	CharacterPositions []int
	TermPositions      []int
}

// FrequencyDelta adjusts one term's aggregate counters.
type FrequencyDelta struct {
	DocumentFrequency int64
	TotalFrequency    int64
}

// Label is a free-form marker on a document, or on the index itself
// when DocumentID is empty. Text is stored lowercased so query-time
// matching is case-insensitive.
type Label struct {
	ID         string
	DocumentID string // empty means index-scoped
	Text       string
	CreatedAt  time.Time
}

// Tag is a key-value marker on a document, or on the index itself when
// DocumentID is empty. Value matching is exact and case-sensitive.
type Tag struct {
	ID         string
	DocumentID string // empty means index-scoped
	Key        string
	Value      string
	CreatedAt  time.Time
}

// IndexMetadata is the single identity row for an index instance.
type IndexMetadata struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SearchFilter restricts posting retrieval to documents carrying ALL of
// the given labels and ALL of the given tag pairs. Filters are pushed
// into the retrieval query, never applied over an unfiltered result set.
type SearchFilter struct {
	Labels []string
	Tags   map[string]string
}

// Empty reports whether the filter imposes no restriction.
func (f SearchFilter) Empty() bool {
	return len(f.Labels) == 0 && len(f.Tags) == 0
}

// SearchMatch is one candidate document from SearchPostings.
type SearchMatch struct {
	DocumentID       string
	MatchedTermIDs   []string // distinct query terms present in the document
	MatchedTermCount int      // len(MatchedTermIDs)
	TotalFrequency   int64    // summed term_frequency across matched terms
}

// AggregateStats is the index-wide aggregation snapshot.
type AggregateStats struct {
	DocumentCount        int64
	TermCount            int64
	PostingCount         int64
	AvgDocumentLength    float64
	MinDocumentLength    int64
	MaxDocumentLength    int64
	AvgTermsPerDocument  float64
	AvgDocumentFrequency float64
	MaxDocumentFrequency int64
}

// TermCountEntry is one row of the top-terms listing.
type TermCountEntry struct {
	Text              string
	DocumentFrequency int64
	TotalFrequency    int64
}

// Store is the storage engine contract consumed by the indexer, the
// query engine, and the statistics service.
type Store interface {
	// Document operations
	AddDocument(ctx context.Context, doc *Document) error
	UpdateDocument(ctx context.Context, doc *Document) error
	GetDocument(ctx context.Context, id string) (*Document, error)
	GetDocumentByName(ctx context.Context, name string) (*Document, error)
	GetDocumentWithMetadata(ctx context.Context, id string) (*DocumentWithMetadata, error)
	GetDocuments(ctx context.Context, ids []string) ([]*Document, error)
	ListDocuments(ctx context.Context, limit, offset int) ([]*Document, error)
	CountDocuments(ctx context.Context) (int64, error)
	DeleteAllDocuments(ctx context.Context) (int64, error)

	// Term operations
	GetTerm(ctx context.Context, text string) (*Term, error)
	GetTermsByText(ctx context.Context, texts []string) (map[string]*Term, error)
	TermExists(ctx context.Context, text string) (bool, error)
	CountTerms(ctx context.Context) (int64, error)

	// Posting operations
	GetPostingsByDocument(ctx context.Context, documentID string) ([]*Posting, error)
	CountPostings(ctx context.Context) (int64, error)

	// Retrieval
	SearchPostings(ctx context.Context, termIDs []string, andLogic bool, filter SearchFilter, limit int) ([]*SearchMatch, error)

	// Label operations (empty documentID targets the index scope)
	AddLabel(ctx context.Context, documentID, text string) error
	AddLabelsBatch(ctx context.Context, documentID string, texts []string) error
	ReplaceLabels(ctx context.Context, documentID string, texts []string) error
	RemoveLabel(ctx context.Context, documentID, text string) (bool, error)
	GetLabels(ctx context.Context, documentID string) ([]string, error)
	GetDocumentsByLabel(ctx context.Context, text string) ([]string, error)

	// Tag operations (empty documentID targets the index scope)
	SetTag(ctx context.Context, documentID, key, value string) error
	SetTagsBatch(ctx context.Context, documentID string, tags map[string]string) error
	ReplaceTags(ctx context.Context, documentID string, tags map[string]string) error
	RemoveTag(ctx context.Context, documentID, key string) (bool, error)
	GetTags(ctx context.Context, documentID string) (map[string]string, error)
	GetDocumentsByTag(ctx context.Context, key, value string) ([]string, error)

	// Index metadata
	GetIndexMetadata(ctx context.Context) (*IndexMetadata, error)

	// Statistics
	GetAggregateStats(ctx context.Context) (*AggregateStats, error)
	GetTopTerms(ctx context.Context, n int) ([]*TermCountEntry, error)

	// Transactions: all-or-nothing composition of batch mutations.
	RunInTransaction(ctx context.Context, fn func(tx *Tx) error) error

	// Lifecycle
	Flush(ctx context.Context, targetPath string) error
	Close() error
}
