package query

import (
	"fmt"

	"github.com/kailas-cloud/dirsearch/internal/domain/search/mode"
)

// Search parameter limits.
const (
	// MaxTextLength is the maximum allowed query text length.
	MaxTextLength     = 1024
	DefaultMaxResults = 10
	MaxMaxResults     = 100
)

// Query is a validated directory search (immutable value object).
// Text may be empty: an empty query browses the list in insertion order,
// with tag and attribute filters still applying.
type Query struct {
	text       string
	tag        string
	filters    map[string]string
	searchMode mode.Mode
	maxResults int
}

// New validates and normalizes search parameters.
// Defaults: mode=fts, maxResults=10 (clamped to 100).
func New(text, tag string, filters map[string]string, m mode.Mode, maxResults int) (Query, error) {
	if len(text) > MaxTextLength {
		return Query{}, fmt.Errorf("query too long (max %d chars)", MaxTextLength)
	}
	if m == "" {
		m = mode.FTS
	}
	if !m.IsValid() {
		return Query{}, fmt.Errorf("invalid search mode: %q", m)
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	if maxResults > MaxMaxResults {
		maxResults = MaxMaxResults
	}

	f := make(map[string]string, len(filters))
	for k, v := range filters {
		f[k] = v
	}

	return Query{
		text:       text,
		tag:        tag,
		filters:    f,
		searchMode: m,
		maxResults: maxResults,
	}, nil
}

// Text returns the query text ("" browses without text matching).
func (q *Query) Text() string { return q.text }

// HasText reports whether a text query was supplied.
func (q *Query) HasText() bool { return q.text != "" }

// Tag returns the single-tag membership filter ("" for none).
func (q *Query) Tag() string { return q.tag }

// Filters returns the attribute equality filters (ANDed).
func (q *Query) Filters() map[string]string { return q.filters }

// Mode returns the text matching strategy.
func (q *Query) Mode() mode.Mode { return q.searchMode }

// MaxResults returns the result cap.
func (q *Query) MaxResults() int { return q.maxResults }
