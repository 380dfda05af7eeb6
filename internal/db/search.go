package db

// TagFilter is an exact-match condition on a TAG field. Filters are ANDed.
type TagFilter struct {
	Field string
	Value string
}

// TextQuery is the input for scored full-text search. Text is handed to the
// engine's query parser as-is; a parse failure surfaces as ErrQuerySyntax so
// the caller can fall back to substring matching.
type TextQuery struct {
	IndexName string
	Text      string
	Filters   []TagFilter
	TopK      int
}

// BrowseQuery is the input for unscored listing in insertion order.
type BrowseQuery struct {
	IndexName string
	Filters   []TagFilter
	SortField string
	Limit     int
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
