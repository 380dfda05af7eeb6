package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/dirsearch/internal/db"
	"github.com/kailas-cloud/dirsearch/internal/domain"
	"github.com/kailas-cloud/dirsearch/internal/domain/search/result"
	entryrepo "github.com/kailas-cloud/dirsearch/internal/repository/entry"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	SearchBrowse(ctx context.Context, q *db.BrowseQuery) (*db.SearchResult, error)
}

// Repo implements usecase/search.Repository.
type Repo struct {
	store store
}

// New creates a search repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// SearchText performs a scored full-text search over the list's weighted
// index. A query the engine cannot parse surfaces as domain.ErrQueryParse.
func (r *Repo) SearchText(
	ctx context.Context, tenant, listName, text, tag string,
	attrFilters map[string]string, topK int,
) ([]result.Result, error) {
	q := &db.TextQuery{
		IndexName: indexName(tenant, listName),
		Text:      text,
		Filters:   buildFilters(tag, attrFilters),
		TopK:      topK,
	}

	sr, err := r.store.SearchText(ctx, q)
	if err != nil {
		if errors.Is(err, db.ErrQuerySyntax) {
			return nil, fmt.Errorf("%w: %s", domain.ErrQueryParse, err.Error())
		}
		return nil, fmt.Errorf("search text %s/%s: %w", tenant, listName, err)
	}

	return parseResults(sr, tenant, listName, true), nil
}

// Browse lists entries in insertion order, with filters still applying.
func (r *Repo) Browse(
	ctx context.Context, tenant, listName, tag string,
	attrFilters map[string]string, limit int,
) ([]result.Result, error) {
	q := &db.BrowseQuery{
		IndexName: indexName(tenant, listName),
		Filters:   buildFilters(tag, attrFilters),
		SortField: "seq",
		Limit:     limit,
	}

	sr, err := r.store.SearchBrowse(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("browse %s/%s: %w", tenant, listName, err)
	}

	return parseResults(sr, tenant, listName, false), nil
}

// buildFilters translates the tag membership filter and the attribute
// equality filters into TAG conditions, attribute keys sorted for
// deterministic query strings.
func buildFilters(tag string, attrFilters map[string]string) []db.TagFilter {
	filters := make([]db.TagFilter, 0, 1+len(attrFilters))
	if tag != "" {
		filters = append(filters, db.TagFilter{Field: "tags", Value: tag})
	}

	keys := make([]string, 0, len(attrFilters))
	for k := range attrFilters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		filters = append(filters, db.TagFilter{Field: k, Value: attrFilters[k]})
	}
	return filters
}

func parseResults(sr *db.SearchResult, tenant, listName string, ranked bool) []result.Result {
	if sr == nil || sr.Total == 0 {
		return nil
	}

	prefix := entryKeyPrefix(tenant, listName)
	results := make([]result.Result, 0, len(sr.Entries))
	for _, hit := range sr.Entries {
		id := strings.TrimPrefix(hit.Key, prefix)
		e := entryrepo.EntryFromHash(id, hit.Fields)
		results = append(results, result.New(e, hit.Score, ranked))
	}
	return results
}

func indexName(tenant, listName string) string {
	return fmt.Sprintf("%sidx:%s:%s", domain.KeyPrefix, tenant, listName)
}

func entryKeyPrefix(tenant, listName string) string {
	return fmt.Sprintf("%sentry:%s:%s:", domain.KeyPrefix, tenant, listName)
}
