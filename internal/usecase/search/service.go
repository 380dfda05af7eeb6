package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/dirsearch/internal/domain"
	"github.com/kailas-cloud/dirsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/dirsearch/internal/domain/search/query"
	"github.com/kailas-cloud/dirsearch/internal/domain/search/result"
)

// DefaultMaxScan bounds how many entries a substring or exact search pulls
// from the index before filtering in-process.
const DefaultMaxScan = 1000

// Service answers directory queries. Full-text queries that the index cannot
// parse fall back to substring matching instead of erroring.
type Service struct {
	repo    Repository
	lists   ListReader
	schemas SchemaReader
	metrics Metrics
	maxScan int
	logger  *zap.Logger
}

// New creates the search service.
func New(
	repo Repository,
	lists ListReader,
	schemas SchemaReader,
	metrics Metrics,
	maxScan int,
	logger *zap.Logger,
) *Service {
	if maxScan <= 0 {
		maxScan = DefaultMaxScan
	}
	return &Service{
		repo:    repo,
		lists:   lists,
		schemas: schemas,
		metrics: metrics,
		maxScan: maxScan,
		logger:  logger,
	}
}

// Search resolves the list, validates filter keys against its schema and
// dispatches on the query mode. An empty query text lists entries in
// insertion order. The result slice is never longer than q.MaxResults().
func (s *Service) Search(
	ctx context.Context, tenant, listName string, q query.Query,
) ([]result.Result, error) {
	l, err := s.lists.Get(ctx, tenant, listName)
	if err != nil {
		return nil, fmt.Errorf("resolve list: %w", err)
	}

	def, err := s.schemas.Get(l.EntryType())
	if err != nil {
		return nil, fmt.Errorf("resolve schema for %q: %w", l.EntryType(), err)
	}

	keys := make([]string, 0, len(q.Filters()))
	for k := range q.Filters() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, ok := def.SearchableField(k); !ok {
			return nil, &domain.UnknownFilterFieldError{Field: k}
		}
	}

	s.metrics.SearchPerformed(string(q.Mode()))

	results, err := s.dispatch(ctx, tenant, listName, q)
	if err != nil {
		return nil, err
	}

	results = postFilter(results, q)
	if len(results) > q.MaxResults() {
		results = results[:q.MaxResults()]
	}
	return results, nil
}

func (s *Service) dispatch(
	ctx context.Context, tenant, listName string, q query.Query,
) ([]result.Result, error) {
	if q.Mode() == mode.FTS && q.HasText() {
		results, err := s.repo.SearchText(
			ctx, tenant, listName, q.Text(), q.Tag(), q.Filters(), q.MaxResults())
		if err == nil {
			return results, nil
		}
		if !errors.Is(err, domain.ErrQueryParse) {
			return nil, err
		}

		s.logger.Warn("query not parsable, falling back to substring",
			zap.String("tenant", tenant),
			zap.String("list", listName),
			zap.Error(err),
		)
		s.metrics.SearchFellBack()
	}

	return s.repo.Browse(ctx, tenant, listName, q.Tag(), q.Filters(), s.maxScan)
}

// postFilter applies the match conditions that the index query cannot
// guarantee: name matching for substring and exact modes, and literal tag
// and attribute equality (TAG tokenization may split on separators inside
// stored values).
func postFilter(results []result.Result, q query.Query) []result.Result {
	kept := results[:0]
	for i := range results {
		r := &results[i]
		e := r.Entry()

		if q.Tag() != "" && !e.HasTag(q.Tag()) {
			continue
		}
		if !matchFilters(e.Attributes(), q.Filters()) {
			continue
		}
		if !r.Ranked() && q.HasText() && !matchName(e.Name(), q.Text(), q.Mode()) {
			continue
		}
		kept = append(kept, *r)
	}
	return kept
}

func matchFilters(attrs, filters map[string]string) bool {
	for k, v := range filters {
		if attrs[k] != v {
			return false
		}
	}
	return true
}

func matchName(name, text string, m mode.Mode) bool {
	if m == mode.Exact {
		return name == text
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(text))
}
