package search

import (
	"context"

	"github.com/kailas-cloud/dirsearch/internal/domain/list"
	"github.com/kailas-cloud/dirsearch/internal/domain/schema"
	"github.com/kailas-cloud/dirsearch/internal/domain/search/result"
)

// Repository runs queries against a list's search index.
type Repository interface {
	SearchText(
		ctx context.Context, tenant, listName, text, tag string,
		attrFilters map[string]string, topK int,
	) ([]result.Result, error)
	Browse(
		ctx context.Context, tenant, listName, tag string,
		attrFilters map[string]string, limit int,
	) ([]result.Result, error)
}

// ListReader resolves list metadata.
type ListReader interface {
	Get(ctx context.Context, tenant, name string) (list.List, error)
}

// SchemaReader resolves schema definitions by entry type.
type SchemaReader interface {
	Get(entryType string) (schema.Definition, error)
}

// Metrics records search outcomes.
type Metrics interface {
	SearchPerformed(mode string)
	SearchFellBack()
}
