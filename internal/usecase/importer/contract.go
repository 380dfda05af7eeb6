package importer

import (
	"context"

	"github.com/kailas-cloud/dirsearch/internal/domain/entry"
	"github.com/kailas-cloud/dirsearch/internal/domain/list"
	"github.com/kailas-cloud/dirsearch/internal/domain/schema"
)

// SchemaReader resolves schema definitions by entry type.
type SchemaReader interface {
	Get(entryType string) (schema.Definition, error)
}

// ListRepository reads list metadata and manages the list's search index.
type ListRepository interface {
	Get(ctx context.Context, tenant, name string) (list.List, error)
	EnsureIndex(ctx context.Context, tenant, name string, searchable map[string]schema.FieldSpec) error
}

// EntryRepository replaces a list's entries atomically.
type EntryRepository interface {
	ReplaceAll(ctx context.Context, l list.List, entries []entry.Entry) error
}

// Metrics records import outcomes.
type Metrics interface {
	ImportCompleted(status string, entries int)
}
