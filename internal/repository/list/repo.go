package list

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/kailas-cloud/dirsearch/internal/db"
	"github.com/kailas-cloud/dirsearch/internal/domain"
	domlist "github.com/kailas-cloud/dirsearch/internal/domain/list"
	"github.com/kailas-cloud/dirsearch/internal/domain/schema"
)

// store is the consumer interface for list metadata (ISP).
type store interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	ReplaceAll(ctx context.Context, delKeys []string, sets []db.HashSetItem) error
}

// Repo implements list metadata reads and lifecycle operations.
// All keys are scoped by (tenant, list): there is no cross-tenant read path.
type Repo struct {
	store store
}

// New creates a list repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Get retrieves a list by (tenant, name).
func (r *Repo) Get(ctx context.Context, tenant, name string) (domlist.List, error) {
	m, err := r.store.HGetAll(ctx, metaKey(tenant, name))
	if err != nil {
		return domlist.List{}, fmt.Errorf("hgetall list %s/%s: %w", tenant, name, err)
	}
	if len(m) == 0 {
		return domlist.List{}, domain.ErrListNotFound
	}
	return listFromHash(m), nil
}

// List returns all lists of a tenant, sorted by name.
func (r *Repo) List(ctx context.Context, tenant string) ([]domlist.List, error) {
	keys, err := r.store.Scan(ctx, metaKey(tenant, "*"))
	if err != nil {
		return nil, fmt.Errorf("scan lists %s: %w", tenant, err)
	}
	if len(keys) == 0 {
		return []domlist.List{}, nil
	}

	results, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi lists %s: %w", tenant, err)
	}

	lists := make([]domlist.List, 0, len(results))
	for _, m := range results {
		if len(m) == 0 {
			continue
		}
		lists = append(lists, listFromHash(m))
	}

	sort.Slice(lists, func(i, j int) bool { return lists[i].Name() < lists[j].Name() })
	return lists, nil
}

// Delete removes a list, its entries, and its index in one transaction.
func (r *Repo) Delete(ctx context.Context, tenant, name string) error {
	if _, err := r.Get(ctx, tenant, name); err != nil {
		return err
	}

	entryKeys, err := r.store.Scan(ctx, entryKeyPrefix(tenant, name)+"*")
	if err != nil {
		return fmt.Errorf("scan entries %s/%s: %w", tenant, name, err)
	}

	delKeys := append(entryKeys, metaKey(tenant, name))
	if err := r.store.ReplaceAll(ctx, delKeys, nil); err != nil {
		return fmt.Errorf("delete list %s/%s: %w", tenant, name, err)
	}

	if err := r.store.DropIndex(ctx, indexName(tenant, name)); err != nil &&
		!errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index %s/%s: %w", tenant, name, err)
	}
	return nil
}

// EnsureIndex creates the (tenant, list)-scoped FT index from the schema's
// searchable fields if it does not exist yet. Schema definitions are
// immutable after load, so an existing index is never rebuilt here.
func (r *Repo) EnsureIndex(
	ctx context.Context, tenant, name string, searchable map[string]schema.FieldSpec,
) error {
	exists, err := r.store.IndexExists(ctx, indexName(tenant, name))
	if err != nil {
		return fmt.Errorf("probe index %s/%s: %w", tenant, name, err)
	}
	if exists {
		return nil
	}

	def := buildIndex(tenant, name, searchable)
	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s/%s: %w", tenant, name, err)
	}
	return nil
}
