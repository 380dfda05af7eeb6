package entry

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/dirsearch/internal/db"
	domentry "github.com/kailas-cloud/dirsearch/internal/domain/entry"
	domlist "github.com/kailas-cloud/dirsearch/internal/domain/list"
	listrepo "github.com/kailas-cloud/dirsearch/internal/repository/list"
)

// store is the consumer interface for entry writes (ISP).
type store interface {
	Scan(ctx context.Context, pattern string) ([]string, error)
	ReplaceAll(ctx context.Context, delKeys []string, sets []db.HashSetItem) error
}

// Repo implements the delete-and-replace write path for directory entries.
// The importer is the sole writer for any (tenant, list), so the key scan
// ahead of the transaction cannot race another writer.
type Repo struct {
	store store
}

// New creates an entry repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// ReplaceAll atomically swaps the list's entire entry set and its metadata.
// A concurrent search observes either the previous entry set or the new one.
func (r *Repo) ReplaceAll(ctx context.Context, l domlist.List, entries []domentry.Entry) error {
	tenant, name := l.Tenant(), l.Name()

	oldKeys, err := r.store.Scan(ctx, entryKeyPrefix(tenant, name)+"*")
	if err != nil {
		return fmt.Errorf("scan entries %s/%s: %w", tenant, name, err)
	}

	// Delete the meta key too so no stale field survives the HSET.
	delKeys := append(oldKeys, listrepo.MetaKey(tenant, name))

	sets := make([]db.HashSetItem, 0, len(entries)+1)
	sets = append(sets, db.HashSetItem{
		Key:    listrepo.MetaKey(tenant, name),
		Fields: listrepo.ListToHash(l),
	})
	for i := range entries {
		sets = append(sets, db.HashSetItem{
			Key:    entryKey(tenant, name, entries[i].ID()),
			Fields: entryToHash(entries[i]),
		})
	}

	if err := r.store.ReplaceAll(ctx, delKeys, sets); err != nil {
		return fmt.Errorf("replace entries %s/%s: %w", tenant, name, err)
	}
	return nil
}
