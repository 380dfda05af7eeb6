package list

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/dirsearch/internal/domain"
)

// List is the directory list aggregate (immutable value object).
// A list is identified by (tenant, name), carries the entry type that binds it
// to a schema definition, and is only ever replaced wholesale by the importer.
type List struct {
	tenant      string
	name        string
	entryType   string
	description string
	entryCount  int
	importedAt  int64
	revision    int
}

// New validates and creates a List for a fresh import.
// Tenant, name and entry type: [a-zA-Z0-9_-]+, 1-64 chars.
func New(tenant, name, entryType, description string, entryCount, revision int) (List, error) {
	if !domain.IsValidIdentifier(tenant) {
		return List{}, fmt.Errorf("invalid tenant id %q", tenant)
	}
	if !domain.IsValidIdentifier(name) {
		return List{}, fmt.Errorf("invalid list name %q", name)
	}
	if !domain.IsValidIdentifier(entryType) {
		return List{}, fmt.Errorf("invalid entry type %q", entryType)
	}
	if entryCount < 0 {
		return List{}, fmt.Errorf("negative entry count")
	}
	if revision < 1 {
		revision = 1
	}

	return List{
		tenant:      tenant,
		name:        name,
		entryType:   entryType,
		description: description,
		entryCount:  entryCount,
		importedAt:  time.Now().UnixMilli(),
		revision:    revision,
	}, nil
}

// Reconstruct creates a List without validation (storage hydration).
func Reconstruct(
	tenant, name, entryType, description string,
	entryCount int, importedAt int64, revision int,
) List {
	return List{
		tenant:      tenant,
		name:        name,
		entryType:   entryType,
		description: description,
		entryCount:  entryCount,
		importedAt:  importedAt,
		revision:    revision,
	}
}

// Tenant returns the owning tenant id.
func (l List) Tenant() string { return l.tenant }

// Name returns the list name, unique within the tenant.
func (l List) Name() string { return l.name }

// EntryType returns the entry type referencing a schema definition.
func (l List) EntryType() string { return l.entryType }

// Description returns the human description.
func (l List) Description() string { return l.description }

// EntryCount returns the entry count of the most recent successful import.
func (l List) EntryCount() int { return l.entryCount }

// ImportedAt returns the last import timestamp (unix millis).
func (l List) ImportedAt() int64 { return l.importedAt }

// Revision counts successful imports of this list.
func (l List) Revision() int { return l.revision }
