package list

import (
	"fmt"
	"strconv"

	"github.com/kailas-cloud/dirsearch/internal/domain"
	domlist "github.com/kailas-cloud/dirsearch/internal/domain/list"
)

// ListToHash converts a domain List to a map for HSET. Exported for the
// entry repository, which writes the meta hash inside the replace
// transaction.
func ListToHash(l domlist.List) map[string]string {
	return map[string]string{
		"tenant":      l.Tenant(),
		"name":        l.Name(),
		"entry_type":  l.EntryType(),
		"description": l.Description(),
		"entry_count": strconv.Itoa(l.EntryCount()),
		"imported_at": strconv.FormatInt(l.ImportedAt(), 10),
		"revision":    strconv.Itoa(l.Revision()),
	}
}

// listFromHash hydrates a domain List from an HGETALL result map.
func listFromHash(m map[string]string) domlist.List {
	entryCount, _ := strconv.Atoi(m["entry_count"])
	importedAt, _ := strconv.ParseInt(m["imported_at"], 10, 64)

	revision := 1
	if revStr, ok := m["revision"]; ok && revStr != "" {
		if parsed, err := strconv.Atoi(revStr); err == nil {
			revision = parsed
		}
	}

	return domlist.Reconstruct(
		m["tenant"], m["name"], m["entry_type"], m["description"],
		entryCount, importedAt, revision,
	)
}

// MetaKey returns the list metadata key. Exported for the entry repository.
func MetaKey(tenant, name string) string { return metaKey(tenant, name) }

func metaKey(tenant, name string) string {
	return fmt.Sprintf("%slist:%s:%s", domain.KeyPrefix, tenant, name)
}

func indexName(tenant, name string) string {
	return fmt.Sprintf("%sidx:%s:%s", domain.KeyPrefix, tenant, name)
}

func entryKeyPrefix(tenant, name string) string {
	return fmt.Sprintf("%sentry:%s:%s:", domain.KeyPrefix, tenant, name)
}
