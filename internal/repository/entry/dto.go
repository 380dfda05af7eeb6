package entry

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/dirsearch/internal/domain"
	domentry "github.com/kailas-cloud/dirsearch/internal/domain/entry"
)

// Internal hash field names. Attribute names are schema-validated and may
// never start with "__", so the two namespaces cannot collide.
const (
	fieldName    = "__name"
	fieldTags    = "__tags"
	fieldContact = "__contact"
	fieldAttrs   = "__attrs"
	fieldSeq     = "__seq"
)

// entryToHash converts a domain Entry into a flat map for HSET. The __attrs
// field carries the attribute text tier; all indexed fields are written in
// the same HSET, so the index can never lag the stored entry.
func entryToHash(e domentry.Entry) map[string]string {
	m := make(map[string]string, 5+len(e.Attributes()))
	m[fieldName] = e.Name()
	m[fieldTags] = strings.Join(e.Tags(), ",")
	m[fieldAttrs] = e.AttributeText()
	m[fieldSeq] = strconv.Itoa(e.Seq())

	if len(e.ContactInfo()) > 0 {
		if data, err := json.Marshal(e.ContactInfo()); err == nil {
			m[fieldContact] = string(data)
		}
	}

	for k, v := range e.Attributes() {
		m[k] = v
	}
	return m
}

// EntryFromHash hydrates a domain Entry from a flat hash map. Exported for
// the search repository, which reads entries back out of FT.SEARCH replies.
func EntryFromHash(id string, m map[string]string) domentry.Entry {
	var name string
	var tags []string
	var seq int
	contact := map[string]string{}
	attributes := map[string]string{}

	for k, v := range m {
		switch k {
		case fieldName:
			name = v
		case fieldTags:
			if v != "" {
				tags = strings.Split(v, ",")
			}
		case fieldContact:
			_ = json.Unmarshal([]byte(v), &contact)
		case fieldAttrs:
			// derived tier, reconstructed from attributes on write
		case fieldSeq:
			seq, _ = strconv.Atoi(v)
		default:
			attributes[k] = v
		}
	}

	return domentry.Reconstruct(id, name, tags, contact, attributes, seq)
}

func entryKey(tenant, list, id string) string {
	return fmt.Sprintf("%sentry:%s:%s:%s", domain.KeyPrefix, tenant, list, id)
}

func entryKeyPrefix(tenant, list string) string {
	return fmt.Sprintf("%sentry:%s:%s:", domain.KeyPrefix, tenant, list)
}
