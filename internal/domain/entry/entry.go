package entry

import (
	"fmt"
	"sort"
	"strings"
)

// Draft is the mapper output for one source row, before schema validation.
type Draft struct {
	Name        string
	Tags        []string
	ContactInfo map[string]string
	Attributes  map[string]string
}

// Entry is one record within a directory list (immutable value object).
// Attributes hold schema-validated open key/value pairs; contact info is
// carried through to output but never searched.
type Entry struct {
	id          string
	name        string
	tags        []string
	contactInfo map[string]string
	attributes  map[string]string
	seq         int
}

// New validates and creates an Entry from a mapped draft.
// Tags are trimmed and de-duplicated preserving first occurrence.
func New(id string, seq int, d Draft) (Entry, error) {
	if id == "" {
		return Entry{}, fmt.Errorf("entry id is required")
	}
	if strings.TrimSpace(d.Name) == "" {
		return Entry{}, fmt.Errorf("entry name is required")
	}
	if seq < 0 {
		return Entry{}, fmt.Errorf("negative sequence number")
	}

	return Entry{
		id:          id,
		name:        strings.TrimSpace(d.Name),
		tags:        normalizeTags(d.Tags),
		contactInfo: copyMap(d.ContactInfo),
		attributes:  copyMap(d.Attributes),
		seq:         seq,
	}, nil
}

// Reconstruct creates an Entry without validation (storage hydration).
func Reconstruct(id, name string, tags []string, contactInfo, attributes map[string]string, seq int) Entry {
	return Entry{
		id:          id,
		name:        name,
		tags:        tags,
		contactInfo: contactInfo,
		attributes:  attributes,
		seq:         seq,
	}
}

// ID returns the entry identifier.
func (e Entry) ID() string { return e.id }

// Name returns the entry name.
func (e Entry) Name() string { return e.name }

// Tags returns the tag set in insertion order.
func (e Entry) Tags() []string { return e.tags }

// HasTag reports whether the entry's tag set contains tag.
func (e Entry) HasTag(tag string) bool {
	for _, t := range e.tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ContactInfo returns the flat contact map.
func (e Entry) ContactInfo() map[string]string { return e.contactInfo }

// Attributes returns the schema-validated open attribute map.
func (e Entry) Attributes() map[string]string { return e.attributes }

// Seq returns the insertion order within the import.
func (e Entry) Seq() int { return e.seq }

// AttributeText returns the textual serialization of the attributes,
// key-sorted for determinism. This is the lowest-weight search tier.
func (e Entry) AttributeText() string {
	if len(e.attributes) == 0 {
		return ""
	}
	keys := make([]string, 0, len(e.attributes))
	for k := range e.attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, e.attributes[k])
	}
	return strings.Join(parts, " ")
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func copyMap(m map[string]string) map[string]string {
	if len(m) == 0 {
		return map[string]string{}
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
