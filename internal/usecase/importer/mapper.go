package importer

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/kailas-cloud/dirsearch/internal/domain"
	"github.com/kailas-cloud/dirsearch/internal/domain/entry"
)

// Mapper converts one raw source row into an entry draft. Field-level schema
// validation happens after mapping, so a mapper only shapes data.
type Mapper func(row map[string]string) (entry.Draft, error)

// GenericMapperName is the registry key of the built-in column mapper.
const GenericMapperName = "generic"

const contactPrefix = "contact_"

// MapperRegistry holds named mappers so transports can select one per import.
type MapperRegistry struct {
	mu      sync.RWMutex
	mappers map[string]Mapper
}

// NewMapperRegistry creates a registry preloaded with the generic mapper.
func NewMapperRegistry() *MapperRegistry {
	r := &MapperRegistry{mappers: map[string]Mapper{}}
	r.Register(GenericMapperName, GenericMapper)
	return r
}

// Register adds or replaces a named mapper.
func (r *MapperRegistry) Register(name string, m Mapper) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mappers[name] = m
}

// Get returns the mapper registered under name.
func (r *MapperRegistry) Get(name string) (Mapper, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.mappers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownMapper, name)
	}
	return m, nil
}

// Names returns the registered mapper names, sorted.
func (r *MapperRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.mappers))
	for name := range r.mappers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GenericMapper maps flat columns by convention: "name" is the entry name,
// "tags" is a comma-separated tag list, "contact_*" columns become contact
// info, and everything else becomes a typed attribute.
func GenericMapper(row map[string]string) (entry.Draft, error) {
	d := entry.Draft{
		ContactInfo: map[string]string{},
		Attributes:  map[string]string{},
	}

	for key, value := range row {
		value = strings.TrimSpace(value)
		switch {
		case key == "name":
			d.Name = value
		case key == "tags":
			d.Tags = splitTags(value)
		case strings.HasPrefix(key, contactPrefix):
			if value != "" {
				d.ContactInfo[strings.TrimPrefix(key, contactPrefix)] = value
			}
		default:
			if value != "" {
				d.Attributes[key] = value
			}
		}
	}

	if d.Name == "" {
		return entry.Draft{}, fmt.Errorf("row has no name column")
	}
	return d, nil
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}
