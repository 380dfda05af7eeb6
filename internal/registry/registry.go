package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/dirsearch/internal/domain"
	"github.com/kailas-cloud/dirsearch/internal/domain/schema"
)

// Registry loads, validates, and serves per-entry-type schema definitions.
// Definitions are immutable once loaded; Reload swaps the whole set
// atomically and is the only refresh path (operator action, never query
// traffic). Construct one per environment and inject it; there is no
// package-level instance.
type Registry struct {
	path   string
	logger *zap.Logger

	mu   sync.RWMutex
	defs map[string]schema.Definition
}

// New creates a Registry reading definitions from the given YAML file.
// Call Load before first use.
func New(path string, logger *zap.Logger) *Registry {
	return &Registry{path: path, logger: logger, defs: map[string]schema.Definition{}}
}

// Load reads and validates the schema file, replacing all definitions.
// Structural problems are fatal; the advisory formal-term cross-check only
// logs, since formal values are open-ended text.
func (r *Registry) Load() error {
	data, err := os.ReadFile(filepath.Clean(r.path))
	if err != nil {
		return fmt.Errorf("read schema file %s: %w", r.path, err)
	}

	var docs map[string]definitionDoc
	if err := yaml.Unmarshal(data, &docs); err != nil {
		return fmt.Errorf("%w: parse %s: %w", domain.ErrSchemaInvalid, r.path, err)
	}
	if len(docs) == 0 {
		return fmt.Errorf("%w: %s declares no entry types", domain.ErrSchemaInvalid, r.path)
	}

	defs := make(map[string]schema.Definition, len(docs))
	for entryType, doc := range docs {
		def, err := doc.toDefinition(entryType)
		if err != nil {
			return err
		}
		r.crossCheckFormalTerms(def)
		defs[entryType] = def
	}

	r.mu.Lock()
	r.defs = defs
	r.mu.Unlock()

	r.logger.Info("schema definitions loaded",
		zap.String("path", r.path),
		zap.Int("entry_types", len(defs)),
	)
	return nil
}

// Reload re-reads the schema file (explicit operator action).
func (r *Registry) Reload() error { return r.Load() }

// Get returns the definition for entryType.
func (r *Registry) Get(entryType string) (schema.Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[entryType]
	if !ok {
		return schema.Definition{}, fmt.Errorf("%w: %q", domain.ErrSchemaNotFound, entryType)
	}
	return def, nil
}

// SearchableFields returns the field metadata for entryType.
func (r *Registry) SearchableFields(entryType string) (map[string]schema.FieldSpec, error) {
	def, err := r.Get(entryType)
	if err != nil {
		return nil, err
	}
	return def.SearchableFields(), nil
}

// Guidance returns the search strategy block for entryType.
func (r *Registry) Guidance(entryType string) (schema.Strategy, error) {
	def, err := r.Get(entryType)
	if err != nil {
		return schema.Strategy{}, err
	}
	return def.Strategy(), nil
}

// Types returns the loaded entry types, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.defs))
	for t := range r.defs {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// crossCheckFormalTerms warns about formal terms that match no declared
// searchable field example. Advisory only: formal values are open-ended.
func (r *Registry) crossCheckFormalTerms(def schema.Definition) {
	known := make(map[string]bool)
	for _, spec := range def.SearchableFields() {
		for _, ex := range spec.Examples {
			known[strings.ToLower(ex)] = true
		}
	}
	if len(known) == 0 {
		return
	}
	for _, m := range def.Strategy().SynonymMappings {
		for _, term := range m.FormalTerms {
			if !known[strings.ToLower(term)] {
				r.logger.Warn("formal term matches no searchable field example",
					zap.String("entry_type", def.EntryType()),
					zap.String("formal_term", term),
				)
			}
		}
	}
}

// --- YAML document shapes (external schema file interface) ---

type fieldSpecDoc struct {
	Type        string   `yaml:"type"`
	Description string   `yaml:"description"`
	Examples    []string `yaml:"examples"`
}

type synonymMappingDoc struct {
	LayTerms    []string `yaml:"lay_terms"`
	FormalTerms []string `yaml:"formal_terms"`
}

type exampleDoc struct {
	UserQuery string `yaml:"user_query"`
	ToolCalls string `yaml:"tool_calls"`
}

type strategyDoc struct {
	Guidance        string              `yaml:"guidance"`
	SynonymMappings []synonymMappingDoc `yaml:"synonym_mappings"`
	Examples        []exampleDoc        `yaml:"examples"`
}

type definitionDoc struct {
	RequiredFields   []string                `yaml:"required_fields"`
	OptionalFields   []string                `yaml:"optional_fields"`
	SearchableFields map[string]fieldSpecDoc `yaml:"searchable_fields"`
	TagsUsage        string                  `yaml:"tags_usage"`
	SearchStrategy   strategyDoc             `yaml:"search_strategy"`
}

func (doc definitionDoc) toDefinition(entryType string) (schema.Definition, error) {
	searchable := make(map[string]schema.FieldSpec, len(doc.SearchableFields))
	for name, f := range doc.SearchableFields {
		searchable[name] = schema.FieldSpec{
			Type:        f.Type,
			Description: f.Description,
			Examples:    f.Examples,
		}
	}

	mappings := make([]schema.SynonymMapping, 0, len(doc.SearchStrategy.SynonymMappings))
	for _, m := range doc.SearchStrategy.SynonymMappings {
		mappings = append(mappings, schema.SynonymMapping{
			LayTerms:    m.LayTerms,
			FormalTerms: m.FormalTerms,
		})
	}

	examples := make([]schema.Example, 0, len(doc.SearchStrategy.Examples))
	for _, e := range doc.SearchStrategy.Examples {
		examples = append(examples, schema.Example{
			UserQuery: e.UserQuery,
			ToolCall:  e.ToolCalls,
		})
	}

	return schema.New(
		entryType,
		doc.RequiredFields,
		doc.OptionalFields,
		searchable,
		doc.TagsUsage,
		schema.Strategy{
			Guidance:        doc.SearchStrategy.Guidance,
			SynonymMappings: mappings,
			Examples:        examples,
		},
	)
}
