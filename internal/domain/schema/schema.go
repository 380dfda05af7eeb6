package schema

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/dirsearch/internal/domain"
)

// Reserved attribute names that would collide with the entry's own fields
// or the internal index columns.
var reservedFieldNames = map[string]bool{
	"name": true, "tags": true, "contact_info": true, "id": true, "score": true,
}

// FieldSpec describes one searchable attribute field.
type FieldSpec struct {
	Type        string
	Description string
	Examples    []string
}

// SynonymMapping links lay vocabulary to the formal filter values the
// directory actually stores.
type SynonymMapping struct {
	LayTerms    []string
	FormalTerms []string
}

// Example is a worked example: a natural-language request and the search
// call that answers it.
type Example struct {
	UserQuery string
	ToolCall  string
}

// Strategy is the search guidance block of a schema definition.
type Strategy struct {
	Guidance        string
	SynonymMappings []SynonymMapping
	Examples        []Example
}

// Definition is a per-entry-type schema (immutable value object).
// Loaded once by the registry; never mutated by query traffic.
type Definition struct {
	entryType        string
	requiredFields   []string
	optionalFields   []string
	searchableFields map[string]FieldSpec
	tagsUsage        string
	strategy         Strategy
}

// New validates and creates a Definition.
func New(
	entryType string,
	required, optional []string,
	searchable map[string]FieldSpec,
	tagsUsage string,
	strategy Strategy,
) (Definition, error) {
	if !domain.IsValidIdentifier(entryType) {
		return Definition{}, fmt.Errorf("%w: invalid entry type %q", domain.ErrSchemaInvalid, entryType)
	}
	if len(required)+len(optional)+len(searchable) == 0 {
		return Definition{}, fmt.Errorf("%w: %s declares no fields", domain.ErrSchemaInvalid, entryType)
	}
	for _, name := range append(append([]string{}, required...), optional...) {
		if err := validateFieldName(name); err != nil {
			return Definition{}, fmt.Errorf("%w: %s: %w", domain.ErrSchemaInvalid, entryType, err)
		}
	}
	for name, spec := range searchable {
		if err := validateFieldName(name); err != nil {
			return Definition{}, fmt.Errorf("%w: %s: %w", domain.ErrSchemaInvalid, entryType, err)
		}
		if spec.Type == "" {
			return Definition{}, fmt.Errorf(
				"%w: %s: searchable field %q declares no type", domain.ErrSchemaInvalid, entryType, name)
		}
	}
	for i, m := range strategy.SynonymMappings {
		if len(m.FormalTerms) == 0 {
			return Definition{}, fmt.Errorf(
				"%w: %s: synonym mapping %d has no formal terms", domain.ErrSchemaInvalid, entryType, i)
		}
	}

	return Definition{
		entryType:        entryType,
		requiredFields:   required,
		optionalFields:   optional,
		searchableFields: searchable,
		tagsUsage:        tagsUsage,
		strategy:         strategy,
	}, nil
}

func validateFieldName(name string) error {
	if !domain.IsValidIdentifier(name) {
		return fmt.Errorf("invalid field name %q", name)
	}
	if reservedFieldNames[name] || strings.HasPrefix(name, "__") {
		return fmt.Errorf("field name %q is reserved", name)
	}
	return nil
}

// EntryType returns the entry type identifier.
func (d Definition) EntryType() string { return d.entryType }

// RequiredFields returns the attribute keys every entry must carry.
func (d Definition) RequiredFields() []string { return d.requiredFields }

// OptionalFields returns the attribute keys entries may carry.
func (d Definition) OptionalFields() []string { return d.optionalFields }

// SearchableFields returns the declared filterable fields and their metadata.
func (d Definition) SearchableFields() map[string]FieldSpec { return d.searchableFields }

// SearchableField looks up a searchable field by name.
func (d Definition) SearchableField(name string) (FieldSpec, bool) {
	spec, ok := d.searchableFields[name]
	return spec, ok
}

// TagsUsage returns the free-text description of the tag set semantics.
func (d Definition) TagsUsage() string { return d.tagsUsage }

// Strategy returns the search guidance block.
func (d Definition) Strategy() Strategy { return d.strategy }

// AllowsAttribute reports whether key is declared in the schema
// (required, optional, or searchable). Undeclared keys are rejected at
// import time, never silently dropped.
func (d Definition) AllowsAttribute(key string) bool {
	if _, ok := d.searchableFields[key]; ok {
		return true
	}
	for _, f := range d.requiredFields {
		if f == key {
			return true
		}
	}
	for _, f := range d.optionalFields {
		if f == key {
			return true
		}
	}
	return false
}
