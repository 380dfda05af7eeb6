package guidance

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/dirsearch/internal/domain/schema"
)

// SchemaReader resolves schema definitions by entry type.
type SchemaReader interface {
	Get(entryType string) (schema.Definition, error)
}

// Service renders search guidance for schema entry types. The output is
// embedded into tool descriptions, so it must be deterministic for a given
// definition.
type Service struct {
	schemas SchemaReader
}

// New creates the guidance service.
func New(schemas SchemaReader) *Service {
	return &Service{schemas: schemas}
}

// For renders guidance for the given entry type.
func (s *Service) For(entryType string) (string, error) {
	def, err := s.schemas.Get(entryType)
	if err != nil {
		return "", err
	}
	return Generate(def), nil
}

// Generate renders the schema's search strategy as plain text: the authored
// guidance, searchable fields with examples, lay-to-formal term mappings and
// worked query examples. Map-backed sections are emitted in sorted key order.
func Generate(def schema.Definition) string {
	var b strings.Builder

	strategy := def.Strategy()
	if g := strings.TrimSpace(strategy.Guidance); g != "" {
		b.WriteString(g)
		b.WriteString("\n")
	}

	if usage := strings.TrimSpace(def.TagsUsage()); usage != "" {
		b.WriteString("\nTags: ")
		b.WriteString(usage)
		b.WriteString("\n")
	}

	writeFields(&b, def.SearchableFields())
	writeSynonyms(&b, strategy.SynonymMappings)
	writeExamples(&b, strategy.Examples)

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func writeFields(b *strings.Builder, fields map[string]schema.FieldSpec) {
	if len(fields) == 0 {
		return
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	b.WriteString("\nFilterable fields:\n")
	for _, name := range names {
		spec := fields[name]
		fmt.Fprintf(b, "- %s (%s)", name, spec.Type)
		if spec.Description != "" {
			fmt.Fprintf(b, ": %s", spec.Description)
		}
		if len(spec.Examples) > 0 {
			fmt.Fprintf(b, " (e.g. %s)", strings.Join(spec.Examples, ", "))
		}
		b.WriteString("\n")
	}
}

func writeSynonyms(b *strings.Builder, mappings []schema.SynonymMapping) {
	if len(mappings) == 0 {
		return
	}

	b.WriteString("\nTerm mappings (use the formal term when searching):\n")
	for _, m := range mappings {
		fmt.Fprintf(b, "- %s -> %s\n",
			strings.Join(m.LayTerms, ", "), strings.Join(m.FormalTerms, ", "))
	}
}

func writeExamples(b *strings.Builder, examples []schema.Example) {
	if len(examples) == 0 {
		return
	}

	b.WriteString("\nExamples:\n")
	for _, ex := range examples {
		fmt.Fprintf(b, "- User asks: %q -> call: %s\n", ex.UserQuery, ex.ToolCall)
	}
}
