package list

import (
	"sort"

	"github.com/kailas-cloud/dirsearch/internal/db"
	"github.com/kailas-cloud/dirsearch/internal/domain/schema"
)

// Weights of the three text tiers. Name outranks tags outranks attribute
// text whenever the same term matches in different tiers.
const (
	nameWeight     = 5.0
	tagTextWeight  = 2.0
	attrTextWeight = 1.0
)

// buildIndex creates the FT index definition for a (tenant, list) pair from
// the schema's searchable fields. __tags is indexed twice: once as TAG for
// exact membership filters and once as TEXT so tag terms participate in
// scored matching at the middle weight.
func buildIndex(tenant, name string, searchable map[string]schema.FieldSpec) *db.IndexDefinition {
	def := &db.IndexDefinition{
		Name:     indexName(tenant, name),
		Prefixes: []string{entryKeyPrefix(tenant, name)},
		Fields: []db.IndexField{
			{Name: "__name", Alias: "name", Type: db.IndexFieldText, TextWeight: nameWeight},
			{Name: "__tags", Alias: "tags", Type: db.IndexFieldTag, TagSeparator: ",", TagCaseSensitive: true},
			{Name: "__tags", Alias: "tags_text", Type: db.IndexFieldText, TextWeight: tagTextWeight},
			{Name: "__attrs", Alias: "attrs", Type: db.IndexFieldText, TextWeight: attrTextWeight},
			{Name: "__seq", Alias: "seq", Type: db.IndexFieldNumeric, Sortable: true},
		},
	}

	names := make([]string, 0, len(searchable))
	for fieldName := range searchable {
		names = append(names, fieldName)
	}
	sort.Strings(names)

	for _, fieldName := range names {
		def.Fields = append(def.Fields, db.IndexField{
			Name:             fieldName,
			Type:             db.IndexFieldTag,
			TagCaseSensitive: true,
		})
	}

	return def
}
