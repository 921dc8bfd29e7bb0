package catalog

import (
	"fmt"
	"slices"
	"sort"
)

// Column describes one editable field of a record kind.
type Column struct {
	Field    string
	Title    string
	Type     CellType
	Options  []string // single-choice values
	Target   string   // kind referenced by relationship columns
	Unique   bool
	Required bool
	Width    int
}

// Schema describes the columns of one record kind.
type Schema struct {
	Kind       string
	Title      string
	LabelField string // field used as the label when other kinds reference this one
	Columns    []Column
}

// Column returns the column for field.
func (s Schema) Column(field string) (Column, bool) {
	if i := s.Index(field); i >= 0 {
		return s.Columns[i], true
	}
	return Column{}, false
}

// Index returns the position of field, or -1.
func (s Schema) Index(field string) int {
	return slices.IndexFunc(s.Columns, func(c Column) bool { return c.Field == field })
}

// Fields returns the field names in column order.
func (s Schema) Fields() []string {
	fields := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		fields[i] = c.Field
	}
	return fields
}

var accessLevels = []string{"open", "restricted", "closed"}

var schemas = map[string]Schema{
	"items": {
		Kind:       "items",
		Title:      "Items",
		LabelField: "catalog_number",
		Columns: []Column{
			{Field: "id", Title: "ID", Type: TypeReadOnly, Width: 6},
			{Field: "catalog_number", Title: "Catalog #", Type: TypeText, Unique: true, Required: true, Width: 14},
			{Field: "title", Title: "Title", Type: TypeText, Required: true, Width: 28},
			{Field: "access_level", Title: "Access", Type: TypeSingleChoice, Options: accessLevels, Width: 10},
			{Field: "duration_minutes", Title: "Minutes", Type: TypeNumeric, Width: 8},
			{Field: "collection_id", Title: "Collection", Type: TypeRelationship, Target: "collections", Width: 16},
			{Field: "collector_id", Title: "Collector", Type: TypeRelationship, Target: "collaborators", Width: 18},
			{Field: "languages", Title: "Languages", Type: TypeMultiRelationship, Target: "languoids", Width: 24},
			{Field: "keywords", Title: "Keywords", Type: TypeTagList, Width: 20},
			{Field: "digitized", Title: "Digitized", Type: TypeBoolean, Width: 9},
		},
	},
	"collaborators": {
		Kind:       "collaborators",
		Title:      "Collaborators",
		LabelField: "name",
		Columns: []Column{
			{Field: "id", Title: "ID", Type: TypeReadOnly, Width: 6},
			{Field: "collaborator_id", Title: "Collaborator ID", Type: TypeText, Unique: true, Required: true, Width: 16},
			{Field: "name", Title: "Name", Type: TypeText, Required: true, Width: 24},
			{Field: "nickname", Title: "Nickname", Type: TypeText, Width: 14},
			{Field: "origin", Title: "Origin", Type: TypeText, Width: 16},
			{Field: "birth_year", Title: "Born", Type: TypeNumeric, Width: 6},
			{Field: "native_languages", Title: "Native languages", Type: TypeMultiRelationship, Target: "languoids", Width: 24},
			{Field: "roles", Title: "Roles", Type: TypeTagList, Width: 18},
			{Field: "anonymous", Title: "Anonymous", Type: TypeBoolean, Width: 9},
		},
	},
	"languoids": {
		Kind:       "languoids",
		Title:      "Languoids",
		LabelField: "name",
		Columns: []Column{
			{Field: "id", Title: "ID", Type: TypeReadOnly, Width: 6},
			{Field: "glottocode", Title: "Glottocode", Type: TypeText, Unique: true, Required: true, Width: 10},
			{Field: "name", Title: "Name", Type: TypeText, Required: true, Width: 22},
			{Field: "level", Title: "Level", Type: TypeSingleChoice, Options: []string{"family", "language", "dialect"}, Width: 9},
			{Field: "iso_code", Title: "ISO 639-3", Type: TypeText, Width: 9},
			{Field: "parent_id", Title: "Parent", Type: TypeRelationship, Target: "languoids", Width: 18},
			{Field: "region", Title: "Region", Type: TypeText, Width: 16},
			{Field: "alt_names", Title: "Alternate names", Type: TypeTagList, Width: 24},
		},
	},
	"collections": {
		Kind:       "collections",
		Title:      "Collections",
		LabelField: "name",
		Columns: []Column{
			{Field: "id", Title: "ID", Type: TypeReadOnly, Width: 6},
			{Field: "collection_abbr", Title: "Abbreviation", Type: TypeText, Unique: true, Required: true, Width: 12},
			{Field: "name", Title: "Name", Type: TypeText, Required: true, Width: 28},
			{Field: "collector_id", Title: "Collector", Type: TypeRelationship, Target: "collaborators", Width: 18},
			{Field: "languages", Title: "Languages", Type: TypeMultiRelationship, Target: "languoids", Width: 24},
			{Field: "access_level", Title: "Access", Type: TypeSingleChoice, Options: accessLevels, Width: 10},
			{Field: "keywords", Title: "Keywords", Type: TypeTagList, Width: 20},
			{Field: "extent", Title: "Extent", Type: TypeText, Width: 12},
		},
	},
}

// Lookup returns the schema for kind.
func Lookup(kind string) (Schema, error) {
	s, ok := schemas[kind]
	if !ok {
		return Schema{}, fmt.Errorf("unknown record kind %q (want one of %v)", kind, Kinds())
	}
	return s, nil
}

// Kinds returns the known record kinds in sorted order.
func Kinds() []string {
	kinds := make([]string, 0, len(schemas))
	for k := range schemas {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
