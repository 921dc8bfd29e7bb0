package testutil

import "github.com/langarchive/catalog/internal/catalog"

// recordData holds a record to be inserted and the builder keys it
// references.
type recordData struct {
	kind   string
	key    string
	values map[string]catalog.Value
	refs   map[string][]string
}

// RecordOption configures a record during builder setup.
type RecordOption func(*recordData)

// Set assigns a field value.
func Set(field string, v catalog.Value) RecordOption {
	return func(r *recordData) { r.values[field] = v }
}

// Text assigns a text field.
func Text(field, s string) RecordOption {
	return Set(field, catalog.Text(s))
}

// Tags assigns a tag-list field.
func Tags(field string, tags ...string) RecordOption {
	return Set(field, catalog.Tags(tags))
}

// Bool assigns a boolean field.
func Bool(field string, b bool) RecordOption {
	return Set(field, catalog.Bool(b))
}

// RefTo points field at records added earlier under keys. Relationship
// columns take the first key.
func RefTo(field string, keys ...string) RecordOption {
	return func(r *recordData) { r.refs[field] = keys }
}
