package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/langarchive/catalog/internal/catalog"
	"github.com/langarchive/catalog/internal/store"
)

// Builder accumulates catalog records and inserts them in order through
// the store, so records may reference those added before them.
type Builder struct {
	t       *testing.T
	st      store.Store
	records []recordData
	ids     map[string]int64
}

// NewBuilder creates a builder saving through st.
func NewBuilder(t *testing.T, st store.Store) *Builder {
	t.Helper()
	return &Builder{t: t, st: st, ids: make(map[string]int64)}
}

func (b *Builder) add(kind, key string, values map[string]catalog.Value, opts []RecordOption) *Builder {
	r := recordData{kind: kind, key: key, values: values, refs: make(map[string][]string)}
	for _, opt := range opts {
		opt(&r)
	}
	b.records = append(b.records, r)
	return b
}

// WithLanguoid adds a languoid keyed by its glottocode.
func (b *Builder) WithLanguoid(glottocode, name string, opts ...RecordOption) *Builder {
	return b.add("languoids", glottocode, map[string]catalog.Value{
		"glottocode": catalog.Text(glottocode),
		"name":       catalog.Text(name),
		"level":      catalog.Text("language"),
	}, opts)
}

// WithCollaborator adds a collaborator keyed by its collaborator id.
func (b *Builder) WithCollaborator(collaboratorID, name string, opts ...RecordOption) *Builder {
	return b.add("collaborators", collaboratorID, map[string]catalog.Value{
		"collaborator_id": catalog.Text(collaboratorID),
		"name":            catalog.Text(name),
	}, opts)
}

// WithCollection adds a collection keyed by its abbreviation.
func (b *Builder) WithCollection(abbr, name string, opts ...RecordOption) *Builder {
	return b.add("collections", abbr, map[string]catalog.Value{
		"collection_abbr": catalog.Text(abbr),
		"name":            catalog.Text(name),
	}, opts)
}

// WithItem adds an item keyed by its catalog number.
func (b *Builder) WithItem(catalogNumber, title string, opts ...RecordOption) *Builder {
	return b.add("items", catalogNumber, map[string]catalog.Value{
		"catalog_number": catalog.Text(catalogNumber),
		"title":          catalog.Text(title),
	}, opts)
}

// Build saves every accumulated record and returns their ids by key.
func (b *Builder) Build() map[string]int64 {
	b.t.Helper()
	ctx := context.Background()
	for _, r := range b.records {
		schema, err := catalog.Lookup(r.kind)
		require.NoError(b.t, err)

		fields := make(map[string]catalog.Value, len(r.values)+len(r.refs))
		for f, v := range r.values {
			fields[f] = v
		}
		for f, keys := range r.refs {
			col, ok := schema.Column(f)
			require.True(b.t, ok, "unknown field %s.%s", r.kind, f)
			refs := make(catalog.RefList, len(keys))
			for i, k := range keys {
				id, ok := b.ids[k]
				require.True(b.t, ok, "reference to unknown key %q", k)
				refs[i] = catalog.Ref{ID: id}
			}
			if col.Type == catalog.TypeRelationship {
				fields[f] = refs[0]
			} else {
				fields[f] = refs
			}
		}

		resp, err := b.st.Save(ctx, r.kind, []store.SaveRow{{RowID: "draft-" + r.key, Fields: fields}})
		require.NoError(b.t, err)
		require.True(b.t, resp.Success, "save %s %s: %+v", r.kind, r.key, resp.Errors)
		require.Len(b.t, resp.Saved, 1)
		b.ids[r.key] = resp.Saved[0].ID
	}
	b.records = nil
	return b.ids
}

// ID returns the id of a built record.
func (b *Builder) ID(key string) int64 {
	b.t.Helper()
	id, ok := b.ids[key]
	require.True(b.t, ok, "unknown key %q", key)
	return id
}
