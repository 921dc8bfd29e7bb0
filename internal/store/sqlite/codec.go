package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/langarchive/catalog/internal/catalog"
)

const (
	idField      = "id"
	versionField = "updated_at"
)

// storedColumns returns the schema columns backed by a table column.
func storedColumns(s catalog.Schema) []catalog.Column {
	cols := make([]catalog.Column, 0, len(s.Columns))
	for _, c := range s.Columns {
		if c.Field != idField {
			cols = append(cols, c)
		}
	}
	return cols
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// selectList is "id, <fields...>, updated_at" for s.
func selectList(s catalog.Schema) string {
	parts := []string{idField}
	for _, c := range storedColumns(s) {
		parts = append(parts, quote(c.Field))
	}
	parts = append(parts, versionField)
	return strings.Join(parts, ", ")
}

// encode converts v into the SQL representation of col.
func encode(col catalog.Column, v catalog.Value) (any, error) {
	switch col.Type {
	case catalog.TypeText, catalog.TypeSingleChoice, catalog.TypeNumeric, catalog.TypeReadOnly:
		return catalog.Format(v), nil
	case catalog.TypeRelationship:
		if r, ok := v.(catalog.Ref); ok {
			return r.ID, nil
		}
		return nil, nil
	case catalog.TypeMultiRelationship:
		refs, _ := v.(catalog.RefList)
		ids := make([]int64, 0, len(refs))
		for _, r := range refs {
			ids = append(ids, r.ID)
		}
		b, err := json.Marshal(ids)
		return string(b), err
	case catalog.TypeTagList:
		tags, _ := v.(catalog.Tags)
		if tags == nil {
			tags = catalog.Tags{}
		}
		b, err := json.Marshal(tags)
		return string(b), err
	case catalog.TypeBoolean:
		if b, ok := v.(catalog.Bool); ok {
			if b {
				return int64(1), nil
			}
			return int64(0), nil
		}
		return nil, nil
	}
	return nil, fmt.Errorf("unsupported column type %s", col.Type)
}

// scanDest returns a scan destination suited to col.
func scanDest(col catalog.Column) any {
	switch col.Type {
	case catalog.TypeRelationship, catalog.TypeBoolean:
		return new(sql.NullInt64)
	}
	return new(sql.NullString)
}

// decode converts a scanned destination into a value. Relationship labels
// are filled in later by resolveLabels.
func decode(col catalog.Column, dest any) (catalog.Value, error) {
	switch col.Type {
	case catalog.TypeText, catalog.TypeSingleChoice, catalog.TypeReadOnly:
		return catalog.Text(dest.(*sql.NullString).String), nil
	case catalog.TypeNumeric:
		return catalog.Number(dest.(*sql.NullString).String), nil
	case catalog.TypeRelationship:
		n := dest.(*sql.NullInt64)
		if !n.Valid {
			return nil, nil
		}
		return catalog.Ref{ID: n.Int64}, nil
	case catalog.TypeMultiRelationship:
		var ids []int64
		if err := unmarshalList(dest.(*sql.NullString).String, &ids); err != nil {
			return nil, fmt.Errorf("decode %s: %w", col.Field, err)
		}
		refs := make(catalog.RefList, len(ids))
		for i, id := range ids {
			refs[i] = catalog.Ref{ID: id}
		}
		return refs, nil
	case catalog.TypeTagList:
		tags := catalog.Tags{}
		if err := unmarshalList(dest.(*sql.NullString).String, &tags); err != nil {
			return nil, fmt.Errorf("decode %s: %w", col.Field, err)
		}
		return tags, nil
	case catalog.TypeBoolean:
		n := dest.(*sql.NullInt64)
		if !n.Valid {
			return nil, nil
		}
		return catalog.Bool(n.Int64 != 0), nil
	}
	return nil, fmt.Errorf("unsupported column type %s", col.Type)
}

func unmarshalList(s string, out any) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return json.Unmarshal([]byte(s), out)
}

// scanRecord reads one row produced by selectList.
func scanRecord(s catalog.Schema, scanner interface{ Scan(...any) error }) (catalog.Record, error) {
	cols := storedColumns(s)
	var rec catalog.Record
	dests := make([]any, 0, len(cols)+2)
	dests = append(dests, &rec.ID)
	for _, c := range cols {
		dests = append(dests, scanDest(c))
	}
	dests = append(dests, &rec.Version)

	if err := scanner.Scan(dests...); err != nil {
		return catalog.Record{}, err
	}

	rec.Values = make(map[string]catalog.Value, len(cols)+1)
	rec.Values[idField] = catalog.Text(strconv.FormatInt(rec.ID, 10))
	for i, c := range cols {
		v, err := decode(c, dests[i+1])
		if err != nil {
			return catalog.Record{}, err
		}
		rec.Values[c.Field] = v
	}
	return rec, nil
}
