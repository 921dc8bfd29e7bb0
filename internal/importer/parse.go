package importer

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/langarchive/catalog/internal/catalog"
	"github.com/langarchive/catalog/internal/log"
	"github.com/langarchive/catalog/internal/store"
)

// Resolver looks up referenced records.
type Resolver interface {
	Resolve(ctx context.Context, kind string, ids []int64) (map[int64]catalog.Ref, error)
	Search(ctx context.Context, kind, query string, page store.Page) ([]catalog.Ref, error)
}

// RowError reports why one imported row was rejected.
type RowError struct {
	Line    int
	Field   string
	Message string
}

func (e *RowError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("line %d: %s: %s", e.Line, e.Field, e.Message)
}

// Row is one successfully parsed row. ID is zero when the file gave none.
type Row struct {
	Line   int
	ID     int64
	Values map[string]catalog.Value
}

// Result is a parsed file.
type Result struct {
	Kind string
	// Fields lists the matched columns in file order.
	Fields []string
	// Ignored lists headers that matched no column.
	Ignored []string
	Rows    []Row
	Errors  []*RowError
}

// Options controls Load.
type Options struct {
	// XLSX enables workbook import.
	XLSX bool
}

// Load reads, parses and resolves the file at path.
func Load(ctx context.Context, path string, schema catalog.Schema, resolver Resolver, opts Options) (Result, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return Result{}, err
	}
	if format == FormatXLSX && !opts.XLSX {
		return Result{}, fmt.Errorf("%w: xlsx import is disabled", ErrUnsupportedFormat)
	}
	f, err := os.Open(path) //nolint:gosec // G304: path is the user-chosen import file
	if err != nil {
		return Result{}, err
	}
	defer func() { _ = f.Close() }()
	return LoadReader(ctx, f, format, schema, resolver)
}

// LoadReader is Load for an open reader.
func LoadReader(ctx context.Context, r io.Reader, format Format, schema catalog.Schema, resolver Resolver) (Result, error) {
	table, err := ReadTable(r, format)
	if err != nil {
		return Result{}, err
	}
	res, err := Parse(ctx, schema, table, resolver)
	if err != nil {
		return Result{}, err
	}
	log.Info(log.CatImport, "parsed import",
		"kind", schema.Kind, "format", format.String(), "rows", len(res.Rows), "errors", len(res.Errors))
	return res, nil
}

// Parse converts a table into typed rows. Headers match a column's field
// name or title, ignoring case. Rows with unparseable cells are reported as
// RowErrors and left out; the rest are returned. Only a failing resolver
// aborts the parse.
func Parse(ctx context.Context, schema catalog.Schema, table Table, resolver Resolver) (Result, error) {
	res := Result{Kind: schema.Kind}
	cols := make([]*catalog.Column, len(table.Header))
	idCol := -1
	for i, h := range table.Header {
		col, ok := matchHeader(schema, h)
		switch {
		case !ok:
			if h != "" {
				res.Ignored = append(res.Ignored, h)
			}
			continue
		case col.Field == "id":
			idCol = i
			continue
		case col.Type == catalog.TypeReadOnly:
			res.Ignored = append(res.Ignored, h)
			continue
		}
		cols[i] = &col
		res.Fields = append(res.Fields, col.Field)
	}
	if len(res.Fields) == 0 {
		return res, fmt.Errorf("no column of %s matches the file header", schema.Kind)
	}

	rs := newRefResolver(ctx, resolver)
	for n, raw := range table.Rows {
		line := table.Line[n]
		row := Row{Line: line, Values: make(map[string]catalog.Value)}
		var rowErrs []*RowError

		if idCol >= 0 && idCol < len(raw) {
			if text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw[idCol]), "#")); text != "" {
				id, err := strconv.ParseInt(text, 10, 64)
				if err != nil || id <= 0 {
					rowErrs = append(rowErrs, &RowError{Line: line, Field: "id", Message: fmt.Sprintf("%q is not a record id", raw[idCol])})
				}
				row.ID = id
			}
		}

		for i, col := range cols {
			if col == nil {
				continue
			}
			text := ""
			if i < len(raw) {
				text = raw[i]
			}
			v, err := parseCell(rs, *col, text)
			if err != nil {
				if rs.err != nil {
					return res, rs.err
				}
				rowErrs = append(rowErrs, &RowError{Line: line, Field: col.Field, Message: err.Error()})
				continue
			}
			if err := catalog.Check(*col, v); err != nil {
				rowErrs = append(rowErrs, &RowError{Line: line, Field: col.Field, Message: checkMessage(err)})
				continue
			}
			row.Values[col.Field] = v
		}

		if len(rowErrs) > 0 {
			res.Errors = append(res.Errors, rowErrs...)
			continue
		}
		res.Rows = append(res.Rows, row)
	}
	return res, nil
}

func checkMessage(err error) string {
	if ve, ok := err.(*catalog.ValidationError); ok {
		return ve.Message
	}
	return err.Error()
}

func matchHeader(schema catalog.Schema, h string) (catalog.Column, bool) {
	h = strings.TrimSpace(h)
	for _, col := range schema.Columns {
		if strings.EqualFold(col.Field, h) || strings.EqualFold(col.Title, h) {
			return col, true
		}
	}
	return catalog.Column{}, false
}

func parseCell(rs *refResolver, col catalog.Column, text string) (catalog.Value, error) {
	text = strings.TrimSpace(text)
	switch col.Type {
	case catalog.TypeText, catalog.TypeNumeric, catalog.TypeSingleChoice, catalog.TypeTagList:
		return catalog.Parse(col, text), nil
	case catalog.TypeBoolean:
		v, ok := catalog.ParseBool(text)
		if !ok {
			return nil, fmt.Errorf("%q is not yes or no", text)
		}
		return v, nil
	case catalog.TypeRelationship:
		if text == "" {
			return nil, nil
		}
		return rs.lookup(col.Target, text)
	case catalog.TypeMultiRelationship:
		refs := catalog.RefList{}
		for _, part := range catalog.SplitTags(text) {
			ref, err := rs.lookup(col.Target, part)
			if err != nil {
				return nil, err
			}
			refs = append(refs, ref)
		}
		return refs, nil
	case catalog.TypeReadOnly:
		return nil, fmt.Errorf("column is read-only")
	}
	return nil, fmt.Errorf("unsupported column type %s", col.Type)
}
