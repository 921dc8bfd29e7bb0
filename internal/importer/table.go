// Package importer reads spreadsheet files into the working set: it parses
// delimited and XLSX tables, resolves relationship cells against the store,
// partitions rows against the current sheet and merges them as one edit.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/langarchive/catalog/internal/clipcodec"
)

// Format is a supported file format.
type Format int

const (
	FormatCSV Format = iota
	FormatTSV
	FormatXLSX
)

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatTSV:
		return "tsv"
	case FormatXLSX:
		return "xlsx"
	}
	return "unknown"
}

// ErrUnsupportedFormat is returned for files with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported import format")

// DetectFormat picks the format from the file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".tsv", ".tab", ".txt":
		return FormatTSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
}

// Table is a raw imported table. Line holds the 1-based source line (or
// sheet row) of each data row.
type Table struct {
	Header []string
	Rows   [][]string
	Line   []int
}

// ReadTable reads a whole table. Fully blank rows are dropped.
func ReadTable(r io.Reader, format Format) (Table, error) {
	var grid [][]string
	var err error
	switch format {
	case FormatCSV:
		grid, err = readCSV(r)
	case FormatTSV:
		var b []byte
		b, err = io.ReadAll(r)
		grid = clipcodec.ParseGrid(string(b))
	case FormatXLSX:
		grid, err = readXLSX(r)
	default:
		err = fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return Table{}, err
	}
	if len(grid) == 0 {
		return Table{}, errors.New("file has no header row")
	}

	t := Table{Header: trimAll(grid[0])}
	for i, row := range grid[1:] {
		if blank(row) {
			continue
		}
		t.Rows = append(t.Rows, row)
		t.Line = append(t.Line, i+2)
	}
	return t, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	grid, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	return grid, nil
}

// readXLSX reads the first worksheet.
func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func trimAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = strings.TrimSpace(strings.TrimPrefix(s, "\ufeff"))
	}
	return out
}

func blank(row []string) bool {
	for _, s := range row {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}
	return true
}
