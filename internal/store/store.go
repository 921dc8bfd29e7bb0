// Package store defines the contracts between the batch editor and the
// external record store, plus tracing and caching decorators.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/langarchive/catalog/internal/catalog"
)

// ErrNotFound is returned when a record or kind does not exist.
var ErrNotFound = errors.New("not found")

// TransportError wraps failures talking to the store. When a call returns one,
// nothing was applied.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Page selects a slice of a result set.
type Page struct {
	Offset int
	Limit  int
}

// FetchResult is one page of records.
type FetchResult struct {
	Records []catalog.Record
	Total   int
}

// ProgressFunc reports bulk fetch progress.
type ProgressFunc func(loaded, total int)

// SaveRow is one row of a batch save request.
type SaveRow struct {
	// RowID is the client's row id, echoed in errors and as ClientID of
	// records created from drafts.
	RowID string
	// ID is the record id; zero for drafts.
	ID     int64
	Fields map[string]catalog.Value
	// Version is the remote version the client last saw; zero for drafts.
	Version int64
	// Originals holds the client's remembered original value of each field
	// in Fields. Drafts send none.
	Originals map[string]catalog.Value
}

// IsDraft reports whether the row creates a new record.
func (r SaveRow) IsDraft() bool { return r.ID == 0 }

// ErrorType classifies a per-row save error.
type ErrorType string

const (
	ErrorValidation ErrorType = "validation"
	ErrorConflict   ErrorType = "conflict"
)

// SaveError reports why a row, or some of its fields, were not saved.
type SaveError struct {
	Type              ErrorType
	RowID             string
	Field             string
	ConflictingFields []string
	// CurrentData is the record as stored after the request was applied.
	CurrentData *catalog.Record
	Message     string
}

// SaveResponse is the outcome of a batch save. Success is true only when
// every row saved without errors.
type SaveResponse struct {
	Success bool
	Saved   []catalog.Record
	Errors  []SaveError
}

// Store is the external record store.
type Store interface {
	Fetch(ctx context.Context, kind string, page Page) (FetchResult, error)
	FetchAll(ctx context.Context, kind string, progress ProgressFunc) ([]catalog.Record, error)
	// CheckUnique reports whether no record other than excludeID has value
	// in field.
	CheckUnique(ctx context.Context, kind, field string, value catalog.Value, excludeID int64) (bool, error)
	Search(ctx context.Context, kind, query string, page Page) ([]catalog.Ref, error)
	// Resolve returns the current references for ids. Unknown ids are absent.
	Resolve(ctx context.Context, kind string, ids []int64) (map[int64]catalog.Ref, error)
	Save(ctx context.Context, kind string, rows []SaveRow) (SaveResponse, error)
}
