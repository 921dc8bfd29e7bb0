// Package reconcile builds batch save requests from the working set and
// merges the store's answer back into it, one field at a time.
package reconcile

import "github.com/langarchive/catalog/internal/catalog"

// Decision is the outcome of merging one field.
type Decision int

const (
	// AcceptUser keeps the submitted value as the new baseline.
	AcceptUser Decision = iota
	// AcceptServer adopts the server's current value.
	AcceptServer
	// FlagConflict keeps the pending value and marks the cell conflicted.
	FlagConflict
)

func (d Decision) String() string {
	switch d {
	case AcceptUser:
		return "accept-user"
	case AcceptServer:
		return "accept-server"
	case FlagConflict:
		return "flag-conflict"
	}
	return "unknown"
}

// Field is the three-way merge input for one field of a saved row.
type Field struct {
	Type catalog.CellType
	// Submitted is set when the field was part of the request.
	Submitted bool
	// Conflicting is set when the store named the field as colliding with
	// an external change.
	Conflicting bool
	Pending     catalog.Value
	Server      catalog.Value
	// HasServer is false when the store returned no current record.
	HasServer bool
}

// MergeField decides one field. Fields the user did not submit follow the
// server. Submitted fields are accepted unless the store flagged them and the
// server now holds something other than what the user submitted.
func MergeField(f Field) Decision {
	switch {
	case !f.Submitted:
		return AcceptServer
	case !f.Conflicting:
		return AcceptUser
	case f.HasServer && catalog.Equal(f.Type, f.Pending, f.Server):
		return AcceptUser
	default:
		return FlagConflict
	}
}
