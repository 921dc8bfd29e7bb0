package catalog

// Record is one persisted row as returned by the external store.
type Record struct {
	ID int64
	// Version is the store's opaque modification stamp, sent back on save so
	// the store can detect concurrent edits.
	Version int64
	// ClientID echoes the draft token for records created from draft rows.
	ClientID string
	Values   map[string]Value
}

// Value returns the value of field, or the empty value for col's type.
func (r Record) Value(col Column) Value {
	if v, ok := r.Values[col.Field]; ok {
		return v
	}
	return Empty(col.Type)
}
