package tracing

// Span attribute keys for store calls.
const (
	AttrKind      = "catalog.kind"
	AttrField     = "catalog.field"
	AttrQuery     = "catalog.query"
	AttrOffset    = "catalog.page.offset"
	AttrLimit     = "catalog.page.limit"
	AttrRows      = "catalog.rows"
	AttrSaved     = "catalog.saved"
	AttrConflicts = "catalog.conflicts"
	AttrRejected  = "catalog.rejected"
	AttrUnique    = "catalog.unique"
)

// SpanPrefixStore prefixes every store span name.
const SpanPrefixStore = "store."
