package store

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/langarchive/catalog/internal/catalog"
	"github.com/langarchive/catalog/internal/tracing"
)

// Traced records a span around every store call.
type Traced struct {
	next   Store
	tracer trace.Tracer
}

var _ Store = (*Traced)(nil)

// NewTraced wraps next.
func NewTraced(next Store, tracer trace.Tracer) *Traced {
	return &Traced{next: next, tracer: tracer}
}

func (t *Traced) start(ctx context.Context, op, kind string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String(tracing.AttrKind, kind))
	return t.tracer.Start(ctx, tracing.SpanPrefixStore+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (t *Traced) Fetch(ctx context.Context, kind string, page Page) (res FetchResult, err error) {
	ctx, span := t.start(ctx, "Fetch", kind,
		attribute.Int(tracing.AttrOffset, page.Offset),
		attribute.Int(tracing.AttrLimit, page.Limit))
	defer func() { finish(span, err) }()

	res, err = t.next.Fetch(ctx, kind, page)
	span.SetAttributes(attribute.Int(tracing.AttrRows, len(res.Records)))
	return res, err
}

func (t *Traced) FetchAll(ctx context.Context, kind string, progress ProgressFunc) (recs []catalog.Record, err error) {
	ctx, span := t.start(ctx, "FetchAll", kind)
	defer func() { finish(span, err) }()

	recs, err = t.next.FetchAll(ctx, kind, progress)
	span.SetAttributes(attribute.Int(tracing.AttrRows, len(recs)))
	return recs, err
}

func (t *Traced) CheckUnique(ctx context.Context, kind, field string, value catalog.Value, excludeID int64) (unique bool, err error) {
	ctx, span := t.start(ctx, "CheckUnique", kind, attribute.String(tracing.AttrField, field))
	defer func() { finish(span, err) }()

	unique, err = t.next.CheckUnique(ctx, kind, field, value, excludeID)
	span.SetAttributes(attribute.Bool(tracing.AttrUnique, unique))
	return unique, err
}

func (t *Traced) Search(ctx context.Context, kind, query string, page Page) (refs []catalog.Ref, err error) {
	ctx, span := t.start(ctx, "Search", kind,
		attribute.String(tracing.AttrQuery, query),
		attribute.Int(tracing.AttrOffset, page.Offset),
		attribute.Int(tracing.AttrLimit, page.Limit))
	defer func() { finish(span, err) }()

	refs, err = t.next.Search(ctx, kind, query, page)
	span.SetAttributes(attribute.Int(tracing.AttrRows, len(refs)))
	return refs, err
}

func (t *Traced) Resolve(ctx context.Context, kind string, ids []int64) (refs map[int64]catalog.Ref, err error) {
	ctx, span := t.start(ctx, "Resolve", kind, attribute.Int(tracing.AttrRows, len(ids)))
	defer func() { finish(span, err) }()
	return t.next.Resolve(ctx, kind, ids)
}

func (t *Traced) Save(ctx context.Context, kind string, rows []SaveRow) (resp SaveResponse, err error) {
	ctx, span := t.start(ctx, "Save", kind, attribute.Int(tracing.AttrRows, len(rows)))
	defer func() { finish(span, err) }()

	resp, err = t.next.Save(ctx, kind, rows)
	conflicts, rejected := 0, 0
	for _, e := range resp.Errors {
		if e.Type == ErrorConflict {
			conflicts++
		} else {
			rejected++
		}
	}
	span.SetAttributes(
		attribute.Int(tracing.AttrSaved, len(resp.Saved)),
		attribute.Int(tracing.AttrConflicts, conflicts),
		attribute.Int(tracing.AttrRejected, rejected),
	)
	return resp, err
}
