package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/langarchive/catalog/internal/catalog"
)

type fakeStore struct {
	searches int
	saveErr  error
}

func (f *fakeStore) Fetch(context.Context, string, Page) (FetchResult, error) {
	return FetchResult{Records: []catalog.Record{{ID: 1}}, Total: 1}, nil
}

func (f *fakeStore) FetchAll(context.Context, string, ProgressFunc) ([]catalog.Record, error) {
	return nil, nil
}

func (f *fakeStore) CheckUnique(context.Context, string, string, catalog.Value, int64) (bool, error) {
	return false, nil
}

func (f *fakeStore) Search(_ context.Context, kind, query string, _ Page) ([]catalog.Ref, error) {
	f.searches++
	return []catalog.Ref{{ID: 1, Label: kind + ":" + query}}, nil
}

func (f *fakeStore) Resolve(context.Context, string, []int64) (map[int64]catalog.Ref, error) {
	return nil, nil
}

func (f *fakeStore) Save(_ context.Context, _ string, rows []SaveRow) (SaveResponse, error) {
	if f.saveErr != nil {
		return SaveResponse{}, f.saveErr
	}
	resp := SaveResponse{Success: true}
	for _, r := range rows {
		resp.Saved = append(resp.Saved, catalog.Record{ID: r.ID})
	}
	resp.Errors = []SaveError{{Type: ErrorConflict, RowID: "2"}}
	return resp, nil
}

func TestCachedSearch_CachesUntilSave(t *testing.T) {
	fake := &fakeStore{}
	s := NewCachedSearch(fake, time.Minute)
	ctx := context.Background()
	page := Page{Limit: 20}

	for i := 0; i < 3; i++ {
		refs, err := s.Search(ctx, "languoids", "Mix", page)
		require.NoError(t, err)
		require.Equal(t, "languoids:Mix", refs[0].Label)
	}
	_, err := s.Search(ctx, "languoids", " mix ", page)
	require.NoError(t, err)
	require.Equal(t, 1, fake.searches, "query normalized into one key")

	_, err = s.Search(ctx, "collaborators", "mix", page)
	require.NoError(t, err)
	require.Equal(t, 2, fake.searches)

	_, err = s.Save(ctx, "languoids", []SaveRow{{RowID: "1", ID: 1}})
	require.NoError(t, err)

	_, err = s.Search(ctx, "languoids", "mix", page)
	require.NoError(t, err)
	_, err = s.Search(ctx, "collaborators", "mix", page)
	require.NoError(t, err)
	require.Equal(t, 3, fake.searches, "only the saved kind is invalidated")
}

func TestCachedSearch_ZeroTTLDisablesCache(t *testing.T) {
	fake := &fakeStore{}
	s := NewCachedSearch(fake, 0)
	for i := 0; i < 2; i++ {
		_, err := s.Search(context.Background(), "languoids", "a", Page{})
		require.NoError(t, err)
	}
	require.Equal(t, 2, fake.searches)
}

func TestTraced_RecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	fake := &fakeStore{}
	s := NewTraced(fake, tp.Tracer("test"))
	ctx := context.Background()

	_, err := s.Fetch(ctx, "items", Page{Limit: 100})
	require.NoError(t, err)
	_, err = s.Save(ctx, "items", []SaveRow{{RowID: "1", ID: 1}})
	require.NoError(t, err)

	fake.saveErr = &TransportError{Op: "save", Err: errors.New("connection reset")}
	_, err = s.Save(ctx, "items", nil)
	var terr *TransportError
	require.ErrorAs(t, err, &terr)

	spans := recorder.Ended()
	require.Len(t, spans, 3)
	require.Equal(t, "store.Fetch", spans[0].Name())
	require.Equal(t, "store.Save", spans[1].Name())

	attrs := map[string]any{}
	for _, kv := range spans[1].Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	require.Equal(t, int64(1), attrs["catalog.saved"])
	require.Equal(t, int64(1), attrs["catalog.conflicts"])
	require.Equal(t, "items", attrs["catalog.kind"])

	require.Equal(t, "Error", spans[2].Status().Code.String())
	require.Len(t, spans[2].Events(), 1, "error recorded as an event")
}

func TestSaveRow_IsDraft(t *testing.T) {
	require.True(t, SaveRow{RowID: "draft-x"}.IsDraft())
	require.False(t, SaveRow{RowID: "3", ID: 3}.IsDraft())
}
