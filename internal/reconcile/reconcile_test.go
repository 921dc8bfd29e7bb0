package reconcile_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/langarchive/catalog/internal/catalog"
	"github.com/langarchive/catalog/internal/history"
	"github.com/langarchive/catalog/internal/reconcile"
	"github.com/langarchive/catalog/internal/sheet"
	"github.com/langarchive/catalog/internal/store"
	"github.com/langarchive/catalog/internal/testutil"
)

func item(id, version int64, number, title string) catalog.Record {
	return catalog.Record{ID: id, Version: version, Values: map[string]catalog.Value{
		"id":             catalog.Text(sheet.PersistedID(id)),
		"catalog_number": catalog.Text(number),
		"title":          catalog.Text(title),
		"keywords":       catalog.Tags{"song"},
	}}
}

func newSheet(t require.TestingT) (*sheet.Sheet, *history.Stack) {
	schema, err := catalog.Lookup("items")
	require.NoError(t, err)
	sh := sheet.New(schema)
	sh.Reset([]catalog.Record{item(1, 10, "AK-001", "Song"), item(2, 10, "AK-002", "Tale")}, false)
	hist := history.New(0)
	sh.SetRecorder(hist)
	return sh, hist
}

func set(t require.TestingT, sh *sheet.Sheet, id sheet.RowID, field string, v catalog.Value) {
	_, err := sh.SetValue(id, field, sheet.Assign(v, ""), "edit "+field)
	require.NoError(t, err)
}

func cell(t require.TestingT, sh *sheet.Sheet, id sheet.RowID, field string) sheet.Cell {
	c, err := sh.Cell(id, field)
	require.NoError(t, err)
	return c
}

func TestMergeField(t *testing.T) {
	tests := []struct {
		name  string
		field reconcile.Field
		want  reconcile.Decision
	}{
		{"not submitted", reconcile.Field{Type: catalog.TypeText, Server: catalog.Text("x"), HasServer: true}, reconcile.AcceptServer},
		{"submitted clean", reconcile.Field{Type: catalog.TypeText, Submitted: true, Pending: catalog.Text("a")}, reconcile.AcceptUser},
		{"conflicting", reconcile.Field{Type: catalog.TypeText, Submitted: true, Conflicting: true, Pending: catalog.Text("a"), Server: catalog.Text("b"), HasServer: true}, reconcile.FlagConflict},
		{"convergent", reconcile.Field{Type: catalog.TypeNumeric, Submitted: true, Conflicting: true, Pending: catalog.Number("1.0"), Server: catalog.Number("1"), HasServer: true}, reconcile.AcceptUser},
		{"conflicting without record", reconcile.Field{Type: catalog.TypeText, Submitted: true, Conflicting: true, Pending: catalog.Text("a")}, reconcile.FlagConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, reconcile.MergeField(tt.field))
		})
	}
}

func TestCandidates(t *testing.T) {
	sh, _ := newSheet(t)
	set(t, sh, "1", "title", catalog.Text("Songs"))
	set(t, sh, "2", "duration_minutes", catalog.Raw("abc"))
	_, err := sh.UpdateCell("2", "duration_minutes", sheet.MarkState(sheet.Invalid, "not a number"))
	require.NoError(t, err)

	sel := reconcile.Candidates(sh)
	require.False(t, sel.Scoped)
	require.Equal(t, 1, sel.Blocked)
	require.Len(t, sel.Rows, 1)
	require.Equal(t, sheet.RowID("1"), sel.Rows[0].ID)
}

func TestCandidates_ScopedToCheckedRows(t *testing.T) {
	sh, _ := newSheet(t)
	set(t, sh, "1", "title", catalog.Text("Songs"))
	set(t, sh, "2", "title", catalog.Text("Tales"))
	sh.ToggleSelected("2")

	sel := reconcile.Candidates(sh)
	require.True(t, sel.Scoped)
	require.Len(t, sel.Rows, 1)
	require.Equal(t, sheet.RowID("2"), sel.Rows[0].ID)
}

func TestBuildRequest(t *testing.T) {
	sh, _ := newSheet(t)
	set(t, sh, "1", "title", catalog.Text("Songs"))
	draft := sh.AddDraftRow()
	set(t, sh, draft, "catalog_number", catalog.Text("AK-009"))

	req := reconcile.BuildRequest(sh, reconcile.Candidates(sh).Rows)
	require.Equal(t, "items", req.Kind)
	require.Equal(t, 2, req.Len())

	persisted := req.Rows[0]
	require.Equal(t, int64(1), persisted.ID)
	require.Equal(t, int64(10), persisted.Version)
	require.Equal(t, map[string]catalog.Value{"title": catalog.Text("Songs")}, persisted.Fields)
	require.Equal(t, map[string]catalog.Value{"title": catalog.Text("Song")}, persisted.Originals)

	d := req.Rows[1]
	require.True(t, d.IsDraft())
	require.Equal(t, string(draft), d.RowID)
	require.Equal(t, map[string]catalog.Value{"catalog_number": catalog.Text("AK-009")}, d.Fields)
	require.Nil(t, d.Originals)
}

func TestApply_ConflictKeepsPendingAgainstServerValue(t *testing.T) {
	sh, hist := newSheet(t)
	set(t, sh, "1", "title", catalog.Text("Songs"))
	set(t, sh, "1", "catalog_number", catalog.Text("AK-101"))
	req := reconcile.BuildRequest(sh, reconcile.Candidates(sh).Rows)

	current := item(1, 11, "AK-101", "Old songs")
	resp := store.SaveResponse{Errors: []store.SaveError{{
		Type:              store.ErrorConflict,
		RowID:             "1",
		ConflictingFields: []string{"title"},
		CurrentData:       &current,
	}}}
	out := reconcile.Apply(sh, hist, req, resp)
	require.Equal(t, 1, out.Conflicted)
	require.False(t, out.FullSuccess())
	require.Equal(t, sheet.RowID("1"), out.First)

	x := cell(t, sh, "1", "title")
	require.True(t, x.Conflict)
	require.True(t, x.IsEdited)
	require.Equal(t, catalog.Text("Songs"), x.Value)
	require.Equal(t, catalog.Text("Old songs"), x.Original)

	y := cell(t, sh, "1", "catalog_number")
	require.False(t, y.IsEdited)
	require.False(t, y.Conflict)
	require.Equal(t, y.Value, y.Original)

	row, _ := sh.Row("1")
	require.True(t, row.HasChanges())
	require.Equal(t, int64(11), row.RemoteVersion)
	require.True(t, hist.CanUndo(), "partial success keeps history")
}

func TestApply_ConflictProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		sh, hist := newSheet(t)
		mine := rapid.StringMatching(`[a-z]{1,8}`).Draw(t, "mine")
		theirs := rapid.StringMatching(`[A-Z]{1,8}`).Draw(t, "theirs")
		sibling := rapid.StringMatching(`[0-9]{1,4}`).Draw(t, "sibling")

		set(t, sh, "2", "title", catalog.Text(mine))
		set(t, sh, "2", "catalog_number", catalog.Text(sibling))
		req := reconcile.BuildRequest(sh, reconcile.Candidates(sh).Rows)

		current := item(2, 12, sibling, theirs)
		reconcile.Apply(sh, hist, req, store.SaveResponse{Errors: []store.SaveError{{
			Type: store.ErrorConflict, RowID: "2", ConflictingFields: []string{"title"}, CurrentData: &current,
		}}})

		x := cell(t, sh, "2", "title")
		if !x.Conflict || !x.IsEdited || x.Value != catalog.Text(mine) || x.Original != catalog.Text(theirs) {
			t.Fatalf("conflicted field not reconciled: %+v", x)
		}
		y := cell(t, sh, "2", "catalog_number")
		if y.IsEdited || !catalog.Equal(y.Type, y.Value, y.Original) {
			t.Fatalf("sibling field not accepted: %+v", y)
		}
	})
}

func TestApply_FullSuccessClearsHistory(t *testing.T) {
	sh, hist := newSheet(t)
	set(t, sh, "1", "title", catalog.Text("Songs"))
	req := reconcile.BuildRequest(sh, reconcile.Candidates(sh).Rows)

	saved := item(1, 11, "AK-001", "Songs")
	out := reconcile.Apply(sh, hist, req, store.SaveResponse{Success: true, Saved: []catalog.Record{saved}})
	require.True(t, out.FullSuccess())
	require.Equal(t, 1, out.Saved)
	require.False(t, hist.CanUndo())
	require.False(t, sh.HasChanges())

	c := cell(t, sh, "1", "title")
	require.Equal(t, catalog.Text("Songs"), c.Original)
}

func TestApply_PartialSuccessRemapsPromotedDrafts(t *testing.T) {
	sh, hist := newSheet(t)
	draft := sh.AddDraftRow()
	set(t, sh, draft, "catalog_number", catalog.Text("AK-009"))
	set(t, sh, draft, "title", catalog.Text("New"))
	set(t, sh, "1", "title", catalog.Text(""))
	req := reconcile.BuildRequest(sh, reconcile.Candidates(sh).Rows)

	created := item(3, 1, "AK-009", "New")
	created.ClientID = string(draft)
	out := reconcile.Apply(sh, hist, req, store.SaveResponse{
		Saved:  []catalog.Record{created},
		Errors: []store.SaveError{{Type: store.ErrorValidation, RowID: "1", Field: "title", Message: "title is required"}},
	})
	require.Equal(t, 1, out.Saved)
	require.Equal(t, 1, out.Rejected)
	require.Equal(t, sheet.RowID("3"), out.Promoted[draft])
	require.Equal(t, []string{"row 1: title is required"}, out.Messages)

	_, ok := sh.Row(draft)
	require.False(t, ok)
	row, ok := sh.Row("3")
	require.True(t, ok)
	require.False(t, row.HasChanges())

	bad := cell(t, sh, "1", "title")
	require.Equal(t, sheet.Invalid, bad.Validation)
	require.Equal(t, "title is required", bad.Error)

	require.True(t, hist.CanUndo())
	_, keys, ok := hist.Undo(sh)
	require.True(t, ok)
	require.Equal(t, []sheet.CellKey{{Row: "1", Field: "title"}}, keys)
	_, keys, ok = hist.Undo(sh)
	require.True(t, ok)
	require.Equal(t, []sheet.CellKey{{Row: "3", Field: "title"}}, keys)
}

func TestApply_MissingResultIsRejected(t *testing.T) {
	sh, hist := newSheet(t)
	set(t, sh, "1", "title", catalog.Text("Songs"))
	req := reconcile.BuildRequest(sh, reconcile.Candidates(sh).Rows)

	out := reconcile.Apply(sh, hist, req, store.SaveResponse{})
	require.Equal(t, 1, out.Rejected)
	require.True(t, sh.HasChanges())
	require.True(t, hist.CanUndo())
}

func TestKeepMineAndTakeTheirs(t *testing.T) {
	sh, hist := newSheet(t)
	set(t, sh, "1", "title", catalog.Text("Songs"))
	set(t, sh, "2", "title", catalog.Text("Tales"))
	req := reconcile.BuildRequest(sh, reconcile.Candidates(sh).Rows)
	one, two := item(1, 11, "AK-001", "Server one"), item(2, 11, "AK-002", "Server two")
	reconcile.Apply(sh, hist, req, store.SaveResponse{Errors: []store.SaveError{
		{Type: store.ErrorConflict, RowID: "1", ConflictingFields: []string{"title"}, CurrentData: &one},
		{Type: store.ErrorConflict, RowID: "2", ConflictingFields: []string{"title"}, CurrentData: &two},
	}})

	require.NoError(t, reconcile.KeepMine(sh, sheet.CellKey{Row: "1", Field: "title"}))
	mine := cell(t, sh, "1", "title")
	require.False(t, mine.Conflict)
	require.True(t, mine.IsEdited)
	require.Equal(t, catalog.Text("Songs"), mine.Value)

	require.NoError(t, reconcile.TakeTheirs(sh, sheet.CellKey{Row: "2", Field: "title"}))
	theirs := cell(t, sh, "2", "title")
	require.False(t, theirs.Conflict)
	require.False(t, theirs.IsEdited)
	require.Equal(t, catalog.Text("Server two"), theirs.Value)
	require.Equal(t, "take server value", hist.Peek())

	_, _, ok := hist.Undo(sh)
	require.True(t, ok)
	back := cell(t, sh, "2", "title")
	require.True(t, back.Conflict)
	require.Equal(t, catalog.Text("Tales"), back.Value)
}

func TestSaveRoundTripAgainstStore(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewTestStore(t)
	ids := testutil.NewBuilder(t, st).WithStandardTestData().Build()
	id := ids["AK-001"]

	schema, err := catalog.Lookup("items")
	require.NoError(t, err)
	res, err := st.Fetch(ctx, "items", store.Page{})
	require.NoError(t, err)
	sh := sheet.New(schema)
	sh.Reset(res.Records, false)
	hist := history.New(0)
	sh.SetRecorder(hist)

	rowID := sheet.PersistedID(id)
	before := cell(t, sh, rowID, "title")
	loaded, ok := sh.Row(rowID)
	require.True(t, ok)

	// Another client changes the title first.
	_, err = st.Save(ctx, "items", []store.SaveRow{{
		RowID: string(rowID), ID: id, Version: loaded.RemoteVersion,
		Fields:    map[string]catalog.Value{"title": catalog.Text("Renamed elsewhere")},
		Originals: map[string]catalog.Value{"title": before.Value},
	}})
	require.NoError(t, err)

	set(t, sh, rowID, "title", catalog.Text("Renamed here"))
	set(t, sh, rowID, "duration_minutes", catalog.Number("50"))
	req := reconcile.BuildRequest(sh, reconcile.Candidates(sh).Rows)
	resp, err := st.Save(ctx, "items", req.Rows)
	require.NoError(t, err)

	out := reconcile.Apply(sh, hist, req, resp)
	require.Equal(t, 1, out.Conflicted)

	title := cell(t, sh, rowID, "title")
	require.True(t, title.Conflict)
	require.Equal(t, catalog.Text("Renamed here"), title.Value)
	require.Equal(t, catalog.Text("Renamed elsewhere"), title.Original)

	duration := cell(t, sh, rowID, "duration_minutes")
	require.False(t, duration.IsEdited)
	require.True(t, catalog.Equal(catalog.TypeNumeric, catalog.Number("50"), duration.Original))
}
