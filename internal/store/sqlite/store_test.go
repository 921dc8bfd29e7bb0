package sqlite_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/langarchive/catalog/internal/catalog"
	"github.com/langarchive/catalog/internal/store"
	"github.com/langarchive/catalog/internal/store/sqlite"
	"github.com/langarchive/catalog/internal/testutil"
)

func TestNewDB_CreatesDirectoryAndBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "catalog.db")

	db, err := sqlite.NewDB(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	info, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0700), info.Mode().Perm())
	_, err = os.Stat(path + ".bak")
	require.True(t, os.IsNotExist(err), "fresh database needs no backup")

	db, err = sqlite.NewDB(path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	_, err = os.Stat(path + ".bak")
	require.NoError(t, err)
}

func fetchOne(t *testing.T, st *sqlite.Store, kind string, id int64) catalog.Record {
	t.Helper()
	res, err := st.Fetch(context.Background(), kind, store.Page{})
	require.NoError(t, err)
	for _, r := range res.Records {
		if r.ID == id {
			return r
		}
	}
	t.Fatalf("%s %d not found", kind, id)
	return catalog.Record{}
}

func TestFetch_Pages(t *testing.T) {
	st := testutil.NewTestStore(t)
	testutil.NewBuilder(t, st).WithStandardTestData().Build()

	res, err := st.Fetch(context.Background(), "items", store.Page{Offset: 1, Limit: 1})
	require.NoError(t, err)
	require.Equal(t, 3, res.Total)
	require.Len(t, res.Records, 1)
	require.Equal(t, catalog.Text("AK-002"), res.Records[0].Values["catalog_number"])
	require.Equal(t, catalog.Tags{"epic", "song"}, res.Records[0].Values["keywords"])
	require.Nil(t, res.Records[0].Values["collector_id"])
	require.NotZero(t, res.Records[0].Version)
}

func TestFetch_UnknownKind(t *testing.T) {
	st := testutil.NewTestStore(t)
	_, err := st.Fetch(context.Background(), "recordings", store.Page{})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestFetchAll_ReportsProgress(t *testing.T) {
	st := testutil.NewTestStore(t)
	testutil.NewBuilder(t, st).WithStandardTestData().Build()

	var calls [][2]int
	records, err := st.FetchAll(context.Background(), "languoids", func(loaded, total int) {
		calls = append(calls, [2]int{loaded, total})
	})
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, [][2]int{{3, 3}}, calls)
}

func TestSave_DraftEchoesClientID(t *testing.T) {
	st := testutil.NewTestStore(t)

	resp, err := st.Save(context.Background(), "languoids", []store.SaveRow{{
		RowID: "draft-abc",
		Fields: map[string]catalog.Value{
			"glottocode": catalog.Text("ainu1240"),
			"name":       catalog.Text("Ainu"),
		},
	}})
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Len(t, resp.Saved, 1)
	require.Equal(t, "draft-abc", resp.Saved[0].ClientID)
	require.Positive(t, resp.Saved[0].ID)
	require.Equal(t, catalog.Tags{}, resp.Saved[0].Values["alt_names"])
}

func TestSave_DraftMissingRequiredIsRejected(t *testing.T) {
	st := testutil.NewTestStore(t)

	resp, err := st.Save(context.Background(), "languoids", []store.SaveRow{{
		RowID:  "draft-1",
		Fields: map[string]catalog.Value{"glottocode": catalog.Text("ainu1240")},
	}})
	require.NoError(t, err)
	require.False(t, resp.Success)
	require.Empty(t, resp.Saved)
	require.Len(t, resp.Errors, 1)
	require.Equal(t, store.ErrorValidation, resp.Errors[0].Type)
	require.Equal(t, "name", resp.Errors[0].Field)

	res, err := st.Fetch(context.Background(), "languoids", store.Page{})
	require.NoError(t, err)
	require.Zero(t, res.Total)
}

func languoidDrafts() []store.SaveRow {
	return []store.SaveRow{
		{RowID: "draft-1", Fields: map[string]catalog.Value{"glottocode": catalog.Text("ainu1240"), "name": catalog.Text("Ainu")}},
		{RowID: "draft-2", Fields: map[string]catalog.Value{"glottocode": catalog.Text("japa1256"), "name": catalog.Text("Japanese")}},
		{RowID: "draft-3", Fields: map[string]catalog.Value{"glottocode": catalog.Text("kore1280"), "name": catalog.Text("Korean")}},
	}
}

func TestSave_FailureRollsBackWholeBatch(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	st := sqlite.NewStore(db)

	_, err := db.Conn().ExecContext(ctx, `CREATE TRIGGER fail_japanese BEFORE INSERT ON languoids
		WHEN NEW.glottocode = 'japa1256' BEGIN SELECT RAISE(ABORT, 'disk I/O error'); END`)
	require.NoError(t, err)

	_, err = st.Save(ctx, "languoids", languoidDrafts())
	var te *store.TransportError
	require.ErrorAs(t, err, &te)

	res, err := st.Fetch(ctx, "languoids", store.Page{})
	require.NoError(t, err)
	require.Zero(t, res.Total, "rows before the failure are not left behind")

	_, err = db.Conn().ExecContext(ctx, "DROP TRIGGER fail_japanese")
	require.NoError(t, err)

	resp, err := st.Save(ctx, "languoids", languoidDrafts())
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Len(t, resp.Saved, 3)

	res, err = st.Fetch(ctx, "languoids", store.Page{})
	require.NoError(t, err)
	require.Equal(t, 3, res.Total, "retrying inserts each draft once")
}

func TestSave_RejectedRowDoesNotBlockOthers(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewTestStore(t)

	rows := languoidDrafts()
	delete(rows[1].Fields, "name")

	resp, err := st.Save(ctx, "languoids", rows)
	require.NoError(t, err)
	require.False(t, resp.Success)
	require.Len(t, resp.Saved, 2)
	require.Len(t, resp.Errors, 1)
	require.Equal(t, "draft-2", resp.Errors[0].RowID)

	res, err := st.Fetch(ctx, "languoids", store.Page{})
	require.NoError(t, err)
	require.Equal(t, 2, res.Total)
}

func TestSave_DuplicateUniqueValueIsRejected(t *testing.T) {
	st := testutil.NewTestStore(t)
	b := testutil.NewBuilder(t, st).WithStandardTestData()
	b.Build()

	rec := fetchOne(t, st, "items", b.ID("AK-002"))
	resp, err := st.Save(context.Background(), "items", []store.SaveRow{{
		RowID:     "2",
		ID:        rec.ID,
		Version:   rec.Version,
		Fields:    map[string]catalog.Value{"catalog_number": catalog.Text("AK-001"), "title": catalog.Text("Renamed")},
		Originals: map[string]catalog.Value{"catalog_number": catalog.Text("AK-002"), "title": catalog.Text("Kamuy yukar")},
	}})
	require.NoError(t, err)
	require.False(t, resp.Success)
	require.Equal(t, "catalog_number", resp.Errors[0].Field)

	after := fetchOne(t, st, "items", rec.ID)
	require.Equal(t, catalog.Text("Kamuy yukar"), after.Values["title"], "rejected row writes nothing")
}

func TestSave_UnknownReferenceIsRejected(t *testing.T) {
	st := testutil.NewTestStore(t)
	b := testutil.NewBuilder(t, st).WithStandardTestData()
	b.Build()

	rec := fetchOne(t, st, "items", b.ID("AK-003"))
	resp, err := st.Save(context.Background(), "items", []store.SaveRow{{
		RowID:     "3",
		ID:        rec.ID,
		Version:   rec.Version,
		Fields:    map[string]catalog.Value{"collector_id": catalog.Ref{ID: 9999}},
		Originals: map[string]catalog.Value{"collector_id": nil},
	}})
	require.NoError(t, err)
	require.False(t, resp.Success)
	require.Equal(t, store.ErrorValidation, resp.Errors[0].Type)
	require.Contains(t, resp.Errors[0].Message, "does not exist")
}

func TestSave_PerFieldConflict(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewTestStore(t)
	b := testutil.NewBuilder(t, st).WithStandardTestData()
	b.Build()

	stale := fetchOne(t, st, "items", b.ID("AK-002"))

	// Another editor changes the title first.
	resp, err := st.Save(ctx, "items", []store.SaveRow{{
		RowID:     "2",
		ID:        stale.ID,
		Version:   stale.Version,
		Fields:    map[string]catalog.Value{"title": catalog.Text("Kamuy yukar (sung)")},
		Originals: map[string]catalog.Value{"title": catalog.Text("Kamuy yukar")},
	}})
	require.NoError(t, err)
	require.True(t, resp.Success)

	// Our stale edit touches the title and the keywords.
	resp, err = st.Save(ctx, "items", []store.SaveRow{{
		RowID:   "2",
		ID:      stale.ID,
		Version: stale.Version,
		Fields: map[string]catalog.Value{
			"title":    catalog.Text("Kamuy yukar (epic)"),
			"keywords": catalog.Tags{"epic"},
		},
		Originals: map[string]catalog.Value{
			"title":    catalog.Text("Kamuy yukar"),
			"keywords": catalog.Tags{"song", "epic"},
		},
	}})
	require.NoError(t, err)
	require.False(t, resp.Success)
	require.Empty(t, resp.Saved)
	require.Len(t, resp.Errors, 1)

	conflict := resp.Errors[0]
	require.Equal(t, store.ErrorConflict, conflict.Type)
	require.Equal(t, []string{"title"}, conflict.ConflictingFields)
	require.NotNil(t, conflict.CurrentData)
	require.Equal(t, catalog.Text("Kamuy yukar (sung)"), conflict.CurrentData.Values["title"])
	require.Equal(t, catalog.Tags{"epic"}, conflict.CurrentData.Values["keywords"], "non-conflicting field is written")
}

func TestSave_ConvergentEditIsNotAConflict(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewTestStore(t)
	b := testutil.NewBuilder(t, st).WithStandardTestData()
	b.Build()

	stale := fetchOne(t, st, "items", b.ID("AK-003"))
	row := store.SaveRow{
		RowID:     "3",
		ID:        stale.ID,
		Version:   stale.Version,
		Fields:    map[string]catalog.Value{"digitized": catalog.Bool(true)},
		Originals: map[string]catalog.Value{"digitized": catalog.Bool(false)},
	}

	resp, err := st.Save(ctx, "items", []store.SaveRow{row})
	require.NoError(t, err)
	require.True(t, resp.Success)

	resp, err = st.Save(ctx, "items", []store.SaveRow{row})
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Equal(t, catalog.Bool(true), resp.Saved[0].Values["digitized"])
}

func TestSearch(t *testing.T) {
	st := testutil.NewTestStore(t)
	b := testutil.NewBuilder(t, st).WithStandardTestData()
	b.Build()
	ctx := context.Background()

	refs, err := st.Search(ctx, "languoids", "ainu", store.Page{})
	require.NoError(t, err)
	require.Equal(t, []catalog.Ref{
		{ID: b.ID("ainu1240"), Label: "Ainu"},
		{ID: b.ID("ainu1252"), Label: "Hokkaido Ainu"},
	}, refs)

	refs, err = st.Search(ctx, "languoids", "ainu", store.Page{Offset: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, refs, 1)
	require.Equal(t, "Hokkaido Ainu", refs[0].Label)

	refs, err = st.Search(ctx, "languoids", "50%", store.Page{})
	require.NoError(t, err)
	require.Empty(t, refs)
}

func TestCheckUnique(t *testing.T) {
	st := testutil.NewTestStore(t)
	b := testutil.NewBuilder(t, st).WithStandardTestData()
	b.Build()
	ctx := context.Background()

	ok, err := st.CheckUnique(ctx, "items", "catalog_number", catalog.Text("AK-001"), 0)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = st.CheckUnique(ctx, "items", "catalog_number", catalog.Text("AK-001"), b.ID("AK-001"))
	require.NoError(t, err)
	require.True(t, ok, "a record does not collide with itself")

	ok, err = st.CheckUnique(ctx, "items", "catalog_number", catalog.Text("AK-999"), 0)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestResolve_SkipsUnknownIDs(t *testing.T) {
	st := testutil.NewTestStore(t)
	b := testutil.NewBuilder(t, st).WithStandardTestData()
	b.Build()

	refs, err := st.Resolve(context.Background(), "collaborators", []int64{b.ID("C001"), 404})
	require.NoError(t, err)
	require.Equal(t, map[int64]catalog.Ref{b.ID("C001"): {ID: b.ID("C001"), Label: "Kayano Shigeru"}}, refs)
}

func TestExternalChange(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.db")
	db, err := sqlite.NewDB(path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	st := sqlite.NewStore(db)

	changed, err := st.ExternalChange(ctx)
	require.NoError(t, err)
	require.False(t, changed)

	// Our own writes are not external.
	testutil.NewBuilder(t, st).WithLanguoid("ainu1240", "Ainu").Build()
	changed, err = st.ExternalChange(ctx)
	require.NoError(t, err)
	require.False(t, changed)

	other, err := sqlite.NewDB(path)
	require.NoError(t, err)
	defer func() { _ = other.Close() }()
	testutil.NewBuilder(t, sqlite.NewStore(other)).WithLanguoid("japa1256", "Japanese").Build()

	changed, err = st.ExternalChange(ctx)
	require.NoError(t, err)
	require.True(t, changed)
}
