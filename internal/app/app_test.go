package app

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/exp/teatest"
	zone "github.com/lrstanley/bubblezone"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"

	"github.com/langarchive/catalog/internal/catalog"
	"github.com/langarchive/catalog/internal/clipcodec"
	"github.com/langarchive/catalog/internal/config"
	"github.com/langarchive/catalog/internal/population"
	"github.com/langarchive/catalog/internal/pubsub"
	"github.com/langarchive/catalog/internal/selection"
	"github.com/langarchive/catalog/internal/sheet"
	"github.com/langarchive/catalog/internal/store"
	"github.com/langarchive/catalog/internal/testutil"
	"github.com/langarchive/catalog/internal/watcher"
)

func TestMain(m *testing.M) {
	zone.NewGlobal()
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

const (
	colNumber = 1
	colTitle  = 2
)

type fixture struct {
	st  store.Store
	ids map[string]int64
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	st := testutil.NewTestStore(t)
	ids := testutil.NewBuilder(t, st).
		WithItem("AK-001", "Wax cylinder songs").
		WithItem("AK-002", "Creation story").
		WithItem("AK-003", "Place names").
		Build()
	return fixture{st: st, ids: ids}
}

func testConfig() config.Config {
	cfg := config.Defaults()
	cfg.AutoRefresh = false
	return cfg
}

// newModel builds a sized model with the full population applied.
func newModel(t *testing.T, f fixture) Model {
	t.Helper()
	m, err := New(Options{Store: f.st, Config: testConfig(), Clipboard: &clipcodec.Memory{}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	m = send(t, m, tea.WindowSizeMsg{Width: 140, Height: 30})
	m = send(t, m, m.pop.Start(m.ctx)())
	require.True(t, m.loaded)
	require.Equal(t, 3, m.sheet.Len())
	return m
}

func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	m, _ = sendCmd(t, m, msg)
	return m
}

func sendCmd(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "shift+right":
		return tea.KeyMsg{Type: tea.KeyShiftRight}
	case "delete":
		return tea.KeyMsg{Type: tea.KeyDelete}
	case "f1":
		return tea.KeyMsg{Type: tea.KeyF1}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "ctrl+v":
		return tea.KeyMsg{Type: tea.KeyCtrlV}
	case "ctrl+z":
		return tea.KeyMsg{Type: tea.KeyCtrlZ}
	case "ctrl+y":
		return tea.KeyMsg{Type: tea.KeyCtrlY}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	case "ctrl+n":
		return tea.KeyMsg{Type: tea.KeyCtrlN}
	case "ctrl+l":
		return tea.KeyMsg{Type: tea.KeyCtrlL}
	case "ctrl+d":
		return tea.KeyMsg{Type: tea.KeyCtrlD}
	case "ctrl+q":
		return tea.KeyMsg{Type: tea.KeyCtrlQ}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		m = send(t, m, keyMsg(k))
	}
	return m
}

func title(t *testing.T, m Model, i int) sheet.Cell {
	t.Helper()
	row, ok := m.sheet.RowAt(i)
	require.True(t, ok)
	c, ok := row.Cell("title")
	require.True(t, ok)
	return c
}

func setTitle(t *testing.T, m Model, i int, v string) {
	t.Helper()
	row, ok := m.sheet.RowAt(i)
	require.True(t, ok)
	_, err := m.sheet.SetValue(row.ID, "title", sheet.Assign(catalog.Text(v), v), "edit Title")
	require.NoError(t, err)
}

func TestNew_RequiresStore(t *testing.T) {
	_, err := New(Options{Config: testConfig()})
	require.Error(t, err)
}

func TestNew_UnknownKind(t *testing.T) {
	cfg := testConfig()
	cfg.Kind = "recordings"
	_, err := New(Options{Store: newFixture(t).st, Config: cfg})
	require.ErrorContains(t, err, "unknown record kind")
}

func TestPopulation_StaleGenerationIgnored(t *testing.T) {
	f := newFixture(t)
	m, err := New(Options{Store: f.st, Config: testConfig(), Clipboard: &clipcodec.Memory{}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	stale := m.pop.Start(m.ctx)().(population.LoadedMsg)
	m.pop.Invalidate(m.ctx)

	m = send(t, m, stale)
	require.False(t, m.loaded)
	require.Equal(t, 0, m.sheet.Len())
}

func TestFirstPage_ThenPopulationKeepsEdits(t *testing.T) {
	f := newFixture(t)
	cfg := testConfig()
	cfg.Grid.PageSize = 2
	m, err := New(Options{Store: f.st, Config: cfg, Clipboard: &clipcodec.Memory{}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	m = send(t, m, tea.WindowSizeMsg{Width: 140, Height: 30})

	m = send(t, m, m.fetchPage()())
	require.Equal(t, 2, m.sheet.Len())
	require.Equal(t, 3, m.total)

	setTitle(t, m, 0, "Edited before load")
	m = send(t, m, m.pop.Start(m.ctx)())

	require.Equal(t, 3, m.sheet.Len())
	require.Equal(t, catalog.Text("Edited before load"), title(t, m, 0).Value)
}

func TestEdit_CommitThenUndoRedo(t *testing.T) {
	m := newModel(t, newFixture(t))
	m = press(t, m, "right", "right", "enter")
	require.NotNil(t, m.editor)
	require.Equal(t, selection.Editing, m.sel.Mode())

	m = press(t, m, "!", "enter")
	require.Nil(t, m.editor)
	require.Equal(t, catalog.Text("Wax cylinder songs!"), title(t, m, 0).Value)
	require.True(t, title(t, m, 0).IsEdited)
	require.Equal(t, selection.Position{Row: 1, Col: colTitle}, m.sel.Active())

	m = press(t, m, "ctrl+z")
	require.Equal(t, catalog.Text("Wax cylinder songs"), title(t, m, 0).Value)
	require.False(t, m.sheet.HasChanges())
	require.Equal(t, selection.Position{Row: 0, Col: colTitle}, m.sel.Active())

	m = press(t, m, "ctrl+y")
	require.Equal(t, catalog.Text("Wax cylinder songs!"), title(t, m, 0).Value)
}

func TestEdit_EscapeCancels(t *testing.T) {
	m := newModel(t, newFixture(t))
	m = press(t, m, "right", "right", "enter", "x", "esc")
	require.Nil(t, m.editor)
	require.Equal(t, selection.Idle, m.sel.Mode())
	require.False(t, m.sheet.HasChanges())
}

func TestEdit_ReadOnlyColumnShowsToast(t *testing.T) {
	m := newModel(t, newFixture(t))
	m, cmd := sendCmd(t, m, keyMsg("enter"))
	require.Nil(t, m.editor)
	require.NotNil(t, cmd)
	require.Contains(t, ansi.Strip(m.View()), "ID is read-only")
}

func TestClear_SkipsReadOnlyCells(t *testing.T) {
	m := newModel(t, newFixture(t))
	m = press(t, m, "shift+right", "shift+right", "delete")

	row, _ := m.sheet.RowAt(0)
	id, _ := row.Cell("id")
	number, _ := row.Cell("catalog_number")
	require.False(t, id.IsEdited)
	require.Equal(t, catalog.Text(""), number.Value)
	require.Equal(t, catalog.Text(""), title(t, m, 0).Value)
	require.Equal(t, sheet.Invalid, title(t, m, 0).Validation)

	m = press(t, m, "ctrl+z")
	require.False(t, m.sheet.HasChanges())
}

func TestCopyPaste_SingleCell(t *testing.T) {
	m := newModel(t, newFixture(t))
	m = press(t, m, "right", "right", "ctrl+c", "down", "ctrl+v")

	require.Equal(t, catalog.Text("Wax cylinder songs"), title(t, m, 1).Value)
	require.True(t, title(t, m, 1).IsEdited)

	m = press(t, m, "ctrl+z")
	require.Equal(t, catalog.Text("Creation story"), title(t, m, 1).Value)
}

func TestDraftRows_AddAndRemove(t *testing.T) {
	m := newModel(t, newFixture(t))
	m = press(t, m, "ctrl+n")
	require.Equal(t, 4, m.sheet.Len())

	row, ok := m.sheet.RowAt(m.sel.Active().Row)
	require.True(t, ok)
	require.True(t, row.IsDraft)
	require.Equal(t, colNumber, m.sel.Active().Col)

	m = press(t, m, "ctrl+d")
	require.Nil(t, m.confirm)
	require.Equal(t, 3, m.sheet.Len())
}

func TestRemoveRows_ConfirmsUnsavedChanges(t *testing.T) {
	m := newModel(t, newFixture(t))
	setTitle(t, m, 0, "Changed")
	m = press(t, m, " ", "ctrl+d")
	require.NotNil(t, m.confirm)
	require.Equal(t, 3, m.sheet.Len())

	m = press(t, m, "y")
	require.Nil(t, m.confirm)
	require.Equal(t, 2, m.sheet.Len())
}

func TestSave_AllChangedRowsNeedsConfirmation(t *testing.T) {
	f := newFixture(t)
	m := newModel(t, f)
	setTitle(t, m, 0, "Songs on wax")

	m, cmd := sendCmd(t, m, keyMsg("ctrl+s"))
	require.Nil(t, cmd)
	require.NotNil(t, m.confirm)
	require.Contains(t, ansi.Strip(m.View()), "Save all 1 changed row? (y/n)")

	m, cmd = sendCmd(t, m, keyMsg("y"))
	require.NotNil(t, cmd)
	require.Equal(t, busySaving, m.busy)

	m = send(t, m, cmd())
	require.Equal(t, notBusy, m.busy)
	require.False(t, m.sheet.HasChanges())
	require.Equal(t, catalog.Text("Songs on wax"), title(t, m, 0).Value)

	res, err := f.st.Fetch(context.Background(), "items", store.Page{Limit: 10})
	require.NoError(t, err)
	require.Equal(t, catalog.Text("Songs on wax"), res.Records[0].Values["title"])
}

func TestSave_CheckedRowsOnly(t *testing.T) {
	f := newFixture(t)
	m := newModel(t, f)
	setTitle(t, m, 0, "First")
	setTitle(t, m, 1, "Second")

	m = press(t, m, " ")
	m, cmd := sendCmd(t, m, keyMsg("ctrl+s"))
	require.Nil(t, m.confirm)
	require.NotNil(t, cmd)

	m = send(t, m, cmd())
	require.False(t, title(t, m, 0).IsEdited)
	require.True(t, title(t, m, 1).IsEdited)
	require.True(t, m.sheet.HasChanges())
}

func TestSave_NothingToSave(t *testing.T) {
	m := newModel(t, newFixture(t))
	m, cmd := sendCmd(t, m, keyMsg("ctrl+s"))
	require.Nil(t, m.confirm)
	require.NotNil(t, cmd)
	require.Contains(t, ansi.Strip(m.View()), "Nothing to save")
}

func TestQuit(t *testing.T) {
	m := newModel(t, newFixture(t))
	_, cmd := sendCmd(t, m, keyMsg("ctrl+q"))
	require.NotNil(t, cmd)
	require.Equal(t, tea.QuitMsg{}, cmd())

	setTitle(t, m, 0, "Changed")
	m, cmd = sendCmd(t, m, keyMsg("ctrl+q"))
	require.Nil(t, cmd)
	require.NotNil(t, m.confirm)

	m, cmd = sendCmd(t, m, keyMsg("n"))
	require.Nil(t, cmd)
	require.Nil(t, m.confirm)
}

func TestRefresh_DiscardsEditsAfterConfirmation(t *testing.T) {
	m := newModel(t, newFixture(t))
	setTitle(t, m, 0, "Changed")
	m = press(t, m, "ctrl+n")

	m, cmd := sendCmd(t, m, keyMsg("ctrl+r"))
	require.Nil(t, cmd)
	require.NotNil(t, m.confirm)

	m, cmd = sendCmd(t, m, keyMsg("y"))
	require.Equal(t, busyRefreshing, m.busy)
	m = send(t, m, cmd())

	require.Equal(t, notBusy, m.busy)
	require.Equal(t, catalog.Text("Wax cylinder songs"), title(t, m, 0).Value)
	require.Equal(t, 3, m.sheet.Len(), "a confirmed reload discards drafts")
	_, _, ok := m.history.Undo(m.sheet)
	require.False(t, ok)
}

func TestWatcher_RefreshKeepsDrafts(t *testing.T) {
	m := newModel(t, newFixture(t))
	m = press(t, m, "ctrl+n")
	require.Equal(t, 4, m.sheet.Len())
	require.False(t, m.sheet.HasChanges(), "an untouched draft is not a change")

	changed := pubsub.Event[watcher.WatcherEvent]{Payload: watcher.WatcherEvent{Kind: watcher.DBChanged}}
	m, cmd := sendCmd(t, m, changed)
	require.Equal(t, busyRefreshing, m.busy)
	m = send(t, m, cmd())
	require.Equal(t, notBusy, m.busy)
	require.Equal(t, 4, m.sheet.Len(), "auto refresh keeps draft rows")
}

func TestWatcher_DefersRefreshWhileEdited(t *testing.T) {
	m := newModel(t, newFixture(t))
	setTitle(t, m, 0, "Changed")

	changed := pubsub.Event[watcher.WatcherEvent]{Payload: watcher.WatcherEvent{Kind: watcher.DBChanged}}
	m = send(t, m, changed)
	require.True(t, m.remoteChanged)
	require.Equal(t, notBusy, m.busy)
	require.Equal(t, catalog.Text("Changed"), title(t, m, 0).Value)
	require.Contains(t, ansi.Strip(m.View()), "changed elsewhere")
}

func TestWatcher_RefreshesCleanSheet(t *testing.T) {
	m := newModel(t, newFixture(t))
	changed := pubsub.Event[watcher.WatcherEvent]{Payload: watcher.WatcherEvent{Kind: watcher.DBChanged}}
	m, cmd := sendCmd(t, m, changed)
	require.NotNil(t, cmd)
	require.Equal(t, busyRefreshing, m.busy)
	require.False(t, m.remoteChanged)
}

func TestView_StatusLineAndHelp(t *testing.T) {
	m := newModel(t, newFixture(t))
	view := ansi.Strip(m.View())
	require.Contains(t, view, "items")
	require.Contains(t, view, "3/3 rows")
	require.Contains(t, view, "AK-002")

	setTitle(t, m, 0, "Changed")
	require.Contains(t, ansi.Strip(m.View()), "1 changed")

	m = press(t, m, "f1")
	require.True(t, m.showHelp)
	require.Contains(t, ansi.Strip(m.View()), "Keybindings")

	m = press(t, m, "f1")
	require.False(t, m.showHelp)
}

func TestLogViewer_TogglesAndCapturesKeys(t *testing.T) {
	m := newModel(t, newFixture(t))
	m = press(t, m, "ctrl+l")
	require.True(t, m.logs.Visible())
	require.Contains(t, ansi.Strip(m.View()), "Debug log")

	// Keys go to the viewer while it is open.
	m = press(t, m, "down")
	require.Equal(t, 0, m.sel.Active().Row)

	// Tests run without a log file.
	require.Contains(t, ansi.Strip(m.View()), "Logging is off")

	m = press(t, m, "esc")
	require.False(t, m.logs.Visible())
}

func TestView_LayoutFitsWindow(t *testing.T) {
	m := newModel(t, newFixture(t))
	lines := strings.Split(ansi.Strip(m.View()), "\n")
	require.LessOrEqual(t, len(lines), 30)
}

func TestResizeColumn_DebouncesSave(t *testing.T) {
	m := press(t, newModel(t, newFixture(t)), "right", "right")
	before := m.grid.Width(colTitle)
	m, first := sendCmd(t, m, tea.KeyMsg{Type: tea.KeyLeft, Alt: true})
	m, second := sendCmd(t, m, tea.KeyMsg{Type: tea.KeyRight, Alt: true})
	require.NotNil(t, first)
	require.NotNil(t, second)
	require.Equal(t, before, m.grid.Width(colTitle))
	require.Equal(t, 2, m.widthsToken)

	// Without a config path nothing is written.
	m = send(t, m, saveWidthsMsg{token: 1})
	m = send(t, m, saveWidthsMsg{token: 2})
	require.Equal(t, before, m.grid.Width(colTitle))
}

func waitZone(t *testing.T, m Model, id string) *zone.ZoneInfo {
	t.Helper()
	var z *zone.ZoneInfo
	for retries := 0; retries < 50; retries++ {
		_ = m.View()
		z = zone.Get(id)
		if z != nil && !z.IsZero() {
			return z
		}
		time.Sleep(time.Millisecond)
	}
	require.Failf(t, "zone not registered", "id %s", id)
	return nil
}

func TestMouse_DoubleClickOpensEditor(t *testing.T) {
	m := newModel(t, newFixture(t))
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	z := waitZone(t, m, "grid-cell-1-2")
	click := tea.MouseMsg{X: z.StartX, Y: z.StartY, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress}

	m = send(t, m, click)
	m = send(t, m, tea.MouseMsg{X: z.StartX, Y: z.StartY, Button: tea.MouseButtonLeft, Action: tea.MouseActionRelease})
	require.Nil(t, m.editor)
	require.Equal(t, selection.Position{Row: 1, Col: colTitle}, m.sel.Active())

	now = now.Add(100 * time.Millisecond)
	m = send(t, m, click)
	require.NotNil(t, m.editor)
	require.Equal(t, selection.Editing, m.sel.Mode())
}

func TestMouse_IgnoredWhileConfirming(t *testing.T) {
	m := newModel(t, newFixture(t))
	setTitle(t, m, 0, "Changed")
	m = press(t, m, "ctrl+q")
	require.NotNil(t, m.confirm)

	z := waitZone(t, m, "grid-cell-2-2")
	m = send(t, m, tea.MouseMsg{X: z.StartX, Y: z.StartY, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	require.Equal(t, selection.Position{}, m.sel.Active())
	require.NotNil(t, m.confirm)
}

func TestProgram_LoadsAndQuits(t *testing.T) {
	f := newFixture(t)
	m, err := New(Options{Store: f.st, Config: testConfig(), Clipboard: &clipcodec.Memory{}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(140, 30))
	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return strings.Contains(ansi.Strip(string(out)), "Place names")
	}, teatest.WithDuration(5*time.Second))

	tm.Send(keyMsg("ctrl+q"))
	tm.WaitFinished(t, teatest.WithFinalTimeout(5*time.Second))
}
