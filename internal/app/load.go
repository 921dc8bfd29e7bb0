package app

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/langarchive/catalog/internal/catalog"
	"github.com/langarchive/catalog/internal/log"
	"github.com/langarchive/catalog/internal/population"
	"github.com/langarchive/catalog/internal/store"
	"github.com/langarchive/catalog/internal/ui/toaster"
)

type pageLoadedMsg struct {
	result store.FetchResult
	err    error
}

type refreshedMsg struct {
	records    []catalog.Record
	keepDrafts bool
	err        error
}

// fetchPage loads the first page so the grid is usable before the full
// population arrives.
func (m Model) fetchPage() tea.Cmd {
	ctx, st, kind := m.ctx, m.store, m.schema.Kind
	page := store.Page{Limit: m.cfg.Grid.PageSize}
	return func() tea.Msg {
		res, err := st.Fetch(ctx, kind, page)
		if err != nil {
			log.ErrorErr(log.CatStore, "first page failed", err, "kind", kind)
		}
		return pageLoadedMsg{result: res, err: err}
	}
}

func (m Model) handlePage(msg pageLoadedMsg) (Model, tea.Cmd) {
	if msg.err != nil {
		return m.showError("Loading records failed", msg.err)
	}
	m.total = msg.result.Total
	if m.loaded {
		// The population won the race.
		return m, nil
	}
	if m.sheet.Touched() {
		m.sheet.Append(msg.result.Records)
	} else {
		m.sheet.Reset(msg.result.Records, true)
	}
	m.grid.Sync()
	log.Debug(log.CatStore, "first page applied", "rows", len(msg.result.Records), "total", msg.result.Total)
	return m, nil
}

// handlePopulation applies the full population. Once the user has edited,
// only rows that are not yet in the working set are added, so nothing they
// changed is replaced.
func (m Model) handlePopulation(msg population.LoadedMsg) (Model, tea.Cmd) {
	if msg.Generation != m.pop.Generation() {
		log.Debug(log.CatPopulation, "discarding stale population", "generation", msg.Generation)
		return m, nil
	}
	var cmds []tea.Cmd
	if msg.Err != nil {
		var cmd tea.Cmd
		m, cmd = m.showError("Loading all records failed", msg.Err)
		cmds = append(cmds, cmd)
	} else {
		if m.sheet.Touched() {
			added := m.sheet.Append(msg.Records)
			log.Debug(log.CatPopulation, "population appended", "added", added)
		} else {
			m.sheet.Reset(msg.Records, true)
		}
		m.loaded = true
		m.total = len(msg.Records)
		m.grid.Sync()
	}
	if m.importPath != "" {
		path := m.importPath
		m.importPath = ""
		cmds = append(cmds, m.loadImport(path))
	}
	return m, tea.Batch(cmds...)
}

// requestRefresh reloads the working set, asking first when unsaved edits
// would be discarded. A confirmed reload discards draft rows too.
func (m Model) requestRefresh() (Model, tea.Cmd) {
	if m.busy != notBusy {
		return m.showToast(fmt.Sprintf("Busy %s, try again shortly", m.busy), toaster.StyleInfo)
	}
	if m.sheet.HasChanges() {
		m.confirm = &confirmation{
			prompt: "Discard unsaved changes and reload?",
			action: func(m Model) (Model, tea.Cmd) { return m.startRefresh(false) },
		}
		return m, nil
	}
	return m.startRefresh(true)
}

// startRefresh reloads every record. keepDrafts carries draft rows over into
// the new working set.
func (m Model) startRefresh(keepDrafts bool) (Model, tea.Cmd) {
	m.busy = busyRefreshing
	m.remoteChanged = false
	m.pop.Invalidate(m.ctx)
	ctx, pop := m.ctx, m.pop
	return m, func() tea.Msg {
		recs, err := pop.Get(ctx)
		return refreshedMsg{records: recs, keepDrafts: keepDrafts, err: err}
	}
}

// handleRefreshed replaces the working set. Checkbox selection survives and
// draft rows survive unless the reload discarded them; pending edits and
// history do not.
func (m Model) handleRefreshed(msg refreshedMsg) (Model, tea.Cmd) {
	m.busy = notBusy
	if msg.err != nil {
		return m.showError("Refresh failed", msg.err)
	}
	m.validator.Reset()
	m.history.Clear()
	m.sheet.Reset(msg.records, msg.keepDrafts)
	m.loaded = true
	m.total = len(msg.records)
	m.grid.Sync()
	m.grid.Follow()
	log.Info(log.CatStore, "working set refreshed", "rows", m.sheet.Len())
	return m, nil
}
