package app

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/langarchive/catalog/internal/log"
	"github.com/langarchive/catalog/internal/reconcile"
	"github.com/langarchive/catalog/internal/selection"
	"github.com/langarchive/catalog/internal/store"
	"github.com/langarchive/catalog/internal/ui/toaster"
)

type savedMsg struct {
	req  reconcile.Request
	resp store.SaveResponse
	err  error
}

// requestSave collects the rows to submit. Without checked rows every
// changed row is saved, which needs confirmation.
func (m Model) requestSave() (Model, tea.Cmd) {
	if m.busy != notBusy {
		return m.showToast(fmt.Sprintf("Busy %s, try again shortly", m.busy), toaster.StyleInfo)
	}
	cand := reconcile.Candidates(m.sheet)
	if len(cand.Rows) == 0 {
		if cand.Blocked > 0 {
			return m.showToast(fmt.Sprintf("%d %s with invalid or unchecked cells cannot be saved", cand.Blocked, plural(cand.Blocked, "row")), toaster.StyleWarn)
		}
		return m.showToast("Nothing to save", toaster.StyleInfo)
	}
	req := reconcile.BuildRequest(m.sheet, cand.Rows)
	if !cand.Scoped {
		prompt := fmt.Sprintf("No rows checked. Save all %d changed %s?", req.Len(), plural(req.Len(), "row"))
		if cand.Blocked > 0 {
			prompt = fmt.Sprintf("No rows checked. Save %d changed %s (%d skipped)?", req.Len(), plural(req.Len(), "row"), cand.Blocked)
		}
		m.confirm = &confirmation{
			prompt: prompt,
			action: func(m Model) (Model, tea.Cmd) { return m.startSave(req) },
		}
		return m, nil
	}
	return m.startSave(req)
}

func (m Model) startSave(req reconcile.Request) (Model, tea.Cmd) {
	if m.busy != notBusy {
		return m, nil
	}
	m.busy = busySaving
	log.Info(log.CatSave, "saving", "kind", req.Kind, "rows", req.Len())
	ctx, st := m.ctx, m.store
	return m, func() tea.Msg {
		resp, err := st.Save(ctx, req.Kind, req.Rows)
		if err != nil {
			log.ErrorErr(log.CatSave, "save failed", err, "rows", req.Len())
		}
		return savedMsg{req: req, resp: resp, err: err}
	}
}

// handleSaved merges the response into the working set. A transport
// failure leaves everything as it was.
func (m Model) handleSaved(msg savedMsg) (Model, tea.Cmd) {
	m.busy = notBusy
	if msg.err != nil {
		return m.showError("Save failed, nothing was changed", msg.err)
	}
	out := reconcile.Apply(m.sheet, m.history, msg.req, msg.resp)
	m.pop.Invalidate(m.ctx)
	m.grid.Sync()

	if out.First != "" {
		if i, ok := m.grid.ScrollToRow(out.First); ok {
			m.sel.MoveTo(selection.Position{Row: i, Col: m.sel.Active().Col})
			m.grid.Follow()
		}
	}

	var parts []string
	if out.Saved > 0 {
		parts = append(parts, fmt.Sprintf("saved %d", out.Saved))
	}
	if out.Conflicted > 0 {
		parts = append(parts, fmt.Sprintf("%d with conflicts", out.Conflicted))
	}
	if out.Rejected > 0 {
		parts = append(parts, fmt.Sprintf("%d rejected", out.Rejected))
	}
	summary := strings.Join(parts, ", ")
	if summary == "" {
		summary = "nothing saved"
	}
	summary = strings.ToUpper(summary[:1]) + summary[1:]

	if out.FullSuccess() {
		if m.remoteChanged && !m.sheet.HasChanges() {
			var refresh, toast tea.Cmd
			m, refresh = m.startRefresh(true)
			m, toast = m.showToast(summary, toaster.StyleSuccess)
			return m, tea.Batch(refresh, toast)
		}
		return m.showToast(summary, toaster.StyleSuccess)
	}
	if len(out.Messages) > 0 {
		summary += ": " + out.Messages[0]
	}
	return m.showToast(summary, toaster.StyleWarn)
}
