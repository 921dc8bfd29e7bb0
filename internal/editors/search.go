package editors

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"

	"github.com/langarchive/catalog/internal/catalog"
	"github.com/langarchive/catalog/internal/log"
	"github.com/langarchive/catalog/internal/sheet"
	"github.com/langarchive/catalog/internal/store"
	"github.com/langarchive/catalog/internal/ui/styles"
)

// searchSeq numbers searches across all editors, so a result for a closed
// editor can never match a newer editor on the same cell.
var searchSeq atomic.Uint64

type searchTickMsg struct {
	key sheet.CellKey
	seq uint64
}

type searchResultMsg struct {
	key  sheet.CellKey
	seq  uint64
	refs []catalog.Ref
	err  error
}

// search is the debounced query box and result list shared by the
// relationship editors. Highlight -1 is the entry above the results.
type search struct {
	ctx      context.Context
	searcher Searcher
	key      sheet.CellKey
	target   string
	cfg      Config

	input     textinput.Model
	results   []catalog.Ref
	highlight int
	seq       uint64
	loading   bool
	err       error

	// preferred is highlighted when it appears in a result set.
	preferred int64
	// pickOnEmpty highlights the first result even for an empty query.
	pickOnEmpty bool
}

func newSearch(ctx context.Context, searcher Searcher, key sheet.CellKey, target string, cfg Config) search {
	ti := newInput("search " + target + "…")
	ti.Prompt = "› "
	return search{ctx: ctx, searcher: searcher, key: key, target: target, cfg: cfg, input: ti, highlight: -1}
}

// query issues a search for the current input immediately.
func (s search) query() (search, tea.Cmd) {
	if s.searcher == nil {
		return s, nil
	}
	s.seq = searchSeq.Add(1)
	s.loading = true
	ctx, searcher, key, seq := s.ctx, s.searcher, s.key, s.seq
	kind, q, limit := s.target, strings.TrimSpace(s.input.Value()), s.cfg.PageSize
	return s, func() tea.Msg {
		refs, err := searcher.Search(ctx, kind, q, store.Page{Limit: limit})
		if err != nil {
			log.ErrorErr(log.CatEditor, "search failed", err, "kind", kind, "query", q)
		}
		return searchResultMsg{key: key, seq: seq, refs: refs, err: err}
	}
}

// debounce schedules a search once typing pauses.
func (s search) debounce() (search, tea.Cmd) {
	s.seq = searchSeq.Add(1)
	s.loading = true
	key, seq := s.key, s.seq
	return s, tea.Tick(s.cfg.SearchDebounce, func(time.Time) tea.Msg {
		return searchTickMsg{key: key, seq: seq}
	})
}

// typed forwards a key to the query input. A changed query drops the
// results of the previous one and reschedules the search.
func (s search) typed(msg tea.Msg) (search, tea.Cmd) {
	before := s.input.Value()
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	if s.input.Value() == before {
		return s, cmd
	}
	s = s.reset()
	s, tick := s.debounce()
	return s, tea.Batch(cmd, tick)
}

func (s search) reset() search {
	s.results = nil
	s.highlight = -1
	s.err = nil
	return s
}

// busy reports whether results for a typed query are still on their way.
// Nothing may be picked until they arrive.
func (s search) busy() bool {
	return s.loading && strings.TrimSpace(s.input.Value()) != ""
}

// handle consumes search messages addressed to this editor. Results from
// superseded searches are dropped.
func (s search) handle(msg tea.Msg) (search, tea.Cmd, bool) {
	switch msg := msg.(type) {
	case searchTickMsg:
		if msg.key != s.key {
			return s, nil, false
		}
		if msg.seq != s.seq {
			return s, nil, true
		}
		s, cmd := s.query()
		return s, cmd, true
	case searchResultMsg:
		if msg.key != s.key {
			return s, nil, false
		}
		if msg.seq != s.seq {
			log.Debug(log.CatEditor, "discarding stale search result", "cell", s.key.String(), "seq", msg.seq)
			return s, nil, true
		}
		s.loading = false
		s.err = msg.err
		s.results = msg.refs
		s.highlight = s.initialHighlight()
		return s, nil, true
	}
	return s, nil, false
}

func (s search) initialHighlight() int {
	for i, r := range s.results {
		if s.preferred != 0 && r.ID == s.preferred {
			return i
		}
	}
	if len(s.results) > 0 && (s.pickOnEmpty || strings.TrimSpace(s.input.Value()) != "") {
		return 0
	}
	return -1
}

func (s search) move(delta int) search {
	s.highlight = max(-1, min(s.highlight+delta, len(s.results)-1))
	return s
}

func (s search) highlighted() (catalog.Ref, bool) {
	if s.highlight < 0 || s.highlight >= len(s.results) {
		return catalog.Ref{}, false
	}
	return s.results[s.highlight], true
}

func optionZone(key sheet.CellKey, i int) string {
	return fmt.Sprintf("editor-opt-%s-%d", key.String(), i)
}

// clicked returns the index of the option under a left click, -2 if none.
func (s search) clicked(msg tea.MouseMsg) int {
	if msg.Action != tea.MouseActionRelease || msg.Button != tea.MouseButtonLeft {
		return -2
	}
	for i := -1; i < len(s.results); i++ {
		if z := zone.Get(optionZone(s.key, i)); z != nil && z.InBounds(msg) {
			return i
		}
	}
	return -2
}

// lines renders the input and result list. topEntry labels the -1 entry;
// empty means it is not shown.
func (s search) lines(width int, topEntry string) []string {
	s.input.Width = max(width-4, 4)
	out := []string{s.input.View()}

	row := func(i int, label string) string {
		prefix := "  "
		text := styles.TruncateString(label, max(width-2, 1))
		if i == s.highlight {
			prefix = styles.SelectionIndicatorStyle.Render("> ")
			text = styles.EditorHighlightStyle.Render(text)
		}
		return zone.Mark(optionZone(s.key, i), prefix+text)
	}

	if topEntry != "" {
		out = append(out, row(-1, topEntry))
	}
	switch {
	case s.err != nil:
		out = append(out, styles.InvalidCellStyle.Render("  search failed"))
	case s.loading && len(s.results) == 0:
		out = append(out, styles.HintStyle.Render("  searching…"))
	case len(s.results) == 0:
		out = append(out, styles.HintStyle.Render("  no matches"))
	}
	for i, r := range s.results {
		out = append(out, row(i, fmt.Sprintf("%s  #%d", r.Label, r.ID)))
	}
	return out
}
