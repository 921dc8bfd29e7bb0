// Package editors provides one in-cell Bubble Tea editor per cell type.
//
// Editors report their outcome synchronously from Update and Blur as a
// Result, so the host applies a commit before it processes the next key or
// click. Intermediate actions (typing, moving a highlight, adding a chip)
// always return a Pending result.
package editors

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/langarchive/catalog/internal/catalog"
	"github.com/langarchive/catalog/internal/log"
	"github.com/langarchive/catalog/internal/sheet"
	"github.com/langarchive/catalog/internal/store"
)

// Outcome is what an editor asks the host to do.
type Outcome int

const (
	Pending Outcome = iota
	Commit
	Cancel
)

// Nav is the navigation requested together with a commit.
type Nav int

const (
	NavNone Nav = iota
	NavDown
	NavTab
	NavBackTab
)

// Result is returned by every Update and Blur.
type Result struct {
	Outcome Outcome
	Value   catalog.Value
	Text    string
	Nav     Nav
}

func pending() Result { return Result{} }

func cancel() Result { return Result{Outcome: Cancel} }

func commit(v catalog.Value, nav Nav) Result {
	return Result{Outcome: Commit, Value: v, Text: catalog.Format(v), Nav: nav}
}

// BlurPolicy says what losing focus does to an editor.
type BlurPolicy int

const (
	BlurCommit BlurPolicy = iota
	BlurCancel
)

// Editor edits one cell.
type Editor interface {
	Key() sheet.CellKey
	Init() tea.Cmd
	Update(msg tea.Msg) (Editor, Result, tea.Cmd)
	// Blur is called when focus moves elsewhere. An editor with a grace
	// period returns Pending and a command; its outcome arrives through a
	// later Update.
	Blur() (Editor, Result, tea.Cmd)
	Policy() BlurPolicy
	View(width int) string
}

// Searcher finds records to reference.
type Searcher interface {
	Search(ctx context.Context, kind, query string, page store.Page) ([]catalog.Ref, error)
}

// Config tunes editor timing.
type Config struct {
	SearchDebounce time.Duration
	BlurGrace      time.Duration
	PageSize       int
}

// DefaultConfig returns the standard editor timings.
func DefaultConfig() Config {
	return Config{
		SearchDebounce: 300 * time.Millisecond,
		BlurGrace:      150 * time.Millisecond,
		PageSize:       20,
	}
}

// Registry opens the editor for a cell.
type Registry struct {
	ctx      context.Context
	searcher Searcher
	sessions *Sessions
	cfg      Config
}

// NewRegistry creates a registry. ctx bounds every search it issues.
func NewRegistry(ctx context.Context, searcher Searcher, cfg Config) *Registry {
	return &Registry{ctx: ctx, searcher: searcher, sessions: NewSessions(), cfg: cfg}
}

// Sessions exposes the chip session store.
func (r *Registry) Sessions() *Sessions { return r.sessions }

// Open returns the editor for cell. Read-only cells have none.
func (r *Registry) Open(col catalog.Column, cell sheet.Cell, key sheet.CellKey) (Editor, bool) {
	if cell.ReadOnly {
		return nil, false
	}
	var ed Editor
	switch col.Type {
	case catalog.TypeText:
		ed = newTextEditor(key, cell, false)
	case catalog.TypeNumeric:
		ed = newTextEditor(key, cell, true)
	case catalog.TypeSingleChoice:
		ed = newChoiceEditor(key, col, cell)
	case catalog.TypeBoolean:
		ed = newBoolEditor(key, cell)
	case catalog.TypeRelationship:
		ed = newRelationshipEditor(key, col, cell, r.newSearch(key, col))
	case catalog.TypeMultiRelationship:
		ed = newChipEditor(key, col, cell, r.sessions, r.newSearch(key, col), true)
	case catalog.TypeTagList:
		ed = newChipEditor(key, col, cell, r.sessions, search{}, false)
	case catalog.TypeReadOnly:
		return nil, false
	default:
		return nil, false
	}
	log.Debug(log.CatEditor, "opened editor", "cell", key.String(), "type", col.Type.String())
	return ed, true
}

func (r *Registry) newSearch(key sheet.CellKey, col catalog.Column) search {
	return newSearch(r.ctx, r.searcher, key, col.Target, r.cfg)
}
