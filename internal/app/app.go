// Package app contains the root application model.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/langarchive/catalog/internal/catalog"
	"github.com/langarchive/catalog/internal/clipcodec"
	"github.com/langarchive/catalog/internal/config"
	"github.com/langarchive/catalog/internal/editors"
	"github.com/langarchive/catalog/internal/flags"
	"github.com/langarchive/catalog/internal/history"
	"github.com/langarchive/catalog/internal/log"
	"github.com/langarchive/catalog/internal/population"
	"github.com/langarchive/catalog/internal/pubsub"
	"github.com/langarchive/catalog/internal/selection"
	"github.com/langarchive/catalog/internal/sheet"
	"github.com/langarchive/catalog/internal/store"
	"github.com/langarchive/catalog/internal/ui/grid"
	"github.com/langarchive/catalog/internal/ui/help"
	"github.com/langarchive/catalog/internal/ui/logview"
	"github.com/langarchive/catalog/internal/ui/toaster"
	"github.com/langarchive/catalog/internal/validation"
	"github.com/langarchive/catalog/internal/watcher"
)

// Options wires the application to its collaborators.
type Options struct {
	Store      store.Store
	Config     config.Config
	ConfigPath string
	// DBPath enables the auto-refresh watcher when set and auto refresh is on.
	DBPath string
	// Changed filters watcher events down to commits made by other clients.
	Changed    watcher.ChangeFunc
	Clipboard  clipcodec.Clipboard
	Flags      *flags.Registry
	ImportPath string
}

type busyState int

const (
	notBusy busyState = iota
	busySaving
	busyRefreshing
)

func (b busyState) String() string {
	switch b {
	case busySaving:
		return "saving"
	case busyRefreshing:
		return "refreshing"
	}
	return "idle"
}

// confirmation is a yes/no prompt shown in the status line.
type confirmation struct {
	prompt string
	action func(Model) (Model, tea.Cmd)
}

type click struct {
	pos selection.Position
	at  time.Time
}

// doubleClickWindow is the longest gap between two clicks on the same cell
// that still counts as a double click.
const doubleClickWindow = 400 * time.Millisecond

// Model is the root application state.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	store      store.Store
	schema     catalog.Schema
	cfg        config.Config
	configPath string
	flags      *flags.Registry
	clip       clipcodec.Clipboard

	sheet     *sheet.Sheet
	history   *history.Stack
	sel       *selection.State
	grid      *grid.Model
	editors   *editors.Registry
	validator *validation.Validator
	pop       *population.Population

	editor editors.Editor
	// blurTarget is the click that blurred an editor still in its grace period.
	blurTarget *selection.Position
	lastClick  click

	busy       busyState
	loaded     bool
	total      int
	progress   population.Progress
	progressCh <-chan pubsub.Event[population.Progress]
	// remoteChanged is set when the watcher saw a change that was not applied.
	remoteChanged bool
	importPath    string
	confirm       *confirmation
	widthsToken   int
	panel         string

	toaster  toaster.Model
	help     help.Model
	showHelp bool
	logs     logview.Model
	width    int
	height   int

	watcher         *watcher.Watcher
	watcherListener *pubsub.ContinuousListener[watcher.WatcherEvent]
	logListener     *log.LogListener

	now func() time.Time
}

// New creates the application model for cfg.Kind.
func New(opts Options) (Model, error) {
	if opts.Store == nil {
		return Model{}, errors.New("app: store is required")
	}
	schema, err := catalog.Lookup(opts.Config.Kind)
	if err != nil {
		return Model{}, err
	}
	clip := opts.Clipboard
	if clip == nil {
		clip = clipcodec.Detect()
	}
	ctx, cancel := context.WithCancel(context.Background())

	sh := sheet.New(schema)
	hist := history.New(opts.Config.Grid.HistoryDepth)
	sh.SetRecorder(hist)
	sel := selection.New(0, len(schema.Columns))
	g := grid.New(sh, sel, opts.Config.Grid.RowHeight, opts.Config.Grid.Overscan, opts.Config.Widths(schema.Kind))

	pop := population.New(schema.Kind, opts.Store)

	m := Model{
		ctx:        ctx,
		cancel:     cancel,
		store:      opts.Store,
		schema:     schema,
		cfg:        opts.Config,
		configPath: opts.ConfigPath,
		flags:      opts.Flags,
		clip:       clip,
		sheet:      sh,
		history:    hist,
		sel:        sel,
		grid:       g,
		editors: editors.NewRegistry(ctx, opts.Store, editors.Config{
			SearchDebounce: opts.Config.Editor.SearchDebounce,
			BlurGrace:      opts.Config.Editor.BlurGrace,
			PageSize:       opts.Config.Editor.SearchPageSize,
		}),
		validator:  validation.New(schema, opts.Store),
		pop:        pop,
		progressCh: pop.Subscribe(ctx),
		importPath: opts.ImportPath,
		toaster:    toaster.New(),
		help:       help.New(opts.Config.UI.MarkdownStyle),
		now:        time.Now,
	}

	m.logListener = log.NewListener(ctx)
	m.logs = logview.New(m.logListener != nil)

	if opts.Config.AutoRefresh && opts.DBPath != "" {
		w, err := startWatcher(opts)
		if err != nil {
			log.Warn(log.CatWatcher, "Auto refresh unavailable", "path", opts.DBPath, "error", err)
		} else {
			m.watcher = w
			m.watcherListener = pubsub.NewContinuousListener(ctx, w.Broker())
		}
	}

	log.Info(log.CatUI, "app created", "kind", schema.Kind, "autoRefresh", m.watcher != nil)
	return m, nil
}

func startWatcher(opts Options) (*watcher.Watcher, error) {
	cfg := watcher.DefaultConfig(opts.DBPath)
	cfg.Changed = opts.Changed
	if opts.Config.AutoRefreshDebounce > 0 {
		cfg.DebounceDur = opts.Config.AutoRefreshDebounce
	}
	w, err := watcher.New(cfg)
	if err != nil {
		return nil, err
	}
	if err := w.Start(); err != nil {
		_ = w.Stop()
		return nil, err
	}
	return w, nil
}

// Init loads the first page, starts the background population load and
// subscribes to watcher and progress events.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.fetchPage(),
		m.pop.Start(m.ctx),
		pubsub.LatestCmd(m.ctx, m.progressCh),
	}
	if m.watcherListener != nil {
		cmds = append(cmds, m.watcherListener.Listen())
	}
	if m.logListener != nil {
		cmds = append(cmds, m.logListener.Listen())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m, cmd := m.update(msg)
	m.layout()
	return m, cmd
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.toaster = m.toaster.SetSize(msg.Width, msg.Height)
		m.help = m.help.SetSize(msg.Width, msg.Height)
		m.logs = m.logs.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case pageLoadedMsg:
		return m.handlePage(msg)

	case population.LoadedMsg:
		return m.handlePopulation(msg)

	case pubsub.Event[population.Progress]:
		m.progress = msg.Payload
		return m, pubsub.LatestCmd(m.ctx, m.progressCh)

	case refreshedMsg:
		return m.handleRefreshed(msg)

	case savedMsg:
		return m.handleSaved(msg)

	case importedMsg:
		return m.handleImported(msg)

	case validation.ResultMsg:
		m.validator.Apply(m.sheet, msg)
		return m, nil

	case saveWidthsMsg:
		return m.handleSaveWidths(msg)

	case pubsub.Event[watcher.WatcherEvent]:
		return m.handleWatcher(msg)

	case log.LogEvent:
		m.logs = m.logs.Append(msg.Payload)
		var listen tea.Cmd
		if m.logListener != nil {
			listen = m.logListener.Listen()
		}
		return m, listen

	case toaster.DismissMsg:
		m.toaster = m.toaster.Update(msg)
		return m, nil
	}

	// Search results, debounce ticks and grace timers belong to the editor.
	if m.editor != nil {
		return m.updateEditor(msg)
	}
	return m, nil
}

func (m Model) handleWatcher(msg pubsub.Event[watcher.WatcherEvent]) (Model, tea.Cmd) {
	var listen tea.Cmd
	if m.watcherListener != nil {
		listen = m.watcherListener.Listen()
	}
	switch msg.Payload.Kind {
	case watcher.DBChanged:
		log.Debug(log.CatWatcher, "catalog changed on disk", "busy", m.busy.String(), "changes", m.sheet.HasChanges())
		m.pop.Invalidate(m.ctx)
		if m.busy != notBusy || m.editor != nil || m.confirm != nil {
			m.remoteChanged = true
			return m, listen
		}
		if m.sheet.HasChanges() {
			m.remoteChanged = true
			var cmd tea.Cmd
			m.toaster, cmd = m.toaster.Show("Records changed elsewhere. Save or press ctrl+r to reload.", toaster.StyleWarn, toaster.DefaultDuration)
			return m, tea.Batch(cmd, listen)
		}
		m, cmd := m.startRefresh(true)
		return m, tea.Batch(cmd, listen)

	case watcher.WatcherError:
		log.Warn(log.CatWatcher, "Watcher error received", "error", msg.Payload.Err)
	}
	return m, listen
}

func (m Model) showToast(message string, style toaster.Style) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.toaster, cmd = m.toaster.Show(message, style, toaster.DefaultDuration)
	return m, cmd
}

func (m Model) showError(prefix string, err error) (Model, tea.Cmd) {
	var te *store.TransportError
	if errors.As(err, &te) {
		return m.showToast(fmt.Sprintf("%s: store unavailable (%v)", prefix, te.Err), toaster.StyleError)
	}
	return m.showToast(fmt.Sprintf("%s: %v", prefix, err), toaster.StyleError)
}

// Close releases resources held by the application.
func (m *Model) Close() error {
	if m.cancel != nil {
		m.cancel()
	}
	m.pop.Close()
	if m.watcher != nil {
		if err := m.watcher.Stop(); err != nil {
			return err
		}
	}
	return nil
}
