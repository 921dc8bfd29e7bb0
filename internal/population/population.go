// Package population holds the bulk-prefetched record population of one
// kind. The first Get loads it; concurrent callers share that load; a save
// invalidates it. Load progress is published for the status bar.
package population

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/singleflight"

	"github.com/langarchive/catalog/internal/cachemanager"
	"github.com/langarchive/catalog/internal/catalog"
	"github.com/langarchive/catalog/internal/log"
	"github.com/langarchive/catalog/internal/pubsub"
	"github.com/langarchive/catalog/internal/store"
)

// Fetcher loads every record of a kind.
type Fetcher interface {
	FetchAll(ctx context.Context, kind string, progress store.ProgressFunc) ([]catalog.Record, error)
}

// Progress is a snapshot of the current load.
type Progress struct {
	Kind    string
	Loaded  int
	Total   int
	Loading bool
	Done    bool
	Err     error
}

// Fraction returns loaded/total in [0, 1].
func (p Progress) Fraction() float64 {
	if p.Total <= 0 {
		if p.Done {
			return 1
		}
		return 0
	}
	return min(float64(p.Loaded)/float64(p.Total), 1)
}

// LoadedMsg carries the outcome of Start into the update loop. Generation
// identifies the invalidation epoch it was loaded in; a result from before
// the latest Invalidate is stale.
type LoadedMsg struct {
	Kind       string
	Records    []catalog.Record
	Generation uint64
	Err        error
}

// Population is the process-scoped record population of one kind.
type Population struct {
	kind    string
	fetcher Fetcher
	cache   *cachemanager.ReadThroughCache[string, []catalog.Record, string]
	group   singleflight.Group
	broker  *pubsub.Broker[Progress]

	mu       sync.Mutex
	progress Progress
	gen      uint64
}

// New creates an empty population of kind.
func New(kind string, fetcher Fetcher) *Population {
	p := &Population{
		kind:     kind,
		fetcher:  fetcher,
		broker:   pubsub.NewBroker[Progress](),
		progress: Progress{Kind: kind},
	}
	mgr := cachemanager.NewInMemoryCacheManager[string, []catalog.Record]("population", cachemanager.NoExpiration, cachemanager.DefaultCleanupInterval)
	p.cache = cachemanager.NewReadThroughCache[string, []catalog.Record, string](mgr, p.load, false)
	return p
}

func (p *Population) key(gen uint64) string {
	return p.kind + "#" + strconv.FormatUint(gen, 10)
}

// Generation returns the current invalidation epoch.
func (p *Population) Generation() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gen
}

// Get returns the population, loading it on first access.
func (p *Population) Get(ctx context.Context) ([]catalog.Record, error) {
	recs, _, err := p.get(ctx)
	return recs, err
}

func (p *Population) get(ctx context.Context) ([]catalog.Record, uint64, error) {
	gen := p.Generation()
	key := p.key(gen)
	v, err, shared := p.group.Do(key, func() (any, error) {
		return p.cache.Get(ctx, key, key, cachemanager.NoExpiration)
	})
	if shared {
		log.Debug(log.CatPopulation, "joined in-flight load", "kind", p.kind)
	}
	if err != nil {
		return nil, gen, err
	}
	return v.([]catalog.Record), gen, nil
}

func (p *Population) load(ctx context.Context, key string) ([]catalog.Record, error) {
	gen, _ := strconv.ParseUint(key[strings.LastIndexByte(key, '#')+1:], 10, 64)
	p.report(gen, Progress{Kind: p.kind, Loading: true}, pubsub.ProgressEvent)

	recs, err := p.fetcher.FetchAll(ctx, p.kind, func(loaded, total int) {
		p.report(gen, Progress{Kind: p.kind, Loaded: loaded, Total: total, Loading: true}, pubsub.ProgressEvent)
	})
	if err != nil {
		log.ErrorErr(log.CatPopulation, "population load failed", err, "kind", p.kind)
		p.report(gen, Progress{Kind: p.kind, Err: err}, pubsub.FailedEvent)
		return nil, fmt.Errorf("loading %s: %w", p.kind, err)
	}
	log.Info(log.CatPopulation, "population loaded", "kind", p.kind, "records", len(recs))
	p.report(gen, Progress{Kind: p.kind, Loaded: len(recs), Total: len(recs), Done: true}, pubsub.UpdatedEvent)
	return recs, nil
}

// report publishes progress unless the load it belongs to was invalidated.
func (p *Population) report(gen uint64, pr Progress, typ pubsub.EventType) {
	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		return
	}
	p.progress = pr
	p.mu.Unlock()
	p.broker.Publish(typ, pr)
}

// Start loads the population in the background.
func (p *Population) Start(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		recs, gen, err := p.get(ctx)
		return LoadedMsg{Kind: p.kind, Records: recs, Generation: gen, Err: err}
	}
}

// Progress returns the state of the current load.
func (p *Population) Progress() Progress {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.progress
}

// Invalidate drops the population; the next Get reloads it. Loads already
// in flight finish but their results are neither cached for later callers
// nor reported as progress.
func (p *Population) Invalidate(ctx context.Context) {
	p.mu.Lock()
	p.gen++
	p.progress = Progress{Kind: p.kind}
	p.mu.Unlock()
	n := p.cache.Invalidate(ctx, func(k string) bool { return strings.HasPrefix(k, p.kind+"#") })
	log.Debug(log.CatPopulation, "population invalidated", "kind", p.kind, "entries", n)
}

// Subscribe streams progress events until ctx ends.
func (p *Population) Subscribe(ctx context.Context) <-chan pubsub.Event[Progress] {
	return p.broker.Subscribe(ctx)
}

// Close stops publishing.
func (p *Population) Close() { p.broker.Close() }
