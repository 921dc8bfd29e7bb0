// Package watcher provides file system watching with debouncing for the catalog database.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/langarchive/catalog/internal/log"
	"github.com/langarchive/catalog/internal/pubsub"
)

// EventKind distinguishes watcher events.
type EventKind int

const (
	// DBChanged means another process committed to the database.
	DBChanged EventKind = iota
	// WatcherError carries an fsnotify or change-check failure.
	WatcherError
)

// WatcherEvent is the payload published on the broker.
type WatcherEvent struct {
	Kind EventKind
	Err  error
}

// ChangeFunc reports whether the database changed outside this process.
// The sqlite store's ExternalChange satisfies it.
type ChangeFunc func(ctx context.Context) (bool, error)

// Watcher monitors the catalog database for changes and publishes events.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	dbPath    string
	debounce  time.Duration
	changed   ChangeFunc
	broker    *pubsub.Broker[WatcherEvent]
	done      chan struct{}
}

// Config holds watcher configuration options.
type Config struct {
	DBPath      string
	DebounceDur time.Duration
	// Changed filters debounced notifications. When nil every relevant
	// write is reported.
	Changed ChangeFunc
}

// DefaultConfig returns sensible defaults for the watcher.
func DefaultConfig(dbPath string) Config {
	return Config{
		DBPath:      dbPath,
		DebounceDur: 300 * time.Millisecond,
	}
}

// New creates a new database watcher.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	return &Watcher{
		fsWatcher: fsw,
		dbPath:    cfg.DBPath,
		debounce:  cfg.DebounceDur,
		changed:   cfg.Changed,
		broker:    pubsub.NewBroker[WatcherEvent](),
		done:      make(chan struct{}),
	}, nil
}

// Broker returns the event broker. Subscribe before calling Start to see
// every event.
func (w *Watcher) Broker() *pubsub.Broker[WatcherEvent] { return w.broker }

// Start begins watching the database directory.
func (w *Watcher) Start() error {
	dir := filepath.Dir(w.dbPath)
	if err := w.fsWatcher.Add(dir); err != nil {
		return fmt.Errorf("watching directory %s: %w", dir, err)
	}
	log.Debug(log.CatWatcher, "watching database", "path", w.dbPath, "debounce", w.debounce)

	go w.loop()
	return nil
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	close(w.done)
	w.broker.Close()
	return w.fsWatcher.Close()
}

// loop processes file system events with debouncing.
func (w *Watcher) loop() {
	var (
		timer   *time.Timer
		pending bool
	)

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !w.isRelevantEvent(event) {
				continue
			}

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					// Drain the timer channel if it already fired
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			pending = true

		case <-func() <-chan time.Time {
			if timer != nil {
				return timer.C
			}
			return nil
		}():
			if pending {
				pending = false
				w.notify()
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatcher, "fsnotify error", err, "path", w.dbPath)
			w.broker.Publish(pubsub.FailedEvent, WatcherEvent{Kind: WatcherError, Err: err})

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

func (w *Watcher) notify() {
	if w.changed != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		changed, err := w.changed(ctx)
		cancel()
		if err != nil {
			log.ErrorErr(log.CatWatcher, "change check failed", err, "path", w.dbPath)
			w.broker.Publish(pubsub.FailedEvent, WatcherEvent{Kind: WatcherError, Err: err})
			return
		}
		if !changed {
			log.Debug(log.CatWatcher, "ignoring own write", "path", w.dbPath)
			return
		}
	}
	log.Debug(log.CatWatcher, "database changed", "path", w.dbPath)
	w.broker.Publish(pubsub.UpdatedEvent, WatcherEvent{Kind: DBChanged})
}

// isRelevantEvent checks if the event should trigger a refresh.
func (w *Watcher) isRelevantEvent(event fsnotify.Event) bool {
	// Only care about write or create operations (WAL file may be created fresh)
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return false
	}

	base := filepath.Base(event.Name)
	db := filepath.Base(w.dbPath)
	return base == db || base == db+"-wal"
}
