// Package watcher keeps the asset catalog in step with the input
// folder. Filesystem events are coalesced per path, classified by burst
// size and handed to the catalog scanner; deletions drop the row
// directly so the load_mesh dropdown never offers a file that is gone.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/geomnodes/geomnodes/internal/catalog"
	"github.com/geomnodes/geomnodes/internal/logger"
	"github.com/geomnodes/geomnodes/internal/meshio"
)

var log = logger.ForComponent("watcher")

type WatcherConfig struct {
	Enabled        bool          `json:"enabled"`
	DebounceWindow time.Duration `json:"debounce_window"`
	MaxBatchSize   int           `json:"max_batch_size"`
	IgnorePatterns []string      `json:"ignore_patterns"`
	WatchHidden    bool          `json:"watch_hidden"`
}

func DefaultWatcherConfig() WatcherConfig {
	return WatcherConfig{
		Enabled:        true,
		DebounceWindow: 300 * time.Millisecond,
		MaxBatchSize:   100,
		IgnorePatterns: []string{
			"**/.git/**",
			"**/*.tmp",
			"**/*.swp",
			"**/*.blend1",
			"**/preview_*.glb",
			"**/analysis_*.vtp",
		},
		WatchHidden: false,
	}
}

type Watcher struct {
	config  WatcherConfig
	fsw     *fsnotify.Watcher
	pending *coalescer
	scanner *catalog.Scanner
	store   *catalog.Store
	cancel  context.CancelFunc
	done    chan struct{}
}

func New(config WatcherConfig, scanner *catalog.Scanner, store *catalog.Store) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		config:  config,
		fsw:     fsw,
		scanner: scanner,
		store:   store,
		done:    make(chan struct{}),
	}
	w.pending = newCoalescer(config.DebounceWindow, config.MaxBatchSize, w.flush)
	return w, nil
}

// AddRoot watches a folder tree and enqueues its current mesh files at
// low priority so a fresh daemon fills the catalog without blocking
// interactive work.
func (w *Watcher) AddRoot(path string) error {
	log.Info("watching asset root", "path", path)
	if err := w.fsw.Add(path); err != nil {
		return err
	}
	return w.seed(path)
}

func (w *Watcher) seed(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Debug("cannot read directory", "path", dir, "error", err)
		return err
	}
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if w.ignored(path) {
			continue
		}
		switch {
		case entry.IsDir():
			if err := w.fsw.Add(path); err != nil {
				log.Debug("cannot watch directory", "path", path, "error", err)
				continue
			}
			w.seed(path)
		case meshio.CanLoad(path):
			w.scanner.Enqueue(catalog.ScanJob{Path: path, Priority: catalog.PriorityLow})
		}
	}
	return nil
}

func (w *Watcher) Start(ctx context.Context) error {
	ctx, w.cancel = context.WithCancel(ctx)
	go w.pending.run(ctx)
	go w.loop(ctx)
	return nil
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Debug("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if w.ignored(event.Name) {
		return
	}
	log.Debug("file event", "path", event.Name, "op", event.Op.String())

	// New subfolders need their own watch; their contents arrive as
	// further create events only on some platforms, so seed explicitly.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.fsw.Add(event.Name); err == nil {
				w.seed(event.Name)
			}
			return
		}
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	w.pending.add(change{
		path: event.Name,
		gone: event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename),
	})
}

// flush routes a coalesced batch: vanished paths lose their catalog row
// (a rename delivers the old path; the new one arrives as a create),
// everything loadable goes to the scanner at a priority set by burst
// size. A couple of files is someone saving in the input folder and
// probes ahead of queued work; a big burst is a bulk copy and waits.
func (w *Watcher) flush(batch []change) {
	log.Debug("flushing changes", "count", len(batch))
	priority := burstPriority(len(batch))
	for _, c := range batch {
		if c.gone {
			if w.store != nil {
				if err := w.store.DeleteAsset(c.path); err != nil {
					log.Debug("cannot drop asset", "path", c.path, "error", err)
				}
			}
			continue
		}
		if meshio.CanLoad(c.path) {
			w.scanner.Enqueue(catalog.ScanJob{Path: c.path, Priority: priority})
		}
	}
}

func burstPriority(n int) catalog.JobPriority {
	switch {
	case n > 10:
		return catalog.PriorityLow
	case n >= 3:
		return catalog.PriorityNormal
	default:
		return catalog.PriorityHigh
	}
}

func (w *Watcher) ignored(path string) bool {
	if !w.config.WatchHidden && strings.HasPrefix(filepath.Base(path), ".") {
		return true
	}
	for _, pattern := range w.config.IgnorePatterns {
		if ok, _ := doublestar.Match(pattern, path); ok {
			return true
		}
	}
	return false
}

func (w *Watcher) Stop() error {
	log.Info("stopping asset watcher")
	if w.cancel != nil {
		w.cancel()
		<-w.done
	}
	return w.fsw.Close()
}
