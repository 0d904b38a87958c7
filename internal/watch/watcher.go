// Package watch re-runs the sync when markdown files change and on a cron
// schedule.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"

	"github.com/starford/mdnotion/internal/apperr"
	"github.com/starford/mdnotion/internal/storage"
	"github.com/starford/mdnotion/internal/syncservice"
)

// DefaultDebounce is the quiet period after the last change before a run.
const DefaultDebounce = 2 * time.Second

// SyncFunc performs one run.
type SyncFunc func(ctx context.Context, trigger string) error

// Watcher turns file changes and schedule ticks into serialized runs.
type Watcher struct {
	root     string
	sync     SyncFunc
	debounce time.Duration
	schedule string
	initial  bool
	logger   *slog.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period between the last change and a run.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithSchedule adds a periodic run on a cron expression, e.g. "@every 1h".
func WithSchedule(expr string) Option {
	return func(w *Watcher) { w.schedule = strings.TrimSpace(expr) }
}

// WithInitialRun runs once as soon as the watcher starts.
func WithInitialRun() Option {
	return func(w *Watcher) { w.initial = true }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// New creates a Watcher over the markdown tree at root.
func New(root string, sync SyncFunc, opts ...Option) *Watcher {
	w := &Watcher{root: root, sync: sync, debounce: DefaultDebounce, logger: slog.Default()}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Run watches until ctx is cancelled. At most one run is active at a time;
// triggers arriving during a run coalesce into one follow-up run.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer fw.Close()

	if err := addDirsRecursive(fw, w.root); err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	ticks := make(chan struct{}, 1)
	if w.schedule != "" {
		c := cron.New()
		if _, err := c.AddFunc(w.schedule, func() {
			select {
			case ticks <- struct{}{}:
			default:
			}
		}); err != nil {
			return fmt.Errorf("watch: invalid schedule %q: %w", w.schedule, err)
		}
		c.Start()
		defer c.Stop()
	}

	w.logger.Info("watcher: started", slog.String("root", w.root), slog.String("schedule", w.schedule))

	var (
		debounceTimer *time.Timer
		debounceCh    <-chan time.Time
		done          = make(chan struct{})
		running       bool
		pending       string
	)

	start := func(trigger string) {
		if running {
			pending = trigger
			w.logger.Debug("watcher: run active, queued", slog.String("trigger", trigger))
			return
		}
		running = true
		go func() {
			defer func() { done <- struct{}{} }()
			w.runOnce(ctx, trigger)
		}()
	}

	if w.initial {
		start(syncservice.TriggerStartup)
	}

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			if running {
				<-done
			}
			w.logger.Info("watcher: stopped")
			return nil

		case <-done:
			running = false
			if pending != "" {
				trigger := pending
				pending = ""
				start(trigger)
			}

		case <-debounceCh:
			debounceCh = nil
			start(syncservice.TriggerWatch)

		case <-ticks:
			start(syncservice.TriggerSchedule)

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(fw, ev) {
				continue
			}
			if debounceTimer == nil {
				debounceTimer = time.NewTimer(w.debounce)
			} else {
				debounceTimer.Reset(w.debounce)
			}
			debounceCh = debounceTimer.C

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// relevant reports whether ev may change the document set. New directories
// are added to the watch list on the way.
func (w *Watcher) relevant(fw *fsnotify.Watcher, ev fsnotify.Event) bool {
	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := addDirsRecursive(fw, ev.Name); err != nil {
				w.logger.Warn("watcher: add new dir failed",
					slog.String("path", ev.Name),
					slog.String("error", err.Error()))
			}
			return true
		}
	}
	if strings.HasSuffix(ev.Name, storage.MarkdownExt) {
		return ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0
	}
	// A removed or renamed directory takes its documents with it.
	if ev.Op&(fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	for _, dir := range fw.WatchList() {
		if dir == ev.Name {
			return true
		}
	}
	return false
}

func (w *Watcher) runOnce(ctx context.Context, trigger string) {
	err := w.sync(ctx, trigger)
	switch {
	case err == nil:
	case errors.Is(err, apperr.ErrRunInProgress):
		w.logger.Info("watcher: run skipped, another run is active", slog.String("trigger", trigger))
	case errors.Is(err, context.Canceled):
	default:
		w.logger.Error("watcher: run failed", slog.String("trigger", trigger), slog.String("error", err.Error()))
	}
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
