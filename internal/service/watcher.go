package service

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/errdetective/internal/logfields"
	"git.home.luguber.info/inful/errdetective/internal/metrics"
)

// DefaultDebounce collapses bursts of editor writes into one reload.
const DefaultDebounce = 500 * time.Millisecond

// OverlayWatcher rebuilds the analyzer when the catalog overlay file
// changes. A reload that fails keeps the previous analyzer.
type OverlayWatcher struct {
	path     string
	holder   *Holder
	build    BuildFunc
	recorder metrics.Recorder
	logger   *slog.Logger
	debounce time.Duration

	watcher *fsnotify.Watcher
	once    sync.Once
	done    chan struct{}
}

func NewOverlayWatcher(path string, holder *Holder, build BuildFunc, recorder metrics.Recorder, logger *slog.Logger) (*OverlayWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve overlay path: %w", err)
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OverlayWatcher{
		path:     abs,
		holder:   holder,
		build:    build,
		recorder: recorder,
		logger:   logger,
		debounce: DefaultDebounce,
		done:     make(chan struct{}),
	}, nil
}

// SetDebounce must be called before Start.
func (w *OverlayWatcher) SetDebounce(d time.Duration) {
	if d > 0 {
		w.debounce = d
	}
}

// Start watches the overlay's directory, which survives editors that
// replace the file by rename.
func (w *OverlayWatcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	dir := filepath.Dir(w.path)
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.watcher = fsw
	w.logger.LogAttrs(ctx, slog.LevelInfo, "Watching catalog overlay", logfields.Path(w.path))
	go w.loop(ctx)
	return nil
}

// Stop ends watching and waits for the loop to exit.
func (w *OverlayWatcher) Stop() error {
	if w.watcher == nil {
		return nil
	}
	var err error
	w.once.Do(func() { err = w.watcher.Close() })
	<-w.done
	return err
}

func (w *OverlayWatcher) loop(ctx context.Context) {
	defer close(w.done)
	base := filepath.Base(w.path)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != base {
				continue
			}
			switch {
			case ev.Has(fsnotify.Write), ev.Has(fsnotify.Create), ev.Has(fsnotify.Rename):
				if timer == nil {
					timer = time.NewTimer(w.debounce)
				} else {
					timer.Reset(w.debounce)
				}
				fire = timer.C
			case ev.Has(fsnotify.Remove):
				w.logger.LogAttrs(ctx, slog.LevelWarn, "Catalog overlay removed; keeping current tables", logfields.Path(w.path))
			}
		case <-fire:
			fire = nil
			_ = w.Reload(ctx)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.LogAttrs(ctx, slog.LevelError, "Overlay watcher error", logfields.Error(err))
		}
	}
}

// Reload rebuilds the analyzer from the overlay now.
func (w *OverlayWatcher) Reload(ctx context.Context) error {
	a, err := w.build(w.path)
	w.recorder.IncCatalogReload(err == nil)
	if err != nil {
		w.logger.LogAttrs(ctx, slog.LevelError, "Catalog reload failed; keeping current tables",
			logfields.Path(w.path),
			logfields.Error(err),
		)
		return err
	}
	w.holder.Store(a)
	w.logger.LogAttrs(ctx, slog.LevelInfo, "Catalog reloaded", logfields.Path(w.path))
	return nil
}
