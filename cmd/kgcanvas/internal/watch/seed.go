// Package watch reloads live canvases when their seed file changes.
package watch

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce collapses the burst of events an editor save produces.
const DefaultDebounce = 100 * time.Millisecond

// SeedWatcher calls onChange once per burst of writes to a single file.
type SeedWatcher struct {
	path     string
	debounce time.Duration
	onChange func()
	logger   *zap.Logger
	watcher  *fsnotify.Watcher
	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewSeedWatcher starts watching path. The parent directory is watched so
// that editors which replace the file on save are still seen.
func NewSeedWatcher(path string, debounce time.Duration, logger *zap.Logger, onChange func()) (*SeedWatcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsWatcher.Add(filepath.Dir(abs)); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	w := &SeedWatcher{
		path:     abs,
		debounce: debounce,
		onChange: onChange,
		logger:   logger.Named("watch"),
		watcher:  fsWatcher,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	go w.watchLoop()
	w.logger.Info("watching seed file", zap.String("path", abs))
	return w, nil
}

func (w *SeedWatcher) watchLoop() {
	defer close(w.done)
	defer w.watcher.Close()

	debounce := time.NewTimer(0)
	<-debounce.C
	defer debounce.Stop()
	pending := false

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Debug("seed file changed", zap.String("op", event.Op.String()))
			pending = true
			debounce.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("file watcher error", zap.Error(err))

		case <-debounce.C:
			if pending {
				pending = false
				w.onChange()
			}

		case <-w.stopCh:
			return
		}
	}
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *SeedWatcher) Close() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	<-w.done
}
