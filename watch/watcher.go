// Package watch hot-reloads the spell registry when definition files change
// on disk.
package watch

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/quickspell/core/logging"
)

// SpellWatcher watches a spells directory and invokes a reload callback
// after changes settle. Rapid bursts of writes (editors save in several
// steps) collapse into a single reload.
type SpellWatcher struct {
	watcher  *fsnotify.Watcher
	dir      string
	debounce time.Duration
	onReload func()

	mu    sync.Mutex
	timer *time.Timer

	logger *logrus.Entry
}

// NewSpellWatcher watches dir for spell file changes. debounceMs controls
// how long changes must settle before onReload fires.
func NewSpellWatcher(dir string, debounceMs int, onReload func()) (*SpellWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}
	if debounceMs <= 0 {
		debounceMs = 500
	}
	return &SpellWatcher{
		watcher:  watcher,
		dir:      dir,
		debounce: time.Duration(debounceMs) * time.Millisecond,
		onReload: onReload,
		logger:   logging.NewLogger("spell-watcher"),
	}, nil
}

// Start consumes filesystem events until the context is cancelled.
func (w *SpellWatcher) Start(ctx context.Context) {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !isSpellFile(event.Name) {
				continue
			}
			w.logger.WithFields(logrus.Fields{
				"file": filepath.Base(event.Name),
				"op":   event.Op.String(),
			}).Debug("Spell file changed")
			w.scheduleReload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Error("Watcher error")
		case <-ctx.Done():
			w.watcher.Close()
			return
		}
	}
}

// scheduleReload arms the debounce timer, restarting it if already pending.
func (w *SpellWatcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.logger.Info("Spells changed, reloading")
		w.onReload()
	})
}

// Close stops the watcher and releases resources.
func (w *SpellWatcher) Close() error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.watcher.Close()
}

func isSpellFile(name string) bool {
	return strings.HasSuffix(name, ".yml") || strings.HasSuffix(name, ".yaml")
}
