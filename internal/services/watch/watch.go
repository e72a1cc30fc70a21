// Package watch re-runs a callback when a file changes on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce coalesces the bursts of events editors and exporters produce for one save.
const DefaultDebounce = 200 * time.Millisecond

const nilCallbackMessage = "watch: change callback is nil"

// Options configures a Watcher.
type Options struct {
	Path     string
	Debounce time.Duration
	Logger   *zap.Logger
}

// Watcher reports changes of a single file. The parent directory is watched so
// files replaced by rename are still seen.
type Watcher struct {
	target   string
	debounce time.Duration
	logger   *zap.Logger
	watcher  *fsnotify.Watcher
}

// New starts watching options.Path. Close releases the underlying watcher.
func New(options Options) (*Watcher, error) {
	target, err := filepath.Abs(options.Path)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", options.Path, err)
	}
	debounce := options.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	notifier, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", target, err)
	}
	if err := notifier.Add(filepath.Dir(target)); err != nil {
		_ = notifier.Close()
		return nil, fmt.Errorf("watch %s: %w", target, err)
	}
	return &Watcher{target: target, debounce: debounce, logger: logger, watcher: notifier}, nil
}

// Run calls onChange once per burst of writes to the watched file until ctx is done.
// Callback failures are logged and do not stop the watch.
func (watcher *Watcher) Run(ctx context.Context, onChange func(context.Context) error) error {
	if onChange == nil {
		return errors.New(nilCallbackMessage)
	}
	var debounceTimer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.watcher.Events:
			if !ok {
				return nil
			}
			if !watcher.relevant(event) {
				continue
			}
			watcher.logger.Debug("archive changed", zap.String("path", watcher.target), zap.String("op", event.Op.String()))
			if debounceTimer == nil {
				debounceTimer = time.NewTimer(watcher.debounce)
			} else {
				debounceTimer.Reset(watcher.debounce)
			}
			fire = debounceTimer.C
		case err, ok := <-watcher.watcher.Errors:
			if !ok {
				return nil
			}
			watcher.logger.Warn("watch error", zap.String("path", watcher.target), zap.Error(err))
		case <-fire:
			fire = nil
			if err := onChange(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				watcher.logger.Error("re-dump failed", zap.String("path", watcher.target), zap.Error(err))
			}
		}
	}
}

func (watcher *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != watcher.target {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create) != 0
}

func (watcher *Watcher) Close() error {
	return watcher.watcher.Close()
}
