// internal/watch/watcher.go
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"namenizer/internal/scanner"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultQuiet is how long a directory has to stay unchanged before the
// change callback fires. A rename batch touches many names at once.
const DefaultQuiet = 200 * time.Millisecond

// Watcher reports changes to the immediate entries of one directory.
type Watcher struct {
	dir     string
	quiet   time.Duration
	watcher *fsnotify.Watcher
	logger  *zap.Logger
}

// New starts watching dir. Close must be called to release the watch.
func New(dir string, quiet time.Duration, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if quiet <= 0 {
		quiet = DefaultQuiet
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", dir, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	if err := w.Add(abs); err != nil {
		w.Close()
		return nil, fmt.Errorf("adding directory to watcher: %w", err)
	}

	return &Watcher{
		dir:     abs,
		quiet:   quiet,
		watcher: w,
		logger:  logger,
	}, nil
}

// Run blocks until ctx is done, calling onChange once per burst of events
// on visible entries.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	timer := time.NewTimer(w.quiet)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("Directory changed",
				zap.String("path", event.Name),
				zap.String("op", event.Op.String()))
			timer.Reset(w.quiet)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", zap.Error(err))

		case <-timer.C:
			onChange()
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if scanner.IsHidden(event.Name) {
		return false
	}
	return event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename|fsnotify.Write) != 0
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}
