// Package watch follows a working directory and hands new fit output files to a handler
// once they stopped changing.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrSkip is returned by a Handler for files it ignores on purpose.
var ErrSkip = errors.New("file skipped")

// DefaultPattern matches the files handed to the handler.
const DefaultPattern = "*.fits"

// Handler processes one settled file.
type Handler func(ctx context.Context, path string) error

// Watcher hands files of a directory to a Handler.
type Watcher struct {
	dir     string
	pattern string
	settle  time.Duration
	handle  Handler

	log *slog.Logger
}

type options struct {
	pattern string
	settle  time.Duration
	logger  *slog.Logger
}

// Options represents an optional function to override Watcher default values.
type Options func(*options)

// WithPattern sets the glob pattern, matched against base names, of the handled files.
func WithPattern(pattern string) Options {
	return func(o *options) {
		o.pattern = pattern
	}
}

// WithSettleDelay sets how long a file must stay unchanged before being handled.
func WithSettleDelay(d time.Duration) Options {
	return func(o *options) {
		o.settle = d
	}
}

// WithLogger sets the logger of the watcher.
func WithLogger(l *slog.Logger) Options {
	return func(o *options) {
		o.logger = l
	}
}

// New creates a watcher of dir calling handle for each matching file.
func New(dir string, handle Handler, args ...Options) (*Watcher, error) {
	opts := options{
		pattern: DefaultPattern,
		settle:  500 * time.Millisecond,
		logger:  slog.Default(),
	}

	for _, opt := range args {
		opt(&opts)
	}

	if _, err := filepath.Match(opts.pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %v", opts.pattern, err)
	}

	return &Watcher{
		dir:     dir,
		pattern: opts.pattern,
		settle:  opts.settle,
		handle:  handle,
		log:     opts.logger,
	}, nil
}

// Watch starts watching the directory until ctx is done.
//
// It returns two channels: one for files successfully handled and another for unrecoverable watcher errors.
// Both are closed once watching stops.
func (w *Watcher) Watch(ctx context.Context) (handled <-chan string, errors <-chan error, err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create watcher: %v", err)
	}
	if err := watcher.Add(w.dir); err != nil {
		watcher.Close()
		return nil, nil, fmt.Errorf("failed to add directory %s to watcher: %v", w.dir, err)
	}

	w.log.Info("Watching directory", "dir", w.dir, "pattern", w.pattern)
	handledCh := make(chan string, 16)
	errorsCh := make(chan error, 1)
	settled := make(chan string)
	done := make(chan struct{})

	var mu sync.Mutex
	timers := make(map[string]*time.Timer)
	stopTimers := func() {
		mu.Lock()
		defer mu.Unlock()
		for _, t := range timers {
			t.Stop()
		}
	}
	// schedule (re)starts the settle delay of path.
	schedule := func(path string) {
		mu.Lock()
		defer mu.Unlock()
		if t, ok := timers[path]; ok {
			t.Reset(w.settle)
			return
		}
		timers[path] = time.AfterFunc(w.settle, func() {
			mu.Lock()
			delete(timers, path)
			mu.Unlock()

			select {
			case settled <- path:
			case <-done:
			}
		})
	}

	go func() {
		defer close(handledCh)
		defer close(errorsCh)
		defer watcher.Close()
		defer stopTimers()
		defer close(done)

		for {
			select {
			case <-ctx.Done():
				w.log.Info("Directory watcher stopped")
				return
			case event, ok := <-watcher.Events:
				if !ok {
					errorsCh <- fmt.Errorf("watcher events channel closed unexpectedly")
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if match, _ := filepath.Match(w.pattern, filepath.Base(event.Name)); !match {
					continue
				}

				w.log.Debug("File changed", "path", event.Name, "op", event.Op)
				schedule(event.Name)

			case path := <-settled:
				err := w.handle(ctx, path)
				if err != nil {
					if !isSkip(err) {
						w.log.Warn("Could not handle file", "path", path, "err", err)
					} else {
						w.log.Debug("File skipped", "path", path, "reason", err)
					}
					continue
				}

				select {
				case handledCh <- path:
				default:
					w.log.Debug("Handled file notification dropped", "path", path)
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					errorsCh <- fmt.Errorf("watcher errors channel closed unexpectedly")
					return
				}
				w.log.Warn("Watcher error", "err", err)
			}
		}
	}()

	return handledCh, errorsCh, nil
}

func isSkip(err error) bool {
	return errors.Is(err, ErrSkip)
}
