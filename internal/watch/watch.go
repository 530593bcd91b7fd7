// Package watch reruns a build whenever a file's contents change.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/zeebo/xxh3"
	"go.uber.org/zap"
)

// DefaultDelay is how long the watcher waits after the last event before
// rebuilding. Compilers tend to write output in several steps.
const DefaultDelay = 100 * time.Millisecond

// BuildFunc regenerates outputs from the watched file. It may rewrite the
// file itself; the watcher does not react to its own changes.
type BuildFunc func(ctx context.Context) error

// Watcher rebuilds when the contents of one file change. Events are
// coalesced and filtered by content hash, so a touch or a rewrite with
// identical bytes does not trigger a build.
type Watcher struct {
	path  string
	delay time.Duration

	last   uint64
	hashed bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDelay sets the debounce delay.
func WithDelay(d time.Duration) Option {
	return func(w *Watcher) {
		w.delay = d
	}
}

// New returns a watcher for path.
func New(path string, opts ...Option) *Watcher {
	w := &Watcher{path: path, delay: DefaultDelay}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run builds once, then again after every change to the file's contents,
// until ctx is cancelled. Build failures are logged and do not stop the
// watcher.
func (w *Watcher) Run(ctx context.Context, build BuildFunc) error {
	abs, err := filepath.Abs(w.path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", w.path, err)
	}
	w.path = abs

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	// The directory is watched rather than the file so that replacements
	// by rename are seen.
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	if err := w.rebuild(ctx, build); err != nil {
		Logger().Warn("build failed", zap.String("path", abs), zap.Error(err))
	}

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				timer.Reset(w.delay)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			Logger().Warn("watch error", zap.Error(err))

		case <-timer.C:
			changed, err := w.changed()
			if err != nil {
				Logger().Debug("file not readable, waiting", zap.String("path", abs), zap.Error(err))
				continue
			}
			if !changed {
				Logger().Debug("contents unchanged, skipping", zap.String("path", abs))
				continue
			}
			if err := w.rebuild(ctx, build); err != nil {
				Logger().Warn("rebuild failed", zap.String("path", abs), zap.Error(err))
			}
		}
	}
}

// rebuild runs build and records the file's hash afterwards, so that
// writes made by build itself are not seen as changes.
func (w *Watcher) rebuild(ctx context.Context, build BuildFunc) error {
	start := time.Now()
	err := build(ctx)

	if h, herr := hashFile(w.path); herr == nil {
		w.last, w.hashed = h, true
	}

	if err != nil {
		return err
	}
	Logger().Info("rebuilt", zap.String("path", w.path), zap.Duration("took", time.Since(start)))
	return nil
}

func (w *Watcher) changed() (bool, error) {
	h, err := hashFile(w.path)
	if err != nil {
		return false, err
	}
	return !w.hashed || h != w.last, nil
}

func hashFile(path string) (uint64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return xxh3.Hash(data), nil
}
