package finder

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// Watcher reports changes to definition files below a set of roots. Bursts of
// events are collapsed into one callback per debounce window.
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
}

func NewWatcher(debounce time.Duration) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Errorf("creating watcher: %w", err)
	}
	return &Watcher{watcher: w, debounce: debounce}, nil
}

// Add watches root and every directory below it. A file root watches its
// directory so editors that replace the file are still seen.
func (w *Watcher) Add(roots ...string) error {
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return errors.Errorf("watching %s: %w", root, err)
		}
		if !info.IsDir() {
			root = filepath.Dir(root)
		}
		err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			return w.watcher.Add(p)
		})
		if err != nil {
			return errors.Errorf("watching %s: %w", root, err)
		}
	}
	return nil
}

// Run blocks until ctx is done, calling onChange with the last changed path of
// each burst.
func (w *Watcher) Run(ctx context.Context, onChange func(ctx context.Context, path string)) error {
	logger := zerolog.Ctx(ctx)
	defer w.watcher.Close()

	var timer *time.Timer
	var fire <-chan time.Time
	var last string

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			logger.Trace().Str("file", event.Name).Str("op", event.Op.String()).Msg("definition file changed")
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.watcher.Add(event.Name)
				}
			}
			last = event.Name
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			onChange(ctx, last)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error().Err(err).Msg("watcher error")
		}
	}
}

func relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	ext := filepath.Ext(event.Name)
	return ext == "" || slices.Contains(DefaultExtensions, ext)
}
