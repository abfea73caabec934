package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the file at path whenever it is written or replaced and
// passes the result to fn. A failed reload or a watcher error is passed as
// a non-nil error wrapping ErrWatch for watcher errors, and the watch
// continues. Watch blocks until ctx is done. The package never logs; fn
// decides how failures are reported.
//
// The parent directory is watched rather than the file so that editors
// that save by rename are still seen.
func Watch(ctx context.Context, path string, fn func(Config, error)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("config: watch: %w", err)
	}
	if _, err := FormatOf(abs); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: watch: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("config: watch %s: %w", filepath.Dir(abs), err)
	}

	return watchLoop(ctx, abs, watcher.Events, watcher.Errors, fn)
}

// ErrWatch wraps errors reported by the file system watcher.
var ErrWatch = errors.New("config: watcher error")

func watchLoop(ctx context.Context, abs string, events <-chan fsnotify.Event, errs <-chan error, fn func(Config, error)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			fn(LoadFile(abs))
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			fn(Config{}, fmt.Errorf("%w: %s: %w", ErrWatch, abs, err))
		}
	}
}
