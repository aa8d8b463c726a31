// Watches store files for modifications made outside the process.

package fsio

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"
)

// Watch calls onChange with the file name each time one of paths is created,
// written, removed or renamed. It watches the parent directories so files
// that do not exist yet are covered too.
//
// The watcher runs until ctx is cancelled. onChange runs on the watcher
// goroutine.
func Watch(ctx context.Context, onChange func(name string), paths ...string) error {
	if len(paths) == 0 {
		return fmt.Errorf("no path to watch")
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	want := make(map[string]bool, len(paths))
	dirs := make(map[string]bool, len(paths))
	for _, p := range paths {
		p = filepath.Clean(p)
		want[p] = true
		dir := filepath.Dir(p)
		if dirs[dir] {
			continue
		}
		dirs[dir] = true
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	// A flapping file system can emit a stream of errors; keep the log usable.
	warn := rate.Sometimes{First: 3, Interval: 10 * time.Second}
	go func() {
		defer func() { _ = w.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				name := filepath.Clean(event.Name)
				if !want[name] {
					continue
				}
				if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
					slog.DebugContext(ctx, "Store file changed", "path", name, "op", event.Op.String())
					onChange(name)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				warn.Do(func() {
					slog.WarnContext(ctx, "Error watching store files", "err", err)
				})
			}
		}
	}()
	return nil
}
