package catalog

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/comigor/bodi-go/internal/logger"
)

// WatchSeed calls apply with the parsed contents of the seed file at path
// every time it is written or replaced. A file that fails to parse is logged
// and skipped. WatchSeed blocks until ctx is done.
func WatchSeed(ctx context.Context, path string, apply func(context.Context, []Entry) error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// Watch the directory; editors often save by renaming a temp file over the target.
	target := filepath.Clean(path)
	if err := w.Add(filepath.Dir(target)); err != nil {
		return err
	}
	logger.L.Info("watching seed file", "file", target)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			entries, err := SeedFile(target).Load(ctx)
			if err != nil {
				logger.L.Warn("seed file changed but could not be loaded", "file", target, "error", err)
				continue
			}
			if err := apply(ctx, entries); err != nil {
				logger.L.Warn("applying seed file failed", "file", target, "error", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.L.Warn("seed watcher error", "error", err)
		}
	}
}
