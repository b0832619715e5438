package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the config file at path whenever it is written or replaced
// and calls onChange with each successfully parsed result. Invalid edits are
// logged and skipped so the previous config stays active.
//
// Watch blocks until ctx is cancelled.
func Watch(ctx context.Context, path string, logger *slog.Logger, onChange func(Loaded)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace the file, so watch the directory.
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch config dir %q: %w", dir, err)
	}

	name := filepath.Base(path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}

			loaded, err := Load(path)
			if err != nil {
				if logger != nil {
					logger.Warn("config reload failed", "path", path, "error", err.Error())
				}
				continue
			}
			// Truncate-then-write shows up as an empty file first.
			if !loaded.Exists || loaded.Format == "" {
				continue
			}
			if logger != nil {
				logger.Info("config reloaded", "path", path, "warnings", len(loaded.Warnings))
			}
			onChange(loaded)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if logger != nil {
				logger.Warn("config watcher error", "error", err.Error())
			}
		}
	}
}
