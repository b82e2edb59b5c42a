package agent

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// watchTaxonomy reloads the taxonomy file on change and invalidates the catalog.
// The directory is watched because editors often replace files on save.
func (a *Agent) watchTaxonomy(ctx context.Context) (*fsnotify.Watcher, error) {
	path, err := filepath.Abs(a.cfg.Taxonomy.File)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve taxonomy path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create taxonomy watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch taxonomy directory: %w", err)
	}

	a.wait.Add(1)
	go func() {
		defer a.wait.Done()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != path || !event.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				a.reloadTaxonomy(path)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				a.log.Warn("Taxonomy watcher error: %v", err)
			}
		}
	}()

	a.log.Info("Watching taxonomy file '%s'", path)
	return watcher, nil
}

func (a *Agent) reloadTaxonomy(path string) {
	tx, cat := a.Taxonomy(), a.Catalog()
	if tx == nil || cat == nil {
		return
	}

	if err := tx.LoadFile(path); err != nil {
		a.log.Warn("Failed to reload taxonomy, keeping previous: %v", err)
		return
	}
	cat.Invalidate()
	a.log.Info("Reloaded taxonomy '%s'", path)
}
