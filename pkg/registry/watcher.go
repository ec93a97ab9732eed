package registry

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/homestack/toolhub/pkg/catalog"
)

// CatalogWatcher watches a JSON catalog file and hot-reloads tool
// definitions into the store, invalidating the registry cache after each
// reload. Deployments that manage tools as files get catalog edits picked
// up without a restart.
type CatalogWatcher struct {
	watcher  *fsnotify.Watcher
	registry *Registry
	store    catalog.Store
	path     string
	logger   zerolog.Logger
	debounce time.Duration
	timer    *time.Timer
	stopCh   chan struct{}
}

// NewCatalogWatcher creates a watcher for the given catalog file.
func NewCatalogWatcher(path string, reg *Registry, store catalog.Store, logger zerolog.Logger) (*CatalogWatcher, error) {
	if path == "" {
		return nil, errors.New("catalog file path is required")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	cw := &CatalogWatcher{
		watcher:  watcher,
		registry: reg,
		store:    store,
		path:     path,
		logger:   logger,
		debounce: 500 * time.Millisecond,
		stopCh:   make(chan struct{}),
	}

	// Watch the directory; editors replace files rather than writing in place.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}

	go cw.run()

	return cw, nil
}

// Stop stops the watcher.
func (cw *CatalogWatcher) Stop() error {
	close(cw.stopCh)
	return cw.watcher.Close()
}

// run processes file system events
func (cw *CatalogWatcher) run() {
	for {
		select {
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}

			if filepath.Clean(event.Name) != filepath.Clean(cw.path) {
				continue
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				cw.logger.Debug().
					Str("file", filepath.Base(event.Name)).
					Str("op", event.Op.String()).
					Msg("Catalog file change detected")

				cw.scheduleReload()
			}

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.logger.Error().Err(err).Msg("Catalog watcher error")

		case <-cw.stopCh:
			return
		}
	}
}

// scheduleReload debounces the reload; editors fire several events per save.
func (cw *CatalogWatcher) scheduleReload() {
	if cw.timer != nil {
		cw.timer.Stop()
	}

	cw.timer = time.AfterFunc(cw.debounce, func() {
		if err := cw.Reload(context.Background()); err != nil {
			cw.logger.Error().Err(err).Msg("Catalog reload failed")
		}
	})
}

// Reload loads the catalog file, upserts every definition, and invalidates
// the registry cache.
func (cw *CatalogWatcher) Reload(ctx context.Context) error {
	raw, err := os.ReadFile(cw.path)
	if err != nil {
		return err
	}

	var tools []*catalog.Tool
	if err := json.Unmarshal(raw, &tools); err != nil {
		return err
	}

	loaded := 0
	for _, tool := range tools {
		if err := tool.Validate(); err != nil {
			cw.logger.Warn().Err(err).Str("tool", tool.Name).Msg("Skipping invalid catalog entry")
			continue
		}

		err := cw.store.Update(ctx, tool)
		if errors.Is(err, catalog.ErrNotFound) {
			err = cw.store.Create(ctx, tool)
		}
		if err != nil {
			cw.logger.Warn().Err(err).Str("tool", tool.Name).Msg("Failed to upsert catalog entry")
			continue
		}
		loaded++
	}

	cw.registry.InvalidateToolsCache()
	cw.logger.Info().Int("tools", loaded).Str("file", cw.path).Msg("Catalog file reloaded")
	return nil
}
