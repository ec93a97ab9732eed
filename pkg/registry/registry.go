package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/homestack/toolhub/internal/metrics"
	"github.com/homestack/toolhub/pkg/catalog"
)

// DefaultCacheTTL bounds how stale the enabled-tool snapshot may get when
// an invalidation is missed. Reads within the window serve the snapshot.
const DefaultCacheTTL = 30 * time.Second

// Registry is the cached read path over the tool catalog. It is read-hot
// (every AI turn may query it) and write-cold (tools are edited rarely),
// so it keeps a single wholesale snapshot of enabled tools with a short
// TTL and explicit invalidation.
type Registry struct {
	store   catalog.Store
	ttl     time.Duration
	logger  zerolog.Logger
	metrics *metrics.Metrics

	mu        sync.Mutex
	snapshot  []*catalog.Tool
	expiresAt time.Time
}

// Config holds registry configuration
type Config struct {
	Store catalog.Store
	// CacheTTL defaults to DefaultCacheTTL when zero.
	CacheTTL time.Duration
	Logger   zerolog.Logger
	// Metrics is optional.
	Metrics *metrics.Metrics
}

// New creates a new Registry. The cache starts empty and is populated
// lazily on first read.
func New(cfg Config) (*Registry, error) {
	if cfg.Store == nil {
		return nil, errors.New("catalog store is required")
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Registry{
		store:   cfg.Store,
		ttl:     ttl,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}, nil
}

// GetEnabledTools returns all enabled tools ordered by (category, display
// name). Served from the snapshot within the TTL window.
func (r *Registry) GetEnabledTools(ctx context.Context) ([]*catalog.Tool, error) {
	tools, err := r.enabledSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*catalog.Tool, len(tools))
	copy(out, tools)
	return out, nil
}

// GetEnabledToolsByCategory returns enabled tools in the given category.
func (r *Registry) GetEnabledToolsByCategory(ctx context.Context, category string) ([]*catalog.Tool, error) {
	tools, err := r.enabledSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	filtered := []*catalog.Tool{}
	for _, tool := range tools {
		if tool.Category == category {
			filtered = append(filtered, tool)
		}
	}
	return filtered, nil
}

// GetToolByName returns a tool regardless of its enabled flag. It bypasses
// the cache entirely; the admin surface needs current data.
func (r *Registry) GetToolByName(ctx context.Context, name string) (*catalog.Tool, error) {
	tool, err := r.store.FindByName(ctx, name)
	if errors.Is(err, catalog.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up tool %s: %w", name, err)
	}
	return tool, nil
}

// GetEnabledToolByName returns the named tool only if it is enabled. This
// is the lookup the execution path uses: disabled tools are invisible here.
func (r *Registry) GetEnabledToolByName(ctx context.Context, name string) (*catalog.Tool, error) {
	tools, err := r.enabledSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	for _, tool := range tools {
		if tool.Name == name {
			return tool, nil
		}
	}
	return nil, nil
}

// GetToolsForScopes returns enabled tools whose required scopes are a
// subset of the caller's scopes. An empty requirement always passes.
func (r *Registry) GetToolsForScopes(ctx context.Context, scopes []string) ([]*catalog.Tool, error) {
	tools, err := r.enabledSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	allowed := []*catalog.Tool{}
	for _, tool := range tools {
		if tool.HasAllScopes(scopes) {
			allowed = append(allowed, tool)
		}
	}
	return allowed, nil
}

// IsToolAvailableForScopes reports whether the named tool exists, is
// enabled, and is invocable with the given scopes.
func (r *Registry) IsToolAvailableForScopes(ctx context.Context, name string, scopes []string) (bool, error) {
	tool, err := r.GetEnabledToolByName(ctx, name)
	if err != nil {
		return false, err
	}
	if tool == nil {
		return false, nil
	}
	return tool.HasAllScopes(scopes), nil
}

// GetToolCategoriesWithCounts aggregates over the full catalog, including
// disabled tools. Uncached; this is an admin dashboard query.
func (r *Registry) GetToolCategoriesWithCounts(ctx context.Context) ([]catalog.CategoryCount, error) {
	return r.store.CategoryCounts(ctx)
}

// InvalidateToolsCache discards the snapshot wholesale. Every code path
// that creates, updates, or deletes a tool must call this; a missed
// invalidation leaves a stale tool visible (or invisible) for up to the
// TTL window.
func (r *Registry) InvalidateToolsCache() {
	r.mu.Lock()
	r.snapshot = nil
	r.expiresAt = time.Time{}
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.RegistryInvalidationsTotal.Inc()
	}
	r.logger.Debug().Msg("Tool registry cache invalidated")
}

// enabledSnapshot returns the cached enabled-tool list, re-reading from
// the store when the snapshot is absent or expired.
func (r *Registry) enabledSnapshot(ctx context.Context) ([]*catalog.Tool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.snapshot != nil && time.Now().Before(r.expiresAt) {
		if r.metrics != nil {
			r.metrics.RegistryCacheHitsTotal.Inc()
		}
		return r.snapshot, nil
	}

	if r.metrics != nil {
		r.metrics.RegistryCacheMissesTotal.Inc()
	}

	tools, err := r.store.FindMany(ctx, catalog.Filter{Enabled: catalog.BoolPtr(true)})
	if err != nil {
		return nil, fmt.Errorf("failed to load enabled tools: %w", err)
	}

	r.snapshot = tools
	r.expiresAt = time.Now().Add(r.ttl)

	r.logger.Debug().Int("tools", len(tools)).Msg("Tool registry cache populated")
	return r.snapshot, nil
}
