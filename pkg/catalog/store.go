package catalog

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a tool does not exist in the catalog.
var ErrNotFound = errors.New("tool not found")

// Filter narrows FindMany results.
type Filter struct {
	// Enabled filters on is_enabled when non-nil.
	Enabled *bool
	// Category filters on category when non-empty.
	Category string
}

// CategoryCount aggregates tool counts per category over the full catalog.
type CategoryCount struct {
	Category     string `json:"category"`
	Count        int    `json:"count"`
	EnabledCount int    `json:"enabled_count"`
}

// Store is the persistent tool catalog. Implementations must return
// FindMany results ordered by (category, display_name) ascending.
type Store interface {
	FindByName(ctx context.Context, name string) (*Tool, error)
	FindMany(ctx context.Context, filter Filter) ([]*Tool, error)
	Create(ctx context.Context, tool *Tool) error
	Update(ctx context.Context, tool *Tool) error
	Delete(ctx context.Context, name string) error
	CategoryCounts(ctx context.Context) ([]CategoryCount, error)
	Close() error
}

// BoolPtr is a convenience for building filters.
func BoolPtr(v bool) *bool { return &v }
