package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(SQLiteConfig{
		DBPath: filepath.Join(t.TempDir(), "catalog.db"),
		Logger: zerolog.Nop(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleTool(name, category string, enabled bool) *Tool {
	return &Tool{
		Name:         name,
		DisplayName:  name,
		Description:  "Sample tool " + name,
		Category:     category,
		IsEnabled:    enabled,
		EndpointType: EndpointInternalAction,
		Parameters: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
		},
	}
}

func TestSQLiteStore_CreateAndFindByName(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tool := sampleTool("echo", "utility", true)
	tool.RequiredScopes = []string{"crm:read"}
	require.NoError(t, store.Create(ctx, tool))

	found, err := store.FindByName(ctx, "echo")
	require.NoError(t, err)
	assert.Equal(t, "echo", found.Name)
	assert.Equal(t, EndpointInternalAction, found.EndpointType)
	assert.Equal(t, []string{"crm:read"}, found.RequiredScopes)
	assert.True(t, found.IsEnabled)
	assert.Equal(t, "object", found.Parameters["type"])
}

func TestSQLiteStore_FindByName_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.FindByName(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_Create_DuplicateName(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, sampleTool("dup", "crm", true)))
	assert.Error(t, store.Create(ctx, sampleTool("dup", "crm", true)))
}

func TestSQLiteStore_FindMany_Ordering(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Insert out of order; results must come back (category, display_name) ascending.
	require.NoError(t, store.Create(ctx, sampleTool("zeta", "mls", true)))
	require.NoError(t, store.Create(ctx, sampleTool("alpha", "mls", true)))
	require.NoError(t, store.Create(ctx, sampleTool("beta", "crm", true)))

	tools, err := store.FindMany(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, tools, 3)
	assert.Equal(t, "beta", tools[0].Name)
	assert.Equal(t, "alpha", tools[1].Name)
	assert.Equal(t, "zeta", tools[2].Name)
}

func TestSQLiteStore_FindMany_Filters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, sampleTool("on_crm", "crm", true)))
	require.NoError(t, store.Create(ctx, sampleTool("off_crm", "crm", false)))
	require.NoError(t, store.Create(ctx, sampleTool("on_mls", "mls", true)))

	enabled, err := store.FindMany(ctx, Filter{Enabled: BoolPtr(true)})
	require.NoError(t, err)
	assert.Len(t, enabled, 2)

	crmEnabled, err := store.FindMany(ctx, Filter{Enabled: BoolPtr(true), Category: "crm"})
	require.NoError(t, err)
	require.Len(t, crmEnabled, 1)
	assert.Equal(t, "on_crm", crmEnabled[0].Name)
}

func TestSQLiteStore_Update(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tool := sampleTool("mutable", "crm", true)
	require.NoError(t, store.Create(ctx, tool))

	tool.IsEnabled = false
	tool.Description = "Updated description"
	require.NoError(t, store.Update(ctx, tool))

	found, err := store.FindByName(ctx, "mutable")
	require.NoError(t, err)
	assert.False(t, found.IsEnabled)
	assert.Equal(t, "Updated description", found.Description)
}

func TestSQLiteStore_Update_NotFound(t *testing.T) {
	store := newTestStore(t)

	err := store.Update(context.Background(), sampleTool("ghost", "crm", true))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_Delete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, sampleTool("doomed", "crm", true)))
	require.NoError(t, store.Delete(ctx, "doomed"))

	_, err := store.FindByName(ctx, "doomed")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, store.Delete(ctx, "doomed"), ErrNotFound)
}

func TestSQLiteStore_CategoryCounts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, sampleTool("a", "crm", true)))
	require.NoError(t, store.Create(ctx, sampleTool("b", "crm", false)))
	require.NoError(t, store.Create(ctx, sampleTool("c", "mls", true)))

	counts, err := store.CategoryCounts(ctx)
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, CategoryCount{Category: "crm", Count: 2, EnabledCount: 1}, counts[0])
	assert.Equal(t, CategoryCount{Category: "mls", Count: 1, EnabledCount: 1}, counts[1])
}

func TestSeedDefaults(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	inserted, err := SeedDefaults(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, len(DefaultTools()), inserted)

	// Seeding again is a no-op.
	inserted, err = SeedDefaults(ctx, store)
	require.NoError(t, err)
	assert.Zero(t, inserted)

	tool, err := store.FindByName(ctx, "calculate_mortgage")
	require.NoError(t, err)
	assert.Equal(t, EndpointInternalAction, tool.EndpointType)
}
