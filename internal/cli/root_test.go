package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homestack/toolhub/internal/config"
)

func TestRootCommand(t *testing.T) {
	root := GetRootCmd()

	assert.Equal(t, "toolhub", root.Use)
	assert.Equal(t, version, root.Version)

	names := map[string]bool{}
	for _, cmd := range root.Commands() {
		names[cmd.Name()] = true
	}
	for _, want := range []string{"serve", "tools", "seed", "config"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestGetVersion(t *testing.T) {
	assert.Equal(t, version, GetVersion())
}

// withTestConfig points the global config flag at a throwaway data dir.
func withTestConfig(t *testing.T) {
	t.Helper()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "toolhub.json")

	cfg := config.DefaultConfig()
	cfg.DataDir = dir
	require.NoError(t, config.NewLoader(configPath).Save(cfg))

	prev := cfgFile
	cfgFile = configPath
	t.Cleanup(func() { cfgFile = prev })
}

func TestSeedCommand(t *testing.T) {
	withTestConfig(t)

	require.NoError(t, runSeed(seedCmd, nil))
	// Idempotent: a second run seeds nothing and still succeeds.
	require.NoError(t, runSeed(seedCmd, nil))
}

func TestToolsListCommand(t *testing.T) {
	withTestConfig(t)
	require.NoError(t, runSeed(seedCmd, nil))

	require.NoError(t, runToolsList(toolsListCmd, nil))
}

func TestToolsTestCommand(t *testing.T) {
	withTestConfig(t)
	require.NoError(t, runSeed(seedCmd, nil))

	prev := testInput
	testInput = "{}"
	t.Cleanup(func() { testInput = prev })

	require.NoError(t, runToolsTest(toolsTestCmd, []string{"get_current_time"}))

	err := runToolsTest(toolsTestCmd, []string{"no_such_tool"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestConfigShowCommand(t *testing.T) {
	withTestConfig(t)

	require.NoError(t, runConfigShow(configShowCmd, nil))
}
