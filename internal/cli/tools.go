package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/homestack/toolhub/pkg/actions"
	"github.com/homestack/toolhub/pkg/catalog"
	"github.com/homestack/toolhub/pkg/executor"
	"github.com/homestack/toolhub/pkg/registry"
	"github.com/homestack/toolhub/pkg/schema"
)

var (
	toolsCategory string
	testInput     string
	testOrgID     string
	testUserID    string
	testRealCalls bool
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Inspect and test catalog tools",
}

var toolsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List enabled tools",
	RunE:  runToolsList,
}

var toolsTestCmd = &cobra.Command{
	Use:   "test <name>",
	Short: "Dry-run a tool with the given input",
	Long: `Dry-run a tool as an admin. The execution is tagged with the
admin_test source and, unless --real is set, signals the target to
return synthetic data instead of mutating real state.`,
	Args: cobra.ExactArgs(1),
	RunE: runToolsTest,
}

func init() {
	toolsListCmd.Flags().StringVar(&toolsCategory, "category", "", "filter by category")

	toolsTestCmd.Flags().StringVar(&testInput, "input", "{}", "tool input as JSON")
	toolsTestCmd.Flags().StringVar(&testOrgID, "org", "", "organization id for the execution context")
	toolsTestCmd.Flags().StringVar(&testUserID, "user", "admin-cli", "admin user id for the execution context")
	toolsTestCmd.Flags().BoolVar(&testRealCalls, "real", false, "disable test mode (allow real side effects)")

	toolsCmd.AddCommand(toolsListCmd)
	toolsCmd.AddCommand(toolsTestCmd)
	rootCmd.AddCommand(toolsCmd)
}

func runToolsList(cmd *cobra.Command, args []string) error {
	store, reg, err := openRegistry()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	var tools []*catalog.Tool
	if toolsCategory != "" {
		tools, err = reg.GetEnabledToolsByCategory(ctx, toolsCategory)
	} else {
		tools, err = reg.GetEnabledTools(ctx)
	}
	if err != nil {
		return err
	}

	if len(tools) == 0 {
		fmt.Println("No enabled tools.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCATEGORY\tTYPE\tDESCRIPTION")
	for _, tool := range tools {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", tool.Name, tool.Category, tool.EndpointType, tool.Description)
	}
	return w.Flush()
}

func runToolsTest(cmd *cobra.Command, args []string) error {
	name := args[0]

	var input map[string]interface{}
	if err := json.Unmarshal([]byte(testInput), &input); err != nil {
		return fmt.Errorf("invalid --input JSON: %w", err)
	}

	store, reg, err := openRegistry()
	if err != nil {
		return err
	}
	defer store.Close()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	actionRegistry := actions.NewRegistry()
	if err := actions.RegisterCoreActions(actionRegistry); err != nil {
		return err
	}

	exec, err := executor.New(executor.Config{
		Registry:  reg,
		Validator: schema.NewValidator(),
		Actions:   actionRegistry,
		BaseURL:   executor.NewBaseURLResolver(cfg.Server.InternalBaseURL, cfg.Server.Port),
		Logger:    zerolog.Nop(),
	})
	if err != nil {
		return err
	}

	result := exec.ExecuteToolForTesting(context.Background(), name, input, testUserID, testOrgID, !testRealCalls)

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	if !result.Success {
		return fmt.Errorf("tool execution failed with status %d", result.StatusCode)
	}
	return nil
}

// openRegistry builds a store-backed registry for one-shot commands.
func openRegistry() (*catalog.SQLiteStore, *registry.Registry, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	store, err := catalog.NewSQLiteStore(catalog.SQLiteConfig{
		DBPath: cfg.Catalog.DBPath,
		Logger: zerolog.Nop(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	reg, err := registry.New(registry.Config{
		Store:    store,
		CacheTTL: cfg.Catalog.CacheTTL(),
		Logger:   zerolog.Nop(),
	})
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	return store, reg, nil
}
