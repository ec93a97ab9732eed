package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/homestack/toolhub/internal/config"
	"github.com/homestack/toolhub/pkg/catalog"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the built-in tool set into the catalog",
	Long: `Insert the built-in tool definitions into the catalog database.
Tools that already exist are left untouched.`,
	RunE: runSeed,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage toolhub configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE:  runConfigShow,
}

func init() {
	rootCmd.AddCommand(seedCmd)

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Catalog.DBPath), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	store, err := catalog.NewSQLiteStore(catalog.SQLiteConfig{
		DBPath: cfg.Catalog.DBPath,
		Logger: zerolog.Nop(),
	})
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	seeded, err := catalog.SeedDefaults(ctx, store)
	if err != nil {
		return err
	}

	fmt.Printf("Seeded %d tools (%d already present)\n", seeded, len(catalog.DefaultTools())-seeded)
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	loader := config.NewLoader(cfgFile)
	if err := loader.Save(config.DefaultConfig()); err != nil {
		return err
	}
	fmt.Println("Wrote default configuration.")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	fmt.Println(cfg.String())
	return nil
}
