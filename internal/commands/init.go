package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fieldbooks-dev/fieldbooks/internal/coa"
	"github.com/fieldbooks-dev/fieldbooks/internal/config"
	"github.com/fieldbooks-dev/fieldbooks/internal/store"
)

func newInitCommand() *cobra.Command {
	var name string
	var entityType string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new ledger",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd, absDir, name, entityType)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "business name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&entityType, "entity-type", "sole_proprietor", "entity type")

	return cmd
}

func runInit(cmd *cobra.Command, dir, name, entityType string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	configPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%s already exists in %s", config.FileName, dir)
	}

	cfg := config.Default(name, entityType)
	if err := config.Save(configPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Create the ledger database and seed the default farm chart.
	s, err := store.Open(filepath.Join(dir, cfg.Database.Path))
	if err != nil {
		return fmt.Errorf("creating ledger database: %w", err)
	}
	defer s.Close()

	accounts := coa.NewService(s)
	ctx := context.Background()
	for _, params := range coa.DefaultChart() {
		if _, err := accounts.Create(ctx, params); err != nil {
			return fmt.Errorf("seeding account %s: %w", params.Code, err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized ledger for %s at %s (%d accounts)\n",
		name, dir, len(coa.DefaultChart()))
	return nil
}
