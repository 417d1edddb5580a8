package commands

import (
	"github.com/spf13/cobra"

	"github.com/fieldbooks-dev/fieldbooks/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "fieldbooks",
		Short:   "Double-entry bookkeeping for small farms",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newImportCommand())
	rootCmd.AddCommand(newReportCommand())
	rootCmd.AddCommand(newServeCommand())

	return rootCmd
}
