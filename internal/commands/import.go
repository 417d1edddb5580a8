package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fieldbooks-dev/fieldbooks/internal/coa"
	"github.com/fieldbooks-dev/fieldbooks/internal/feed"
	"github.com/fieldbooks-dev/fieldbooks/internal/importer"
	"github.com/fieldbooks-dev/fieldbooks/internal/journal"
)

func newImportCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import external CSV files into the ledger",
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", ".", "ledger directory")

	cmd.AddCommand(newImportChartCommand(&dir))
	cmd.AddCommand(newImportEntriesCommand(&dir))
	cmd.AddCommand(newImportFeedCommand(&dir))
	return cmd
}

func newImportChartCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "chart <file>",
		Short: "Bootstrap the chart of accounts from a CSV export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, s, err := openLedger(*dir)
			if err != nil {
				return err
			}
			defer s.Close()

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening chart file: %w", err)
			}
			defer f.Close()

			report, err := importer.NewChartImporter(s, coa.NewService(s)).Import(cmd.Context(), f)
			if err != nil {
				return err
			}
			for _, row := range report.Rows {
				if row.Err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "line %d (%s): skipped: %v\n", row.Line, row.Code, row.Err)
				} else if row.Warning != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "line %d (%s): %s\n", row.Line, row.Code, row.Warning)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d accounts, skipped %d\n", report.Created, report.Skipped)
			return nil
		},
	}
}

func newImportEntriesCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "entries <file>",
		Short: "Backfill historical journal entries from a CSV export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, s, err := openLedger(*dir)
			if err != nil {
				return err
			}
			defer s.Close()

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening entries file: %w", err)
			}
			defer f.Close()

			imp := importer.NewEntryImporter(coa.NewService(s), journal.NewService(s))
			report, err := imp.Import(cmd.Context(), f)
			if err != nil {
				return err
			}
			for _, entry := range report.Entries {
				if entry.Err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "entry %s: skipped: %v\n", entry.Group, entry.Err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Posted %d entries, skipped %d\n", report.Posted, report.Skipped)
			return nil
		},
	}
}

func newImportFeedCommand(dir *string) *cobra.Command {
	var source string
	var format string

	cmd := &cobra.Command{
		Use:   "feed <file>",
		Short: "Ingest a bank CSV export as pending transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parser := importer.DefaultRegistry().Get(format)
			if parser == nil {
				return fmt.Errorf("unknown feed format %q", format)
			}

			_, s, err := openLedger(*dir)
			if err != nil {
				return err
			}
			defer s.Close()

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening feed file: %w", err)
			}
			defer f.Close()

			rows, err := parser.Parse(f, source)
			if err != nil {
				return err
			}

			svc := feed.NewService(s, journal.NewService(s), nil)
			txns, err := svc.Ingest(cmd.Context(), rows)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Ingested %d pending transactions from %s\n", len(txns), source)
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "external bank-account reference (required)")
	_ = cmd.MarkFlagRequired("source")
	cmd.Flags().StringVar(&format, "format", "generic", "CSV format (generic, split)")
	return cmd
}
