package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fieldbooks-dev/fieldbooks/internal/report"
)

const flagDateFormat = "2006-01-02"

func newReportCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate financial statements",
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", ".", "ledger directory")

	cmd.AddCommand(newIncomeStatementCommand(&dir))
	cmd.AddCommand(newBalanceSheetCommand(&dir))
	return cmd
}

func newIncomeStatementCommand(dir *string) *cobra.Command {
	var startFlag, endFlag string

	cmd := &cobra.Command{
		Use:   "income",
		Short: "Income statement for a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := time.Parse(flagDateFormat, startFlag)
			if err != nil {
				return fmt.Errorf("parsing --start: %w", err)
			}
			end, err := time.Parse(flagDateFormat, endFlag)
			if err != nil {
				return fmt.Errorf("parsing --end: %w", err)
			}

			_, s, err := openLedger(*dir)
			if err != nil {
				return err
			}
			defer s.Close()

			stmt, err := report.NewService(s).GetIncomeStatement(cmd.Context(), start, end)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Income Statement %s to %s\n\n", startFlag, endFlag)
			fmt.Fprintln(out, "Revenue")
			printLines(cmd, stmt.Revenue)
			fmt.Fprintf(out, "  %-40s %12s\n\n", "Total Revenue", stmt.TotalRevenue.StringFixed(2))
			fmt.Fprintln(out, "Expenses")
			printLines(cmd, stmt.Expenses)
			fmt.Fprintf(out, "  %-40s %12s\n\n", "Total Expenses", stmt.TotalExpenses.StringFixed(2))
			fmt.Fprintf(out, "  %-40s %12s\n", "Net Income", stmt.NetIncome.StringFixed(2))
			printWarnings(cmd, stmt.Warnings)
			return nil
		},
	}

	cmd.Flags().StringVar(&startFlag, "start", "", "range start, YYYY-MM-DD (required)")
	_ = cmd.MarkFlagRequired("start")
	cmd.Flags().StringVar(&endFlag, "end", "", "range end, YYYY-MM-DD (required)")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func newBalanceSheetCommand(dir *string) *cobra.Command {
	var asOfFlag string

	cmd := &cobra.Command{
		Use:   "balance-sheet",
		Short: "Balance sheet as of a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			asOf, err := time.Parse(flagDateFormat, asOfFlag)
			if err != nil {
				return fmt.Errorf("parsing --as-of: %w", err)
			}

			_, s, err := openLedger(*dir)
			if err != nil {
				return err
			}
			defer s.Close()

			sheet, err := report.NewService(s).GetBalanceSheet(cmd.Context(), asOf)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Balance Sheet as of %s\n\n", asOfFlag)
			fmt.Fprintln(out, "Assets")
			printLines(cmd, sheet.Assets)
			fmt.Fprintf(out, "  %-40s %12s\n\n", "Total Assets", sheet.TotalAssets.StringFixed(2))
			fmt.Fprintln(out, "Liabilities")
			printLines(cmd, sheet.Liabilities)
			fmt.Fprintf(out, "  %-40s %12s\n\n", "Total Liabilities", sheet.TotalLiabilities.StringFixed(2))
			fmt.Fprintln(out, "Equity")
			printLines(cmd, sheet.Equity)
			fmt.Fprintf(out, "  %-40s %12s\n", "Total Equity", sheet.TotalEquity.StringFixed(2))
			printWarnings(cmd, sheet.Warnings)
			return nil
		},
	}

	cmd.Flags().StringVar(&asOfFlag, "as-of", "", "statement date, YYYY-MM-DD (required)")
	_ = cmd.MarkFlagRequired("as-of")
	return cmd
}

func printLines(cmd *cobra.Command, lines []report.AccountLine) {
	for _, line := range lines {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s %-35s %12s\n", line.Code, line.Name, line.Balance.StringFixed(2))
	}
}

func printWarnings(cmd *cobra.Command, warnings []string) {
	for _, warning := range warnings {
		fmt.Fprintf(cmd.OutOrStdout(), "warning: %s\n", warning)
	}
}
