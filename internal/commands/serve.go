package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fieldbooks-dev/fieldbooks/internal/api"
	"github.com/fieldbooks-dev/fieldbooks/internal/coa"
	"github.com/fieldbooks-dev/fieldbooks/internal/feed"
	"github.com/fieldbooks-dev/fieldbooks/internal/journal"
	"github.com/fieldbooks-dev/fieldbooks/internal/report"
)

func newServeCommand() *cobra.Command {
	var dir string
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the reporting and acceptance API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, s, err := openLedger(dir)
			if err != nil {
				return err
			}
			defer s.Close()

			addr := cfg.Server.Listen
			if listen != "" {
				addr = listen
			}

			accounts := coa.NewService(s)
			journalSvc := journal.NewService(s)
			feedSvc := feed.NewService(s, journalSvc, nil)

			// Seed configured bank links so a fresh ledger can accept
			// feed rows without a manual linking step.
			for _, link := range cfg.BankLinks {
				account, err := accounts.GetByCode(cmd.Context(), link.AccountCode)
				if err != nil {
					return fmt.Errorf("bank link %s: %w", link.Source, err)
				}
				if err := feedSvc.LinkBankSource(cmd.Context(), link.Source, account.ID); err != nil {
					return fmt.Errorf("bank link %s: %w", link.Source, err)
				}
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           api.NewServer(accounts, feedSvc, report.NewService(s)).Router(),
				ReadHeaderTimeout: 5 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s\n", addr)
				errCh <- server.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "ledger directory")
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides config)")
	return cmd
}
