package commands

import (
	"fmt"
	"path/filepath"

	"github.com/fieldbooks-dev/fieldbooks/internal/config"
	"github.com/fieldbooks-dev/fieldbooks/internal/store"
)

// openLedger loads the config and opens the ledger database for a directory.
// The caller owns closing the store.
func openLedger(dir string) (*config.Config, *store.Store, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving path: %w", err)
	}

	cfg, err := config.Load(filepath.Join(absDir, config.FileName))
	if err != nil {
		return nil, nil, err
	}

	dbPath := cfg.Database.Path
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(absDir, dbPath)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, s, nil
}
