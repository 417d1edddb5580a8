// Package config reads and writes fieldbooks.yaml, the per-ledger project
// file. A .env file (or plain environment variables) may override the
// database path and listen address for local development.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the canonical config file name in a ledger directory.
const FileName = "fieldbooks.yaml"

// Config represents the top-level fieldbooks.yaml configuration.
type Config struct {
	Business  BusinessConfig `yaml:"business"`
	Fiscal    FiscalConfig   `yaml:"fiscal"`
	Database  DatabaseConfig `yaml:"database"`
	Server    ServerConfig   `yaml:"server"`
	BankLinks []BankLink     `yaml:"bank_links,omitempty"`
}

// BusinessConfig identifies the farm entity.
type BusinessConfig struct {
	Name       string `yaml:"name"`
	EntityType string `yaml:"entity_type"`
}

// FiscalConfig defines the fiscal year boundaries.
type FiscalConfig struct {
	YearStart string `yaml:"year_start"` // "MM-DD" format, e.g. "01-01"
}

// DatabaseConfig locates the SQLite ledger file.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig controls the reporting API listener.
type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// BankLink seeds a bank-source-to-account mapping at init time. Source is the
// opaque reference the bank sync uses; AccountCode names the GL account that
// takes the automatic counter-leg.
type BankLink struct {
	Source      string `yaml:"source"`
	AccountCode string `yaml:"account_code"`
}

// Load reads a fieldbooks.yaml and applies environment overrides. A .env file
// in the working directory is honored when present.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	_ = godotenv.Load() // optional; absence is not an error
	cfg.applyEnv()
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("FIELDBOOKS_DB"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("FIELDBOOKS_LISTEN"); v != "" {
		c.Server.Listen = v
	}
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new ledger.
func Default(businessName, entityType string) *Config {
	return &Config{
		Business: BusinessConfig{
			Name:       businessName,
			EntityType: entityType,
		},
		Fiscal: FiscalConfig{
			YearStart: "01-01",
		},
		Database: DatabaseConfig{
			Path: "ledger.db",
		},
		Server: ServerConfig{
			Listen: "127.0.0.1:8442",
		},
	}
}
