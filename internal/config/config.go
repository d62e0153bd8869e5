// Package config holds runtime settings for the vault CLI: which record
// store backend to use and where its data lives.
package config

import (
	"path/filepath"

	"github.com/credvault/credvault/internal/filex"
)

// Supported record store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// dataDirName is the per-user directory holding the database, lockfile and
// JSON config by default.
const dataDirName = ".credvault"

// Config holds runtime settings for the vault CLI.
//
// Fields:
//   - Driver: record store backend, "sqlite" (default) or "postgres".
//   - DatabaseDSN: SQLite file path or PostgreSQL connection string.
//   - LockFile: path of the process-exclusion lockfile.
type Config struct {
	Driver      string
	DatabaseDSN string
	LockFile    string
}

// LoadDefaults populates c with sensible defaults: a SQLite database and
// lockfile under ~/.credvault.
func (c *Config) LoadDefaults() {
	dir, err := filex.EnsureUserDir(dataDirName)
	if err != nil {
		// No usable home directory; fall back to the working directory.
		dir = "."
	}
	c.Driver = DriverSQLite
	c.DatabaseDSN = filepath.Join(dir, "vault.db")
	c.LockFile = filepath.Join(dir, "vault.lock")
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present) and command-line flags (if present). Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
