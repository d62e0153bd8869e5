package config

import (
	"flag"
	"os"

	"github.com/credvault/credvault/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-r string   record store driver: sqlite or postgres
//	-d string   database DSN (file path for sqlite, URL for postgres)
//	-l string   lockfile path
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-r", "-d", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.Driver, "r", cfg.Driver, "record store driver (sqlite|postgres)")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.LockFile, "l", cfg.LockFile, "lockfile path")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
