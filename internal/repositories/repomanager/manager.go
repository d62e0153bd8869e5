// Package repomanager wires a database handle, schema migrations and the
// repositories together behind one Manager value, so the rest of the
// application never touches driver-specific wiring.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/credvault/credvault/internal/repositories/appsettings"
	"github.com/credvault/credvault/internal/repositories/records"
)

// Manager hands out repositories bound to one open database.
type Manager interface {
	// Conn exposes the underlying handle for transactional composition
	// via dbx.WithTx.
	Conn() *sql.DB

	// Records returns the encrypted vault record store.
	Records() records.Repository

	// AppSettings returns the settings singleton store.
	AppSettings() appsettings.Repository

	// InTx runs fn with repositories bound to a single transaction,
	// committing on success and rolling back on error.
	InTx(ctx context.Context, fn func(rec records.Repository, set appsettings.Repository) error) error

	// RunMigrations applies all pending schema migrations.
	RunMigrations(ctx context.Context) error

	// Close releases the database handle.
	Close() error
}
