package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/credvault/credvault/internal/dbx"
	migrations "github.com/credvault/credvault/internal/migrations/sqlite"
	"github.com/credvault/credvault/internal/repositories/appsettings"
	"github.com/credvault/credvault/internal/repositories/records"
)

// SQLiteManager is the default, local record store backend.
type SQLiteManager struct {
	db          *sql.DB
	records     records.Repository
	appSettings appsettings.Repository
}

// NewSQLiteManager opens (or creates) the SQLite database at dsn, runs
// migrations and returns a ready Manager. The dsn is a file path or
// ":memory:".
func NewSQLiteManager(ctx context.Context, dsn string) (Manager, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	m := &SQLiteManager{
		db:          db,
		records:     records.NewSQLiteRepository(db),
		appSettings: appsettings.NewSQLiteRepository(db),
	}

	if err := m.RunMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}
	return m, nil
}

func (m *SQLiteManager) Conn() *sql.DB {
	return m.db
}

func (m *SQLiteManager) Records() records.Repository {
	return m.records
}

func (m *SQLiteManager) AppSettings() appsettings.Repository {
	return m.appSettings
}

func (m *SQLiteManager) InTx(ctx context.Context, fn func(rec records.Repository, set appsettings.Repository) error) error {
	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(records.NewSQLiteRepository(tx), appsettings.NewSQLiteRepository(tx))
	})
}

func (m *SQLiteManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, m.db, ".")
}

func (m *SQLiteManager) Close() error {
	return m.db.Close()
}
