package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/credvault/credvault/internal/dbx"
	migrations "github.com/credvault/credvault/internal/migrations/postgres"
	"github.com/credvault/credvault/internal/repositories/appsettings"
	"github.com/credvault/credvault/internal/repositories/records"
)

// PostgresManager is an optional server-grade backend for setups that keep
// the encrypted records in PostgreSQL. Records stay encrypted client-side;
// the database only ever sees ciphertext.
type PostgresManager struct {
	db          *sql.DB
	records     records.Repository
	appSettings appsettings.Repository
}

// NewPostgresManager connects to the PostgreSQL instance at dsn, runs
// migrations and returns a ready Manager.
func NewPostgresManager(ctx context.Context, dsn string) (Manager, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	m := &PostgresManager{
		db:          db,
		records:     records.NewPostgresRepository(db),
		appSettings: appsettings.NewPostgresRepository(db),
	}

	if err := m.RunMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}
	return m, nil
}

func (m *PostgresManager) Conn() *sql.DB {
	return m.db
}

func (m *PostgresManager) Records() records.Repository {
	return m.records
}

func (m *PostgresManager) AppSettings() appsettings.Repository {
	return m.appSettings
}

func (m *PostgresManager) InTx(ctx context.Context, fn func(rec records.Repository, set appsettings.Repository) error) error {
	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(records.NewPostgresRepository(tx), appsettings.NewPostgresRepository(tx))
	})
}

func (m *PostgresManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, m.db, ".")
}

func (m *PostgresManager) Close() error {
	return m.db.Close()
}
