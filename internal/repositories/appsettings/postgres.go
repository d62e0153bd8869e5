package appsettings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/credvault/credvault/internal/common"
	"github.com/credvault/credvault/internal/dbx"
	"github.com/credvault/credvault/internal/models"
)

// PostgresRepository implements Repository over a DBTX using PostgreSQL
// placeholders.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository returns a PostgresRepository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context) (*models.AppSettings, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM app_settings WHERE key = $1`, slotKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get app settings: %w", common.ErrorStorage, err)
	}

	s := &models.AppSettings{}
	if err := json.Unmarshal(value, s); err != nil {
		return nil, fmt.Errorf("%w: failed to decode app settings: %w", common.ErrorStorage, err)
	}
	return s, nil
}

func (r *PostgresRepository) Set(ctx context.Context, s *models.AppSettings) error {
	value, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("%w: failed to encode app settings: %w", common.ErrorStorage, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO app_settings (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`, slotKey, value)
	if err != nil {
		return fmt.Errorf("%w: failed to set app settings: %w", common.ErrorStorage, err)
	}
	return nil
}
