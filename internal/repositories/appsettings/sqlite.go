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

// slotKey is the fixed key of the settings singleton.
const slotKey = "app_settings"

// SQLiteRepository implements Repository over a DBTX.
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context) (*models.AppSettings, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM app_settings WHERE key = ?`, slotKey).Scan(&value)
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

func (r *SQLiteRepository) Set(ctx context.Context, s *models.AppSettings) error {
	value, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("%w: failed to encode app settings: %w", common.ErrorStorage, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO app_settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, slotKey, value)
	if err != nil {
		return fmt.Errorf("%w: failed to set app settings: %w", common.ErrorStorage, err)
	}
	return nil
}
