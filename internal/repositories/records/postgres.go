package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/credvault/credvault/internal/common"
	"github.com/credvault/credvault/internal/dbx"
	"github.com/credvault/credvault/internal/models"
)

// PostgresRepository implements Repository over a DBTX using PostgreSQL
// placeholders. Schema and semantics are identical to the SQLite backend.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository returns a PostgresRepository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, rec *models.EncryptedVaultRecord) error {
	query := `INSERT INTO vaults (id, name, ciphertext, iv, salt, created_at, last_accessed, last_modified)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.Name, rec.Ciphertext, rec.IV, rec.Salt,
		rec.CreatedAt.UnixNano(), rec.LastAccessed.UnixNano(), rec.LastModified.UnixNano())
	if err != nil {
		return fmt.Errorf("%w: failed to insert vault: %w", common.ErrorStorage, err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.EncryptedVaultRecord, error) {
	query := `SELECT id, name, ciphertext, iv, salt, created_at, last_accessed, last_modified
			FROM vaults WHERE id = $1`
	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to select vault: %w", common.ErrorStorage, err)
	}
	return rec, nil
}

func (r *PostgresRepository) GetAll(ctx context.Context) ([]models.EncryptedVaultRecord, error) {
	query := `SELECT id, name, ciphertext, iv, salt, created_at, last_accessed, last_modified
			FROM vaults ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to select vaults: %w", common.ErrorStorage, err)
	}
	defer rows.Close()

	var result []models.EncryptedVaultRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan vault row: %w", common.ErrorStorage, err)
		}
		result = append(result, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to iterate vault rows: %w", common.ErrorStorage, err)
	}
	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, rec *models.EncryptedVaultRecord, expected time.Time) error {
	query := `UPDATE vaults SET name = $1, ciphertext = $2, iv = $3, salt = $4,
			last_accessed = $5, last_modified = $6
			WHERE id = $7 AND last_modified = $8`
	res, err := r.db.ExecContext(ctx, query,
		rec.Name, rec.Ciphertext, rec.IV, rec.Salt,
		rec.LastAccessed.UnixNano(), rec.LastModified.UnixNano(),
		rec.ID, expected.UnixNano())
	if err != nil {
		return fmt.Errorf("%w: failed to update vault: %w", common.ErrorStorage, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: failed to get rows affected: %w", common.ErrorStorage, err)
	}
	if n == 1 {
		return nil
	}

	if _, err := r.Get(ctx, rec.ID); errors.Is(err, common.ErrorNotFound) {
		return common.ErrorNotFound
	}
	return common.ErrorConflict
}

func (r *PostgresRepository) Upsert(ctx context.Context, rec *models.EncryptedVaultRecord) error {
	query := `INSERT INTO vaults (id, name, ciphertext, iv, salt, created_at, last_accessed, last_modified)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name,
				ciphertext = EXCLUDED.ciphertext,
				iv = EXCLUDED.iv,
				salt = EXCLUDED.salt,
				created_at = EXCLUDED.created_at,
				last_accessed = EXCLUDED.last_accessed,
				last_modified = EXCLUDED.last_modified`
	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.Name, rec.Ciphertext, rec.IV, rec.Salt,
		rec.CreatedAt.UnixNano(), rec.LastAccessed.UnixNano(), rec.LastModified.UnixNano())
	if err != nil {
		return fmt.Errorf("%w: failed to upsert vault: %w", common.ErrorStorage, err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM vaults WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: failed to delete vault: %w", common.ErrorStorage, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: failed to get rows affected: %w", common.ErrorStorage, err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
