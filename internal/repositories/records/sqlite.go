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

// Timestamps are stored as unix nanoseconds so the last_modified version
// token compares exactly, with no driver-dependent rounding.

// SQLiteRepository implements Repository over a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, rec *models.EncryptedVaultRecord) error {
	query := `INSERT INTO vaults (id, name, ciphertext, iv, salt, created_at, last_accessed, last_modified)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.Name, rec.Ciphertext, rec.IV, rec.Salt,
		rec.CreatedAt.UnixNano(), rec.LastAccessed.UnixNano(), rec.LastModified.UnixNano())
	if err != nil {
		return fmt.Errorf("%w: failed to insert vault: %w", common.ErrorStorage, err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.EncryptedVaultRecord, error) {
	query := `SELECT id, name, ciphertext, iv, salt, created_at, last_accessed, last_modified
			FROM vaults WHERE id = ?`
	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to select vault: %w", common.ErrorStorage, err)
	}
	return rec, nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.EncryptedVaultRecord, error) {
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

// Update rewrites the record only if last_modified is still the value the
// caller read. Zero rows affected means either the id is gone or a
// concurrent writer bumped the version; the follow-up lookup tells the two
// apart.
func (r *SQLiteRepository) Update(ctx context.Context, rec *models.EncryptedVaultRecord, expected time.Time) error {
	query := `UPDATE vaults SET name = ?, ciphertext = ?, iv = ?, salt = ?,
			last_accessed = ?, last_modified = ?
			WHERE id = ? AND last_modified = ?`
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

func (r *SQLiteRepository) Upsert(ctx context.Context, rec *models.EncryptedVaultRecord) error {
	query := `INSERT INTO vaults (id, name, ciphertext, iv, salt, created_at, last_accessed, last_modified)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET name = excluded.name,
				ciphertext = excluded.ciphertext,
				iv = excluded.iv,
				salt = excluded.salt,
				created_at = excluded.created_at,
				last_accessed = excluded.last_accessed,
				last_modified = excluded.last_modified`
	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.Name, rec.Ciphertext, rec.IV, rec.Salt,
		rec.CreatedAt.UnixNano(), rec.LastAccessed.UnixNano(), rec.LastModified.UnixNano())
	if err != nil {
		return fmt.Errorf("%w: failed to upsert vault: %w", common.ErrorStorage, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM vaults WHERE id = ?`, id)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.EncryptedVaultRecord, error) {
	rec := &models.EncryptedVaultRecord{}
	var createdAt, lastAccessed, lastModified int64
	if err := row.Scan(&rec.ID, &rec.Name, &rec.Ciphertext, &rec.IV, &rec.Salt,
		&createdAt, &lastAccessed, &lastModified); err != nil {
		return nil, err
	}
	rec.CreatedAt = time.Unix(0, createdAt).UTC()
	rec.LastAccessed = time.Unix(0, lastAccessed).UTC()
	rec.LastModified = time.Unix(0, lastModified).UTC()
	return rec, nil
}
