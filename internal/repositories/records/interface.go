// Package records persists encrypted vault records. The vault service only
// ever reads and writes whole records; there is no partial update.
package records

import (
	"context"
	"time"

	"github.com/credvault/credvault/internal/models"
)

// Repository describes durable storage of encrypted vault records.
//
// Update is conditional: it only writes if the stored last_modified still
// equals expected, and reports common.ErrorConflict otherwise. This is the
// optimistic guard that turns a concurrent lost update into an explicit
// failure of the second writer.
type Repository interface {
	// Create inserts a brand-new record.
	Create(ctx context.Context, rec *models.EncryptedVaultRecord) error

	// Get returns a record by id, or common.ErrorNotFound.
	Get(ctx context.Context, id string) (*models.EncryptedVaultRecord, error)

	// GetAll lists all records ordered by creation time.
	GetAll(ctx context.Context) ([]models.EncryptedVaultRecord, error)

	// Update rewrites the whole record if its stored last_modified still
	// equals expected. Reports common.ErrorNotFound for an absent id and
	// common.ErrorConflict when another writer got there first.
	Update(ctx context.Context, rec *models.EncryptedVaultRecord, expected time.Time) error

	// Upsert inserts or overwrites a record by id, unconditionally.
	// Used by backup import.
	Upsert(ctx context.Context, rec *models.EncryptedVaultRecord) error

	// Delete removes a record permanently, or reports common.ErrorNotFound.
	Delete(ctx context.Context, id string) error
}
