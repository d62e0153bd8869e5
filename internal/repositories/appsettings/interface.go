// Package appsettings persists the application-wide settings singleton.
// The settings live unencrypted in one fixed key of a key/value table.
package appsettings

import (
	"context"

	"github.com/credvault/credvault/internal/models"
)

// Repository reads and writes the single AppSettings slot.
type Repository interface {
	// Get returns the stored settings, or nil when the slot was never set.
	Get(ctx context.Context) (*models.AppSettings, error)

	// Set overwrites the slot.
	Set(ctx context.Context, s *models.AppSettings) error
}
