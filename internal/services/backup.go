package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/credvault/credvault/internal/common"
	"github.com/credvault/credvault/internal/logging"
	"github.com/credvault/credvault/internal/models"
	"github.com/credvault/credvault/internal/repositories/appsettings"
	"github.com/credvault/credvault/internal/repositories/records"
	"github.com/credvault/credvault/internal/repositories/repomanager"
)

// BackupService exports and imports the full record store as a JSON file.
// Records travel in their encrypted form; a backup never contains vault
// plaintext and is only useful to someone who knows the master passwords.
type BackupService interface {
	// Export collects all records and the app settings slot.
	Export(ctx context.Context) (*models.Backup, error)

	// ExportToFile writes the backup JSON to path with 0600 permissions.
	ExportToFile(ctx context.Context, path string) error

	// Import parses raw backup JSON and applies it: each record is
	// upserted by id, the settings slot is overwritten if present. The
	// whole import is one transaction. A payload without a vaults array
	// fails with common.ErrorInvalidFormat.
	Import(ctx context.Context, raw []byte) error

	// ImportFromFile reads path and imports its contents.
	ImportFromFile(ctx context.Context, path string) error
}

type backupService struct {
	manager repomanager.Manager
	logger  logging.Logger
}

// NewBackupService constructs a BackupService on top of the given
// repository manager.
func NewBackupService(m repomanager.Manager, logger logging.Logger) BackupService {
	return &backupService{manager: m, logger: logger}
}

func (s *backupService) Export(ctx context.Context) (*models.Backup, error) {
	recs, err := s.manager.Records().GetAll(ctx)
	if err != nil {
		return nil, err
	}
	settings, err := s.manager.AppSettings().Get(ctx)
	if err != nil {
		return nil, err
	}

	return &models.Backup{
		Vaults:     recs,
		Settings:   settings,
		ExportDate: nowUTC(),
		Version:    models.BackupVersion,
	}, nil
}

func (s *backupService) ExportToFile(ctx context.Context, path string) error {
	backup, err := s.Export(ctx)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("error writing backup file: %w", err)
	}

	s.logger.Info(ctx, "backup exported", "path", path, "vaults", len(backup.Vaults))
	return nil
}

func (s *backupService) Import(ctx context.Context, raw []byte) error {
	// The vaults key must be present and must be an array; anything else
	// is a malformed backup, not an empty one.
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return common.ErrorInvalidFormat
	}
	rawVaults, ok := probe["vaults"]
	if !ok {
		return common.ErrorInvalidFormat
	}

	var backup models.Backup
	if err := json.Unmarshal(raw, &backup); err != nil {
		return common.ErrorInvalidFormat
	}
	if string(rawVaults) == "null" || backup.Vaults == nil {
		return common.ErrorInvalidFormat
	}

	err := s.manager.InTx(ctx, func(rec records.Repository, set appsettings.Repository) error {
		for i := range backup.Vaults {
			if err := rec.Upsert(ctx, &backup.Vaults[i]); err != nil {
				return err
			}
		}
		if backup.Settings != nil {
			if err := set.Set(ctx, backup.Settings); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "backup imported", "vaults", len(backup.Vaults), "version", backup.Version)
	return nil
}

func (s *backupService) ImportFromFile(ctx context.Context, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading backup file: %w", err)
	}
	return s.Import(ctx, raw)
}
