package models

import (
	"time"

	"github.com/credvault/credvault/internal/timex"
)

// AppSettings are application-wide preferences stored unencrypted in a
// singleton slot of the record store.
type AppSettings struct {
	DarkMode        bool          `json:"darkMode"`
	AutoLockTimeout timex.Duration `json:"autoLockTimeout"`
	DefaultVaultID  string        `json:"defaultVaultId"`
}

// BackupVersion is the format version written into exported backup files.
const BackupVersion = 1

// Backup is the JSON envelope for export/import of all vault records plus
// the application settings slot.
type Backup struct {
	Vaults     []EncryptedVaultRecord `json:"vaults"`
	Settings   *AppSettings           `json:"settings"`
	ExportDate time.Time              `json:"exportDate"`
	Version    int                    `json:"version"`
}
