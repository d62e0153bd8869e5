package models

import (
	"time"

	"github.com/credvault/credvault/internal/timex"
)

// Default vault settings applied on vault creation.
const (
	DefaultCategory        = "Login"
	DefaultAutoLockTimeout = 5 * time.Minute
)

// DefaultCategories returns the category set a brand-new vault starts with.
func DefaultCategories() []string {
	return []string{"Login", "Financial", "Personal", "Work"}
}

// VaultSettings holds per-vault preferences. They travel inside the
// encrypted payload together with the credentials.
type VaultSettings struct {
	AutoLockTimeout timex.Duration `json:"autoLockTimeout"`
	Categories      []string      `json:"categories"`
	DefaultCategory string        `json:"defaultCategory"`
}

// VaultSettingsPatch carries optional overrides merged into existing
// settings. Nil fields are left unchanged.
type VaultSettingsPatch struct {
	AutoLockTimeout *time.Duration
	Categories      *[]string
	DefaultCategory *string
}

// VaultData is the vault plaintext. It exists in memory only while a vault
// is open and is never persisted unencrypted.
type VaultData struct {
	Credentials []Credential  `json:"credentials"`
	Settings    VaultSettings `json:"settings"`
}

// NewVaultData returns the default payload for a freshly created vault:
// no credentials and the default settings.
func NewVaultData() *VaultData {
	return &VaultData{
		Credentials: []Credential{},
		Settings: VaultSettings{
			AutoLockTimeout: timex.Duration{Duration: DefaultAutoLockTimeout},
			Categories:      DefaultCategories(),
			DefaultCategory: DefaultCategory,
		},
	}
}

// Vault is the public, unencrypted vault metadata.
type Vault struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"createdAt"`
	LastAccessed time.Time `json:"lastAccessed"`
	LastModified time.Time `json:"lastModified"`
}

// EncryptedVaultRecord is the only persisted form of a vault. Ciphertext
// decodes to a serialized VaultData. Salt is fixed for the vault's lifetime
// except on master-password rotation; IV is fresh on every encryption.
// Ciphertext, IV and Salt are always rewritten together as a single unit.
type EncryptedVaultRecord struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Ciphertext   []byte    `json:"ciphertext"`
	IV           []byte    `json:"iv"`
	Salt         []byte    `json:"salt"`
	CreatedAt    time.Time `json:"createdAt"`
	LastAccessed time.Time `json:"lastAccessed"`
	LastModified time.Time `json:"lastModified"`
}

// Meta returns the public metadata view of the record.
func (r *EncryptedVaultRecord) Meta() *Vault {
	return &Vault{
		ID:           r.ID,
		Name:         r.Name,
		CreatedAt:    r.CreatedAt,
		LastAccessed: r.LastAccessed,
		LastModified: r.LastModified,
	}
}
