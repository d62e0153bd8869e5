// Package services contains the application services of the vault: the
// orchestration core composing key derivation, authenticated encryption and
// the record store, plus backup export/import.
package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/credvault/credvault/internal/common"
	"github.com/credvault/credvault/internal/cryptox"
	"github.com/credvault/credvault/internal/logging"
	"github.com/credvault/credvault/internal/models"
	"github.com/credvault/credvault/internal/repositories/appsettings"
	"github.com/credvault/credvault/internal/repositories/records"
	"github.com/credvault/credvault/internal/repositories/repomanager"
	"github.com/credvault/credvault/internal/timex"
)

// VaultService orchestrates every vault and credential operation. Each
// mutation decrypts the entire vault, mutates the in-memory plaintext and
// re-encrypts and persists the entire record; there is never a partial or
// field-level update. GCM ciphertext is not safely mutable in place, and a
// single (ciphertext, iv, salt) unit keeps the rewrite atomic.
//
// Concurrent mutations of the same vault are serialized optimistically:
// every rewrite carries the lastModified value it read, and the second of
// two racing writers fails with common.ErrorConflict instead of silently
// discarding the first writer's work.
//
// All operations must honor context cancellation. Every operation costs
// O(full vault size); acceptable for a single user with hundreds of
// credentials, a documented scaling limit beyond that.
type VaultService interface {
	// CreateVault creates a vault with the given display name, protected
	// by password, and returns its id.
	CreateVault(ctx context.Context, name string, password []byte) (string, error)

	// OpenVault decrypts the vault and returns its metadata and plaintext.
	// The lastAccessed bump is persisted through the same full-record path
	// as any other write.
	OpenVault(ctx context.Context, id string, password []byte) (*models.Vault, *models.VaultData, error)

	// OpenSession opens the vault once and returns a Session owning the
	// derived key, so repeated operations skip re-derivation.
	OpenSession(ctx context.Context, id string, password []byte) (*Session, *models.VaultData, error)

	// UpdateVault replaces the vault plaintext wholesale and optionally
	// renames the vault.
	UpdateVault(ctx context.Context, id string, password []byte, data *models.VaultData, newName *string) (*models.Vault, error)

	// RenameVault changes the display name, leaving the payload untouched.
	RenameVault(ctx context.Context, id string, password []byte, newName string) (*models.Vault, error)

	// ChangeMasterPassword re-keys the vault: it validates the current
	// password, derives a brand-new salt and key from the new password and
	// persists new salt, ciphertext and iv as one unit.
	ChangeMasterPassword(ctx context.Context, id string, current, newPassword []byte) error

	// AddCredential appends a credential with a fresh id and
	// createdAt == lastModified == now.
	AddCredential(ctx context.Context, vaultID string, password []byte, in models.CredentialInput) (*models.Credential, error)

	// UpdateCredential applies the given field overrides. Id and createdAt
	// are preserved, lastModified is bumped.
	UpdateCredential(ctx context.Context, vaultID string, password []byte, credentialID string, patch models.CredentialPatch) (*models.Credential, error)

	// DeleteCredential removes a credential by id, failing with
	// common.ErrorNotFound when the id is absent.
	DeleteCredential(ctx context.Context, vaultID string, password []byte, credentialID string) error

	// UpdateVaultSettings merges the patch into the stored settings.
	UpdateVaultSettings(ctx context.Context, vaultID string, password []byte, patch models.VaultSettingsPatch) (*models.Vault, error)

	// ListVaults returns public metadata of every vault, no password needed.
	ListVaults(ctx context.Context) ([]models.Vault, error)

	// DeleteVault removes the vault record permanently.
	DeleteVault(ctx context.Context, id string) error

	// GetAppSettings returns the application settings slot, nil when unset.
	GetAppSettings(ctx context.Context) (*models.AppSettings, error)

	// SetAppSettings overwrites the application settings slot.
	SetAppSettings(ctx context.Context, s *models.AppSettings) error
}

type vaultService struct {
	records     records.Repository
	appSettings appsettings.Repository
	logger      logging.Logger
}

// NewVaultService constructs a VaultService on top of the given repository
// manager.
func NewVaultService(m repomanager.Manager, logger logging.Logger) VaultService {
	return &vaultService{
		records:     m.Records(),
		appSettings: m.AppSettings(),
		logger:      logger,
	}
}

func (s *vaultService) CreateVault(ctx context.Context, name string, password []byte) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", common.ErrorValidation
	}
	if len(password) == 0 {
		return "", common.ErrorValidation
	}

	salt := cryptox.GenerateSalt()
	key := cryptox.DeriveKey(password, salt)
	defer common.WipeByteArray(key)

	ciphertext, iv, err := cryptox.Encrypt(models.NewVaultData(), key)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	rec := &models.EncryptedVaultRecord{
		ID:           uuid.NewString(),
		Name:         name,
		Ciphertext:   ciphertext,
		IV:           iv,
		Salt:         salt,
		CreatedAt:    now,
		LastAccessed: now,
		LastModified: now,
	}

	if err := s.records.Create(ctx, rec); err != nil {
		return "", err
	}

	s.logger.Info(ctx, "vault created", "vault_id", rec.ID, "name", name)
	return rec.ID, nil
}

func (s *vaultService) OpenVault(ctx context.Context, id string, password []byte) (*models.Vault, *models.VaultData, error) {
	rec, key, data, err := s.unseal(ctx, id, password)
	if err != nil {
		return nil, nil, err
	}
	defer common.WipeByteArray(key)

	// The lastAccessed bump goes through the same conditional full-record
	// update as every other write. lastModified stays put: opening is not
	// a mutation of the payload.
	expected := rec.LastModified
	rec.LastAccessed = time.Now().UTC()
	if err := s.records.Update(ctx, rec, expected); err != nil {
		return nil, nil, err
	}

	return rec.Meta(), data, nil
}

func (s *vaultService) UpdateVault(ctx context.Context, id string, password []byte, data *models.VaultData, newName *string) (*models.Vault, error) {
	if data == nil {
		return nil, common.ErrorValidation
	}
	rec, key, _, err := s.unseal(ctx, id, password)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(key)

	return s.reseal(ctx, rec, key, data, newName)
}

func (s *vaultService) RenameVault(ctx context.Context, id string, password []byte, newName string) (*models.Vault, error) {
	return s.mutate(ctx, id, password, &newName, func(data *models.VaultData) error {
		return nil
	})
}

func (s *vaultService) ChangeMasterPassword(ctx context.Context, id string, current, newPassword []byte) error {
	if len(newPassword) == 0 {
		return common.ErrorValidation
	}

	// Opening with the current password both validates it and yields the
	// plaintext to carry across the re-key.
	rec, key, data, err := s.unseal(ctx, id, current)
	if err != nil {
		return err
	}
	common.WipeByteArray(key)

	// Always a fresh salt: reusing the old one would let an attacker reuse
	// precomputed tables targeting this vault across rotations.
	newSalt := cryptox.GenerateSalt()
	newKey := cryptox.DeriveKey(newPassword, newSalt)
	defer common.WipeByteArray(newKey)

	rec.Salt = newSalt
	if _, err := s.reseal(ctx, rec, newKey, data, nil); err != nil {
		return err
	}

	s.logger.Info(ctx, "master password rotated", "vault_id", id)
	return nil
}

func (s *vaultService) AddCredential(ctx context.Context, vaultID string, password []byte, in models.CredentialInput) (*models.Credential, error) {
	var created models.Credential
	_, err := s.mutate(ctx, vaultID, password, nil, func(data *models.VaultData) error {
		now := time.Now().UTC()
		created = models.Credential{
			ID:           uuid.NewString(),
			Title:        in.Title,
			Username:     in.Username,
			Password:     in.Password,
			URL:          in.URL,
			Notes:        in.Notes,
			Category:     in.Category,
			Tags:         in.Tags,
			CreatedAt:    now,
			LastModified: now,
		}
		data.Credentials = append(data.Credentials, created)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *vaultService) UpdateCredential(ctx context.Context, vaultID string, password []byte, credentialID string, patch models.CredentialPatch) (*models.Credential, error) {
	var updated models.Credential
	_, err := s.mutate(ctx, vaultID, password, nil, func(data *models.VaultData) error {
		for i := range data.Credentials {
			if data.Credentials[i].ID != credentialID {
				continue
			}
			applyCredentialPatch(&data.Credentials[i], patch)
			data.Credentials[i].LastModified = time.Now().UTC()
			updated = data.Credentials[i]
			return nil
		}
		return common.ErrorNotFound
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *vaultService) DeleteCredential(ctx context.Context, vaultID string, password []byte, credentialID string) error {
	_, err := s.mutate(ctx, vaultID, password, nil, func(data *models.VaultData) error {
		for i := range data.Credentials {
			if data.Credentials[i].ID == credentialID {
				data.Credentials = append(data.Credentials[:i], data.Credentials[i+1:]...)
				return nil
			}
		}
		return common.ErrorNotFound
	})
	return err
}

func (s *vaultService) UpdateVaultSettings(ctx context.Context, vaultID string, password []byte, patch models.VaultSettingsPatch) (*models.Vault, error) {
	return s.mutate(ctx, vaultID, password, nil, func(data *models.VaultData) error {
		if patch.AutoLockTimeout != nil {
			data.Settings.AutoLockTimeout = timex.Duration{Duration: *patch.AutoLockTimeout}
		}
		if patch.Categories != nil {
			data.Settings.Categories = *patch.Categories
		}
		if patch.DefaultCategory != nil {
			data.Settings.DefaultCategory = *patch.DefaultCategory
		}
		return nil
	})
}

func (s *vaultService) ListVaults(ctx context.Context) ([]models.Vault, error) {
	recs, err := s.records.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]models.Vault, 0, len(recs))
	for i := range recs {
		result = append(result, *recs[i].Meta())
	}
	return result, nil
}

func (s *vaultService) DeleteVault(ctx context.Context, id string) error {
	if err := s.records.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info(ctx, "vault deleted", "vault_id", id)
	return nil
}

func (s *vaultService) GetAppSettings(ctx context.Context) (*models.AppSettings, error) {
	return s.appSettings.Get(ctx)
}

func (s *vaultService) SetAppSettings(ctx context.Context, settings *models.AppSettings) error {
	return s.appSettings.Set(ctx, settings)
}

// unseal loads the record, derives the key from the stored salt and the
// given password and decrypts the payload. The caller owns the returned key
// and must wipe it.
func (s *vaultService) unseal(ctx context.Context, id string, password []byte) (*models.EncryptedVaultRecord, []byte, *models.VaultData, error) {
	rec, err := s.records.Get(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}

	key := cryptox.DeriveKey(password, rec.Salt)

	data, err := decryptRecord(rec, key)
	if err != nil {
		common.WipeByteArray(key)
		return nil, nil, nil, err
	}
	return rec, key, data, nil
}

// reseal encrypts data under key, rewrites the record's ciphertext/iv (and
// salt, if the caller changed it) plus timestamps, and persists the whole
// unit conditionally on the lastModified value the record was read with.
func (s *vaultService) reseal(ctx context.Context, rec *models.EncryptedVaultRecord, key []byte, data *models.VaultData, newName *string) (*models.Vault, error) {
	if newName != nil {
		if strings.TrimSpace(*newName) == "" {
			return nil, common.ErrorValidation
		}
		rec.Name = *newName
	}

	ciphertext, iv, err := cryptox.Encrypt(data, key)
	if err != nil {
		return nil, err
	}

	expected := rec.LastModified
	now := time.Now().UTC()
	rec.Ciphertext = ciphertext
	rec.IV = iv
	rec.LastAccessed = now
	rec.LastModified = now

	if err := s.records.Update(ctx, rec, expected); err != nil {
		return nil, err
	}
	return rec.Meta(), nil
}

// mutate runs the full decrypt-mutate-reencrypt-persist round trip with a
// key derived from password. Each call re-opens the vault fresh; no cached
// plaintext is trusted.
func (s *vaultService) mutate(ctx context.Context, id string, password []byte, newName *string, fn func(data *models.VaultData) error) (*models.Vault, error) {
	rec, key, data, err := s.unseal(ctx, id, password)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(key)

	if err := fn(data); err != nil {
		return nil, err
	}
	return s.reseal(ctx, rec, key, data, newName)
}

func decryptRecord(rec *models.EncryptedVaultRecord, key []byte) (*models.VaultData, error) {
	var data models.VaultData
	if err := cryptox.Decrypt(rec.Ciphertext, rec.IV, key, &data); err != nil {
		return nil, err
	}
	if data.Credentials == nil {
		data.Credentials = []models.Credential{}
	}
	return &data, nil
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

func newID() string {
	return uuid.NewString()
}

func applyCredentialPatch(c *models.Credential, patch models.CredentialPatch) {
	if patch.Title != nil {
		c.Title = *patch.Title
	}
	if patch.Username != nil {
		c.Username = *patch.Username
	}
	if patch.Password != nil {
		c.Password = *patch.Password
	}
	if patch.URL != nil {
		c.URL = *patch.URL
	}
	if patch.Notes != nil {
		c.Notes = *patch.Notes
	}
	if patch.Category != nil {
		c.Category = *patch.Category
	}
	if patch.Tags != nil {
		c.Tags = *patch.Tags
	}
}
