package services

import (
	"context"

	"github.com/credvault/credvault/internal/common"
	"github.com/credvault/credvault/internal/models"
	"github.com/credvault/credvault/internal/timex"
)

// Session is an open-vault handle that owns the derived key for its
// lifetime, so repeated operations skip the expensive re-derivation from
// the master password. Close zeroes the key; after Close every operation
// fails with common.ErrorDecryption.
//
// Each operation still re-reads and decrypts the current record; the
// session caches the key, never the plaintext. A master-password rotation
// performed elsewhere invalidates the session implicitly: its key no longer
// decrypts the record, which surfaces as the same unified decryption error
// as a wrong password.
//
// A Session is not safe for concurrent use by multiple goroutines.
type Session struct {
	svc     *vaultService
	vaultID string
	key     []byte
}

// OpenSession validates the password against the vault, bumps lastAccessed
// and returns a Session plus the current plaintext.
func (s *vaultService) OpenSession(ctx context.Context, id string, password []byte) (*Session, *models.VaultData, error) {
	rec, key, data, err := s.unseal(ctx, id, password)
	if err != nil {
		return nil, nil, err
	}

	expected := rec.LastModified
	rec.LastAccessed = nowUTC()
	if err := s.records.Update(ctx, rec, expected); err != nil {
		common.WipeByteArray(key)
		return nil, nil, err
	}

	return &Session{svc: s, vaultID: id, key: key}, data, nil
}

// VaultID returns the id of the vault this session is bound to.
func (sn *Session) VaultID() string {
	return sn.vaultID
}

// Data re-reads and decrypts the current vault payload.
func (sn *Session) Data(ctx context.Context) (*models.Vault, *models.VaultData, error) {
	rec, err := sn.svc.records.Get(ctx, sn.vaultID)
	if err != nil {
		return nil, nil, err
	}
	data, err := decryptRecord(rec, sn.key)
	if err != nil {
		return nil, nil, err
	}
	return rec.Meta(), data, nil
}

// AddCredential appends a credential using the session key.
func (sn *Session) AddCredential(ctx context.Context, in models.CredentialInput) (*models.Credential, error) {
	var created models.Credential
	_, err := sn.mutate(ctx, func(data *models.VaultData) error {
		now := nowUTC()
		created = models.Credential{
			ID:           newID(),
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

// UpdateCredential applies field overrides using the session key.
func (sn *Session) UpdateCredential(ctx context.Context, credentialID string, patch models.CredentialPatch) (*models.Credential, error) {
	var updated models.Credential
	_, err := sn.mutate(ctx, func(data *models.VaultData) error {
		for i := range data.Credentials {
			if data.Credentials[i].ID != credentialID {
				continue
			}
			applyCredentialPatch(&data.Credentials[i], patch)
			data.Credentials[i].LastModified = nowUTC()
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

// DeleteCredential removes a credential by id using the session key.
func (sn *Session) DeleteCredential(ctx context.Context, credentialID string) error {
	_, err := sn.mutate(ctx, func(data *models.VaultData) error {
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

// UpdateSettings merges the patch into the vault settings using the
// session key.
func (sn *Session) UpdateSettings(ctx context.Context, patch models.VaultSettingsPatch) (*models.Vault, error) {
	return sn.mutate(ctx, func(data *models.VaultData) error {
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

// Rename changes the vault's display name using the session key.
func (sn *Session) Rename(ctx context.Context, newName string) (*models.Vault, error) {
	rec, err := sn.svc.records.Get(ctx, sn.vaultID)
	if err != nil {
		return nil, err
	}
	data, err := decryptRecord(rec, sn.key)
	if err != nil {
		return nil, err
	}
	return sn.svc.reseal(ctx, rec, sn.key, data, &newName)
}

// Close wipes the session key. The session is unusable afterwards.
func (sn *Session) Close() {
	common.WipeByteArray(sn.key)
}

func (sn *Session) mutate(ctx context.Context, fn func(data *models.VaultData) error) (*models.Vault, error) {
	rec, err := sn.svc.records.Get(ctx, sn.vaultID)
	if err != nil {
		return nil, err
	}
	data, err := decryptRecord(rec, sn.key)
	if err != nil {
		return nil, err
	}
	if err := fn(data); err != nil {
		return nil, err
	}
	return sn.svc.reseal(ctx, rec, sn.key, data, nil)
}
