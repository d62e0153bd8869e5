package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/credvault/credvault/internal/common"
	"github.com/credvault/credvault/internal/logging"
	"github.com/credvault/credvault/internal/models"
	"github.com/credvault/credvault/internal/repositories/repomanager"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

var testDBSeq atomic.Int64

func newTestManager(t *testing.T) repomanager.Manager {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, testDBSeq.Add(1))
	m, err := repomanager.NewSQLiteManager(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func newTestService(t *testing.T) VaultService {
	t.Helper()
	return NewVaultService(newTestManager(t), testLogger())
}

func TestCreateAndOpenVault_EndToEnd(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreateVault(ctx, "Personal", []byte("hunter2"))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	meta, data, err := svc.OpenVault(ctx, id, []byte("hunter2"))
	require.NoError(t, err)
	assert.Equal(t, "Personal", meta.Name)
	assert.Empty(t, data.Credentials)
	assert.Equal(t, []string{"Login", "Financial", "Personal", "Work"}, data.Settings.Categories)
	assert.Equal(t, "Login", data.Settings.DefaultCategory)

	cred, err := svc.AddCredential(ctx, id, []byte("hunter2"), models.CredentialInput{
		Title:    "Email",
		Username: "a@b.com",
		Password: "x",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, cred.ID)
	assert.True(t, cred.CreatedAt.Equal(cred.LastModified))

	_, data, err = svc.OpenVault(ctx, id, []byte("hunter2"))
	require.NoError(t, err)
	require.Len(t, data.Credentials, 1)
	assert.Equal(t, *cred, data.Credentials[0])
}

func TestCreateVault_Validation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateVault(ctx, "  ", []byte("pw"))
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = svc.CreateVault(ctx, "Personal", nil)
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestOpenVault_WrongPassword(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreateVault(ctx, "Personal", []byte("hunter2"))
	require.NoError(t, err)

	_, _, err = svc.OpenVault(ctx, id, []byte("wrong"))
	assert.ErrorIs(t, err, common.ErrorDecryption)
}

func TestOpenVault_NotFound(t *testing.T) {
	svc := newTestService(t)

	_, _, err := svc.OpenVault(context.Background(), "no-such-vault", []byte("pw"))
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestOpenVault_StableAcrossReopens(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreateVault(ctx, "Personal", []byte("hunter2"))
	require.NoError(t, err)

	_, err = svc.AddCredential(ctx, id, []byte("hunter2"), models.CredentialInput{Title: "Email"})
	require.NoError(t, err)

	_, first, err := svc.OpenVault(ctx, id, []byte("hunter2"))
	require.NoError(t, err)
	_, second, err := svc.OpenVault(ctx, id, []byte("hunter2"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAddCredential_DistinctIDs(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreateVault(ctx, "Personal", []byte("hunter2"))
	require.NoError(t, err)

	const n = 5
	for i := 0; i < n; i++ {
		_, err := svc.AddCredential(ctx, id, []byte("hunter2"), models.CredentialInput{Title: "Entry"})
		require.NoError(t, err)
	}

	_, data, err := svc.OpenVault(ctx, id, []byte("hunter2"))
	require.NoError(t, err)
	require.Len(t, data.Credentials, n)

	ids := make(map[string]struct{}, n)
	for _, c := range data.Credentials {
		ids[c.ID] = struct{}{}
	}
	assert.Len(t, ids, n)
}

func TestUpdateCredential(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreateVault(ctx, "Personal", []byte("hunter2"))
	require.NoError(t, err)

	cred, err := svc.AddCredential(ctx, id, []byte("hunter2"), models.CredentialInput{
		Title:    "Email",
		Username: "old@b.com",
	})
	require.NoError(t, err)

	newUser := "new@b.com"
	updated, err := svc.UpdateCredential(ctx, id, []byte("hunter2"), cred.ID, models.CredentialPatch{Username: &newUser})
	require.NoError(t, err)

	assert.Equal(t, cred.ID, updated.ID)
	assert.Equal(t, "Email", updated.Title, "unpatched fields stay put")
	assert.Equal(t, "new@b.com", updated.Username)
	assert.True(t, updated.CreatedAt.Equal(cred.CreatedAt), "createdAt is immutable")
	assert.True(t, updated.LastModified.After(cred.LastModified) || updated.LastModified.Equal(cred.LastModified))
}

func TestUpdateCredential_NotFound(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreateVault(ctx, "Personal", []byte("hunter2"))
	require.NoError(t, err)

	title := "x"
	_, err = svc.UpdateCredential(ctx, id, []byte("hunter2"), "ghost", models.CredentialPatch{Title: &title})
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestDeleteCredential(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreateVault(ctx, "Personal", []byte("hunter2"))
	require.NoError(t, err)

	cred, err := svc.AddCredential(ctx, id, []byte("hunter2"), models.CredentialInput{Title: "Email"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteCredential(ctx, id, []byte("hunter2"), cred.ID))

	_, data, err := svc.OpenVault(ctx, id, []byte("hunter2"))
	require.NoError(t, err)
	assert.Empty(t, data.Credentials)

	// deleting an id that is gone is an explicit failure, not a no-op
	err = svc.DeleteCredential(ctx, id, []byte("hunter2"), cred.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestUpdateVaultSettings_Merge(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreateVault(ctx, "Personal", []byte("hunter2"))
	require.NoError(t, err)

	timeout := 10 * time.Minute
	_, err = svc.UpdateVaultSettings(ctx, id, []byte("hunter2"), models.VaultSettingsPatch{AutoLockTimeout: &timeout})
	require.NoError(t, err)

	_, data, err := svc.OpenVault(ctx, id, []byte("hunter2"))
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, data.Settings.AutoLockTimeout.Duration)
	assert.Equal(t, []string{"Login", "Financial", "Personal", "Work"}, data.Settings.Categories,
		"unpatched settings survive the merge")
}

func TestRenameVault(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreateVault(ctx, "Personal", []byte("hunter2"))
	require.NoError(t, err)

	meta, err := svc.RenameVault(ctx, id, []byte("hunter2"), "Work")
	require.NoError(t, err)
	assert.Equal(t, "Work", meta.Name)

	_, err = svc.RenameVault(ctx, id, []byte("hunter2"), "   ")
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestChangeMasterPassword(t *testing.T) {
	m := newTestManager(t)
	svc := NewVaultService(m, testLogger())
	ctx := context.Background()

	id, err := svc.CreateVault(ctx, "Personal", []byte("old-pass"))
	require.NoError(t, err)

	cred, err := svc.AddCredential(ctx, id, []byte("old-pass"), models.CredentialInput{Title: "Email"})
	require.NoError(t, err)

	before, err := m.Records().Get(ctx, id)
	require.NoError(t, err)

	require.NoError(t, svc.ChangeMasterPassword(ctx, id, []byte("old-pass"), []byte("new-pass")))

	after, err := m.Records().Get(ctx, id)
	require.NoError(t, err)
	assert.NotEqual(t, before.Salt, after.Salt, "rotation must assign a fresh salt")
	assert.NotEqual(t, before.Ciphertext, after.Ciphertext)

	_, _, err = svc.OpenVault(ctx, id, []byte("old-pass"))
	assert.ErrorIs(t, err, common.ErrorDecryption)

	_, data, err := svc.OpenVault(ctx, id, []byte("new-pass"))
	require.NoError(t, err)
	require.Len(t, data.Credentials, 1)
	assert.Equal(t, cred.ID, data.Credentials[0].ID, "payload survives the re-key")
}

func TestChangeMasterPassword_WrongCurrent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreateVault(ctx, "Personal", []byte("hunter2"))
	require.NoError(t, err)

	err = svc.ChangeMasterPassword(ctx, id, []byte("wrong"), []byte("new-pass"))
	assert.ErrorIs(t, err, common.ErrorDecryption)

	_, _, err = svc.OpenVault(ctx, id, []byte("hunter2"))
	assert.NoError(t, err, "failed rotation must leave the vault untouched")
}

func TestListVaults(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	id1, err := svc.CreateVault(ctx, "Personal", []byte("a"))
	require.NoError(t, err)
	id2, err := svc.CreateVault(ctx, "Work", []byte("b"))
	require.NoError(t, err)

	vaults, err := svc.ListVaults(ctx)
	require.NoError(t, err)
	require.Len(t, vaults, 2)
	assert.Equal(t, id1, vaults[0].ID)
	assert.Equal(t, id2, vaults[1].ID)
}

func TestDeleteVault(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreateVault(ctx, "Personal", []byte("hunter2"))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteVault(ctx, id))

	_, _, err = svc.OpenVault(ctx, id, []byte("hunter2"))
	assert.ErrorIs(t, err, common.ErrorNotFound)

	assert.ErrorIs(t, svc.DeleteVault(ctx, id), common.ErrorNotFound)
}

func TestAppSettings(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	s, err := svc.GetAppSettings(ctx)
	require.NoError(t, err)
	assert.Nil(t, s)

	in := &models.AppSettings{DarkMode: true, DefaultVaultID: "v1"}
	require.NoError(t, svc.SetAppSettings(ctx, in))

	got, err := svc.GetAppSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestSession(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreateVault(ctx, "Personal", []byte("hunter2"))
	require.NoError(t, err)

	session, data, err := svc.OpenSession(ctx, id, []byte("hunter2"))
	require.NoError(t, err)
	defer session.Close()
	assert.Empty(t, data.Credentials)
	assert.Equal(t, id, session.VaultID())

	cred, err := session.AddCredential(ctx, models.CredentialInput{Title: "Email", Username: "a@b.com"})
	require.NoError(t, err)

	newTitle := "Mail"
	updated, err := session.UpdateCredential(ctx, cred.ID, models.CredentialPatch{Title: &newTitle})
	require.NoError(t, err)
	assert.Equal(t, "Mail", updated.Title)

	_, data, err = session.Data(ctx)
	require.NoError(t, err)
	require.Len(t, data.Credentials, 1)

	require.NoError(t, session.DeleteCredential(ctx, cred.ID))

	_, data, err = session.Data(ctx)
	require.NoError(t, err)
	assert.Empty(t, data.Credentials)
}

func TestSession_WrongPassword(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreateVault(ctx, "Personal", []byte("hunter2"))
	require.NoError(t, err)

	_, _, err = svc.OpenSession(ctx, id, []byte("wrong"))
	assert.ErrorIs(t, err, common.ErrorDecryption)
}

func TestSession_InvalidatedByRotation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreateVault(ctx, "Personal", []byte("hunter2"))
	require.NoError(t, err)

	session, _, err := svc.OpenSession(ctx, id, []byte("hunter2"))
	require.NoError(t, err)
	defer session.Close()

	require.NoError(t, svc.ChangeMasterPassword(ctx, id, []byte("hunter2"), []byte("rotated")))

	_, _, err = session.Data(ctx)
	assert.ErrorIs(t, err, common.ErrorDecryption, "stale session key must fail like a wrong password")
}

func TestSession_ClosedKeyIsUseless(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreateVault(ctx, "Personal", []byte("hunter2"))
	require.NoError(t, err)

	session, _, err := svc.OpenSession(ctx, id, []byte("hunter2"))
	require.NoError(t, err)
	session.Close()

	_, _, err = session.Data(ctx)
	assert.ErrorIs(t, err, common.ErrorDecryption)
}
