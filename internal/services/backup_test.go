package services

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/credvault/credvault/internal/common"
	"github.com/credvault/credvault/internal/models"
)

func TestBackup_ExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()

	srcManager := newTestManager(t)
	srcVaults := NewVaultService(srcManager, testLogger())
	srcBackup := NewBackupService(srcManager, testLogger())

	id, err := srcVaults.CreateVault(ctx, "Personal", []byte("hunter2"))
	require.NoError(t, err)
	_, err = srcVaults.AddCredential(ctx, id, []byte("hunter2"), models.CredentialInput{Title: "Email"})
	require.NoError(t, err)
	require.NoError(t, srcVaults.SetAppSettings(ctx, &models.AppSettings{DarkMode: true, DefaultVaultID: id}))

	backup, err := srcBackup.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.BackupVersion, backup.Version)
	assert.False(t, backup.ExportDate.IsZero())
	require.Len(t, backup.Vaults, 1)

	raw, err := json.Marshal(backup)
	require.NoError(t, err)

	dstManager := newTestManager(t)
	dstVaults := NewVaultService(dstManager, testLogger())
	dstBackup := NewBackupService(dstManager, testLogger())

	require.NoError(t, dstBackup.Import(ctx, raw))

	_, data, err := dstVaults.OpenVault(ctx, id, []byte("hunter2"))
	require.NoError(t, err)
	require.Len(t, data.Credentials, 1)
	assert.Equal(t, "Email", data.Credentials[0].Title)

	settings, err := dstVaults.GetAppSettings(ctx)
	require.NoError(t, err)
	require.NotNil(t, settings)
	assert.True(t, settings.DarkMode)
	assert.Equal(t, id, settings.DefaultVaultID)
}

func TestBackup_ImportUpsertsByID(t *testing.T) {
	ctx := context.Background()

	manager := newTestManager(t)
	vaults := NewVaultService(manager, testLogger())
	backup := NewBackupService(manager, testLogger())

	id, err := vaults.CreateVault(ctx, "Personal", []byte("hunter2"))
	require.NoError(t, err)

	exported, err := backup.Export(ctx)
	require.NoError(t, err)

	// mutate after the export, then re-import: the backup copy wins
	_, err = vaults.RenameVault(ctx, id, []byte("hunter2"), "Renamed")
	require.NoError(t, err)

	raw, err := json.Marshal(exported)
	require.NoError(t, err)
	require.NoError(t, backup.Import(ctx, raw))

	metas, err := vaults.ListVaults(ctx)
	require.NoError(t, err)
	require.Len(t, metas, 1)
	assert.Equal(t, "Personal", metas[0].Name)
}

func TestBackup_ImportInvalidFormat(t *testing.T) {
	ctx := context.Background()
	backup := NewBackupService(newTestManager(t), testLogger())

	for _, raw := range []string{
		`not json at all`,
		`{}`,
		`{"vaults": null}`,
		`{"vaults": {"id": "x"}}`,
		`{"settings": {"darkMode": true}}`,
	} {
		err := backup.Import(ctx, []byte(raw))
		assert.ErrorIs(t, err, common.ErrorInvalidFormat, "payload %s", raw)
	}
}

func TestBackup_FileRoundTrip(t *testing.T) {
	ctx := context.Background()

	srcManager := newTestManager(t)
	srcVaults := NewVaultService(srcManager, testLogger())
	srcBackup := NewBackupService(srcManager, testLogger())

	id, err := srcVaults.CreateVault(ctx, "Personal", []byte("hunter2"))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "backup.json")
	require.NoError(t, srcBackup.ExportToFile(ctx, path))

	dstManager := newTestManager(t)
	dstBackup := NewBackupService(dstManager, testLogger())
	require.NoError(t, dstBackup.ImportFromFile(ctx, path))

	rec, err := dstManager.Records().Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Personal", rec.Name)
}

func TestBackup_ImportFromFile_Missing(t *testing.T) {
	backup := NewBackupService(newTestManager(t), testLogger())
	err := backup.ImportFromFile(context.Background(), filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
