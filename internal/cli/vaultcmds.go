package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/credvault/credvault/internal/common"
)

func (a *App) listVaults(ctx context.Context) {
	vaults, err := a.vaults.ListVaults(ctx)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	if len(vaults) == 0 {
		fmt.Println("No vaults yet. Use 'create' to add one.")
		return
	}
	for _, v := range vaults {
		fmt.Printf("%s  %s (last opened %s)\n", v.ID, v.Name, v.LastAccessed.Local().Format("2006-01-02 15:04"))
	}
}

func (a *App) createVault(ctx context.Context) {
	name, err := GetSimpleText(a.reader, "Vault name", os.Stdout)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	password, err := GetPassword("Master password", os.Stdout)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	defer common.WipeByteArray(password)

	confirm, err := GetPassword("Repeat master password", os.Stdout)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	defer common.WipeByteArray(confirm)

	if string(password) != string(confirm) {
		fmt.Println("Passwords do not match.")
		return
	}

	id, err := a.vaults.CreateVault(ctx, name, password)
	if err != nil {
		if errors.Is(err, common.ErrorValidation) {
			fmt.Println("Vault name and password must not be empty.")
			return
		}
		fmt.Println("Error:", err)
		return
	}
	fmt.Println("Vault created:", id)
}

func (a *App) openVault(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: open <id>")
		return
	}

	password, err := GetPassword("Master password", os.Stdout)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	defer common.WipeByteArray(password)

	session, data, err := a.vaults.OpenSession(ctx, args[0], password)
	if err != nil {
		printVaultError(err)
		return
	}

	meta, _, err := session.Data(ctx)
	if err != nil {
		session.Close()
		printVaultError(err)
		return
	}

	a.lockSession(ctx, "switching vault")
	a.setSession(session, meta, data.Settings.AutoLockTimeout.Duration)
	fmt.Printf("Vault %q unlocked, %d credential(s).\n", meta.Name, len(data.Credentials))
}

func (a *App) renameVault(ctx context.Context) {
	session, meta := a.currentSession()
	if session == nil {
		fmt.Println("Open a vault first.")
		return
	}

	name, err := GetOptionalText(a.reader, "New vault name", meta.Name, os.Stdout)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	newMeta, err := session.Rename(ctx, name)
	if err != nil {
		printVaultError(err)
		return
	}
	a.mu.Lock()
	a.sessionMeta = newMeta
	a.mu.Unlock()
	fmt.Println("Vault renamed to", newMeta.Name)
}

func (a *App) changeMasterPassword(ctx context.Context) {
	session, _ := a.currentSession()
	if session == nil {
		fmt.Println("Open a vault first.")
		return
	}
	id := session.VaultID()

	current, err := GetPassword("Current master password", os.Stdout)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	defer common.WipeByteArray(current)

	newPassword, err := GetPassword("New master password", os.Stdout)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	defer common.WipeByteArray(newPassword)

	if err := a.vaults.ChangeMasterPassword(ctx, id, current, newPassword); err != nil {
		printVaultError(err)
		return
	}

	// The rotation re-keyed the vault, so the open session's key is dead.
	a.lockSession(ctx, "master password rotated")
	fmt.Println("Master password changed. The vault was locked; open it again with the new password.")
}

func (a *App) deleteVault(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: rmvault <id>")
		return
	}

	ok, err := GetConfirm(a.reader, fmt.Sprintf("Permanently delete vault %s and all its credentials?", args[0]), os.Stdout)
	if err != nil || !ok {
		fmt.Println("Canceled.")
		return
	}

	if err := a.vaults.DeleteVault(ctx, args[0]); err != nil {
		printVaultError(err)
		return
	}
	fmt.Println("Vault deleted.")
}

func printVaultError(err error) {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		fmt.Println("Not found.")
	case errors.Is(err, common.ErrorDecryption):
		fmt.Println("Incorrect password or corrupted data.")
	case errors.Is(err, common.ErrorConflict):
		fmt.Println("The vault was modified concurrently; please retry.")
	case errors.Is(err, common.ErrorValidation):
		fmt.Println("Invalid input.")
	default:
		fmt.Println("Error:", err)
	}
}
