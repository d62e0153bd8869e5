package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

func (a *App) getStatus() string {
	_, meta := a.currentSession()
	if meta == nil {
		return ""
	}
	return fmt.Sprintf("(%s)", meta.Name)
}

// Root runs the command loop until exit or EOF.
func (a *App) Root(ctx context.Context) {
	fmt.Println("Welcome to credvault (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Printf("vault %s> ", a.getStatus())
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			a.help()
		case "vaults":
			a.listVaults(ctx)
		case "create":
			a.createVault(ctx)
		case "open":
			a.openVault(ctx, args)
		case "lock":
			a.lockSession(ctx, "user command")
		case "rename":
			a.renameVault(ctx)
		case "passwd":
			a.changeMasterPassword(ctx)
		case "rmvault":
			a.deleteVault(ctx, args)
		case "list", "l":
			a.listCredentials(ctx)
		case "show":
			a.showCredential(ctx, args)
		case "add":
			a.addCredential(ctx)
		case "edit":
			a.editCredential(ctx, args)
		case "rm":
			a.deleteCredential(ctx, args)
		case "settings":
			a.vaultSettings(ctx)
		case "gen":
			a.generatePassword(args)
		case "export":
			a.exportBackup(ctx, args)
		case "import":
			a.importBackup(ctx, args)
		case "exit", "quit":
			fmt.Println("Bye!")
			return
		default:
			fmt.Println("Unknown command:", cmd)
		}
	}
}

func (a *App) help() {
	if a.isUnlocked() {
		fmt.Println("Vault:       list, show <id>, add, edit <id>, rm <id>, settings, rename, passwd, lock")
		fmt.Println("General:     vaults, gen [length], export <file>, import <file>, exit")
	} else {
		fmt.Println("Vaults:      vaults, create, open <id>, rmvault <id>")
		fmt.Println("General:     gen [length], export <file>, import <file>, exit")
	}
}
