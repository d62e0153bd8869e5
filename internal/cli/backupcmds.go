package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/credvault/credvault/internal/common"
)

func (a *App) exportBackup(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: export <file>")
		return
	}

	if err := a.backup.ExportToFile(ctx, args[0]); err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println("Backup written to", args[0])
}

func (a *App) importBackup(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: import <file>")
		return
	}

	ok, err := GetConfirm(a.reader, "Importing overwrites vaults with matching ids. Continue?", os.Stdout)
	if err != nil || !ok {
		fmt.Println("Canceled.")
		return
	}

	// An imported vault may replace the one currently open; lock first so
	// no session keeps a key for pre-import data.
	a.lockSession(ctx, "backup import")

	if err := a.backup.ImportFromFile(ctx, args[0]); err != nil {
		if errors.Is(err, common.ErrorInvalidFormat) {
			fmt.Println("The file is not a valid backup.")
			return
		}
		fmt.Println("Error:", err)
		return
	}
	fmt.Println("Backup imported.")
}
