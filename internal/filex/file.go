// Package filex holds small filesystem helpers shared by the CLI and the
// configuration layer.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureUserDir creates (if needed) and returns a directory with the given
// name under the user's home directory, with owner-only permissions. This is
// where the vault database, lockfile and config live by default.
func EnsureUserDir(dirName string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}

	dir := filepath.Join(home, dirName)

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}
