// Package cli implements the interactive vault REPL: vault picker, credential
// commands, settings, backup and the password generator front end.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/credvault/credvault/internal/config"
	"github.com/credvault/credvault/internal/logging"
	"github.com/credvault/credvault/internal/models"
	"github.com/credvault/credvault/internal/repositories/repomanager"
	"github.com/credvault/credvault/internal/services"
)

// ErrAlreadyRunning is reported when another process holds the lockfile.
var ErrAlreadyRunning = errors.New("another instance is already using this database")

// App owns the open resources of one CLI run: the record store, the
// process lockfile and, between `open` and `lock`, the vault session.
type App struct {
	config  *config.Config
	logger  logging.Logger
	manager repomanager.Manager
	vaults  services.VaultService
	backup  services.BackupService
	reader  *bufio.Reader
	lock    *flock.Flock

	mu           sync.Mutex
	session      *services.Session
	sessionMeta  *models.Vault
	autoLock     time.Duration
	lastActivity time.Time
}

// NewApp acquires the lockfile, opens the record store for the configured
// driver and wires the services. The caller must Close the returned App.
func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	lock := flock.New(cfg.LockFile)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lockfile error: %w", err)
	}
	if !locked {
		return nil, ErrAlreadyRunning
	}

	var manager repomanager.Manager
	switch cfg.Driver {
	case config.DriverPostgres:
		manager, err = repomanager.NewPostgresManager(ctx, cfg.DatabaseDSN)
	case config.DriverSQLite:
		manager, err = repomanager.NewSQLiteManager(ctx, cfg.DatabaseDSN)
	default:
		err = fmt.Errorf("unknown driver: %s", cfg.Driver)
	}
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	return &App{
		config:  cfg,
		logger:  logger,
		manager: manager,
		vaults:  services.NewVaultService(manager, logger),
		backup:  services.NewBackupService(manager, logger),
		reader:  bufio.NewReader(os.Stdin),
		lock:    lock,
	}, nil
}

// Run starts the REPL and blocks until the user exits or ctx is canceled.
func (a *App) Run(ctx context.Context) {
	go a.startAutoLockWatcher(ctx, time.Second)
	a.Root(ctx)
}

// Close locks any open session and releases the store and the lockfile.
func (a *App) Close() {
	a.lockSession(context.Background(), "shutdown")
	if err := a.manager.Close(); err != nil {
		a.logger.Error(context.Background(), "error closing record store", "error", err)
	}
	_ = a.lock.Unlock()
}

func (a *App) isUnlocked() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session != nil
}

func (a *App) currentSession() (*services.Session, *models.Vault) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastActivity = time.Now()
	return a.session, a.sessionMeta
}

func (a *App) setSession(s *services.Session, meta *models.Vault, autoLock time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.session = s
	a.sessionMeta = meta
	a.autoLock = autoLock
	a.lastActivity = time.Now()
}

// lockSession closes the open session, wiping its key.
func (a *App) lockSession(ctx context.Context, reason string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil {
		return
	}
	a.session.Close()
	a.logger.Info(ctx, "vault locked", "vault_id", a.session.VaultID(), "reason", reason)
	a.session = nil
	a.sessionMeta = nil
}

// startAutoLockWatcher locks the session after the vault's configured
// inactivity timeout.
func (a *App) startAutoLockWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.mu.Lock()
			expired := a.session != nil && a.autoLock > 0 && time.Since(a.lastActivity) > a.autoLock
			a.mu.Unlock()
			if expired {
				a.lockSession(ctx, "auto-lock timeout")
				fmt.Println("\nVault locked after inactivity.")
			}
		case <-ctx.Done():
			return
		}
	}
}
