package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/julianstephens/daylog/internal/backup"
	"github.com/julianstephens/daylog/internal/client"
	"github.com/julianstephens/daylog/internal/config"
	"github.com/julianstephens/daylog/internal/constants"
	"github.com/julianstephens/daylog/internal/keyring"
	"github.com/julianstephens/daylog/internal/lockfile"
	"github.com/julianstephens/daylog/internal/logger"
	"github.com/julianstephens/daylog/internal/storage"
	"github.com/julianstephens/daylog/internal/storage/stores"
)

// Context is handed to every command's Run method.
type Context struct {
	Ctx context.Context

	Config     config.Config
	ConfigPath string
	ConfigDir  string

	Out io.Writer
	Err io.Writer
	In  io.Reader

	// urlSet is true when --url or DAYLOG_URL chose the server explicitly.
	urlSet bool
	// readKeyring is replaceable for tests.
	readKeyring func() (string, error)
}

// NewContext builds a command context over stdio.
func NewContext(ctx context.Context, cfg config.Config, configPath string, urlSet bool) *Context {
	return &Context{
		Ctx:         ctx,
		Config:      cfg,
		ConfigPath:  configPath,
		ConfigDir:   dirOf(configPath),
		Out:         os.Stdout,
		Err:         os.Stderr,
		In:          os.Stdin,
		urlSet:      urlSet,
		readKeyring: keyring.GetConnectionString,
	}
}

// StoreTarget resolves the configured store to a path or connection string.
func (c *Context) StoreTarget() (string, error) {
	return c.Config.ResolveStore(c.readKeyring)
}

// OpenStore returns the configured store, unopened.
func (c *Context) OpenStore() (storage.Provider, error) {
	target, err := c.StoreTarget()
	if err != nil {
		return nil, err
	}
	return stores.Open(target)
}

// LoadStore opens an initialized store.
func (c *Context) LoadStore() (storage.Provider, error) {
	st, err := c.OpenStore()
	if err != nil {
		return nil, err
	}
	if err := st.Load(); err != nil {
		return nil, fmt.Errorf("failed to load %s store: %w", st.Backend(), err)
	}
	return st, nil
}

// ServerURL picks the server to talk to: an explicit --url, then a running
// `daylog serve` found through its lockfile, then the configured default.
func (c *Context) ServerURL() string {
	if c.urlSet {
		return c.Config.Client.URL
	}
	url, err := lockfile.Discover(c.ConfigDir)
	if err == nil {
		return url
	}
	if !errors.Is(err, lockfile.ErrNoServer) {
		logger.Warn("Ignoring server lockfile", "error", err)
	}
	return c.Config.Client.URL
}

// Client returns an API client for ServerURL.
func (c *Context) Client() *client.Client {
	return client.New(c.ServerURL(), c.Config.Client.TimeoutDuration(),
		client.WithBasePath(c.Config.Server.BasePath))
}

// BackupManager returns a backup manager for the SQLite store, or an error
// for other backends.
func (c *Context) BackupManager() (*backup.Manager, error) {
	target, err := c.StoreTarget()
	if err != nil {
		return nil, err
	}
	if backend := stores.Classify(target); backend != constants.BackendSQLite {
		return nil, fmt.Errorf("backups are only supported for %s stores (store is %s)", constants.BackendSQLite, backend)
	}
	return backup.NewManager(target), nil
}

// PerformAutomaticBackup snapshots a SQLite store and logs, rather than
// returns, any failure.
func (c *Context) PerformAutomaticBackup() {
	mgr, err := c.BackupManager()
	if err != nil {
		return
	}
	if _, err := mgr.Create(); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// timeout bounds one-shot commands that talk to a store or server.
func (c *Context) timeout() (context.Context, context.CancelFunc) {
	d := c.Config.Client.TimeoutDuration()
	if d <= 0 {
		d = constants.DefaultClientTimeout
	}
	return context.WithTimeout(c.Ctx, d)
}

func dirOf(configPath string) string {
	if configPath == "" {
		if dir, err := config.Dir(); err == nil {
			return dir
		}
	}
	return filepath.Dir(configPath)
}
