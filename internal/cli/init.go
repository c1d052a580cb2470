package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/daylog/internal/config"
	"github.com/julianstephens/daylog/internal/constants"
	"github.com/julianstephens/daylog/internal/storage"
	"github.com/julianstephens/daylog/internal/storage/stores"
)

type InitCmd struct {
	Force  bool   `help:"Delete an existing file-backed store before initialization."`
	Source string `help:"Store path or connection string to copy logs from."`
}

func (c *InitCmd) Run(ctx *Context) error {
	if written, err := config.WriteTemplate(ctx.ConfigPath); err != nil {
		return err
	} else if written {
		fmt.Fprintf(ctx.Out, "Wrote default config to: %s\n", ctx.ConfigPath)
	}

	st, err := ctx.OpenStore()
	if err != nil {
		return err
	}

	if c.Force {
		if err := c.reset(ctx, st); err != nil {
			return err
		}
	}

	if err := st.Init(); err != nil {
		return fmt.Errorf("failed to initialize %s store: %w", st.Backend(), err)
	}
	defer st.Close()
	fmt.Fprintf(ctx.Out, "Initialized daylog %s store at: %s\n", st.Backend(), st.GetConfigPath())

	if c.Source != "" {
		fmt.Fprintf(ctx.Out, "Copying logs from: %s\n", c.Source)
		n, err := copyLogs(ctx, c.Source, st)
		if err != nil {
			return fmt.Errorf("copy failed: %w", err)
		}
		fmt.Fprintf(ctx.Out, "%s Copied %d logs\n", okMark(), n)
	}
	return nil
}

// reset removes the store file for SQLite and JSON-backed stores. Server
// backends are never dropped.
func (c *InitCmd) reset(ctx *Context, st storage.Provider) error {
	backend := st.Backend()
	if backend != constants.BackendSQLite && backend != constants.BackendMemory {
		return fmt.Errorf("--force is only supported for file-backed stores (store is %s)", backend)
	}
	path := st.GetConfigPath()
	if path == "" {
		return nil
	}

	if c.Source != "" {
		absPath, _ := filepath.Abs(path)
		absSource, err := filepath.Abs(c.Source)
		if err == nil && absSource == absPath {
			return fmt.Errorf("cannot use --force when source and destination are the same: %s", path)
		}
	}

	switch _, err := os.Stat(path); {
	case errors.Is(err, os.ErrNotExist):
		return nil
	case err != nil:
		return fmt.Errorf("failed to access existing store: %w", err)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete existing store: %w", err)
	}
	fmt.Fprintf(ctx.Out, "Deleted existing store at: %s\n", path)
	return nil
}

// copyLogs copies every entry from the store at source into dst, keeping ids
// and timestamps.
func copyLogs(ctx *Context, source string, dst storage.Provider) (int, error) {
	target, err := config.ExpandHome(source)
	if err != nil {
		return 0, err
	}
	src, err := stores.Open(target)
	if err != nil {
		return 0, err
	}
	if err := src.Load(); err != nil {
		return 0, fmt.Errorf("failed to load source store: %w", err)
	}
	defer src.Close()

	entries, err := src.FindAll(ctx.Ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read logs from source: %w", err)
	}
	for _, e := range entries {
		if err := dst.Create(ctx.Ctx, e); err != nil {
			return 0, fmt.Errorf("failed to add log %s: %w", e.ID, err)
		}
	}
	return len(entries), nil
}
