package cli

import (
	"errors"
	"fmt"

	"github.com/julianstephens/daylog/internal/lockfile"
	"github.com/julianstephens/daylog/internal/storage"
	"github.com/julianstephens/daylog/internal/storage/stores"
)

type DebugCmd struct {
	StorePath DebugStorePathCmd `cmd:"" help:"Show the resolved store target and backend."`
	DumpLog   DebugDumpLogCmd   `cmd:"" help:"Dump a log entry as JSON, read straight from the store."`
}

type DebugStorePathCmd struct{}

func (cmd *DebugStorePathCmd) Run(ctx *Context) error {
	target, err := ctx.StoreTarget()
	if err != nil {
		return err
	}

	output := map[string]string{
		"store":    maskPassword(target),
		"backend":  stores.Classify(target),
		"config":   ctx.ConfigPath,
		"lockfile": lockfile.Path(ctx.ConfigDir),
	}
	return writeJSON(ctx.Out, output)
}

type DebugDumpLogCmd struct {
	ID string `arg:"" help:"ID of the log to dump."`
}

func (cmd *DebugDumpLogCmd) Run(ctx *Context) error {
	st, err := ctx.LoadStore()
	if err != nil {
		return err
	}
	defer st.Close()

	rctx, cancel := ctx.timeout()
	defer cancel()

	entry, err := st.FindByID(rctx, cmd.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("log not found: %s", cmd.ID)
		}
		return fmt.Errorf("failed to get log: %w", err)
	}
	return writeJSON(ctx.Out, entry)
}
