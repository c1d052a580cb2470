package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/julianstephens/daylog/internal/client"
	"github.com/julianstephens/daylog/internal/config"
	"github.com/julianstephens/daylog/internal/constants"
	"github.com/julianstephens/daylog/internal/keyring"
	"github.com/julianstephens/daylog/internal/lockfile"
	"github.com/julianstephens/daylog/internal/storage"
	"github.com/julianstephens/daylog/internal/storage/stores"
)

type DoctorCmd struct{}

var lookupEnv = os.LookupEnv

// check is one diagnostic. Warning checks never fail the run; store checks
// are skipped when the store could not be opened.
type check struct {
	name      string
	needStore bool
	warning   bool
	run       func(ctx *Context, st storage.Provider) error
}

var doctorChecks = []check{
	{name: "Schema version", needStore: true, run: checkSchemaVersion},
	{name: "Migrations complete", needStore: true, run: checkMigrationsComplete},
	{name: "Data validation", needStore: true, run: checkLogs},
	{name: "Server", warning: true, run: checkServer},
	{name: "Keyring", run: checkKeyring},
	{name: "Backups present", warning: true, run: checkBackupsPresent},
	{name: "Clock/timezone", run: func(*Context, storage.Provider) error { return checkClockTimezone(time.Now()) }},
}

func (cmd *DoctorCmd) Run(ctx *Context) error {
	fmt.Fprintln(ctx.Out, "Running diagnostics...")
	fmt.Fprintln(ctx.Out)

	hasError := false

	st, err := checkStoreReachable(ctx)
	if err != nil {
		fmt.Fprintf(ctx.Out, "%s Store reachable: FAIL\n", failMark())
		fmt.Fprintf(ctx.Out, "   Error: %v\n", err)
		hasError = true
	} else {
		defer st.Close()
		fmt.Fprintf(ctx.Out, "%s Store reachable: OK (%s)\n", okMark(), st.Backend())
	}

	for _, c := range doctorChecks {
		if c.needStore && st == nil {
			fmt.Fprintf(ctx.Out, "%s %s: SKIPPED (store not reachable)\n", skipMark(), c.name)
			continue
		}
		err := c.run(ctx, st)
		switch {
		case err == nil:
			fmt.Fprintf(ctx.Out, "%s %s: OK\n", okMark(), c.name)
		case c.warning:
			fmt.Fprintf(ctx.Out, "%s %s: WARNING\n", warnMark(), c.name)
			fmt.Fprintf(ctx.Out, "   %v\n", err)
		default:
			fmt.Fprintf(ctx.Out, "%s %s: FAIL\n", failMark(), c.name)
			fmt.Fprintf(ctx.Out, "   Error: %v\n", err)
			hasError = true
		}
	}

	fmt.Fprintln(ctx.Out)
	if hasError {
		fmt.Fprintln(ctx.Out, "Diagnostics completed with errors.")
		return errors.New("one or more health checks failed")
	}
	fmt.Fprintln(ctx.Out, "All diagnostics passed!")
	return nil
}

func checkStoreReachable(ctx *Context) (storage.Provider, error) {
	st, err := ctx.LoadStore()
	if err != nil {
		return nil, err
	}
	rctx, cancel := ctx.timeout()
	defer cancel()
	if err := st.Ping(rctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("ping failed: %w", err)
	}
	return st, nil
}

func checkSchemaVersion(ctx *Context, st storage.Provider) error {
	v, ok := st.(storage.Versioned)
	if !ok {
		return nil
	}
	current, latest, err := v.SchemaVersion()
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}
	if current > latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
	}
	return nil
}

func checkMigrationsComplete(ctx *Context, st storage.Provider) error {
	v, ok := st.(storage.Versioned)
	if !ok {
		return nil
	}
	current, latest, err := v.SchemaVersion()
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}
	if current < latest {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d (run 'daylog migrate')", current, latest)
	}
	return nil
}

// checkLogs reads every entry and checks ids are unique and each entry
// would pass the API's validation.
func checkLogs(ctx *Context, st storage.Provider) error {
	rctx, cancel := ctx.timeout()
	defer cancel()

	entries, err := st.FindAll(rctx)
	if err != nil {
		return fmt.Errorf("failed to read logs: %w", err)
	}
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if seen[e.ID] {
			return fmt.Errorf("duplicate log ID found: %s", e.ID)
		}
		seen[e.ID] = true
		if err := e.Input().Validate(); err != nil {
			return fmt.Errorf("log %s: %w", e.ID, err)
		}
	}
	return nil
}

func checkServer(ctx *Context, _ storage.Provider) error {
	url, err := lockfile.Discover(ctx.ConfigDir)
	if errors.Is(err, lockfile.ErrNoServer) {
		return errors.New("no running server found - start one with 'daylog serve'")
	}
	if err != nil {
		return err
	}

	rctx, cancel := ctx.timeout()
	defer cancel()
	api := client.New(url, ctx.Config.Client.TimeoutDuration(), client.WithBasePath(ctx.Config.Server.BasePath))
	if _, err := api.Health(rctx); err != nil {
		return fmt.Errorf("server at %s is not healthy: %w", url, err)
	}
	return nil
}

// checkKeyring only fails when the config reads the store from the keyring.
func checkKeyring(ctx *Context, _ storage.Provider) error {
	if ctx.Config.Store != constants.KeyringStore {
		return nil
	}
	if _, ok := lookupEnv(config.EnvDBConnection); ok {
		return nil
	}
	st := keyring.GetStatus(stores.Classify)
	if !st.Available {
		return keyring.ErrKeyringUnavailable
	}
	if !st.Stored {
		return errors.New("store is 'keyring' but no connection string is stored - run 'daylog keyring set'")
	}
	return nil
}

func checkBackupsPresent(ctx *Context, _ storage.Provider) error {
	mgr, err := ctx.BackupManager()
	if err != nil {
		return nil
	}
	backups, err := mgr.List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return errors.New("no backups found - consider creating one with 'daylog backup create'")
	}
	return nil
}

func checkClockTimezone(now time.Time) error {
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	if zone, _ := now.Zone(); zone == "" {
		return errors.New("no local timezone configured")
	}
	return nil
}
