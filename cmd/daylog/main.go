package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/daylog/internal/cli"
	"github.com/julianstephens/daylog/internal/config"
	"github.com/julianstephens/daylog/internal/constants"
	apperrors "github.com/julianstephens/daylog/internal/errors"
	"github.com/julianstephens/daylog/internal/logger"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Config file path (default ~/.config/daylog/config.yaml)." type:"path"`
	Store   string `help:"Log store: SQLite path, postgres:// or mongodb:// connection string, memory:, a .json file, or 'keyring'. PostgreSQL passwords must NOT be embedded; use .pgpass, PGPASSWORD or the OS keyring." env:"DAYLOG_STORE"`
	Addr    string `help:"Listen address for 'daylog serve'." env:"DAYLOG_ADDR"`
	URL     string `help:"Base URL of a running daylog server." env:"DAYLOG_URL"`
	Verbose bool   `name:"debug" help:"Log debug output to stderr."`

	Serve   cli.ServeCmd   `cmd:"" help:"Run the log API server."`
	Log     cli.LogCmd     `cmd:"" help:"Add, list, edit and delete logs through the server."`
	Tui     cli.TuiCmd     `cmd:"" help:"Open the interactive calendar." default:"1"`
	Init    cli.InitCmd    `cmd:"" help:"Write the default config and initialize the store."`
	Migrate cli.MigrateCmd `cmd:"" help:"Run database migrations."`
	Doctor  cli.DoctorCmd  `cmd:"" help:"Run health checks and diagnostics."`
	Backup  cli.BackupCmd  `cmd:"" help:"Manage SQLite store backups."`
	Keyring cli.KeyringCmd `cmd:"" help:"Manage the store connection string in the OS keyring."`
	Debug   cli.DebugCmd   `cmd:"" help:"Debug commands for troubleshooting."`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Calendar log of what happened each day, served over a small REST API."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	configPath := CLI.Config
	if configPath == "" {
		p, err := config.FilePath()
		if err != nil {
			apperrors.Fatal(err)
		}
		configPath = p
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		apperrors.Fatal(err)
	}
	cfg = cfg.Apply(config.Overrides{
		Store: CLI.Store,
		Addr:  CLI.Addr,
		URL:   CLI.URL,
		Debug: CLI.Verbose,
	})

	if err := logger.Init(logger.Config{
		Debug:     cfg.Debug,
		ConfigDir: filepath.Dir(configPath),
		Stderr:    strings.HasPrefix(kctx.Command(), "serve"),
	}); err != nil {
		apperrors.Fatal(err)
	}

	cli.ConfigureColor(os.Stdout)

	appCtx := cli.NewContext(context.Background(), cfg, configPath, CLI.URL != "")
	apperrors.Fatal(kctx.Run(appCtx))
}
