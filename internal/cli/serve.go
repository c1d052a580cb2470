package cli

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/julianstephens/daylog/internal/lockfile"
	"github.com/julianstephens/daylog/internal/logger"
	"github.com/julianstephens/daylog/internal/server"
)

type ServeCmd struct {
	Init bool `help:"Initialize the store if it has not been set up yet."`
}

func (c *ServeCmd) Run(ctx *Context) error {
	st, err := ctx.OpenStore()
	if err != nil {
		return err
	}
	if c.Init {
		err = st.Init()
	} else {
		err = st.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", st.Backend(), err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn("Failed to close store", "error", err)
		}
	}()

	ctx.PerformAutomaticBackup()

	sigCtx, stop := signal.NotifyContext(ctx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(st, server.Options{
		BasePath:      ctx.Config.Server.BasePath,
		AllowedOrigin: ctx.Config.Server.AllowedOrigin,
		Logger:        logger.Default(),
	})

	defer func() {
		if err := lockfile.Remove(ctx.ConfigDir); err != nil {
			logger.Warn("Failed to remove server lockfile", "error", err)
		}
	}()

	return srv.Run(sigCtx, server.Config{
		Addr:         ctx.Config.Server.Addr,
		ReadTimeout:  ctx.Config.Server.ReadTimeoutDuration(),
		WriteTimeout: ctx.Config.Server.WriteTimeoutDuration(),
		Ready: func(addr net.Addr) {
			if err := lockfile.Write(ctx.ConfigDir, addr.String()); err != nil {
				logger.Warn("Failed to write server lockfile", "error", err)
			}
			fmt.Fprintf(ctx.Out, "daylog listening on http://%s%s\n", addr, ctx.Config.Server.BasePath)
		},
	})
}
