package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/julianstephens/daylog/internal/calendar"
	"github.com/julianstephens/daylog/internal/logger"
	"github.com/julianstephens/daylog/internal/tui"
)

type TuiCmd struct{}

func (c *TuiCmd) Run(ctx *Context) error {
	if !IsTerminal(os.Stdin) || !IsTerminal(os.Stdout) {
		return errors.New("the calendar needs an interactive terminal; use `daylog log list` instead")
	}

	api := ctx.Client()
	hctx, cancel := ctx.timeout()
	defer cancel()
	if _, err := api.Health(hctx); err != nil {
		return fmt.Errorf("daylog server unreachable at %s (start it with `daylog serve`): %w", api.BaseURL(), err)
	}

	session := calendar.NewSession(calendar.NewAdapter(api), logger.Default(), calendar.NewState(time.Now()))
	return tui.Run(ctx.Ctx, session)
}
