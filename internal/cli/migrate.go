package cli

import (
	"fmt"

	"github.com/julianstephens/daylog/internal/storage"
)

type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx *Context) error {
	st, err := ctx.LoadStore()
	if err != nil {
		return err
	}
	defer st.Close()

	versioned, ok := st.(storage.Versioned)
	if !ok {
		fmt.Fprintf(ctx.Out, "The %s store has no schema migrations.\n", st.Backend())
		return nil
	}

	count, err := versioned.Migrate(func(msg string) {
		fmt.Fprintln(ctx.Out, msg)
	})
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if count == 0 {
		fmt.Fprintln(ctx.Out, "No migrations to apply. Database is up to date.")
	} else {
		fmt.Fprintf(ctx.Out, "\nSuccessfully applied %d migration(s).\n", count)
	}
	return nil
}
