package cli

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/julianstephens/daylog/internal/constants"
	"github.com/julianstephens/daylog/internal/keyring"
	"github.com/julianstephens/daylog/internal/storage/postgres"
	"github.com/julianstephens/daylog/internal/storage/stores"
)

type KeyringCmd struct {
	Set    KeyringSetCmd    `cmd:"" help:"Store a database connection string in the OS keyring."`
	Get    KeyringGetCmd    `cmd:"" help:"Show the stored connection string with the password masked."`
	Delete KeyringDeleteCmd `cmd:"" help:"Remove the stored connection string."`
	Status KeyringStatusCmd `cmd:"" help:"Check keyring availability."`
}

// KeyringSetCmd stores a PostgreSQL or MongoDB connection string so that
// --store keyring can use it.
type KeyringSetCmd struct {
	ConnectionString string `arg:"" help:"postgres:// or mongodb:// connection string to store in the keyring."`
}

func (cmd *KeyringSetCmd) Run(ctx *Context) error {
	switch stores.Classify(cmd.ConnectionString) {
	case constants.BackendPostgres:
		if _, err := postgres.ValidateConnString(cmd.ConnectionString); err != nil {
			if !errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return fmt.Errorf("invalid connection string: %w", err)
			}
			fmt.Fprintf(ctx.Out, "%s  Warning: Connection string contains embedded credentials.\n", warnMark())
			fmt.Fprintln(ctx.Out, "   It will be stored as-is in the encrypted OS keyring.")
			fmt.Fprintln(ctx.Out, "   Stores opened from --store or DAYLOG_STORE still reject embedded passwords.")
		}
	case constants.BackendMongo:
	default:
		return errors.New("connection string must start with postgres://, postgresql://, mongodb:// or mongodb+srv://")
	}

	if err := keyring.SetConnectionString(cmd.ConnectionString); err != nil {
		return err
	}

	fmt.Fprintf(ctx.Out, "%s Connection string stored successfully in OS keyring\n", okMark())
	fmt.Fprintf(ctx.Out, "  Use it with --store %s or `store: %s` in the config file\n", constants.KeyringStore, constants.KeyringStore)
	return nil
}

type KeyringGetCmd struct{}

func (cmd *KeyringGetCmd) Run(ctx *Context) error {
	connStr, err := keyring.GetConnectionString()
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no connection string found in keyring. Use 'daylog keyring set' to store one")
		}
		return fmt.Errorf("failed to retrieve connection string from keyring: %w", err)
	}

	fmt.Fprintln(ctx.Out, "Connection string retrieved from keyring:")
	fmt.Fprintln(ctx.Out, maskPassword(connStr))
	return nil
}

type KeyringDeleteCmd struct{}

func (cmd *KeyringDeleteCmd) Run(ctx *Context) error {
	if err := keyring.DeleteConnectionString(); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no connection string found in keyring")
		}
		return err
	}
	fmt.Fprintf(ctx.Out, "%s Connection string deleted from OS keyring\n", okMark())
	return nil
}

type KeyringStatusCmd struct{}

func (cmd *KeyringStatusCmd) Run(ctx *Context) error {
	st := keyring.GetStatus(stores.Classify)
	if !st.Available {
		fmt.Fprintf(ctx.Out, "%s OS keyring is not available on this system\n", failMark())
		return keyring.ErrKeyringUnavailable
	}

	fmt.Fprintf(ctx.Out, "%s OS keyring is available\n", okMark())
	if st.Stored {
		fmt.Fprintf(ctx.Out, "%s Connection string is stored in keyring (%s)\n", okMark(), st.Backend)
	} else {
		fmt.Fprintln(ctx.Out, "ℹ No connection string stored in keyring")
	}
	return nil
}

// maskPassword hides the password in URL and key=value connection strings.
// Anything else, such as a file path, is returned unchanged.
func maskPassword(connStr string) string {
	if strings.Contains(connStr, "://") {
		u, err := url.Parse(connStr)
		if err != nil {
			return connStr
		}
		return u.Redacted()
	}

	if strings.Contains(connStr, "password=") {
		parts := strings.Fields(connStr)
		for i, part := range parts {
			if strings.HasPrefix(part, "password=") {
				parts[i] = "password=****"
			}
		}
		return strings.Join(parts, " ")
	}

	return connStr
}
