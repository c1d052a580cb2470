package keyring

import (
	"errors"
	"fmt"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/julianstephens/daylog/internal/constants"
)

var (
	// ErrNotFound is returned when no store connection string is saved
	ErrNotFound = errors.New("connection string not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring cannot be reached
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// Status summarizes what the keyring holds for daylog.
type Status struct {
	Available bool
	Stored    bool
	Backend   string // backend the stored string selects, "" when nothing is stored
}

// GetConnectionString returns the store connection string saved for daylog.
func GetConnectionString() (string, error) {
	connStr, err := gokeyring.Get(constants.AppName, constants.DefaultKeyringUser)
	if err != nil {
		if errors.Is(err, gokeyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return connStr, nil
}

// SetConnectionString saves connStr as the store connection string.
func SetConnectionString(connStr string) error {
	if connStr == "" {
		return errors.New("connection string cannot be empty")
	}
	if err := gokeyring.Set(constants.AppName, constants.DefaultKeyringUser, connStr); err != nil {
		return fmt.Errorf("failed to store connection string in keyring: %w", err)
	}
	return nil
}

// DeleteConnectionString removes the saved connection string.
func DeleteConnectionString() error {
	if err := gokeyring.Delete(constants.AppName, constants.DefaultKeyringUser); err != nil {
		if errors.Is(err, gokeyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete connection string from keyring: %w", err)
	}
	return nil
}

// IsAvailable reports whether the OS keyring answers reads. An empty keyring
// counts as available.
func IsAvailable() bool {
	_, err := gokeyring.Get(constants.AppName, "test-availability")
	return err == nil || errors.Is(err, gokeyring.ErrNotFound)
}

// GetStatus reports keyring availability and, when a string is stored, which
// backend it selects. classify maps a connection string to a backend name.
func GetStatus(classify func(string) string) Status {
	st := Status{Available: IsAvailable()}
	if !st.Available {
		return st
	}
	connStr, err := GetConnectionString()
	if err != nil {
		return st
	}
	st.Stored = true
	if classify != nil {
		st.Backend = classify(connStr)
	}
	return st
}
