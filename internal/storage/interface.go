package storage

import (
	"context"
	"errors"
	"sort"

	"github.com/julianstephens/daylog/internal/models"
)

// ErrNotFound is returned when no log entry has the requested id.
var ErrNotFound = errors.New("log entry not found")

// ErrNotInitialized is returned by Load when the store has never been set up.
var ErrNotInitialized = errors.New("storage not initialized, run 'daylog init' first")

// Provider is the log entity store. Implementations are safe for concurrent
// use once Init or Load has returned.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error
	Ping(ctx context.Context) error

	// Logs
	Create(ctx context.Context, entry models.LogEntry) error
	// FindAll returns every entry ordered by date, newest first. Entries on
	// the same date are ordered by creation time, newest first.
	FindAll(ctx context.Context) ([]models.LogEntry, error)
	FindByID(ctx context.Context, id string) (models.LogEntry, error)
	// UpdateByID replaces the mutable fields and updatedAt of the entry with
	// the given id and returns the stored result.
	UpdateByID(ctx context.Context, id string, entry models.LogEntry) (models.LogEntry, error)
	DeleteByID(ctx context.Context, id string) error

	// Utils
	Backend() string
	GetConfigPath() string
}

// Versioned is implemented by stores with a migrated SQL schema.
type Versioned interface {
	SchemaVersion() (current, latest int, err error)
	Migrate(logFn func(string)) (int, error)
}

// SortLogs orders entries the way FindAll promises.
func SortLogs(entries []models.LogEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Date != b.Date {
			return a.Date > b.Date
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}
