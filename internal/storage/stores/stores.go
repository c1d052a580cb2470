// Package stores picks a storage backend from a store target.
package stores

import (
	"fmt"
	"strings"

	"github.com/julianstephens/daylog/internal/constants"
	"github.com/julianstephens/daylog/internal/storage"
	"github.com/julianstephens/daylog/internal/storage/memory"
	"github.com/julianstephens/daylog/internal/storage/mongo"
	"github.com/julianstephens/daylog/internal/storage/postgres"
	"github.com/julianstephens/daylog/internal/storage/sqlite"
)

// Classify names the backend a resolved store target selects:
//
//	postgres:// postgresql://    postgres
//	mongodb:// mongodb+srv://    mongo
//	memory: or a *.json path     memory
//	anything else                sqlite (file path)
func Classify(target string) string {
	switch {
	case strings.HasPrefix(target, "postgres://"), strings.HasPrefix(target, "postgresql://"):
		return constants.BackendPostgres
	case strings.HasPrefix(target, "mongodb://"), strings.HasPrefix(target, "mongodb+srv://"):
		return constants.BackendMongo
	case strings.HasPrefix(target, constants.BackendMemory+":"), strings.HasSuffix(target, ".json"):
		return constants.BackendMemory
	default:
		return constants.BackendSQLite
	}
}

// Open returns an unopened Provider for target. Postgres targets with an
// embedded password are rejected.
func Open(target string) (storage.Provider, error) {
	switch Classify(target) {
	case constants.BackendPostgres:
		if _, err := postgres.ValidateConnString(target); err != nil {
			return nil, fmt.Errorf("%w (use DAYLOG_DB_CONNECTION with .pgpass, PGPASSWORD or `daylog keyring set`)", err)
		}
		return postgres.New(target), nil
	case constants.BackendMongo:
		return mongo.New(target), nil
	case constants.BackendMemory:
		path := strings.TrimPrefix(target, constants.BackendMemory+":")
		return memory.New(path), nil
	default:
		if strings.TrimSpace(target) == "" {
			return nil, fmt.Errorf("store target cannot be empty")
		}
		return sqlite.NewStore(target), nil
	}
}
