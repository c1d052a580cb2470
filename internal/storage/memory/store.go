// Package memory is a map-backed log store. With a path it snapshots the
// whole collection to a JSON file after every write.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/julianstephens/daylog/internal/constants"
	"github.com/julianstephens/daylog/internal/models"
	"github.com/julianstephens/daylog/internal/storage"
)

// snapshot is the on-disk JSON layout.
type snapshot struct {
	Version int                        `json:"version"`
	Logs    map[string]models.LogEntry `json:"logs"`
}

type Store struct {
	path string

	mu   sync.RWMutex
	logs map[string]models.LogEntry
}

// New returns a store that persists to path, or lives only in memory when
// path is empty.
func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		if s.logs == nil {
			s.logs = make(map[string]models.LogEntry)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(s.path); err == nil {
		return s.readLocked()
	}
	s.logs = make(map[string]models.LogEntry)
	return s.saveLocked()
}

func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.logs != nil {
		return nil
	}
	if s.path == "" {
		s.logs = make(map[string]models.LogEntry)
		return nil
	}
	return s.readLocked()
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.logs == nil {
		return errors.New("storage not loaded")
	}
	return ctx.Err()
}

func (s *Store) readLocked() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return storage.ErrNotInitialized
		}
		return fmt.Errorf("failed to read storage: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("failed to parse storage: %w", err)
	}
	if snap.Logs == nil {
		snap.Logs = make(map[string]models.LogEntry)
	}
	s.logs = snap.Logs
	return nil
}

func (s *Store) saveLocked() error {
	if s.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(snapshot{Version: 1, Logs: s.logs}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize storage: %w", err)
	}

	// Write then rename so a crash never leaves a truncated file.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}
	return nil
}

func (s *Store) Backend() string {
	return constants.BackendMemory
}

func (s *Store) GetConfigPath() string {
	if s.path == "" {
		return constants.BackendMemory + ":"
	}
	return s.path
}
