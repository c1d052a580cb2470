package memory

import (
	"context"
	"errors"
	"fmt"

	"github.com/julianstephens/daylog/internal/models"
	"github.com/julianstephens/daylog/internal/storage"
)

var errNotLoaded = errors.New("storage not loaded")

func (s *Store) Create(ctx context.Context, entry models.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.logs == nil {
		return errNotLoaded
	}
	if _, exists := s.logs[entry.ID]; exists {
		return fmt.Errorf("log entry %s already exists", entry.ID)
	}

	s.logs[entry.ID] = entry
	if err := s.saveLocked(); err != nil {
		delete(s.logs, entry.ID)
		return err
	}
	return nil
}

func (s *Store) FindAll(ctx context.Context) ([]models.LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.logs == nil {
		return nil, errNotLoaded
	}

	entries := make([]models.LogEntry, 0, len(s.logs))
	for _, e := range s.logs {
		entries = append(entries, e)
	}
	storage.SortLogs(entries)
	return entries, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (models.LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.logs == nil {
		return models.LogEntry{}, errNotLoaded
	}

	e, ok := s.logs[id]
	if !ok {
		return models.LogEntry{}, storage.ErrNotFound
	}
	return e, nil
}

func (s *Store) UpdateByID(ctx context.Context, id string, entry models.LogEntry) (models.LogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.logs == nil {
		return models.LogEntry{}, errNotLoaded
	}

	current, ok := s.logs[id]
	if !ok {
		return models.LogEntry{}, storage.ErrNotFound
	}

	updated := current.Apply(entry.Input())
	updated.UpdatedAt = entry.UpdatedAt
	s.logs[id] = updated
	if err := s.saveLocked(); err != nil {
		s.logs[id] = current
		return models.LogEntry{}, err
	}
	return updated, nil
}

func (s *Store) DeleteByID(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.logs == nil {
		return errNotLoaded
	}

	current, ok := s.logs[id]
	if !ok {
		return storage.ErrNotFound
	}
	delete(s.logs, id)
	if err := s.saveLocked(); err != nil {
		s.logs[id] = current
		return err
	}
	return nil
}
