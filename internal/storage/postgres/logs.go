package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/julianstephens/daylog/internal/models"
	"github.com/julianstephens/daylog/internal/storage"
)

const selectLogs = `SELECT id, date, content, description, start_time, end_time, created_at, updated_at FROM logs`

type scanner interface {
	Scan(dest ...any) error
}

func scanLog(row scanner) (models.LogEntry, error) {
	var e models.LogEntry
	err := row.Scan(&e.ID, &e.Date, &e.Content, &e.Description, &e.StartTime, &e.EndTime, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return models.LogEntry{}, err
	}
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	return e, nil
}

func (s *Store) Create(ctx context.Context, e models.LogEntry) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO logs (id, date, content, description, start_time, end_time, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.Date, e.Content, e.Description, e.StartTime, e.EndTime, e.CreatedAt.UTC(), e.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert log: %w", err)
	}
	return nil
}

func (s *Store) FindAll(ctx context.Context) ([]models.LogEntry, error) {
	rows, err := s.db.QueryContext(ctx, selectLogs+` ORDER BY date DESC, created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query logs: %w", err)
	}
	defer rows.Close()

	entries := []models.LogEntry{}
	for rows.Next() {
		e, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) FindByID(ctx context.Context, id string) (models.LogEntry, error) {
	e, err := scanLog(s.db.QueryRowContext(ctx, selectLogs+` WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.LogEntry{}, storage.ErrNotFound
	}
	if err != nil {
		return models.LogEntry{}, fmt.Errorf("failed to get log %s: %w", id, err)
	}
	return e, nil
}

func (s *Store) UpdateByID(ctx context.Context, id string, e models.LogEntry) (models.LogEntry, error) {
	updated, err := scanLog(s.db.QueryRowContext(ctx, `
UPDATE logs
SET date = $1, content = $2, description = $3, start_time = $4, end_time = $5, updated_at = $6
WHERE id = $7
RETURNING id, date, content, description, start_time, end_time, created_at, updated_at`,
		e.Date, e.Content, e.Description, e.StartTime, e.EndTime, e.UpdatedAt.UTC(), id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return models.LogEntry{}, storage.ErrNotFound
	}
	if err != nil {
		return models.LogEntry{}, fmt.Errorf("failed to update log %s: %w", id, err)
	}
	return updated, nil
}

func (s *Store) DeleteByID(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM logs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete log %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete log %s: %w", id, err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
