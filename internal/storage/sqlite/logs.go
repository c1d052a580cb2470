package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/daylog/internal/models"
	"github.com/julianstephens/daylog/internal/storage"
)

// timestampFormat is fixed-width so that text ordering matches time ordering.
const timestampFormat = "2006-01-02T15:04:05.000000Z"

const selectLogs = `SELECT id, date, content, description, start_time, end_time, created_at, updated_at FROM logs`

type scanner interface {
	Scan(dest ...any) error
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampFormat)
}

func scanLog(row scanner) (models.LogEntry, error) {
	var e models.LogEntry
	var createdAt, updatedAt string
	if err := row.Scan(&e.ID, &e.Date, &e.Content, &e.Description, &e.StartTime, &e.EndTime, &createdAt, &updatedAt); err != nil {
		return models.LogEntry{}, err
	}

	var err error
	if e.CreatedAt, err = time.Parse(timestampFormat, createdAt); err != nil {
		return models.LogEntry{}, fmt.Errorf("invalid created_at %q for log %s: %w", createdAt, e.ID, err)
	}
	if e.UpdatedAt, err = time.Parse(timestampFormat, updatedAt); err != nil {
		return models.LogEntry{}, fmt.Errorf("invalid updated_at %q for log %s: %w", updatedAt, e.ID, err)
	}
	return e, nil
}

func (s *Store) Create(ctx context.Context, e models.LogEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO logs (id, date, content, description, start_time, end_time, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Date, e.Content, e.Description, e.StartTime, e.EndTime, formatTime(e.CreatedAt), formatTime(e.UpdatedAt),
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
	e, err := scanLog(s.db.QueryRowContext(ctx, selectLogs+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.LogEntry{}, storage.ErrNotFound
	}
	if err != nil {
		return models.LogEntry{}, fmt.Errorf("failed to get log %s: %w", id, err)
	}
	return e, nil
}

func (s *Store) UpdateByID(ctx context.Context, id string, e models.LogEntry) (models.LogEntry, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE logs
		SET date = ?, content = ?, description = ?, start_time = ?, end_time = ?, updated_at = ?
		WHERE id = ?`,
		e.Date, e.Content, e.Description, e.StartTime, e.EndTime, formatTime(e.UpdatedAt), id,
	)
	if err != nil {
		return models.LogEntry{}, fmt.Errorf("failed to update log %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.LogEntry{}, storage.ErrNotFound
	}
	return s.FindByID(ctx, id)
}

func (s *Store) DeleteByID(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM logs WHERE id = ?`, id)
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
