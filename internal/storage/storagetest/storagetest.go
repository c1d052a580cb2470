// Package storagetest holds the behaviour every storage.Provider must share.
// Backend packages call Run from their own tests.
package storagetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"

	"github.com/julianstephens/daylog/internal/models"
	"github.com/julianstephens/daylog/internal/storage"
)

// Factory returns a freshly initialized, empty store. The factory owns
// cleanup through t.Cleanup.
type Factory func(t *testing.T) storage.Provider

// Entry builds a log entry with a new id and the given creation time.
func Entry(date, content string, createdAt time.Time) models.LogEntry {
	return models.LogEntry{
		ID:        uuid.New().String(),
		Date:      date,
		Content:   content,
		CreatedAt: createdAt.UTC().Truncate(time.Millisecond),
		UpdatedAt: createdAt.UTC().Truncate(time.Millisecond),
	}
}

// compareTimes tolerates backends that store timestamps at lower precision
// or in another location.
var compareTimes = cmp.Comparer(func(a, b time.Time) bool {
	return a.Truncate(time.Millisecond).Equal(b.Truncate(time.Millisecond))
})

// Run exercises the Provider contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	t.Run("Ping", func(t *testing.T) {
		if err := newStore(t).Ping(ctx); err != nil {
			t.Errorf("Ping() error = %v", err)
		}
	})

	t.Run("EmptyFindAll", func(t *testing.T) {
		got, err := newStore(t).FindAll(ctx)
		if err != nil {
			t.Fatalf("FindAll() error = %v", err)
		}
		if len(got) != 0 {
			t.Errorf("FindAll() on empty store = %v", got)
		}
	})

	t.Run("CreateAndFind", func(t *testing.T) {
		s := newStore(t)
		entry := Entry("2024-05-01", "Standup", base)
		entry.Description = "daily sync"
		entry.StartTime = "09:00"
		entry.EndTime = "09:15"

		if err := s.Create(ctx, entry); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		got, err := s.FindByID(ctx, entry.ID)
		if err != nil {
			t.Fatalf("FindByID() error = %v", err)
		}
		if diff := cmp.Diff(entry, got, compareTimes); diff != "" {
			t.Errorf("FindByID() mismatch (-want +got):\n%s", diff)
		}

		all, err := s.FindAll(ctx)
		if err != nil {
			t.Fatalf("FindAll() error = %v", err)
		}
		if diff := cmp.Diff([]models.LogEntry{entry}, all, compareTimes); diff != "" {
			t.Errorf("FindAll() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("FindAllOrder", func(t *testing.T) {
		s := newStore(t)
		a := Entry("2024-05-01", "A", base)
		b := Entry("2024-05-02", "B", base)
		c := Entry("2024-05-01", "C", base.Add(time.Minute))
		old := Entry("2023-12-31", "Old", base.Add(time.Hour))
		for _, e := range []models.LogEntry{a, b, c, old} {
			if err := s.Create(ctx, e); err != nil {
				t.Fatalf("Create(%s) error = %v", e.Content, err)
			}
		}

		all, err := s.FindAll(ctx)
		if err != nil {
			t.Fatalf("FindAll() error = %v", err)
		}
		var got []string
		for _, e := range all {
			got = append(got, e.Content)
		}
		if diff := cmp.Diff([]string{"B", "C", "A", "Old"}, got); diff != "" {
			t.Errorf("FindAll() order mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("FindByIDMissing", func(t *testing.T) {
		_, err := newStore(t).FindByID(ctx, uuid.New().String())
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("FindByID() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("UpdateByID", func(t *testing.T) {
		s := newStore(t)
		entry := Entry("2024-05-01", "Standup", base)
		entry.Description = "daily sync"
		if err := s.Create(ctx, entry); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		changed := entry
		changed.Content = "Standup (rescheduled)"
		changed.Description = ""
		changed.Date = "2024-05-02"
		changed.UpdatedAt = base.Add(time.Hour)
		// Immutable fields are never rewritten.
		changed.CreatedAt = base.Add(48 * time.Hour)

		got, err := s.UpdateByID(ctx, entry.ID, changed)
		if err != nil {
			t.Fatalf("UpdateByID() error = %v", err)
		}
		want := changed
		want.CreatedAt = entry.CreatedAt
		if diff := cmp.Diff(want, got, compareTimes); diff != "" {
			t.Errorf("UpdateByID() mismatch (-want +got):\n%s", diff)
		}

		stored, err := s.FindByID(ctx, entry.ID)
		if err != nil {
			t.Fatalf("FindByID() error = %v", err)
		}
		if diff := cmp.Diff(want, stored, compareTimes); diff != "" {
			t.Errorf("stored entry mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("UpdateByIDMissing", func(t *testing.T) {
		s := newStore(t)
		if err := s.Create(ctx, Entry("2024-05-01", "Standup", base)); err != nil {
			t.Fatal(err)
		}
		missing := Entry("2024-05-03", "Ghost", base)
		if _, err := s.UpdateByID(ctx, missing.ID, missing); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("UpdateByID() error = %v, want ErrNotFound", err)
		}
		all, _ := s.FindAll(ctx)
		if len(all) != 1 || all[0].Content != "Standup" {
			t.Errorf("store changed after failed update: %+v", all)
		}
	})

	t.Run("DeleteByID", func(t *testing.T) {
		s := newStore(t)
		keep := Entry("2024-05-01", "Keep", base)
		drop := Entry("2024-05-02", "Drop", base)
		for _, e := range []models.LogEntry{keep, drop} {
			if err := s.Create(ctx, e); err != nil {
				t.Fatal(err)
			}
		}

		if err := s.DeleteByID(ctx, drop.ID); err != nil {
			t.Fatalf("DeleteByID() error = %v", err)
		}
		if err := s.DeleteByID(ctx, drop.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("second DeleteByID() error = %v, want ErrNotFound", err)
		}

		all, err := s.FindAll(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]models.LogEntry{keep}, all, compareTimes, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("FindAll() after delete mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("DistinctIDs", func(t *testing.T) {
		s := newStore(t)
		seen := map[string]bool{}
		for i := 0; i < 5; i++ {
			e := Entry("2024-05-01", "Same", base)
			if err := s.Create(ctx, e); err != nil {
				t.Fatal(err)
			}
			seen[e.ID] = true
		}
		all, err := s.FindAll(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(all) != 5 || len(seen) != 5 {
			t.Errorf("expected 5 distinct entries, got %d stored, %d ids", len(all), len(seen))
		}
	})
}
