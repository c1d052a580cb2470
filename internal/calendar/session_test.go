package calendar

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/julianstephens/daylog/internal/client"
	"github.com/julianstephens/daylog/internal/logger"
	"github.com/julianstephens/daylog/internal/models"
	"github.com/julianstephens/daylog/internal/server"
	"github.com/julianstephens/daylog/internal/storage/memory"
)

func newTestSession(t *testing.T) (*Session, *client.Client) {
	t.Helper()
	st := memory.New("")
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(server.New(st, server.Options{}).Handler())
	t.Cleanup(ts.Close)
	c := client.New(ts.URL, 5*time.Second, client.WithHTTPClient(ts.Client()))
	state := NewState(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	return NewSession(NewAdapter(c), logger.Default(), state), c
}

func TestSessionAgainstServer(t *testing.T) {
	ctx := context.Background()
	s, c := newTestSession(t)

	if _, ok := s.Submit(); ok {
		t.Fatal("Submit() ok with no date selected")
	}
	s.Set(s.State().SelectDate("2024-05-01"))
	if _, ok := s.Submit(); ok {
		t.Fatal("Submit() ok with empty content")
	}

	s.Set(s.State().SetDraft(models.LogInput{Content: "Standup", StartTime: "09:00"}))
	job, ok := s.Submit()
	if !ok {
		t.Fatal("Submit() not ok")
	}
	if err := s.Run(ctx, job); err != nil {
		t.Fatalf("create: %v", err)
	}

	st := s.State()
	if len(st.Events) != 1 || st.SelectedDate != "" {
		t.Fatalf("after create: %+v", st)
	}
	created := st.Events[0]
	if created.ID == "" || created.Title != "09:00 - Standup" || created.Entry.CreatedAt.IsZero() {
		t.Errorf("created event not taken from the server response: %+v", created)
	}

	s.Set(s.State().SelectEvent(created.ID).EditTitle("09:00 - Standup (rescheduled)"))
	job, _ = s.Save()
	if err := s.Run(ctx, job); err != nil {
		t.Fatalf("update: %v", err)
	}
	stored, err := c.Get(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Content != "Standup (rescheduled)" || stored.StartTime != "09:00" {
		t.Errorf("stored after save = %+v", stored)
	}
	if got := s.State().Events[0].Title; got != "09:00 - Standup (rescheduled)" {
		t.Errorf("local title = %q", got)
	}

	if _, err := c.Create(ctx, models.LogInput{Date: "2024-05-02", Content: "Gym"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Run(ctx, s.Fetch()); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got := s.State().Events; len(got) != 2 || got[0].Start != "2024-05-02" {
		t.Errorf("fetch = %+v", got)
	}

	s.Set(s.State().SelectEvent(created.ID))
	job, _ = s.Remove()
	if err := s.Run(ctx, job); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := s.State().Events; len(got) != 1 || got[0].ID == created.ID {
		t.Errorf("after delete = %+v", got)
	}
	if _, err := c.Get(ctx, created.ID); !client.IsNotFound(err) {
		t.Errorf("Get(deleted) error = %v, want not found", err)
	}
}

func TestSessionFailureLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	s, c := newTestSession(t)

	if _, err := c.Create(ctx, models.LogInput{Date: "2024-05-01", Content: "Standup"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Run(ctx, s.Fetch()); err != nil {
		t.Fatal(err)
	}
	id := s.State().Events[0].ID

	// Removed behind the session's back, so the save below gets a 404.
	if err := c.Delete(ctx, id); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	s.logger = logger.New(&buf, log.DebugLevel)

	s.Set(s.State().SelectEvent(id).EditTitle("Retro"))
	before := s.State()
	job, _ := s.Save()
	err := s.Run(ctx, job)
	if !client.IsNotFound(err) {
		t.Fatalf("save error = %v, want not found", err)
	}

	after := s.State()
	if after.Err == nil {
		t.Error("State.Err not set")
	}
	if after.SelectedEvent == nil || after.SelectedEvent.Title != "Retro" || len(after.Events) != len(before.Events) {
		t.Errorf("state changed on failure: %+v", after)
	}
	if !strings.Contains(buf.String(), "calendar request failed") {
		t.Errorf("failure not logged: %q", buf.String())
	}
}

type downService struct{}

func (downService) List(context.Context, string) ([]models.LogEntry, error) {
	return nil, errors.New("connection refused")
}

func (downService) Create(context.Context, models.LogInput) (models.LogEntry, error) {
	return models.LogEntry{}, errors.New("connection refused")
}

func (downService) Update(context.Context, string, models.LogInput) (models.LogEntry, error) {
	return models.LogEntry{}, errors.New("connection refused")
}

func (downService) Delete(context.Context, string) error {
	return errors.New("connection refused")
}

func TestSessionServiceDown(t *testing.T) {
	ctx := context.Background()
	initial := NewState(time.Now()).Loaded([]Event{event("a", "2024-05-01", "Standup")}).SelectDate("2024-05-03")
	initial = initial.SetDraft(models.LogInput{Content: "Read"})
	s := NewSession(NewAdapter(downService{}), logger.Default(), initial)

	if err := s.Run(ctx, s.Fetch()); err == nil {
		t.Fatal("fetch succeeded against a down service")
	}
	job, ok := s.Submit()
	if !ok {
		t.Fatal("Submit() not ok")
	}
	if err := s.Run(ctx, job); err == nil {
		t.Fatal("create succeeded against a down service")
	}

	st := s.State()
	if len(st.Events) != 1 || st.SelectedDate != "2024-05-03" || st.Draft.Content != "Read" {
		t.Errorf("state changed on failure: %+v", st)
	}
}
