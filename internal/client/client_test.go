package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/julianstephens/daylog/internal/models"
	"github.com/julianstephens/daylog/internal/server"
	"github.com/julianstephens/daylog/internal/storage/memory"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	st := memory.New("")
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(server.New(st, server.Options{}).Handler())
	t.Cleanup(ts.Close)
	return New(ts.URL, 5*time.Second, WithHTTPClient(ts.Client()))
}

func TestClientCRUD(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	a, err := c.Create(ctx, models.LogInput{Date: "2024-05-01", Content: "Standup", Description: "daily sync", StartTime: "09:00", EndTime: "09:15"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	b, err := c.Create(ctx, models.LogInput{Date: "2024-05-02", Content: "Gym"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	all, err := c.List(ctx, "")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if diff := cmp.Diff([]models.LogEntry{b, a}, all); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}

	filtered, err := c.List(ctx, `content == "Gym"`)
	if err != nil {
		t.Fatalf("List(filter) error = %v", err)
	}
	if len(filtered) != 1 || filtered[0].ID != b.ID {
		t.Errorf("List(filter) = %+v", filtered)
	}

	got, err := c.Get(ctx, a.ID)
	if err != nil || got.ID != a.ID {
		t.Errorf("Get() = %+v, %v", got, err)
	}

	updated, err := c.Update(ctx, a.ID, models.LogInput{Date: a.Date, Content: "Standup (rescheduled)"})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	want := a
	want.Content = "Standup (rescheduled)"
	want.Description, want.StartTime, want.EndTime = "", "", ""
	if diff := cmp.Diff(want, updated, cmpopts.IgnoreFields(models.LogEntry{}, "UpdatedAt")); diff != "" {
		t.Errorf("Update() mismatch (-want +got):\n%s", diff)
	}

	patched, err := c.Patch(ctx, a.ID, map[string]any{"description": "moved to 10:00"})
	if err != nil {
		t.Fatalf("Patch() error = %v", err)
	}
	if patched.Description != "moved to 10:00" || patched.Content != "Standup (rescheduled)" {
		t.Errorf("Patch() = %+v", patched)
	}

	if err := c.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := c.Delete(ctx, a.ID); !IsNotFound(err) {
		t.Errorf("second Delete() error = %v, want not found", err)
	}

	backend, err := c.Health(ctx)
	if err != nil || backend != "memory" {
		t.Errorf("Health() = %q, %v", backend, err)
	}
}

func TestClientErrors(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	_, err := c.Create(ctx, models.LogInput{Date: "2024-05-01"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || !apiErr.IsValidation() {
		t.Fatalf("Create() error = %v, want validation APIError", err)
	}
	if apiErr.Message != "content is required" {
		t.Errorf("Message = %q", apiErr.Message)
	}

	_, err = c.Update(ctx, "missing", models.LogInput{Date: "2024-05-01", Content: "x"})
	if !errors.As(err, &apiErr) || !apiErr.IsNotFound() {
		t.Errorf("Update() error = %v, want not found", err)
	}
	if _, err := c.Get(ctx, "missing"); !IsNotFound(err) {
		t.Errorf("Get() error = %v, want not found", err)
	}
}

func TestClientNonJSONError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer ts.Close()

	_, err := New(ts.URL, time.Second).List(context.Background(), "")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadGateway || apiErr.Message != "upstream exploded" {
		t.Errorf("List() error = %#v", err)
	}
}

func TestClientHonoursContext(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer ts.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := New(ts.URL, time.Minute).List(ctx, "")
	if err == nil || !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("List() error = %v, want deadline exceeded", err)
	}
}

func TestWithBasePath(t *testing.T) {
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Write([]byte(`{"id":"a b"}`))
	}))
	defer ts.Close()

	c := New(ts.URL+"/", time.Second, WithBasePath("v1/logs/"))
	if _, err := c.Get(context.Background(), "a b"); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(gotPath, "/v1/logs/a%20b") {
		t.Errorf("request path = %q", gotPath)
	}
}
