package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/daylog/internal/constants"
	"github.com/julianstephens/daylog/internal/storage/sqlite"
	"github.com/julianstephens/daylog/internal/storage/storagetest"
)

// seedDB creates a migrated log database holding one entry per content.
func seedDB(t *testing.T, dbPath string, contents ...string) {
	t.Helper()
	st := sqlite.NewStore(dbPath)
	if err := st.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer st.Close()
	for _, c := range contents {
		if err := st.Create(context.Background(), storagetest.Entry("2024-05-01", c, time.Now())); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
}

func countLogs(t *testing.T, dbPath string) int {
	t.Helper()
	st := sqlite.NewStore(dbPath)
	if err := st.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	defer st.Close()
	all, err := st.FindAll(context.Background())
	if err != nil {
		t.Fatalf("FindAll() error = %v", err)
	}
	return len(all)
}

// steppingClock returns a clock that advances by step on every call.
func steppingClock(start time.Time, step time.Duration) func() time.Time {
	next := start
	return func() time.Time {
		now := next
		next = next.Add(step)
		return now
	}
}

func newTestManager(t *testing.T, contents ...string) (*Manager, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "daylog.db")
	seedDB(t, dbPath, contents...)
	m := NewManager(dbPath)
	m.now = steppingClock(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC), time.Minute)
	return m, dbPath
}

func TestCreate(t *testing.T) {
	m, _ := newTestManager(t, "Standup", "Gym")

	info, err := m.Create()
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if info.Name != "daylog-20240501-090000.db" {
		t.Errorf("Name = %q", info.Name)
	}
	if info.Size == 0 {
		t.Error("Size = 0")
	}
	if got := countLogs(t, info.Path); got != 2 {
		t.Errorf("backup holds %d logs, want 2", got)
	}
}

func TestCreateWithoutDatabase(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "missing.db"))
	if _, err := m.Create(); err == nil {
		t.Error("Create() succeeded without a database")
	}
}

func TestCreateSameSecondGetsCounter(t *testing.T) {
	m, _ := newTestManager(t, "Standup")
	m.now = func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }

	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		info, err := m.Create()
		if err != nil {
			t.Fatalf("Create() #%d error = %v", i, err)
		}
		if seen[info.Name] {
			t.Errorf("duplicate backup name %s", info.Name)
		}
		seen[info.Name] = true
	}
	if !seen["daylog-20240501-090000-2.db"] {
		t.Errorf("names = %v", seen)
	}

	backups, err := m.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 3 || backups[0].Name != "daylog-20240501-090000-2.db" {
		t.Errorf("List() = %+v", backups)
	}
}

func TestRotation(t *testing.T) {
	m, _ := newTestManager(t, "Standup")

	for i := 0; i < constants.MaxBackups+5; i++ {
		if _, err := m.Create(); err != nil {
			t.Fatalf("Create() #%d error = %v", i, err)
		}
	}

	backups, err := m.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(backups) != constants.MaxBackups {
		t.Fatalf("kept %d backups, want %d", len(backups), constants.MaxBackups)
	}
	for i := 1; i < len(backups); i++ {
		if !backups[i].Timestamp.Before(backups[i-1].Timestamp) {
			t.Errorf("backups not newest first at %d", i)
		}
	}
	// The five oldest (09:00..09:04) are gone.
	if got := backups[len(backups)-1].Name; got != "daylog-20240501-090500.db" {
		t.Errorf("oldest kept = %s", got)
	}
}

func TestListIgnoresStrangers(t *testing.T) {
	m, _ := newTestManager(t)
	if got, err := m.List(); err != nil || len(got) != 0 {
		t.Fatalf("List() on missing dir = %v, %v", got, err)
	}

	if err := os.MkdirAll(m.Dir(), 0700); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"notes.txt", "daylog-yesterday.db", "daylog-20240501-090000-x.db", "daylog-20240501-0900.db"} {
		if err := os.WriteFile(filepath.Join(m.Dir(), name), []byte("x"), 0600); err != nil {
			t.Fatal(err)
		}
	}
	if got, err := m.List(); err != nil || len(got) != 0 {
		t.Errorf("List() = %v, %v", got, err)
	}
}

func TestRestore(t *testing.T) {
	m, dbPath := newTestManager(t, "Standup")

	snap, err := m.Create()
	if err != nil {
		t.Fatal(err)
	}
	seedDB(t, dbPath, "Gym", "Read")
	if got := countLogs(t, dbPath); got != 3 {
		t.Fatalf("before restore: %d logs", got)
	}

	previous, err := m.Restore(m.Resolve(snap.Name))
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if got := countLogs(t, dbPath); got != 1 {
		t.Errorf("after restore: %d logs, want 1", got)
	}

	if previous == nil {
		t.Fatal("Restore() did not snapshot the current database")
	}
	if got := countLogs(t, previous.Path); got != 3 {
		t.Errorf("pre-restore snapshot holds %d logs, want 3", got)
	}
	backups, err := m.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 2 {
		t.Errorf("List() = %d backups, want 2", len(backups))
	}
}

func TestRestoreRejectsInvalidFiles(t *testing.T) {
	m, dbPath := newTestManager(t, "Standup")
	dir := t.TempDir()

	garbage := filepath.Join(dir, "garbage.db")
	if err := os.WriteFile(garbage, []byte("not a database"), 0600); err != nil {
		t.Fatal(err)
	}

	// An empty file opens as a SQLite database with no tables.
	empty := filepath.Join(dir, "empty.db")
	if err := os.WriteFile(empty, nil, 0600); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{garbage, empty, filepath.Join(dir, "missing.db")} {
		if _, err := m.Restore(path); err == nil {
			t.Errorf("Restore(%s) succeeded", filepath.Base(path))
		}
	}
	if got := countLogs(t, dbPath); got != 1 {
		t.Errorf("database changed by a failed restore: %d logs", got)
	}
	if backups, _ := m.List(); len(backups) != 0 {
		t.Errorf("failed restore left %d snapshots", len(backups))
	}
}

func TestResolve(t *testing.T) {
	m, _ := newTestManager(t)
	name := "daylog-20240501-090000.db"
	if got, want := m.Resolve(name), filepath.Join(m.Dir(), name); got != want {
		t.Errorf("Resolve(name) = %q, want %q", got, want)
	}
	abs := filepath.Join(t.TempDir(), name)
	if got := m.Resolve(abs); got != abs {
		t.Errorf("Resolve(path) = %q", got)
	}
}
