package migration

import (
	"database/sql"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/daylog/migrations"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func mapFS(files map[string]string) fstest.MapFS {
	m := fstest.MapFS{}
	for name, content := range files {
		m[name] = &fstest.MapFile{Data: []byte(content)}
	}
	return m
}

func TestGetCurrentVersion(t *testing.T) {
	db := setupTestDB(t)
	runner := NewRunner(db, mapFS(map[string]string{"001_test.sql": "CREATE TABLE test (id INTEGER);"}))

	version, err := runner.GetCurrentVersion()
	if err != nil {
		t.Fatalf("GetCurrentVersion failed: %v", err)
	}
	if version != 0 {
		t.Errorf("expected version 0, got %d", version)
	}

	if err := runner.SetVersion(5); err != nil {
		t.Fatalf("SetVersion failed: %v", err)
	}
	version, err = runner.GetCurrentVersion()
	if err != nil {
		t.Fatalf("GetCurrentVersion failed: %v", err)
	}
	if version != 5 {
		t.Errorf("expected version 5, got %d", version)
	}
}

func TestReadMigrationFiles(t *testing.T) {
	runner := NewRunner(setupTestDB(t), mapFS(map[string]string{
		"003_another.sql": "CREATE TABLE test2 (id INTEGER);",
		"001_init.sql":    "CREATE TABLE test1 (id INTEGER);",
		"002_update.sql":  "ALTER TABLE test1 ADD COLUMN name TEXT;",
		"README.md":       "not a migration",
	}))

	got, err := runner.ReadMigrationFiles()
	if err != nil {
		t.Fatalf("ReadMigrationFiles failed: %v", err)
	}

	want := []struct {
		version int
		name    string
	}{{1, "init"}, {2, "update"}, {3, "another"}}
	if len(got) != len(want) {
		t.Fatalf("expected %d migrations, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i].Version != w.version || got[i].Name != w.name {
			t.Errorf("migration %d = (%d, %q), want (%d, %q)", i, got[i].Version, got[i].Name, w.version, w.name)
		}
	}
}

func TestApplyMigrations(t *testing.T) {
	db := setupTestDB(t)
	files := map[string]string{
		"001_init.sql": "CREATE TABLE logs (id TEXT PRIMARY KEY, content TEXT);",
	}
	runner := NewRunner(db, mapFS(files))

	var messages []string
	count, err := runner.ApplyMigrations(func(s string) { messages = append(messages, s) })
	if err != nil {
		t.Fatalf("ApplyMigrations failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 migration applied, got %d", count)
	}
	if len(messages) == 0 {
		t.Error("expected progress messages")
	}

	// A second file arrives with a later release.
	files["002_description.sql"] = "ALTER TABLE logs ADD COLUMN description TEXT NOT NULL DEFAULT '';"
	runner = NewRunner(db, mapFS(files))
	count, err = runner.ApplyMigrations(nil)
	if err != nil {
		t.Fatalf("incremental ApplyMigrations failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 incremental migration, got %d", count)
	}
	if _, err := db.Exec("INSERT INTO logs (id, content, description) VALUES ('a', 'Standup', '')"); err != nil {
		t.Errorf("migrated schema rejected insert: %v", err)
	}

	count, err = runner.ApplyMigrations(nil)
	if err != nil || count != 0 {
		t.Errorf("no-op ApplyMigrations = %d, %v; want 0, nil", count, err)
	}
	if v, _ := runner.GetCurrentVersion(); v != 2 {
		t.Errorf("current version = %d, want 2", v)
	}
}

func TestMigrationRollbackOnError(t *testing.T) {
	db := setupTestDB(t)
	runner := NewRunner(db, mapFS(map[string]string{
		"001_init.sql": `
			CREATE TABLE logs (id TEXT PRIMARY KEY);
			THIS IS INVALID SQL;
		`,
	}))

	if _, err := runner.ApplyMigrations(nil); err == nil {
		t.Fatal("ApplyMigrations should have failed with invalid SQL")
	}

	version, err := runner.GetCurrentVersion()
	if err != nil {
		t.Fatalf("GetCurrentVersion failed: %v", err)
	}
	if version != 0 {
		t.Errorf("expected version 0 after failed migration, got %d", version)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='logs'").Scan(&count); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if count != 0 {
		t.Error("table should not exist after failed migration")
	}
}

func TestValidateVersionNewerDatabase(t *testing.T) {
	runner := NewRunner(setupTestDB(t), mapFS(map[string]string{
		"001_init.sql": "CREATE TABLE logs (id TEXT PRIMARY KEY);",
	}))

	if err := runner.SetVersion(10); err != nil {
		t.Fatalf("SetVersion failed: %v", err)
	}

	err := runner.ValidateVersion()
	if err == nil || !strings.Contains(err.Error(), "newer than supported") {
		t.Errorf("ValidateVersion() error = %v, want newer-schema error", err)
	}
	if _, err := runner.ApplyMigrations(nil); err == nil {
		t.Error("ApplyMigrations should refuse a newer database")
	}
}

func TestInvalidMigrationFiles(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  string
	}{
		{name: "no underscore", files: map[string]string{"001.sql": ""}, want: "invalid migration filename"},
		{name: "non-numeric", files: map[string]string{"abc_init.sql": ""}, want: "invalid version number"},
		{name: "zero version", files: map[string]string{"000_init.sql": ""}, want: "at least 1"},
		{name: "duplicate", files: map[string]string{"001_a.sql": "", "01_b.sql": ""}, want: "duplicate migration version 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := NewRunner(setupTestDB(t), mapFS(tt.files))
			_, err := runner.ReadMigrationFiles()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("ReadMigrationFiles() error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestEmbeddedSQLiteMigrations(t *testing.T) {
	sub, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		t.Fatal(err)
	}
	db := setupTestDB(t)
	runner := NewRunner(db, sub)
	if _, err := runner.ApplyMigrations(nil); err != nil {
		t.Fatalf("embedded migrations failed: %v", err)
	}

	latest, err := runner.GetLatestVersion()
	if err != nil {
		t.Fatal(err)
	}
	if current, _ := runner.GetCurrentVersion(); current != latest {
		t.Errorf("current version %d, want latest %d", current, latest)
	}
	if _, err := db.Exec(`INSERT INTO logs (id, date, content, created_at, updated_at)
		VALUES ('a', '2024-05-01', 'Standup', '2024-05-01T09:00:00Z', '2024-05-01T09:00:00Z')`); err != nil {
		t.Errorf("insert into migrated logs table failed: %v", err)
	}
}

func TestEmbeddedPostgresMigrationsParse(t *testing.T) {
	sub, err := fs.Sub(migrations.FS, "postgres")
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunnerFor(nil, sub, Postgres)
	ms, err := runner.ReadMigrationFiles()
	if err != nil {
		t.Fatalf("ReadMigrationFiles failed: %v", err)
	}
	if len(ms) == 0 || !strings.Contains(ms[0].SQL, "CREATE TABLE IF NOT EXISTS logs") {
		t.Errorf("unexpected postgres migrations: %+v", ms)
	}
	if got := runner.insertVersionSQL(); !strings.Contains(got, "$1") {
		t.Errorf("postgres insert uses %q", got)
	}
}
