// Package backup snapshots and restores the SQLite log database.
package backup

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/daylog/internal/constants"
	"github.com/julianstephens/daylog/internal/logger"
)

// stampFormat names a snapshot: daylog-20240501-090000.db, with "-N" added
// before the suffix when two snapshots land in the same second.
const stampFormat = "20060102-150405"

// Info describes one snapshot on disk.
type Info struct {
	Path      string
	Name      string
	Timestamp time.Time
	Size      int64
}

// Manager creates, lists, rotates and restores snapshots of one database.
type Manager struct {
	dbPath    string
	backupDir string
	keep      int
	now       func() time.Time
}

// NewManager keeps snapshots in a "backups" directory beside dbPath.
func NewManager(dbPath string) *Manager {
	return &Manager{
		dbPath:    dbPath,
		backupDir: filepath.Join(filepath.Dir(dbPath), constants.BackupDirName),
		keep:      constants.MaxBackups,
		now:       time.Now,
	}
}

// Dir returns the snapshot directory.
func (m *Manager) Dir() string {
	return m.backupDir
}

// Create snapshots the database and prunes the oldest snapshots beyond the
// retention limit.
func (m *Manager) Create() (Info, error) {
	info, err := m.snapshot()
	if err != nil {
		return Info{}, err
	}
	if err := m.rotate(); err != nil {
		logger.Warn("failed to rotate old backups", "dir", m.backupDir, "error", err)
	}
	return info, nil
}

func (m *Manager) snapshot() (Info, error) {
	if err := os.MkdirAll(m.backupDir, 0700); err != nil {
		return Info{}, fmt.Errorf("failed to create backup directory: %w", err)
	}
	if _, err := os.Stat(m.dbPath); os.IsNotExist(err) {
		return Info{}, fmt.Errorf("database does not exist: %s", m.dbPath)
	}

	ts := m.now().UTC().Truncate(time.Second)
	path, err := m.freeName(ts)
	if err != nil {
		return Info{}, err
	}

	if err := vacuumInto(m.dbPath, path); err != nil {
		return Info{}, fmt.Errorf("failed to backup database: %w", err)
	}

	st, err := os.Stat(path)
	if err != nil {
		return Info{}, err
	}
	logger.Info("database backup created", "path", path, "bytes", st.Size())
	return Info{Path: path, Name: filepath.Base(path), Timestamp: ts, Size: st.Size()}, nil
}

func (m *Manager) freeName(ts time.Time) (string, error) {
	stamp := ts.Format(stampFormat)
	for n := 0; n <= 100; n++ {
		name := constants.BackupFilePrefix + stamp + constants.BackupFileSuffix
		if n > 0 {
			name = fmt.Sprintf("%s%s-%d%s", constants.BackupFilePrefix, stamp, n, constants.BackupFileSuffix)
		}
		path := filepath.Join(m.backupDir, name)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, nil
		}
	}
	return "", errors.New("failed to generate unique backup filename")
}

// vacuumInto writes a compacted copy of src to dst. It falls back to a plain
// file copy when the SQLite build lacks VACUUM INTO.
func vacuumInto(src, dst string) error {
	db, err := sql.Open("sqlite", src+"?mode=ro")
	if err != nil {
		return fmt.Errorf("failed to open source database: %w", err)
	}
	defer db.Close()

	if err := verify(db); err != nil {
		return fmt.Errorf("source database appears to be corrupted: %w", err)
	}

	if _, err := db.Exec("VACUUM INTO ?", dst); err != nil {
		logger.Warn("VACUUM INTO failed, copying file", "error", err)
		db.Close()
		return copyFile(src, dst)
	}
	return nil
}

// parseName extracts the snapshot time from a file name, reporting false for
// files that are not snapshots.
func parseName(name string) (time.Time, bool) {
	stamp, ok := strings.CutPrefix(name, constants.BackupFilePrefix)
	if !ok {
		return time.Time{}, false
	}
	stamp, ok = strings.CutSuffix(stamp, constants.BackupFileSuffix)
	if !ok {
		return time.Time{}, false
	}
	if len(stamp) > len(stampFormat) {
		counter, found := strings.CutPrefix(stamp[len(stampFormat):], "-")
		if _, err := strconv.Atoi(counter); !found || err != nil {
			return time.Time{}, false
		}
		stamp = stamp[:len(stampFormat)]
	}
	ts, err := time.Parse(stampFormat, stamp)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// List returns every snapshot, newest first.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Info{}, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	backups := []Info{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ts, ok := parseName(entry.Name())
		if !ok {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, Info{
			Path:      filepath.Join(m.backupDir, entry.Name()),
			Name:      entry.Name(),
			Timestamp: ts,
			Size:      fi.Size(),
		})
	}

	slices.SortStableFunc(backups, func(a, b Info) int {
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		return strings.Compare(b.Name, a.Name)
	})
	return backups, nil
}

func (m *Manager) rotate() error {
	backups, err := m.List()
	if err != nil {
		return err
	}
	for i := m.keep; i < len(backups); i++ {
		if err := os.Remove(backups[i].Path); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", backups[i].Path, err)
		}
	}
	return nil
}

// Resolve accepts a snapshot path or a bare file name from List.
func (m *Manager) Resolve(nameOrPath string) string {
	if filepath.Base(nameOrPath) == nameOrPath {
		if _, err := os.Stat(nameOrPath); err != nil {
			return filepath.Join(m.backupDir, nameOrPath)
		}
	}
	return nameOrPath
}

// Restore replaces the database with the snapshot at path. The current
// database, if any, is snapshotted first without rotation; its Info is
// returned so the caller can report it. The database must not be open.
func (m *Manager) Restore(path string) (*Info, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("backup file does not exist: %s", path)
	}
	if err := verifyFile(path); err != nil {
		return nil, fmt.Errorf("backup file is corrupted or invalid: %w", err)
	}

	var previous *Info
	if _, err := os.Stat(m.dbPath); err == nil {
		info, err := m.snapshot()
		if err != nil {
			return nil, fmt.Errorf("failed to backup current database before restore: %w", err)
		}
		previous = &info
	}

	tempPath := m.dbPath + ".restore.tmp"
	if err := copyFile(path, tempPath); err != nil {
		return nil, fmt.Errorf("failed to copy backup file: %w", err)
	}
	if err := os.Rename(tempPath, m.dbPath); err != nil {
		if rmErr := os.Remove(tempPath); rmErr != nil {
			logger.Warn("failed to remove temporary file", "path", tempPath, "error", rmErr)
		}
		return nil, fmt.Errorf("failed to restore database: %w", err)
	}

	logger.Info("database restored", "from", path)
	return previous, nil
}

func verifyFile(path string) error {
	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return err
	}
	defer db.Close()
	return verify(db)
}

// verify checks that db is a SQLite database holding the logs table.
func verify(db *sql.DB) error {
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'logs'").Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return errors.New("no logs table")
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := out.ReadFrom(in); err != nil {
		return err
	}
	return out.Sync()
}
