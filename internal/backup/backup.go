// Package backup snapshots and restores file-based survey stores: SQLite
// databases and JSON files.
package backup

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/emomap/internal/constants"
	"github.com/julianstephens/emomap/internal/logger"
	"github.com/julianstephens/emomap/internal/models"
)

const timestampLayout = "20060102-150405"

// Kind is the on-disk format of the store being backed up.
type Kind int

const (
	KindSQLite Kind = iota
	KindJSON
)

func (k Kind) suffix() string {
	if k == KindJSON {
		return ".json"
	}
	return ".db"
}

type Info struct {
	Path      string
	Timestamp time.Time
	Size      int64
}

type Manager struct {
	storePath string
	backupDir string
	kind      Kind
	now       func() time.Time
}

// NewManager manages backups for the store file at storePath. Backups live
// in a directory next to it.
func NewManager(storePath string) *Manager {
	kind := KindSQLite
	if strings.EqualFold(filepath.Ext(storePath), ".json") {
		kind = KindJSON
	}
	return &Manager{
		storePath: storePath,
		backupDir: filepath.Join(filepath.Dir(storePath), constants.BackupDirName),
		kind:      kind,
		now:       time.Now,
	}
}

func (m *Manager) BackupDir() string { return m.backupDir }

func (m *Manager) Kind() Kind { return m.kind }

// Create writes a new backup and prunes the oldest beyond MaxBackups.
func (m *Manager) Create() (string, error) {
	path, err := m.create()
	if err != nil {
		return "", err
	}
	if err := m.rotate(); err != nil {
		logger.Warn("Failed to rotate old backups", "error", err)
	}
	return path, nil
}

func (m *Manager) create() (string, error) {
	if err := os.MkdirAll(m.backupDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}
	if _, err := os.Stat(m.storePath); os.IsNotExist(err) {
		return "", fmt.Errorf("store does not exist: %s", m.storePath)
	}

	dest, err := m.nextName()
	if err != nil {
		return "", err
	}

	switch m.kind {
	case KindJSON:
		if err := verifyJSON(m.storePath); err != nil {
			return "", fmt.Errorf("refusing to back up unreadable store: %w", err)
		}
		err = copyFile(m.storePath, dest)
	default:
		err = m.vacuumInto(dest)
	}
	if err != nil {
		return "", fmt.Errorf("failed to back up store: %w", err)
	}

	logger.Info("Backup created", "path", dest)
	return dest, nil
}

func (m *Manager) nextName() (string, error) {
	stamp := m.now().Format(timestampLayout)
	path := filepath.Join(m.backupDir, constants.BackupFilePrefix+stamp+m.kind.suffix())
	for i := 1; ; i++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, nil
		}
		if i > 100 {
			return "", fmt.Errorf("failed to generate unique backup filename")
		}
		path = filepath.Join(m.backupDir, fmt.Sprintf("%s%s-%d%s", constants.BackupFilePrefix, stamp, i, m.kind.suffix()))
	}
}

func (m *Manager) vacuumInto(dest string) error {
	db, err := sql.Open("sqlite", m.storePath+"?mode=ro")
	if err != nil {
		return fmt.Errorf("failed to open source database: %w", err)
	}
	defer db.Close()

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master").Scan(&count); err != nil {
		return fmt.Errorf("source database appears to be corrupted: %w", err)
	}

	if _, err := db.Exec("VACUUM INTO ?", dest); err != nil {
		logger.Warn("VACUUM INTO failed, falling back to file copy", "error", err)
		db.Close()
		return copyFile(m.storePath, dest)
	}
	return nil
}

// List returns the backups for this store kind, newest first.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.backupDir)
	if os.IsNotExist(err) {
		return []Info{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	backups := []Info{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ts, counter, ok := parseName(entry.Name(), m.kind.suffix())
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, Info{
			Path: filepath.Join(m.backupDir, entry.Name()),
			// Counter suffixes were written later in the same second
			Timestamp: ts.Add(time.Duration(counter) * time.Nanosecond),
			Size:      info.Size(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

// parseName accepts <prefix><timestamp>[-<n>]<suffix>.
func parseName(name, suffix string) (time.Time, int, bool) {
	if !strings.HasPrefix(name, constants.BackupFilePrefix) || !strings.HasSuffix(name, suffix) {
		return time.Time{}, 0, false
	}
	stem := strings.TrimSuffix(strings.TrimPrefix(name, constants.BackupFilePrefix), suffix)

	counter := 0
	if len(stem) > len(timestampLayout) {
		n, err := strconv.Atoi(strings.TrimPrefix(stem[len(timestampLayout):], "-"))
		if err != nil || n < 1 {
			return time.Time{}, 0, false
		}
		counter = n
		stem = stem[:len(timestampLayout)]
	}

	ts, err := time.ParseInLocation(timestampLayout, stem, time.Local)
	if err != nil {
		return time.Time{}, 0, false
	}
	return ts, counter, true
}

func (m *Manager) rotate() error {
	backups, err := m.List()
	if err != nil {
		return err
	}
	for i := constants.MaxBackups; i < len(backups); i++ {
		if err := os.Remove(backups[i].Path); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", backups[i].Path, err)
		}
	}
	return nil
}

// Restore replaces the store with backupPath. The current store, if any, is
// first saved as a new backup whose path is returned.
func (m *Manager) Restore(backupPath string) (string, error) {
	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		return "", fmt.Errorf("backup file does not exist: %s", backupPath)
	}
	if err := m.verify(backupPath); err != nil {
		return "", fmt.Errorf("backup file is corrupted or invalid: %w", err)
	}

	var previous string
	if _, err := os.Stat(m.storePath); err == nil {
		// Not rotated, so the pre-restore copy can't evict the backup being restored
		previous, err = m.create()
		if err != nil {
			return "", fmt.Errorf("failed to back up current store before restore: %w", err)
		}
	}

	tmp := m.storePath + ".restore.tmp"
	if err := copyFile(backupPath, tmp); err != nil {
		return previous, fmt.Errorf("failed to copy backup file: %w", err)
	}
	if err := os.Rename(tmp, m.storePath); err != nil {
		if rmErr := os.Remove(tmp); rmErr != nil {
			logger.Warn("Failed to remove temporary file", "path", tmp, "error", rmErr)
		}
		return previous, fmt.Errorf("failed to restore store: %w", err)
	}

	logger.Info("Store restored", "from", backupPath, "to", m.storePath)
	return previous, nil
}

func (m *Manager) verify(path string) error {
	if m.kind == KindJSON {
		return verifyJSON(path)
	}
	return verifySQLite(path)
}

func verifySQLite(path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()

	var count int
	return db.QueryRow("SELECT COUNT(*) FROM sqlite_master").Scan(&count)
}

// verifyJSON checks that path holds a JSON array of submissions.
func verifyJSON(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	var surveys []models.SurveyData
	if err := json.Unmarshal(data, &surveys); err != nil {
		return fmt.Errorf("not a survey array: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
