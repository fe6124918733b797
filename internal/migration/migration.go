package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Dialect selects the bind-parameter syntax used for schema_version writes.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

// Migration is one versioned schema file (NNN_name.sql).
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Status summarizes where a database stands relative to the embedded migrations.
type Status struct {
	Current int
	Latest  int
	Pending []Migration
}

// Runner applies embedded migrations to a database
type Runner struct {
	db      *sql.DB
	fs      fs.FS
	dialect Dialect
}

// NewRunner creates a runner for a SQLite database.
func NewRunner(db *sql.DB, migrationFS fs.FS) *Runner {
	return &Runner{db: db, fs: migrationFS, dialect: SQLite}
}

// NewRunnerWithDialect creates a runner that writes version rows with the
// placeholder syntax of the given dialect.
func NewRunnerWithDialect(db *sql.DB, migrationFS fs.FS, dialect Dialect) *Runner {
	return &Runner{db: db, fs: migrationFS, dialect: dialect}
}

func (r *Runner) insertVersionSQL() string {
	if r.dialect == Postgres {
		return "INSERT INTO schema_version (version) VALUES ($1)"
	}
	return "INSERT INTO schema_version (version) VALUES (?)"
}

// EnsureSchemaVersionTable creates the schema_version table if it doesn't exist
func (r *Runner) EnsureSchemaVersionTable() error {
	_, err := r.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)`)
	return err
}

// GetCurrentVersion returns the applied schema version, 0 for a fresh database.
func (r *Runner) GetCurrentVersion() (int, error) {
	if err := r.EnsureSchemaVersionTable(); err != nil {
		return 0, fmt.Errorf("failed to ensure schema_version table: %w", err)
	}

	var version int
	err := r.db.QueryRow("SELECT version FROM schema_version").Scan(&version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get current version: %w", err)
	}
	return version, nil
}

// SetVersion overwrites the recorded schema version.
func (r *Runner) SetVersion(version int) error {
	if err := r.EnsureSchemaVersionTable(); err != nil {
		return fmt.Errorf("failed to ensure schema_version table: %w", err)
	}
	if _, err := r.db.Exec("DELETE FROM schema_version"); err != nil {
		return fmt.Errorf("failed to clear version: %w", err)
	}
	if _, err := r.db.Exec(r.insertVersionSQL(), version); err != nil {
		return fmt.Errorf("failed to set version: %w", err)
	}
	return nil
}

// ReadMigrationFiles parses every NNN_name.sql file at the root of the
// migration filesystem, sorted by version.
func (r *Runner) ReadMigrationFiles() ([]Migration, error) {
	files, err := fs.ReadDir(r.fs, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var migrations []Migration
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		prefix, rest, ok := strings.Cut(file.Name(), "_")
		if !ok {
			return nil, fmt.Errorf("invalid migration filename format: %s (expected NNN_name.sql)", file.Name())
		}
		version, err := strconv.Atoi(prefix)
		if err != nil {
			return nil, fmt.Errorf("invalid version number in filename %s: %w", file.Name(), err)
		}
		if version < 1 {
			return nil, fmt.Errorf("invalid version number in filename %s: version must be at least 1", file.Name())
		}

		content, err := fs.ReadFile(r.fs, file.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %s: %w", file.Name(), err)
		}

		migrations = append(migrations, Migration{
			Version: version,
			Name:    strings.TrimSuffix(rest, ".sql"),
			SQL:     string(content),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	for i := 1; i < len(migrations); i++ {
		if migrations[i].Version == migrations[i-1].Version {
			return nil, fmt.Errorf("duplicate migration version %d", migrations[i].Version)
		}
	}

	return migrations, nil
}

// GetLatestVersion returns the highest migration version available
func (r *Runner) GetLatestVersion() (int, error) {
	migrations, err := r.ReadMigrationFiles()
	if err != nil {
		return 0, err
	}
	if len(migrations) == 0 {
		return 0, nil
	}
	return migrations[len(migrations)-1].Version, nil
}

// Status reports the current and latest versions plus the migrations not yet applied.
func (r *Runner) Status() (Status, error) {
	current, err := r.GetCurrentVersion()
	if err != nil {
		return Status{}, err
	}
	migrations, err := r.ReadMigrationFiles()
	if err != nil {
		return Status{}, err
	}

	st := Status{Current: current}
	for _, m := range migrations {
		st.Latest = m.Version
		if m.Version > current {
			st.Pending = append(st.Pending, m)
		}
	}
	if current > st.Latest {
		return st, newerSchemaError(current, st.Latest)
	}
	return st, nil
}

func newerSchemaError(current, latest int) error {
	return fmt.Errorf("database schema version (%d) is newer than supported version (%d) - please upgrade emomap", current, latest)
}

// ApplyMigrations applies every pending migration in its own transaction and
// returns how many were applied.
func (r *Runner) ApplyMigrations(logFn func(string)) (int, error) {
	if logFn == nil {
		logFn = func(string) {}
	}

	st, err := r.Status()
	if err != nil {
		return 0, err
	}
	if st.Latest == 0 {
		logFn("No migration files found")
		return 0, nil
	}
	if len(st.Pending) == 0 {
		logFn(fmt.Sprintf("Database schema is up to date (version %d)", st.Current))
		return 0, nil
	}

	logFn(fmt.Sprintf("Current schema version: %d", st.Current))
	logFn(fmt.Sprintf("Target schema version: %d", st.Latest))
	logFn(fmt.Sprintf("Applying %d migration(s)...", len(st.Pending)))

	startTime := time.Now()
	applied := 0
	for _, m := range st.Pending {
		logFn(fmt.Sprintf("  Applying migration %d: %s", m.Version, m.Name))
		if err := r.apply(m); err != nil {
			return applied, err
		}
		applied++
		logFn(fmt.Sprintf("  ✓ Migration %d applied successfully", m.Version))
	}

	logFn(fmt.Sprintf("Applied %d migration(s) in %v", applied, time.Since(startTime).Round(time.Millisecond)))
	return applied, nil
}

func (r *Runner) apply(m Migration) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction for migration %d: %w", m.Version, err)
	}

	if _, err := tx.Exec(m.SQL); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to apply migration %d (%s): %w", m.Version, m.Name, err)
	}
	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to clear version in migration %d: %w", m.Version, err)
	}
	if _, err := tx.Exec(r.insertVersionSQL(), m.Version); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to set version in migration %d: %w", m.Version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
	}
	return nil
}

// ValidateVersion fails when the database was migrated by a newer emomap.
func (r *Runner) ValidateVersion() error {
	current, err := r.GetCurrentVersion()
	if err != nil {
		return err
	}
	latest, err := r.GetLatestVersion()
	if err != nil {
		return err
	}
	if current > latest {
		return newerSchemaError(current, latest)
	}
	return nil
}
