package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/emomap/internal/logger"
	"github.com/julianstephens/emomap/internal/migration"
	"github.com/julianstephens/emomap/migrations"
)

type Store struct {
	path string
	db   *sql.DB
}

func NewStore(path string) *Store {
	return &Store{
		path: path,
	}
}

func (s *Store) Init() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	if err := s.runMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *Store) Load() error {
	if s.db != nil {
		return nil
	}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return fmt.Errorf("storage not initialized, run 'emomap init' first")
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	if err := s.Runner().ValidateVersion(); err != nil {
		return err
	}
	return nil
}

func (s *Store) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

// Runner returns a migration runner bound to this database.
func (s *Store) Runner() *migration.Runner {
	return migration.NewRunner(s.db, migrations.SQLite())
}

func (s *Store) runMigrations() error {
	_, err := s.Runner().ApplyMigrations(func(msg string) {
		logger.Info(msg, "store", "sqlite")
	})
	return err
}

func (s *Store) GetConfigPath() string {
	return s.path
}

// GetDB returns the underlying database connection, nil before Init or Load.
func (s *Store) GetDB() *sql.DB {
	return s.db
}
