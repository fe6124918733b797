package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/emomap/internal/models"
)

// JSONStore keeps every submission in a single file holding a flat JSON
// array, the same layout the browser build wrote to its storage slot. The
// file is the source of truth: each call re-reads it, and Save rewrites the
// whole collection through a temp file and rename. Concurrent writers from
// separate processes can still lose updates.
type JSONStore struct {
	path   string
	loaded bool
}

func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

func (s *JSONStore) Init() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(s.path); err == nil {
		return fmt.Errorf("storage already initialized at %s", s.path)
	}

	if err := s.write([]models.SurveyData{}); err != nil {
		return err
	}
	s.loaded = true
	return nil
}

// Load marks the store ready. The file is parsed on every read, so corrupt
// content surfaces from LoadAll and Save while ClearAll still works. A
// missing file is an empty collection.
func (s *JSONStore) Load() error {
	s.loaded = true
	return nil
}

func (s *JSONStore) Close() error {
	s.loaded = false
	return nil
}

func (s *JSONStore) GetConfigPath() string {
	return s.path
}

func (s *JSONStore) Save(survey models.SurveyData) error {
	if !s.loaded {
		return ErrNotLoaded
	}

	// Unparsable content is never overwritten.
	existing, err := s.read()
	if err != nil {
		return fmt.Errorf("refusing to overwrite unreadable storage: %w", err)
	}
	return s.write(append(existing, survey))
}

func (s *JSONStore) LoadAll() ([]models.SurveyData, error) {
	if !s.loaded {
		return nil, ErrNotLoaded
	}
	return s.read()
}

func (s *JSONStore) ClearAll() error {
	if !s.loaded {
		return ErrNotLoaded
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to clear storage: %w", err)
	}
	return nil
}

func (s *JSONStore) read() ([]models.SurveyData, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []models.SurveyData{}, nil
		}
		return nil, fmt.Errorf("failed to read storage: %w", err)
	}
	if len(data) == 0 {
		return []models.SurveyData{}, nil
	}

	var surveys []models.SurveyData
	if err := json.Unmarshal(data, &surveys); err != nil {
		return nil, fmt.Errorf("failed to parse storage %s: %w", s.path, err)
	}
	if surveys == nil {
		surveys = []models.SurveyData{}
	}
	return surveys, nil
}

func (s *JSONStore) write(surveys []models.SurveyData) error {
	data, err := json.MarshalIndent(surveys, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize storage: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := os.Chmod(tmpPath, 0600); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set storage permissions: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace storage: %w", err)
	}
	return nil
}
