package storage_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/julianstephens/emomap/internal/models"
	"github.com/julianstephens/emomap/internal/storage"
	"github.com/julianstephens/emomap/internal/storage/storagetest"
)

func newJSONStore(t *testing.T) *storage.JSONStore {
	t.Helper()
	s := storage.NewJSONStore(filepath.Join(t.TempDir(), "emotion-survey-data.json"))
	if err := s.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return s
}

func TestJSONStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Provider { return newJSONStore(t) })
}

func TestJSONStoreInitTwice(t *testing.T) {
	s := newJSONStore(t)
	if err := storage.NewJSONStore(s.GetConfigPath()).Init(); err == nil {
		t.Error("second Init should fail when the file exists")
	}
}

func TestJSONStoreFileIsFlatArray(t *testing.T) {
	s := newJSONStore(t)
	if err := s.Save(storagetest.Survey(1)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(s.GetConfigPath())
	if err != nil {
		t.Fatalf("failed to read store file: %v", err)
	}
	var raw []map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("store file is not a JSON array: %v", err)
	}
	if len(raw) != 1 {
		t.Fatalf("expected 1 element, got %d", len(raw))
	}
	for _, key := range []string{"id", "responses", "completedAt"} {
		if _, ok := raw[0][key]; !ok {
			t.Errorf("missing key %q in stored submission", key)
		}
	}

	info, err := os.Stat(s.GetConfigPath())
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("store file permissions = %o, want 600", perm)
	}
}

func TestJSONStoreMissingFileLoadsEmpty(t *testing.T) {
	s := storage.NewJSONStore(filepath.Join(t.TempDir(), "absent.json"))
	if err := s.Load(); err != nil {
		t.Fatalf("Load on missing file failed: %v", err)
	}
	all, err := s.LoadAll()
	if err != nil || len(all) != 0 {
		t.Errorf("LoadAll = (%v, %v), want empty", all, err)
	}

	// Save creates the file on first write
	if err := s.Save(storagetest.Survey(2)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	all, _ = s.LoadAll()
	if len(all) != 1 {
		t.Errorf("expected 1 submission, got %d", len(all))
	}
}

func TestJSONStoreCorruptContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	s := storage.NewJSONStore(path)
	if err := s.Load(); err != nil {
		t.Fatalf("Load should not parse content: %v", err)
	}
	if _, err := s.LoadAll(); err == nil {
		t.Error("LoadAll should fail on corrupt content")
	}
	if err := s.Save(storagetest.Survey(0)); err == nil {
		t.Error("Save should refuse to overwrite corrupt content")
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "{not json" {
		t.Errorf("corrupt file changed: %q (%v)", data, err)
	}

	if err := s.ClearAll(); err != nil {
		t.Fatalf("ClearAll on corrupt content failed: %v", err)
	}
	all, err := s.LoadAll()
	if err != nil || len(all) != 0 {
		t.Errorf("LoadAll after clear = (%v, %v), want empty", all, err)
	}
}

func TestJSONStoreNullContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "null.json")
	if err := os.WriteFile(path, []byte("null"), 0600); err != nil {
		t.Fatal(err)
	}
	s := storage.NewJSONStore(path)
	if err := s.Load(); err != nil {
		t.Fatal(err)
	}
	all, err := s.LoadAll()
	if err != nil {
		t.Fatal(err)
	}
	if all == nil || len(all) != 0 {
		t.Errorf("LoadAll on null content = %#v, want empty slice", all)
	}
}

func TestJSONStoreReadsBrowserExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.json")
	export := `[{"id":"survey_1718000000000","responses":[{"emotionId":"joy","location":"Central Park","coordinates":[40.7829,-73.9654],"intensity":7,"timestamp":1718000000000}],"completedAt":1718000000500}]`
	if err := os.WriteFile(path, []byte(export), 0600); err != nil {
		t.Fatal(err)
	}

	s := storage.NewJSONStore(path)
	if err := s.Load(); err != nil {
		t.Fatal(err)
	}
	all, err := s.LoadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || all[0].Responses[0].Coordinates != (models.Coordinates{40.7829, -73.9654}) {
		t.Errorf("unexpected decode: %+v", all)
	}
}

func TestJSONStoreNotLoaded(t *testing.T) {
	s := storage.NewJSONStore(filepath.Join(t.TempDir(), "x.json"))
	if err := s.ClearAll(); !errors.Is(err, storage.ErrNotLoaded) {
		t.Errorf("ClearAll before Load = %v, want ErrNotLoaded", err)
	}
}
