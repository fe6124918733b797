package backup_test

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/julianstephens/emomap/internal/backup"
	"github.com/julianstephens/emomap/internal/models"
	"github.com/julianstephens/emomap/internal/storage"
	"github.com/julianstephens/emomap/internal/storage/sqlite"
	"github.com/julianstephens/emomap/internal/storage/storagetest"
)

func TestIntegrationBackupRestoreWorkflow(t *testing.T) {
	tests := []struct {
		name  string
		file  string
		store func(path string) storage.Provider
	}{
		{"sqlite", "emomap.db", func(p string) storage.Provider { return sqlite.NewStore(p) }},
		{"json", "emotion-survey-data.json", func(p string) storage.Provider { return storage.NewJSONStore(p) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)

			store := tt.store(path)
			if err := store.Init(); err != nil {
				t.Fatalf("Init failed: %v", err)
			}
			if err := store.Load(); err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			first := storagetest.Survey(1)
			if err := store.Save(first); err != nil {
				t.Fatal(err)
			}
			if err := store.Close(); err != nil {
				t.Fatal(err)
			}

			mgr := backup.NewManager(path)
			snapshot, err := mgr.Create()
			if err != nil {
				t.Fatalf("Create failed: %v", err)
			}

			store = tt.store(path)
			if err := store.Load(); err != nil {
				t.Fatal(err)
			}
			if err := store.Save(storagetest.Survey(2)); err != nil {
				t.Fatal(err)
			}
			if err := store.Close(); err != nil {
				t.Fatal(err)
			}

			if _, err := mgr.Restore(snapshot); err != nil {
				t.Fatalf("Restore failed: %v", err)
			}

			store = tt.store(path)
			if err := store.Load(); err != nil {
				t.Fatalf("Load after restore failed: %v", err)
			}
			defer store.Close()

			all, err := store.LoadAll()
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff([]models.SurveyData{first}, all); diff != "" {
				t.Errorf("restored surveys mismatch (-want +got):\n%s", diff)
			}

			backups, err := mgr.List()
			if err != nil {
				t.Fatal(err)
			}
			if len(backups) != 2 {
				t.Errorf("expected snapshot plus pre-restore backup, got %d", len(backups))
			}
		})
	}
}
