package system

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/emomap/internal/cli"
	"github.com/julianstephens/emomap/internal/storage"
	"github.com/julianstephens/emomap/internal/storage/sqlite"
	"github.com/julianstephens/emomap/internal/storage/storagetest"
)

func setupTestDB(t *testing.T) (*cli.Context, string, func()) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store := sqlite.NewStore(dbPath)

	ctx := &cli.Context{Store: store}
	cleanup := func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	}
	return ctx, dbPath, cleanup
}

func TestInitCmd_Success(t *testing.T) {
	ctx, dbPath, cleanup := setupTestDB(t)
	defer cleanup()

	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatalf("init command failed: %v", err)
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("database file was not created at %s", dbPath)
	}
}

func TestInitCmd_Idempotent(t *testing.T) {
	ctx, _, cleanup := setupTestDB(t)
	defer cleanup()

	cmd := &InitCmd{}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("first init failed: %v", err)
	}
	if err := cmd.Run(ctx); err != nil {
		t.Errorf("second init failed (should be idempotent): %v", err)
	}
}

func TestInitCmd_ForceDeletesExisting(t *testing.T) {
	ctx, _, cleanup := setupTestDB(t)
	defer cleanup()

	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatalf("initial init failed: %v", err)
	}
	if err := ctx.Store.Save(storagetest.Survey(1)); err != nil {
		t.Fatal(err)
	}

	if err := (&InitCmd{Force: true}).Run(ctx); err != nil {
		t.Fatalf("forced init failed: %v", err)
	}

	all, err := ctx.Store.LoadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 0 {
		t.Errorf("forced init kept %d submissions", len(all))
	}
}

func TestInitCmd_ForceRefusesSameSource(t *testing.T) {
	ctx, dbPath, cleanup := setupTestDB(t)
	defer cleanup()

	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if err := (&InitCmd{Force: true, Source: dbPath}).Run(ctx); err == nil {
		t.Error("expected --force with source == destination to fail")
	}
}

func TestInitCmd_MigratesFromJSON(t *testing.T) {
	ctx, _, cleanup := setupTestDB(t)
	defer cleanup()

	srcPath := filepath.Join(t.TempDir(), "emotion-survey-data.json")
	src := storage.NewJSONStore(srcPath)
	if err := src.Init(); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := src.Save(storagetest.Survey(i)); err != nil {
			t.Fatal(err)
		}
	}

	if err := (&InitCmd{Source: srcPath}).Run(ctx); err != nil {
		t.Fatalf("init with source failed: %v", err)
	}

	all, err := ctx.Store.LoadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("migrated %d submissions, want 3", len(all))
	}
	if all[0].ID != storagetest.Survey(0).ID {
		t.Errorf("append order not preserved: first id %s", all[0].ID)
	}
}

func TestMigrateCmd(t *testing.T) {
	ctx, _, cleanup := setupTestDB(t)
	defer cleanup()

	if err := ctx.Store.Init(); err != nil {
		t.Fatal(err)
	}
	if err := (&MigrateCmd{}).Run(ctx); err != nil {
		t.Errorf("migrate on an up-to-date database failed: %v", err)
	}
}

func TestMigrateCmd_RejectsJSON(t *testing.T) {
	store := storage.NewJSONStore(filepath.Join(t.TempDir(), "data.json"))
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}
	if err := (&MigrateCmd{}).Run(&cli.Context{Store: store}); err == nil {
		t.Error("expected migrate to reject a JSON store")
	}
}

func TestDoctorCmd_HealthyDB(t *testing.T) {
	ctx, _, cleanup := setupTestDB(t)
	defer cleanup()

	if err := ctx.Store.Init(); err != nil {
		t.Fatal(err)
	}
	if err := ctx.Store.Save(storagetest.Survey(0)); err != nil {
		t.Fatal(err)
	}

	// Missing backups is a warning, not a failure
	if err := (&DoctorCmd{}).Run(ctx); err != nil {
		t.Errorf("doctor command failed on healthy database: %v", err)
	}
}

func TestDoctorCmd_UninitializedDB(t *testing.T) {
	ctx, _, cleanup := setupTestDB(t)
	defer cleanup()

	if err := (&DoctorCmd{}).Run(ctx); err == nil {
		t.Error("doctor should fail when the database does not exist")
	}
}

func TestCheckValidation_Duplicate(t *testing.T) {
	store := storage.NewMemoryStore()
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}
	s := storagetest.Survey(0)
	if err := store.Save(s); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(s); err != nil {
		t.Fatal(err)
	}

	if err := checkValidation(&cli.Context{Store: store}); err == nil {
		t.Error("expected duplicate submission ids to fail validation")
	}
}

func TestKeyringCommands(t *testing.T) {
	keyring.MockInit()
	ctx := &cli.Context{Store: storage.NewMemoryStore()}

	if err := (&KeyringGetCmd{}).Run(ctx); err == nil {
		t.Error("get on an empty keyring should fail")
	}
	if err := (&KeyringSetCmd{ConnectionString: "not a conn string"}).Run(ctx); err == nil {
		t.Error("set should reject a non-PostgreSQL string")
	}
	if err := (&KeyringSetCmd{ConnectionString: "postgres://alice:pw@localhost:5432/emomap"}).Run(ctx); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := (&KeyringGetCmd{}).Run(ctx); err != nil {
		t.Errorf("get failed: %v", err)
	}
	if err := (&KeyringStatusCmd{}).Run(ctx); err != nil {
		t.Errorf("status failed: %v", err)
	}
	if err := (&KeyringDeleteCmd{}).Run(ctx); err != nil {
		t.Errorf("delete failed: %v", err)
	}
	if err := (&KeyringDeleteCmd{}).Run(ctx); err == nil {
		t.Error("second delete should report not found")
	}
}

func TestValidateCmd(t *testing.T) {
	store := storage.NewMemoryStore()
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}
	ctx := &cli.Context{Store: store}

	if err := store.Save(storagetest.Survey(0)); err != nil {
		t.Fatal(err)
	}
	if err := (&ValidateCmd{}).Run(ctx); err != nil {
		t.Errorf("validate failed on clean data: %v", err)
	}

	if err := store.Save(storagetest.Survey(0)); err != nil {
		t.Fatal(err)
	}
	if err := (&ValidateCmd{}).Run(ctx); err == nil {
		t.Error("expected duplicate ids to fail validation")
	}
}
