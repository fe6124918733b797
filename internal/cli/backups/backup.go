package backups

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/emomap/internal/backup"
	"github.com/julianstephens/emomap/internal/cli"
	"github.com/julianstephens/emomap/internal/constants"
)

var errNotFileStore = errors.New("backups are only supported for SQLite and JSON stores")

func manager(ctx *cli.Context) (*backup.Manager, error) {
	if !cli.IsFileStore(ctx.Store) {
		return nil, errNotFileStore
	}
	return backup.NewManager(ctx.Store.GetConfigPath()), nil
}

type BackupCreateCmd struct{}

func (c *BackupCreateCmd) Run(ctx *cli.Context) error {
	mgr, err := manager(ctx)
	if err != nil {
		return err
	}
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	backupPath, err := mgr.Create()
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}

	fmt.Printf("✓ Backup created: %s\n", filepath.Base(backupPath))
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(ctx *cli.Context) error {
	mgr, err := manager(ctx)
	if err != nil {
		return err
	}

	list, err := mgr.List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	if len(list) == 0 {
		fmt.Println("No backups found.")
		fmt.Printf("Backups are stored in: %s\n", mgr.BackupDir())
		return nil
	}

	fmt.Printf("Available backups (%d total, keeping most recent %d):\n\n", len(list), constants.MaxBackups)
	for _, b := range list {
		sizeKB := float64(b.Size) / 1024.0
		fmt.Printf("  %s  %s  (%.1f KB)\n", b.Timestamp.Format("2006-01-02 15:04:05"), filepath.Base(b.Path), sizeKB)
	}
	fmt.Printf("\nBackup directory: %s\n", mgr.BackupDir())
	return nil
}

type BackupRestoreCmd struct {
	BackupFile string `arg:"" help:"Path or filename of the backup to restore."`
	Yes        bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *BackupRestoreCmd) Run(ctx *cli.Context) error {
	mgr, err := manager(ctx)
	if err != nil {
		return err
	}

	backupPath, err := resolveBackupPath(mgr.BackupDir(), c.BackupFile)
	if err != nil {
		return err
	}

	if pids, err := cli.OtherInstances(); err == nil && len(pids) > 0 {
		fmt.Printf("⚠️  %d other %s process(es) are running (pids %v). Stop them before restoring.\n", len(pids), constants.AppName, pids)
	}

	if !c.Yes {
		fmt.Printf("Restore from: %s\n", backupPath)
		if !cli.Confirm("Replace the current store with this backup?", "A backup of the current store is created first.") {
			fmt.Println("Restore cancelled.")
			return nil
		}
	}

	if err := ctx.Store.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close store: %v\n", err)
	}

	previous, err := mgr.Restore(backupPath)
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}

	if previous != "" {
		fmt.Printf("Previous store saved as: %s\n", filepath.Base(previous))
	}
	fmt.Println("✓ Store restored successfully!")
	return nil
}

// resolveBackupPath accepts an absolute path, a path relative to the working
// directory, or a bare file name inside the backup directory.
func resolveBackupPath(backupDir, name string) (string, error) {
	if filepath.IsAbs(name) {
		if _, err := os.Stat(name); err != nil {
			return "", fmt.Errorf("backup file not found: %s", name)
		}
		return name, nil
	}

	if _, err := os.Stat(name); err == nil {
		abs, err := filepath.Abs(name)
		if err != nil {
			return "", fmt.Errorf("failed to resolve backup path: %w", err)
		}
		return abs, nil
	}

	candidate := filepath.Join(backupDir, name)
	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	}
	return "", fmt.Errorf("backup file not found: tried current directory and %s", backupDir)
}
