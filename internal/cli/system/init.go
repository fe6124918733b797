package system

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/emomap/internal/cli"
	"github.com/julianstephens/emomap/internal/constants"
	"github.com/julianstephens/emomap/internal/storage"
)

type InitCmd struct {
	Force  bool   `help:"Force reset by deleting the existing store before initialization."`
	Source string `help:"Source store path or connection string to copy submissions from."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		if err := c.reset(ctx); err != nil {
			return err
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	fmt.Printf("Initialized %s storage at: %s\n", constants.AppName, ctx.Store.GetConfigPath())

	if c.Source != "" {
		fmt.Printf("Migrating data from: %s\n", c.Source)
		n, err := c.migrateData(ctx)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		fmt.Printf("  Migrated %d submissions\n", n)
		fmt.Println("Migration completed successfully!")
	}
	return nil
}

// reset removes a file-backed store. Other providers are cleared instead.
func (c *InitCmd) reset(ctx *cli.Context) error {
	if !cli.IsFileStore(ctx.Store) {
		// Nothing to clear in a store that cannot be loaded yet.
		if err := ctx.Store.Load(); err != nil {
			return nil
		}
		if err := ctx.Store.ClearAll(); err != nil {
			return fmt.Errorf("failed to clear existing store: %w", err)
		}
		fmt.Printf("Cleared existing store at: %s\n", ctx.Store.GetConfigPath())
		return nil
	}

	dbPath := ctx.Store.GetConfigPath()
	if c.Source != "" {
		absDB, err := filepath.Abs(dbPath)
		if err == nil {
			dbPath = absDB
		}
		if absSource, err := filepath.Abs(c.Source); err == nil && absSource == dbPath {
			return fmt.Errorf("cannot use --force when source and destination are the same: %s", dbPath)
		}
	}

	if _, err := os.Stat(dbPath); err == nil {
		if err := ctx.Store.Close(); err != nil {
			return fmt.Errorf("failed to close existing store: %w", err)
		}
		if err := os.Remove(dbPath); err != nil {
			return fmt.Errorf("failed to delete existing store: %w", err)
		}
		fmt.Printf("Deleted existing store at: %s\n", dbPath)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to access existing store: %w", err)
	}
	return nil
}

func (c *InitCmd) migrateData(ctx *cli.Context) (int, error) {
	source, err := cli.OpenStore(c.Source, "")
	if err != nil {
		return 0, err
	}
	if err := source.Load(); err != nil {
		return 0, fmt.Errorf("failed to load source store: %w", err)
	}
	defer source.Close()

	return storage.CopyAll(ctx.Store, source)
}
