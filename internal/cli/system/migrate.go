package system

import (
	"fmt"

	"github.com/julianstephens/emomap/internal/cli"
	"github.com/julianstephens/emomap/internal/migration"
)

// migratable is implemented by the SQL-backed providers.
type migratable interface {
	Runner() *migration.Runner
}

type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}
	defer ctx.Store.Close()

	m, ok := ctx.Store.(migratable)
	if !ok {
		return fmt.Errorf("migrate command only supports SQLite and PostgreSQL storage")
	}

	count, err := m.Runner().ApplyMigrations(func(msg string) {
		fmt.Println(msg)
	})
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if count == 0 {
		fmt.Println("No migrations to apply. Database is up to date.")
	} else {
		fmt.Printf("\nSuccessfully applied %d migration(s).\n", count)
	}
	return nil
}
