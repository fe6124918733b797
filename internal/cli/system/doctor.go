package system

import (
	"fmt"
	"time"

	"github.com/julianstephens/emomap/internal/backup"
	"github.com/julianstephens/emomap/internal/cli"
	"github.com/julianstephens/emomap/internal/constants"
	"github.com/julianstephens/emomap/internal/storage/sqlite"
	"github.com/julianstephens/emomap/internal/validation"
)

type DoctorCmd struct{}

type check struct {
	name string
	// warnOnly checks never fail the run.
	warnOnly bool
	needsDB  bool
	fn       func(*cli.Context) error
}

var checks = []check{
	{name: "Database reachable", fn: checkDBReachable},
	{name: "Schema version", needsDB: true, fn: checkSchemaVersion},
	{name: "Migrations complete", needsDB: true, fn: checkMigrationsComplete},
	{name: "Data validation", needsDB: true, fn: checkValidation},
	{name: "Backups present", warnOnly: true, fn: checkBackupsPresent},
	{name: "Single writer", warnOnly: true, fn: checkSingleWriter},
	{name: "Clock/timezone", fn: func(*cli.Context) error { return checkClockTimezone() }},
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	fmt.Println("Running diagnostics...")
	fmt.Println()

	hasError := false
	dbReachable := true

	for i, c := range checks {
		if c.needsDB && !dbReachable {
			fmt.Printf("⊘ %s: SKIPPED (database not reachable)\n", c.name)
			continue
		}

		err := c.fn(ctx)
		switch {
		case err == nil:
			fmt.Printf("✓ %s: OK\n", c.name)
		case c.warnOnly:
			fmt.Printf("⚠ %s: WARNING\n", c.name)
			fmt.Printf("   %v\n", err)
		default:
			fmt.Printf("❌ %s: FAIL\n", c.name)
			fmt.Printf("   Error: %v\n", err)
			hasError = true
		}
		if i == 0 && err != nil {
			dbReachable = false
		}
	}

	fmt.Println()
	if hasError {
		fmt.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	fmt.Println("All diagnostics passed!")
	return nil
}

func checkDBReachable(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}

	if s, ok := ctx.Store.(*sqlite.Store); ok {
		db := s.GetDB()
		if db == nil {
			return fmt.Errorf("database connection is nil")
		}
		var result int
		if err := db.QueryRow("SELECT 1").Scan(&result); err != nil {
			return fmt.Errorf("failed to query database: %w", err)
		}
	}
	return nil
}

func checkSchemaVersion(ctx *cli.Context) error {
	m, ok := ctx.Store.(migratable)
	if !ok {
		return nil
	}
	// Status fails when the database is newer than this binary.
	_, err := m.Runner().Status()
	return err
}

func checkMigrationsComplete(ctx *cli.Context) error {
	m, ok := ctx.Store.(migratable)
	if !ok {
		return nil
	}
	st, err := m.Runner().Status()
	if err != nil {
		return fmt.Errorf("failed to read schema status: %w", err)
	}
	if len(st.Pending) > 0 {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d", st.Current, st.Latest)
	}
	return nil
}

func checkValidation(ctx *cli.Context) error {
	surveys, err := ctx.Store.LoadAll()
	if err != nil {
		return fmt.Errorf("failed to load submissions: %w", err)
	}

	result := validation.New().ValidateSurveys(surveys)
	for _, c := range result.Conflicts {
		if c.Blocking() {
			return fmt.Errorf("%s", c.Description)
		}
	}
	if result.HasConflicts() {
		fmt.Printf("   %d non-blocking conflict(s); run 'emomap validate' for details\n", len(result.Conflicts))
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	if !cli.IsFileStore(ctx.Store) {
		return fmt.Errorf("backups are only managed for file stores")
	}
	mgr := backup.NewManager(ctx.Store.GetConfigPath())
	backups, err := mgr.List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found - consider creating one with '%s backup create'", constants.AppName)
	}
	return nil
}

func checkSingleWriter(*cli.Context) error {
	pids, err := cli.OtherInstances()
	if err != nil {
		return fmt.Errorf("failed to list processes: %w", err)
	}
	if len(pids) > 0 {
		return fmt.Errorf("%d other %s process(es) running (pids %v); JSON stores are not safe for concurrent writers", len(pids), constants.AppName, pids)
	}
	return nil
}

func checkClockTimezone() error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	return nil
}
