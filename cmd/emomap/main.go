package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/emomap/internal/cli"
	"github.com/julianstephens/emomap/internal/cli/backups"
	"github.com/julianstephens/emomap/internal/cli/surveys"
	"github.com/julianstephens/emomap/internal/cli/system"
	"github.com/julianstephens/emomap/internal/config"
	"github.com/julianstephens/emomap/internal/constants"
	"github.com/julianstephens/emomap/internal/errors"
	"github.com/julianstephens/emomap/internal/logger"
)

type CLI struct {
	Version kong.VersionFlag
	Config  string `help:"SQLite path, .json file, ':memory:', 'keyring', or PostgreSQL connection string. PostgreSQL credentials must NOT be embedded; use the keyring, EMOMAP_DB_CONNECTION, or .pgpass." type:"string" default:"~/.config/emomap/emomap.db"`
	Env     string `help:"Optional .env file to load." type:"path"`
	Debug   bool   `help:"Log debug output to stderr."`

	Init      system.InitCmd       `cmd:"" help:"Initialize emomap storage."`
	Migrate   system.MigrateCmd    `cmd:"" help:"Run database migrations."`
	Doctor    system.DoctorCmd     `cmd:"" help:"Run health checks and diagnostics."`
	Tui       system.TuiCmd        `cmd:"" help:"Launch the interactive survey and map." default:"1"`
	Serve     system.ServeCmd      `cmd:"" help:"Serve the emotion map over HTTP (read-only)."`
	Survey    surveys.SurveyCmd    `cmd:"" help:"Answer the survey from the command line."`
	List      surveys.ListCmd      `cmd:"" help:"List stored submissions."`
	Aggregate surveys.AggregateCmd `cmd:"" help:"Show responses grouped by location."`
	Map       surveys.MapCmd       `cmd:"" help:"Render the emotion map as text, JSON, GeoJSON, or HTML."`
	Export    surveys.ExportCmd    `cmd:"" help:"Export submissions as a JSON array."`
	Report    surveys.ReportCmd    `cmd:"" help:"Print a summary report."`
	Clear     surveys.ClearCmd     `cmd:"" help:"Delete every stored submission."`
	Geocode   surveys.GeocodeCmd   `cmd:"" help:"Look up coordinates for a place."`
	Backup    struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage store backups."`
	Keyring  system.KeyringCmd  `cmd:"" help:"Manage the PostgreSQL connection string in the OS keyring."`
	Validate system.ValidateCmd `cmd:"" help:"Check stored submissions for conflicts."`
}

func options() []kong.Option {
	return []kong.Option{
		kong.Name(constants.AppName),
		kong.Description("Map where you feel each emotion most strongly"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	}
}

func main() {
	var c CLI
	ctx := kong.Parse(&c, options()...)
	errors.Fatal(execute(ctx, &c))
}

// execute wires configuration, logging and storage for the parsed command and
// runs it.
func execute(kctx *kong.Context, c *CLI) error {
	var envFiles []string
	if c.Env != "" {
		envFiles = append(envFiles, c.Env)
	}
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{Debug: c.Debug, ConfigDir: logDir(c.Config)}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	store, err := cli.OpenStore(c.Config, cfg.DBConnection)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	appCtx := &cli.Context{
		Store:  store,
		Config: cfg,
		Debug:  c.Debug,
	}
	return kctx.Run(appCtx)
}

// logDir keeps logs next to a file store and under the default config
// directory otherwise.
func logDir(cfgValue string) string {
	fallback, _ := cli.ExpandPath(constants.DefaultConfigPath)
	if cfgValue == ":memory:" || cfgValue == cli.KeyringConfig || filepath.Ext(cfgValue) == "" {
		return filepath.Dir(fallback)
	}
	path, err := cli.ExpandPath(cfgValue)
	if err != nil {
		return os.TempDir()
	}
	return filepath.Dir(path)
}
