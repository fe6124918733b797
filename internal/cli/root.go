package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/julianstephens/emomap/internal/backup"
	"github.com/julianstephens/emomap/internal/config"
	"github.com/julianstephens/emomap/internal/constants"
	"github.com/julianstephens/emomap/internal/geocode"
	"github.com/julianstephens/emomap/internal/keyring"
	"github.com/julianstephens/emomap/internal/logger"
	"github.com/julianstephens/emomap/internal/storage"
	"github.com/julianstephens/emomap/internal/storage/postgres"
	"github.com/julianstephens/emomap/internal/storage/sqlite"
)

// KeyringConfig selects the connection string stored in the OS keyring.
const KeyringConfig = "keyring"

type Context struct {
	Store  storage.Provider
	Config *config.Config
	Debug  bool
	// Geocoder overrides the one built from Config.
	Geocoder geocode.Geocoder
}

// GetGeocoder returns the configured geocoder, fronted by the store's place
// cache when the store has one.
func (c *Context) GetGeocoder() (geocode.Geocoder, error) {
	if c.Geocoder != nil {
		return c.Geocoder, nil
	}

	cfg := config.GeocoderConfig{Provider: constants.GeocoderStatic}
	if c.Config != nil {
		cfg = c.Config.Geocoder
	}

	var cache geocode.Cache
	if gc, ok := c.Store.(storage.GeocodeCache); ok {
		cache = gc
	}

	g, err := geocode.New(cfg, cache)
	if err != nil {
		return nil, err
	}
	c.Geocoder = g
	return g, nil
}

// LookupTimeout bounds a single geocoding request.
func (c *Context) LookupTimeout() time.Duration {
	if c.Config != nil && c.Config.Geocoder.Timeout > 0 {
		return c.Config.Geocoder.Timeout
	}
	return constants.DefaultGeocodeTimeout
}

// PerformAutomaticBackup creates a backup of file-backed stores and only
// logs failures.
func (c *Context) PerformAutomaticBackup() {
	if !IsFileStore(c.Store) {
		return
	}
	if _, err := os.Stat(c.Store.GetConfigPath()); err != nil {
		return
	}

	mgr := backup.NewManager(c.Store.GetConfigPath())
	if _, err := mgr.Create(); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// LoadOrInit loads the store. A file store that does not exist yet is
// created, so a first run starts from an empty collection instead of failing.
func (c *Context) LoadOrInit() error {
	if IsFileStore(c.Store) {
		if _, err := os.Stat(c.Store.GetConfigPath()); errors.Is(err, os.ErrNotExist) {
			logger.Info("Creating store on first run", "path", c.Store.GetConfigPath())
			return c.Store.Init()
		}
	}
	return c.Store.Load()
}

// IsFileStore reports whether the store lives in a single local file.
func IsFileStore(p storage.Provider) bool {
	switch p.(type) {
	case *sqlite.Store, *storage.JSONStore:
		return true
	}
	return false
}

// OpenStore picks a provider for the --config value. envConn, when set,
// replaces the default SQLite path.
func OpenStore(cfgValue, envConn string) (storage.Provider, error) {
	if envConn != "" && (cfgValue == "" || cfgValue == constants.DefaultConfigPath) {
		cfgValue = envConn
	}

	switch {
	case cfgValue == KeyringConfig:
		connStr, err := keyring.GetConnectionString()
		if err != nil {
			if errors.Is(err, keyring.ErrNotFound) {
				return nil, fmt.Errorf("no connection string in keyring, run '%s keyring set' first", constants.AppName)
			}
			return nil, err
		}
		return postgres.New(connStr), nil

	case postgres.IsConnString(cfgValue):
		if err := postgres.ValidateConnString(cfgValue); err != nil {
			if errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return nil, fmt.Errorf("PostgreSQL connection strings with embedded credentials are not allowed; use '%s keyring set', %s, or .pgpass", constants.AppName, constants.DefaultDBConnectionEnv)
			}
			return nil, err
		}
		return postgres.New(cfgValue), nil

	case cfgValue == ":memory:":
		return storage.NewMemoryStore(), nil
	}

	path, err := ExpandPath(cfgValue)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return storage.NewJSONStore(path), nil
	}
	return sqlite.NewStore(path), nil
}

// ExpandPath resolves a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "" {
		path = constants.DefaultConfigPath
	}
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
