// Package config reads environment settings, optionally from a .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/julianstephens/emomap/internal/constants"
)

type Config struct {
	Geocoder GeocoderConfig
	Server   ServerConfig
	// DBConnection is a PostgreSQL connection string taken from the environment.
	DBConnection string
}

type GeocoderConfig struct {
	Provider     string
	NominatimURL string
	UserAgent    string
	Email        string
	Timeout      time.Duration
	MinInterval  time.Duration
	// Cache enables storing resolved places in the database.
	Cache bool
}

type ServerConfig struct {
	Addr string
}

// Load reads .env files (missing files are ignored) and then the process
// environment. Variables already set in the environment win over .env values.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		_ = godotenv.Load()
	} else {
		for _, f := range envFiles {
			if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to load %s: %w", f, err)
			}
		}
	}

	timeout, err := getEnvAsDuration("EMOMAP_GEOCODE_TIMEOUT", constants.DefaultGeocodeTimeout)
	if err != nil {
		return nil, err
	}
	interval, err := getEnvAsDuration("EMOMAP_GEOCODE_INTERVAL", constants.NominatimMinInterval)
	if err != nil {
		return nil, err
	}
	cache, err := getEnvAsBool("EMOMAP_GEOCODE_CACHE", true)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Geocoder: GeocoderConfig{
			Provider:     strings.ToLower(getEnv("EMOMAP_GEOCODER", constants.GeocoderNominatim)),
			NominatimURL: strings.TrimRight(getEnv("EMOMAP_NOMINATIM_URL", constants.DefaultNominatimURL), "/"),
			UserAgent:    getEnv("EMOMAP_USER_AGENT", constants.DefaultUserAgent),
			Email:        getEnv("EMOMAP_NOMINATIM_EMAIL", ""),
			Timeout:      timeout,
			MinInterval:  interval,
			Cache:        cache,
		},
		Server: ServerConfig{
			Addr: getEnv("EMOMAP_SERVE_ADDR", constants.DefaultServeAddr),
		},
		DBConnection: getEnv(constants.DefaultDBConnectionEnv, ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Geocoder.Provider {
	case constants.GeocoderNominatim, constants.GeocoderStatic:
	default:
		return fmt.Errorf("EMOMAP_GEOCODER must be %q or %q, got %q", constants.GeocoderNominatim, constants.GeocoderStatic, c.Geocoder.Provider)
	}
	if c.Geocoder.Timeout <= 0 {
		return fmt.Errorf("EMOMAP_GEOCODE_TIMEOUT must be positive")
	}
	if c.Geocoder.MinInterval < 0 {
		return fmt.Errorf("EMOMAP_GEOCODE_INTERVAL cannot be negative")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
