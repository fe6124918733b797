// Package keyring keeps the PostgreSQL connection string in the OS keyring
// so it never has to appear on the command line.
package keyring

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/emomap/internal/constants"
)

var (
	ErrNotFound           = errors.New("credentials not found in keyring")
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// GetConnectionString returns the stored connection string, or ErrNotFound.
func GetConnectionString() (string, error) {
	connStr, err := keyring.Get(constants.AppName, constants.DefaultKeyringUser)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return connStr, nil
}

func SetConnectionString(connStr string) error {
	if strings.TrimSpace(connStr) == "" {
		return errors.New("connection string cannot be empty")
	}
	if err := keyring.Set(constants.AppName, constants.DefaultKeyringUser, connStr); err != nil {
		return fmt.Errorf("failed to store credentials in keyring: %w", err)
	}
	return nil
}

func DeleteConnectionString() error {
	if err := keyring.Delete(constants.AppName, constants.DefaultKeyringUser); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete credentials from keyring: %w", err)
	}
	return nil
}

// IsAvailable is a best-effort probe: a read that fails with anything other
// than "not found" means there is no usable keyring.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "availability-probe")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}

// MaskPassword hides the password of a URL or key=value connection string.
func MaskPassword(connStr string) string {
	if strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://") {
		scheme, rest, _ := strings.Cut(connStr, "://")
		if at := strings.LastIndex(rest, "@"); at != -1 {
			if user, _, hasPass := strings.Cut(rest[:at], ":"); hasPass {
				return scheme + "://" + user + ":****" + rest[at:]
			}
		}
		return connStr
	}

	if !strings.Contains(connStr, "password=") {
		return connStr
	}
	parts := strings.Fields(connStr)
	for i, p := range parts {
		if strings.HasPrefix(p, "password=") {
			parts[i] = "password=****"
		}
	}
	return strings.Join(parts, " ")
}
