package storage

import (
	"errors"

	"github.com/julianstephens/emomap/internal/models"
)

var ErrNotLoaded = errors.New("storage not loaded")

// Provider persists the ordered sequence of completed survey submissions.
// Storage is append-only until ClearAll.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Submissions
	Save(models.SurveyData) error
	// LoadAll returns every submission in append order. A provider with
	// nothing stored returns an empty slice and no error.
	LoadAll() ([]models.SurveyData, error)
	// ClearAll irreversibly removes every submission. Callers confirm first.
	ClearAll() error

	// Utils
	GetConfigPath() string
}

// GeocodeCache is implemented by providers that can remember geocoding results.
type GeocodeCache interface {
	GetCachedPlace(query string) (models.Place, bool, error)
	PutCachedPlace(models.Place) error
}

// CopyAll appends every submission in src to dst, preserving order, and
// returns how many were copied.
func CopyAll(dst, src Provider) (int, error) {
	all, err := src.LoadAll()
	if err != nil {
		return 0, err
	}
	for i, s := range all {
		if err := dst.Save(s); err != nil {
			return i, err
		}
	}
	return len(all), nil
}
