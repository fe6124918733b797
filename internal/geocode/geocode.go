// Package geocode turns free-text locations into coordinates.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/julianstephens/emomap/internal/config"
	"github.com/julianstephens/emomap/internal/constants"
	"github.com/julianstephens/emomap/internal/logger"
	"github.com/julianstephens/emomap/internal/models"
)

// ErrNoResult is returned when a query resolves to nothing usable.
var ErrNoResult = errors.New("no result")

// Geocoder resolves a free-text query. Any error means no coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (models.Place, error)
}

// Cache stores resolved places keyed by normalized query.
type Cache interface {
	GetCachedPlace(query string) (models.Place, bool, error)
	PutCachedPlace(models.Place) error
}

// Normalize folds case and whitespace so equivalent queries share a cache
// entry and an in-flight lookup.
func Normalize(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}

// ParseLiteral accepts "lat, lon" or "lat lon" in decimal degrees.
func ParseLiteral(query string) (models.Coordinates, bool) {
	fields := strings.FieldsFunc(query, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) != 2 {
		return models.Coordinates{}, false
	}
	lat, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return models.Coordinates{}, false
	}
	lon, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return models.Coordinates{}, false
	}
	c := models.Coordinates{lat, lon}
	if !c.Valid() {
		return models.Coordinates{}, false
	}
	return c, true
}

// Resolver fronts a Geocoder with coordinate literals and an optional cache.
type Resolver struct {
	next  Geocoder
	cache Cache
}

func NewResolver(next Geocoder, cache Cache) *Resolver {
	return &Resolver{next: next, cache: cache}
}

func (r *Resolver) Geocode(ctx context.Context, query string) (models.Place, error) {
	key := Normalize(query)
	if key == "" {
		return models.Place{}, ErrNoResult
	}

	if c, ok := ParseLiteral(key); ok {
		return models.Place{Query: key, DisplayName: c.String(), Coordinates: c}, nil
	}

	if r.cache != nil {
		p, found, err := r.cache.GetCachedPlace(key)
		if err != nil {
			logger.Warn("Geocode cache read failed", "query", key, "error", err)
		} else if found {
			logger.Debug("Geocode cache hit", "query", key)
			return p, nil
		}
	}

	p, err := r.next.Geocode(ctx, key)
	if err != nil {
		return models.Place{}, err
	}
	p.Query = key

	if r.cache != nil {
		if err := r.cache.PutCachedPlace(p); err != nil {
			logger.Warn("Geocode cache write failed", "query", key, "error", err)
		}
	}
	return p, nil
}

// New builds the configured geocoder. cache may be nil.
func New(cfg config.GeocoderConfig, cache Cache) (Geocoder, error) {
	var next Geocoder
	switch cfg.Provider {
	case constants.GeocoderNominatim, "":
		next = NewNominatim(NominatimOptions{
			BaseURL:     cfg.NominatimURL,
			UserAgent:   cfg.UserAgent,
			Email:       cfg.Email,
			Timeout:     cfg.Timeout,
			MinInterval: cfg.MinInterval,
		})
	case constants.GeocoderStatic:
		next = NewStatic()
	default:
		return nil, fmt.Errorf("unknown geocoder %q", cfg.Provider)
	}

	if !cfg.Cache {
		cache = nil
	}
	return NewResolver(next, cache), nil
}
