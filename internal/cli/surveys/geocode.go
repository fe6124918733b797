package surveys

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/emomap/internal/cli"
	"github.com/julianstephens/emomap/internal/geocode"
)

type GeocodeCmd struct {
	Query []string `arg:"" help:"Place to look up, e.g. \"Central Park, New York\"."`
	JSON  bool     `help:"Print the result as JSON."`
}

func (c *GeocodeCmd) Run(ctx *cli.Context) error {
	// The place cache lives in the store; geocoding still works without it.
	if err := ctx.Store.Load(); err != nil {
		ctx.Store = nil
	}
	g, err := ctx.GetGeocoder()
	if err != nil {
		return err
	}

	query := strings.Join(c.Query, " ")
	lookupCtx, cancel := context.WithTimeout(context.Background(), ctx.LookupTimeout())
	defer cancel()

	place, err := g.Geocode(lookupCtx, query)
	if err != nil {
		if errors.Is(err, geocode.ErrNoResult) {
			return fmt.Errorf("no match for %q", query)
		}
		return fmt.Errorf("lookup failed: %w", err)
	}

	if c.JSON {
		return writeJSON("", place)
	}
	fmt.Printf("📍 %s\n   %s\n", place.DisplayName, place.Coordinates)
	return nil
}
