package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/julianstephens/emomap/internal/constants"
	"github.com/julianstephens/emomap/internal/logger"
	"github.com/julianstephens/emomap/internal/models"
)

type NominatimOptions struct {
	BaseURL   string
	UserAgent string
	// Email is sent with each request as the Nominatim policy asks for bulk users.
	Email   string
	Timeout time.Duration
	// MinInterval spaces consecutive requests; the public server allows one per second.
	MinInterval time.Duration
	HTTPClient  *http.Client
}

// Nominatim is a forward-geocoding client for the OpenStreetMap Nominatim API
type Nominatim struct {
	baseURL     string
	userAgent   string
	email       string
	minInterval time.Duration
	httpClient  *http.Client

	lastRequest   time.Time
	rateLimitLock sync.Mutex

	group singleflight.Group
}

type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func NewNominatim(opts NominatimOptions) *Nominatim {
	if opts.BaseURL == "" {
		opts.BaseURL = constants.DefaultNominatimURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = constants.DefaultUserAgent
	}
	if opts.Timeout == 0 {
		opts.Timeout = constants.DefaultGeocodeTimeout
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	return &Nominatim{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		userAgent:   opts.UserAgent,
		email:       opts.Email,
		minInterval: opts.MinInterval,
		httpClient:  client,
	}
}

// waitTurn blocks until the next request slot or ctx is done.
func (c *Nominatim) waitTurn(ctx context.Context) error {
	c.rateLimitLock.Lock()
	defer c.rateLimitLock.Unlock()

	if wait := c.minInterval - time.Since(c.lastRequest); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	c.lastRequest = time.Now()
	return nil
}

// Geocode returns the best match for query. Concurrent calls for the same
// query share one request.
func (c *Nominatim) Geocode(ctx context.Context, query string) (models.Place, error) {
	key := Normalize(query)
	if key == "" {
		return models.Place{}, ErrNoResult
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		// Detached so one caller's cancellation doesn't fail the others
		return c.search(context.WithoutCancel(ctx), key)
	})

	select {
	case <-ctx.Done():
		return models.Place{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return models.Place{}, res.Err
		}
		if res.Shared {
			logger.Debug("Nominatim lookup shared", "query", key)
		}
		return res.Val.(models.Place), nil
	}
}

func (c *Nominatim) search(ctx context.Context, query string) (models.Place, error) {
	if err := c.waitTurn(ctx); err != nil {
		return models.Place{}, err
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "jsonv2")
	params.Set("limit", "1")
	if c.email != "" {
		params.Set("email", c.email)
	}
	reqURL := fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return models.Place{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	logger.Debug("Nominatim search", "query", query)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.Place{}, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return models.Place{}, fmt.Errorf("nominatim returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return models.Place{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(results) == 0 {
		return models.Place{}, ErrNoResult
	}

	return parseResult(query, results[0])
}

func parseResult(query string, r searchResult) (models.Place, error) {
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return models.Place{}, fmt.Errorf("%w: bad latitude %q", ErrNoResult, r.Lat)
	}
	lon, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return models.Place{}, fmt.Errorf("%w: bad longitude %q", ErrNoResult, r.Lon)
	}

	c := models.Coordinates{lat, lon}
	if !c.Valid() {
		return models.Place{}, fmt.Errorf("%w: coordinates out of range %v", ErrNoResult, c)
	}

	name := r.DisplayName
	if name == "" {
		name = query
	}
	return models.Place{Query: query, DisplayName: name, Coordinates: c}, nil
}
