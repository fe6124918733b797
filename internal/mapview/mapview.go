// Package mapview turns persisted submissions into map markers, in either
// aggregate or individual mode.
package mapview

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang/geo/s2"

	"github.com/julianstephens/emomap/internal/aggregate"
	"github.com/julianstephens/emomap/internal/constants"
	"github.com/julianstephens/emomap/internal/logger"
	"github.com/julianstephens/emomap/internal/models"
	"github.com/julianstephens/emomap/internal/storage"
)

const (
	CaptionAggregate  = "Marker size reflects response volume"
	CaptionIndividual = "Individual emotion responses"
)

// ParseMode accepts "aggregate" or "individual". An empty string selects
// the default aggregate mode.
func ParseMode(s string) (constants.ViewMode, error) {
	switch constants.ViewMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", constants.ViewAggregate:
		return constants.ViewAggregate, nil
	case constants.ViewIndividual:
		return constants.ViewIndividual, nil
	default:
		return "", fmt.Errorf("unknown view mode %q (want %s or %s)", s, constants.ViewAggregate, constants.ViewIndividual)
	}
}

// Popup is the text shown when a marker is selected.
type Popup struct {
	Title string   `json:"title"`
	Lines []string `json:"lines"`
}

// Marker is one point on the map.
type Marker struct {
	Coordinates models.Coordinates `json:"coordinates"`
	EmotionID   string             `json:"emotionId"`
	Color       string             `json:"color"`
	Icon        string             `json:"icon"`
	Size        int                `json:"size"`
	Popup       Popup              `json:"popup"`
}

type Stats struct {
	Submissions int `json:"submissions"`
	Locations   int `json:"locations"`
}

type Legend struct {
	Emotions []models.Emotion `json:"emotions"`
	Caption  string           `json:"caption"`
}

// Bounds is the smallest lat/lon box holding every marker. When the box
// crosses the antimeridian West is greater than East.
type Bounds struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// Corners returns the south-west and north-east corners for a map fit. A box
// crossing the antimeridian gets an eastern longitude past 180 so the fit
// spans the short way around.
func (b Bounds) Corners() [][2]float64 {
	east := b.East
	if b.West > east {
		east += 360
	}
	return [][2]float64{{b.South, b.West}, {b.North, east}}
}

type Viewport struct {
	Center models.Coordinates `json:"center"`
	Zoom   int                `json:"zoom"`
	Bounds *Bounds            `json:"bounds,omitempty"`
}

type Option func(*Controller)

// WithLocation sets the time zone used for individual marker dates.
func WithLocation(loc *time.Location) Option {
	return func(c *Controller) { c.loc = loc }
}

// Controller caches the last read of the store. Call Refresh after the
// store changes.
type Controller struct {
	store   storage.Provider
	mode    constants.ViewMode
	loc     *time.Location
	surveys []models.SurveyData
	groups  []models.AggregatedData
}

func New(store storage.Provider, opts ...Option) *Controller {
	c := &Controller{
		store: store,
		mode:  constants.ViewAggregate,
		loc:   time.Local,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Refresh rereads every submission. On failure the view is emptied and the
// error is returned for display.
func (c *Controller) Refresh() error {
	surveys, err := c.store.LoadAll()
	if err != nil {
		logger.Warn("Failed to read survey data, showing empty map", "error", err)
		c.surveys = nil
		c.groups = []models.AggregatedData{}
		return err
	}
	c.surveys = surveys
	c.groups = aggregate.Aggregate(surveys)
	return nil
}

func (c *Controller) Mode() constants.ViewMode { return c.mode }

func (c *Controller) SetMode(m constants.ViewMode) error {
	mode, err := ParseMode(string(m))
	if err != nil {
		return err
	}
	c.mode = mode
	return nil
}

// Toggle switches to the other mode and returns it.
func (c *Controller) Toggle() constants.ViewMode {
	if c.mode == constants.ViewAggregate {
		c.mode = constants.ViewIndividual
	} else {
		c.mode = constants.ViewAggregate
	}
	return c.mode
}

func (c *Controller) Surveys() []models.SurveyData { return c.surveys }

func (c *Controller) Aggregates() []models.AggregatedData { return c.groups }

func (c *Controller) Stats() Stats {
	return Stats{Submissions: len(c.surveys), Locations: len(c.groups)}
}

func (c *Controller) Legend() Legend {
	return LegendFor(c.mode)
}

// LegendFor lists the catalog with the caption for mode.
func LegendFor(mode constants.ViewMode) Legend {
	caption := CaptionAggregate
	if mode == constants.ViewIndividual {
		caption = CaptionIndividual
	}
	return Legend{Emotions: models.Catalog(), Caption: caption}
}

// Markers returns the markers for the current mode.
func (c *Controller) Markers() []Marker {
	if c.mode == constants.ViewIndividual {
		return c.IndividualMarkers()
	}
	return c.AggregateMarkers()
}

// AggregateMarkers returns one marker per coordinate group, styled after the
// group's dominant emotion.
func (c *Controller) AggregateMarkers() []Marker {
	markers := make([]Marker, 0, len(c.groups))
	for _, g := range c.groups {
		top, ok := aggregate.Dominant(g)
		if !ok {
			continue
		}
		e := models.EmotionOrUnknown(top.EmotionID)

		lines := []string{fmt.Sprintf("%d total responses", g.TotalResponses)}
		for _, et := range aggregate.Ranked(g) {
			re := models.EmotionOrUnknown(et.EmotionID)
			lines = append(lines, fmt.Sprintf("%s %s: %d", re.Icon, re.Name, et.Total))
		}

		markers = append(markers, Marker{
			Coordinates: g.Coordinates,
			EmotionID:   top.EmotionID,
			Color:       e.Color,
			Icon:        e.Icon,
			Size:        aggregate.MarkerSize(top.Total, true),
			Popup:       Popup{Title: g.Location, Lines: lines},
		})
	}
	return markers
}

// IndividualMarkers returns one marker per stored response, duplicates included.
func (c *Controller) IndividualMarkers() []Marker {
	markers := []Marker{}
	for _, s := range c.surveys {
		for _, r := range s.Responses {
			e := models.EmotionOrUnknown(r.EmotionID)
			markers = append(markers, Marker{
				Coordinates: r.Coordinates,
				EmotionID:   r.EmotionID,
				Color:       e.Color,
				Icon:        e.Icon,
				Size:        aggregate.MarkerSize(r.Intensity, false),
				Popup: Popup{
					Title: r.Location,
					Lines: []string{
						fmt.Sprintf("%s %s", e.Icon, e.Name),
						fmt.Sprintf("Intensity: %d/10", r.Intensity),
						r.CreatedAt().In(c.loc).Format(constants.DateFormat),
					},
				},
			})
		}
	}
	return markers
}

// Viewport is the default world view plus the bounds of the current markers.
func (c *Controller) Viewport() Viewport {
	vp := Viewport{
		Center: models.Coordinates{constants.DefaultCenterLat, constants.DefaultCenterLon},
		Zoom:   constants.DefaultZoom,
	}
	if b, ok := BoundsOf(c.Markers()); ok {
		vp.Bounds = &b
	}
	return vp
}

// BoundsOf returns the bounding box of the markers; ok is false when there
// are none.
func BoundsOf(markers []Marker) (Bounds, bool) {
	rect := s2.EmptyRect()
	for _, m := range markers {
		rect = rect.AddPoint(m.Coordinates.LatLng())
	}
	if rect.IsEmpty() {
		return Bounds{}, false
	}
	lo, hi := rect.Lo(), rect.Hi()
	return Bounds{
		South: lo.Lat.Degrees(),
		West:  lo.Lng.Degrees(),
		North: hi.Lat.Degrees(),
		East:  hi.Lng.Degrees(),
	}, true
}

// ClearAll deletes every stored submission when confirm returns true. It
// reports whether anything was cleared.
func (c *Controller) ClearAll(confirm func() bool) (bool, error) {
	if confirm == nil || !confirm() {
		return false, nil
	}
	if err := c.store.ClearAll(); err != nil {
		return false, fmt.Errorf("failed to clear survey data: %w", err)
	}
	logger.Info("Cleared all survey data", "store", c.store.GetConfigPath())
	c.surveys = nil
	c.groups = []models.AggregatedData{}
	return true, nil
}
