// Package survey drives the one-question-per-emotion survey flow.
package survey

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/emomap/internal/constants"
	"github.com/julianstephens/emomap/internal/logger"
	"github.com/julianstephens/emomap/internal/models"
	"github.com/julianstephens/emomap/internal/storage"
)

var (
	ErrCannotProceed  = errors.New("a location with resolved coordinates is required before continuing")
	ErrLookupInFlight = errors.New("a location lookup is already in progress for this question")
	ErrEmptyLocation  = errors.New("enter a location to look up")
	ErrCompleted      = errors.New("survey already completed")
)

// Field names the closed set of values an answer carries.
type Field int

const (
	FieldLocation Field = iota
	FieldCoordinates
	FieldIntensity
)

func (f Field) String() string {
	switch f {
	case FieldLocation:
		return "location"
	case FieldCoordinates:
		return "coordinates"
	case FieldIntensity:
		return "intensity"
	default:
		return fmt.Sprintf("Field(%d)", int(f))
	}
}

// Update changes exactly one field of the current answer.
type Update struct {
	Field       Field
	Location    string
	Coordinates models.Coordinates
	Intensity   int
}

func SetLocation(text string) Update { return Update{Field: FieldLocation, Location: text} }

func SetCoordinates(c models.Coordinates) Update {
	return Update{Field: FieldCoordinates, Coordinates: c}
}

func SetIntensity(n int) Update { return Update{Field: FieldIntensity, Intensity: n} }

// Answer is the in-progress response for one emotion.
type Answer struct {
	EmotionID      string
	Location       string
	Coordinates    models.Coordinates
	HasCoordinates bool
	Intensity      int
	Timestamp      int64

	// resolvedFrom is the location text the coordinates were looked up for
	resolvedFrom string
}

// LookupToken identifies one geocoding request started by BeginLookup.
type LookupToken struct {
	Step  int
	Query string
	seq   uint64
}

type Option func(*Controller)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithIDGenerator overrides the submission id source.
func WithIDGenerator(gen func() string) Option {
	return func(c *Controller) { c.newID = gen }
}

// Controller holds one answer per catalog emotion and the current step.
// It is not safe for concurrent use; the TUI drives it from its update loop.
type Controller struct {
	store   storage.Provider
	now     func() time.Time
	newID   func() string
	emotion []models.Emotion
	answers []Answer
	step    int
	done    bool
	saved   models.SurveyData

	pending map[int]uint64
}

// lookupSeq numbers lookups across every controller, so a token from an
// abandoned survey never matches a lookup of its replacement.
var lookupSeq atomic.Uint64

func New(store storage.Provider, opts ...Option) *Controller {
	c := &Controller{
		store:   store,
		now:     time.Now,
		newID:   func() string { return constants.SurveyIDPrefix + uuid.NewString() },
		emotion: models.Catalog(),
		pending: make(map[int]uint64),
	}
	for _, opt := range opts {
		opt(c)
	}

	started := c.now().UnixMilli()
	c.answers = make([]Answer, len(c.emotion))
	for i, e := range c.emotion {
		c.answers[i] = Answer{
			EmotionID: e.ID,
			Intensity: constants.DefaultIntensity,
			Timestamp: started,
		}
	}
	return c
}

func (c *Controller) Step() int  { return c.step }
func (c *Controller) Total() int { return len(c.emotion) }
func (c *Controller) Done() bool { return c.done }
func (c *Controller) IsLast() bool {
	return c.step == len(c.emotion)-1
}

// Emotion is the emotion asked about on the current step.
func (c *Controller) Emotion() models.Emotion { return c.emotion[c.step] }

// Current returns a copy of the current step's answer.
func (c *Controller) Current() Answer { return c.answers[c.step] }

// Answers returns a copy of every answer in catalog order.
func (c *Controller) Answers() []Answer {
	return append([]Answer(nil), c.answers...)
}

// Submission is the persisted survey once Done reports true.
func (c *Controller) Submission() (models.SurveyData, bool) {
	return c.saved, c.done
}

// Progress returns the 1-based question number, the total and the rounded
// completion percentage.
func (c *Controller) Progress() (current, total, percent int) {
	total = len(c.emotion)
	current = c.step + 1
	percent = (current*100 + total/2) / total
	return current, total, percent
}

// Apply performs one tagged update on the current answer.
func (c *Controller) Apply(u Update) error {
	if c.done {
		return ErrCompleted
	}
	a := &c.answers[c.step]

	switch u.Field {
	case FieldLocation:
		a.Location = u.Location
		if a.HasCoordinates && u.Location != a.resolvedFrom {
			a.HasCoordinates = false
			a.Coordinates = models.Coordinates{}
		}
		// Any lookup started for the old text is now stale
		delete(c.pending, c.step)
	case FieldCoordinates:
		if !u.Coordinates.Valid() {
			return fmt.Errorf("invalid coordinates %v", u.Coordinates)
		}
		a.Coordinates = u.Coordinates
		a.HasCoordinates = true
		a.resolvedFrom = a.Location
	case FieldIntensity:
		a.Intensity = clampIntensity(u.Intensity)
	default:
		return fmt.Errorf("unknown field %v", u.Field)
	}
	return nil
}

func clampIntensity(n int) int {
	if n < constants.MinIntensity {
		return constants.MinIntensity
	}
	if n > constants.MaxIntensity {
		return constants.MaxIntensity
	}
	return n
}

// CanProceed reports whether the current answer has both a location and
// coordinates. Intensity always has a value.
func (c *Controller) CanProceed() bool {
	a := c.answers[c.step]
	return !c.done && strings.TrimSpace(a.Location) != "" && a.HasCoordinates
}

// Next advances one step. On the last step it saves the submission and
// returns done=true. A failed save leaves the controller on the last step.
func (c *Controller) Next() (done bool, err error) {
	if c.done {
		return true, ErrCompleted
	}
	if !c.CanProceed() {
		return false, ErrCannotProceed
	}
	delete(c.pending, c.step)

	if !c.IsLast() {
		c.step++
		return false, nil
	}

	sub := c.build()
	if err := sub.Validate(); err != nil {
		return false, fmt.Errorf("survey incomplete: %w", err)
	}
	if err := c.store.Save(sub); err != nil {
		logger.Error("Failed to save survey", "id", sub.ID, "error", err)
		return false, fmt.Errorf("failed to save survey: %w", err)
	}

	logger.Info("Survey saved", "id", sub.ID, "responses", len(sub.Responses))
	c.saved = sub
	c.done = true
	return true, nil
}

// Previous moves back one step. It returns false on the first step.
func (c *Controller) Previous() bool {
	if c.done || c.step == 0 {
		return false
	}
	delete(c.pending, c.step)
	c.step--
	return true
}

func (c *Controller) build() models.SurveyData {
	sub := models.SurveyData{
		ID:          c.newID(),
		CompletedAt: c.now().UnixMilli(),
		Responses:   make([]models.EmotionResponse, len(c.answers)),
	}
	for i, a := range c.answers {
		sub.Responses[i] = models.EmotionResponse{
			EmotionID:   a.EmotionID,
			Location:    a.Location,
			Coordinates: a.Coordinates,
			Intensity:   a.Intensity,
			Timestamp:   a.Timestamp,
		}
	}
	return sub
}

// LookupPending reports whether a lookup is outstanding for the current step.
func (c *Controller) LookupPending() bool {
	_, ok := c.pending[c.step]
	return ok
}

// BeginLookup registers a geocoding request for the current step's text.
// Only one lookup per step may be outstanding.
func (c *Controller) BeginLookup() (LookupToken, error) {
	if c.done {
		return LookupToken{}, ErrCompleted
	}
	if _, busy := c.pending[c.step]; busy {
		return LookupToken{}, ErrLookupInFlight
	}
	a := c.answers[c.step]
	if strings.TrimSpace(a.Location) == "" {
		return LookupToken{}, ErrEmptyLocation
	}

	seq := lookupSeq.Add(1)
	c.pending[c.step] = seq
	return LookupToken{Step: c.step, Query: a.Location, seq: seq}, nil
}

// ResolveLookup applies a finished lookup. It returns false when the token
// is stale because the step was edited or left since BeginLookup. A lookup
// error leaves the step without coordinates.
func (c *Controller) ResolveLookup(tok LookupToken, place models.Place, lookupErr error) bool {
	if seq, ok := c.pending[tok.Step]; !ok || seq != tok.seq {
		logger.Debug("Dropping stale lookup", "step", tok.Step, "query", tok.Query)
		return false
	}
	delete(c.pending, tok.Step)

	a := &c.answers[tok.Step]
	if a.Location != tok.Query {
		return false
	}

	if lookupErr != nil || !place.Coordinates.Valid() {
		a.HasCoordinates = false
		a.Coordinates = models.Coordinates{}
		return true
	}
	a.Coordinates = place.Coordinates
	a.HasCoordinates = true
	a.resolvedFrom = tok.Query
	return true
}

// Geocoder is the lookup dependency used by Lookup.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (models.Place, error)
}

// Lookup runs a blocking lookup for the current step.
func (c *Controller) Lookup(ctx context.Context, g Geocoder) (models.Place, error) {
	tok, err := c.BeginLookup()
	if err != nil {
		return models.Place{}, err
	}
	place, err := g.Geocode(ctx, tok.Query)
	c.ResolveLookup(tok, place, err)
	return place, err
}
