package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang/geo/s2"
)

// Coordinates is a (latitude, longitude) pair in degrees. It serializes as a
// two-element JSON array.
type Coordinates [2]float64

func (c Coordinates) Lat() float64 { return c[0] }
func (c Coordinates) Lon() float64 { return c[1] }

// LatLng converts to an s2 LatLng.
func (c Coordinates) LatLng() s2.LatLng {
	return s2.LatLngFromDegrees(c[0], c[1])
}

// Valid reports whether the pair is a real position on the globe.
func (c Coordinates) Valid() bool {
	return c.LatLng().IsValid()
}

func (c Coordinates) String() string {
	return fmt.Sprintf("%.4f, %.4f", c[0], c[1])
}

// EmotionResponse is one answer within a submission
type EmotionResponse struct {
	EmotionID   string      `json:"emotionId"`
	Location    string      `json:"location"`
	Coordinates Coordinates `json:"coordinates"`
	Intensity   int         `json:"intensity"`
	Timestamp   int64       `json:"timestamp"` // Unix milliseconds
}

// CreatedAt returns the response timestamp as a time.Time.
func (r EmotionResponse) CreatedAt() time.Time {
	return time.UnixMilli(r.Timestamp)
}

func (r EmotionResponse) Validate() error {
	if _, ok := LookupEmotion(r.EmotionID); !ok {
		return fmt.Errorf("unknown emotion: %q", r.EmotionID)
	}
	if strings.TrimSpace(r.Location) == "" {
		return fmt.Errorf("location for %s cannot be empty", r.EmotionID)
	}
	if !r.Coordinates.Valid() {
		return fmt.Errorf("invalid coordinates for %s: %v", r.EmotionID, r.Coordinates)
	}
	if r.Intensity < 1 || r.Intensity > 10 {
		return fmt.Errorf("intensity for %s must be between 1 and 10, got %d", r.EmotionID, r.Intensity)
	}
	return nil
}

// SurveyData is one completed submission
type SurveyData struct {
	ID          string            `json:"id"`
	Responses   []EmotionResponse `json:"responses"`
	CompletedAt int64             `json:"completedAt"` // Unix milliseconds
}

// CompletedTime returns the completion timestamp as a time.Time.
func (s SurveyData) CompletedTime() time.Time {
	return time.UnixMilli(s.CompletedAt)
}

// Validate checks that the submission answers every catalog emotion exactly once.
func (s SurveyData) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("survey id cannot be empty")
	}

	seen := make(map[string]bool, len(s.Responses))
	for _, r := range s.Responses {
		if err := r.Validate(); err != nil {
			return err
		}
		if seen[r.EmotionID] {
			return fmt.Errorf("duplicate response for emotion %q", r.EmotionID)
		}
		seen[r.EmotionID] = true
	}

	for _, e := range emotions {
		if !seen[e.ID] {
			return fmt.Errorf("missing response for emotion %q", e.ID)
		}
	}
	return nil
}
