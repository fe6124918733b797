// Package aggregate folds survey submissions into per-location emotion totals.
package aggregate

import (
	"sort"
	"strconv"

	"github.com/julianstephens/emomap/internal/constants"
	"github.com/julianstephens/emomap/internal/models"
)

// CoordinateKey identifies a location group. Two responses share a group only
// when their coordinates are bit-for-bit equal; -0 and 0 compare equal.
func CoordinateKey(c models.Coordinates) string {
	return formatCoord(c.Lat()) + "," + formatCoord(c.Lon())
}

func formatCoord(v float64) string {
	if v == 0 {
		v = 0 // folds -0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Aggregate groups every response of every submission by exact coordinates.
// Groups come out in first-seen order and keep the first-seen location label.
func Aggregate(surveys []models.SurveyData) []models.AggregatedData {
	groups := []models.AggregatedData{}
	index := make(map[string]int)

	for _, s := range surveys {
		for _, r := range s.Responses {
			key := CoordinateKey(r.Coordinates)
			i, ok := index[key]
			if !ok {
				i = len(groups)
				index[key] = i
				groups = append(groups, models.AggregatedData{
					Location:    r.Location,
					Coordinates: r.Coordinates,
				})
			}
			groups[i].Add(r.EmotionID, r.Intensity)
		}
	}
	return groups
}

// Dominant returns the emotion with the largest summed intensity. Ties go to
// the emotion seen first. ok is false for an empty group.
func Dominant(a models.AggregatedData) (models.EmotionTotal, bool) {
	if len(a.Emotions) == 0 {
		return models.EmotionTotal{}, false
	}
	best := a.Emotions[0]
	for _, e := range a.Emotions[1:] {
		if e.Total > best.Total {
			best = e
		}
	}
	return best, true
}

// Ranked returns the group's emotions by descending total, ties in
// first-seen order.
func Ranked(a models.AggregatedData) []models.EmotionTotal {
	out := append([]models.EmotionTotal(nil), a.Emotions...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total > out[j].Total
	})
	return out
}

// MarkerSize scales an aggregate marker by its dominant total, clamped to
// [20, 50]. Individual markers have a fixed size.
func MarkerSize(value int, aggregate bool) int {
	if !aggregate {
		return constants.IndividualMarker
	}
	size := value * constants.AggregateMarkerStep
	if size < constants.AggregateMarkerMin {
		return constants.AggregateMarkerMin
	}
	if size > constants.AggregateMarkerMax {
		return constants.AggregateMarkerMax
	}
	return size
}
