package aggregate

import "github.com/julianstephens/emomap/internal/models"

// EmotionStats summarizes one emotion across every submission.
type EmotionStats struct {
	Emotion   models.Emotion `json:"emotion"`
	Responses int            `json:"responses"`
	Sum       int            `json:"sum"`
	Locations int            `json:"locations"`
}

// Average is the mean intensity, 0 when the emotion has no responses.
func (s EmotionStats) Average() float64 {
	if s.Responses == 0 {
		return 0
	}
	return float64(s.Sum) / float64(s.Responses)
}

// Summary holds totals across all stored submissions.
type Summary struct {
	Submissions int            `json:"submissions"`
	Responses   int            `json:"responses"`
	Locations   int            `json:"locations"`
	Emotions    []EmotionStats `json:"emotions"`
}

// Summarize computes catalog-ordered per-emotion statistics. Emotion ids not
// in the catalog are appended after it in first-seen order.
func Summarize(surveys []models.SurveyData) Summary {
	sum := Summary{Submissions: len(surveys)}

	index := make(map[string]int)
	for _, e := range models.Catalog() {
		index[e.ID] = len(sum.Emotions)
		sum.Emotions = append(sum.Emotions, EmotionStats{Emotion: e})
	}

	places := make(map[string]map[string]bool)
	for _, s := range surveys {
		for _, r := range s.Responses {
			i, ok := index[r.EmotionID]
			if !ok {
				i = len(sum.Emotions)
				index[r.EmotionID] = i
				sum.Emotions = append(sum.Emotions, EmotionStats{Emotion: models.EmotionOrUnknown(r.EmotionID)})
			}
			sum.Emotions[i].Responses++
			sum.Emotions[i].Sum += r.Intensity
			sum.Responses++

			key := CoordinateKey(r.Coordinates)
			if places[r.EmotionID] == nil {
				places[r.EmotionID] = make(map[string]bool)
			}
			places[r.EmotionID][key] = true
		}
	}

	for i, e := range sum.Emotions {
		sum.Emotions[i].Locations = len(places[e.Emotion.ID])
	}
	sum.Locations = len(Aggregate(surveys))
	return sum
}
