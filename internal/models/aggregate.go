package models

// EmotionTotal is the summed intensity of one emotion within an aggregate group
type EmotionTotal struct {
	EmotionID string `json:"emotionId"`
	Total     int    `json:"total"`
}

// AggregatedData is the derived per-location summary. Emotions are kept in
// first-seen order.
type AggregatedData struct {
	Location       string         `json:"location"`
	Coordinates    Coordinates    `json:"coordinates"`
	Emotions       []EmotionTotal `json:"emotions"`
	TotalResponses int            `json:"totalResponses"`
}

// EmotionMap returns the emotion totals keyed by emotion id.
func (a AggregatedData) EmotionMap() map[string]int {
	m := make(map[string]int, len(a.Emotions))
	for _, e := range a.Emotions {
		m[e.EmotionID] = e.Total
	}
	return m
}

// Add accumulates one response into the group.
func (a *AggregatedData) Add(emotionID string, intensity int) {
	a.TotalResponses++
	for i := range a.Emotions {
		if a.Emotions[i].EmotionID == emotionID {
			a.Emotions[i].Total += intensity
			return
		}
	}
	a.Emotions = append(a.Emotions, EmotionTotal{EmotionID: emotionID, Total: intensity})
}
