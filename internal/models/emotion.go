package models

// Emotion is a static catalog entry shown as one survey question
type Emotion struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

var emotions = []Emotion{
	{ID: "joy", Name: "Joy", Color: "#FFD700", Icon: "😊"},
	{ID: "love", Name: "Love", Color: "#FF69B4", Icon: "❤️"},
	{ID: "excitement", Name: "Excitement", Color: "#FF4500", Icon: "🎉"},
	{ID: "peace", Name: "Peace", Color: "#98FB98", Icon: "☮️"},
	{ID: "hope", Name: "Hope", Color: "#87CEEB", Icon: "🌟"},
	{ID: "sadness", Name: "Sadness", Color: "#4169E1", Icon: "😢"},
	{ID: "anger", Name: "Anger", Color: "#DC143C", Icon: "😠"},
	{ID: "fear", Name: "Fear", Color: "#800080", Icon: "😰"},
	{ID: "anxiety", Name: "Anxiety", Color: "#A0522D", Icon: "😟"},
	{ID: "frustration", Name: "Frustration", Color: "#B22222", Icon: "😤"},
	{ID: "loneliness", Name: "Loneliness", Color: "#2F4F4F", Icon: "😔"},
	{ID: "nostalgia", Name: "Nostalgia", Color: "#DDA0DD", Icon: "🌅"},
}

// UnknownEmotion is rendered for responses whose emotion id is not in the catalog.
var UnknownEmotion = Emotion{ID: "", Name: "Unknown", Color: "#666", Icon: "?"}

// Catalog returns the emotions in survey order. The returned slice is a copy.
func Catalog() []Emotion {
	out := make([]Emotion, len(emotions))
	copy(out, emotions)
	return out
}

// LookupEmotion finds a catalog entry by id.
func LookupEmotion(id string) (Emotion, bool) {
	for _, e := range emotions {
		if e.ID == id {
			return e, true
		}
	}
	return Emotion{}, false
}

// EmotionOrUnknown is LookupEmotion with a display fallback.
func EmotionOrUnknown(id string) Emotion {
	if e, ok := LookupEmotion(id); ok {
		return e
	}
	u := UnknownEmotion
	u.ID = id
	return u
}
