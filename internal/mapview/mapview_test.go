package mapview

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/julianstephens/emomap/internal/constants"
	"github.com/julianstephens/emomap/internal/models"
	"github.com/julianstephens/emomap/internal/storage"
)

var (
	paris = models.Coordinates{48.8566, 2.3522}
	tokyo = models.Coordinates{35.6762, 139.6503}
)

// June 10 2024 12:00 UTC
const ts = int64(1718020800000)

func seededStore(t *testing.T, surveys ...models.SurveyData) *storage.MemoryStore {
	t.Helper()
	store := storage.NewMemoryStore()
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}
	for _, s := range surveys {
		if err := store.Save(s); err != nil {
			t.Fatal(err)
		}
	}
	return store
}

func response(emotion, location string, c models.Coordinates, intensity int) models.EmotionResponse {
	return models.EmotionResponse{EmotionID: emotion, Location: location, Coordinates: c, Intensity: intensity, Timestamp: ts}
}

func sample() []models.SurveyData {
	return []models.SurveyData{
		{ID: "survey_a", CompletedAt: ts, Responses: []models.EmotionResponse{
			response("joy", "Paris", paris, 3),
			response("sadness", "Paris", paris, 4),
		}},
		{ID: "survey_b", CompletedAt: ts, Responses: []models.EmotionResponse{
			response("joy", "Paris, France", paris, 2),
			response("fear", "Tokyo", tokyo, 30),
		}},
	}
}

func newController(t *testing.T) *Controller {
	t.Helper()
	c := New(seededStore(t, sample()...), WithLocation(time.UTC))
	if err := c.Refresh(); err != nil {
		t.Fatal(err)
	}
	return c
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    constants.ViewMode
		wantErr bool
	}{
		{"", constants.ViewAggregate, false},
		{"aggregate", constants.ViewAggregate, false},
		{" Individual ", constants.ViewIndividual, false},
		{"heatmap", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseMode(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestModeToggle(t *testing.T) {
	c := New(storage.NewMemoryStore())
	if c.Mode() != constants.ViewAggregate {
		t.Fatalf("default mode = %s, want aggregate", c.Mode())
	}
	if c.Toggle() != constants.ViewIndividual || c.Toggle() != constants.ViewAggregate {
		t.Error("Toggle should alternate between the two modes")
	}
	if err := c.SetMode("bogus"); err == nil {
		t.Error("SetMode should reject unknown modes")
	}
	if c.Legend().Caption != CaptionAggregate {
		t.Errorf("caption = %q", c.Legend().Caption)
	}
	_ = c.SetMode(constants.ViewIndividual)
	if c.Legend().Caption != CaptionIndividual {
		t.Errorf("caption = %q", c.Legend().Caption)
	}
	if len(c.Legend().Emotions) != 12 {
		t.Errorf("legend has %d emotions", len(c.Legend().Emotions))
	}
}

func TestAggregateMarkers(t *testing.T) {
	c := newController(t)

	if got := c.Stats(); got != (Stats{Submissions: 2, Locations: 2}) {
		t.Errorf("Stats() = %+v", got)
	}

	want := []Marker{
		{
			Coordinates: paris,
			EmotionID:   "joy",
			Color:       "#FFD700",
			Icon:        "😊",
			Size:        20,
			Popup: Popup{Title: "Paris", Lines: []string{
				"3 total responses",
				"😊 Joy: 5",
				"😢 Sadness: 4",
			}},
		},
		{
			Coordinates: tokyo,
			EmotionID:   "fear",
			Color:       "#800080",
			Icon:        "😰",
			Size:        50,
			Popup: Popup{Title: "Tokyo", Lines: []string{
				"1 total responses",
				"😰 Fear: 30",
			}},
		},
	}
	if diff := cmp.Diff(want, c.Markers()); diff != "" {
		t.Errorf("aggregate markers mismatch (-want +got):\n%s", diff)
	}
}

func TestIndividualMarkers(t *testing.T) {
	c := newController(t)
	c.Toggle()

	markers := c.Markers()
	if len(markers) != 4 {
		t.Fatalf("got %d individual markers, want 4", len(markers))
	}
	first := markers[0]
	if first.Size != constants.IndividualMarker {
		t.Errorf("individual size = %d", first.Size)
	}
	wantLines := []string{"😊 Joy", "Intensity: 3/10", "2024-06-10"}
	if diff := cmp.Diff(wantLines, first.Popup.Lines); diff != "" {
		t.Errorf("popup mismatch (-want +got):\n%s", diff)
	}
	// Same coordinates, separate markers
	if markers[0].Coordinates != markers[2].Coordinates {
		t.Error("individual mode should not deduplicate")
	}
}

func TestUnknownEmotionFallback(t *testing.T) {
	store := seededStore(t, models.SurveyData{ID: "x", Responses: []models.EmotionResponse{
		response("boredom", "Nowhere", models.Coordinates{1, 1}, 6),
	}})
	c := New(store)
	_ = c.Refresh()

	m := c.Markers()[0]
	if m.Icon != "?" || m.Color != "#666" {
		t.Errorf("unknown emotion marker = %+v", m)
	}
}

func TestRefreshFailureDegradesToEmpty(t *testing.T) {
	store := seededStore(t, sample()...)
	c := New(store)
	_ = c.Refresh()

	store.LoadErr = errors.New("corrupt")
	if err := c.Refresh(); err == nil {
		t.Fatal("Refresh should report the read error")
	}
	if len(c.Markers()) != 0 || c.Stats() != (Stats{}) {
		t.Error("view should be empty after a failed read")
	}
}

func TestViewport(t *testing.T) {
	empty := New(seededStore(t))
	_ = empty.Refresh()
	vp := empty.Viewport()
	if vp.Center != (models.Coordinates{40.7128, -74.006}) || vp.Zoom != 2 || vp.Bounds != nil {
		t.Errorf("empty viewport = %+v", vp)
	}

	vp = newController(t).Viewport()
	if vp.Bounds == nil {
		t.Fatal("expected bounds")
	}
	near := func(a, b float64) bool { return math.Abs(a-b) < 1e-9 }
	b := *vp.Bounds
	if !near(b.South, 35.6762) || !near(b.North, 48.8566) || !near(b.West, 2.3522) || !near(b.East, 139.6503) {
		t.Errorf("bounds = %+v", b)
	}
}

func TestBoundsAcrossAntimeridian(t *testing.T) {
	honolulu := models.Coordinates{21.3069, -157.8583}
	store := seededStore(t, models.SurveyData{ID: "x", Responses: []models.EmotionResponse{
		response("joy", "Tokyo", tokyo, 5),
		response("hope", "Honolulu", honolulu, 5),
	}})
	c := New(store)
	if err := c.Refresh(); err != nil {
		t.Fatal(err)
	}

	vp := c.Viewport()
	if vp.Bounds == nil {
		t.Fatal("expected bounds")
	}
	b := *vp.Bounds
	near := func(a, b float64) bool { return math.Abs(a-b) < 1e-9 }
	if !near(b.West, 139.6503) || !near(b.East, -157.8583) {
		t.Fatalf("bounds = %+v, want the short way across the antimeridian", b)
	}

	corners := b.Corners()
	if !near(corners[0][1], 139.6503) || !near(corners[1][1], 202.1417) {
		t.Errorf("corners = %v, want east unwrapped past 180", corners)
	}
	if fit := c.Page().Fit; len(fit) != 2 || !near(fit[1][1], 202.1417) {
		t.Errorf("page fit = %v", fit)
	}

	plain := Bounds{South: 35, West: 2, North: 48, East: 139}
	if got := plain.Corners(); got[1][1] != 139 {
		t.Errorf("corners without crossing = %v", got)
	}
}

func TestClearAll(t *testing.T) {
	store := seededStore(t, sample()...)
	c := New(store)
	_ = c.Refresh()

	cleared, err := c.ClearAll(func() bool { return false })
	if cleared || err != nil {
		t.Fatalf("declined ClearAll = %v, %v", cleared, err)
	}
	if all, _ := store.LoadAll(); len(all) != 2 {
		t.Error("declined confirmation must not clear data")
	}
	if cleared, _ := c.ClearAll(nil); cleared {
		t.Error("nil confirmation must not clear data")
	}

	cleared, err = c.ClearAll(func() bool { return true })
	if !cleared || err != nil {
		t.Fatalf("ClearAll = %v, %v", cleared, err)
	}
	if all, _ := store.LoadAll(); len(all) != 0 {
		t.Errorf("store still holds %d surveys", len(all))
	}
	if len(c.Markers()) != 0 {
		t.Error("view should be empty after clearing")
	}
}

func TestGeoJSON(t *testing.T) {
	data, err := GeoJSON(newController(t).AggregateMarkers())
	if err != nil {
		t.Fatal(err)
	}

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Type        string    `json:"type"`
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	if err := json.Unmarshal(data, &fc); err != nil {
		t.Fatalf("invalid geojson: %v", err)
	}
	if fc.Type != "FeatureCollection" || len(fc.Features) != 2 {
		t.Fatalf("unexpected collection %s with %d features", fc.Type, len(fc.Features))
	}
	f := fc.Features[0]
	if f.Geometry.Type != "Point" || f.Geometry.Coordinates[0] != paris.Lon() || f.Geometry.Coordinates[1] != paris.Lat() {
		t.Errorf("geometry = %+v", f.Geometry)
	}
	if f.Properties["emotionId"] != "joy" || f.Properties["location"] != "Paris" {
		t.Errorf("properties = %v", f.Properties)
	}
}

func TestRenderHTML(t *testing.T) {
	store := seededStore(t, models.SurveyData{ID: "x", Responses: []models.EmotionResponse{
		response("joy", "</script><b>", paris, 5),
	}})
	c := New(store)
	_ = c.Refresh()

	var buf bytes.Buffer
	if err := RenderHTML(&buf, c.Page()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"leaflet.js", "Emotion Map", "1 responses", CaptionAggregate} {
		if !strings.Contains(out, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(out, "</script><b>") {
		t.Error("location label was not escaped")
	}
}
