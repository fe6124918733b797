package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julianstephens/emomap/internal/storage"
	"github.com/julianstephens/emomap/internal/storage/storagetest"
)

func newTestServer(t *testing.T, seeded int) (*Server, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < seeded; i++ {
		if err := store.Save(storagetest.Survey(i)); err != nil {
			t.Fatal(err)
		}
	}
	return New(store, false), store
}

func do(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("invalid JSON %q: %v", rec.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, 0)
	rec := do(t, s, http.MethodGet, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
}

func TestMarkers(t *testing.T) {
	s, _ := newTestServer(t, 2)

	tests := []struct {
		query string
		mode  string
		count int
	}{
		{"", "aggregate", 4},
		{"?mode=aggregate", "aggregate", 4},
		{"?mode=individual", "individual", 24},
	}
	for _, tt := range tests {
		t.Run(tt.mode+tt.query, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, "/api/markers"+tt.query)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			var body struct {
				Mode    string            `json:"mode"`
				Markers []json.RawMessage `json:"markers"`
				Stats   struct {
					Submissions int `json:"submissions"`
					Locations   int `json:"locations"`
				} `json:"stats"`
			}
			decode(t, rec, &body)
			if body.Mode != tt.mode || len(body.Markers) != tt.count {
				t.Errorf("mode %s with %d markers, want %s with %d", body.Mode, len(body.Markers), tt.mode, tt.count)
			}
			if body.Stats.Submissions != 2 || body.Stats.Locations != 4 {
				t.Errorf("stats = %+v", body.Stats)
			}
		})
	}
}

func TestMarkers_BadMode(t *testing.T) {
	s, _ := newTestServer(t, 1)
	if rec := do(t, s, http.MethodGet, "/api/markers?mode=heatmap"); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/api/legend?mode=heatmap"); rec.Code != http.StatusBadRequest {
		t.Errorf("legend status = %d, want 400", rec.Code)
	}
}

func TestReadFailureDegradesToEmpty(t *testing.T) {
	s, store := newTestServer(t, 2)
	store.LoadErr = errors.New("disk on fire")

	rec := do(t, s, http.MethodGet, "/api/submissions")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Submissions []json.RawMessage `json:"submissions"`
		Count       int               `json:"count"`
		Warning     string            `json:"warning"`
	}
	decode(t, rec, &body)
	if body.Count != 0 || body.Submissions == nil || body.Warning == "" {
		t.Errorf("got %+v, want an empty list with a warning", body)
	}
}

func TestAggregates(t *testing.T) {
	s, _ := newTestServer(t, 1)
	rec := do(t, s, http.MethodGet, "/api/aggregates")
	var body struct {
		Aggregates []struct {
			Location       string `json:"location"`
			TotalResponses int    `json:"totalResponses"`
		} `json:"aggregates"`
		Summary struct {
			Submissions int `json:"submissions"`
			Responses   int `json:"responses"`
		} `json:"summary"`
	}
	decode(t, rec, &body)

	total := 0
	for _, a := range body.Aggregates {
		total += a.TotalResponses
	}
	if total != 12 || body.Summary.Responses != 12 || body.Summary.Submissions != 1 {
		t.Errorf("aggregates total %d, summary %+v", total, body.Summary)
	}
}

func TestLegend(t *testing.T) {
	s, _ := newTestServer(t, 0)
	rec := do(t, s, http.MethodGet, "/api/legend?mode=individual")
	var body struct {
		Emotions []json.RawMessage `json:"emotions"`
		Caption  string            `json:"caption"`
	}
	decode(t, rec, &body)
	if len(body.Emotions) != 12 || body.Caption != "Individual emotion responses" {
		t.Errorf("legend = %d emotions, caption %q", len(body.Emotions), body.Caption)
	}
}

func TestGeoJSON(t *testing.T) {
	s, _ := newTestServer(t, 1)
	rec := do(t, s, http.MethodGet, "/api/geojson?mode=individual")
	if ct := rec.Header().Get("Content-Type"); ct != "application/geo+json" {
		t.Errorf("content type = %q", ct)
	}
	var fc struct {
		Features []json.RawMessage `json:"features"`
	}
	decode(t, rec, &fc)
	if len(fc.Features) != 12 {
		t.Errorf("features = %d, want 12", len(fc.Features))
	}
}

func TestIndexPage(t *testing.T) {
	s, _ := newTestServer(t, 1)
	rec := do(t, s, http.MethodGet, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Emotion Map") {
		t.Error("page title missing")
	}
}

func TestReadOnly(t *testing.T) {
	s, store := newTestServer(t, 1)
	for _, method := range []string{http.MethodPost, http.MethodDelete, http.MethodPut} {
		rec := do(t, s, method, "/api/submissions")
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s status = %d, want 405", method, rec.Code)
		}
	}
	if all, _ := store.LoadAll(); len(all) != 1 {
		t.Error("data changed through a read-only server")
	}
}
