// Package storagetest holds fixtures and a behavioral suite shared by every
// storage.Provider implementation.
package storagetest

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/julianstephens/emomap/internal/models"
	"github.com/julianstephens/emomap/internal/storage"
)

var places = []struct {
	name   string
	coords models.Coordinates
}{
	{"Paris, France", models.Coordinates{48.8566, 2.3522}},
	{"Kyoto, Japan", models.Coordinates{35.0116, 135.7681}},
	{"Lagos, Nigeria", models.Coordinates{6.5244, 3.3792}},
	{"Home", models.Coordinates{-33.8688, 151.2093}},
}

// Survey builds a complete submission whose answers vary with seed.
func Survey(seed int) models.SurveyData {
	base := int64(1718000000000 + seed*60000)
	s := models.SurveyData{
		ID:          fmt.Sprintf("survey_%d", seed),
		CompletedAt: base + 59000,
	}
	for i, e := range models.Catalog() {
		p := places[(seed+i)%len(places)]
		s.Responses = append(s.Responses, models.EmotionResponse{
			EmotionID:   e.ID,
			Location:    p.name,
			Coordinates: p.coords,
			Intensity:   (seed+i)%10 + 1,
			Timestamp:   base + int64(i)*1000,
		})
	}
	return s
}

// Run exercises the Provider contract against a freshly initialized store.
func Run(t *testing.T, newStore func(t *testing.T) storage.Provider) {
	t.Run("EmptyLoadAll", func(t *testing.T) {
		s := newStore(t)
		all, err := s.LoadAll()
		if err != nil {
			t.Fatalf("LoadAll failed: %v", err)
		}
		if len(all) != 0 {
			t.Errorf("expected empty store, got %d submissions", len(all))
		}
	})

	t.Run("SaveAppendsInOrder", func(t *testing.T) {
		s := newStore(t)
		var want []models.SurveyData
		for i := 0; i < 3; i++ {
			sv := Survey(i)
			want = append(want, sv)
			if err := s.Save(sv); err != nil {
				t.Fatalf("Save(%d) failed: %v", i, err)
			}
		}

		got, err := s.LoadAll()
		if err != nil {
			t.Fatalf("LoadAll failed: %v", err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("LoadAll mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("ClearAll", func(t *testing.T) {
		s := newStore(t)
		for i := 0; i < 2; i++ {
			if err := s.Save(Survey(i)); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
		}
		if err := s.ClearAll(); err != nil {
			t.Fatalf("ClearAll failed: %v", err)
		}

		got, err := s.LoadAll()
		if err != nil {
			t.Fatalf("LoadAll after clear failed: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected empty store after clear, got %d", len(got))
		}

		if err := s.Save(Survey(7)); err != nil {
			t.Fatalf("Save after clear failed: %v", err)
		}
		got, _ = s.LoadAll()
		if len(got) != 1 || got[0].ID != "survey_7" {
			t.Errorf("store not usable after clear: %+v", got)
		}
	})

	t.Run("CopyAll", func(t *testing.T) {
		src := storage.NewMemoryStore()
		if err := src.Init(); err != nil {
			t.Fatal(err)
		}
		for i := 0; i < 2; i++ {
			if err := src.Save(Survey(i)); err != nil {
				t.Fatal(err)
			}
		}

		dst := newStore(t)
		n, err := storage.CopyAll(dst, src)
		if err != nil {
			t.Fatalf("CopyAll failed: %v", err)
		}
		if n != 2 {
			t.Errorf("CopyAll copied %d, want 2", n)
		}
		want, _ := src.LoadAll()
		got, _ := dst.LoadAll()
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("copied submissions differ (-want +got):\n%s", diff)
		}
	})

	t.Run("GeocodeCache", func(t *testing.T) {
		s := newStore(t)
		cache, ok := s.(storage.GeocodeCache)
		if !ok {
			t.Skip("provider does not cache geocoding results")
		}

		if _, found, err := cache.GetCachedPlace("paris"); err != nil || found {
			t.Fatalf("expected cache miss, got found=%v err=%v", found, err)
		}

		p := models.Place{Query: "paris", DisplayName: "Paris, Île-de-France, France", Coordinates: models.Coordinates{48.8566, 2.3522}}
		if err := cache.PutCachedPlace(p); err != nil {
			t.Fatalf("PutCachedPlace failed: %v", err)
		}
		p.DisplayName = "Paris, France"
		if err := cache.PutCachedPlace(p); err != nil {
			t.Fatalf("PutCachedPlace overwrite failed: %v", err)
		}

		got, found, err := cache.GetCachedPlace("paris")
		if err != nil || !found {
			t.Fatalf("expected cache hit, got found=%v err=%v", found, err)
		}
		if diff := cmp.Diff(p, got); diff != "" {
			t.Errorf("cached place mismatch (-want +got):\n%s", diff)
		}
	})
}
