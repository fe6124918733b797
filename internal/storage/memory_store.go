package storage

import (
	"sync"

	"github.com/julianstephens/emomap/internal/models"
)

// MemoryStore is a process-local Provider used by tests and by
// --config :memory:.
type MemoryStore struct {
	mu      sync.Mutex
	surveys []models.SurveyData
	places  map[string]models.Place
	loaded  bool

	// SaveErr and LoadErr, when set, are returned by Save and LoadAll.
	SaveErr error
	LoadErr error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{places: make(map[string]models.Place)}
}

func (s *MemoryStore) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = true
	return nil
}

func (s *MemoryStore) Load() error { return s.Init() }

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) GetConfigPath() string { return ":memory:" }

func (s *MemoryStore) Save(survey models.SurveyData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return ErrNotLoaded
	}
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.surveys = append(s.surveys, cloneSurvey(survey))
	return nil
}

func (s *MemoryStore) LoadAll() ([]models.SurveyData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return nil, ErrNotLoaded
	}
	if s.LoadErr != nil {
		return nil, s.LoadErr
	}
	out := make([]models.SurveyData, len(s.surveys))
	for i, sv := range s.surveys {
		out[i] = cloneSurvey(sv)
	}
	return out, nil
}

func (s *MemoryStore) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return ErrNotLoaded
	}
	s.surveys = nil
	return nil
}

func (s *MemoryStore) GetCachedPlace(query string) (models.Place, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.places[query]
	return p, ok, nil
}

func (s *MemoryStore) PutCachedPlace(p models.Place) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.places[p.Query] = p
	return nil
}

func cloneSurvey(s models.SurveyData) models.SurveyData {
	s.Responses = append([]models.EmotionResponse(nil), s.Responses...)
	return s
}
