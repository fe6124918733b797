package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/emomap/internal/models"
	"github.com/julianstephens/emomap/internal/storage"
)

var (
	_ storage.Provider     = (*Store)(nil)
	_ storage.GeocodeCache = (*Store)(nil)
)

func (s *Store) Save(survey models.SurveyData) error {
	if s.db == nil {
		return storage.ErrNotLoaded
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO surveys (id, completed_at) VALUES ($1, $2)`, survey.ID, survey.CompletedAt); err != nil {
		return fmt.Errorf("failed to insert survey %s: %w", survey.ID, err)
	}

	for i, r := range survey.Responses {
		_, err := tx.Exec(`
			INSERT INTO responses (survey_id, position, emotion_id, location, lat, lon, intensity, timestamp)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			survey.ID, i, r.EmotionID, r.Location, r.Coordinates.Lat(), r.Coordinates.Lon(), r.Intensity, r.Timestamp)
		if err != nil {
			return fmt.Errorf("failed to insert response %d of survey %s: %w", i, survey.ID, err)
		}
	}

	return tx.Commit()
}

func (s *Store) LoadAll() ([]models.SurveyData, error) {
	if s.db == nil {
		return nil, storage.ErrNotLoaded
	}

	rows, err := s.db.Query(`SELECT id, completed_at FROM surveys ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	surveys := []models.SurveyData{}
	index := make(map[string]int)
	for rows.Next() {
		var sv models.SurveyData
		if err := rows.Scan(&sv.ID, &sv.CompletedAt); err != nil {
			return nil, err
		}
		index[sv.ID] = len(surveys)
		surveys = append(surveys, sv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	respRows, err := s.db.Query(`
		SELECT r.survey_id, r.emotion_id, r.location, r.lat, r.lon, r.intensity, r.timestamp
		FROM responses r
		JOIN surveys s ON s.id = r.survey_id
		ORDER BY s.seq, r.position`)
	if err != nil {
		return nil, err
	}
	defer respRows.Close()

	for respRows.Next() {
		var surveyID string
		var r models.EmotionResponse
		var lat, lon float64
		if err := respRows.Scan(&surveyID, &r.EmotionID, &r.Location, &lat, &lon, &r.Intensity, &r.Timestamp); err != nil {
			return nil, err
		}
		r.Coordinates = models.Coordinates{lat, lon}
		if i, ok := index[surveyID]; ok {
			surveys[i].Responses = append(surveys[i].Responses, r)
		}
	}
	return surveys, respRows.Err()
}

func (s *Store) ClearAll() error {
	if s.db == nil {
		return storage.ErrNotLoaded
	}
	if _, err := s.db.Exec(`TRUNCATE responses, surveys`); err != nil {
		return fmt.Errorf("failed to clear surveys: %w", err)
	}
	return nil
}

func (s *Store) GetCachedPlace(query string) (models.Place, bool, error) {
	if s.db == nil {
		return models.Place{}, false, storage.ErrNotLoaded
	}

	p := models.Place{Query: query}
	var lat, lon float64
	err := s.db.QueryRow(`SELECT display_name, lat, lon FROM geocode_cache WHERE query = $1`, query).
		Scan(&p.DisplayName, &lat, &lon)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Place{}, false, nil
	}
	if err != nil {
		return models.Place{}, false, err
	}
	p.Coordinates = models.Coordinates{lat, lon}
	return p, true, nil
}

func (s *Store) PutCachedPlace(p models.Place) error {
	if s.db == nil {
		return storage.ErrNotLoaded
	}

	_, err := s.db.Exec(`
		INSERT INTO geocode_cache (query, display_name, lat, lon, cached_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (query) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			lat = EXCLUDED.lat,
			lon = EXCLUDED.lon,
			cached_at = EXCLUDED.cached_at`,
		p.Query, p.DisplayName, p.Coordinates.Lat(), p.Coordinates.Lon(), time.Now().UnixMilli())
	return err
}
