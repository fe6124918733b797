package postgres

import (
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"

	"github.com/julianstephens/emomap/internal/models"
	"github.com/julianstephens/emomap/internal/storage"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewWithDB(db), mock
}

func twoResponseSurvey() models.SurveyData {
	return models.SurveyData{
		ID:          "survey_1",
		CompletedAt: 1718000005000,
		Responses: []models.EmotionResponse{
			{EmotionID: "joy", Location: "Paris", Coordinates: models.Coordinates{48.8566, 2.3522}, Intensity: 7, Timestamp: 1718000000000},
			{EmotionID: "love", Location: "Kyoto", Coordinates: models.Coordinates{35.0116, 135.7681}, Intensity: 3, Timestamp: 1718000001000},
		},
	}
}

func TestSave(t *testing.T) {
	store, mock := newMockStore(t)
	sv := twoResponseSurvey()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO surveys").
		WithArgs("survey_1", int64(1718000005000)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	for i, r := range sv.Responses {
		mock.ExpectExec("INSERT INTO responses").
			WithArgs("survey_1", int64(i), r.EmotionID, r.Location, r.Coordinates.Lat(), r.Coordinates.Lon(), int64(r.Intensity), r.Timestamp).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	if err := store.Save(sv); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSaveRollsBackOnResponseError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO surveys").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO responses").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	if err := store.Save(twoResponseSurvey()); err == nil {
		t.Fatal("Save should fail when a response insert fails")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestLoadAll(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT id, completed_at FROM surveys ORDER BY seq").
		WillReturnRows(sqlmock.NewRows([]string{"id", "completed_at"}).
			AddRow("survey_1", int64(1718000005000)).
			AddRow("survey_2", int64(1718000009000)))
	mock.ExpectQuery("SELECT r.survey_id, r.emotion_id").
		WillReturnRows(sqlmock.NewRows([]string{"survey_id", "emotion_id", "location", "lat", "lon", "intensity", "timestamp"}).
			AddRow("survey_1", "joy", "Paris", 48.8566, 2.3522, int64(7), int64(1718000000000)).
			AddRow("survey_1", "love", "Kyoto", 35.0116, 135.7681, int64(3), int64(1718000001000)).
			AddRow("survey_2", "joy", "Lagos", 6.5244, 3.3792, int64(10), int64(1718000008000)))

	got, err := store.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}

	want := []models.SurveyData{
		twoResponseSurvey(),
		{
			ID:          "survey_2",
			CompletedAt: 1718000009000,
			Responses: []models.EmotionResponse{
				{EmotionID: "joy", Location: "Lagos", Coordinates: models.Coordinates{6.5244, 3.3792}, Intensity: 10, Timestamp: 1718000008000},
			},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LoadAll mismatch (-want +got):\n%s", diff)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestClearAll(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("TRUNCATE responses, surveys").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.ClearAll(); err != nil {
		t.Fatalf("ClearAll failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGeocodeCache(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT display_name, lat, lon FROM geocode_cache").
		WithArgs("paris").
		WillReturnRows(sqlmock.NewRows([]string{"display_name", "lat", "lon"}))
	mock.ExpectExec("INSERT INTO geocode_cache").
		WithArgs("paris", "Paris, France", 48.8566, 2.3522, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT display_name, lat, lon FROM geocode_cache").
		WithArgs("paris").
		WillReturnRows(sqlmock.NewRows([]string{"display_name", "lat", "lon"}).AddRow("Paris, France", 48.8566, 2.3522))

	if _, found, err := store.GetCachedPlace("paris"); err != nil || found {
		t.Fatalf("expected miss, got found=%v err=%v", found, err)
	}

	p := models.Place{Query: "paris", DisplayName: "Paris, France", Coordinates: models.Coordinates{48.8566, 2.3522}}
	if err := store.PutCachedPlace(p); err != nil {
		t.Fatalf("PutCachedPlace failed: %v", err)
	}

	got, found, err := store.GetCachedPlace("paris")
	if err != nil || !found {
		t.Fatalf("expected hit, got found=%v err=%v", found, err)
	}
	if got != p {
		t.Errorf("GetCachedPlace() = %+v, want %+v", got, p)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestNotLoaded(t *testing.T) {
	store := New("postgres://user@localhost/db")
	if err := store.Save(twoResponseSurvey()); !errors.Is(err, storage.ErrNotLoaded) {
		t.Errorf("Save before Load = %v, want ErrNotLoaded", err)
	}
	if _, err := store.LoadAll(); !errors.Is(err, storage.ErrNotLoaded) {
		t.Errorf("LoadAll before Load = %v, want ErrNotLoaded", err)
	}
}
