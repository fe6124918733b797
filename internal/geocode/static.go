package geocode

import (
	"context"

	"github.com/julianstephens/emomap/internal/models"
)

// Static resolves queries against a fixed offline gazetteer. It backs
// EMOMAP_GEOCODER=static and the tests.
type Static struct {
	places map[string]models.Place
}

var gazetteer = []models.Place{
	{DisplayName: "New York, United States", Coordinates: models.Coordinates{40.7128, -74.006}},
	{DisplayName: "Central Park, New York, United States", Coordinates: models.Coordinates{40.7829, -73.9654}},
	{DisplayName: "Los Angeles, United States", Coordinates: models.Coordinates{34.0522, -118.2437}},
	{DisplayName: "Chicago, United States", Coordinates: models.Coordinates{41.8781, -87.6298}},
	{DisplayName: "San Francisco, United States", Coordinates: models.Coordinates{37.7749, -122.4194}},
	{DisplayName: "Toronto, Canada", Coordinates: models.Coordinates{43.6532, -79.3832}},
	{DisplayName: "Mexico City, Mexico", Coordinates: models.Coordinates{19.4326, -99.1332}},
	{DisplayName: "São Paulo, Brazil", Coordinates: models.Coordinates{-23.5505, -46.6333}},
	{DisplayName: "Buenos Aires, Argentina", Coordinates: models.Coordinates{-34.6037, -58.3816}},
	{DisplayName: "London, United Kingdom", Coordinates: models.Coordinates{51.5074, -0.1278}},
	{DisplayName: "Paris, France", Coordinates: models.Coordinates{48.8566, 2.3522}},
	{DisplayName: "Berlin, Germany", Coordinates: models.Coordinates{52.52, 13.405}},
	{DisplayName: "Madrid, Spain", Coordinates: models.Coordinates{40.4168, -3.7038}},
	{DisplayName: "Rome, Italy", Coordinates: models.Coordinates{41.9028, 12.4964}},
	{DisplayName: "Amsterdam, Netherlands", Coordinates: models.Coordinates{52.3676, 4.9041}},
	{DisplayName: "Stockholm, Sweden", Coordinates: models.Coordinates{59.3293, 18.0686}},
	{DisplayName: "Moscow, Russia", Coordinates: models.Coordinates{55.7558, 37.6173}},
	{DisplayName: "Istanbul, Turkey", Coordinates: models.Coordinates{41.0082, 28.9784}},
	{DisplayName: "Cairo, Egypt", Coordinates: models.Coordinates{30.0444, 31.2357}},
	{DisplayName: "Lagos, Nigeria", Coordinates: models.Coordinates{6.5244, 3.3792}},
	{DisplayName: "Nairobi, Kenya", Coordinates: models.Coordinates{-1.2921, 36.8219}},
	{DisplayName: "Cape Town, South Africa", Coordinates: models.Coordinates{-33.9249, 18.4241}},
	{DisplayName: "Dubai, United Arab Emirates", Coordinates: models.Coordinates{25.2048, 55.2708}},
	{DisplayName: "Mumbai, India", Coordinates: models.Coordinates{19.076, 72.8777}},
	{DisplayName: "Delhi, India", Coordinates: models.Coordinates{28.7041, 77.1025}},
	{DisplayName: "Bangkok, Thailand", Coordinates: models.Coordinates{13.7563, 100.5018}},
	{DisplayName: "Singapore", Coordinates: models.Coordinates{1.3521, 103.8198}},
	{DisplayName: "Beijing, China", Coordinates: models.Coordinates{39.9042, 116.4074}},
	{DisplayName: "Shanghai, China", Coordinates: models.Coordinates{31.2304, 121.4737}},
	{DisplayName: "Seoul, South Korea", Coordinates: models.Coordinates{37.5665, 126.978}},
	{DisplayName: "Tokyo, Japan", Coordinates: models.Coordinates{35.6762, 139.6503}},
	{DisplayName: "Kyoto, Japan", Coordinates: models.Coordinates{35.0116, 135.7681}},
	{DisplayName: "Sydney, Australia", Coordinates: models.Coordinates{-33.8688, 151.2093}},
	{DisplayName: "Auckland, New Zealand", Coordinates: models.Coordinates{-36.8485, 174.7633}},
}

// NewStatic indexes the built-in gazetteer plus any extra places. Each place
// is reachable by its full display name and by the part before the first comma.
func NewStatic(extra ...models.Place) *Static {
	s := &Static{places: make(map[string]models.Place)}
	for _, p := range append(append([]models.Place(nil), gazetteer...), extra...) {
		s.add(p)
	}
	return s
}

func (s *Static) add(p models.Place) {
	full := Normalize(p.DisplayName)
	s.places[full] = p
	for i, r := range full {
		if r == ',' {
			short := full[:i]
			if _, taken := s.places[short]; !taken {
				s.places[short] = p
			}
			break
		}
	}
	if p.Query != "" {
		s.places[Normalize(p.Query)] = p
	}
}

func (s *Static) Geocode(ctx context.Context, query string) (models.Place, error) {
	if err := ctx.Err(); err != nil {
		return models.Place{}, err
	}
	key := Normalize(query)
	p, ok := s.places[key]
	if !ok {
		return models.Place{}, ErrNoResult
	}
	p.Query = key
	return p, nil
}
