package constants

import "time"

// SessionState represents the current screen of the TUI application
type SessionState int

// ViewMode selects how the map view renders persisted responses
type ViewMode string

const (
	AppName            = "emomap"
	DefaultKeyringUser = "database-connection"
	DefaultConfigPath  = "~/.config/emomap/emomap.db"
	Version            = "v0.3.0"

	// StorageKey is the name of the slot the browser build persisted to; kept as the
	// default JSON file stem so exported browser data can be dropped in as-is.
	StorageKey = "emotion-survey-data"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// Survey constants
	DefaultIntensity = 5
	MinIntensity     = 1
	MaxIntensity     = 10
	SurveyIDPrefix   = "survey_"

	// Marker sizing (pixels in the HTML export, relative weight in the TUI)
	AggregateMarkerMin  = 20
	AggregateMarkerMax  = 50
	AggregateMarkerStep = 2
	IndividualMarker    = 30

	// Default map viewport (New York City, world zoom)
	DefaultCenterLat = 40.7128
	DefaultCenterLon = -74.0060
	DefaultZoom      = 2

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "emomap-"

	// Geocoding constants
	GeocoderNominatim       = "nominatim"
	GeocoderStatic          = "static"
	DefaultNominatimURL     = "https://nominatim.openstreetmap.org"
	DefaultUserAgent        = "emomap/" + Version + " (https://github.com/julianstephens/emomap)"
	DefaultGeocodeTimeout   = 10 * time.Second
	NominatimMinInterval    = time.Second
	DefaultServeAddr        = "127.0.0.1:8080"
	DefaultDBConnectionEnv  = "EMOMAP_DB_CONNECTION"
	ClearConfirmationPrompt = "Are you sure you want to clear all survey data?"

	// View modes
	ViewAggregate  ViewMode = "aggregate"
	ViewIndividual ViewMode = "individual"
)

// Session States
const (
	StateSurvey SessionState = iota
	StateMap
	StateConfirmClear
)
