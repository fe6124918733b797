package models

// Place is a resolved geocoding result
type Place struct {
	Query       string      `json:"query"`
	DisplayName string      `json:"displayName"`
	Coordinates Coordinates `json:"coordinates"`
}
