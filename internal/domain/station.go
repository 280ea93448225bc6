package domain

import "fmt"

// StationType distinguishes major interchange stations from minor halts
type StationType string

const (
	StationTypeMajor StationType = "major"
	StationTypeMinor StationType = "minor"
)

func ParseStationType(s string) (StationType, error) {
	switch StationType(s) {
	case StationTypeMajor, StationTypeMinor:
		return StationType(s), nil
	default:
		return "", fmt.Errorf("unknown station type %q", s)
	}
}

// Coordinates are informational only and never used for matching or fares
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Station is keyed by its case-sensitive Name
type Station struct {
	Name        string      `json:"name"`
	Code        string      `json:"code"`
	Type        StationType `json:"stationType"`
	Coordinates Coordinates `json:"coordinates"`
}
