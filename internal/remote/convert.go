// Package remote implements gateway sources over MongoDB and PostgreSQL.
package remote

import (
	"fmt"

	"trainfinder/internal/domain"
)

const (
	collectionStations  = "stations"
	collectionSchedules = "train_schedules"
)

func toStation(name, code, stationType string, lat, lon float64) (domain.Station, error) {
	st, err := domain.ParseStationType(stationType)
	if err != nil {
		return domain.Station{}, fmt.Errorf("malformed station %q: %w", name, err)
	}
	if name == "" {
		return domain.Station{}, fmt.Errorf("malformed station: empty name")
	}
	return domain.Station{
		Name:        name,
		Code:        code,
		Type:        st,
		Coordinates: domain.Coordinates{Lat: lat, Lon: lon},
	}, nil
}

// toSchedule accepts either the single-letter class codes used by the seed
// data or the full class names.
func toSchedule(s domain.TrainSchedule, class string) (domain.TrainSchedule, error) {
	c, err := domain.ParseTrainClass(class)
	if err != nil {
		return domain.TrainSchedule{}, fmt.Errorf("malformed schedule %q: %w", s.TrainCode, err)
	}
	s.Class = c
	if err := s.Validate(); err != nil {
		return domain.TrainSchedule{}, fmt.Errorf("malformed schedule: %w", err)
	}
	return s, nil
}
