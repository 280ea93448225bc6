// Package routing matches origin/destination queries against schedules.
package routing

import (
	"fmt"

	"trainfinder/internal/domain"
)

// MatchKind records which pass selected a schedule.
type MatchKind string

const (
	MatchExact     MatchKind = "exact"
	MatchContained MatchKind = "contained"
)

// Validate rejects empty or identical endpoints with domain.ErrInvalidQuery.
func Validate(origin, destination string) error {
	if origin == "" || destination == "" {
		return fmt.Errorf("%w: origin and destination are required", domain.ErrInvalidQuery)
	}
	if origin == destination {
		return fmt.Errorf("%w: origin equals destination %q", domain.ErrInvalidQuery, origin)
	}
	return nil
}

// Resolve returns the schedules usable for origin -> destination.
//
// Schedules whose nominal origin and destination equal the query win
// outright. Only when none exist are schedules considered whose stop list
// contains origin strictly before destination. Both passes keep the input
// order; departure times are display strings and are not sorted. No match is
// an empty, non-nil slice and a nil error.
func Resolve(schedules []domain.TrainSchedule, origin, destination string) ([]domain.TrainSchedule, MatchKind, error) {
	if err := Validate(origin, destination); err != nil {
		return nil, "", err
	}

	exact := make([]domain.TrainSchedule, 0)
	for _, s := range schedules {
		if s.Origin == origin && s.Destination == destination {
			exact = append(exact, s)
		}
	}
	if len(exact) > 0 {
		return exact, MatchExact, nil
	}

	contained := make([]domain.TrainSchedule, 0)
	for _, s := range schedules {
		i, j := s.StopIndex(origin), s.StopIndex(destination)
		if i >= 0 && j >= 0 && i < j {
			contained = append(contained, s)
		}
	}
	return contained, MatchContained, nil
}
