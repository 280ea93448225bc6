package domain

import (
	"fmt"
	"strings"
)

// TrainClass is the internal enumeration of service classes
type TrainClass int

const (
	ClassIntercity TrainClass = iota + 1
	ClassExpress
	ClassSlow
)

// AllClasses lists classes from fastest to slowest.
var AllClasses = []TrainClass{ClassIntercity, ClassExpress, ClassSlow}

func (c TrainClass) String() string {
	switch c {
	case ClassIntercity:
		return "intercity"
	case ClassExpress:
		return "express"
	case ClassSlow:
		return "slow"
	default:
		return "unknown"
	}
}

// Code returns the single-letter code used by older clients and seed data.
func (c TrainClass) Code() string {
	switch c {
	case ClassIntercity:
		return "I"
	case ClassExpress:
		return "E"
	case ClassSlow:
		return "S"
	default:
		return ""
	}
}

func (c TrainClass) MarshalText() ([]byte, error) {
	if c.Code() == "" {
		return nil, fmt.Errorf("invalid train class %d", int(c))
	}
	return []byte(c.String()), nil
}

func (c *TrainClass) UnmarshalText(b []byte) error {
	parsed, err := ParseTrainClass(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

var classAliases = map[string]TrainClass{
	"i":         ClassIntercity,
	"intercity": ClassIntercity,
	"e":         ClassExpress,
	"express":   ClassExpress,
	"s":         ClassSlow,
	"slow":      ClassSlow,
}

// ParseTrainClass maps the boundary spellings ("I", "express", "Slow", ...)
// onto TrainClass. Matching is case-insensitive.
func ParseTrainClass(s string) (TrainClass, error) {
	if c, ok := classAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return c, nil
	}
	return 0, fmt.Errorf("unknown train class %q", s)
}

// Direction of travel along the canonical line order
type Direction int

const (
	DirectionUp Direction = iota
	DirectionDown
)

func (d Direction) String() string {
	if d == DirectionDown {
		return "down"
	}
	return "up"
}

// TrainSchedule is one scheduled run. DepartureTime is a display string
// ("07:30 AM") and is never parsed.
type TrainSchedule struct {
	TrainCode           string     `json:"trainCode"`
	Class               TrainClass `json:"trainClass"`
	Origin              string     `json:"origin"`
	Destination         string     `json:"destination"`
	DepartureTime       string     `json:"departureTime"`
	Stops               []string   `json:"stops"`
	Period              string     `json:"period"`
	ReturnTrainCode     string     `json:"returnTrainCode,omitempty"`
	ReturnDepartureTime string     `json:"returnDepartureTime,omitempty"`
}

// StopIndex returns the position of station in the running order, or -1.
func (s *TrainSchedule) StopIndex(station string) int {
	for i, stop := range s.Stops {
		if stop == station {
			return i
		}
	}
	return -1
}

// Validate checks the per-schedule invariants: stops contain origin and
// destination in that order, and no station repeats.
func (s *TrainSchedule) Validate() error {
	seen := make(map[string]struct{}, len(s.Stops))
	for _, stop := range s.Stops {
		if _, dup := seen[stop]; dup {
			return fmt.Errorf("train %s: station %q repeats in stops", s.TrainCode, stop)
		}
		seen[stop] = struct{}{}
	}

	i, j := s.StopIndex(s.Origin), s.StopIndex(s.Destination)
	if i < 0 {
		return fmt.Errorf("train %s: origin %q not in stops", s.TrainCode, s.Origin)
	}
	if j < 0 {
		return fmt.Errorf("train %s: destination %q not in stops", s.TrainCode, s.Destination)
	}
	if i >= j {
		return fmt.Errorf("train %s: origin %q does not precede destination %q", s.TrainCode, s.Origin, s.Destination)
	}
	return nil
}
