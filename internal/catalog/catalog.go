// Package catalog holds the immutable snapshot of stations, schedules and
// fare rules that answers every query when the remote store cannot.
package catalog

import (
	"fmt"
	"slices"

	"trainfinder/internal/domain"
	"trainfinder/internal/fare"
)

// Definition is the raw input to New. Stations are given in canonical line
// order. A class absent from ClassStops visits the full line.
type Definition struct {
	Stations   []domain.Station
	ClassStops map[domain.TrainClass][]string
	Schedules  []domain.TrainSchedule
	Fares      fare.Rules
}

// Catalog is read-only after construction; accessors return copies.
type Catalog struct {
	stations   []domain.Station
	byName     map[string]int
	byCode     map[string]int
	line       []string
	classStops map[domain.TrainClass][]string
	schedules  []domain.TrainSchedule
	rules      fare.Rules
}

// New builds a catalog. It fails only with domain.ErrDuplicateKey, on a
// repeated station name or train code.
func New(def Definition) (*Catalog, error) {
	c := &Catalog{
		stations:   make([]domain.Station, 0, len(def.Stations)),
		byName:     make(map[string]int, len(def.Stations)),
		byCode:     make(map[string]int, len(def.Stations)),
		line:       make([]string, 0, len(def.Stations)),
		classStops: make(map[domain.TrainClass][]string, len(def.ClassStops)),
		schedules:  make([]domain.TrainSchedule, 0, len(def.Schedules)),
		rules:      copyRules(def.Fares),
	}

	for _, st := range def.Stations {
		if _, dup := c.byName[st.Name]; dup {
			return nil, fmt.Errorf("%w: station %q", domain.ErrDuplicateKey, st.Name)
		}
		c.byName[st.Name] = len(c.stations)
		if _, taken := c.byCode[st.Code]; !taken && st.Code != "" {
			c.byCode[st.Code] = len(c.stations)
		}
		c.stations = append(c.stations, st)
		c.line = append(c.line, st.Name)
	}

	codes := make(map[string]struct{}, len(def.Schedules))
	for _, s := range def.Schedules {
		if _, dup := codes[s.TrainCode]; dup {
			return nil, fmt.Errorf("%w: train code %q", domain.ErrDuplicateKey, s.TrainCode)
		}
		codes[s.TrainCode] = struct{}{}
		s.Stops = slices.Clone(s.Stops)
		c.schedules = append(c.schedules, s)
	}

	for class, stops := range def.ClassStops {
		c.classStops[class] = slices.Clone(stops)
	}

	return c, nil
}

// Verify checks data integrity beyond key uniqueness: every class ordering
// is a subsequence of the line, and every schedule runs over known stations
// with origin strictly before destination.
func (c *Catalog) Verify() error {
	if len(c.stations) < 2 {
		return fmt.Errorf("catalog needs at least two stations, got %d", len(c.stations))
	}

	for class, stops := range c.classStops {
		last := -1
		for _, name := range stops {
			idx, ok := c.byName[name]
			if !ok {
				return fmt.Errorf("%s ordering: unknown station %q", class, name)
			}
			if idx <= last {
				return fmt.Errorf("%s ordering: %q is out of line order", class, name)
			}
			last = idx
		}
		if len(stops) >= len(c.line) {
			return fmt.Errorf("%s ordering must be a strict subset of the line", class)
		}
	}

	for i := range c.schedules {
		s := &c.schedules[i]
		if err := s.Validate(); err != nil {
			return err
		}
		for _, stop := range s.Stops {
			if _, ok := c.byName[stop]; !ok {
				return fmt.Errorf("train %s: unknown station %q", s.TrainCode, stop)
			}
		}
	}

	if err := c.rules.Validate(); err != nil {
		return err
	}
	return nil
}

// AllStations returns stations in canonical line order.
func (c *Catalog) AllStations() []domain.Station {
	return slices.Clone(c.stations)
}

// AllSchedules returns schedules in insertion order.
func (c *Catalog) AllSchedules() []domain.TrainSchedule {
	out := make([]domain.TrainSchedule, len(c.schedules))
	for i, s := range c.schedules {
		s.Stops = slices.Clone(s.Stops)
		out[i] = s
	}
	return out
}

// ClassStops returns the up-direction ordering for a class, or the full
// line when the class has no curtailed list.
func (c *Catalog) ClassStops(class domain.TrainClass) []string {
	if stops, ok := c.classStops[class]; ok {
		return slices.Clone(stops)
	}
	return slices.Clone(c.line)
}

// ClassStopsFor returns the ordering in the given direction; down is the
// exact reverse of up.
func (c *Catalog) ClassStopsFor(class domain.TrainClass, dir domain.Direction) []string {
	stops := c.ClassStops(class)
	if dir == domain.DirectionDown {
		slices.Reverse(stops)
	}
	return stops
}

func (c *Catalog) Station(name string) (domain.Station, bool) {
	idx, ok := c.byName[name]
	if !ok {
		return domain.Station{}, false
	}
	return c.stations[idx], true
}

func (c *Catalog) StationByCode(code string) (domain.Station, bool) {
	idx, ok := c.byCode[code]
	if !ok {
		return domain.Station{}, false
	}
	return c.stations[idx], true
}

// FareRules returns a copy of the configured fare rules.
func (c *Catalog) FareRules() fare.Rules {
	return copyRules(c.rules)
}

func copyRules(r fare.Rules) fare.Rules {
	out := fare.NewRules()
	for class, tier := range r.Tiers {
		out.Tiers[class] = tier
	}
	for pair, fares := range r.Overrides {
		for class, amount := range fares {
			out.SetOverride(pair.A, pair.B, class, amount)
		}
	}
	return out
}
