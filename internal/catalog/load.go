package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"trainfinder/internal/domain"
	"trainfinder/internal/fare"
)

//go:embed catalog.yaml
var embeddedDefinition []byte

type document struct {
	Stations   []stationDoc        `yaml:"stations" validate:"required,min=2,dive"`
	ClassStops map[string][]string `yaml:"classStops" validate:"dive,min=2,dive,required"`
	Schedules  []scheduleDoc       `yaml:"schedules" validate:"dive"`
	Fares      faresDoc            `yaml:"fares"`
}

type stationDoc struct {
	Name string  `yaml:"name" validate:"required"`
	Code string  `yaml:"code" validate:"required"`
	Type string  `yaml:"type" validate:"oneof=major minor"`
	Lat  float64 `yaml:"lat" validate:"latitude"`
	Lon  float64 `yaml:"lon" validate:"longitude"`
}

type scheduleDoc struct {
	TrainCode           string   `yaml:"trainCode" validate:"required"`
	Class               string   `yaml:"class" validate:"required"`
	Origin              string   `yaml:"origin" validate:"required"`
	Destination         string   `yaml:"destination" validate:"required,nefield=Origin"`
	DepartureTime       string   `yaml:"departureTime" validate:"required"`
	Stops               []string `yaml:"stops" validate:"min=2,dive,required"`
	Period              string   `yaml:"period"`
	ReturnTrainCode     string   `yaml:"returnTrainCode"`
	ReturnDepartureTime string   `yaml:"returnDepartureTime" validate:"required_with=ReturnTrainCode"`
}

type faresDoc struct {
	Tiers     map[string]tierDoc `yaml:"tiers" validate:"required,dive"`
	Overrides []overrideDoc      `yaml:"overrides" validate:"dive"`
}

type tierDoc struct {
	ShortMaxHops  int `yaml:"shortMaxHops" validate:"gte=1"`
	MediumMaxHops int `yaml:"mediumMaxHops" validate:"gtfield=ShortMaxHops"`
	Short         int `yaml:"short" validate:"gte=0"`
	Medium        int `yaml:"medium" validate:"gtefield=Short"`
	Long          int `yaml:"long" validate:"gtefield=Medium"`
}

type overrideDoc struct {
	From  string         `yaml:"from" validate:"required"`
	To    string         `yaml:"to" validate:"required,nefield=From"`
	Fares map[string]int `yaml:"fares" validate:"required,dive,gte=0"`
}

// Default returns the catalog built from the definitions compiled into the
// binary.
func Default() (*Catalog, error) {
	return Parse(embeddedDefinition)
}

// Load reads a YAML definition file. An empty path means the embedded
// definitions.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes, validates and verifies a YAML catalog definition.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := validator.New().Struct(doc); err != nil {
		return nil, fmt.Errorf("validate catalog: %w", err)
	}

	def, err := doc.definition()
	if err != nil {
		return nil, err
	}

	c, err := New(def)
	if err != nil {
		return nil, err
	}
	if err := c.Verify(); err != nil {
		return nil, fmt.Errorf("verify catalog: %w", err)
	}
	return c, nil
}

func (d *document) definition() (Definition, error) {
	def := Definition{
		Stations:   make([]domain.Station, 0, len(d.Stations)),
		ClassStops: make(map[domain.TrainClass][]string, len(d.ClassStops)),
		Schedules:  make([]domain.TrainSchedule, 0, len(d.Schedules)),
		Fares:      fare.NewRules(),
	}

	for _, s := range d.Stations {
		st, err := domain.ParseStationType(s.Type)
		if err != nil {
			return Definition{}, fmt.Errorf("station %q: %w", s.Name, err)
		}
		def.Stations = append(def.Stations, domain.Station{
			Name:        s.Name,
			Code:        s.Code,
			Type:        st,
			Coordinates: domain.Coordinates{Lat: s.Lat, Lon: s.Lon},
		})
	}

	for key, stops := range d.ClassStops {
		class, err := domain.ParseTrainClass(key)
		if err != nil {
			return Definition{}, fmt.Errorf("classStops: %w", err)
		}
		def.ClassStops[class] = stops
	}

	for _, s := range d.Schedules {
		class, err := domain.ParseTrainClass(s.Class)
		if err != nil {
			return Definition{}, fmt.Errorf("train %s: %w", s.TrainCode, err)
		}
		def.Schedules = append(def.Schedules, domain.TrainSchedule{
			TrainCode:           s.TrainCode,
			Class:               class,
			Origin:              s.Origin,
			Destination:         s.Destination,
			DepartureTime:       s.DepartureTime,
			Stops:               s.Stops,
			Period:              s.Period,
			ReturnTrainCode:     s.ReturnTrainCode,
			ReturnDepartureTime: s.ReturnDepartureTime,
		})
	}

	for key, t := range d.Fares.Tiers {
		class, err := domain.ParseTrainClass(key)
		if err != nil {
			return Definition{}, fmt.Errorf("fare tiers: %w", err)
		}
		def.Fares.Tiers[class] = fare.Tier{
			ShortMaxHops:  t.ShortMaxHops,
			MediumMaxHops: t.MediumMaxHops,
			Short:         t.Short,
			Medium:        t.Medium,
			Long:          t.Long,
		}
	}

	for _, o := range d.Fares.Overrides {
		for key, amount := range o.Fares {
			class, err := domain.ParseTrainClass(key)
			if err != nil {
				return Definition{}, fmt.Errorf("override %s-%s: %w", o.From, o.To, err)
			}
			def.Fares.SetOverride(o.From, o.To, class, amount)
		}
	}

	return def, nil
}
