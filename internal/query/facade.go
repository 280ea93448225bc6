// Package query is the request-facing surface over the gateway, the route
// resolver and the fare calculator.
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"trainfinder/internal/cache"
	"trainfinder/internal/domain"
	"trainfinder/internal/fare"
	"trainfinder/internal/gateway"
	"trainfinder/internal/metrics"
	"trainfinder/internal/routing"
)

// ScheduleSource is satisfied by *gateway.Gateway.
type ScheduleSource interface {
	Stations(ctx context.Context) ([]domain.Station, gateway.Origin)
	Schedules(ctx context.Context, origin, destination string) ([]domain.TrainSchedule, gateway.Origin)
}

// UnknownStationPolicy decides what FindTrains does when a matched
// schedule's pair is missing from its class ordering.
type UnknownStationPolicy string

const (
	// PolicyOmit returns the train without a fare.
	PolicyOmit UnknownStationPolicy = "omit"
	// PolicyFail fails the whole query with domain.ErrUnknownStation.
	PolicyFail UnknownStationPolicy = "fail"
)

func ParseUnknownStationPolicy(s string) (UnknownStationPolicy, error) {
	switch UnknownStationPolicy(s) {
	case PolicyOmit, PolicyFail:
		return UnknownStationPolicy(s), nil
	default:
		return "", fmt.Errorf("unknown fare policy %q", s)
	}
}

type Options struct {
	Cache         cache.Cache
	CacheTTL      time.Duration
	UnknownPolicy UnknownStationPolicy
}

type Facade struct {
	source  ScheduleSource
	fares   *fare.Calculator
	cache   cache.Cache
	ttl     time.Duration
	unknown UnknownStationPolicy
	logger  *slog.Logger
}

func New(source ScheduleSource, fares *fare.Calculator, opts Options, logger *slog.Logger) *Facade {
	if opts.UnknownPolicy == "" {
		opts.UnknownPolicy = PolicyOmit
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	return &Facade{
		source:  source,
		fares:   fares,
		cache:   opts.Cache,
		ttl:     opts.CacheTTL,
		unknown: opts.UnknownPolicy,
		logger:  logger.With("component", "query"),
	}
}

// Train is one findTrains result row.
type Train struct {
	TrainCode           string            `json:"trainCode"`
	TrainClass          domain.TrainClass `json:"trainClass"`
	DepartureTime       string            `json:"departureTime"`
	Fare                *int              `json:"fare"`
	StopsIncluded       []string          `json:"stopsIncluded"`
	Origin              string            `json:"origin"`
	Destination         string            `json:"destination"`
	Period              string            `json:"period,omitempty"`
	ReturnTrainCode     string            `json:"returnTrainCode,omitempty"`
	ReturnDepartureTime string            `json:"returnDepartureTime,omitempty"`
}

type TrainsResult struct {
	Trains []Train           `json:"trains"`
	Match  routing.MatchKind `json:"match"`
	Source gateway.Origin    `json:"source"`
}

type StationsResult struct {
	Stations []domain.Station `json:"stations"`
	Source   gateway.Origin   `json:"source"`
}

// FindTrains returns the trains for origin -> destination with fares. An
// empty Trains slice with a nil error means no train serves the pair.
func (f *Facade) FindTrains(ctx context.Context, origin, destination string) (TrainsResult, error) {
	if err := routing.Validate(origin, destination); err != nil {
		return TrainsResult{}, err
	}

	key := cache.KeyTrains(origin, destination)
	var cached TrainsResult
	if f.lookup(ctx, key, &cached) {
		return cached, nil
	}

	schedules, served := f.source.Schedules(ctx, origin, destination)
	matched, kind, err := routing.Resolve(schedules, origin, destination)
	if err != nil {
		return TrainsResult{}, err
	}

	result := TrainsResult{
		Trains: make([]Train, 0, len(matched)),
		Match:  kind,
		Source: served,
	}

	for _, s := range matched {
		t := Train{
			TrainCode:           s.TrainCode,
			TrainClass:          s.Class,
			DepartureTime:       s.DepartureTime,
			StopsIncluded:       s.Stops[s.StopIndex(origin) : s.StopIndex(destination)+1],
			Origin:              s.Origin,
			Destination:         s.Destination,
			Period:              s.Period,
			ReturnTrainCode:     s.ReturnTrainCode,
			ReturnDepartureTime: s.ReturnDepartureTime,
		}

		amount, err := f.fares.Fare(origin, destination, s.Class)
		switch {
		case err == nil:
			t.Fare = &amount
		case errors.Is(err, domain.ErrUnknownStation) && f.unknown == PolicyOmit:
			// The train still runs; it is listed without a price.
			f.logger.Debug("fare unavailable", "train_code", s.TrainCode, "error", err)
		default:
			return TrainsResult{}, fmt.Errorf("fare for train %s: %w", s.TrainCode, err)
		}

		result.Trains = append(result.Trains, t)
	}

	if result.Source == gateway.OriginStore {
		f.store(ctx, key, result)
	}

	f.logger.Debug("trains resolved",
		"origin", origin,
		"destination", destination,
		"match", kind,
		"count", len(result.Trains),
		"source", result.Source,
	)
	return result, nil
}

// GetFare returns the fare for a pair and class. Unknown stations surface
// as domain.ErrUnknownStation.
func (f *Facade) GetFare(origin, destination string, class domain.TrainClass) (int, error) {
	return f.fares.Fare(origin, destination, class)
}

// QuoteFare is GetFare with the derivation attached.
func (f *Facade) QuoteFare(origin, destination string, class domain.TrainClass) (fare.Quote, error) {
	return f.fares.Quote(origin, destination, class)
}

// ListStations never returns an empty list while the catalog is reachable.
func (f *Facade) ListStations(ctx context.Context) StationsResult {
	var cached StationsResult
	if f.lookup(ctx, cache.KeyStations, &cached) {
		return cached
	}

	stations, origin := f.source.Stations(ctx)
	result := StationsResult{Stations: stations, Source: origin}
	if origin == gateway.OriginStore {
		f.store(ctx, cache.KeyStations, result)
	}
	return result
}

func (f *Facade) lookup(ctx context.Context, key string, dest interface{}) bool {
	if f.cache == nil {
		return false
	}
	hit, err := f.cache.GetJSON(ctx, key, dest)
	if err != nil {
		metrics.CacheLookups.WithLabelValues("error").Inc()
		f.logger.Warn("cache lookup failed", "key", key, "error", err)
		return false
	}
	if hit {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return true
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()
	return false
}

func (f *Facade) store(ctx context.Context, key string, value interface{}) {
	if f.cache == nil {
		return
	}
	if err := f.cache.SetJSON(ctx, key, value, f.ttl); err != nil {
		f.logger.Warn("cache store failed", "key", key, "error", err)
	}
}
