package remote

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"trainfinder/internal/domain"
	"trainfinder/internal/gateway"
)

type PostgresDialer struct {
	dsn    string
	logger *slog.Logger
}

func NewPostgresDialer(dsn string, logger *slog.Logger) *PostgresDialer {
	return &PostgresDialer{dsn: dsn, logger: logger.With("component", "postgres")}
}

func (d *PostgresDialer) Dial(ctx context.Context) (gateway.Source, error) {
	db, err := sql.Open("postgres", d.dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	d.logger.Info("postgres handshake completed")
	return &postgresSource{db: db}, nil
}

type postgresSource struct {
	db *sql.DB
}

func (s *postgresSource) Stations(ctx context.Context) ([]domain.Station, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, code, station_type, latitude, longitude
		FROM stations
		ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("query stations: %w", err)
	}
	defer rows.Close()

	var stations []domain.Station
	for rows.Next() {
		var (
			name, code, stationType string
			lat, lon                float64
		)
		if err := rows.Scan(&name, &code, &stationType, &lat, &lon); err != nil {
			return nil, fmt.Errorf("scan station: %w", err)
		}
		st, err := toStation(name, code, stationType, lat, lon)
		if err != nil {
			return nil, err
		}
		stations = append(stations, st)
	}
	return stations, rows.Err()
}

func (s *postgresSource) Schedules(ctx context.Context, origin, destination string) ([]domain.TrainSchedule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT train_code, train_class, origin, destination, departure_time,
			stops, period, return_train_code, return_departure_time
		FROM train_schedules
		WHERE (origin = $1 AND destination = $2)
			OR stops @> ARRAY[$1, $2]::text[]
		ORDER BY seq
	`, origin, destination)
	if err != nil {
		return nil, fmt.Errorf("query schedules: %w", err)
	}
	defer rows.Close()

	var schedules []domain.TrainSchedule
	for rows.Next() {
		var (
			sched        domain.TrainSchedule
			class        string
			returnCode   sql.NullString
			returnDepart sql.NullString
		)
		err := rows.Scan(
			&sched.TrainCode, &class, &sched.Origin, &sched.Destination, &sched.DepartureTime,
			pq.Array(&sched.Stops), &sched.Period, &returnCode, &returnDepart,
		)
		if err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		sched.ReturnTrainCode = returnCode.String
		sched.ReturnDepartureTime = returnDepart.String

		sched, err = toSchedule(sched, class)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, sched)
	}
	return schedules, rows.Err()
}

func (s *postgresSource) Close(ctx context.Context) error {
	return s.db.Close()
}
