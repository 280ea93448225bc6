package remote

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"trainfinder/internal/domain"
	"trainfinder/internal/gateway"
)

type MongoDialer struct {
	uri            string
	database       string
	connectTimeout time.Duration
	socketTimeout  time.Duration
	logger         *slog.Logger
}

func NewMongoDialer(uri, database string, connectTimeout, socketTimeout time.Duration, logger *slog.Logger) *MongoDialer {
	return &MongoDialer{
		uri:            uri,
		database:       database,
		connectTimeout: connectTimeout,
		socketTimeout:  socketTimeout,
		logger:         logger.With("component", "mongo"),
	}
}

func (d *MongoDialer) Dial(ctx context.Context) (gateway.Source, error) {
	clientOptions := options.Client().ApplyURI(d.uri).
		SetMaxPoolSize(20).
		SetConnectTimeout(d.connectTimeout).
		SetServerSelectionTimeout(d.connectTimeout).
		SetSocketTimeout(d.socketTimeout).
		SetRetryReads(true).
		SetReadPreference(readpref.PrimaryPreferred())

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.PrimaryPreferred()); err != nil {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	d.logger.Info("mongo handshake completed", "database", d.database)
	return &mongoSource{client: client, db: client.Database(d.database)}, nil
}

type mongoSource struct {
	client *mongo.Client
	db     *mongo.Database
}

type stationDoc struct {
	Name     string   `bson:"name"`
	Code     string   `bson:"code"`
	Type     string   `bson:"station_type"`
	Location geoPoint `bson:"location"`
	Seq      int      `bson:"seq"`
}

type geoPoint struct {
	Latitude  float64 `bson:"latitude"`
	Longitude float64 `bson:"longitude"`
}

type scheduleDoc struct {
	TrainCode           string   `bson:"train_code"`
	Class               string   `bson:"train_class"`
	Origin              string   `bson:"origin"`
	Destination         string   `bson:"destination"`
	DepartureTime       string   `bson:"departure_time"`
	Stops               []string `bson:"stops"`
	Period              string   `bson:"period"`
	ReturnTrainCode     string   `bson:"return_train_code,omitempty"`
	ReturnDepartureTime string   `bson:"return_departure_time,omitempty"`
	Seq                 int      `bson:"seq"`
}

var bySeq = options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})

func (s *mongoSource) Stations(ctx context.Context) ([]domain.Station, error) {
	cursor, err := s.db.Collection(collectionStations).Find(ctx, bson.D{}, bySeq)
	if err != nil {
		return nil, fmt.Errorf("find stations: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []stationDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode stations: %w", err)
	}

	stations := make([]domain.Station, 0, len(docs))
	for _, doc := range docs {
		st, err := toStation(doc.Name, doc.Code, doc.Type, doc.Location.Latitude, doc.Location.Longitude)
		if err != nil {
			return nil, err
		}
		stations = append(stations, st)
	}
	return stations, nil
}

func (s *mongoSource) Schedules(ctx context.Context, origin, destination string) ([]domain.TrainSchedule, error) {
	filter := bson.M{
		"$or": []bson.M{
			{"origin": origin, "destination": destination},
			{"stops": bson.M{"$all": bson.A{origin, destination}}},
		},
	}

	cursor, err := s.db.Collection(collectionSchedules).Find(ctx, filter, bySeq)
	if err != nil {
		return nil, fmt.Errorf("find schedules: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []scheduleDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode schedules: %w", err)
	}

	schedules := make([]domain.TrainSchedule, 0, len(docs))
	for _, doc := range docs {
		sched, err := toSchedule(domain.TrainSchedule{
			TrainCode:           doc.TrainCode,
			Origin:              doc.Origin,
			Destination:         doc.Destination,
			DepartureTime:       doc.DepartureTime,
			Stops:               doc.Stops,
			Period:              doc.Period,
			ReturnTrainCode:     doc.ReturnTrainCode,
			ReturnDepartureTime: doc.ReturnDepartureTime,
		}, doc.Class)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, sched)
	}
	return schedules, nil
}

func (s *mongoSource) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
