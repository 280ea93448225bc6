package remote

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"

	"trainfinder/internal/domain"
)

func TestToStation(t *testing.T) {
	st, err := toStation("Maradana", "MDA", "major", 6.9289, 79.8652)
	if err != nil {
		t.Fatal(err)
	}
	if st.Type != domain.StationTypeMajor || st.Coordinates.Lat != 6.9289 {
		t.Errorf("station = %+v", st)
	}

	if _, err := toStation("Maradana", "MDA", "interchange", 0, 0); err == nil {
		t.Error("unknown station type should fail")
	}
	if _, err := toStation("", "X", "minor", 0, 0); err == nil {
		t.Error("empty name should fail")
	}
}

func TestToSchedule(t *testing.T) {
	base := domain.TrainSchedule{
		TrainCode:     "8731",
		Origin:        "Kadawatha",
		Destination:   "Pettah",
		DepartureTime: "12:15 PM",
		Stops:         []string{"Kadawatha", "Kiribathgoda", "Maradana", "Pettah"},
	}

	for _, class := range []string{"E", "express", "Express"} {
		s, err := toSchedule(base, class)
		if err != nil {
			t.Fatalf("class %q: %v", class, err)
		}
		if s.Class != domain.ClassExpress {
			t.Errorf("class %q parsed as %v", class, s.Class)
		}
	}

	if _, err := toSchedule(base, "Z"); err == nil {
		t.Error("unknown class should fail")
	}

	reversed := base
	reversed.Origin, reversed.Destination = base.Destination, base.Origin
	if _, err := toSchedule(reversed, "E"); err == nil {
		t.Error("origin after destination should fail")
	}
}

func TestScheduleDocFieldNames(t *testing.T) {
	raw, err := bson.Marshal(bson.M{
		"train_code":            "1001",
		"train_class":           "I",
		"origin":                "Ragama",
		"destination":           "Kirulapona",
		"departure_time":        "08:05 AM",
		"stops":                 bson.A{"Ragama", "Maradana", "Pettah", "Kirulapona"},
		"return_train_code":     "1002",
		"return_departure_time": "04:40 PM",
		"seq":                   5,
	})
	if err != nil {
		t.Fatal(err)
	}

	var doc scheduleDoc
	if err := bson.Unmarshal(raw, &doc); err != nil {
		t.Fatal(err)
	}
	if doc.TrainCode != "1001" || doc.Class != "I" || len(doc.Stops) != 4 || doc.ReturnTrainCode != "1002" || doc.Seq != 5 {
		t.Errorf("doc = %+v", doc)
	}
}
