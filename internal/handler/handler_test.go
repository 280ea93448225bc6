package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"trainfinder/internal/catalog"
	"trainfinder/internal/fare"
	"trainfinder/internal/gateway"
	"trainfinder/internal/query"
)

var testLogger = slog.New(slog.DiscardHandler)

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	gw := gateway.New(nil, cat, gateway.Options{}, testLogger)
	gw.Run(context.Background())

	facade := query.New(gw, fare.NewCalculator(cat.FareRules(), cat), query.Options{}, testLogger)
	trains := NewTrainsHandler(facade, testLogger)
	health := NewHealthHandler(gw, cat)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/stations", trains.ListStations)
	mux.HandleFunc("GET /v1/trains", trains.FindTrains)
	mux.HandleFunc("GET /v1/fare", trains.GetFare)
	mux.HandleFunc("GET /v1/status", health.Status)
	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz)
	return mux
}

func get(t *testing.T, mux http.Handler, target string, dest interface{}) int {
	t.Helper()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	if dest != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), dest); err != nil {
			t.Fatalf("%s: decode %q: %v", target, rec.Body.String(), err)
		}
	}
	return rec.Code
}

func TestListStations(t *testing.T) {
	mux := newTestMux(t)

	var resp struct {
		Stations []struct {
			Name        string `json:"name"`
			StationType string `json:"stationType"`
		} `json:"stations"`
		Count  int    `json:"count"`
		Source string `json:"source"`
	}
	if code := get(t, mux, "/v1/stations", &resp); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if resp.Count != 12 || len(resp.Stations) != 12 || resp.Source != "catalog" {
		t.Errorf("resp = %+v", resp)
	}
	if resp.Stations[0].Name != "Ragama" || resp.Stations[0].StationType != "major" {
		t.Errorf("first station = %+v", resp.Stations[0])
	}
}

func TestFindTrains(t *testing.T) {
	mux := newTestMux(t)

	var resp struct {
		Trains []struct {
			TrainCode     string   `json:"trainCode"`
			TrainClass    string   `json:"trainClass"`
			DepartureTime string   `json:"departureTime"`
			Fare          *int     `json:"fare"`
			StopsIncluded []string `json:"stopsIncluded"`
		} `json:"trains"`
		Count int    `json:"count"`
		Match string `json:"match"`
	}
	if code := get(t, mux, "/v1/trains?from=Ragama&to=Kirulapona", &resp); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if resp.Count != 3 || resp.Match != "exact" {
		t.Fatalf("resp = %+v", resp)
	}
	express := resp.Trains[1]
	if express.TrainCode != "8721" || express.TrainClass != "express" || express.Fare == nil || *express.Fare != 170 {
		t.Errorf("express train = %+v", express)
	}
	if len(express.StopsIncluded) != 7 {
		t.Errorf("stops = %v", express.StopsIncluded)
	}
}

func TestFindTrainsEmpty(t *testing.T) {
	mux := newTestMux(t)

	var resp struct {
		Trains []json.RawMessage `json:"trains"`
		Count  int               `json:"count"`
	}
	if code := get(t, mux, "/v1/trains?from=Ragama&to=Atlantis", &resp); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if resp.Trains == nil || resp.Count != 0 {
		t.Errorf("trains should be an empty array, got %+v", resp)
	}
}

func TestQueryErrors(t *testing.T) {
	mux := newTestMux(t)

	tests := []struct {
		target string
		want   int
	}{
		{"/v1/trains?from=Ragama", http.StatusBadRequest},
		{"/v1/trains?from=Pettah&to=Pettah", http.StatusBadRequest},
		{"/v1/fare?from=Ragama&to=Pettah&class=first", http.StatusBadRequest},
		{"/v1/fare?from=Ragama&to=Ragama&class=S", http.StatusBadRequest},
		{"/v1/fare?from=Kelaniya&to=Pettah&class=express", http.StatusNotFound},
		{"/v1/fare?from=Atlantis&to=Pettah&class=slow", http.StatusNotFound},
	}
	for _, tt := range tests {
		var resp errorResponse
		if code := get(t, mux, tt.target, &resp); code != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.target, code, tt.want)
		}
		if resp.Error == "" {
			t.Errorf("%s: missing error message", tt.target)
		}
	}
}

func TestGetFare(t *testing.T) {
	mux := newTestMux(t)

	tests := []struct {
		target   string
		fare     int
		override bool
	}{
		{"/v1/fare?from=Ragama&to=Kirulapona&class=express", 170, false},
		{"/v1/fare?from=Pettah&to=Ragama&class=E", 120, true},
		{"/v1/fare?from=Maradana&to=Pettah&class=slow", 20, true},
	}
	for _, tt := range tests {
		var resp struct {
			TrainClass string `json:"trainClass"`
			Fare       int    `json:"fare"`
			Override   bool   `json:"override"`
		}
		if code := get(t, mux, tt.target, &resp); code != http.StatusOK {
			t.Fatalf("%s: status = %d", tt.target, code)
		}
		if resp.Fare != tt.fare || resp.Override != tt.override {
			t.Errorf("%s: resp = %+v", tt.target, resp)
		}
	}
}

func TestHealthEndpoints(t *testing.T) {
	mux := newTestMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("healthz = %d %q", rec.Code, rec.Body.String())
	}

	var ready ReadyResponse
	if code := get(t, mux, "/readyz", &ready); code != http.StatusOK {
		t.Errorf("readyz status = %d", code)
	}
	if !ready.Ready || ready.GatewayState != gateway.StateDegraded || ready.StationCount != 12 {
		t.Errorf("readyz = %+v", ready)
	}

	var status struct {
		State     string `json:"state"`
		LastError string `json:"lastError"`
	}
	if code := get(t, mux, "/v1/status", &status); code != http.StatusOK {
		t.Errorf("status code = %d", code)
	}
	if status.State != "degraded" || status.LastError == "" {
		t.Errorf("status = %+v", status)
	}
}
