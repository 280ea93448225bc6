package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"trainfinder/internal/domain"
	"trainfinder/internal/fare"
	"trainfinder/internal/gateway"
	"trainfinder/internal/query"
	"trainfinder/internal/routing"
)

type TrainsHandler struct {
	facade *query.Facade
	logger *slog.Logger
}

func NewTrainsHandler(facade *query.Facade, logger *slog.Logger) *TrainsHandler {
	return &TrainsHandler{facade: facade, logger: logger.With("handler", "trains")}
}

type StationsResponse struct {
	Stations   []domain.Station `json:"stations"`
	Count      int              `json:"count"`
	Source     gateway.Origin   `json:"source"`
	ServerTime time.Time        `json:"serverTime"`
}

func (h *TrainsHandler) ListStations(w http.ResponseWriter, r *http.Request) {
	result := h.facade.ListStations(r.Context())

	respondJSON(w, http.StatusOK, StationsResponse{
		Stations:   result.Stations,
		Count:      len(result.Stations),
		Source:     result.Source,
		ServerTime: time.Now(),
	})
}

type TrainsResponse struct {
	Trains     []query.Train     `json:"trains"`
	Count      int               `json:"count"`
	Match      routing.MatchKind `json:"match"`
	Source     gateway.Origin    `json:"source"`
	ServerTime time.Time         `json:"serverTime"`
}

func (h *TrainsHandler) FindTrains(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")

	result, err := h.facade.FindTrains(r.Context(), from, to)
	if err != nil {
		h.respondQueryError(w, err)
		return
	}

	h.logger.Debug("FindTrains response",
		"from", from,
		"to", to,
		"count", len(result.Trains),
		"source", result.Source,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	respondJSON(w, http.StatusOK, TrainsResponse{
		Trains:     result.Trains,
		Count:      len(result.Trains),
		Match:      result.Match,
		Source:     result.Source,
		ServerTime: time.Now(),
	})
}

type FareResponse struct {
	Origin      string            `json:"origin"`
	Destination string            `json:"destination"`
	TrainClass  domain.TrainClass `json:"trainClass"`
	fare.Quote
}

func (h *TrainsHandler) GetFare(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to := q.Get("from"), q.Get("to")

	class, err := domain.ParseTrainClass(q.Get("class"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	quote, err := h.facade.QuoteFare(from, to, class)
	if err != nil {
		h.respondQueryError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, FareResponse{
		Origin:      from,
		Destination: to,
		TrainClass:  class,
		Quote:       quote,
	})
}

func (h *TrainsHandler) respondQueryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidQuery):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnknownStation):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error("query failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}
