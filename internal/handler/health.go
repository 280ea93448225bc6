package handler

import (
	"net/http"
	"time"

	"trainfinder/internal/catalog"
	"trainfinder/internal/gateway"
)

type HealthHandler struct {
	gateway *gateway.Gateway
	catalog *catalog.Catalog
}

func NewHealthHandler(gw *gateway.Gateway, c *catalog.Catalog) *HealthHandler {
	return &HealthHandler{
		gateway: gw,
		catalog: c,
	}
}

func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

type ReadyResponse struct {
	Ready        bool          `json:"ready"`
	GatewayState gateway.State `json:"gatewayState"`
	StationCount int           `json:"stationCount"`
	ServerTime   time.Time     `json:"serverTime"`
}

// Readyz reports ready once the catalog is loaded; the catalog answers
// every query whatever the gateway state.
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	stations := 0
	if h.catalog != nil {
		stations = len(h.catalog.AllStations())
	}
	ready := stations > 0
	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}

	respondJSON(w, status, ReadyResponse{
		Ready:        ready,
		GatewayState: h.gateway.State(),
		StationCount: stations,
		ServerTime:   time.Now(),
	})
}

func (h *HealthHandler) Status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.gateway.Status())
}
