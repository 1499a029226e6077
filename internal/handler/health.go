package handler

import (
	"context"
	"net/http"
	"time"
)

// Pinger checks that a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RosterStatus reports whether the in-memory roster has been loaded.
type RosterStatus interface {
	Ready() bool
	LastSync() time.Time
	Version() string
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status   string     `json:"status"`
	Database string     `json:"database"`
	Roster   string     `json:"roster"`
	Version  string     `json:"version,omitempty"`
	LastSync *time.Time `json:"last_sync,omitempty"`
}

// HealthHandler serves the liveness/readiness probe
type HealthHandler struct {
	db      Pinger
	roster  RosterStatus
	timeout time.Duration
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db Pinger, roster RosterStatus) *HealthHandler {
	return &HealthHandler{db: db, roster: roster, timeout: 2 * time.Second}
}

// RegisterRoutes registers the health route
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
}

// Health handles GET /health
// Returns 503 until the database answers and the roster has synced once.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp := HealthResponse{Status: "ok", Database: "ok", Roster: "ready"}
	status := http.StatusOK

	if err := h.db.Ping(ctx); err != nil {
		resp.Database = "unreachable"
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}

	if h.roster.Ready() {
		resp.Version = h.roster.Version()
		last := h.roster.LastSync()
		resp.LastSync = &last
	} else {
		resp.Roster = "loading"
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}

	WriteJSON(w, status, resp)
}
