package apihttp

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"
)

const defaultPingTimeout = 2 * time.Second

// Pinger reports database reachability.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler serves GET /healthz.
type HealthHandler struct {
	db      Pinger
	timeout time.Duration
	logger  *log.Logger
}

type healthResponse struct {
	Status string `json:"status"`
	DB     string `json:"db"`
}

// NewHealthHandler constructs a HealthHandler. A nil db reports the database as down.
func NewHealthHandler(db Pinger, logger *log.Logger) *HealthHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &HealthHandler{db: db, timeout: defaultPingTimeout, logger: logger}
}

// ServeHTTP pings the database and reports service health.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	status := http.StatusOK
	resp := healthResponse{Status: "ok", DB: "up"}
	if err := h.ping(r.Context()); err != nil {
		h.logger.Printf("healthz: db ping failed: %v", err)
		status = http.StatusServiceUnavailable
		resp = healthResponse{Status: "degraded", DB: "down"}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *HealthHandler) ping(ctx context.Context) error {
	if h.db == nil {
		return errNoDatabase
	}
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	return h.db.PingContext(ctx)
}
