package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"

	"github.com/ryanbaill/timetracking-automation/internal/database"
)

// HealthHandler reports process and dependency health
type HealthHandler struct {
	db    *database.Connection
	redis *redis.Client
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *database.Connection, redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{
		db:    db,
		redis: redisClient,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components"`
}

// RegisterRoutes registers the health endpoints
func (h *HealthHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.HandleHealthCheck).Methods("GET")
	router.HandleFunc("/health/live", h.HandleLivenessProbe).Methods("GET")
}

// HandleHealthCheck reports the health of the mapping store and retry queue
func (h *HealthHandler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	components := map[string]string{
		"database": "healthy",
		"redis":    "healthy",
	}
	status := "healthy"

	if err := h.db.Ping(ctx); err != nil {
		components["database"] = err.Error()
		status = "unhealthy"
	}
	if err := h.redis.Ping(ctx).Err(); err != nil {
		components["redis"] = err.Error()
		status = "unhealthy"
	}

	w.Header().Set("Content-Type", "application/json")
	if status != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(HealthResponse{
		Status:     status,
		Timestamp:  time.Now(),
		Components: components,
	})
}

// HandleLivenessProbe reports that the process is serving requests
func (h *HealthHandler) HandleLivenessProbe(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "alive"})
}
