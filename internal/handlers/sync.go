package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ryanbaill/timetracking-automation/internal/logger"
	"github.com/ryanbaill/timetracking-automation/internal/services"
)

// SyncHandler exposes the timer-style workflows as trigger endpoints. The
// endpoints take no input; an external scheduler posts to them on a cadence.
type SyncHandler struct {
	logger         *logger.Logger
	reconciliation *services.ReconciliationService
	cleanup        *services.CleanupService
}

// NewSyncHandler creates a new sync trigger handler
func NewSyncHandler(log *logger.Logger, reconciliation *services.ReconciliationService, cleanup *services.CleanupService) *SyncHandler {
	return &SyncHandler{
		logger:         log,
		reconciliation: reconciliation,
		cleanup:        cleanup,
	}
}

// RegisterRoutes registers all trigger endpoints
func (h *SyncHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/triggers/job-sync", h.HandleJobSync).Methods("POST")
	router.HandleFunc("/triggers/job-changes", h.HandleJobChanges).Methods("POST")
	router.HandleFunc("/triggers/cleanup", h.HandleCleanup).Methods("POST")
}

// HandleJobSync runs the combined client and project sync passes
func (h *SyncHandler) HandleJobSync(w http.ResponseWriter, r *http.Request) {
	result := h.reconciliation.RunJobSync(r.Context())
	writeResponse(w, result.StatusCode, result.Title, result.Description)
}

// HandleJobChanges runs the update/delete reconciliation pass
func (h *SyncHandler) HandleJobChanges(w http.ResponseWriter, r *http.Request) {
	result := h.reconciliation.RunChanges(r.Context())
	writeResponse(w, result.StatusCode, result.Title, result.Description)
}

// HandleCleanup runs one retention cleanup pass over the mapping store
func (h *SyncHandler) HandleCleanup(w http.ResponseWriter, r *http.Request) {
	result := h.cleanup.Run(r.Context())
	writeResponse(w, result.StatusCode, result.Title, result.Description)
}
