package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ryanbaill/timetracking-automation/internal/logger"
	"github.com/ryanbaill/timetracking-automation/internal/models"
	"github.com/ryanbaill/timetracking-automation/internal/services"
)

// maxWebhookBody bounds inbound webhook payload size
const maxWebhookBody = 1 << 20

// webhookResponse is the response body shape all webhook endpoints share
type webhookResponse struct {
	Source  string                 `json:"source"`
	Content webhookResponseContent `json:"content"`
}

type webhookResponseContent struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// WebhookHandler routes inbound entry webhooks to their workflows
type WebhookHandler struct {
	logger    *logger.Logger
	validator *models.ValidationService
	create    *services.EntryCreateWorkflow
	update    *services.EntryUpdateWorkflow
	delete    *services.EntryDeleteWorkflow
	backup    *services.BackupService
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(
	log *logger.Logger,
	validator *models.ValidationService,
	create *services.EntryCreateWorkflow,
	update *services.EntryUpdateWorkflow,
	delete *services.EntryDeleteWorkflow,
	backup *services.BackupService,
) *WebhookHandler {
	return &WebhookHandler{
		logger:    log,
		validator: validator,
		create:    create,
		update:    update,
		delete:    delete,
		backup:    backup,
	}
}

// RegisterRoutes registers all webhook endpoints
func (h *WebhookHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/webhooks/entries/created", h.HandleEntryCreated).Methods("POST")
	router.HandleFunc("/webhooks/entries/updated", h.HandleEntryUpdated).Methods("POST")
	router.HandleFunc("/webhooks/entries/deleted", h.HandleEntryDeleted).Methods("POST")
	router.HandleFunc("/webhooks/backup/created", h.HandleBackupCreated).Methods("POST")
	router.HandleFunc("/webhooks/backup/updated", h.HandleBackupUpdated).Methods("POST")
	router.HandleFunc("/webhooks/backup/deleted", h.HandleBackupDeleted).Methods("POST")
}

// HandleEntryCreated processes an entry-created webhook
func (h *WebhookHandler) HandleEntryCreated(w http.ResponseWriter, r *http.Request) {
	h.handleEvent(w, r, h.create.Process)
}

// HandleEntryUpdated processes an entry-updated webhook
func (h *WebhookHandler) HandleEntryUpdated(w http.ResponseWriter, r *http.Request) {
	h.handleEvent(w, r, h.update.Process)
}

// HandleEntryDeleted processes an entry-deleted webhook
func (h *WebhookHandler) HandleEntryDeleted(w http.ResponseWriter, r *http.Request) {
	h.handleEvent(w, r, h.delete.Process)
}

// HandleBackupCreated snapshots a newly created entry
func (h *WebhookHandler) HandleBackupCreated(w http.ResponseWriter, r *http.Request) {
	h.handleEvent(w, r, h.backup.Create)
}

// HandleBackupUpdated refreshes the snapshot of an edited entry
func (h *WebhookHandler) HandleBackupUpdated(w http.ResponseWriter, r *http.Request) {
	h.handleEvent(w, r, h.backup.Update)
}

// HandleBackupDeleted removes the snapshot of a deleted entry
func (h *WebhookHandler) HandleBackupDeleted(w http.ResponseWriter, r *http.Request) {
	h.handleEvent(w, r, h.backup.Delete)
}

// handleEvent parses, validates, and dispatches one webhook event. Malformed
// payloads are rejected with a 400 before any workflow side effect.
func (h *WebhookHandler) handleEvent(w http.ResponseWriter, r *http.Request, process func(context.Context, *models.SyncEvent) *services.Result) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.logger.WithError(err).Error("Failed to read webhook body")
		writeResponse(w, http.StatusBadRequest, "Invalid Event", "Failed to read request body")
		return
	}

	event, err := models.ParseSyncEvent(body)
	if err != nil {
		h.logger.WithError(err).Warn("Rejected malformed webhook payload")
		writeResponse(w, http.StatusBadRequest, "Invalid Event", "Missing required payload data")
		return
	}

	if err := h.validator.ValidateStruct(event); err != nil {
		h.logger.WithError(err).Warn("Rejected invalid webhook event")
		writeResponse(w, http.StatusBadRequest, "Invalid Event", err.Error())
		return
	}

	result := process(r.Context(), event)
	writeResponse(w, result.StatusCode, result.Title, result.Description)
}

// writeResponse renders the shared webhook response envelope
func writeResponse(w http.ResponseWriter, statusCode int, title, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(webhookResponse{
		Source: "custom",
		Content: webhookResponseContent{
			Title:       title,
			Description: description,
		},
	})
}
