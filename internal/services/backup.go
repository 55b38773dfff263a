package services

import (
	"context"
	"fmt"
	"time"

	"github.com/ryanbaill/timetracking-automation/internal/clients"
	"github.com/ryanbaill/timetracking-automation/internal/config"
	"github.com/ryanbaill/timetracking-automation/internal/logger"
	"github.com/ryanbaill/timetracking-automation/internal/models"
	"github.com/ryanbaill/timetracking-automation/internal/queue"
	"github.com/ryanbaill/timetracking-automation/internal/repositories"
)

const (
	workflowBackupCreate = "backup_create"
	workflowBackupUpdate = "backup_update"
	workflowBackupDelete = "backup_delete"
)

// BackupService keeps a denormalized local snapshot of source service
// entries, independent of the cross-service mapping. The snapshot survives
// even for entries that never reached the target service, so it is the only
// durable record of skipped or failed entries.
type BackupService struct {
	cfg      config.SyncConfig
	logger   *logger.Logger
	source   clients.SourceClient
	backups  repositories.BackupEntryRepository
	queue    queue.RetryQueue
	notifier Notifier

	now func() time.Time
}

// NewBackupService creates a new backup service
func NewBackupService(
	cfg *config.Config,
	log *logger.Logger,
	source clients.SourceClient,
	backups repositories.BackupEntryRepository,
	retryQueue queue.RetryQueue,
	notifier Notifier,
) *BackupService {
	return &BackupService{
		cfg:      cfg.Sync,
		logger:   log,
		source:   source,
		backups:  backups,
		queue:    retryQueue,
		notifier: notifier,
		now:      time.Now,
	}
}

// snapshot builds the denormalized backup row for an entry
func (s *BackupService) snapshot(entry *clients.SourceEntry) *models.BackupEntry {
	var labelID *int64
	if len(entry.LabelIDs) > 0 {
		id := entry.LabelIDs[0]
		labelID = &id
	}

	return &models.BackupEntry{
		EntityID:    entry.ID,
		UserName:    entry.User.Name,
		ProjectName: entry.Project.Name,
		ClientName:  entry.Project.Client.Name,
		Hours:       int(entry.Duration / 3600),
		Minutes:     int((entry.Duration % 3600) / 60),
		Note:        entry.Note,
		LabelID:     labelID,
		UpdatedAt:   entry.UpdatedAt,
		DateAdded:   s.now().UTC().Format("2006-01-02"),
	}
}

// Create stores a backup snapshot for a newly created entry
func (s *BackupService) Create(ctx context.Context, event *models.SyncEvent) *Result {
	return recordResult(workflowBackupCreate, s.store(ctx, workflowBackupCreate, event, queue.OpStoreBackup))
}

// Update rewrites the backup snapshot for an edited entry
func (s *BackupService) Update(ctx context.Context, event *models.SyncEvent) *Result {
	return recordResult(workflowBackupUpdate, s.store(ctx, workflowBackupUpdate, event, queue.OpUpdateBackup))
}

func (s *BackupService) store(ctx context.Context, workflow string, event *models.SyncEvent, op queue.Operation) *Result {
	log := s.logger.WithWorkflow(workflow).WithField("entity_id", event.EntityID)

	if isSuggested(event.EntityPath, s.cfg.SuggestionMarker) {
		log.Info("Skipping AI-generated suggestion")
		return SoftFailure("Skipped Entry", "AI-generated suggestion ignored")
	}

	entry, err := s.source.FetchEntry(ctx, event.EntityID)
	if err != nil {
		desc := fmt.Sprintf("Failed to fetch entry %d: %v", event.EntityID, err)
		log.Error(desc)
		s.notifier.Notify(ctx, "Backup Error", desc)
		return HardFailure("Fetch Error", desc)
	}
	if entry == nil {
		return SoftFailure("Fetch Error", "Failed to fetch event details")
	}

	row := s.snapshot(entry)
	if err := s.backups.Put(ctx, row); err != nil {
		log.WithError(err).Warn("Backup store write failed, deferring to retry queue")
		msg, merr := newBackupMessage(op, row)
		if merr == nil {
			merr = s.queue.Enqueue(ctx, msg)
		}
		if merr != nil {
			desc := fmt.Sprintf("Failed to write backup entry and queue retry: %v", merr)
			s.notifier.Notify(ctx, "Backup Error", desc)
			return HardFailure("Backup Error", desc)
		}
		retryEnqueues.WithLabelValues(string(op)).Inc()
		return Ok("Queued", "Entry queued for retry")
	}

	return Ok("Success", "Entry backed up successfully")
}

func newBackupMessage(op queue.Operation, row *models.BackupEntry) (*queue.Message, error) {
	if op == queue.OpUpdateBackup {
		return queue.NewUpdateBackupMessage(row)
	}
	return queue.NewStoreBackupMessage(row)
}

// Delete removes the backup snapshot for a deleted entry. Missing snapshots
// report not-found; this is the only workflow that surfaces a 404.
func (s *BackupService) Delete(ctx context.Context, event *models.SyncEvent) *Result {
	log := s.logger.WithWorkflow(workflowBackupDelete).WithField("entity_id", event.EntityID)

	if isSuggested(event.EntityPath, s.cfg.SuggestionMarker) {
		log.Info("Skipping AI-generated suggestion deletion")
		return recordResult(workflowBackupDelete, SoftFailure("Skipped Entry", "AI-generated suggestion ignored"))
	}

	existing, err := s.backups.GetByEntityID(ctx, event.EntityID)
	if err != nil {
		desc := fmt.Sprintf("Backup store lookup failed for entity %d: %v", event.EntityID, err)
		log.Error(desc)
		s.notifier.Notify(ctx, "Backup Entry Deletion Error", desc)
		return recordResult(workflowBackupDelete, HardFailure("Backup Error", desc))
	}
	if existing == nil {
		return recordResult(workflowBackupDelete, NotFoundFailure("Not Found", "Backup entry not found"))
	}

	if err := s.backups.Delete(ctx, event.EntityID); err != nil {
		log.WithError(err).Warn("Backup delete failed, deferring to retry queue")
		msg, merr := queue.NewDeleteBackupMessage(event.EntityID)
		if merr == nil {
			merr = s.queue.Enqueue(ctx, msg)
		}
		if merr != nil {
			desc := fmt.Sprintf("Failed to delete backup entry and queue retry: %v", merr)
			s.notifier.Notify(ctx, "Backup Entry Deletion Error", desc)
			return recordResult(workflowBackupDelete, HardFailure("Backup Error", desc))
		}
		retryEnqueues.WithLabelValues(string(queue.OpDeleteBackup)).Inc()
		return recordResult(workflowBackupDelete, Ok("Queued", "Deletion queued for retry"))
	}

	return recordResult(workflowBackupDelete, Ok("Success", "Entry deleted successfully"))
}
