package services

import (
	"context"
	"fmt"
	"time"

	"github.com/ryanbaill/timetracking-automation/internal/config"
	"github.com/ryanbaill/timetracking-automation/internal/logger"
	"github.com/ryanbaill/timetracking-automation/internal/queue"
	"github.com/ryanbaill/timetracking-automation/internal/repositories"
)

const workflowCleanup = "cleanup"

// CleanupService is the retention garbage collector over the mapping store.
// Rows dated strictly before the cutoff are removed in bounded batches; a
// single failed delete defers that row to the retry queue without aborting
// the rest of the batch.
type CleanupService struct {
	cfg      config.SyncConfig
	logger   *logger.Logger
	mappings repositories.TimesheetMappingRepository
	queue    queue.RetryQueue
	notifier Notifier

	now func() time.Time
}

// NewCleanupService creates a new cleanup service
func NewCleanupService(
	cfg *config.Config,
	log *logger.Logger,
	mappings repositories.TimesheetMappingRepository,
	retryQueue queue.RetryQueue,
	notifier Notifier,
) *CleanupService {
	return &CleanupService{
		cfg:      cfg.Sync,
		logger:   log,
		mappings: mappings,
		queue:    retryQueue,
		notifier: notifier,
		now:      time.Now,
	}
}

// Run executes one cleanup pass
func (s *CleanupService) Run(ctx context.Context) *Result {
	cutoff := s.now().UTC().AddDate(0, 0, -s.cfg.RetentionDays).Format("2006-01-02")
	log := s.logger.WithWorkflow(workflowCleanup).WithField("cutoff", cutoff)
	log.Info("Starting mapping store cleanup")

	batchSize := s.cfg.CleanupBatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	var deleted, found int
	var afterID int64
	for {
		rows, err := s.mappings.ListOlderThan(ctx, cutoff, afterID, batchSize)
		if err != nil {
			desc := fmt.Sprintf("Mapping store scan failed: %v", err)
			log.Error(desc)
			s.notifier.Notify(ctx, "Mapping Cleanup Error", desc)
			return recordResult(workflowCleanup, HardFailure("Cleanup Error", desc))
		}
		if len(rows) == 0 {
			break
		}

		for _, row := range rows {
			found++
			if err := s.mappings.Delete(ctx, row.SourceEntityID); err != nil {
				log.WithField("entity_id", row.SourceEntityID).WithError(err).Warn("Delete failed, deferring to retry queue")
				s.deferDelete(ctx, row.SourceEntityID)
				continue
			}
			deleted++
			cleanupDeletions.Inc()
		}

		afterID = rows[len(rows)-1].SourceEntityID
		if len(rows) < batchSize {
			break
		}
	}

	description := fmt.Sprintf("Items deleted: %d. Total items found: %d.", deleted, found)
	if deleted > 0 {
		s.notifier.Notify(ctx, "Mapping Cleanup Complete", description)
	} else {
		s.notifier.Notify(ctx, "Mapping Cleanup Complete", "No entries older than the retention window were found.")
	}

	log.WithField("deleted", deleted).WithField("found", found).Info("Cleanup pass finished")
	return recordResult(workflowCleanup, Ok("Cleanup Complete", description))
}

func (s *CleanupService) deferDelete(ctx context.Context, entityID int64) {
	msg, err := queue.NewDeleteEntryMessage(entityID)
	if err == nil {
		err = s.queue.Enqueue(ctx, msg)
	}
	if err != nil {
		desc := fmt.Sprintf("Cleanup delete for entity %d lost: delete and retry enqueue both failed: %v", entityID, err)
		s.logger.WithEntity(entityID).Error(desc)
		s.notifier.Notify(ctx, "Mapping Cleanup Error", desc)
		return
	}
	retryEnqueues.WithLabelValues(string(queue.OpDeleteEntry)).Inc()
}
