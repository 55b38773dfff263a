package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ryanbaill/timetracking-automation/internal/clients"
	"github.com/ryanbaill/timetracking-automation/internal/config"
	"github.com/ryanbaill/timetracking-automation/internal/logger"
	"github.com/ryanbaill/timetracking-automation/internal/models"
	"github.com/ryanbaill/timetracking-automation/internal/queue"
	"github.com/ryanbaill/timetracking-automation/internal/repositories"
)

const workflowEntryDelete = "entry_delete"

// EntryDeleteWorkflow removes the target service counterpart of a deleted
// source service entry, then retires the mapping row. Delete failures are
// notified on every error path so operators can see missed removals before
// the source copy disappears for good.
type EntryDeleteWorkflow struct {
	cfg      config.SyncConfig
	logger   *logger.Logger
	source   clients.SourceClient
	target   clients.TargetClient
	mappings repositories.TimesheetMappingRepository
	queue    queue.RetryQueue
	notifier Notifier
}

// NewEntryDeleteWorkflow creates a new entry delete workflow
func NewEntryDeleteWorkflow(
	cfg *config.Config,
	log *logger.Logger,
	source clients.SourceClient,
	target clients.TargetClient,
	mappings repositories.TimesheetMappingRepository,
	retryQueue queue.RetryQueue,
	notifier Notifier,
) *EntryDeleteWorkflow {
	return &EntryDeleteWorkflow{
		cfg:      cfg.Sync,
		logger:   log,
		source:   source,
		target:   target,
		mappings: mappings,
		queue:    retryQueue,
		notifier: notifier,
	}
}

// Process runs the delete workflow for one inbound event
func (w *EntryDeleteWorkflow) Process(ctx context.Context, event *models.SyncEvent) *Result {
	log := w.logger.WithWorkflow(workflowEntryDelete).WithField("entity_id", event.EntityID)

	if isSuggested(event.EntityPath, w.cfg.SuggestionMarker) {
		log.Info("Skipping AI-generated suggestion deletion")
		return recordResult(workflowEntryDelete, SoftFailure("Skipped Deletion", "AI-generated suggestion ignored"))
	}

	// Confirms the webhook is not stale or duplicated before touching the
	// target service.
	entry, err := w.source.FetchEntry(ctx, event.EntityID)
	if err != nil {
		return recordResult(workflowEntryDelete, w.deletionError(ctx, log,
			fmt.Sprintf("Failed to fetch entry %d: %v", event.EntityID, err), true))
	}
	if entry == nil {
		return recordResult(workflowEntryDelete, w.deletionError(ctx, log,
			fmt.Sprintf("Event not found in source service for entity ID: %d", event.EntityID), false))
	}

	mapping, err := w.mappings.GetBySourceEntityID(ctx, event.EntityID)
	if err != nil {
		return recordResult(workflowEntryDelete, w.deletionError(ctx, log,
			fmt.Sprintf("Mapping store lookup failed for entity %d: %v", event.EntityID, err), true))
	}
	if mapping == nil || mapping.TargetEntryID == nil {
		return recordResult(workflowEntryDelete, w.deletionError(ctx, log,
			fmt.Sprintf("No matching entry found for entity ID: %d", event.EntityID), false))
	}

	session, err := w.target.Authenticate(ctx)
	if err != nil {
		return recordResult(workflowEntryDelete, w.deletionError(ctx, log,
			fmt.Sprintf("Failed to authenticate with target service: %v", err), true))
	}

	if err := w.target.DeleteTimesheet(ctx, session, *mapping.TargetEntryID); err != nil {
		// The mapping row is deliberately kept: it is the only remaining
		// pointer to the target entry once the source copy vanishes.
		return recordResult(workflowEntryDelete, w.deletionError(ctx, log,
			fmt.Sprintf("Failed to delete timesheet in target service: %v", err), false))
	}

	if err := w.mappings.Delete(ctx, event.EntityID); err != nil {
		log.WithError(err).Warn("Mapping store delete failed, deferring to retry queue")
		msg, merr := queue.NewDeleteEntryMessage(event.EntityID)
		if merr == nil {
			merr = w.queue.Enqueue(ctx, msg)
		}
		if merr != nil {
			desc := fmt.Sprintf("Mapping delete for entity %d lost: store delete and retry enqueue both failed: %v",
				event.EntityID, merr)
			w.notifier.Notify(ctx, "Mapping Store Error", desc)
			return recordResult(workflowEntryDelete, HardFailure("Mapping Store Error", desc))
		}
		retryEnqueues.WithLabelValues(string(queue.OpDeleteEntry)).Inc()
	}

	log.WithField("timesheet_id", *mapping.TargetEntryID).Info("Timesheet deleted from target service")
	return recordResult(workflowEntryDelete, Ok("Deletion Successful", "Timesheet entry deleted successfully"))
}

// deletionError reports a failed deletion. Every path notifies; hard marks
// system faults that escalate the status code as well.
func (w *EntryDeleteWorkflow) deletionError(ctx context.Context, log *logrus.Entry, description string, hard bool) *Result {
	log.Error(description)
	w.notifier.Notify(ctx, "Timesheet Deletion Error", description)
	if hard {
		return HardFailure("Deletion Error", description)
	}
	return SoftFailure("Deletion Error", description)
}
