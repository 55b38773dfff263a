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

const workflowEntryUpdate = "entry_update"

// EntryUpdateWorkflow propagates an edit of a source service time entry to
// its already-created counterpart in the target service. It requires a
// mapping row from a prior create; without one there is nothing to update.
type EntryUpdateWorkflow struct {
	cfg      config.SyncConfig
	logger   *logger.Logger
	source   clients.SourceClient
	target   clients.TargetClient
	mappings repositories.TimesheetMappingRepository
	tasks    repositories.TaskMappingRepository
	queue    queue.RetryQueue
	notifier Notifier
}

// NewEntryUpdateWorkflow creates a new entry update workflow
func NewEntryUpdateWorkflow(
	cfg *config.Config,
	log *logger.Logger,
	source clients.SourceClient,
	target clients.TargetClient,
	mappings repositories.TimesheetMappingRepository,
	tasks repositories.TaskMappingRepository,
	retryQueue queue.RetryQueue,
	notifier Notifier,
) *EntryUpdateWorkflow {
	return &EntryUpdateWorkflow{
		cfg:      cfg.Sync,
		logger:   log,
		source:   source,
		target:   target,
		mappings: mappings,
		tasks:    tasks,
		queue:    retryQueue,
		notifier: notifier,
	}
}

// Process runs the update workflow for one inbound event
func (w *EntryUpdateWorkflow) Process(ctx context.Context, event *models.SyncEvent) *Result {
	log := w.logger.WithWorkflow(workflowEntryUpdate).WithField("entity_id", event.EntityID)

	if isSuggested(event.EntityPath, w.cfg.SuggestionMarker) {
		log.Info("Skipping AI-generated suggestion")
		return recordResult(workflowEntryUpdate, SoftFailure("Skipped Entry", "AI-generated suggestion ignored"))
	}

	entry, err := w.source.FetchEntry(ctx, event.EntityID)
	if err != nil {
		return recordResult(workflowEntryUpdate, w.hardFailure(ctx, log, "Processing Error",
			fmt.Sprintf("Failed to fetch entry %d: %v", event.EntityID, err)))
	}
	if entry == nil {
		// A vanished entry on an update webhook means the upstream delete
		// raced ahead of this event; the delete workflow owns it.
		log.Info("Entry gone from source service, treating update as misrouted deletion")
		return recordResult(workflowEntryUpdate, SoftFailure("Script Aborted", "Deletion flagged as update. Script aborted."))
	}

	labelID, ok := resolveLabel(entry.LabelIDs, w.cfg.ExcludedLabelIDs)
	if !ok {
		return recordResult(workflowEntryUpdate, SoftFailure("Invalid Entry", "No valid label ID found after excluding specified IDs"))
	}

	taskName, err := w.tasks.GetTaskName(ctx, labelID)
	if err != nil {
		return recordResult(workflowEntryUpdate, w.hardFailure(ctx, log, "Processing Error",
			fmt.Sprintf("Task mapping lookup failed for label %d: %v", labelID, err)))
	}
	if taskName == "" {
		return recordResult(workflowEntryUpdate, SoftFailure("Mapping Error",
			fmt.Sprintf("No task mapping found for label ID: %d", labelID)))
	}

	mapping, err := w.mappings.GetBySourceEntityID(ctx, event.EntityID)
	if err != nil {
		return recordResult(workflowEntryUpdate, w.hardFailure(ctx, log, "Processing Error",
			fmt.Sprintf("Mapping store lookup failed for entity %d: %v", event.EntityID, err)))
	}
	if mapping == nil || mapping.TargetEntryID == nil {
		return recordResult(workflowEntryUpdate, SoftFailure("No Entry Found", "No entry ID found. Cannot update timesheet."))
	}

	session, err := w.target.Authenticate(ctx)
	if err != nil {
		return recordResult(workflowEntryUpdate, w.hardFailure(ctx, log, "Auth Error",
			fmt.Sprintf("Failed to authenticate with target service: %v", err)))
	}

	targetTasks, err := w.target.ListTasks(ctx, session, entry.Project.ExternalID)
	if err != nil {
		return recordResult(workflowEntryUpdate, w.hardFailure(ctx, log, "Processing Error",
			fmt.Sprintf("Failed to fetch tasks for job %s: %v", entry.Project.ExternalID, err)))
	}

	taskID, ok := findTaskID(targetTasks, taskName)
	if !ok {
		return recordResult(workflowEntryUpdate, SoftFailure("Task ID Not Found",
			fmt.Sprintf("No matching task ID found for task name: %s", taskName)))
	}

	var personnelID int64
	if mapping.TargetExternalID != nil {
		personnelID = *mapping.TargetExternalID
	}

	submission := buildSubmission(entry, taskID, personnelID)
	if err := w.target.UpdateTimesheet(ctx, session, *mapping.TargetEntryID, submission); err != nil {
		msg := fmt.Sprintf("Target service update failed: %v", err)
		w.notifier.Notify(ctx, "Update Error", msg)
		return recordResult(workflowEntryUpdate, SoftFailure("Update Error", msg))
	}

	// Re-put the mapping so its date tracks the entry; the key and target
	// entry ID never change on update.
	updated := &models.TimesheetMapping{
		SourceEntityID:   event.EntityID,
		TargetEntryID:    mapping.TargetEntryID,
		TargetExternalID: mapping.TargetExternalID,
		Date:             submission.Date,
	}
	if err := w.mappings.Put(ctx, updated); err != nil {
		log.WithError(err).Warn("Mapping store update failed, deferring to retry queue")
		if res := w.deferMapping(ctx, updated); res != nil {
			return recordResult(workflowEntryUpdate, res)
		}
	}

	log.WithField("timesheet_id", *mapping.TargetEntryID).Info("Timesheet updated in target service")
	return recordResult(workflowEntryUpdate, Ok("Update Successful", "The timesheet entry was updated successfully."))
}

func (w *EntryUpdateWorkflow) deferMapping(ctx context.Context, mapping *models.TimesheetMapping) *Result {
	msg, err := queue.NewUpdateMappingMessage(mapping)
	if err == nil {
		err = w.queue.Enqueue(ctx, msg)
	}
	if err != nil {
		desc := fmt.Sprintf("Mapping for entity %d lost: store update and retry enqueue both failed: %v",
			mapping.SourceEntityID, err)
		w.notifier.Notify(ctx, "Mapping Store Error", desc)
		return HardFailure("Mapping Store Error", desc)
	}
	retryEnqueues.WithLabelValues(string(queue.OpUpdateMapping)).Inc()
	return nil
}

func (w *EntryUpdateWorkflow) hardFailure(ctx context.Context, log *logrus.Entry, title, description string) *Result {
	log.Error(description)
	w.notifier.Notify(ctx, title, description)
	return HardFailure(title, description)
}
