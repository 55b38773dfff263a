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

const workflowEntryCreate = "entry_create"

// EntryCreateWorkflow moves a newly created source service time entry into
// the target service and records the resulting cross-service mapping. Each
// invocation is stateless and run-to-completion; concurrent invocations for
// different entries are safe because the mapping key is the source entity ID.
type EntryCreateWorkflow struct {
	cfg      config.SyncConfig
	logger   *logger.Logger
	source   clients.SourceClient
	target   clients.TargetClient
	mappings repositories.TimesheetMappingRepository
	tasks    repositories.TaskMappingRepository
	queue    queue.RetryQueue
	notifier Notifier
}

// NewEntryCreateWorkflow creates a new entry create workflow
func NewEntryCreateWorkflow(
	cfg *config.Config,
	log *logger.Logger,
	source clients.SourceClient,
	target clients.TargetClient,
	mappings repositories.TimesheetMappingRepository,
	tasks repositories.TaskMappingRepository,
	retryQueue queue.RetryQueue,
	notifier Notifier,
) *EntryCreateWorkflow {
	return &EntryCreateWorkflow{
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

// Process runs the create workflow for one inbound event
func (w *EntryCreateWorkflow) Process(ctx context.Context, event *models.SyncEvent) *Result {
	log := w.logger.WithWorkflow(workflowEntryCreate).WithField("entity_id", event.EntityID)

	if isSuggested(event.EntityPath, w.cfg.SuggestionMarker) {
		log.Info("Skipping AI-generated suggestion")
		return recordResult(workflowEntryCreate, SoftFailure("Skipped Entry", "AI-generated suggestion ignored"))
	}

	entry, err := w.source.FetchEntry(ctx, event.EntityID)
	if err != nil {
		return recordResult(workflowEntryCreate, w.hardFailure(ctx, log, "Processing Error",
			fmt.Sprintf("Failed to fetch entry %d: %v", event.EntityID, err)))
	}
	if entry == nil {
		return recordResult(workflowEntryCreate, SoftFailure("Fetch Error", "Failed to retrieve event data"))
	}

	labelID, ok := resolveLabel(entry.LabelIDs, w.cfg.ExcludedLabelIDs)
	if !ok {
		return recordResult(workflowEntryCreate, SoftFailure("Invalid Entry", "No valid label ID found"))
	}

	taskName, err := w.tasks.GetTaskName(ctx, labelID)
	if err != nil {
		return recordResult(workflowEntryCreate, w.hardFailure(ctx, log, "Processing Error",
			fmt.Sprintf("Task mapping lookup failed for label %d: %v", labelID, err)))
	}
	if taskName == "" {
		return recordResult(workflowEntryCreate, SoftFailure("Mapping Error",
			fmt.Sprintf("No task mapping found for label ID: %d", labelID)))
	}

	session, err := w.target.Authenticate(ctx)
	if err != nil {
		return recordResult(workflowEntryCreate, w.hardFailure(ctx, log, "Auth Error",
			fmt.Sprintf("Failed to authenticate with target service: %v", err)))
	}

	targetTasks, err := w.target.ListTasks(ctx, session, entry.Project.ExternalID)
	if err != nil {
		return recordResult(workflowEntryCreate, w.hardFailure(ctx, log, "Processing Error",
			fmt.Sprintf("Failed to fetch tasks for job %s: %v", entry.Project.ExternalID, err)))
	}

	taskID, ok := findTaskID(targetTasks, taskName)
	if !ok {
		return recordResult(workflowEntryCreate, SoftFailure("Task Error",
			fmt.Sprintf("No matching task ID found for task name: %s", taskName)))
	}

	user, err := w.source.FetchUser(ctx, entry.User.ID)
	if err != nil {
		return recordResult(workflowEntryCreate, w.hardFailure(ctx, log, "Processing Error",
			fmt.Sprintf("Failed to fetch user %d: %v", entry.User.ID, err)))
	}

	var externalID *int64
	var personnelID int64
	if user != nil && user.ExternalID != nil {
		externalID = user.ExternalID
		personnelID = *user.ExternalID
	}

	submission := buildSubmission(entry, taskID, personnelID)
	timesheetID, err := w.target.CreateTimesheet(ctx, session, submission)
	if err != nil {
		// Not retried: resubmitting after an ambiguous failure risks a
		// double-created timesheet.
		msg := fmt.Sprintf("Target service submission failed: %v", err)
		w.notifier.Notify(ctx, "Submission Error", msg)
		return recordResult(workflowEntryCreate, SoftFailure("Submission Error", msg))
	}

	mapping := &models.TimesheetMapping{
		SourceEntityID:   event.EntityID,
		TargetEntryID:    &timesheetID,
		TargetExternalID: externalID,
		Date:             submission.Date,
	}
	if err := w.mappings.Put(ctx, mapping); err != nil {
		log.WithError(err).Warn("Mapping store write failed, deferring to retry queue")
		if res := w.deferMapping(ctx, mapping); res != nil {
			return recordResult(workflowEntryCreate, res)
		}
	}

	log.WithField("timesheet_id", timesheetID).Info("Timesheet created in target service")
	return recordResult(workflowEntryCreate, Ok("Success", "Timesheet processed successfully"))
}

// deferMapping enqueues a write_mapping retry. A nil return means the retry
// is safely queued; a non-nil result means the deferred write was lost and
// must surface as a hard failure.
func (w *EntryCreateWorkflow) deferMapping(ctx context.Context, mapping *models.TimesheetMapping) *Result {
	msg, err := queue.NewWriteMappingMessage(mapping)
	if err == nil {
		err = w.queue.Enqueue(ctx, msg)
	}
	if err != nil {
		desc := fmt.Sprintf("Mapping for entity %d lost: store write and retry enqueue both failed: %v",
			mapping.SourceEntityID, err)
		w.notifier.Notify(ctx, "Mapping Store Error", desc)
		return HardFailure("Mapping Store Error", desc)
	}
	retryEnqueues.WithLabelValues(string(queue.OpWriteMapping)).Inc()
	return nil
}

func (w *EntryCreateWorkflow) hardFailure(ctx context.Context, log *logrus.Entry, title, description string) *Result {
	log.Error(description)
	w.notifier.Notify(ctx, title, description)
	return HardFailure(title, description)
}
