package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ryanbaill/timetracking-automation/internal/clients"
	"github.com/ryanbaill/timetracking-automation/internal/config"
	"github.com/ryanbaill/timetracking-automation/internal/logger"
	"github.com/ryanbaill/timetracking-automation/internal/models"
	"github.com/ryanbaill/timetracking-automation/internal/queue"
	"github.com/ryanbaill/timetracking-automation/internal/repositories"
)

const (
	workflowJobSync    = "job_sync"
	workflowJobChanges = "job_changes"
)

// ClientSyncResult reports one client synchronization pass. Failed creates
// carry their construction payloads so the caller can enqueue them for
// replay; the pass itself never touches the retry queue.
type ClientSyncResult struct {
	Created  []string
	Existing int
	Failed   []*clients.ClientPayload
	// Clients maps normalized client code to source service client ID,
	// including clients created during this pass.
	Clients map[string]int64
}

// ProjectSyncResult reports one project synchronization pass
type ProjectSyncResult struct {
	Created []string
	Skipped []string
	Failed  []*clients.ProjectPayload
}

// ChangeResult reports one update/delete reconciliation pass. Retries holds
// deferred snapshot writes for the caller to enqueue.
type ChangeResult struct {
	Updated  []int64
	Deleted  []int64
	Orphaned []int64
	Retries  []*queue.Message
}

// NoChanges reports whether the pass found both systems already converged
func (r *ChangeResult) NoChanges() bool {
	return len(r.Updated) == 0 && len(r.Deleted) == 0 && len(r.Orphaned) == 0
}

// ReconciliationService converges the source service's clients and projects
// to the target service's jobs, and keeps the local job snapshot current.
// The sync passes are one-directional: the target service is the system of
// record for jobs and clients.
type ReconciliationService struct {
	cfg      config.SyncConfig
	logger   *logger.Logger
	source   clients.SourceClient
	target   clients.TargetClient
	jobs     repositories.JobRecordRepository
	queue    queue.RetryQueue
	notifier Notifier
}

// NewReconciliationService creates a new reconciliation service
func NewReconciliationService(
	cfg *config.Config,
	log *logger.Logger,
	source clients.SourceClient,
	target clients.TargetClient,
	jobs repositories.JobRecordRepository,
	retryQueue queue.RetryQueue,
	notifier Notifier,
) *ReconciliationService {
	return &ReconciliationService{
		cfg:      cfg.Sync,
		logger:   log,
		source:   source,
		target:   target,
		jobs:     jobs,
		queue:    retryQueue,
		notifier: notifier,
	}
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// SyncClients creates a source service client for every target service
// client whose normalized code is unknown to the source service
func (s *ReconciliationService) SyncClients(ctx context.Context, session clients.Session) (*ClientSyncResult, error) {
	targetClients, err := s.target.ListClients(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch target service clients: %w", err)
	}

	sourceClients, err := s.source.ListClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch source service clients: %w", err)
	}

	result := &ClientSyncResult{Clients: sourceClients}
	for _, client := range targetClients {
		code := normalizeName(client.Code)
		if _, exists := sourceClients[code]; exists {
			result.Existing++
			continue
		}

		payload := &clients.ClientPayload{
			Name:       client.Code,
			Active:     true,
			ExternalID: client.ID,
		}
		newID, err := s.source.CreateClient(ctx, payload)
		if err != nil {
			s.logger.WithField("client_code", client.Code).WithError(err).Error("Failed to create client")
			result.Failed = append(result.Failed, payload)
			continue
		}
		sourceClients[code] = newID
		result.Created = append(result.Created, client.Code)
	}
	return result, nil
}

// SyncProjects creates a source service project for every target service job
// whose normalized "{name} - {code}" has no matching project. Jobs whose
// client is unknown are skipped without retry: a project without a
// resolvable client cannot be meaningfully created.
func (s *ReconciliationService) SyncProjects(ctx context.Context, session clients.Session, sourceClients map[string]int64, date string) (*ProjectSyncResult, error) {
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}

	targetJobs, err := s.target.ListJobs(ctx, session, date)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch target service jobs: %w", err)
	}

	sourceProjects, err := s.source.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch source service projects: %w", err)
	}

	existing := make(map[string]bool, len(sourceProjects))
	for _, project := range sourceProjects {
		existing[normalizeName(project.Name)] = true
	}

	result := &ProjectSyncResult{}
	for _, job := range targetJobs {
		projectName := fmt.Sprintf("%s - %s", job.JobName, job.JobCode)
		if existing[normalizeName(projectName)] {
			continue
		}

		clientID, found := sourceClients[normalizeName(job.ClientCode)]
		if !found {
			s.logger.WithJob(job.JobID).WithField("client_code", job.ClientCode).Warn("No client found for project, skipping")
			result.Skipped = append(result.Skipped, projectName)
			continue
		}

		payload := s.buildProjectPayload(projectName, clientID, job.JobID)
		if err := s.source.CreateProject(ctx, payload); err != nil {
			s.logger.WithJob(job.JobID).WithError(err).Error("Failed to create project")
			result.Failed = append(result.Failed, payload)
			continue
		}
		result.Created = append(result.Created, projectName)
	}
	return result, nil
}

// buildProjectPayload applies the fixed project defaults: color, rate type,
// the static reviewer roster, and the label roster with the first label
// required
func (s *ReconciliationService) buildProjectPayload(name string, clientID, jobID int64) *clients.ProjectPayload {
	users := make([]clients.ProjectUser, 0, len(s.cfg.ProjectUserIDs))
	for _, id := range s.cfg.ProjectUserIDs {
		users = append(users, clients.ProjectUser{UserID: id})
	}

	labelIDs := s.cfg.ProjectLabelIDs()
	labels := make([]clients.ProjectLabel, 0, len(labelIDs))
	for i, id := range labelIDs {
		labels = append(labels, clients.ProjectLabel{Required: i == 0, LabelID: id})
	}

	return &clients.ProjectPayload{
		Name:         name,
		ClientID:     clientID,
		Color:        s.cfg.ProjectColor,
		RateType:     s.cfg.ProjectRateType,
		Users:        users,
		Labels:       labels,
		EnableLabels: s.cfg.ProjectEnableMode,
		ExternalID:   jobID,
	}
}

// ProcessChanges diffs the live target service job list against the local
// snapshot and against the source service's projects. Snapshot write
// failures become retry messages in the result; orphaned-project deletes are
// attempted inline and simply logged on failure.
func (s *ReconciliationService) ProcessChanges(ctx context.Context) (*ChangeResult, error) {
	session, err := s.target.Authenticate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate with target service: %w", err)
	}

	liveJobs, err := s.target.FetchAllActiveJobs(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch target service jobs: %w", err)
	}
	if len(liveJobs) == 0 {
		return nil, fmt.Errorf("no jobs found in target service")
	}

	snapshot, err := s.jobs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch job snapshot: %w", err)
	}

	sourceProjects, err := s.source.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch source service projects: %w", err)
	}

	live := make(map[int64]*models.JobRecord, len(liveJobs))
	for _, job := range liveJobs {
		live[job.JobID] = job
	}
	mirrored := make(map[int64]*models.JobRecord, len(snapshot))
	for _, job := range snapshot {
		mirrored[job.JobID] = job
	}

	result := &ChangeResult{}

	// New or drifted jobs overwrite their snapshot row whole.
	for jobID, job := range live {
		if existing, ok := mirrored[jobID]; ok && existing.Equal(*job) {
			continue
		}
		if err := s.jobs.Upsert(ctx, job); err != nil {
			s.logger.WithJob(jobID).WithError(err).Error("Failed to upsert job snapshot, deferring")
			if msg, merr := queue.NewUpdateJobMessage(job); merr == nil {
				result.Retries = append(result.Retries, msg)
			}
			continue
		}
		result.Updated = append(result.Updated, jobID)
		reconciliationChanges.WithLabelValues("updated").Inc()
	}

	// Jobs gone from the live list leave the snapshot.
	for jobID := range mirrored {
		if _, ok := live[jobID]; ok {
			continue
		}
		if err := s.jobs.Delete(ctx, jobID); err != nil {
			s.logger.WithJob(jobID).WithError(err).Error("Failed to delete job snapshot, deferring")
			if msg, merr := queue.NewDeleteJobMessage(jobID); merr == nil {
				result.Retries = append(result.Retries, msg)
			}
			continue
		}
		result.Deleted = append(result.Deleted, jobID)
		reconciliationChanges.WithLabelValues("deleted").Inc()
	}

	// Source projects pointing at jobs that no longer exist are orphans.
	// A project with a missing or non-numeric external ID is skipped, never
	// deleted on a parse failure.
	for _, project := range sourceProjects {
		externalID, err := strconv.ParseInt(strings.TrimSpace(project.ExternalID), 10, 64)
		if err != nil {
			s.logger.WithField("project_id", project.ID).WithField("external_id", project.ExternalID).
				Warn("Skipping project with unparseable external ID")
			continue
		}
		if _, ok := live[externalID]; ok {
			continue
		}
		if err := s.source.DeleteProject(ctx, project.ID); err != nil {
			s.logger.WithField("project_id", project.ID).WithError(err).Error("Failed to delete orphaned project")
			continue
		}
		result.Orphaned = append(result.Orphaned, project.ID)
		reconciliationChanges.WithLabelValues("orphaned").Inc()
	}

	return result, nil
}

// RunJobSync executes the combined client and project sync passes and
// enqueues retry messages for every failed create
func (s *ReconciliationService) RunJobSync(ctx context.Context) *Result {
	log := s.logger.WithWorkflow(workflowJobSync)

	session, err := s.target.Authenticate(ctx)
	if err != nil {
		return recordResult(workflowJobSync, s.hardFailure(ctx, workflowJobSync,
			fmt.Sprintf("Failed to authenticate with target service: %v", err)))
	}

	clientResult, err := s.SyncClients(ctx, session)
	if err != nil {
		return recordResult(workflowJobSync, s.hardFailure(ctx, workflowJobSync,
			fmt.Sprintf("Client synchronization failed: %v", err)))
	}
	for _, payload := range clientResult.Failed {
		s.enqueueRetry(ctx, queue.OpCreateClient, func() (*queue.Message, error) {
			return queue.NewCreateClientMessage(payload)
		})
	}

	projectResult, err := s.SyncProjects(ctx, session, clientResult.Clients, "")
	if err != nil {
		return recordResult(workflowJobSync, s.hardFailure(ctx, workflowJobSync,
			fmt.Sprintf("Project synchronization failed: %v", err)))
	}
	for _, payload := range projectResult.Failed {
		s.enqueueRetry(ctx, queue.OpCreateProject, func() (*queue.Message, error) {
			return queue.NewCreateProjectMessage(payload)
		})
	}

	description := fmt.Sprintf("Clients: %d created, %d existing, %d failed. Projects: %d created, %d skipped, %d failed.",
		len(clientResult.Created), clientResult.Existing, len(clientResult.Failed),
		len(projectResult.Created), len(projectResult.Skipped), len(projectResult.Failed))
	log.Info(description)
	return recordResult(workflowJobSync, Ok("Sync Complete", description))
}

// RunChanges executes the update/delete reconciliation pass and enqueues the
// deferred snapshot writes it reports
func (s *ReconciliationService) RunChanges(ctx context.Context) *Result {
	log := s.logger.WithWorkflow(workflowJobChanges)

	result, err := s.ProcessChanges(ctx)
	if err != nil {
		return recordResult(workflowJobChanges, s.hardFailure(ctx, workflowJobChanges,
			fmt.Sprintf("Failed to process changes: %v", err)))
	}

	for _, msg := range result.Retries {
		retryMsg := msg
		s.enqueueRetry(ctx, msg.Operation, func() (*queue.Message, error) { return retryMsg, nil })
	}

	if result.NoChanges() {
		log.Info("No changes detected")
		return recordResult(workflowJobChanges, Ok("No Changes", "No changes detected"))
	}

	description := fmt.Sprintf("Updated: %d, deleted: %d, orphaned: %d", len(result.Updated), len(result.Deleted), len(result.Orphaned))
	log.Info(description)
	return recordResult(workflowJobChanges, Ok("Changes Processed", description))
}

func (s *ReconciliationService) enqueueRetry(ctx context.Context, op queue.Operation, build func() (*queue.Message, error)) {
	msg, err := build()
	if err == nil {
		err = s.queue.Enqueue(ctx, msg)
	}
	if err != nil {
		desc := fmt.Sprintf("Retry enqueue failed for %s: %v", op, err)
		s.logger.WithOperation(string(op)).Error(desc)
		s.notifier.Notify(ctx, "Retry Queue Error", desc)
		return
	}
	retryEnqueues.WithLabelValues(string(op)).Inc()
}

func (s *ReconciliationService) hardFailure(ctx context.Context, workflow, description string) *Result {
	title := "Job Sync Error"
	if workflow == workflowJobChanges {
		title = "Job Update Error"
	}
	s.logger.WithWorkflow(workflow).Error(description)
	s.notifier.Notify(ctx, title, description)
	return HardFailure(title, description)
}
