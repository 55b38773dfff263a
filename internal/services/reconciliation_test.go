package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ryanbaill/timetracking-automation/internal/clients"
	"github.com/ryanbaill/timetracking-automation/internal/models"
	"github.com/ryanbaill/timetracking-automation/internal/queue"
)

type reconciliationTestDeps struct {
	source   *MockSourceClient
	target   *MockTargetClient
	jobs     *MockJobRecordRepository
	queue    *MockRetryQueue
	notifier *MockNotifier
	service  *ReconciliationService
}

func newReconciliationTestDeps() *reconciliationTestDeps {
	d := &reconciliationTestDeps{
		source:   &MockSourceClient{},
		target:   &MockTargetClient{},
		jobs:     &MockJobRecordRepository{},
		queue:    &MockRetryQueue{},
		notifier: &MockNotifier{},
	}
	d.service = NewReconciliationService(newTestConfig(), createTestLogger(), d.source, d.target, d.jobs, d.queue, d.notifier)
	return d
}

func TestSyncClientsCreatesMissingClients(t *testing.T) {
	d := newReconciliationTestDeps()
	ctx := context.Background()
	session := clients.Session("sess-1")

	d.target.On("ListClients", ctx, session).Return([]*clients.TargetClientRecord{
		{ID: 301, Code: "ACME", Name: "Acme Corp"},
		{ID: 302, Code: "GLOBEX", Name: "Globex"},
	}, nil)
	d.source.On("ListClients", ctx).Return(map[string]int64{"acme": 1}, nil)
	d.source.On("CreateClient", ctx, mock.MatchedBy(func(p *clients.ClientPayload) bool {
		return p.Name == "GLOBEX" && p.Active && p.ExternalID == 302
	})).Return(int64(55), nil)

	result, err := d.service.SyncClients(ctx, session)

	require.NoError(t, err)
	assert.Equal(t, []string{"GLOBEX"}, result.Created)
	assert.Equal(t, 1, result.Existing)
	assert.Empty(t, result.Failed)
	// The new client joins the map used by the project pass
	assert.Equal(t, int64(55), result.Clients["globex"])
}

func TestSyncClientsCollectsFailedCreates(t *testing.T) {
	d := newReconciliationTestDeps()
	ctx := context.Background()
	session := clients.Session("sess-1")

	d.target.On("ListClients", ctx, session).Return([]*clients.TargetClientRecord{
		{ID: 302, Code: "GLOBEX", Name: "Globex"},
	}, nil)
	d.source.On("ListClients", ctx).Return(map[string]int64{}, nil)
	d.source.On("CreateClient", ctx, mock.Anything).Return(int64(0), errors.New("service unavailable"))

	result, err := d.service.SyncClients(ctx, session)

	require.NoError(t, err)
	assert.Empty(t, result.Created)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "GLOBEX", result.Failed[0].Name)
	// The pass itself never enqueues, that is the orchestrator's job
	d.queue.AssertNumberOfCalls(t, "Enqueue", 0)
}

func TestSyncProjectsSkipsJobsWithUnknownClient(t *testing.T) {
	d := newReconciliationTestDeps()
	ctx := context.Background()
	session := clients.Session("sess-1")

	d.target.On("ListJobs", ctx, session, "2024-06-05").Return([]*clients.TargetJob{
		{JobID: 7001, JobCode: "WEB01", JobName: "Website Redesign", ClientID: 301, ClientCode: "UNKNOWN"},
	}, nil)
	d.source.On("ListProjects", ctx).Return([]*clients.SourceProject{}, nil)

	result, err := d.service.SyncProjects(ctx, session, map[string]int64{"acme": 1}, "2024-06-05")

	require.NoError(t, err)
	assert.Empty(t, result.Created)
	assert.Equal(t, []string{"Website Redesign - WEB01"}, result.Skipped)
	d.source.AssertNumberOfCalls(t, "CreateProject", 0)
}

func TestSyncProjectsAppliesProjectDefaults(t *testing.T) {
	d := newReconciliationTestDeps()
	ctx := context.Background()
	session := clients.Session("sess-1")

	d.target.On("ListJobs", ctx, session, "2024-06-05").Return([]*clients.TargetJob{
		{JobID: 7001, JobCode: "WEB01", JobName: "Website Redesign", ClientID: 301, ClientCode: "ACME"},
	}, nil)
	// Name comparison is case-insensitive, this existing project does not match
	d.source.On("ListProjects", ctx).Return([]*clients.SourceProject{
		{ID: 1, Name: "Other Project - XY01", ExternalID: "6000"},
	}, nil)

	var created *clients.ProjectPayload
	d.source.On("CreateProject", ctx, mock.Anything).Run(func(args mock.Arguments) {
		created = args.Get(1).(*clients.ProjectPayload)
	}).Return(nil)

	result, err := d.service.SyncProjects(ctx, session, map[string]int64{"acme": 9}, "2024-06-05")

	require.NoError(t, err)
	assert.Equal(t, []string{"Website Redesign - WEB01"}, result.Created)

	require.NotNil(t, created)
	assert.Equal(t, "Website Redesign - WEB01", created.Name)
	assert.Equal(t, int64(9), created.ClientID)
	assert.Equal(t, "FFFFFF", created.Color)
	assert.Equal(t, "project", created.RateType)
	assert.Equal(t, "custom", created.EnableLabels)
	assert.Equal(t, int64(7001), created.ExternalID)
	assert.Len(t, created.Users, 2)
	// Full label roster with only the first label required
	require.Len(t, created.Labels, 14)
	assert.True(t, created.Labels[0].Required)
	assert.Equal(t, int64(4018292), created.Labels[0].LabelID)
	assert.False(t, created.Labels[1].Required)
	assert.Equal(t, int64(4018305), created.Labels[13].LabelID)
}

func TestSyncProjectsSkipsExistingByNormalizedName(t *testing.T) {
	d := newReconciliationTestDeps()
	ctx := context.Background()
	session := clients.Session("sess-1")

	d.target.On("ListJobs", ctx, session, "2024-06-05").Return([]*clients.TargetJob{
		{JobID: 7001, JobCode: "WEB01", JobName: "Website Redesign", ClientID: 301, ClientCode: "ACME"},
	}, nil)
	d.source.On("ListProjects", ctx).Return([]*clients.SourceProject{
		{ID: 1, Name: "  website redesign - web01  ", ExternalID: "7001"},
	}, nil)

	result, err := d.service.SyncProjects(ctx, session, map[string]int64{"acme": 9}, "2024-06-05")

	require.NoError(t, err)
	assert.Empty(t, result.Created)
	assert.Empty(t, result.Skipped)
	d.source.AssertNumberOfCalls(t, "CreateProject", 0)
}

func TestProcessChangesDiffsLiveJobsAgainstSnapshot(t *testing.T) {
	d := newReconciliationTestDeps()
	ctx := context.Background()

	job1 := &models.JobRecord{JobID: 1, ClientID: 301, ClientCode: "ACME", ClientName: "Acme", JobCode: "J1", JobName: "Renamed Job"}
	job2 := &models.JobRecord{JobID: 2, ClientID: 301, ClientCode: "ACME", ClientName: "Acme", JobCode: "J2", JobName: "New Job"}

	d.target.On("Authenticate", ctx).Return(clients.Session("sess-1"), nil)
	d.target.On("FetchAllActiveJobs", ctx, clients.Session("sess-1")).Return([]*models.JobRecord{job1, job2}, nil)
	d.jobs.On("List", ctx).Return([]*models.JobRecord{
		{JobID: 1, ClientID: 301, ClientCode: "ACME", ClientName: "Acme", JobCode: "J1", JobName: "Old Name"},
		{JobID: 3, ClientID: 301, ClientCode: "ACME", ClientName: "Acme", JobCode: "J3", JobName: "Closed Job"},
	}, nil)
	d.source.On("ListProjects", ctx).Return([]*clients.SourceProject{
		{ID: 90, Name: "Kept - J1", ExternalID: "1"},
		{ID: 91, Name: "Orphan - J3", ExternalID: "3"},
		{ID: 92, Name: "Unparseable", ExternalID: "abc"},
	}, nil)
	d.jobs.On("Upsert", ctx, job1).Return(nil)
	d.jobs.On("Upsert", ctx, job2).Return(nil)
	d.jobs.On("Delete", ctx, int64(3)).Return(nil)
	d.source.On("DeleteProject", ctx, int64(91)).Return(nil)

	result, err := d.service.ProcessChanges(ctx)

	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2}, result.Updated)
	assert.Equal(t, []int64{3}, result.Deleted)
	// Project 92 has no parseable external ID and must never be deleted
	assert.Equal(t, []int64{91}, result.Orphaned)
	assert.Empty(t, result.Retries)
	assert.False(t, result.NoChanges())
	d.jobs.AssertExpectations(t)
	d.source.AssertExpectations(t)
}

func TestProcessChangesSkipsUnchangedJobs(t *testing.T) {
	d := newReconciliationTestDeps()
	ctx := context.Background()

	job1 := &models.JobRecord{JobID: 1, ClientID: 301, ClientCode: "ACME", ClientName: "Acme", JobCode: "J1", JobName: "Stable Job"}

	d.target.On("Authenticate", ctx).Return(clients.Session("sess-1"), nil)
	d.target.On("FetchAllActiveJobs", ctx, clients.Session("sess-1")).Return([]*models.JobRecord{job1}, nil)
	d.jobs.On("List", ctx).Return([]*models.JobRecord{
		{JobID: 1, ClientID: 301, ClientCode: "ACME", ClientName: "Acme", JobCode: "J1", JobName: "Stable Job"},
	}, nil)
	d.source.On("ListProjects", ctx).Return([]*clients.SourceProject{
		{ID: 90, Name: "Kept - J1", ExternalID: "1"},
	}, nil)

	result, err := d.service.ProcessChanges(ctx)

	require.NoError(t, err)
	assert.True(t, result.NoChanges())
	d.jobs.AssertNumberOfCalls(t, "Upsert", 0)
	d.jobs.AssertNumberOfCalls(t, "Delete", 0)
}

func TestProcessChangesRejectsEmptyJobList(t *testing.T) {
	d := newReconciliationTestDeps()
	ctx := context.Background()

	d.target.On("Authenticate", ctx).Return(clients.Session("sess-1"), nil)
	d.target.On("FetchAllActiveJobs", ctx, clients.Session("sess-1")).Return([]*models.JobRecord{}, nil)

	_, err := d.service.ProcessChanges(ctx)

	// An empty live list is indistinguishable from a broken report
	require.Error(t, err)
	d.jobs.AssertNumberOfCalls(t, "List", 0)
}

func TestProcessChangesDefersFailedSnapshotWrites(t *testing.T) {
	d := newReconciliationTestDeps()
	ctx := context.Background()

	job1 := &models.JobRecord{JobID: 1, ClientID: 301, ClientCode: "ACME", ClientName: "Acme", JobCode: "J1", JobName: "New Job"}

	d.target.On("Authenticate", ctx).Return(clients.Session("sess-1"), nil)
	d.target.On("FetchAllActiveJobs", ctx, clients.Session("sess-1")).Return([]*models.JobRecord{job1}, nil)
	d.jobs.On("List", ctx).Return([]*models.JobRecord{
		{JobID: 3, ClientID: 301, ClientCode: "ACME", ClientName: "Acme", JobCode: "J3", JobName: "Closed Job"},
	}, nil)
	d.source.On("ListProjects", ctx).Return([]*clients.SourceProject{}, nil)
	d.jobs.On("Upsert", ctx, job1).Return(errors.New("store down"))
	d.jobs.On("Delete", ctx, int64(3)).Return(errors.New("store down"))

	result, err := d.service.ProcessChanges(ctx)

	require.NoError(t, err)
	assert.Empty(t, result.Updated)
	assert.Empty(t, result.Deleted)
	require.Len(t, result.Retries, 2)
	ops := []queue.Operation{result.Retries[0].Operation, result.Retries[1].Operation}
	assert.ElementsMatch(t, []queue.Operation{queue.OpUpdateJob, queue.OpDeleteJob}, ops)
}

func TestRunChangesEnqueuesDeferredWrites(t *testing.T) {
	d := newReconciliationTestDeps()
	ctx := context.Background()

	job1 := &models.JobRecord{JobID: 1, ClientID: 301, ClientCode: "ACME", ClientName: "Acme", JobCode: "J1", JobName: "New Job"}

	d.target.On("Authenticate", ctx).Return(clients.Session("sess-1"), nil)
	d.target.On("FetchAllActiveJobs", ctx, clients.Session("sess-1")).Return([]*models.JobRecord{job1}, nil)
	d.jobs.On("List", ctx).Return([]*models.JobRecord{}, nil)
	d.source.On("ListProjects", ctx).Return([]*clients.SourceProject{}, nil)
	d.jobs.On("Upsert", ctx, job1).Return(errors.New("store down"))
	d.queue.On("Enqueue", ctx, mock.MatchedBy(func(msg *queue.Message) bool {
		return msg.Operation == queue.OpUpdateJob
	})).Return(nil)

	result := d.service.RunChanges(ctx)

	assert.True(t, result.IsSuccess())
	d.queue.AssertExpectations(t)
}

func TestRunChangesReportsNoChanges(t *testing.T) {
	d := newReconciliationTestDeps()
	ctx := context.Background()

	job1 := &models.JobRecord{JobID: 1, ClientID: 301, ClientCode: "ACME", ClientName: "Acme", JobCode: "J1", JobName: "Stable Job"}

	d.target.On("Authenticate", ctx).Return(clients.Session("sess-1"), nil)
	d.target.On("FetchAllActiveJobs", ctx, clients.Session("sess-1")).Return([]*models.JobRecord{job1}, nil)
	d.jobs.On("List", ctx).Return([]*models.JobRecord{
		{JobID: 1, ClientID: 301, ClientCode: "ACME", ClientName: "Acme", JobCode: "J1", JobName: "Stable Job"},
	}, nil)
	d.source.On("ListProjects", ctx).Return([]*clients.SourceProject{}, nil)

	result := d.service.RunChanges(ctx)

	assert.True(t, result.IsSuccess())
	assert.Equal(t, "No Changes", result.Title)
}

func TestRunJobSyncEnqueuesFailedCreates(t *testing.T) {
	d := newReconciliationTestDeps()
	ctx := context.Background()
	session := clients.Session("sess-1")

	d.target.On("Authenticate", ctx).Return(session, nil)
	d.target.On("ListClients", ctx, session).Return([]*clients.TargetClientRecord{
		{ID: 302, Code: "GLOBEX", Name: "Globex"},
	}, nil)
	d.source.On("ListClients", ctx).Return(map[string]int64{}, nil)
	d.source.On("CreateClient", ctx, mock.Anything).Return(int64(0), errors.New("service unavailable"))
	d.target.On("ListJobs", ctx, session, mock.Anything).Return([]*clients.TargetJob{}, nil)
	d.source.On("ListProjects", ctx).Return([]*clients.SourceProject{}, nil)
	d.queue.On("Enqueue", ctx, mock.MatchedBy(func(msg *queue.Message) bool {
		return msg.Operation == queue.OpCreateClient
	})).Return(nil)

	result := d.service.RunJobSync(ctx)

	assert.True(t, result.IsSuccess())
	assert.Equal(t, "Sync Complete", result.Title)
	d.queue.AssertExpectations(t)
}

func TestRunJobSyncAuthFailureIsHard(t *testing.T) {
	d := newReconciliationTestDeps()
	ctx := context.Background()

	d.target.On("Authenticate", ctx).Return(clients.Session(""), errors.New("bad credentials"))
	d.notifier.On("Notify", ctx, "Job Sync Error", mock.Anything).Return()

	result := d.service.RunJobSync(ctx)

	assert.Equal(t, "Job Sync Error", result.Title)
	assert.Equal(t, KindHardFailure, result.Kind)
	d.notifier.AssertExpectations(t)
}
