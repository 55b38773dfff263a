package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ryanbaill/timetracking-automation/internal/clients"
	"github.com/ryanbaill/timetracking-automation/internal/config"
	"github.com/ryanbaill/timetracking-automation/internal/logger"
	"github.com/ryanbaill/timetracking-automation/internal/models"
	"github.com/ryanbaill/timetracking-automation/internal/queue"
)

// Mock clients and repositories shared by the workflow tests

type MockSourceClient struct {
	mock.Mock
}

func (m *MockSourceClient) FetchEntry(ctx context.Context, entryID int64) (*clients.SourceEntry, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.SourceEntry), args.Error(1)
}

func (m *MockSourceClient) FetchUser(ctx context.Context, userID int64) (*clients.SourceUser, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.SourceUser), args.Error(1)
}

func (m *MockSourceClient) ListClients(ctx context.Context) (map[string]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int64), args.Error(1)
}

func (m *MockSourceClient) CreateClient(ctx context.Context, payload *clients.ClientPayload) (int64, error) {
	args := m.Called(ctx, payload)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSourceClient) ListProjects(ctx context.Context) ([]*clients.SourceProject, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*clients.SourceProject), args.Error(1)
}

func (m *MockSourceClient) CreateProject(ctx context.Context, payload *clients.ProjectPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

func (m *MockSourceClient) UpdateProject(ctx context.Context, projectID int64, payload *clients.ProjectPayload) error {
	args := m.Called(ctx, projectID, payload)
	return args.Error(0)
}

func (m *MockSourceClient) DeleteProject(ctx context.Context, projectID int64) error {
	args := m.Called(ctx, projectID)
	return args.Error(0)
}

type MockTargetClient struct {
	mock.Mock
}

func (m *MockTargetClient) Authenticate(ctx context.Context) (clients.Session, error) {
	args := m.Called(ctx)
	return args.Get(0).(clients.Session), args.Error(1)
}

func (m *MockTargetClient) ListClients(ctx context.Context, session clients.Session) ([]*clients.TargetClientRecord, error) {
	args := m.Called(ctx, session)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*clients.TargetClientRecord), args.Error(1)
}

func (m *MockTargetClient) ListJobs(ctx context.Context, session clients.Session, date string) ([]*clients.TargetJob, error) {
	args := m.Called(ctx, session, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*clients.TargetJob), args.Error(1)
}

func (m *MockTargetClient) FetchAllActiveJobs(ctx context.Context, session clients.Session) ([]*models.JobRecord, error) {
	args := m.Called(ctx, session)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.JobRecord), args.Error(1)
}

func (m *MockTargetClient) ListTasks(ctx context.Context, session clients.Session, jobID string) ([]*clients.TargetTask, error) {
	args := m.Called(ctx, session, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*clients.TargetTask), args.Error(1)
}

func (m *MockTargetClient) CreateTimesheet(ctx context.Context, session clients.Session, sub *clients.TimesheetSubmission) (int64, error) {
	args := m.Called(ctx, session, sub)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTargetClient) UpdateTimesheet(ctx context.Context, session clients.Session, timesheetID int64, sub *clients.TimesheetSubmission) error {
	args := m.Called(ctx, session, timesheetID, sub)
	return args.Error(0)
}

func (m *MockTargetClient) DeleteTimesheet(ctx context.Context, session clients.Session, timesheetID int64) error {
	args := m.Called(ctx, session, timesheetID)
	return args.Error(0)
}

type MockTimesheetMappingRepository struct {
	mock.Mock
}

func (m *MockTimesheetMappingRepository) Put(ctx context.Context, mapping *models.TimesheetMapping) error {
	args := m.Called(ctx, mapping)
	return args.Error(0)
}

func (m *MockTimesheetMappingRepository) GetBySourceEntityID(ctx context.Context, sourceEntityID int64) (*models.TimesheetMapping, error) {
	args := m.Called(ctx, sourceEntityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TimesheetMapping), args.Error(1)
}

func (m *MockTimesheetMappingRepository) Delete(ctx context.Context, sourceEntityID int64) error {
	args := m.Called(ctx, sourceEntityID)
	return args.Error(0)
}

func (m *MockTimesheetMappingRepository) ListOlderThan(ctx context.Context, cutoff string, afterID int64, limit int) ([]*models.TimesheetMapping, error) {
	args := m.Called(ctx, cutoff, afterID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TimesheetMapping), args.Error(1)
}

type MockTaskMappingRepository struct {
	mock.Mock
}

func (m *MockTaskMappingRepository) GetTaskName(ctx context.Context, sourceLabelID int64) (string, error) {
	args := m.Called(ctx, sourceLabelID)
	return args.String(0), args.Error(1)
}

type MockJobRecordRepository struct {
	mock.Mock
}

func (m *MockJobRecordRepository) List(ctx context.Context) ([]*models.JobRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.JobRecord), args.Error(1)
}

func (m *MockJobRecordRepository) Upsert(ctx context.Context, record *models.JobRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockJobRecordRepository) Delete(ctx context.Context, jobID int64) error {
	args := m.Called(ctx, jobID)
	return args.Error(0)
}

type MockBackupEntryRepository struct {
	mock.Mock
}

func (m *MockBackupEntryRepository) Put(ctx context.Context, entry *models.BackupEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockBackupEntryRepository) GetByEntityID(ctx context.Context, entityID int64) (*models.BackupEntry, error) {
	args := m.Called(ctx, entityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BackupEntry), args.Error(1)
}

func (m *MockBackupEntryRepository) Delete(ctx context.Context, entityID int64) error {
	args := m.Called(ctx, entityID)
	return args.Error(0)
}

type MockRetryQueue struct {
	mock.Mock
}

func (m *MockRetryQueue) Enqueue(ctx context.Context, msg *queue.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, title, description string) {
	m.Called(ctx, title, description)
}

// createTestLogger creates a logger for testing
func createTestLogger() *logger.Logger {
	cfg := &config.Config{
		Logging: config.LoggingConfig{
			Level:  "error",
			Format: "text",
		},
	}
	return logger.NewLogger(cfg)
}

// newTestConfig builds the configuration the workflow tests share
func newTestConfig() *config.Config {
	return &config.Config{
		Logging: config.LoggingConfig{Level: "error", Format: "text"},
		Sync: config.SyncConfig{
			ExcludedLabelIDs:  []int64{1111, 2222},
			ExcludedClients:   []string{"Client1", "Client2", "Client3", "Client4"},
			RetentionDays:     45,
			CleanupBatchSize:  2,
			SuggestionMarker:  "suggested_hours",
			ProjectColor:      "FFFFFF",
			ProjectRateType:   "project",
			ProjectUserIDs:    []int64{2215558, 2215702},
			ProjectLabelFrom:  4018292,
			ProjectLabelTo:    4018305,
			ProjectEnableMode: "custom",
		},
	}
}

// testEntry builds a source entry with 1.5 hours logged on 2024-06-05
func testEntry(id int64, labelIDs []int64) *clients.SourceEntry {
	return &clients.SourceEntry{
		ID:        id,
		LabelIDs:  labelIDs,
		Duration:  5400,
		Note:      "Sprint planning",
		Timestamp: 1717545600,
		UpdatedAt: 1717549200,
		User: clients.SourceUserRef{
			ID:   42,
			Name: "Jordan Lee",
		},
		Project: clients.SourceProjectRef{
			ExternalID: "7001",
			Name:       "Website Redesign - WEB01",
			Client: clients.SourceClientRef{
				ExternalID: "301",
				Name:       "Acme",
			},
		},
	}
}

func int64Ptr(v int64) *int64 {
	return &v
}
