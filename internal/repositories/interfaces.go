package repositories

import (
	"context"

	"github.com/ryanbaill/timetracking-automation/internal/models"
)

// TimesheetMappingRepository defines the interface for timesheet mapping data operations
type TimesheetMappingRepository interface {
	Put(ctx context.Context, mapping *models.TimesheetMapping) error
	GetBySourceEntityID(ctx context.Context, sourceEntityID int64) (*models.TimesheetMapping, error)
	Delete(ctx context.Context, sourceEntityID int64) error
	// ListOlderThan pages through mappings dated strictly before cutoff,
	// returning at most limit rows with a key strictly greater than afterID.
	ListOlderThan(ctx context.Context, cutoff string, afterID int64, limit int) ([]*models.TimesheetMapping, error)
}

// TaskMappingRepository defines the interface for label-to-task mapping lookups
type TaskMappingRepository interface {
	GetTaskName(ctx context.Context, sourceLabelID int64) (string, error)
}

// JobRecordRepository defines the interface for job snapshot data operations
type JobRecordRepository interface {
	List(ctx context.Context) ([]*models.JobRecord, error)
	Upsert(ctx context.Context, record *models.JobRecord) error
	Delete(ctx context.Context, jobID int64) error
}

// BackupEntryRepository defines the interface for backup snapshot data operations
type BackupEntryRepository interface {
	Put(ctx context.Context, entry *models.BackupEntry) error
	GetByEntityID(ctx context.Context, entityID int64) (*models.BackupEntry, error)
	Delete(ctx context.Context, entityID int64) error
}
