package repositories

import (
	"context"

	"github.com/ryanbaill/timetracking-automation/internal/database"
	"github.com/ryanbaill/timetracking-automation/internal/models"

	"gorm.io/gorm/clause"
)

// jobRecordRepository implements JobRecordRepository
type jobRecordRepository struct {
	db *database.Connection
}

// NewJobRecordRepository creates a new job record repository
func NewJobRecordRepository(db *database.Connection) JobRecordRepository {
	return &jobRecordRepository{db: db}
}

// List retrieves all job snapshots
func (r *jobRecordRepository) List(ctx context.Context) ([]*models.JobRecord, error) {
	var records []*models.JobRecord
	err := r.db.WithContext(ctx).Find(&records).Error
	return records, err
}

// Upsert fully overwrites the snapshot row for the record's job ID
func (r *jobRecordRepository) Upsert(ctx context.Context, record *models.JobRecord) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "job_id"}},
			UpdateAll: true,
		}).
		Create(record).Error
}

// Delete removes a job snapshot by key
func (r *jobRecordRepository) Delete(ctx context.Context, jobID int64) error {
	return r.db.WithContext(ctx).
		Delete(&models.JobRecord{}, "job_id = ?", jobID).Error
}
