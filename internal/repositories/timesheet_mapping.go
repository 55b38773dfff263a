package repositories

import (
	"context"
	"errors"

	"github.com/ryanbaill/timetracking-automation/internal/database"
	"github.com/ryanbaill/timetracking-automation/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// timesheetMappingRepository implements TimesheetMappingRepository
type timesheetMappingRepository struct {
	db *database.Connection
}

// NewTimesheetMappingRepository creates a new timesheet mapping repository
func NewTimesheetMappingRepository(db *database.Connection) TimesheetMappingRepository {
	return &timesheetMappingRepository{db: db}
}

// Put writes a mapping row, replacing any existing row for the same source
// entity. Idempotent so retry replays converge.
func (r *timesheetMappingRepository) Put(ctx context.Context, mapping *models.TimesheetMapping) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "source_entity_id"}},
			UpdateAll: true,
		}).
		Create(mapping).Error
}

// GetBySourceEntityID retrieves a mapping by its source entity ID. Returns
// (nil, nil) when no row exists.
func (r *timesheetMappingRepository) GetBySourceEntityID(ctx context.Context, sourceEntityID int64) (*models.TimesheetMapping, error) {
	var mapping models.TimesheetMapping
	err := r.db.WithContext(ctx).
		First(&mapping, "source_entity_id = ?", sourceEntityID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &mapping, nil
}

// Delete removes a mapping by key. Deleting an absent row is not an error.
func (r *timesheetMappingRepository) Delete(ctx context.Context, sourceEntityID int64) error {
	return r.db.WithContext(ctx).
		Delete(&models.TimesheetMapping{}, "source_entity_id = ?", sourceEntityID).Error
}

// ListOlderThan returns a page of mappings dated before cutoff, keyset
// paginated on the primary key.
func (r *timesheetMappingRepository) ListOlderThan(ctx context.Context, cutoff string, afterID int64, limit int) ([]*models.TimesheetMapping, error) {
	var mappings []*models.TimesheetMapping
	err := r.db.WithContext(ctx).
		Where("date < ? AND source_entity_id > ?", cutoff, afterID).
		Order("source_entity_id").
		Limit(limit).
		Find(&mappings).Error
	return mappings, err
}
