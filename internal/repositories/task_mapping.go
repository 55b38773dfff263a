package repositories

import (
	"context"
	"errors"

	"github.com/ryanbaill/timetracking-automation/internal/database"
	"github.com/ryanbaill/timetracking-automation/internal/models"

	"gorm.io/gorm"
)

// taskMappingRepository implements TaskMappingRepository
type taskMappingRepository struct {
	db *database.Connection
}

// NewTaskMappingRepository creates a new task mapping repository
func NewTaskMappingRepository(db *database.Connection) TaskMappingRepository {
	return &taskMappingRepository{db: db}
}

// GetTaskName resolves a source label ID to its target task name. Returns
// ("", nil) when no mapping exists; missing mappings are an expected
// data-quality condition, not an error.
func (r *taskMappingRepository) GetTaskName(ctx context.Context, sourceLabelID int64) (string, error) {
	var mapping models.TaskMapping
	err := r.db.WithContext(ctx).
		First(&mapping, "source_label_id = ?", sourceLabelID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return mapping.TargetTaskName, nil
}
