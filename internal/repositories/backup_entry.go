package repositories

import (
	"context"
	"errors"

	"github.com/ryanbaill/timetracking-automation/internal/database"
	"github.com/ryanbaill/timetracking-automation/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// backupEntryRepository implements BackupEntryRepository
type backupEntryRepository struct {
	db *database.Connection
}

// NewBackupEntryRepository creates a new backup entry repository
func NewBackupEntryRepository(db *database.Connection) BackupEntryRepository {
	return &backupEntryRepository{db: db}
}

// Put writes a backup snapshot, replacing any existing row for the entity
func (r *backupEntryRepository) Put(ctx context.Context, entry *models.BackupEntry) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "entity_id"}},
			UpdateAll: true,
		}).
		Create(entry).Error
}

// GetByEntityID retrieves a backup snapshot. Returns (nil, nil) when no row
// exists.
func (r *backupEntryRepository) GetByEntityID(ctx context.Context, entityID int64) (*models.BackupEntry, error) {
	var entry models.BackupEntry
	err := r.db.WithContext(ctx).
		First(&entry, "entity_id = ?", entityID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// Delete removes a backup snapshot by key
func (r *backupEntryRepository) Delete(ctx context.Context, entityID int64) error {
	return r.db.WithContext(ctx).
		Delete(&models.BackupEntry{}, "entity_id = ?", entityID).Error
}
