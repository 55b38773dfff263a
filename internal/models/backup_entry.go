package models

// BackupEntry is a denormalized snapshot of a source service time entry,
// kept independently of the cross-service mapping so entries survive locally
// even when they never reached the target service.
type BackupEntry struct {
	EntityID    int64  `json:"entity_id" gorm:"primaryKey;autoIncrement:false"`
	UserName    string `json:"user_name"`
	ProjectName string `json:"project_name"`
	ClientName  string `json:"client_name"`
	Hours       int    `json:"hours"`
	Minutes     int    `json:"minutes"`
	Note        string `json:"note"`
	LabelID     *int64 `json:"label_id"`
	UpdatedAt   int64  `json:"updated_at"`
	DateAdded   string `json:"date_added" gorm:"type:varchar(10);not null"`
}

// TableName returns the table name for BackupEntry
func (BackupEntry) TableName() string {
	return "backup_entries"
}
