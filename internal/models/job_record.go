package models

// JobRecord is a denormalized snapshot of a target service job and its
// client, mirrored locally so the reconciliation pass can diff against the
// live job list. Rows are fully overwritten on update, never merged.
type JobRecord struct {
	JobID      int64  `json:"job_id" gorm:"primaryKey;autoIncrement:false"`
	ClientID   int64  `json:"client_id" gorm:"not null"`
	ClientCode string `json:"client_code" gorm:"not null"`
	ClientName string `json:"client_name" gorm:"not null"`
	JobCode    string `json:"job_code" gorm:"not null"`
	JobName    string `json:"job_name" gorm:"not null"`
}

// TableName returns the table name for JobRecord
func (JobRecord) TableName() string {
	return "job_records"
}

// Equal reports whether two snapshots carry identical field values. Any
// drift triggers a full overwrite during reconciliation.
func (j JobRecord) Equal(other JobRecord) bool {
	return j == other
}
