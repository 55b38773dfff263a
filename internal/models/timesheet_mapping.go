package models

// TimesheetMapping is the durable correspondence between a source service
// time entry and the entry it produced in the target service. A row exists
// if and only if a create has completed against the target; absence after a
// failed store write means the write is pending on the retry queue.
type TimesheetMapping struct {
	SourceEntityID   int64  `json:"source_entity_id" gorm:"primaryKey;autoIncrement:false"`
	TargetEntryID    *int64 `json:"target_entry_id"`
	TargetExternalID *int64 `json:"target_external_id"`
	Date             string `json:"date" gorm:"type:varchar(10);not null;index"`
}

// TableName returns the table name for TimesheetMapping
func (TimesheetMapping) TableName() string {
	return "timesheet_mappings"
}
