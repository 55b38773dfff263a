package models

// TaskMapping maps a source service label to the target service task name
// it should be booked against. Task IDs in the target service are job-scoped,
// so only the name is stored; resolution to an ID happens per call.
// Populated out-of-band; read-only from the workflows' perspective.
type TaskMapping struct {
	SourceLabelID  int64  `json:"source_label_id" gorm:"primaryKey;autoIncrement:false"`
	TargetTaskName string `json:"target_task_name" gorm:"not null"`
}

// TableName returns the table name for TaskMapping
func (TaskMapping) TableName() string {
	return "task_mappings"
}
