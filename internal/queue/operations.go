package queue

import (
	"encoding/json"
	"fmt"

	"github.com/ryanbaill/timetracking-automation/internal/clients"
	"github.com/ryanbaill/timetracking-automation/internal/models"
)

// Operation identifies a deferred write carried on the retry queue. The set
// is closed: a message with any other operation is rejected at dispatch.
type Operation string

const (
	OpWriteMapping  Operation = "write_mapping"
	OpUpdateMapping Operation = "update_mapping"
	OpDeleteEntry   Operation = "delete_entry"
	OpCreateClient  Operation = "create_client"
	OpCreateProject Operation = "create_project"
	OpUpdateJob     Operation = "update_job"
	OpDeleteJob     Operation = "delete_job"
	OpStoreBackup   Operation = "store_backup"
	OpUpdateBackup  Operation = "update_backup"
	OpDeleteBackup  Operation = "delete_backup"
)

// Valid reports whether the operation belongs to the closed set
func (o Operation) Valid() bool {
	switch o {
	case OpWriteMapping, OpUpdateMapping, OpDeleteEntry,
		OpCreateClient, OpCreateProject,
		OpUpdateJob, OpDeleteJob,
		OpStoreBackup, OpUpdateBackup, OpDeleteBackup:
		return true
	}
	return false
}

// Message is the wire form of a queued retry. Data holds the operation's
// typed payload, decoded at dispatch time.
type Message struct {
	Operation Operation       `json:"operation"`
	Data      json.RawMessage `json:"data"`
}

// DeleteEntryPayload identifies a mapping row to remove
type DeleteEntryPayload struct {
	EntityID int64 `json:"entity_id"`
}

// DeleteJobPayload identifies a job snapshot to remove
type DeleteJobPayload struct {
	JobID int64 `json:"job_id"`
}

// DeleteBackupPayload identifies a backup snapshot to remove
type DeleteBackupPayload struct {
	EntityID int64 `json:"entity_id"`
}

func newMessage(op Operation, payload interface{}) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", op, err)
	}
	return &Message{Operation: op, Data: data}, nil
}

// NewWriteMappingMessage defers the initial store of a mapping row
func NewWriteMappingMessage(mapping *models.TimesheetMapping) (*Message, error) {
	return newMessage(OpWriteMapping, mapping)
}

// NewUpdateMappingMessage defers the rewrite of a mapping row
func NewUpdateMappingMessage(mapping *models.TimesheetMapping) (*Message, error) {
	return newMessage(OpUpdateMapping, mapping)
}

// NewDeleteEntryMessage defers the removal of a mapping row
func NewDeleteEntryMessage(entityID int64) (*Message, error) {
	return newMessage(OpDeleteEntry, &DeleteEntryPayload{EntityID: entityID})
}

// NewCreateClientMessage defers the creation of a source service client
func NewCreateClientMessage(payload *clients.ClientPayload) (*Message, error) {
	return newMessage(OpCreateClient, payload)
}

// NewCreateProjectMessage defers the creation of a source service project
func NewCreateProjectMessage(payload *clients.ProjectPayload) (*Message, error) {
	return newMessage(OpCreateProject, payload)
}

// NewUpdateJobMessage defers the upsert of a job snapshot
func NewUpdateJobMessage(record *models.JobRecord) (*Message, error) {
	return newMessage(OpUpdateJob, record)
}

// NewDeleteJobMessage defers the removal of a job snapshot
func NewDeleteJobMessage(jobID int64) (*Message, error) {
	return newMessage(OpDeleteJob, &DeleteJobPayload{JobID: jobID})
}

// NewStoreBackupMessage defers the initial store of a backup snapshot
func NewStoreBackupMessage(entry *models.BackupEntry) (*Message, error) {
	return newMessage(OpStoreBackup, entry)
}

// NewUpdateBackupMessage defers the rewrite of a backup snapshot
func NewUpdateBackupMessage(entry *models.BackupEntry) (*Message, error) {
	return newMessage(OpUpdateBackup, entry)
}

// NewDeleteBackupMessage defers the removal of a backup snapshot
func NewDeleteBackupMessage(entityID int64) (*Message, error) {
	return newMessage(OpDeleteBackup, &DeleteBackupPayload{EntityID: entityID})
}
