package services

import (
	"strings"
	"time"

	"github.com/ryanbaill/timetracking-automation/internal/clients"
)

// resolveLabel removes the excluded parent labels and returns the first
// remaining label. The first surviving label is authoritative regardless of
// how many remain.
func resolveLabel(labelIDs []int64, excluded []int64) (int64, bool) {
	excludedSet := make(map[int64]bool, len(excluded))
	for _, id := range excluded {
		excludedSet[id] = true
	}
	for _, id := range labelIDs {
		if !excludedSet[id] {
			return id, true
		}
	}
	return 0, false
}

// entryDay renders an entry timestamp as its UTC calendar date
func entryDay(timestamp int64) string {
	return time.Unix(timestamp, 0).UTC().Format("2006-01-02")
}

// entryHours converts a duration in seconds to decimal hours
func entryHours(durationSeconds int64) float64 {
	return float64(durationSeconds) / 3600
}

// findTaskID returns the ID of the first task whose display name exactly
// matches name
func findTaskID(tasks []*clients.TargetTask, name string) (int64, bool) {
	for _, task := range tasks {
		if task.Name == name {
			return task.ID, true
		}
	}
	return 0, false
}

// isSuggested reports whether the entity path carries the AI-suggestion
// marker
func isSuggested(entityPath, marker string) bool {
	return marker != "" && strings.Contains(entityPath, marker)
}

// buildSubmission assembles the target service field set from a source entry
func buildSubmission(entry *clients.SourceEntry, taskID int64, personnelID int64) *clients.TimesheetSubmission {
	return &clients.TimesheetSubmission{
		ClientID:    entry.Project.Client.ExternalID,
		JobID:       entry.Project.ExternalID,
		TaskID:      taskID,
		PersonnelID: personnelID,
		Hours:       entryHours(entry.Duration),
		Date:        entryDay(entry.Timestamp),
		Description: entry.Note,
	}
}
