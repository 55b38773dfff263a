package clients

import (
	"context"

	"github.com/ryanbaill/timetracking-automation/internal/models"
)

// SourceClient defines the operations used against the source time-tracking
// service. Implementations must treat a missing entry as a nil result rather
// than an error so callers can distinguish deletion races from outages.
type SourceClient interface {
	// FetchEntry returns the entry or (nil, nil) when the entry no longer exists.
	FetchEntry(ctx context.Context, entryID int64) (*SourceEntry, error)
	// FetchUser returns the user record, including its external personnel ID.
	FetchUser(ctx context.Context, userID int64) (*SourceUser, error)
	// ListClients returns all clients keyed by lowercased, trimmed name.
	ListClients(ctx context.Context) (map[string]int64, error)
	// CreateClient creates a client and returns its new ID.
	CreateClient(ctx context.Context, payload *ClientPayload) (int64, error)
	// ListProjects returns every project in the account.
	ListProjects(ctx context.Context) ([]*SourceProject, error)
	// CreateProject creates a project with the given payload.
	CreateProject(ctx context.Context, payload *ProjectPayload) error
	// UpdateProject applies the payload to an existing project.
	UpdateProject(ctx context.Context, projectID int64, payload *ProjectPayload) error
	// DeleteProject removes a project.
	DeleteProject(ctx context.Context, projectID int64) error
}

// TargetClient defines the operations used against the target timesheet
// service. All calls except Authenticate require a session obtained from
// Authenticate during the same workflow invocation.
type TargetClient interface {
	Authenticate(ctx context.Context) (Session, error)
	// ListClients returns all clients except the excluded internal ones.
	ListClients(ctx context.Context, session Session) ([]*TargetClientRecord, error)
	// ListJobs returns jobs open on the given date (YYYY-MM-DD).
	ListJobs(ctx context.Context, session Session, date string) ([]*TargetJob, error)
	// FetchAllActiveJobs returns every open, non-archived job as a job record.
	FetchAllActiveJobs(ctx context.Context, session Session) ([]*models.JobRecord, error)
	// ListTasks returns the tasks configured on a job.
	ListTasks(ctx context.Context, session Session, jobID string) ([]*TargetTask, error)
	// CreateTimesheet submits a new timesheet and returns its ID.
	CreateTimesheet(ctx context.Context, session Session, sub *TimesheetSubmission) (int64, error)
	// UpdateTimesheet rewrites an existing timesheet in place.
	UpdateTimesheet(ctx context.Context, session Session, timesheetID int64, sub *TimesheetSubmission) error
	// DeleteTimesheet removes a timesheet.
	DeleteTimesheet(ctx context.Context, session Session, timesheetID int64) error
}
