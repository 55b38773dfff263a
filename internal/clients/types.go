package clients

// Session is an authenticated target service session token. Valid for the
// remainder of a single workflow invocation only; never cached across
// invocations.
type Session string

// SourceEntry is a time entry as returned by the source service
type SourceEntry struct {
	ID        int64            `json:"id"`
	LabelIDs  []int64          `json:"label_ids"`
	Duration  int64            `json:"duration"`
	Note      string           `json:"note"`
	Timestamp int64            `json:"timestamp"`
	UpdatedAt int64            `json:"updated_at"`
	User      SourceUserRef    `json:"user"`
	Project   SourceProjectRef `json:"project"`
}

// SourceUserRef identifies the entry's user inside an entry payload
type SourceUserRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// SourceProjectRef identifies the entry's project inside an entry payload
type SourceProjectRef struct {
	ExternalID string          `json:"external_id"`
	Name       string          `json:"name"`
	Client     SourceClientRef `json:"client"`
}

// SourceClientRef identifies the project's client inside an entry payload
type SourceClientRef struct {
	ExternalID string `json:"external_id"`
	Name       string `json:"name"`
}

// SourceUser is a user record from the source service
type SourceUser struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	ExternalID *int64 `json:"external_id"`
}

// SourceProject is a project record from the source service
type SourceProject struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	ExternalID string `json:"external_id"`
}

// SourceClientRecord is a client record returned when listing source clients
type SourceClientRecord struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ClientPayload is the construction payload for a new source service client
type ClientPayload struct {
	Name       string `json:"name"`
	Active     bool   `json:"active"`
	ExternalID int64  `json:"external_id"`
}

// ProjectUser grants a user access to a project
type ProjectUser struct {
	UserID int64 `json:"user_id"`
}

// ProjectLabel attaches a label to a project
type ProjectLabel struct {
	Required bool  `json:"required"`
	LabelID  int64 `json:"label_id"`
}

// ProjectPayload is the construction payload for a new source service project
type ProjectPayload struct {
	Name         string         `json:"name"`
	ClientID     int64          `json:"client_id"`
	Color        string         `json:"color"`
	RateType     string         `json:"rate_type"`
	Users        []ProjectUser  `json:"users"`
	Labels       []ProjectLabel `json:"labels"`
	EnableLabels string         `json:"enable_labels"`
	ExternalID   int64          `json:"external_id"`
}

// TargetClientRecord is a client as returned by the target service
type TargetClientRecord struct {
	ID   int64
	Code string
	Name string
}

// TargetJob is a job row from the target service's date-filtered job report
type TargetJob struct {
	JobID      int64
	JobCode    string
	JobName    string
	ClientID   int64
	ClientCode string
}

// TargetTask is a task inside a target service job
type TargetTask struct {
	ID   int64  `json:"idTask"`
	Name string `json:"strName"`
}

// TimesheetSubmission carries the field set for a target service timesheet
// create or update call
type TimesheetSubmission struct {
	ClientID    string
	JobID       string
	TaskID      int64
	PersonnelID int64
	Hours       float64
	Date        string
	Description string
}
