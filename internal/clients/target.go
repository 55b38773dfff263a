package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ryanbaill/timetracking-automation/internal/config"
	"github.com/ryanbaill/timetracking-automation/internal/logger"
	"github.com/ryanbaill/timetracking-automation/internal/models"
)

// targetClient implements TargetClient against the target service's
// command-style API. Commands are form-encoded; authentication is an appID
// token carried in a cookie on every subsequent call.
type targetClient struct {
	logger          *logger.Logger
	baseURL         string
	orgCode         string
	username        string
	password        string
	userID          string
	excludedClients map[string]bool
	httpClient      *http.Client
}

// NewTargetClient creates a new target service client
func NewTargetClient(cfg *config.Config, log *logger.Logger) TargetClient {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	excluded := make(map[string]bool, len(cfg.Sync.ExcludedClients))
	for _, code := range cfg.Sync.ExcludedClients {
		excluded[code] = true
	}

	return &targetClient{
		logger:          log,
		baseURL:         strings.TrimRight(cfg.TargetAPI.BaseURL, "/"),
		orgCode:         cfg.TargetAPI.OrgCode,
		username:        cfg.TargetAPI.Username,
		password:        cfg.TargetAPI.Password,
		userID:          cfg.TargetAPI.UserID,
		excludedClients: excluded,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   time.Duration(cfg.TargetAPI.Timeout) * time.Second,
		},
	}
}

// sessionCookie builds the cookie header value the target service expects on
// authenticated calls
func (c *targetClient) sessionCookie(session Session) string {
	return fmt.Sprintf("appID=%s; appOrganization=%s; appUsername=%s", session, c.orgCode, c.username)
}

// getJSON performs an authenticated GET and decodes the response body. Numeric
// fields are decoded as json.Number so columnar rows keep their exact form.
func (c *targetClient) getJSON(ctx context.Context, session Session, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Cookie", c.sessionCookie(session))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to target service failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("target service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("failed to decode target service response: %w", err)
	}
	return nil
}

// postForm performs an authenticated form-encoded POST and decodes the
// response body
func (c *targetClient) postForm(ctx context.Context, session Session, rawURL string, form url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if session != "" {
		req.Header.Set("Cookie", c.sessionCookie(session))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to target service failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("target service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("failed to decode target service response: %w", err)
	}
	return nil
}

// Authenticate logs in with the org credentials and returns the session token
func (c *targetClient) Authenticate(ctx context.Context) (Session, error) {
	form := url.Values{}
	form.Set("cmd", "org")
	form.Set("idOrg", c.orgCode)
	form.Set("strUsername", c.username)
	form.Set("strPassword", c.password)

	var result struct {
		AppID string `json:"appID"`
	}
	if err := c.postForm(ctx, "", c.baseURL+"/login/", form, &result); err != nil {
		return "", fmt.Errorf("authentication failed: %w", err)
	}
	if result.AppID == "" {
		return "", fmt.Errorf("authentication failed: appID not found in response")
	}

	c.logger.Debug("Target service authentication successful")
	return Session(result.AppID), nil
}

// ListClients returns all non-archived clients, excluding the internal client
// codes that must never sync
func (c *targetClient) ListClients(ctx context.Context, session Session) ([]*TargetClientRecord, error) {
	rawURL := fmt.Sprintf("%s/client/?o=%s&i=%s&cmd=list&boolArchived=0", c.baseURL, c.orgCode, c.userID)

	var result struct {
		ListClients struct {
			Data [][]interface{} `json:"data"`
		} `json:"listClients"`
	}
	if err := c.getJSON(ctx, session, rawURL, &result); err != nil {
		return nil, err
	}
	if result.ListClients.Data == nil {
		return nil, fmt.Errorf("no client data found in target service response")
	}

	clients := make([]*TargetClientRecord, 0, len(result.ListClients.Data))
	for _, row := range result.ListClients.Data {
		if len(row) < 3 {
			continue
		}
		code := asString(row[1])
		if c.excludedClients[code] {
			continue
		}
		id, err := asInt64(row[0])
		if err != nil {
			return nil, fmt.Errorf("invalid client ID in target service response: %w", err)
		}
		clients = append(clients, &TargetClientRecord{
			ID:   id,
			Code: code,
			Name: asString(row[2]),
		})
	}
	return clients, nil
}

// ListJobs runs the job report for a single creation date and returns its rows
func (c *targetClient) ListJobs(ctx context.Context, session Session, date string) ([]*TargetJob, error) {
	rawURL := fmt.Sprintf(
		"%s/reports/?o=%s&i=%s&cmd=run&gidReport=JobListCustomizable&boolSaveState=0&idRangeJobCreatedDate=10&dtFromJobCreatedDate=%s&dtToJobCreatedDate=%s",
		c.baseURL, c.orgCode, c.userID, date, date,
	)

	var result struct {
		Results []struct {
			Hdr  map[string]int  `json:"hdr"`
			Data [][]interface{} `json:"data"`
		} `json:"results"`
	}
	if err := c.getJSON(ctx, session, rawURL, &result); err != nil {
		return nil, err
	}

	var jobs []*TargetJob
	for _, section := range result.Results {
		if section.Hdr == nil {
			continue
		}
		for _, row := range section.Data {
			jobID, err := cellInt64(section.Hdr, row, "Job ID")
			if err != nil {
				return nil, fmt.Errorf("invalid job ID in report row: %w", err)
			}
			clientID, err := cellInt64(section.Hdr, row, "Client ID")
			if err != nil {
				return nil, fmt.Errorf("invalid client ID in report row: %w", err)
			}
			jobs = append(jobs, &TargetJob{
				JobID:      jobID,
				JobCode:    cellString(section.Hdr, row, "Job Code"),
				JobName:    cellString(section.Hdr, row, "Job Name"),
				ClientID:   clientID,
				ClientCode: cellString(section.Hdr, row, "Client Code"),
			})
		}
	}
	return jobs, nil
}

// FetchAllActiveJobs returns every open, non-archived job as a job record,
// excluding jobs that belong to excluded clients
func (c *targetClient) FetchAllActiveJobs(ctx context.Context, session Session) ([]*models.JobRecord, error) {
	rawURL := fmt.Sprintf("%s/job/?o=%s&i=%s&cmd=list&boolArchived=0&boolClosed=0", c.baseURL, c.orgCode, c.userID)

	var result struct {
		ListJobs struct {
			Hdr  map[string]int  `json:"hdr"`
			Data [][]interface{} `json:"data"`
		} `json:"listJobs"`
	}
	if err := c.getJSON(ctx, session, rawURL, &result); err != nil {
		return nil, err
	}

	hdr := result.ListJobs.Hdr
	jobs := make([]*models.JobRecord, 0, len(result.ListJobs.Data))
	for _, row := range result.ListJobs.Data {
		clientCode := cellString(hdr, row, "strClientCode")
		if c.excludedClients[clientCode] {
			continue
		}
		jobID, err := cellInt64(hdr, row, "idJob")
		if err != nil {
			return nil, fmt.Errorf("invalid job ID in job list: %w", err)
		}
		clientID, err := cellInt64(hdr, row, "idClient")
		if err != nil {
			return nil, fmt.Errorf("invalid client ID in job list: %w", err)
		}
		jobs = append(jobs, &models.JobRecord{
			JobID:      jobID,
			ClientID:   clientID,
			ClientCode: clientCode,
			ClientName: cellString(hdr, row, "strClientName"),
			JobCode:    cellString(hdr, row, "strJobCode"),
			JobName:    cellString(hdr, row, "strJobName"),
		})
	}

	c.logger.WithField("job_count", len(jobs)).Info("Fetched active jobs from target service")
	return jobs, nil
}

// ListTasks returns the tasks configured on a job
func (c *targetClient) ListTasks(ctx context.Context, session Session, jobID string) ([]*TargetTask, error) {
	rawURL := fmt.Sprintf("%s/Task/?i=%s&cmd=list&idJob=%s", c.baseURL, c.userID, url.QueryEscape(jobID))

	var result struct {
		ListTasks []*TargetTask `json:"listTasks"`
	}
	if err := c.getJSON(ctx, session, rawURL, &result); err != nil {
		return nil, err
	}
	return result.ListTasks, nil
}

// timesheetResult is the response shape of timesheet commands. The service
// signals failure through an error key rather than the status code.
type timesheetResult struct {
	IDTimesheet json.Number     `json:"idTimesheet"`
	Error       json.RawMessage `json:"error"`
}

// timesheetForm encodes a submission as the form fields the timesheet
// commands expect
func timesheetForm(sub *TimesheetSubmission) url.Values {
	form := url.Values{}
	form.Set("idClient", sub.ClientID)
	form.Set("idJob", sub.JobID)
	form.Set("idTask", strconv.FormatInt(sub.TaskID, 10))
	form.Set("idPersonnel", strconv.FormatInt(sub.PersonnelID, 10))
	form.Set("dblHours", strconv.FormatFloat(sub.Hours, 'f', -1, 64))
	form.Set("dtTimesheet", sub.Date)
	form.Set("strDescription", sub.Description)
	return form
}

// CreateTimesheet submits a new timesheet and returns its ID
func (c *targetClient) CreateTimesheet(ctx context.Context, session Session, sub *TimesheetSubmission) (int64, error) {
	rawURL := fmt.Sprintf("%s/timesheet/?i=%s&cmd=add", c.baseURL, c.userID)

	var result timesheetResult
	if err := c.postForm(ctx, session, rawURL, timesheetForm(sub), &result); err != nil {
		return 0, err
	}
	if result.Error != nil {
		return 0, fmt.Errorf("timesheet submission rejected: %s", string(result.Error))
	}

	id, err := result.IDTimesheet.Int64()
	if err != nil {
		return 0, fmt.Errorf("invalid timesheet ID in response: %w", err)
	}
	return id, nil
}

// UpdateTimesheet rewrites an existing timesheet in place
func (c *targetClient) UpdateTimesheet(ctx context.Context, session Session, timesheetID int64, sub *TimesheetSubmission) error {
	rawURL := fmt.Sprintf("%s/timesheet/?i=%s&cmd=update", c.baseURL, c.userID)

	form := timesheetForm(sub)
	form.Set("idTimesheet", strconv.FormatInt(timesheetID, 10))

	var result timesheetResult
	if err := c.postForm(ctx, session, rawURL, form, &result); err != nil {
		return err
	}
	if result.Error != nil {
		return fmt.Errorf("timesheet update rejected: %s", string(result.Error))
	}
	return nil
}

// DeleteTimesheet removes a timesheet
func (c *targetClient) DeleteTimesheet(ctx context.Context, session Session, timesheetID int64) error {
	rawURL := fmt.Sprintf("%s/timesheet/?i=%s&cmd=delete", c.baseURL, c.userID)

	form := url.Values{}
	form.Set("idTimesheet", strconv.FormatInt(timesheetID, 10))

	var result timesheetResult
	if err := c.postForm(ctx, session, rawURL, form, &result); err != nil {
		return err
	}
	if result.Error != nil {
		return fmt.Errorf("timesheet delete rejected: %s", string(result.Error))
	}
	return nil
}

// cell looks up a named column in a header-indexed row. Rows shorter than
// the header promises must not panic the decoder.
func cell(hdr map[string]int, row []interface{}, name string) (interface{}, bool) {
	idx, ok := hdr[name]
	if !ok || idx < 0 || idx >= len(row) {
		return nil, false
	}
	return row[idx], true
}

// cellString renders a named cell as a string, empty when the column is
// missing from the header or the row
func cellString(hdr map[string]int, row []interface{}, name string) string {
	v, ok := cell(hdr, row, name)
	if !ok {
		return ""
	}
	return asString(v)
}

// cellInt64 parses a named numeric cell, erroring when the column is missing
func cellInt64(hdr map[string]int, row []interface{}, name string) (int64, error) {
	v, ok := cell(hdr, row, name)
	if !ok {
		return 0, fmt.Errorf("missing %q column", name)
	}
	return asInt64(v)
}

// asString renders a columnar cell as a string regardless of its JSON type
func asString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}

// asInt64 parses a columnar cell that may arrive as a number or a numeric
// string
func asInt64(v interface{}) (int64, error) {
	switch val := v.(type) {
	case json.Number:
		return val.Int64()
	case string:
		return strconv.ParseInt(strings.TrimSpace(val), 10, 64)
	default:
		return 0, fmt.Errorf("unexpected value type %T", v)
	}
}
