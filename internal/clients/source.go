package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ryanbaill/timetracking-automation/internal/config"
	"github.com/ryanbaill/timetracking-automation/internal/logger"
)

// sourceClient implements SourceClient against the source service's REST API
type sourceClient struct {
	logger     *logger.Logger
	baseURL    string
	token      string
	accountID  string
	httpClient *http.Client
}

// NewSourceClient creates a new source service client
func NewSourceClient(cfg *config.Config, log *logger.Logger) SourceClient {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	return &sourceClient{
		logger:    log,
		baseURL:   strings.TrimRight(cfg.SourceAPI.BaseURL, "/"),
		token:     cfg.SourceAPI.Token,
		accountID: cfg.SourceAPI.AccountID,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   time.Duration(cfg.SourceAPI.Timeout) * time.Second,
		},
	}
}

// doRequest performs an authenticated request and returns the response. The
// caller owns the response body.
func (c *sourceClient) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	url := fmt.Sprintf("%s/%s%s", c.baseURL, c.accountID, path)
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to source service failed: %w", err)
	}
	return resp, nil
}

// decodeResponse reads the body into out, enforcing a 2xx status first
func (c *sourceClient) decodeResponse(resp *http.Response, out interface{}) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("source service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode source service response: %w", err)
	}
	return nil
}

// FetchEntry returns the entry or (nil, nil) when the source service reports
// it gone. A deleted entry is an expected outcome, not a failure.
func (c *sourceClient) FetchEntry(ctx context.Context, entryID int64) (*SourceEntry, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/events/%d", entryID), nil)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		c.logger.WithEntity(entryID).Info("Entry no longer exists in source service")
		return nil, nil
	}

	var entry SourceEntry
	if err := c.decodeResponse(resp, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// FetchUser returns the user record for the given user ID
func (c *sourceClient) FetchUser(ctx context.Context, userID int64) (*SourceUser, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/users/%d", userID), nil)
	if err != nil {
		return nil, err
	}

	var user SourceUser
	if err := c.decodeResponse(resp, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListClients returns all clients keyed by normalized name. Normalization is
// lowercase with surrounding whitespace trimmed, matching how reconciliation
// compares names across services.
func (c *sourceClient) ListClients(ctx context.Context) (map[string]int64, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/clients", nil)
	if err != nil {
		return nil, err
	}

	var records []*SourceClientRecord
	if err := c.decodeResponse(resp, &records); err != nil {
		return nil, err
	}

	clients := make(map[string]int64, len(records))
	for _, record := range records {
		clients[strings.ToLower(strings.TrimSpace(record.Name))] = record.ID
	}
	return clients, nil
}

// CreateClient creates a client and returns its new ID
func (c *sourceClient) CreateClient(ctx context.Context, payload *ClientPayload) (int64, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/clients", payload)
	if err != nil {
		return 0, err
	}

	var created SourceClientRecord
	if err := c.decodeResponse(resp, &created); err != nil {
		return 0, err
	}

	c.logger.WithField("client_id", created.ID).WithField("client_name", payload.Name).Info("Created source service client")
	return created.ID, nil
}

// ListProjects returns every project in the account
func (c *sourceClient) ListProjects(ctx context.Context) ([]*SourceProject, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/projects", nil)
	if err != nil {
		return nil, err
	}

	var projects []*SourceProject
	if err := c.decodeResponse(resp, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// CreateProject creates a project with the given payload
func (c *sourceClient) CreateProject(ctx context.Context, payload *ProjectPayload) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/projects", payload)
	if err != nil {
		return err
	}
	if err := c.decodeResponse(resp, nil); err != nil {
		return err
	}

	c.logger.WithField("project_name", payload.Name).WithField("external_id", payload.ExternalID).Info("Created source service project")
	return nil
}

// UpdateProject applies the payload to an existing project
func (c *sourceClient) UpdateProject(ctx context.Context, projectID int64, payload *ProjectPayload) error {
	resp, err := c.doRequest(ctx, http.MethodPut, fmt.Sprintf("/projects/%d", projectID), payload)
	if err != nil {
		return err
	}
	return c.decodeResponse(resp, nil)
}

// DeleteProject removes a project
func (c *sourceClient) DeleteProject(ctx context.Context, projectID int64) error {
	resp, err := c.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/projects/%d", projectID), nil)
	if err != nil {
		return err
	}
	return c.decodeResponse(resp, nil)
}
