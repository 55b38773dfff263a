package services

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/ryanbaill/timetracking-automation/internal/config"
	"github.com/ryanbaill/timetracking-automation/internal/logger"
)

// Notifier defines the failure notification sink. Delivery is best-effort:
// implementations log their own failures and never propagate them, so a dead
// notification channel can never fail a workflow.
type Notifier interface {
	Notify(ctx context.Context, title, description string)
}

// notification is the wire format the alerting sink consumes
type notification struct {
	Source  string              `json:"source"`
	Content notificationContent `json:"content"`
}

type notificationContent struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// webhookNotifier implements Notifier over an HTTP webhook
type webhookNotifier struct {
	logger     *logger.Logger
	url        string
	httpClient *http.Client
}

// NewNotifier creates a new webhook-backed failure notifier
func NewNotifier(cfg *config.Config, log *logger.Logger) Notifier {
	return &webhookNotifier{
		logger: log,
		url:    cfg.Notifier.URL,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Notifier.Timeout) * time.Second,
		},
	}
}

// Notify posts the notification to the configured webhook
func (n *webhookNotifier) Notify(ctx context.Context, title, description string) {
	if n.url == "" {
		return
	}

	payload := notification{
		Source: "custom",
		Content: notificationContent{
			Title:       title,
			Description: description,
		},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		n.logger.WithError(err).Error("Failed to marshal notification")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(data))
	if err != nil {
		n.logger.WithError(err).Error("Failed to create notification request")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		n.logger.WithError(err).Error("Failed to deliver notification")
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		n.logger.WithField("status", resp.StatusCode).Error("Notification sink rejected message")
	}
}
