package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/ryanbaill/timetracking-automation/internal/config"
	"github.com/ryanbaill/timetracking-automation/internal/logger"
)

// WebhookSecretHeader carries the shared secret on inbound webhook calls
const WebhookSecretHeader = "X-Webhook-Secret"

// AuthenticationMiddleware verifies the shared webhook secret on inbound
// triggers. When no secret is configured, authentication is disabled and all
// requests pass through.
type AuthenticationMiddleware struct {
	logger *logger.Logger
	secret string
}

// NewAuthenticationMiddleware creates a new authentication middleware
func NewAuthenticationMiddleware(cfg *config.Config, log *logger.Logger) *AuthenticationMiddleware {
	return &AuthenticationMiddleware{
		logger: log,
		secret: cfg.Server.WebhookSecret,
	}
}

// RequireWebhookSecret rejects requests whose secret header does not match
// the configured value. Comparison is constant-time.
func (m *AuthenticationMiddleware) RequireWebhookSecret(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.secret == "" {
			next.ServeHTTP(w, r)
			return
		}

		provided := r.Header.Get(WebhookSecretHeader)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(m.secret)) != 1 {
			m.logger.WithField("path", r.URL.Path).Warn("Rejected webhook with invalid secret")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}
