package auditclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/sao-registrar-api/pkg/audit"
)

// LogsPath is where the API ingests client entries.
const LogsPath = "/api/v1/logs"

// Sender delivers an entry to the remote audit endpoint.
type Sender interface {
	Send(ctx context.Context, entry audit.Entry, token string) error
}

// TokenSource returns the bearer token to attach, or "" for none.
type TokenSource func() string

// CurrentUserToken reads backendToken from the cached current user.
func CurrentUserToken(store KV) TokenSource {
	return func() string {
		user, ok := loadCurrentUser(store)
		if !ok {
			return ""
		}
		return user.BackendToken
	}
}

// HTTPSender posts entries to the API with the fiber client.
type HTTPSender struct {
	endpoint string
	timeout  time.Duration
}

// NewHTTPSender targets baseURL + LogsPath. A non-positive timeout falls
// back to five seconds.
func NewHTTPSender(baseURL string, timeout time.Duration) *HTTPSender {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPSender{
		endpoint: strings.TrimRight(baseURL, "/") + LogsPath,
		timeout:  timeout,
	}
}

func (s *HTTPSender) Send(ctx context.Context, entry audit.Entry, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}

	timeout := s.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	agent := fiber.Post(s.endpoint)
	agent.ContentType(fiber.MIMEApplicationJSON)
	agent.Body(payload)
	agent.Timeout(timeout)
	if token != "" {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("send audit entry: %w", errors.Join(errs...))
	}
	if code < fiber.StatusOK || code >= fiber.StatusMultipleChoices {
		return fmt.Errorf("send audit entry: status %d: %s", code, strings.TrimSpace(string(body)))
	}
	return nil
}
