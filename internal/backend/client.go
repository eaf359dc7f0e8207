// Package backend is the typed client for the rental REST API. It attaches
// the session's bearer token, tears the session down on 401/403 and turns
// every failure into an errorutil.DomainError.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/rental-portal/internal/observability"
	apperrors "github.com/spec-kit/rental-portal/pkg/util/errorutil"
)

// DefaultRejectionMessage is used when a rejected call carries no message.
const DefaultRejectionMessage = "the server rejected the request"

const maxErrorBody = 64 << 10

// TokenSource supplies the bearer token for authenticated calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// SessionTerminator is told when the backend refuses the session's token.
type SessionTerminator interface {
	Terminate(ctx context.Context)
}

// Session is what a client needs from a signed-in session.
type Session interface {
	TokenSource
	SessionTerminator
}

// Client calls the REST backend. The zero session binding only allows SignIn.
type Client struct {
	baseURL string
	http    *http.Client
	metrics *observability.Metrics
	logger  *zap.Logger
	session Session
}

// New constructs a client targeting baseURL.
func New(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		metrics: metrics,
		logger:  logger,
	}
}

// WithSession returns a copy of the client bound to one session.
func (c *Client) WithSession(s Session) *Client {
	bound := *c
	bound.session = s
	return &bound
}

type call struct {
	operation string
	method    string
	path      string
	body      any
	out       any
	anonymous bool
}

func (c *Client) do(ctx context.Context, cl call) error {
	var token string
	if !cl.anonymous {
		if c.session == nil {
			return apperrors.NewUnauthorized("not signed in")
		}
		t, err := c.session.Token(ctx)
		if err != nil {
			return err
		}
		token = t
	}

	var body io.Reader
	if cl.body != nil {
		payload, err := json.Marshal(cl.body)
		if err != nil {
			return apperrors.NewInternalError(fmt.Errorf("encode %s request: %w", cl.operation, err))
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, body)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.RecordBackendCall(cl.operation, 0, time.Since(start))
		c.logger.Warn("backend unreachable", zap.String("operation", cl.operation), zap.Error(err))
		return apperrors.NewTransportError(err)
	}
	defer resp.Body.Close()
	c.metrics.RecordBackendCall(cl.operation, resp.StatusCode, time.Since(start))

	switch {
	case (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) && !cl.anonymous:
		c.logger.Info("backend refused session token",
			zap.String("operation", cl.operation),
			zap.Int("status", resp.StatusCode),
		)
		c.session.Terminate(ctx)
		return apperrors.NewUnauthorized("your session has ended, please sign in again")
	case resp.StatusCode >= 300:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		message := extractMessage(raw, DefaultRejectionMessage)
		c.logger.Warn("backend rejected request",
			zap.String("operation", cl.operation),
			zap.Int("status", resp.StatusCode),
			zap.String("message", message),
		)
		return apperrors.NewBackendRejection(resp.StatusCode, message)
	}

	if cl.out == nil {
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.NewTransportError(err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, cl.out); err != nil {
		return apperrors.NewInternalError(fmt.Errorf("decode %s response: %w", cl.operation, err))
	}
	return nil
}

// extractMessage reads the server message from an error body: a "message"
// string or list, then an "error" string, then the fallback.
func extractMessage(raw []byte, fallback string) string {
	var body struct {
		Message json.RawMessage `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return fallback
	}
	for _, field := range []json.RawMessage{body.Message, body.Error} {
		if msg := rawMessage(field); msg != "" {
			return msg
		}
	}
	return fallback
}

func rawMessage(field json.RawMessage) string {
	if len(field) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(field, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var list []string
	if err := json.Unmarshal(field, &list); err == nil {
		return strings.TrimSpace(strings.Join(list, "; "))
	}
	return ""
}
