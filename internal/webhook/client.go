package webhook

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nexioai/nexio-ingest/internal/db"
	"go.uber.org/zap"
)

// ErrNotConfigured means the caller asked for a delivery without a
// target URL. That is a configuration mistake, not a delivery failure.
var ErrNotConfigured = errors.New("webhook url is not configured")

// DeliveryError carries the diagnostic a tenant operator needs to fix
// their automation endpoint: the reason class, the HTTP status when one
// was received, and a truncated response body.
type DeliveryError struct {
	Reason     string // "timeout", "connection", "status"
	StatusCode int
	Body       string
	Err        error
}

func (e *DeliveryError) Error() string {
	switch e.Reason {
	case "status":
		return fmt.Sprintf("webhook returned status %d: %s", e.StatusCode, e.Body)
	case "timeout":
		return "webhook delivery timed out"
	default:
		return fmt.Sprintf("webhook delivery failed: %v", e.Err)
	}
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Payload is the envelope posted to the tenant's automation engine.
type Payload struct {
	ResponseID  string       `json:"response_id"`
	TenantID    string       `json:"tenant_id"`
	FormSlug    string       `json:"form_slug"`
	LeadID      *string      `json:"lead_id"`
	Answers     db.AnswerMap `json:"answers"`
	SubmittedAt time.Time    `json:"submitted_at"`
	Test        bool         `json:"test,omitempty"`
}

// Client performs exactly one delivery attempt per call, bounded by a
// wall-clock deadline. Retries are the receiving engine's business.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	maxBody    int
	logger     *zap.Logger
}

func NewClient(timeout time.Duration, maxBody int, logger *zap.Logger) *Client {
	return &Client{
		// The per-attempt deadline comes from the context; the
		// transport-level timeout is a backstop only.
		httpClient: &http.Client{Timeout: timeout + time.Second},
		timeout:    timeout,
		maxBody:    maxBody,
		logger:     logger,
	}
}

// Deliver posts the payload to the configured URL. Success is any 2xx
// status; an empty 2xx body counts as success since some engines ack
// without a body. Everything else is a *DeliveryError.
func (c *Client) Deliver(ctx context.Context, cfg *db.WebhookConfig, payload *Payload) error {
	if cfg == nil || cfg.WebhookURL == nil || *cfg.WebhookURL == "" {
		return ErrNotConfigured
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, *cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.applyAuth(req, cfg)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		reason := "connection"
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			reason = "timeout"
		}
		c.logger.Warn("Webhook delivery failed",
			zap.String("tenant_id", cfg.TenantID),
			zap.String("reason", reason),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return &DeliveryError{Reason: reason, Err: err}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, int64(c.maxBody)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("Webhook returned non-2xx",
			zap.String("tenant_id", cfg.TenantID),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(respBody)),
		)
		return &DeliveryError{Reason: "status", StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	c.logger.Info("Webhook delivered",
		zap.String("tenant_id", cfg.TenantID),
		zap.String("response_id", payload.ResponseID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func (c *Client) applyAuth(req *http.Request, cfg *db.WebhookConfig) {
	if cfg.WebhookSecret == nil || *cfg.WebhookSecret == "" {
		return
	}
	secret := *cfg.WebhookSecret

	switch cfg.AuthType {
	case db.AuthTypeBasic:
		// Secret is stored as "user:pass" for basic auth.
		req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(secret)))
	case db.AuthTypeBearer:
		req.Header.Set("Authorization", "Bearer "+secret)
	default:
		req.Header.Set("x-webhook-secret", secret)
	}
}
