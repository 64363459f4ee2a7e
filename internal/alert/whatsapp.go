package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nexioai/nexio-ingest/internal/config"
	"go.uber.org/zap"
)

// WhatsAppSender dispatches operator alerts through an Evolution-API
// compatible WhatsApp gateway. When unconfigured it is a no-op and the
// monitor simply skips notification.
type WhatsAppSender struct {
	cfg        config.AlertConfig
	httpClient *http.Client
	logger     *zap.Logger
}

func NewWhatsAppSender(cfg config.AlertConfig, logger *zap.Logger) *WhatsAppSender {
	return &WhatsAppSender{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

func (s *WhatsAppSender) Enabled() bool {
	return s.cfg.WhatsAppURL != "" && s.cfg.WhatsAppInstance != "" && s.cfg.Recipient != ""
}

type sendTextRequest struct {
	Number string `json:"number"`
	Text   string `json:"text"`
}

func (s *WhatsAppSender) Send(ctx context.Context, text string) error {
	if !s.Enabled() {
		return fmt.Errorf("whatsapp alerts are not configured")
	}

	endpoint := fmt.Sprintf("%s/message/sendText/%s",
		strings.TrimRight(s.cfg.WhatsAppURL, "/"), s.cfg.WhatsAppInstance)

	body, err := json.Marshal(sendTextRequest{
		Number: s.cfg.Recipient,
		Text:   text,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", s.cfg.WhatsAppAPIKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("alert send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("alert gateway returned status %d", resp.StatusCode)
	}

	s.logger.Info("Alert sent", zap.String("recipient", s.cfg.Recipient))
	return nil
}
