package ai

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

// Analyzer asks an OpenAI-compatible chat endpoint for a short
// remediation suggestion on a failed workflow execution. Analysis is
// strictly best-effort: failures leave the record's analysis empty.
type Analyzer struct {
	cfg        config.AIConfig
	httpClient *http.Client
	logger     *zap.Logger
}

func NewAnalyzer(cfg config.AIConfig, logger *zap.Logger) *Analyzer {
	return &Analyzer{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 20 * time.Second},
		logger:     logger,
	}
}

func (a *Analyzer) Enabled() bool {
	return a.cfg.URL != "" && a.cfg.APIKey != ""
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (a *Analyzer) AnalyzeError(ctx context.Context, workflowName, errorNode, errorMessage string) (string, error) {
	if !a.Enabled() {
		return "", fmt.Errorf("ai analysis is not configured")
	}

	prompt := fmt.Sprintf(
		"An automation workflow failed. Workflow: %s. Failing node: %s. Error: %s. "+
			"In at most three sentences, state the likely cause and how to fix it.",
		workflowName, errorNode, errorMessage)

	body, err := json.Marshal(chatRequest{
		Model: a.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are an automation operations assistant. Be brief and concrete."},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}

	endpoint := strings.TrimRight(a.cfg.URL, "/") + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("analysis request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("analysis endpoint returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("invalid analysis response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("analysis response contained no choices")
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
