package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// EngineClient talks to an n8n-style automation engine's public API.
type EngineClient struct {
	httpClient *http.Client
	timeout    time.Duration
}

func NewEngineClient(timeout time.Duration) *EngineClient {
	return &EngineClient{
		httpClient: &http.Client{Timeout: timeout + time.Second},
		timeout:    timeout,
	}
}

// Execution is one workflow run as reported by the engine's listing
// endpoint. The engine uses numeric ids; they are normalized to strings
// because they are opaque dedup keys here.
type Execution struct {
	ID           json.Number `json:"id"`
	WorkflowID   json.Number `json:"workflowId"`
	Status       string      `json:"status"`
	StoppedAt    *time.Time  `json:"stoppedAt"`
	WorkflowData struct {
		Name string `json:"name"`
	} `json:"workflowData"`
}

type executionList struct {
	Data []Execution `json:"data"`
}

// ListErrorExecutions fetches the most recent failed executions,
// bounded to limit.
func (c *EngineClient) ListErrorExecutions(ctx context.Context, baseURL, apiKey string, limit int) ([]Execution, error) {
	endpoint := fmt.Sprintf("%s/api/v1/executions?status=error&limit=%d",
		strings.TrimRight(baseURL, "/"), limit)

	body, err := c.get(ctx, endpoint, apiKey)
	if err != nil {
		return nil, err
	}

	var list executionList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("invalid executions response: %w", err)
	}
	return list.Data, nil
}

// GetExecutionDetail fetches one execution with its run data. Callers
// treat failure as non-fatal and fall back to the listing's coarse
// information.
func (c *EngineClient) GetExecutionDetail(ctx context.Context, baseURL, apiKey, executionID string) (map[string]interface{}, error) {
	endpoint := fmt.Sprintf("%s/api/v1/executions/%s?includeData=true",
		strings.TrimRight(baseURL, "/"), url.PathEscape(executionID))

	body, err := c.get(ctx, endpoint, apiKey)
	if err != nil {
		return nil, err
	}

	var detail map[string]interface{}
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, fmt.Errorf("invalid execution detail: %w", err)
	}
	return detail, nil
}

func (c *EngineClient) get(ctx context.Context, endpoint, apiKey string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-N8N-API-KEY", apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("engine request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("engine returned status %d", resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, 1024*1024))
}

// ExtractErrorInfo digs the failure message and failing node out of an
// execution detail payload. Every level is optional; missing data just
// yields empty strings.
func ExtractErrorInfo(detail map[string]interface{}) (message, node string) {
	data, _ := detail["data"].(map[string]interface{})
	if data == nil {
		return "", ""
	}
	resultData, _ := data["resultData"].(map[string]interface{})
	if resultData == nil {
		return "", ""
	}
	errObj, _ := resultData["error"].(map[string]interface{})
	if errObj == nil {
		return "", ""
	}

	message, _ = errObj["message"].(string)
	switch n := errObj["node"].(type) {
	case string:
		node = n
	case map[string]interface{}:
		node, _ = n["name"].(string)
	}
	return message, node
}
