// Package tickets files support reports against the operations backend.
package tickets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"fieldvoice_backend/platform/config"
	"fieldvoice_backend/platform/logger"
)

// Report is a support ticket raised when a conversation could not be
// resolved automatically. Context carries free-form identifiers such as
// user_id, organization_id, session_id, and category.
type Report struct {
	Type        string         `json:"type"`
	Description string         `json:"description"`
	Context     map[string]any `json:"context,omitempty"`
}

type reportResponse struct {
	ID string `json:"id"`
}

// Client talks to the operations backend's support-report endpoint.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *logger.Logger
}

// NewClient returns nil when no backend is configured; a nil client makes
// ticket filing a no-op.
func NewClient(cfg config.BackendConfig, log *logger.Logger) *Client {
	if cfg.GetBackendAPIURL() == "" {
		return nil
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.GetBackendAPIURL(), "/"),
		apiKey:  cfg.GetBackendAPIKey(),
		http:    &http.Client{},
		log:     log,
	}
}

// File creates a support report and returns its backend id.
func (c *Client) File(ctx context.Context, report Report) (string, error) {
	if c == nil {
		return "", nil
	}

	body, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("marshal support report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/support-reports", bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("support report request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("backend returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var parsed reportResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", nil
	}

	c.log.Info("support report filed", "report_id", parsed.ID, "type", report.Type)
	return parsed.ID, nil
}
