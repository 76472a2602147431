// Package whatsapp sends outbound messages through a gowa-compatible
// WhatsApp gateway.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"fieldvoice_backend/platform/config"
	"fieldvoice_backend/platform/logger"
	"fieldvoice_backend/platform/phone"
)

// Button is one quick-reply option. Gateways cap interactive messages at
// three buttons.
type Button struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// MaxButtons is the interactive-message button limit.
const MaxButtons = 3

type Client struct {
	baseURL  string
	apiKey   string
	deviceID string
	http     *http.Client
	log      *logger.Logger
}

type gowaMessageRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

type gowaButtonsRequest struct {
	Phone   string   `json:"phone"`
	Message string   `json:"message"`
	Buttons []Button `json:"buttons"`
}

type gowaResponse struct {
	Results struct {
		MessageID string `json:"message_id"`
	} `json:"results"`
}

// NewClient returns nil when no gateway is configured; a nil client turns
// every send into a no-op so the pipeline can run without messaging in dev.
func NewClient(cfg config.WhatsAppConfig, log *logger.Logger) *Client {
	if cfg.GetWhatsAppURL() == "" {
		return nil
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.GetWhatsAppURL(), "/"),
		apiKey:   cfg.GetWhatsAppKey(),
		deviceID: cfg.GetWhatsAppDeviceID(),
		http:     &http.Client{},
		log:      log,
	}
}

// SendText delivers a plain text message and returns the gateway message id.
func (c *Client) SendText(ctx context.Context, phoneNumber, message string) (string, error) {
	if c == nil {
		return "", nil
	}

	normalized := strings.TrimPrefix(phone.NormalizeE164(phoneNumber), "+")
	payload := gowaMessageRequest{Phone: normalized, Message: message}

	messageID, err := c.post(ctx, "/send/message", payload)
	if err != nil {
		return "", err
	}

	c.log.Info("whatsapp text sent", "phone", normalized, "gateway_message_id", messageID)
	return messageID, nil
}

// SendButtons delivers an interactive quick-reply message. Buttons beyond
// MaxButtons are dropped. Gateways without interactive support return 4xx;
// only then is the message retried as plain text with the button titles
// appended. Transient failures propagate so the caller does not double-send.
func (c *Client) SendButtons(ctx context.Context, phoneNumber, message string, buttons []Button) (string, error) {
	if c == nil {
		return "", nil
	}
	if len(buttons) == 0 {
		return c.SendText(ctx, phoneNumber, message)
	}
	if len(buttons) > MaxButtons {
		buttons = buttons[:MaxButtons]
	}

	normalized := strings.TrimPrefix(phone.NormalizeE164(phoneNumber), "+")
	payload := gowaButtonsRequest{Phone: normalized, Message: message, Buttons: buttons}

	messageID, err := c.post(ctx, "/send/buttons", payload)
	if err != nil {
		var status *statusError
		if !errors.As(err, &status) || status.code >= http.StatusInternalServerError {
			return "", err
		}
		c.log.Warn("whatsapp buttons unsupported, falling back to text", "phone", normalized, "error", err)
		return c.SendText(ctx, phoneNumber, textFallback(message, buttons))
	}

	c.log.Info("whatsapp buttons sent", "phone", normalized, "gateway_message_id", messageID)
	return messageID, nil
}

func (c *Client) post(ctx context.Context, path string, payload any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal whatsapp payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", formatAuthHeader(c.apiKey))
	}
	if c.deviceID != "" {
		req.Header.Set("X-Device-Id", c.deviceID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("whatsapp request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode >= http.StatusBadRequest {
		return "", &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(data))}
	}

	var parsed gowaResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", nil
	}
	return parsed.Results.MessageID, nil
}

// statusError carries the gateway's HTTP status so callers can tell a
// rejected request from a transient failure.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("whatsapp service returned %d: %s", e.code, e.body)
}

func textFallback(message string, buttons []Button) string {
	var b strings.Builder
	b.WriteString(message)
	for _, btn := range buttons {
		b.WriteString("\n• ")
		b.WriteString(btn.Title)
	}
	return b.String()
}

func formatAuthHeader(apiKey string) string {
	if strings.HasPrefix(strings.ToLower(apiKey), "basic ") {
		return apiKey
	}

	encoded := base64.StdEncoding.EncodeToString([]byte(apiKey))
	return "Basic " + encoded
}
