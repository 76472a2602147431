// Package completion provides a thin prompt/response client over any ADK
// model.LLM implementation. Callers hand it a system prompt and a user
// prompt; it returns the model's text, optionally constrained to JSON.
package completion

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

// Request describes a single completion call.
type Request struct {
	System      string
	User        string
	Temperature float32
	MaxTokens   int32
	JSONOutput  bool
}

// Client wraps a model.LLM for plain request/response use.
type Client struct {
	llm model.LLM
}

// NewClient wraps the given model.
func NewClient(llm model.LLM) *Client {
	return &Client{llm: llm}
}

// ModelName reports the wrapped model's name.
func (c *Client) ModelName() string {
	return c.llm.Name()
}

// Complete performs one non-streaming completion and returns the text of the
// final response.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	cfg := &genai.GenerateContentConfig{}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Temperature > 0 {
		temp := req.Temperature
		cfg.Temperature = &temp
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = req.MaxTokens
	}
	if req.JSONOutput {
		cfg.ResponseMIMEType = "application/json"
	}

	llmReq := &model.LLMRequest{
		Model:  c.llm.Name(),
		Config: cfg,
		Contents: []*genai.Content{
			genai.NewContentFromText(req.User, genai.RoleUser),
		},
	}

	var text string
	for resp, err := range c.llm.GenerateContent(ctx, llmReq, false) {
		if err != nil {
			return "", fmt.Errorf("completion: %w", err)
		}
		if resp == nil || resp.Content == nil {
			continue
		}
		for _, part := range resp.Content.Parts {
			if part != nil && part.Text != "" {
				text += part.Text
			}
		}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("completion: model returned no text")
	}
	return text, nil
}

// ExtractJSONObject returns the first balanced top-level JSON object in the
// text. Models occasionally wrap JSON in prose or markdown fences; this strips
// everything outside the outermost braces.
func ExtractJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
