// Package whisper provides batch speech-to-text over whisper.cpp, either
// through a running whisper-server (REST) or in-process via the CGO bindings.
// Voice notes are short, so each message is transcribed as a single batch
// inference rather than a stream.
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"fieldvoice_backend/platform/config"
)

const defaultLanguage = "es"

// Transcriber converts an audio payload into text. Audio is expected to be a
// complete file (WAV or any container whisper-server understands).
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, language string) (string, error)
}

// NewFromConfig selects the transcriber backend: a local model path takes
// precedence over a remote whisper-server URL.
func NewFromConfig(cfg config.WhisperConfig) (Transcriber, error) {
	lang := cfg.GetWhisperLanguage()
	if path := cfg.GetWhisperModelPath(); path != "" {
		return NewNative(path, lang)
	}
	if url := cfg.GetWhisperServerURL(); url != "" {
		return NewServerClient(url, lang), nil
	}
	return nil, errors.New("whisper: neither model path nor server url configured")
}

// ServerClient talks to a whisper-server instance over its REST API.
type ServerClient struct {
	serverURL string
	language  string
	client    *http.Client
}

// NewServerClient creates a client for the whisper-server at serverURL
// (e.g. "http://localhost:8080"). Deadlines come from the caller's context.
func NewServerClient(serverURL, language string) *ServerClient {
	if language == "" {
		language = defaultLanguage
	}
	return &ServerClient{
		serverURL: strings.TrimRight(serverURL, "/"),
		language:  language,
		client:    &http.Client{},
	}
}

// Transcribe POSTs the audio to the /inference endpoint as multipart form
// data and returns the transcript text.
func (c *ServerClient) Transcribe(ctx context.Context, audio []byte, language string) (string, error) {
	if len(audio) == 0 {
		return "", errors.New("whisper: empty audio payload")
	}
	if language == "" {
		language = c.language
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", fmt.Errorf("whisper: create form file: %w", err)
	}
	if _, err := fw.Write(audio); err != nil {
		return "", fmt.Errorf("whisper: write audio: %w", err)
	}
	if err := mw.WriteField("language", language); err != nil {
		return "", fmt.Errorf("whisper: write language field: %w", err)
	}
	if err := mw.WriteField("response_format", "json"); err != nil {
		return "", fmt.Errorf("whisper: write format field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("whisper: close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+"/inference", &body)
	if err != nil {
		return "", fmt.Errorf("whisper: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("whisper: inference request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("whisper: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("whisper: server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(payload, &result); err != nil {
		return "", fmt.Errorf("whisper: decode response: %w", err)
	}

	return strings.TrimSpace(result.Text), nil
}
