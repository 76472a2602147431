package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fieldvoice_backend/platform/logger"
)

type testConfig struct {
	url string
}

func (c testConfig) GetWhatsAppURL() string      { return c.url }
func (c testConfig) GetWhatsAppKey() string      { return "" }
func (c testConfig) GetWhatsAppDeviceID() string { return "" }

var testButtons = []Button{
	{ID: "yes", Title: "Sí"},
	{ID: "no", Title: "No"},
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(testConfig{url: srv.URL}, logger.New("development")), srv
}

func TestSendButtonsFallsBackToTextOn4xx(t *testing.T) {
	var textBody string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/send/buttons":
			http.Error(w, "interactive messages not supported", http.StatusBadRequest)
		case "/send/message":
			var req gowaMessageRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Fatalf("decode text payload: %v", err)
			}
			textBody = req.Message
			_ = json.NewEncoder(w).Encode(gowaResponse{})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))

	_, err := client.SendButtons(context.Background(), "+5493874475398", "¿Es correcto?", testButtons)
	if err != nil {
		t.Fatalf("expected text fallback, got error: %v", err)
	}
	if !strings.Contains(textBody, "¿Es correcto?") || !strings.Contains(textBody, "Sí") {
		t.Fatalf("expected fallback text with button titles, got %q", textBody)
	}
}

func TestSendButtonsPropagatesServerErrors(t *testing.T) {
	textSent := false
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/send/message" {
			textSent = true
		}
		http.Error(w, "gateway overloaded", http.StatusServiceUnavailable)
	}))

	_, err := client.SendButtons(context.Background(), "+5493874475398", "¿Es correcto?", testButtons)
	if err == nil {
		t.Fatal("expected error on 5xx")
	}
	if textSent {
		t.Fatal("expected no text fallback on a transient failure")
	}
}

func TestSendButtonsCapsAtThree(t *testing.T) {
	var got gowaButtonsRequest
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode buttons payload: %v", err)
		}
		_ = json.NewEncoder(w).Encode(gowaResponse{})
	}))

	many := []Button{{ID: "1"}, {ID: "2"}, {ID: "3"}, {ID: "4"}}
	if _, err := client.SendButtons(context.Background(), "+5493874475398", "elegí", many); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Buttons) != MaxButtons {
		t.Fatalf("expected %d buttons, got %d", MaxButtons, len(got.Buttons))
	}
}
