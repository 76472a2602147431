package whisper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestServerClientTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/inference" {
			t.Fatalf("expected /inference, got %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("language"); got != "es" {
			t.Fatalf("expected language es, got %q", got)
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("expected file field: %v", err)
		}
		file.Close()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":" Se me rompió la heladera. "}`))
	}))
	defer srv.Close()

	client := NewServerClient(srv.URL, "es")
	text, err := client.Transcribe(context.Background(), []byte("fake-audio"), "")
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if text != "Se me rompió la heladera." {
		t.Fatalf("expected trimmed transcript, got %q", text)
	}
}

func TestServerClientTranscribeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewServerClient(srv.URL, "es")
	if _, err := client.Transcribe(context.Background(), []byte("fake-audio"), ""); err == nil {
		t.Fatal("expected error on 500 response")
	}
}

func TestServerClientRejectsEmptyAudio(t *testing.T) {
	client := NewServerClient("http://localhost:1", "es")
	if _, err := client.Transcribe(context.Background(), nil, ""); err == nil {
		t.Fatal("expected error for empty audio")
	}
}
