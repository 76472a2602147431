package intake

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"fieldvoice_backend/internal/intake/workflow"
	"fieldvoice_backend/platform/ai/whisper"
)

// maxAudioBytes caps downloaded voice notes. WhatsApp voice messages are a
// few hundred KB; anything near this limit is not a voice note.
const maxAudioBytes = 32 << 20

// fetchingTranscriber downloads the audio behind a media URL and feeds it to
// the speech-to-text backend.
type fetchingTranscriber struct {
	stt    whisper.Transcriber
	client *http.Client
	apiKey string
}

var _ workflow.Transcriber = (*fetchingTranscriber)(nil)

func newFetchingTranscriber(stt whisper.Transcriber, gatewayKey string) *fetchingTranscriber {
	return &fetchingTranscriber{
		stt:    stt,
		client: &http.Client{},
		apiKey: gatewayKey,
	}
}

func (t *fetchingTranscriber) Transcribe(ctx context.Context, audioURL, languageHint string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return "", fmt.Errorf("build audio request: %w", err)
	}
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download audio: unexpected status %d", resp.StatusCode)
	}

	audio, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes))
	if err != nil {
		return "", fmt.Errorf("read audio: %w", err)
	}

	return t.stt.Transcribe(ctx, audio, languageHint)
}
