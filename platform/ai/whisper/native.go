// In-process transcription via the whisper.cpp CGO bindings. libwhisper.a and
// whisper.h must be available at link time through LIBRARY_PATH and
// C_INCLUDE_PATH.

package whisper

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

// Native runs inference in-process against a loaded whisper.cpp model. The
// model is loaded once and shared; each call creates its own context because
// contexts are not thread-safe.
type Native struct {
	model    whisperlib.Model
	language string

	// Serializes inference. Voice notes are processed one at a time per
	// worker; the mutex keeps concurrent API calls safe too.
	mu sync.Mutex
}

// NewNative loads the model at modelPath. Close must be called when the
// transcriber is no longer needed.
func NewNative(modelPath, language string) (*Native, error) {
	model, err := whisperlib.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("whisper: load model %q: %w", modelPath, err)
	}
	if language == "" {
		language = defaultLanguage
	}
	return &Native{model: model, language: language}, nil
}

// Close releases the model.
func (n *Native) Close() error {
	if n.model != nil {
		return n.model.Close()
	}
	return nil
}

// Transcribe decodes the WAV payload and runs batch inference.
func (n *Native) Transcribe(ctx context.Context, audio []byte, language string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if language == "" {
		language = n.language
	}

	samples, err := decodeWAV(audio)
	if err != nil {
		return "", err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	wctx, err := n.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("whisper: create context: %w", err)
	}
	if err := wctx.SetLanguage(language); err != nil {
		return "", fmt.Errorf("whisper: set language %q: %w", language, err)
	}

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("whisper: process audio: %w", err)
	}

	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("whisper: read segment: %w", err)
		}
		if text := strings.TrimSpace(segment.Text); text != "" {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, " "), nil
}

// decodeWAV extracts 16-bit signed little-endian PCM from a RIFF WAV file and
// converts it to the float32 mono samples whisper.cpp expects. Stereo input
// is downmixed by averaging channels.
func decodeWAV(data []byte) ([]float32, error) {
	if len(data) < 44 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, errors.New("whisper: not a RIFF WAV file")
	}

	channels := int(binary.LittleEndian.Uint16(data[22:24]))
	bits := int(binary.LittleEndian.Uint16(data[34:36]))
	if bits != 16 {
		return nil, fmt.Errorf("whisper: unsupported bit depth %d", bits)
	}
	if channels < 1 || channels > 2 {
		return nil, fmt.Errorf("whisper: unsupported channel count %d", channels)
	}

	// Walk the chunk list for the data chunk; some encoders insert LIST or
	// fact chunks before it.
	offset := 12
	var pcm []byte
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8
		if body+chunkSize > len(data) {
			chunkSize = len(data) - body
		}
		if chunkID == "data" {
			pcm = data[body : body+chunkSize]
			break
		}
		offset = body + chunkSize
		if chunkSize%2 == 1 {
			offset++
		}
	}
	if pcm == nil {
		return nil, errors.New("whisper: no data chunk in WAV file")
	}

	frame := 2 * channels
	samples := make([]float32, 0, len(pcm)/frame)
	for i := 0; i+frame <= len(pcm); i += frame {
		var sum float32
		for c := 0; c < channels; c++ {
			v := int16(binary.LittleEndian.Uint16(pcm[i+2*c : i+2*c+2]))
			sum += float32(v) / 32768.0
		}
		samples = append(samples, sum/float32(channels))
	}
	if len(samples) == 0 {
		return nil, errors.New("whisper: empty audio data")
	}
	return samples, nil
}
