package whisper

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

func buildWAV(t *testing.T, samples []int16, channels int) []byte {
	t.Helper()
	var pcm bytes.Buffer
	for _, s := range samples {
		if err := binary.Write(&pcm, binary.LittleEndian, s); err != nil {
			t.Fatalf("write pcm: %v", err)
		}
	}

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+pcm.Len()))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(16000))
	binary.Write(&buf, binary.LittleEndian, uint32(16000*2*channels))
	binary.Write(&buf, binary.LittleEndian, uint16(2*channels))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(pcm.Len()))
	buf.Write(pcm.Bytes())
	return buf.Bytes()
}

func TestDecodeWAVMono(t *testing.T) {
	wav := buildWAV(t, []int16{0, 16384, -16384, 32767}, 1)

	samples, err := decodeWAV(wav)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(samples) != 4 {
		t.Fatalf("expected 4 samples, got %d", len(samples))
	}
	want := []float32{0, 0.5, -0.5, 32767.0 / 32768.0}
	for i, w := range want {
		if math.Abs(float64(samples[i]-w)) > 1e-6 {
			t.Fatalf("sample %d: expected %f, got %f", i, w, samples[i])
		}
	}
}

func TestDecodeWAVStereoDownmix(t *testing.T) {
	wav := buildWAV(t, []int16{16384, -16384, 16384, 16384}, 2)

	samples, err := decodeWAV(wav)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("expected 2 downmixed samples, got %d", len(samples))
	}
	if math.Abs(float64(samples[0])) > 1e-6 {
		t.Fatalf("expected first frame to average to 0, got %f", samples[0])
	}
	if math.Abs(float64(samples[1]-0.5)) > 1e-6 {
		t.Fatalf("expected second frame 0.5, got %f", samples[1])
	}
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	if _, err := decodeWAV([]byte("not audio at all, just text")); err == nil {
		t.Fatal("expected error for non-WAV payload")
	}
	if _, err := decodeWAV(nil); err == nil {
		t.Fatal("expected error for empty payload")
	}
}
