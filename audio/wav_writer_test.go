package audio

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestWAVWriter_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.wav")

	samples := make([]float64, MatchingSampleRate/2)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*440*float64(i)/float64(MatchingSampleRate))
	}

	w, err := NewWAVWriter(path, MatchingSampleRate)
	if err != nil {
		t.Fatalf("NewWAVWriter: %v", err)
	}
	if err := w.Write(samples); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	buf, err := Decode(data, "audio/wav")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if buf.SampleRate != MatchingSampleRate {
		t.Fatalf("rate = %d, want %d", buf.SampleRate, MatchingSampleRate)
	}
	if len(buf.Samples) != len(samples) {
		t.Fatalf("got %d samples, want %d", len(buf.Samples), len(samples))
	}
	// PCM16 квантование: точность ~1/32767
	for _, i := range []int{0, 100, len(samples) / 2, len(samples) - 1} {
		if math.Abs(buf.Samples[i]-samples[i]) > 1e-3 {
			t.Fatalf("sample[%d] = %v, want ~%v", i, buf.Samples[i], samples[i])
		}
	}
}

func TestWAVWriter_ClampsOutOfRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clamp.wav")

	w, err := NewWAVWriter(path, MatchingSampleRate)
	if err != nil {
		t.Fatalf("NewWAVWriter: %v", err)
	}
	if err := w.Write([]float64{2.0, -2.0, 0.0}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	buf, err := Decode(data, "audio/wav")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if buf.Samples[0] < 0.99 || buf.Samples[1] > -0.99 {
		t.Fatalf("samples not clamped: %v, %v", buf.Samples[0], buf.Samples[1])
	}
}
