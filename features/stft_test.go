package features

import (
	"math"
	"testing"
)

func TestHannWindow_Periodic(t *testing.T) {
	// Периодическая форма: пик ровно в size/2, последний отсчёт не ноль
	for _, size := range []int{512, 2048} {
		w := hannWindow(size)
		if w[0] != 0 {
			t.Fatalf("size %d: w[0] = %v, want 0", size, w[0])
		}
		if math.Abs(w[size/2]-1.0) > 1e-12 {
			t.Fatalf("size %d: w[size/2] = %v, want 1", size, w[size/2])
		}
		if w[size-1] == 0 {
			t.Fatalf("size %d: w[size-1] = 0, symmetric form instead of periodic", size)
		}
	}
}

func TestSTFT_Shapes(t *testing.T) {
	stft := NewSTFT()
	n := 4 * 2048
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = math.Sin(2 * math.Pi * 440 * float64(i) / 22050)
	}

	spec := stft.PowerSpectrogram(samples)
	if len(spec) != stft.NumFrames(n) {
		t.Fatalf("frames = %d, want %d", len(spec), stft.NumFrames(n))
	}
	for _, frame := range spec {
		if len(frame) != stft.NumBins() {
			t.Fatalf("bins = %d, want %d", len(frame), stft.NumBins())
		}
	}
}
