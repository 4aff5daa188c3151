package features

import (
	"math"
	"testing"

	"tarteel/audio"
)

func TestPausePatterns_Silence(t *testing.T) {
	sr := audio.MatchingSampleRate
	stats := PausePatterns(make([]float64, sr), sr)

	if len(stats) != NPauseFeatures {
		t.Fatalf("stats dim = %d, want %d", len(stats), NPauseFeatures)
	}
	// Полностью тихая запись - ровно одна пауза на всю длину
	if stats[0] != 1 {
		t.Fatalf("pause count = %v, want 1", stats[0])
	}
	if stats[1] <= 0 {
		t.Fatalf("mean pause length = %v, want > 0", stats[1])
	}
	// Одна пауза - нулевой разброс
	if stats[2] != 0 {
		t.Fatalf("pause std = %v, want 0 for a single pause", stats[2])
	}
	if stats[3] != stats[1] {
		t.Fatalf("longest pause = %v, want equal to mean for a single pause", stats[3])
	}
}

func TestPausePatterns_NoPauses(t *testing.T) {
	sr := audio.MatchingSampleRate
	samples := make([]float64, sr)
	for i := range samples {
		t := float64(i) / float64(sr)
		samples[i] = 0.9 * math.Sin(2*math.Pi*200*t)
	}

	stats := PausePatterns(samples, sr)

	if stats[0] != 0 {
		t.Fatalf("pause count = %v, want 0 for a constant tone", stats[0])
	}
	for i, v := range stats {
		if v != 0 {
			t.Fatalf("stats[%d] = %v, want all zeros without pauses", i, v)
		}
	}
}

func TestPausePatterns_TwoPauses(t *testing.T) {
	sr := audio.MatchingSampleRate

	// тон - пауза - тон - пауза - тон
	samples := make([]float64, 3*sr)
	tone := func(from, to int) {
		for i := from; i < to; i++ {
			t := float64(i) / float64(sr)
			samples[i] = 0.9 * math.Sin(2*math.Pi*200*t)
		}
	}
	tone(0, sr/2)
	tone(sr, sr+sr/2)
	tone(2*sr, 3*sr)

	stats := PausePatterns(samples, sr)

	if stats[0] != 2 {
		t.Fatalf("pause count = %v, want 2", stats[0])
	}
	if stats[3] < stats[1] {
		t.Fatalf("longest %v < mean %v", stats[3], stats[1])
	}
}

func TestPausePatterns_Empty(t *testing.T) {
	stats := PausePatterns(nil, audio.MatchingSampleRate)
	for i, v := range stats {
		if v != 0 {
			t.Fatalf("stats[%d] = %v, want 0 for empty input", i, v)
		}
	}
}
