package features

import (
	"math"
	"testing"

	"tarteel/audio"
)

func TestSplit_SingleLoudRegion(t *testing.T) {
	sr := audio.MatchingSampleRate

	// 0.5 сек тишины, 1 сек громкого тона, 0.5 сек тишины
	samples := make([]float64, 2*sr)
	for i := sr / 2; i < sr/2+sr; i++ {
		t := float64(i) / float64(sr)
		samples[i] = 0.9 * math.Sin(2*math.Pi*440*t)
	}

	segments := Split(&audio.Buffer{Samples: samples, SampleRate: sr})

	if len(segments) != 1 {
		t.Fatalf("segments = %d, want 1", len(segments))
	}
	if len(segments[0]) != NSegmentMFCC {
		t.Fatalf("descriptor dim = %d, want %d", len(segments[0]), NSegmentMFCC)
	}
}

func TestSplit_Silence(t *testing.T) {
	sr := audio.MatchingSampleRate
	segments := Split(&audio.Buffer{Samples: make([]float64, sr), SampleRate: sr})

	if len(segments) != 0 {
		t.Fatalf("segments = %d, want 0 for silence", len(segments))
	}
}

func TestSplit_ShortRegionDiscarded(t *testing.T) {
	sr := audio.MatchingSampleRate

	// Громкий всплеск 200 мс - короче минимальной длительности сегмента
	samples := make([]float64, sr)
	burst := sr / 5
	for i := sr / 4; i < sr/4+burst; i++ {
		t := float64(i) / float64(sr)
		samples[i] = 0.9 * math.Sin(2*math.Pi*440*t)
	}

	segments := Split(&audio.Buffer{Samples: samples, SampleRate: sr})

	if len(segments) != 0 {
		t.Fatalf("segments = %d, want 0 for region shorter than %.1f sec", len(segments), SegmentMinDuration)
	}
}

func TestSplit_Empty(t *testing.T) {
	segments := Split(&audio.Buffer{Samples: nil, SampleRate: audio.MatchingSampleRate})
	if len(segments) != 0 {
		t.Fatalf("segments = %d, want 0 for empty input", len(segments))
	}
}
