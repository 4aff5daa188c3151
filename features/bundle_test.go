package features

import (
	"math"
	"testing"

	"tarteel/audio"
)

// sineBuffer синтезирует амплитудно-модулированную синусоиду
func sineBuffer(freq float64, seconds float64, sampleRate int) *audio.Buffer {
	n := int(seconds * float64(sampleRate))
	samples := make([]float64, n)
	for i := range samples {
		t := float64(i) / float64(sampleRate)
		env := 0.5 + 0.5*math.Sin(2*math.Pi*2*t)
		samples[i] = 0.8 * env * math.Sin(2*math.Pi*freq*t)
	}
	return &audio.Buffer{Samples: samples, SampleRate: sampleRate}
}

func silentBuffer(seconds float64, sampleRate int) *audio.Buffer {
	n := int(seconds * float64(sampleRate))
	return &audio.Buffer{Samples: make([]float64, n), SampleRate: sampleRate}
}

func TestExtract_FingerprintUnitNorm(t *testing.T) {
	bundle := Extract(sineBuffer(440, 2.0, audio.MatchingSampleRate))

	if len(bundle.FeatureVector) != FingerprintDim() {
		t.Fatalf("vector dim = %d, want %d", len(bundle.FeatureVector), FingerprintDim())
	}

	var norm float64
	for _, v := range bundle.FeatureVector {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	if math.Abs(norm-1.0) > 1e-9 {
		t.Fatalf("fingerprint norm = %v, want 1.0", norm)
	}
}

func TestExtract_SequenceShape(t *testing.T) {
	bundle := Extract(sineBuffer(440, 1.5, audio.MatchingSampleRate))

	if len(bundle.Sequence) != NSequenceRows {
		t.Fatalf("sequence rows = %d, want %d", len(bundle.Sequence), NSequenceRows)
	}

	cols := len(bundle.Sequence[0])
	if cols == 0 {
		t.Fatal("sequence has no frames")
	}
	for i, row := range bundle.Sequence {
		if len(row) != cols {
			t.Fatalf("row %d length = %d, want %d", i, len(row), cols)
		}
	}
}

func TestExtract_ShapesMetadata(t *testing.T) {
	bundle := Extract(sineBuffer(330, 1.0, audio.MatchingSampleRate))

	if bundle.Shapes.VectorDimension != FingerprintDim() {
		t.Fatalf("shapes vector dim = %d, want %d", bundle.Shapes.VectorDimension, FingerprintDim())
	}
	if bundle.Shapes.MFCCShape[0] != NMFCC {
		t.Fatalf("mfcc shape rows = %d, want %d", bundle.Shapes.MFCCShape[0], NMFCC)
	}
	if bundle.Shapes.ChromaShape[0] != NChromaBins {
		t.Fatalf("chroma shape rows = %d, want %d", bundle.Shapes.ChromaShape[0], NChromaBins)
	}
	if bundle.Shapes.MelShape[0] != NMelBands {
		t.Fatalf("mel shape rows = %d, want %d", bundle.Shapes.MelShape[0], NMelBands)
	}
}

// Тишина не ошибка: пайплайн возвращает вырожденные, но корректные признаки
func TestExtract_Silence(t *testing.T) {
	bundle := Extract(silentBuffer(1.0, audio.MatchingSampleRate))

	if len(bundle.Segments) != 0 {
		t.Fatalf("segments = %d, want 0 for silence", len(bundle.Segments))
	}

	if len(bundle.PitchContour) != 1 || bundle.PitchContour[0] != 0.0 {
		t.Fatalf("pitch contour = %v, want [0.0] for silence", bundle.PitchContour)
	}

	// Вся запись - одна длинная пауза
	if bundle.PausePatterns[0] != 1 {
		t.Fatalf("pause count = %v, want 1 for silence", bundle.PausePatterns[0])
	}
}

func TestExtract_PitchNeverEmpty(t *testing.T) {
	short := &audio.Buffer{Samples: make([]float64, 100), SampleRate: audio.MatchingSampleRate}
	bundle := Extract(short)

	if len(bundle.PitchContour) == 0 {
		t.Fatal("pitch contour must never be empty")
	}
}

func TestExtractWithoutSegments(t *testing.T) {
	bundle := ExtractWithoutSegments(sineBuffer(440, 1.0, audio.MatchingSampleRate))

	// Сегменты всегда присутствуют в выводе как пустой список, не null
	if bundle.Segments == nil {
		t.Fatal("segments must be an empty list, not nil")
	}
	if len(bundle.Segments) != 0 {
		t.Fatalf("segments = %v, want empty when segmentation is skipped", bundle.Segments)
	}
	if len(bundle.FeatureVector) != FingerprintDim() {
		t.Fatalf("vector dim = %d, want %d", len(bundle.FeatureVector), FingerprintDim())
	}
}
