package match

import (
	"context"
	"fmt"
	"testing"
)

// rankCandidates строит кандидатов с заданными косинусами к unitVector(0)
func rankCandidates(cosines []float64) []Candidate {
	out := make([]Candidate, len(cosines))
	for i, c := range cosines {
		out[i] = Candidate{
			ID:     fmt.Sprintf("cand-%d", i),
			Name:   fmt.Sprintf("Reciter %d", i),
			Style:  "Hafs",
			Vector: mixedVector(c),
		}
	}
	return out
}

func TestRank_SortedAndFiltered(t *testing.T) {
	query := &Sample{Vector: unitVector(0)}
	candidates := rankCandidates([]float64{0.95, 0.3, 0.7, 0.41, 0.1, 0.85})

	matches, err := Rank(context.Background(), query, candidates)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}

	// 0.3 и 0.1 ниже порога, остальные четыре проходят
	if len(matches) != 4 {
		t.Fatalf("got %d matches, want 4", len(matches))
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].SimilarityScore > matches[i-1].SimilarityScore {
			t.Fatalf("matches not sorted: %v > %v at %d", matches[i].SimilarityScore, matches[i-1].SimilarityScore, i)
		}
	}
	for _, m := range matches {
		if m.SimilarityScore <= RankThreshold {
			t.Fatalf("match %s below threshold: %v", m.ID, m.SimilarityScore)
		}
	}
	if matches[0].ID != "cand-0" {
		t.Fatalf("best match = %s, want cand-0", matches[0].ID)
	}
}

func TestRank_TopN(t *testing.T) {
	cosines := make([]float64, RankTopN+3)
	for i := range cosines {
		cosines[i] = 0.6 + 0.04*float64(i)
	}

	matches, err := Rank(context.Background(), &Sample{Vector: unitVector(0)}, rankCandidates(cosines))
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(matches) != RankTopN {
		t.Fatalf("got %d matches, want %d", len(matches), RankTopN)
	}
}

func TestRank_EmptyCandidates(t *testing.T) {
	matches, err := Rank(context.Background(), &Sample{Vector: unitVector(0)}, nil)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("got %d matches, want 0", len(matches))
	}
}

func TestRank_SkipsInvalidCandidate(t *testing.T) {
	candidates := rankCandidates([]float64{0.9})
	candidates = append(candidates, Candidate{ID: "broken", Vector: []float64{1, 2, 3}})

	matches, err := Rank(context.Background(), &Sample{Vector: unitVector(0)}, candidates)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(matches) != 1 || matches[0].ID != "cand-0" {
		t.Fatalf("matches = %v, want only cand-0", matches)
	}
}

func TestRank_DeterministicAspects(t *testing.T) {
	query := &Sample{Vector: unitVector(0)}
	candidates := rankCandidates([]float64{0.8})

	first, err := Rank(context.Background(), query, candidates)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	second, err := Rank(context.Background(), query, candidates)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}

	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("unexpected match counts: %d, %d", len(first), len(second))
	}
	for _, aspect := range Aspects {
		a, ok := first[0].AspectScores[aspect]
		if !ok {
			t.Fatalf("missing aspect %q", aspect)
		}
		if a != second[0].AspectScores[aspect] {
			t.Fatalf("aspect %q not deterministic: %v vs %v", aspect, a, second[0].AspectScores[aspect])
		}
		if a < 0 || a > 1 {
			t.Fatalf("aspect %q out of range: %v", aspect, a)
		}
	}
}

func TestRank_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Rank(ctx, &Sample{Vector: unitVector(0)}, rankCandidates([]float64{0.9})); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
