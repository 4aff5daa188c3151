package match

import (
	"context"
	"hash/fnv"
	"log"
	"sort"
	"sync"
)

// Параметры ранжирования
const (
	// RankThreshold минимальный балл для попадания в выдачу
	RankThreshold = 0.4
	// RankTopN максимальное количество кандидатов в выдаче
	RankTopN = 5
)

// Aspects аспекты манеры чтения для иллюстративной декомпозиции балла
var Aspects = []string{
	"intonation", "pace", "melody", "strength", "articulation", "fluency", "rhythm",
}

// Candidate кандидат из хранилища чтецов
// Sequence и Segments обычно пусты: хранилище держит только отпечатки,
// и тогда сравнение ограничено косинусной стадией
type Candidate struct {
	ID       string
	Name     string
	Style    string
	Vector   []float64
	Sequence [][]float64
	Segments [][]float64
}

// RankedMatch элемент выдачи ранжирования
type RankedMatch struct {
	ID              string             `json:"id"`
	Name            string             `json:"name"`
	Style           string             `json:"style"`
	SimilarityScore float64            `json:"similarity_score"`
	AspectScores    map[string]float64 `json:"aspect_scores"`
}

// Rank сравнивает запрос с каждым кандидатом, отбрасывает баллы не выше
// RankThreshold и возвращает топ RankTopN по убыванию
// Сравнения независимы и выполняются параллельно
func Rank(ctx context.Context, query *Sample, candidates []Candidate) ([]RankedMatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scores := make([]float64, len(candidates))
	errs := make([]error, len(candidates))

	var wg sync.WaitGroup
	for i := range candidates {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			scores[i], errs[i] = scoreCandidate(ctx, query, &candidates[i])
		}(i)
	}
	wg.Wait()

	matches := make([]RankedMatch, 0, len(candidates))
	for i, c := range candidates {
		if errs[i] != nil {
			// Кандидат с несовместимым отпечатком не валит весь запрос
			log.Printf("[Match] Skipping candidate %s: %v", c.ID, errs[i])
			continue
		}
		if scores[i] <= RankThreshold {
			continue
		}
		matches = append(matches, RankedMatch{
			ID:              c.ID,
			Name:            c.Name,
			Style:           c.Style,
			SimilarityScore: scores[i],
			AspectScores:    aspectScores(c.ID, scores[i]),
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].SimilarityScore > matches[j].SimilarityScore
	})

	if len(matches) > RankTopN {
		matches = matches[:RankTopN]
	}
	return matches, nil
}

// scoreCandidate вычисляет балл кандидата: полный каскад когда хранилище
// сохранило временные данные, иначе только косинусная стадия
func scoreCandidate(ctx context.Context, query *Sample, c *Candidate) (float64, error) {
	if len(c.Sequence) == 0 {
		return CompareCosine(query.Vector, c.Vector)
	}

	result, err := Compare(ctx, query, &Sample{
		Vector:   c.Vector,
		Sequence: c.Sequence,
		Segments: c.Segments,
	})
	if err != nil {
		return 0, err
	}
	return result.Similarity, nil
}

// aspectScores строит иллюстративную декомпозицию балла по аспектам
// Множитель [0.9, 1.1] детерминированно выводится из хэша id+аспект:
// выдача воспроизводима между запусками, но НЕ является настоящей
// по-аспектной близостью
func aspectScores(candidateID string, similarity float64) map[string]float64 {
	scores := make(map[string]float64, len(Aspects))
	for _, aspect := range Aspects {
		h := fnv.New64a()
		h.Write([]byte(candidateID))
		h.Write([]byte(aspect))
		// Хэш в [0, 1), затем в множитель [0.9, 1.1]
		u := float64(h.Sum64()>>11) / float64(1<<53)
		factor := 0.9 + 0.2*u

		score := similarity * factor
		if score > 1 {
			score = 1
		} else if score < 0 {
			score = 0
		}
		scores[aspect] = score
	}
	return scores
}
