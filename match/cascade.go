package match

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"tarteel/features"
)

// Веса стадий каскада
const (
	// StageGate порог первой стадии: ниже него дорогие стадии не запускаются
	StageGate      = 0.5
	cosineWeight   = 0.4
	dtwWeight      = 0.6
	combinedWeight = 0.3
	segmentWeight  = 0.7
)

// Методы сравнения
const (
	MethodCosineOnly = "cosine_only"
	MethodFull       = "full"
)

// Sample вход каскада: признаки одной записи
// Sequence и Segments опциональны - без них сравнение ограничено первой стадией
type Sample struct {
	Vector   []float64
	Sequence [][]float64
	Segments [][]float64
}

// SampleFromBundle собирает вход каскада из извлечённых признаков
func SampleFromBundle(b *features.Bundle) *Sample {
	return &Sample{
		Vector:   b.FeatureVector,
		Sequence: b.Sequence,
		Segments: b.Segments,
	}
}

// Result итог каскадного сравнения
// Degraded несёт причину, по которой стадия была оставлена (ошибка
// выравнивания, дедлайн) - деградация это явное значение, а не исключение
type Result struct {
	Similarity float64
	Cosine     float64
	DTW        float64
	Segment    *float64
	Method     string
	Stage      int
	Degraded   string
}

// MarshalJSON сериализует результат по формату контракта:
// короткая форма для cosine_only, полная для full
func (r *Result) MarshalJSON() ([]byte, error) {
	if r.Method == MethodCosineOnly {
		return json.Marshal(struct {
			Similarity float64 `json:"similarity"`
			Method     string  `json:"method"`
			Stage      int     `json:"stage"`
		}{r.Similarity, r.Method, r.Stage})
	}

	return json.Marshal(struct {
		Similarity float64  `json:"similarity"`
		Cosine     float64  `json:"cosine_similarity"`
		DTW        float64  `json:"dtw_similarity"`
		Segment    *float64 `json:"segment_similarity"`
		Method     string   `json:"method"`
		Stage      int      `json:"stage"`
		Degraded   string   `json:"degraded_reason,omitempty"`
	}{r.Similarity, r.Cosine, r.DTW, r.Segment, r.Method, r.Stage, r.Degraded})
}

// Compare выполняет каскадное сравнение двух записей
//
// Стадия 1: косинусная близость отпечатков (отпечатки уже единичной нормы,
// поэтому достаточно скалярного произведения). Ниже StageGate каскад
// завершается - дорогое выравнивание не запускается
// Стадия 2: DTW выравнивание временных матриц; ошибка выравнивания не
// фатальна - каскад возвращает результат первой стадии с причиной деградации
// Стадия 3: сопоставление сегментов, только если сегменты есть у обеих записей
//
// Контекст ограничивает стадии 2-3: по истечении дедлайна возвращается
// результат первой стадии
func Compare(ctx context.Context, sample1, sample2 *Sample) (*Result, error) {
	if err := features.ValidateFingerprint(sample1.Vector); err != nil {
		return nil, fmt.Errorf("sample1: %w", err)
	}
	if err := features.ValidateFingerprint(sample2.Vector); err != nil {
		return nil, fmt.Errorf("sample2: %w", err)
	}

	cosine := Dot(sample1.Vector, sample2.Vector)

	// Стадия 1: быстрая дисквалификация
	if cosine < StageGate {
		return &Result{
			Similarity: cosine,
			Cosine:     cosine,
			Method:     MethodCosineOnly,
			Stage:      1,
		}, nil
	}

	// Стадия 2: временное выравнивание
	combined := cosine
	degraded := ""
	dtwSim, err := dtwSimilarity(ctx, sample1.Sequence, sample2.Sequence)
	if err != nil {
		// Деградируем до первой стадии, не падаем
		log.Printf("[Match] DTW failed: %v, falling back to cosine similarity", err)
		degraded = err.Error()
	} else {
		combined = cosineWeight*cosine + dtwWeight*dtwSim
	}

	result := &Result{
		Similarity: combined,
		Cosine:     cosine,
		DTW:        combined,
		Method:     MethodFull,
		Stage:      2,
		Degraded:   degraded,
	}

	// Стадия 3: сегменты, только если есть у обеих записей
	if len(sample1.Segments) == 0 || len(sample2.Segments) == 0 {
		return result, nil
	}
	if err := ctx.Err(); err != nil {
		result.Degraded = (&AlignmentError{Reason: "deadline exceeded", Err: err}).Error()
		return result, nil
	}

	segmentSim := CompareSegments(sample1.Segments, sample2.Segments)
	result.Similarity = combinedWeight*combined + segmentWeight*segmentSim
	if segmentSim > 0 {
		result.Segment = &segmentSim
		result.Stage = 3
	}

	return result, nil
}

// CompareCosine выполняет только первую стадию (по запросу вызывающего
// или когда доступны лишь отпечатки - как при сравнении с хранилищем)
func CompareCosine(vector1, vector2 []float64) (float64, error) {
	if err := features.ValidateFingerprint(vector1); err != nil {
		return 0, err
	}
	if err := features.ValidateFingerprint(vector2); err != nil {
		return 0, err
	}
	return Dot(vector1, vector2), nil
}
