package match

import (
	"context"
	"fmt"
	"math"
)

// AlignmentError ошибка DTW выравнивания (вырожденные формы, дедлайн)
// Нефатальна: каскад деградирует до последней успешно вычисленной стадии
type AlignmentError struct {
	Reason string
	Err    error
}

func (e *AlignmentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("alignment failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("alignment failed: %s", e.Reason)
}

func (e *AlignmentError) Unwrap() error {
	return e.Err
}

// dtwSimilarity сравнивает две временные матрицы [rows][frames]:
// прореживает по времени общим шагом, выравнивает DTW с евклидовой
// стоимостью фрейма и нормирует дистанцию в близость [0, 1]
// Контекст проверяется внутри цикла DP: стоимость выравнивания растёт
// с длиной последовательностей, и истёкший дедлайн обрывает стадию
func dtwSimilarity(ctx context.Context, seq1, seq2 [][]float64) (float64, error) {
	len1 := seqFrames(seq1)
	len2 := seqFrames(seq2)
	if len1 == 0 || len2 == 0 {
		return 0, &AlignmentError{Reason: "empty sequence"}
	}
	if len(seq1) != len(seq2) {
		return 0, &AlignmentError{Reason: fmt.Sprintf("channel count mismatch: %d vs %d", len(seq1), len(seq2))}
	}

	// Прореживание по времени ограничивает стоимость выравнивания
	step := min(len1, len2) / 100
	if step < 1 {
		step = 1
	}

	// Транспонируем: время становится ведущей осью
	frames1 := subsampleFrames(seq1, step)
	frames2 := subsampleFrames(seq2, step)

	distance, err := dtwDistance(ctx, frames1, frames2)
	if err != nil {
		return 0, err
	}

	maxLen := len(frames1)
	if len(frames2) > maxLen {
		maxLen = len(frames2)
	}
	channels := len(seq1)

	similarity := 1.0 - distance/(float64(maxLen)*float64(channels))
	if similarity < 0 {
		similarity = 0
	}
	return similarity, nil
}

// dtwDistance вычисляет дистанцию динамической трансформации времени
// между двумя последовательностями фреймов (полная DP матрица)
func dtwDistance(ctx context.Context, a, b [][]float64) (float64, error) {
	n := len(a)
	m := len(b)

	// Две строки DP достаточно: путь не восстанавливаем
	prev := make([]float64, m+1)
	curr := make([]float64, m+1)
	for j := range prev {
		prev[j] = math.Inf(1)
	}
	prev[0] = 0

	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return 0, &AlignmentError{Reason: "deadline exceeded", Err: err}
		}

		curr[0] = math.Inf(1)
		for j := 1; j <= m; j++ {
			cost := euclidean(a[i-1], b[j-1])
			best := prev[j] // вставка
			if prev[j-1] < best {
				best = prev[j-1] // совпадение
			}
			if curr[j-1] < best {
				best = curr[j-1] // удаление
			}
			curr[j] = cost + best
		}
		prev, curr = curr, prev
	}

	return prev[m], nil
}

// euclidean евклидова дистанция между двумя фреймами
func euclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// subsampleFrames прореживает матрицу [rows][frames] по времени с шагом step
// и транспонирует в [frames][rows]
func subsampleFrames(seq [][]float64, step int) [][]float64 {
	numFrames := seqFrames(seq)
	rows := len(seq)

	var frames [][]float64
	for t := 0; t < numFrames; t += step {
		frame := make([]float64, rows)
		for r := 0; r < rows; r++ {
			frame[r] = seq[r][t]
		}
		frames = append(frames, frame)
	}
	return frames
}

// seqFrames возвращает количество фреймов матрицы [rows][frames]
func seqFrames(seq [][]float64) int {
	if len(seq) == 0 {
		return 0
	}
	return len(seq[0])
}
