// Package match реализует каскадное сравнение записей чтецов:
// дешёвая косинусная близость отпечатков, DTW выравнивание временных
// матриц и сопоставление сегментов - с выходом на первой
// дисквалифицирующей стадии
package match

import "math"

// Dot скалярное произведение двух векторов одинаковой длины
// Для отпечатков с единичной нормой это точная косинусная близость
func Dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// CosineSimilarity вычисляет косинусную близость произвольных векторов
// Возвращает значение от -1 до 1, где 1 = идентичные; 0 при несовпадении длин
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
