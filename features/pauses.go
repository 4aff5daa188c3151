package features

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// pauseThresholdRatio доля от пиковой энергии, ниже которой фрейм считается паузой
const pauseThresholdRatio = 0.05

// NPauseFeatures размерность вектора статистики пауз
const NPauseFeatures = 4

// PausePatterns вычисляет статистику пауз - один из самых характерных
// признаков манеры чтеца
// Кратковременная RMS энергия (окно 2048, шаг 10 мс), фреймы с энергией
// не выше 0.05 от пиковой считаются паузами, последовательные паузы
// сворачиваются в серии
// Результат (4 значения): количество пауз, средняя длина, стандартное
// отклонение длины (0 если пауз меньше двух), самая длинная пауза (0 если пауз нет)
func PausePatterns(samples []float64, sampleRate int) []float64 {
	hopLength := int(float64(sampleRate) * 0.01)
	rms := rmsEnergy(samples, 2048, hopLength)
	if len(rms) == 0 {
		return make([]float64, NPauseFeatures)
	}

	var maxEnergy float64
	for _, e := range rms {
		if e > maxEnergy {
			maxEnergy = e
		}
	}
	threshold := pauseThresholdRatio * maxEnergy

	// Свёртка последовательных пауз в серии
	var pauseLengths []float64
	current := 0
	for _, e := range rms {
		if e <= threshold {
			current++
		} else if current > 0 {
			pauseLengths = append(pauseLengths, float64(current))
			current = 0
		}
	}
	if current > 0 {
		pauseLengths = append(pauseLengths, float64(current))
	}

	if len(pauseLengths) == 0 {
		return make([]float64, NPauseFeatures)
	}

	stdDev := 0.0
	if len(pauseLengths) > 1 {
		stdDev = popStdDev(pauseLengths)
	}
	var longest float64
	for _, l := range pauseLengths {
		if l > longest {
			longest = l
		}
	}

	return []float64{
		float64(len(pauseLengths)),
		stat.Mean(pauseLengths, nil),
		stdDev,
		longest,
	}
}

// rmsEnergy вычисляет кратковременную RMS энергию с центрированными фреймами
func rmsEnergy(samples []float64, frameLength, hopLength int) []float64 {
	if len(samples) == 0 || hopLength <= 0 {
		return nil
	}

	numFrames := len(samples)/hopLength + 1
	rms := make([]float64, numFrames)

	for t := 0; t < numFrames; t++ {
		start := t*hopLength - frameLength/2
		var sum float64
		n := 0
		for i := 0; i < frameLength; i++ {
			idx := start + i
			if idx >= 0 && idx < len(samples) {
				sum += samples[idx] * samples[idx]
			}
			n++
		}
		rms[t] = math.Sqrt(sum / float64(n))
	}

	return rms
}

// popStdDev стандартное отклонение по генеральной совокупности (как numpy)
func popStdDev(xs []float64) float64 {
	mean := stat.Mean(xs, nil)
	var sum float64
	for _, x := range xs {
		d := x - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}
