package features

import "math"

// Диапазон поиска питча (Hz)
const (
	PitchFMin = 150.0
	PitchFMax = 4000.0
)

// PitchContour извлекает контур питча: для каждого фрейма берётся частота
// бина с максимальной магнитудой в диапазоне [PitchFMin, PitchFMax]
// Ненадёжные фреймы (нулевая магнитуда) получают 0 и НЕ выбрасываются,
// чтобы сохранить выравнивание по фреймам с остальными признаками
// Пустой или полностью нулевой контур заменяется на [0.0] - контур никогда не пуст
func PitchContour(powerSpec [][]float64, stft *STFT, sampleRate int) []float64 {
	numFrames := len(powerSpec)
	contour := make([]float64, numFrames)

	for t := 0; t < numFrames; t++ {
		bestMag := 0.0
		bestFreq := 0.0
		for i := 1; i < len(powerSpec[t]); i++ {
			freq := stft.BinFrequency(i, sampleRate)
			if freq < PitchFMin {
				continue
			}
			if freq > PitchFMax {
				break
			}
			mag := math.Sqrt(powerSpec[t][i])
			if mag > bestMag {
				bestMag = mag
				bestFreq = freq
			}
		}

		if bestMag > 0 {
			contour[t] = bestFreq
		}
	}

	allZero := true
	for _, p := range contour {
		if p > 0 {
			allZero = false
			break
		}
	}
	if len(contour) == 0 || allZero {
		return []float64{0.0}
	}

	return contour
}
