package features

import "math"

// NChromaBins количество классов высоты тона
const NChromaBins = 12

// Chroma вычисляет энергию 12 классов высоты тона по фреймам
// powerSpec: [frames][bins], результат: [12][frames]
// Каждый фрейм нормализуется на максимум (librosa chroma_stft norm=inf)
func Chroma(powerSpec [][]float64, stft *STFT, sampleRate int) [][]float64 {
	numFrames := len(powerSpec)

	chroma := make([][]float64, NChromaBins)
	for c := range chroma {
		chroma[c] = make([]float64, numFrames)
	}
	if numFrames == 0 {
		return chroma
	}

	// Предвычисляем класс тона для каждого бина (bin 0 - DC, пропускаем)
	numBins := len(powerSpec[0])
	binClass := make([]int, numBins)
	for i := 1; i < numBins; i++ {
		freq := stft.BinFrequency(i, sampleRate)
		// MIDI нота: 69 = A4 = 440 Hz
		midi := 69.0 + 12.0*math.Log2(freq/440.0)
		cls := int(math.Round(midi)) % NChromaBins
		if cls < 0 {
			cls += NChromaBins
		}
		binClass[i] = cls
	}

	for t := 0; t < numFrames; t++ {
		for i := 1; i < numBins; i++ {
			chroma[binClass[i]][t] += powerSpec[t][i]
		}

		// Нормализация фрейма на максимум
		var maxVal float64
		for c := 0; c < NChromaBins; c++ {
			if chroma[c][t] > maxVal {
				maxVal = chroma[c][t]
			}
		}
		if maxVal > 0 {
			for c := 0; c < NChromaBins; c++ {
				chroma[c][t] /= maxVal
			}
		}
	}

	return chroma
}
