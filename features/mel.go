package features

import "math"

// NMelBands количество mel-полос спектрограммы
const NMelBands = 128

// MelBank набор mel-фильтров поверх спектра мощности
type MelBank struct {
	nMels   int
	filters [][]float64
}

// NewMelBank создаёт фильтры для nFFT бинов и частоты sampleRate
func NewMelBank(nFFT, nMels, sampleRate int) *MelBank {
	return &MelBank{
		nMels:   nMels,
		filters: createMelFilterbank(nFFT, nMels, sampleRate),
	}
}

// Apply применяет фильтры к спектру мощности [frames][bins]
// Возвращает mel-спектрограмму [nMels][frames] (строки - полосы)
func (b *MelBank) Apply(powerSpec [][]float64) [][]float64 {
	numFrames := len(powerSpec)

	mel := make([][]float64, b.nMels)
	for m := 0; m < b.nMels; m++ {
		mel[m] = make([]float64, numFrames)
		filter := b.filters[m]
		for t := 0; t < numFrames; t++ {
			var sum float64
			for k, p := range powerSpec[t] {
				sum += p * filter[k]
			}
			mel[m][t] = sum
		}
	}

	return mel
}

// PowerToDB переводит спектр мощности в децибелы относительно максимума,
// срезая всё ниже max - topDB
func PowerToDB(spec [][]float64, topDB float64) [][]float64 {
	const amin = 1e-10

	ref := amin
	for _, row := range spec {
		for _, v := range row {
			if v > ref {
				ref = v
			}
		}
	}
	refDB := 10 * math.Log10(ref)

	out := make([][]float64, len(spec))
	maxDB := math.Inf(-1)
	for i, row := range spec {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			if v < amin {
				v = amin
			}
			db := 10*math.Log10(v) - refDB
			out[i][j] = db
			if db > maxDB {
				maxDB = db
			}
		}
	}

	if topDB > 0 {
		floor := maxDB - topDB
		for i := range out {
			for j := range out[i] {
				if out[i][j] < floor {
					out[i][j] = floor
				}
			}
		}
	}

	return out
}

// createMelFilterbank создаёт mel-фильтры
// Реализация совместима с torchaudio/librosa (работает в Hz, не bin indices)
func createMelFilterbank(nFFT, nMels, sampleRate int) [][]float64 {
	// Преобразование Hz в mel (HTK formula)
	hzToMel := func(hz float64) float64 {
		return 2595.0 * math.Log10(1.0+hz/700.0)
	}
	melToHz := func(mel float64) float64 {
		return 700.0 * (math.Pow(10.0, mel/2595.0) - 1.0)
	}

	numBins := nFFT/2 + 1
	fMax := float64(sampleRate) / 2.0

	// Частоты для каждого FFT bin
	allFreqs := make([]float64, numBins)
	for i := 0; i < numBins; i++ {
		allFreqs[i] = float64(i) * fMax / float64(numBins-1)
	}

	// Mel points (nMels + 2 точек: left edge, centers, right edge)
	mMin := hzToMel(0)
	mMax := hzToMel(fMax)
	fPts := make([]float64, nMels+2)
	for i := 0; i < nMels+2; i++ {
		mel := mMin + float64(i)*(mMax-mMin)/float64(nMels+1)
		fPts[i] = melToHz(mel)
	}

	fDiff := make([]float64, nMels+1)
	for i := 0; i < nMels+1; i++ {
		fDiff[i] = fPts[i+1] - fPts[i]
	}

	filters := make([][]float64, nMels)
	for m := 0; m < nMels; m++ {
		filters[m] = make([]float64, numBins)

		for k := 0; k < numBins; k++ {
			freq := allFreqs[k]

			lower := (freq - fPts[m]) / fDiff[m]
			upper := (fPts[m+2] - freq) / fDiff[m+1]

			val := math.Min(lower, upper)
			if val < 0 {
				val = 0
			}
			filters[m][k] = val
		}
	}

	return filters
}
