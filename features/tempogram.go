package features

// TempoWindow размер окна локальной автокорреляции (в фреймах)
const TempoWindow = 384

// OnsetEnvelope вычисляет огибающую силы атак: положительная разность
// log-mel спектра между соседними фреймами, усреднённая по полосам
// logMel: [nMels][frames], результат: [frames]
func OnsetEnvelope(logMel [][]float64) []float64 {
	nMels := len(logMel)
	if nMels == 0 {
		return nil
	}
	numFrames := len(logMel[0])
	onset := make([]float64, numFrames)

	for t := 1; t < numFrames; t++ {
		var sum float64
		for m := 0; m < nMels; m++ {
			d := logMel[m][t] - logMel[m][t-1]
			if d > 0 {
				sum += d
			}
		}
		onset[t] = sum / float64(nMels)
	}

	return onset
}

// Tempogram вычисляет локальную автокорреляцию огибающей атак:
// признаки периодичности по фреймам, [TempoWindow][frames]
// Каждый фрейм нормализуется на значение нулевого лага
func Tempogram(onset []float64) [][]float64 {
	numFrames := len(onset)

	tempo := make([][]float64, TempoWindow)
	for lag := range tempo {
		tempo[lag] = make([]float64, numFrames)
	}
	if numFrames == 0 {
		return tempo
	}

	half := TempoWindow / 2
	for t := 0; t < numFrames; t++ {
		start := t - half
		for lag := 0; lag < TempoWindow; lag++ {
			var sum float64
			for i := 0; i < TempoWindow-lag; i++ {
				a := start + i
				b := a + lag
				if a < 0 || b >= numFrames {
					continue
				}
				sum += onset[a] * onset[b]
			}
			tempo[lag][t] = sum
		}

		// Нормализация на энергию окна (нулевой лаг)
		if z := tempo[0][t]; z > 0 {
			for lag := 0; lag < TempoWindow; lag++ {
				tempo[lag][t] /= z
			}
		}
	}

	return tempo
}
