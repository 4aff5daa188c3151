package audio

import "math"

// PreEmphasisCoeff коэффициент предыскажения (усиление высоких частот,
// аппроксимирует фильтрацию голосового тракта)
const PreEmphasisCoeff = 0.97

// PreEmphasis применяет фильтр предыскажения y[n] = x[n] - coeff*x[n-1]
// Исходный буфер не изменяется
func PreEmphasis(samples []float64) []float64 {
	if len(samples) == 0 {
		return nil
	}

	out := make([]float64, len(samples))
	out[0] = samples[0]
	for i := 1; i < len(samples); i++ {
		out[i] = samples[i] - PreEmphasisCoeff*samples[i-1]
	}
	return out
}

// Normalize применяет нормализацию голоса: предыскажение, затем вычитание
// среднего и деление на стандартное отклонение (CMVN-подобная стандартизация)
// Если сигнал тихий (дисперсия близка к нулю) - шаг масштабирования пропускается,
// чтобы не делить на ноль
// Детерминированная чистая функция, вход не изменяется
func Normalize(buf *Buffer) *Buffer {
	if buf == nil || len(buf.Samples) == 0 {
		return &Buffer{SampleRate: MatchingSampleRate}
	}

	pre := PreEmphasis(buf.Samples)

	var mean float64
	for _, s := range pre {
		mean += s
	}
	mean /= float64(len(pre))

	var variance float64
	for _, s := range pre {
		d := s - mean
		variance += d * d
	}
	variance /= float64(len(pre))
	std := math.Sqrt(variance)

	out := make([]float64, len(pre))
	for i, s := range pre {
		out[i] = s - mean
	}
	if std > 0 {
		for i := range out {
			out[i] /= std
		}
	}

	return &Buffer{Samples: out, SampleRate: buf.SampleRate}
}
