package features

import (
	"math"
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// NFormants количество отслеживаемых формант
const NFormants = 3

// lpcOrder порядок линейного предсказания: 2 + 2 на каждую форманту
const lpcOrder = 2 + 2*NFormants

// Formants извлекает траектории первых трёх формант (резонансов голосового тракта)
// Сигнал нарезается на фреймы 25 мс с шагом 10 мс, для каждого фрейма строится
// LPC фильтр, его устойчивые полюса (|r| < 1) переводятся в частоты
// Фреймы, где LPC анализ не сходится, заполняются нулями - это не ошибка запроса
// Результат: [NFormants][numFrames]
func Formants(samples []float64, sampleRate int) [][]float64 {
	frameLength := int(float64(sampleRate) * 0.025)
	hopLength := int(float64(sampleRate) * 0.01)

	numFrames := 0
	if len(samples) > frameLength {
		numFrames = (len(samples) - frameLength + hopLength - 1) / hopLength
	}

	formants := make([][]float64, NFormants)
	for j := range formants {
		formants[j] = make([]float64, numFrames)
	}
	if numFrames == 0 {
		return formants
	}

	window := hammingWindow(frameLength)
	frame := make([]float64, frameLength)

	for i := 0; i < numFrames; i++ {
		start := i * hopLength
		for k := 0; k < frameLength; k++ {
			frame[k] = samples[start+k] * window[k]
		}

		freqs, ok := formantFrequencies(frame, sampleRate)
		if !ok {
			continue // фрейм остаётся нулевым
		}

		for j := 0; j < NFormants && j < len(freqs); j++ {
			formants[j][i] = freqs[j]
		}
	}

	return formants
}

// formantFrequencies вычисляет LPC коэффициенты фрейма, находит корни
// полинома и переводит устойчивые в частоты (по возрастанию)
func formantFrequencies(frame []float64, sampleRate int) ([]float64, bool) {
	coeffs, ok := lpc(frame, lpcOrder)
	if !ok {
		return nil, false
	}

	roots, ok := polyRoots(coeffs)
	if !ok {
		return nil, false
	}

	var freqs []float64
	for _, r := range roots {
		if cmplx.Abs(r) >= 1 {
			continue // неустойчивый полюс
		}
		angle := math.Abs(cmplx.Phase(r))
		freqs = append(freqs, angle*float64(sampleRate)/(2*math.Pi))
	}

	sort.Float64s(freqs)
	return freqs, true
}

// lpc вычисляет коэффициенты линейного предсказания методом Левинсона-Дурбина
// Возвращает [1, a1, ..., aOrder] и false если автокорреляция вырождена
func lpc(frame []float64, order int) ([]float64, bool) {
	if len(frame) <= order {
		return nil, false
	}

	// Автокорреляция до лага order
	r := make([]float64, order+1)
	for lag := 0; lag <= order; lag++ {
		var sum float64
		for i := 0; i < len(frame)-lag; i++ {
			sum += frame[i] * frame[i+lag]
		}
		r[lag] = sum
	}

	if r[0] == 0 {
		return nil, false
	}

	a := make([]float64, order+1)
	a[0] = 1
	errVal := r[0]

	for m := 1; m <= order; m++ {
		var acc float64
		for i := 1; i < m; i++ {
			acc += a[i] * r[m-i]
		}
		k := -(r[m] + acc) / errVal

		// Обновляем коэффициенты симметрично
		newA := make([]float64, order+1)
		copy(newA, a)
		for i := 1; i < m; i++ {
			newA[i] = a[i] + k*a[m-i]
		}
		newA[m] = k
		a = newA

		errVal *= 1 - k*k
		if errVal <= 0 {
			return nil, false
		}
	}

	return a, true
}

// polyRoots находит корни полинома c[0] + c[1]x + ... + c[n]x^n
// через собственные значения companion-матрицы
func polyRoots(c []float64) ([]complex128, bool) {
	// Отбрасываем нулевые старшие коэффициенты
	n := len(c) - 1
	for n > 0 && c[n] == 0 {
		n--
	}
	if n < 1 {
		return nil, false
	}

	companion := mat.NewDense(n, n, nil)
	for i := 1; i < n; i++ {
		companion.Set(i, i-1, 1)
	}
	for i := 0; i < n; i++ {
		companion.Set(i, n-1, -c[i]/c[n])
	}

	var eig mat.Eigen
	if ok := eig.Factorize(companion, mat.EigenNone); !ok {
		return nil, false
	}

	return eig.Values(nil), true
}
