package features

import "math"

// NMFCC количество кепстральных коэффициентов пайплайна сопоставления
const NMFCC = 20

// NSegmentMFCC количество коэффициентов для дескрипторов сегментов
const NSegmentMFCC = 13

// MFCC вычисляет кепстральные коэффициенты из log-mel спектрограммы:
// DCT-II (ортонормированный) по mel-полосам каждого фрейма
// logMel: [nMels][frames], результат: [nCoeffs][frames]
func MFCC(logMel [][]float64, nCoeffs int) [][]float64 {
	nMels := len(logMel)
	if nMels == 0 {
		return make([][]float64, nCoeffs)
	}
	numFrames := len(logMel[0])

	basis := dctBasis(nCoeffs, nMels)

	mfcc := make([][]float64, nCoeffs)
	for k := 0; k < nCoeffs; k++ {
		mfcc[k] = make([]float64, numFrames)
		for t := 0; t < numFrames; t++ {
			var sum float64
			for m := 0; m < nMels; m++ {
				sum += basis[k][m] * logMel[m][t]
			}
			mfcc[k][t] = sum
		}
	}

	return mfcc
}

// dctBasis строит матрицу DCT-II с ортонормировкой (как scipy dct norm='ortho')
func dctBasis(nCoeffs, n int) [][]float64 {
	basis := make([][]float64, nCoeffs)
	for k := 0; k < nCoeffs; k++ {
		basis[k] = make([]float64, n)
		scale := math.Sqrt(2.0 / float64(n))
		if k == 0 {
			scale = math.Sqrt(1.0 / float64(n))
		}
		for m := 0; m < n; m++ {
			basis[k][m] = scale * math.Cos(math.Pi/float64(n)*(float64(m)+0.5)*float64(k))
		}
	}
	return basis
}
