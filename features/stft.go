// Package features извлекает акустические признаки из декодированного аудио:
// MFCC, хрома, mel-спектрограмма, темпограмма, контур питча, форманты,
// статистика пауз - и собирает их в отпечаток и временную матрицу
package features

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Параметры STFT пайплайна сопоставления (совместимы с librosa по умолчанию)
const (
	NFFT      = 2048
	WinLength = 2048
	HopLength = 512
)

// STFT вычисляет спектрограммы с центрированными фреймами
type STFT struct {
	nFFT      int
	winLength int
	hopLength int
	window    []float64
	fft       *fourier.FFT
}

// NewSTFT создаёт процессор с параметрами пайплайна сопоставления
func NewSTFT() *STFT {
	return NewSTFTWith(NFFT, WinLength, HopLength)
}

// NewSTFTWith создаёт процессор с произвольными параметрами
func NewSTFTWith(nFFT, winLength, hopLength int) *STFT {
	return &STFT{
		nFFT:      nFFT,
		winLength: winLength,
		hopLength: hopLength,
		window:    hannWindow(winLength),
		fft:       fourier.NewFFT(nFFT),
	}
}

// NumFrames возвращает количество фреймов для сигнала длины n
func (s *STFT) NumFrames(n int) int {
	return n/s.hopLength + 1
}

// NumBins возвращает количество частотных бинов
func (s *STFT) NumBins() int {
	return s.nFFT/2 + 1
}

// BinFrequency возвращает частоту бина в Hz
func (s *STFT) BinFrequency(bin, sampleRate int) float64 {
	return float64(bin) * float64(sampleRate) / float64(s.nFFT)
}

// PowerSpectrogram вычисляет спектр мощности: [numFrames][nFFT/2+1]
// Фреймы центрированы: центр фрейма t на позиции t*hopLength
func (s *STFT) PowerSpectrogram(samples []float64) [][]float64 {
	numFrames := s.NumFrames(len(samples))
	numBins := s.NumBins()

	spec := make([][]float64, numFrames)
	frameData := make([]float64, s.nFFT)

	for frame := 0; frame < numFrames; frame++ {
		frameStart := frame*s.hopLength - s.winLength/2

		for i := range frameData {
			frameData[i] = 0
		}
		for i := 0; i < s.winLength; i++ {
			idx := frameStart + i
			if idx >= 0 && idx < len(samples) {
				frameData[i] = samples[idx] * s.window[i]
			}
		}

		coeffs := s.fft.Coefficients(nil, frameData)

		spec[frame] = make([]float64, numBins)
		for i := 0; i < numBins; i++ {
			re := real(coeffs[i])
			im := imag(coeffs[i])
			spec[frame][i] = re*re + im*im
		}
	}

	return spec
}

// hannWindow создаёт периодическое окно Ханна (fftbins=true):
// знаменатель size, не size-1
func hannWindow(size int) []float64 {
	window := make([]float64, size)
	for i := 0; i < size; i++ {
		window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(size)))
	}
	return window
}

// hammingWindow создаёт окно Хэмминга (для LPC анализа формант)
func hammingWindow(size int) []float64 {
	window := make([]float64, size)
	for i := 0; i < size; i++ {
		window[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(size-1))
	}
	return window
}
