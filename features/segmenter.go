package features

import (
	"math"

	"tarteel/audio"

	"gonum.org/v1/gonum/stat"
)

// Параметры сегментации по тишине
const (
	// SegmentTopDB порог тишины: нетихим считается всё, что громче
	// чем пик минус SegmentTopDB децибел
	SegmentTopDB = 30.0
	// SegmentMinDuration минимальная длительность сегмента (сек)
	SegmentMinDuration = 0.5
)

// Split разбивает СЫРОЙ (ненормализованный) сигнал на сегменты-аяты по тишине
// и возвращает дескриптор каждого сегмента: средние 13 кепстральных коэффициентов
// Никогда не возвращает ошибку: отсутствие сегментов - допустимый результат
func Split(buf *audio.Buffer) [][]float64 {
	intervals := nonSilentIntervals(buf.Samples, buf.SampleRate)
	minLength := int(float64(buf.SampleRate) * SegmentMinDuration)

	var segments [][]float64
	for _, iv := range intervals {
		if iv[1]-iv[0] <= minLength {
			continue
		}
		segments = append(segments, segmentDescriptor(buf.Samples[iv[0]:iv[1]], buf.SampleRate))
	}

	return segments
}

// segmentDescriptor вычисляет средние 13 MFCC по сегменту
func segmentDescriptor(segment []float64, sampleRate int) []float64 {
	stft := NewSTFT()
	power := stft.PowerSpectrogram(segment)
	melBank := NewMelBank(NFFT, NMelBands, sampleRate)
	logMel := PowerToDB(melBank.Apply(power), 80)
	mfcc := MFCC(logMel, NSegmentMFCC)

	desc := make([]float64, NSegmentMFCC)
	for k := 0; k < NSegmentMFCC; k++ {
		desc[k] = stat.Mean(mfcc[k], nil)
	}
	return desc
}

// nonSilentIntervals находит интервалы [start, end) в сэмплах, где RMS энергия
// выше порога "пик минус SegmentTopDB dB" (семантика librosa.effects.split)
func nonSilentIntervals(samples []float64, sampleRate int) [][2]int {
	const (
		frameLength = 2048
		hopLength   = 512
	)

	rms := rmsEnergy(samples, frameLength, hopLength)
	if len(rms) == 0 {
		return nil
	}

	var peak float64
	for _, e := range rms {
		if e > peak {
			peak = e
		}
	}
	if peak <= 0 {
		return nil // полностью тихий буфер - ни одного сегмента
	}

	// Нетихий фрейм: 20*log10(rms/peak) > -topDB
	threshold := peak * math.Pow(10, -SegmentTopDB/20)

	var intervals [][2]int
	inRegion := false
	startFrame := 0
	for t, e := range rms {
		if e > threshold {
			if !inRegion {
				inRegion = true
				startFrame = t
			}
		} else if inRegion {
			inRegion = false
			intervals = append(intervals, frameInterval(startFrame, t, hopLength, len(samples)))
		}
	}
	if inRegion {
		intervals = append(intervals, frameInterval(startFrame, len(rms), hopLength, len(samples)))
	}

	return intervals
}

// frameInterval переводит границы в фреймах в границы в сэмплах
func frameInterval(startFrame, endFrame, hopLength, total int) [2]int {
	start := startFrame * hopLength
	end := endFrame * hopLength
	if end > total {
		end = total
	}
	return [2]int{start, end}
}
