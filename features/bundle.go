package features

import (
	"log"
	"math"

	"tarteel/audio"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// NSequenceRows количество строк временной матрицы:
// 20 MFCC + 4 вспомогательных канала (хрома, питч, производная питча, энергия)
const NSequenceRows = NMFCC + 4

// Shapes метаданные размерностей извлечённых признаков
type Shapes struct {
	MFCCShape       [2]int `json:"mfcc_shape"`
	ChromaShape     [2]int `json:"chroma_shape"`
	MelShape        [2]int `json:"mel_shape"`
	VectorDimension int    `json:"vector_dimension"`
}

// Bundle полный набор признаков одной записи
// Все массивы с временной осью используют общий шаг по времени;
// контур питча никогда не пуст (минимум один элемент)
type Bundle struct {
	// FeatureVector отпечаток фиксированной размерности, нормирован до ||v||=1
	// (вырожденный нулевой вектор остаётся нулевым)
	FeatureVector []float64 `json:"feature_vector"`
	// Sequence временная матрица для DTW выравнивания: [NSequenceRows][L]
	Sequence [][]float64 `json:"sequence_features"`
	// Segments дескрипторы сегментов-аятов в хронологическом порядке
	Segments [][]float64 `json:"segments"`

	// Сырые выходы экстракторов
	MFCCs         [][]float64 `json:"mfccs"`
	Chroma        [][]float64 `json:"chroma"`
	MelSpec       [][]float64 `json:"mel_spec"`
	PitchContour  []float64   `json:"pitch_contour"`
	Formants      [][]float64 `json:"formants"`
	PausePatterns []float64   `json:"pause_patterns"`

	Shapes Shapes `json:"feature_shapes"`
}

// Extract запускает весь пайплайн извлечения признаков над декодированным буфером
// Сегментация работает по сырому сигналу, все остальные экстракторы -
// по нормализованному
func Extract(raw *audio.Buffer) *Bundle {
	return extract(raw, true)
}

// ExtractWithoutSegments извлекает признаки без сегментации
func ExtractWithoutSegments(raw *audio.Buffer) *Bundle {
	return extract(raw, false)
}

func extract(raw *audio.Buffer, segment bool) *Bundle {
	var segments [][]float64
	if segment {
		segments = Split(raw)
	}
	if segments == nil {
		segments = [][]float64{}
	}

	norm := audio.Normalize(raw)
	sr := norm.SampleRate

	// Общий STFT для MFCC, хромы, mel-спектрограммы и питча
	stft := NewSTFT()
	power := stft.PowerSpectrogram(norm.Samples)

	melBank := NewMelBank(NFFT, NMelBands, sr)
	melSpec := melBank.Apply(power)
	logMel := PowerToDB(melSpec, 80)

	mfccs := MFCC(logMel, NMFCC)
	chroma := Chroma(power, stft, sr)
	tempo := Tempogram(OnsetEnvelope(logMel))
	pitch := PitchContour(power, stft, sr)
	formants := Formants(audio.PreEmphasis(norm.Samples), sr)
	pauses := PausePatterns(norm.Samples, sr)

	sequence := sequenceMatrix(mfccs, chroma, pitch)
	vector := fingerprint(mfccs, chroma, melSpec, tempo, pitch, formants, pauses)

	numFrames := 0
	if len(mfccs) > 0 {
		numFrames = len(mfccs[0])
	}
	log.Printf("[Features] Extracted: %d frames, %d segments, fingerprint dim %d",
		numFrames, len(segments), len(vector))

	return &Bundle{
		FeatureVector: vector,
		Sequence:      sequence,
		Segments:      segments,
		MFCCs:         mfccs,
		Chroma:        chroma,
		MelSpec:       melSpec,
		PitchContour:  pitch,
		Formants:      formants,
		PausePatterns: pauses,
		Shapes: Shapes{
			MFCCShape:       matrixShape(mfccs),
			ChromaShape:     matrixShape(chroma),
			MelShape:        matrixShape(melSpec),
			VectorDimension: len(vector),
		},
	}
}

// fingerprint собирает отпечаток в порядке, заданном FingerprintSchema,
// и нормирует его до единичной L2 нормы
func fingerprint(mfccs, chroma, melSpec, tempo [][]float64, pitch []float64, formants [][]float64, pauses []float64) []float64 {
	v := make([]float64, 0, FingerprintDim())

	for k := 0; k < NMFCC; k++ {
		v = append(v, stat.Mean(mfccs[k], nil))
	}
	for k := 0; k < NMFCC; k++ {
		v = append(v, popStdDev(mfccs[k]))
	}
	for c := 0; c < NChromaBins; c++ {
		v = append(v, stat.Mean(chroma[c], nil))
	}
	for m := 0; m < 20; m++ {
		v = append(v, stat.Mean(melSpec[m], nil))
	}
	for lag := 0; lag < 20; lag++ {
		v = append(v, stat.Mean(tempo[lag], nil))
	}
	v = append(v, stat.Mean(pitch, nil))
	v = append(v, popStdDev(pitch))
	for j := 0; j < NFormants; j++ {
		v = append(v, stat.Mean(formants[j], nil))
	}
	v = append(v, stat.Mean(pauses, nil))

	// Единичная норма; нулевой вектор оставляем как есть (вырожденный вход)
	if norm := floats.Norm(v, 2); norm > 0 {
		floats.Scale(1/norm, v)
	}

	return v
}

// sequenceMatrix собирает временную матрицу для DTW:
// строки 0..19 - MFCC, затем хрома (среднее по бинам на фрейм), питч,
// первая разность питча (первое значение повторяется как затравка)
// и L2 огибающая энергии по столбцам MFCC
// Длина по времени: min(число фреймов MFCC, длина контура питча)
func sequenceMatrix(mfccs, chroma [][]float64, pitch []float64) [][]float64 {
	mfccFrames := 0
	if len(mfccs) > 0 {
		mfccFrames = len(mfccs[0])
	}
	length := mfccFrames
	if len(pitch) < length {
		length = len(pitch)
	}

	seq := make([][]float64, NSequenceRows)
	for r := range seq {
		seq[r] = make([]float64, length)
	}
	if length == 0 {
		return seq
	}

	for k := 0; k < NMFCC; k++ {
		copy(seq[k], mfccs[k][:length])
	}

	// Хрома: среднее по 12 бинам на каждый фрейм
	for t := 0; t < length; t++ {
		var sum float64
		for c := 0; c < NChromaBins; c++ {
			sum += chroma[c][t]
		}
		seq[NMFCC][t] = sum / float64(NChromaBins)
	}

	copy(seq[NMFCC+1], pitch[:length])

	// Производная питча с повтором первого значения
	seq[NMFCC+2][0] = 0
	for t := 1; t < length; t++ {
		seq[NMFCC+2][t] = pitch[t] - pitch[t-1]
	}

	// Энергетическая огибающая по столбцам MFCC
	for t := 0; t < length; t++ {
		var sum float64
		for k := 0; k < NMFCC; k++ {
			sum += mfccs[k][t] * mfccs[k][t]
		}
		seq[NMFCC+3][t] = math.Sqrt(sum)
	}

	return seq
}

func matrixShape(m [][]float64) [2]int {
	if len(m) == 0 {
		return [2]int{0, 0}
	}
	return [2]int{len(m), len(m[0])}
}
