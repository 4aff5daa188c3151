// Package speaker оборачивает нейронный классификатор чтецов - независимо
// обученную ONNX модель, потребляемую как чёрный ящик
// Классификатор работает на 16 kHz и не является частью пайплайна
// сопоставления отпечатков (тот работает на 22050 Hz)
package speaker

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"
	"sort"
	"sync"

	"tarteel/features"

	ort "github.com/yalue/onnxruntime_go"
)

// Параметры признаков классификатора (фиксированы обучением модели)
const (
	SampleRate = 16000
	nMels      = 40
	nFFT       = 512
	hopLength  = 160
	// maxFrames фиксированная длина сегмента по времени
	maxFrames = 200
)

// Prediction один кандидат классификатора
type Prediction struct {
	Speaker    string  `json:"speaker"`
	Confidence float64 `json:"confidence"`
}

// Classifier ONNX классификатор чтецов
type Classifier struct {
	modelPath string
	speakers  []string // index -> имя чтеца

	session     *ort.DynamicAdvancedSession
	stft        *features.STFT
	melBank     *features.MelBank
	mu          sync.Mutex
	initialized bool
}

// NewClassifier загружает модель и отображение индексов в имена
// mappingPath - JSON файл {"имя": индекс}
func NewClassifier(modelPath, mappingPath string) (*Classifier, error) {
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", modelPath)
	}

	speakers, err := loadSpeakerMapping(mappingPath)
	if err != nil {
		return nil, err
	}

	c := &Classifier{
		modelPath: modelPath,
		speakers:  speakers,
		stft:      features.NewSTFTWith(nFFT, nFFT, hopLength),
		melBank:   features.NewMelBank(nFFT, nMels, SampleRate),
	}

	if err := initONNXRuntime(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX Runtime: %w", err)
	}
	if err := c.loadModel(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Classifier) loadModel() error {
	inputInfo, outputInfo, err := ort.GetInputOutputInfo(c.modelPath)
	if err != nil {
		return fmt.Errorf("failed to get model info: %w", err)
	}

	inputNames := make([]string, len(inputInfo))
	for i, info := range inputInfo {
		inputNames[i] = info.Name
	}
	outputNames := make([]string, len(outputInfo))
	for i, info := range outputInfo {
		outputNames[i] = info.Name
	}

	log.Printf("[Speaker] Classifier inputs: %v, outputs: %v", inputNames, outputNames)

	options, err := ort.NewSessionOptions()
	if err != nil {
		return fmt.Errorf("failed to create session options: %w", err)
	}
	defer options.Destroy()

	session, err := ort.NewDynamicAdvancedSession(c.modelPath, inputNames, outputNames, options)
	if err != nil {
		return fmt.Errorf("failed to create ONNX session: %w", err)
	}

	c.session = session
	c.initialized = true
	return nil
}

// NumSpeakers количество чтецов, известных модели
func (c *Classifier) NumSpeakers() int {
	return len(c.speakers)
}

// Predict классифицирует 16 kHz моно сигнал и возвращает topK кандидатов
// по убыванию уверенности
func (c *Classifier) Predict(samples []float64, topK int) ([]Prediction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		return nil, fmt.Errorf("classifier not initialized")
	}
	if len(samples) < SampleRate/10 {
		return nil, fmt.Errorf("audio too short")
	}

	segments := c.prepareSegments(samples)
	numSegments := len(segments)

	// Входной тензор [batch, 1, nMels, maxFrames]
	flat := make([]float32, numSegments*nMels*maxFrames)
	for s, seg := range segments {
		base := s * nMels * maxFrames
		for m := 0; m < nMels; m++ {
			for t := 0; t < maxFrames; t++ {
				flat[base+m*maxFrames+t] = float32(seg[m][t])
			}
		}
	}

	inputShape := ort.NewShape(int64(numSegments), 1, nMels, maxFrames)
	inputTensor, err := ort.NewTensor(inputShape, flat)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	outputs := []ort.Value{nil}
	if err := c.session.Run([]ort.Value{inputTensor}, outputs); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	defer func() {
		for _, out := range outputs {
			if out != nil {
				out.Destroy()
			}
		}
	}()

	outputTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output tensor type")
	}
	logits := outputTensor.GetData()

	n := len(c.speakers)
	if len(logits) < numSegments*n {
		return nil, fmt.Errorf("unexpected output size: %d", len(logits))
	}

	// Усредняем логиты по сегментам, затем softmax
	avg := make([]float64, n)
	for s := 0; s < numSegments; s++ {
		for i := 0; i < n; i++ {
			avg[i] += float64(logits[s*n+i])
		}
	}
	for i := range avg {
		avg[i] /= float64(numSegments)
	}
	probs := softmax(avg)

	preds := make([]Prediction, n)
	for i := range probs {
		preds[i] = Prediction{Speaker: c.speakers[i], Confidence: probs[i]}
	}
	sort.Slice(preds, func(i, j int) bool {
		return preds[i].Confidence > preds[j].Confidence
	})

	if topK > 0 && topK < len(preds) {
		preds = preds[:topK]
	}
	return preds, nil
}

// prepareSegments строит стандартизованные log-mel сегменты фиксированной длины:
// несколько перекрывающихся сегментов для длинных записей (устойчивость
// предсказания), дополнение нулями для коротких
func (c *Classifier) prepareSegments(samples []float64) [][][]float64 {
	power := c.stft.PowerSpectrogram(samples)
	logMel := features.PowerToDB(c.melBank.Apply(power), 80)

	// Глобальная стандартизация
	var mean float64
	count := 0
	for _, row := range logMel {
		for _, v := range row {
			mean += v
			count++
		}
	}
	mean /= float64(count)
	var variance float64
	for _, row := range logMel {
		for _, v := range row {
			d := v - mean
			variance += d * d
		}
	}
	std := math.Sqrt(variance/float64(count)) + 1e-8
	for _, row := range logMel {
		for j := range row {
			row[j] = (row[j] - mean) / std
		}
	}

	numFrames := len(logMel[0])
	if numFrames > maxFrames {
		// Пять перекрывающихся сегментов
		step := (numFrames - maxFrames) / 4
		if step < 1 {
			step = 1
		}
		var segments [][][]float64
		for start := 0; start+maxFrames <= numFrames; start += step {
			segments = append(segments, sliceFrames(logMel, start, maxFrames))
		}
		return segments
	}

	// Дополнение нулями до maxFrames
	seg := make([][]float64, nMels)
	for m := 0; m < nMels; m++ {
		seg[m] = make([]float64, maxFrames)
		copy(seg[m], logMel[m])
	}
	return [][][]float64{seg}
}

func sliceFrames(mel [][]float64, start, length int) [][]float64 {
	out := make([][]float64, len(mel))
	for m := range mel {
		out[m] = mel[m][start : start+length]
	}
	return out
}

// Close освобождает ONNX сессию
func (c *Classifier) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		c.session.Destroy()
		c.session = nil
	}
	c.initialized = false
}

func softmax(logits []float64) []float64 {
	maxLogit := math.Inf(-1)
	for _, l := range logits {
		if l > maxLogit {
			maxLogit = l
		}
	}

	out := make([]float64, len(logits))
	var sum float64
	for i, l := range logits {
		out[i] = math.Exp(l - maxLogit)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// loadSpeakerMapping читает JSON {"имя": индекс} и строит обратное отображение
func loadSpeakerMapping(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read speaker mapping: %w", err)
	}

	var mapping map[string]int
	if err := json.Unmarshal(data, &mapping); err != nil {
		return nil, fmt.Errorf("failed to parse speaker mapping: %w", err)
	}
	if len(mapping) == 0 {
		return nil, fmt.Errorf("speaker mapping is empty")
	}

	speakers := make([]string, len(mapping))
	for name, id := range mapping {
		if id < 0 || id >= len(mapping) {
			return nil, fmt.Errorf("speaker index out of range: %s=%d", name, id)
		}
		speakers[id] = name
	}
	return speakers, nil
}
