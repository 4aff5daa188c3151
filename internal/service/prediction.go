package service

import (
	"context"
	"fmt"
	"log"

	"tarteel/audio"
	"tarteel/speaker"
)

// PredictionService оборачивает нейронный классификатор чтецов
// Классификатор опционален: сервис создаётся и без модели, тогда
// предсказание возвращает ошибку
type PredictionService struct {
	classifier *speaker.Classifier
}

func NewPredictionService(modelPath, mappingPath string) *PredictionService {
	classifier, err := speaker.NewClassifier(modelPath, mappingPath)
	if err != nil {
		log.Printf("[Prediction] Classifier unavailable: %v", err)
		return &PredictionService{}
	}
	log.Printf("[Prediction] Classifier loaded: %d speakers", classifier.NumSpeakers())
	return &PredictionService{classifier: classifier}
}

// Available возвращает true если модель загружена
func (s *PredictionService) Available() bool {
	return s.classifier != nil
}

// Predict декодирует аудио на частоте классификатора и возвращает topK
// кандидатов по уверенности
func (s *PredictionService) Predict(ctx context.Context, data []byte, mimeType string, topK int) ([]speaker.Prediction, error) {
	if s.classifier == nil {
		return nil, fmt.Errorf("speaker classifier is not available")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	buf, err := audio.DecodeWithRate(data, mimeType, speaker.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("failed to decode audio: %w", err)
	}

	if topK <= 0 {
		topK = 3
	}

	return s.classifier.Predict(buf.Samples, topK)
}

// Close освобождает ресурсы классификатора
func (s *PredictionService) Close() {
	if s.classifier != nil {
		s.classifier.Close()
	}
}
