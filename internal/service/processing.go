// Package service содержит оркестрацию запросов: обработка записей,
// регистрация чтецов, идентификация и предсказание классификатором
package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strings"

	"tarteel/audio"
	"tarteel/features"
)

// ProgressFunc уведомление о фазе пайплайна (decode, extract, match) и
// проценте выполнения 0-100
type ProgressFunc func(phase string, percent int)

// ProcessingService выполняет пайплайн декодирование -> извлечение признаков
type ProcessingService struct{}

func NewProcessingService() *ProcessingService {
	return &ProcessingService{}
}

// Process декодирует аудио и извлекает полный набор признаков
// onProgress опционален
func (s *ProcessingService) Process(ctx context.Context, data []byte, mimeType string, onProgress ProgressFunc) (*features.Bundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty audio payload")
	}

	notify(onProgress, "decode", 0)

	buf, err := audio.Decode(data, mimeType)
	if err != nil {
		return nil, fmt.Errorf("failed to decode audio: %w", err)
	}

	log.Printf("[Processing] Decoded: %d samples (%.1f sec) at %d Hz",
		len(buf.Samples), float64(len(buf.Samples))/float64(buf.SampleRate), buf.SampleRate)

	notify(onProgress, "extract", 30)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bundle := features.Extract(buf)

	notify(onProgress, "extract", 100)

	log.Printf("[Processing] Extracted: vector=%d, sequence=%dx%d, segments=%d",
		len(bundle.FeatureVector), len(bundle.Sequence), seqCols(bundle.Sequence), len(bundle.Segments))

	return bundle, nil
}

// DecodePayload разбирает аудио из запроса: base64 строка или сырые байты
// Принимает data URI ("data:audio/mp3;base64,...") и чистый base64
func DecodePayload(payload string) ([]byte, error) {
	if payload == "" {
		return nil, fmt.Errorf("empty audio payload")
	}

	// Отрезаем префикс data URI если есть
	if strings.HasPrefix(payload, "data:") {
		idx := strings.Index(payload, ",")
		if idx == -1 {
			return nil, fmt.Errorf("malformed data URI")
		}
		payload = payload[idx+1:]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 audio: %w", err)
	}
	return data, nil
}

func notify(onProgress ProgressFunc, phase string, percent int) {
	if onProgress != nil {
		onProgress(phase, percent)
	}
}

func seqCols(seq [][]float64) int {
	if len(seq) == 0 {
		return 0
	}
	return len(seq[0])
}
