package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"tarteel/audio"
	"tarteel/features"
	"tarteel/reciter"
)

// EnrollmentService регистрирует эталонные записи чтецов
type EnrollmentService struct {
	Store      *reciter.Store
	Processing *ProcessingService
}

func NewEnrollmentService(store *reciter.Store, processing *ProcessingService) *EnrollmentService {
	return &EnrollmentService{
		Store:      store,
		Processing: processing,
	}
}

// EnrollResult итог регистрации
type EnrollResult struct {
	Record *reciter.Record
	Bundle *features.Bundle
}

// Enroll декодирует эталонную запись, извлекает отпечаток и создаёт или
// обновляет запись чтеца. Стиль выводится из имени. Исходное аудио
// сохраняется рядом с базой как эталонный сэмпл
func (s *EnrollmentService) Enroll(ctx context.Context, name string, data []byte, mimeType string, onProgress ProgressFunc) (*EnrollResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("reciter name is required")
	}

	bundle, err := s.Processing.Process(ctx, data, mimeType, onProgress)
	if err != nil {
		return nil, err
	}

	style := reciter.InferStyle(name)

	rec, err := s.Store.Upsert(name, style, bundle.FeatureVector)
	if err != nil {
		return nil, fmt.Errorf("failed to save reciter: %w", err)
	}

	// Сохраняем исходный сэмпл как есть
	samplePath, err := s.writeSample(rec.ID, data, mimeType)
	if err != nil {
		// Запись уже создана, отсутствие сэмпла не фатально
		log.Printf("[Enrollment] Failed to save sample for %s: %v", rec.Name, err)
	} else if err := s.Store.SetSamplePath(rec.ID, samplePath); err != nil {
		log.Printf("[Enrollment] Failed to record sample path for %s: %v", rec.Name, err)
	}

	log.Printf("[Enrollment] Enrolled %s (style=%s, vector=%d)", rec.Name, rec.Style, len(rec.FeatureVector))
	return &EnrollResult{Record: rec, Bundle: bundle}, nil
}

// EnrollBuffer регистрирует чтеца по уже декодированному сигналу
// (запись с микрофона). Эталонный сэмпл кодируется в MP3
func (s *EnrollmentService) EnrollBuffer(ctx context.Context, name string, buf *audio.Buffer, onProgress ProgressFunc) (*EnrollResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("reciter name is required")
	}
	if buf == nil || len(buf.Samples) == 0 {
		return nil, fmt.Errorf("empty audio buffer")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	notify(onProgress, "extract", 0)
	bundle := features.Extract(buf)
	notify(onProgress, "extract", 100)

	style := reciter.InferStyle(name)

	rec, err := s.Store.Upsert(name, style, bundle.FeatureVector)
	if err != nil {
		return nil, fmt.Errorf("failed to save reciter: %w", err)
	}

	samplePath := filepath.Join(s.Store.SamplesDir(), rec.ID+".mp3")
	if err := os.MkdirAll(s.Store.SamplesDir(), 0755); err != nil {
		log.Printf("[Enrollment] Failed to create samples dir: %v", err)
	} else if err := audio.WriteMP3File(samplePath, buf); err != nil {
		log.Printf("[Enrollment] Failed to encode sample for %s: %v", rec.Name, err)
	} else if err := s.Store.SetSamplePath(rec.ID, samplePath); err != nil {
		log.Printf("[Enrollment] Failed to record sample path for %s: %v", rec.Name, err)
	}

	log.Printf("[Enrollment] Enrolled %s from capture (style=%s)", rec.Name, rec.Style)
	return &EnrollResult{Record: rec, Bundle: bundle}, nil
}

// writeSample сохраняет исходные байты эталонной записи
func (s *EnrollmentService) writeSample(id string, data []byte, mimeType string) (string, error) {
	dir := s.Store.SamplesDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create samples dir: %w", err)
	}

	ext := ".mp3"
	if strings.Contains(strings.ToLower(mimeType), "wav") {
		ext = ".wav"
	}

	path := filepath.Join(dir, id+ext)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write sample: %w", err)
	}
	return path, nil
}
