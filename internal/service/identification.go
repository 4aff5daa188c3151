package service

import (
	"context"
	"fmt"
	"log"

	"tarteel/features"
	"tarteel/match"
	"tarteel/reciter"
)

// IdentificationService ранжирует запись против хранилища чтецов
type IdentificationService struct {
	Store      *reciter.Store
	Processing *ProcessingService
}

func NewIdentificationService(store *reciter.Store, processing *ProcessingService) *IdentificationService {
	return &IdentificationService{
		Store:      store,
		Processing: processing,
	}
}

// IdentifyResult итог идентификации: топ совпадений и метаданные признаков
type IdentifyResult struct {
	Matches []match.RankedMatch `json:"matches"`
	Shapes  features.Shapes     `json:"feature_info"`
}

// Identify обрабатывает запись и ранжирует её против всех известных чтецов
func (s *IdentificationService) Identify(ctx context.Context, data []byte, mimeType string, onProgress ProgressFunc) (*IdentifyResult, error) {
	bundle, err := s.Processing.Process(ctx, data, mimeType, onProgress)
	if err != nil {
		return nil, err
	}

	notify(onProgress, "match", 0)

	matches, err := s.IdentifyBundle(ctx, bundle)
	if err != nil {
		return nil, err
	}

	notify(onProgress, "match", 100)

	return &IdentifyResult{
		Matches: matches,
		Shapes:  bundle.Shapes,
	}, nil
}

// IdentifyBundle ранжирует уже извлечённые признаки
func (s *IdentificationService) IdentifyBundle(ctx context.Context, bundle *features.Bundle) ([]match.RankedMatch, error) {
	records := s.Store.GetAll()
	candidates := make([]match.Candidate, len(records))
	for i, rec := range records {
		candidates[i] = match.Candidate{
			ID:       rec.ID,
			Name:     rec.Name,
			Style:    rec.Style,
			Vector:   rec.FeatureVector,
			Sequence: rec.Sequence,
			Segments: rec.Segments,
		}
	}

	matches, err := match.Rank(ctx, match.SampleFromBundle(bundle), candidates)
	if err != nil {
		return nil, fmt.Errorf("ranking failed: %w", err)
	}

	log.Printf("[Identification] Ranked %d candidates, %d matches", len(candidates), len(matches))
	return matches, nil
}

// MatchSamples выполняет каскадное сравнение двух наборов признаков
func (s *IdentificationService) MatchSamples(ctx context.Context, sample1, sample2 *match.Sample) (*match.Result, error) {
	return match.Compare(ctx, sample1, sample2)
}
