package api

import (
	"tarteel/features"
	"tarteel/match"
	"tarteel/models"
	"tarteel/speaker"
)

// Message структура WebSocket сообщения
type Message struct {
	Type string `json:"type"`
	Data string `json:"data,omitempty"`

	// Параметры запросов
	Audio     string `json:"audio,omitempty"`     // base64 аудио
	AudioType string `json:"audioType,omitempty"` // mime тип ("mp3", "wav", ...)
	Name      string `json:"name,omitempty"`      // имя чтеца при регистрации
	TopK      int    `json:"topK,omitempty"`      // количество кандидатов классификатора

	// Прогресс пайплайна
	Phase    string  `json:"phase,omitempty"`
	Progress float64 `json:"progress,omitempty"`

	// Ответы
	Matches     []match.RankedMatch  `json:"matches,omitempty"`
	Shapes      *features.Shapes     `json:"feature_info,omitempty"`
	Reciter     *ReciterInfo         `json:"reciter,omitempty"`
	Reciters    []ReciterInfo        `json:"reciters,omitempty"`
	Predictions []speaker.Prediction `json:"predictions,omitempty"`

	// Модели
	Models  []models.ModelState `json:"models,omitempty"`
	ModelID string              `json:"modelId,omitempty"`

	Error string `json:"error,omitempty"`
}

// ReciterInfo запись чтеца в ответах API (без тяжёлых векторов)
type ReciterInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Style     string `json:"style"`
	VectorDim int    `json:"vectorDimension"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}
