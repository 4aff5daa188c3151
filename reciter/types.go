// Package reciter предоставляет постоянное хранилище эталонных отпечатков
// чтецов для ранжирования входящих записей
package reciter

import (
	"strings"
	"time"
)

// CurrentVersion версия формата хранилища (для миграций)
const CurrentVersion = 1

// Record сохранённый эталон чтеца
// Создаётся и обновляется процессом регистрации; пайплайн сопоставления
// читает записи, но никогда не изменяет
type Record struct {
	ID            string    `json:"id"`             // UUID
	Name          string    `json:"name"`           // Имя чтеца
	Style         string    `json:"style"`          // Стиль чтения (Hafs, Warsh, Assim)
	FeatureVector []float64 `json:"feature_vector"` // Отпечаток единичной нормы
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`

	// Опционально: путь к эталонному аудио-сэмплу
	SamplePath string `json:"samplePath,omitempty"`

	// Опционально: временные данные для полного каскада
	// Обычно пусты - хранилище держит только отпечатки
	Sequence [][]float64 `json:"sequence,omitempty"`
	Segments [][]float64 `json:"segments,omitempty"`
}

// storeFile структура JSON файла хранилища
type storeFile struct {
	Version int      `json:"version"`
	Records []Record `json:"reciters"`
}

// Известные стили чтения
const (
	StyleHafs  = "Hafs"
	StyleWarsh = "Warsh"
	StyleAssim = "Assim"
)

// InferStyle выводит стиль чтения из имени чтеца
func InferStyle(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "warsh"):
		return StyleWarsh
	case strings.Contains(lower, "assim"):
		return StyleAssim
	default:
		return StyleHafs
	}
}
