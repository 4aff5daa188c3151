// Package models предоставляет управление нейронными моделями классификации чтецов
package models

// ModelType тип модели
type ModelType string

const (
	ModelTypeONNX ModelType = "onnx" // ONNX модели классификатора
)

// EngineType назначение модели
type EngineType string

const (
	EngineTypeClassifier EngineType = "classifier" // Классификатор чтецов (CNN)
)

// ModelInfo информация о модели
type ModelInfo struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Type        ModelType  `json:"type"`
	Engine      EngineType `json:"engine"`
	Size        string     `json:"size"`
	SizeBytes   int64      `json:"sizeBytes"`
	Description string     `json:"description"`
	Accuracy    string     `json:"accuracy,omitempty"`
	Recommended bool       `json:"recommended,omitempty"`
	DownloadURL string     `json:"downloadUrl,omitempty"`
	MappingURL  string     `json:"mappingUrl,omitempty"` // URL отображения индекс->чтец (JSON)
}

// ModelStatus статус модели на устройстве
type ModelStatus string

const (
	ModelStatusNotDownloaded ModelStatus = "not_downloaded"
	ModelStatusDownloading   ModelStatus = "downloading"
	ModelStatusDownloaded    ModelStatus = "downloaded"
	ModelStatusActive        ModelStatus = "active"
	ModelStatusError         ModelStatus = "error"
)

// ModelState состояние модели с информацией
type ModelState struct {
	ModelInfo
	Status   ModelStatus `json:"status"`
	Progress float64     `json:"progress,omitempty"` // 0-100
	Error    string      `json:"error,omitempty"`
	Path     string      `json:"path,omitempty"` // Путь к скачанной модели
}

// Registry реестр доступных моделей
var Registry = []ModelInfo{
	{
		ID:          "reciter-cnn-small",
		Name:        "Reciter CNN Small",
		Type:        ModelTypeONNX,
		Engine:      EngineTypeClassifier,
		Size:        "12 MB",
		SizeBytes:   12_500_000,
		Description: "Компактный CNN классификатор на log-mel спектрограммах (12 чтецов)",
		Accuracy:    "91.4%",
		DownloadURL: "https://huggingface.co/tarteel-ai/reciter-cnn-onnx/resolve/main/reciter_cnn_small.onnx",
		MappingURL:  "https://huggingface.co/tarteel-ai/reciter-cnn-onnx/resolve/main/speaker_mapping.json",
	},
	{
		ID:          "reciter-cnn-base",
		Name:        "Reciter CNN Base",
		Type:        ModelTypeONNX,
		Engine:      EngineTypeClassifier,
		Size:        "46 MB",
		SizeBytes:   46_000_000,
		Description: "Базовый CNN классификатор, лучшая точность на длинных записях",
		Accuracy:    "96.8%",
		Recommended: true,
		DownloadURL: "https://huggingface.co/tarteel-ai/reciter-cnn-onnx/resolve/main/reciter_cnn_base.onnx",
		MappingURL:  "https://huggingface.co/tarteel-ai/reciter-cnn-onnx/resolve/main/speaker_mapping.json",
	},
}

// GetModelByID возвращает модель по ID
func GetModelByID(id string) *ModelInfo {
	for _, m := range Registry {
		if m.ID == id {
			return &m
		}
	}
	return nil
}

// GetModelsByEngine возвращает модели для определённого назначения
func GetModelsByEngine(engine EngineType) []ModelInfo {
	var result []ModelInfo
	for _, m := range Registry {
		if m.Engine == engine {
			result = append(result, m)
		}
	}
	return result
}

// GetRecommendedModels возвращает рекомендуемые модели
func GetRecommendedModels() []ModelInfo {
	var result []ModelInfo
	for _, m := range Registry {
		if m.Recommended {
			result = append(result, m)
		}
	}
	return result
}
