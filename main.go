package main

import (
	"log"

	"tarteel/internal/api"
	"tarteel/internal/config"
	"tarteel/internal/service"
	"tarteel/models"
	"tarteel/reciter"
)

func main() {
	log.Println("Tarteel backend starting...")

	cfg := config.Load()
	log.Printf("Data directory: %s", cfg.DataDir)
	log.Printf("Models directory: %s", cfg.ModelsDir)

	store, err := reciter.NewStore(cfg.DataDir)
	if err != nil {
		log.Fatalf("Failed to init reciter store: %v", err)
	}
	log.Printf("Reciter store loaded: %d records", store.Count())

	modelMgr, err := models.NewManager(cfg.ModelsDir)
	if err != nil {
		log.Fatalf("Failed to init model manager: %v", err)
	}

	processing := service.NewProcessingService()
	enrollment := service.NewEnrollmentService(store, processing)
	identification := service.NewIdentificationService(store, processing)

	// Классификатор опционален: без модели сервер работает,
	// /api/predict-speaker возвращает 503
	prediction := service.NewPredictionService(cfg.ModelPath, cfg.MappingPath)
	defer prediction.Close()

	server := api.NewServer(cfg, store, modelMgr, processing, enrollment, identification, prediction)
	server.Start()
}
