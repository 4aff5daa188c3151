package config

import (
	"flag"
	"path/filepath"
)

type Config struct {
	DataDir     string
	ModelsDir   string
	ModelPath   string
	MappingPath string
	Port        string
}

func Load() *Config {
	dataDir := flag.String("data", "data/reciters", "Directory for reciter database and samples")
	modelsDir := flag.String("models", "", "Directory for downloaded models (default: dataDir/../models)")
	modelPath := flag.String("model", "", "Path to speaker classifier ONNX model (default: modelsDir/reciter-cnn-base.onnx)")
	mappingPath := flag.String("mapping", "", "Path to speaker mapping JSON (default: next to model)")
	port := flag.String("port", "8080", "Server port")
	flag.Parse()

	// Determine models directory
	finalModelsDir := *modelsDir
	if finalModelsDir == "" {
		finalModelsDir = filepath.Join(filepath.Dir(*dataDir), "models")
	}

	finalModelPath := *modelPath
	if finalModelPath == "" {
		finalModelPath = filepath.Join(finalModelsDir, "reciter-cnn-base.onnx")
	}

	finalMappingPath := *mappingPath
	if finalMappingPath == "" {
		finalMappingPath = filepath.Join(finalModelsDir, "reciter-cnn-base_mapping.json")
	}

	return &Config{
		DataDir:     *dataDir,
		ModelsDir:   finalModelsDir,
		ModelPath:   finalModelPath,
		MappingPath: finalMappingPath,
		Port:        *port,
	}
}
