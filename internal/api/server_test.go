package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"tarteel/features"
	"tarteel/internal/config"
	"tarteel/internal/service"
	"tarteel/models"
	"tarteel/reciter"
)

// startTestServer собирает сервер с временным хранилищем
func startTestServer(t *testing.T) *Server {
	t.Helper()

	dataDir := t.TempDir()

	cfg := &config.Config{
		DataDir:   dataDir,
		ModelsDir: t.TempDir(),
		Port:      "0",
	}

	store, err := reciter.NewStore(cfg.DataDir)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	modelMgr, err := models.NewManager(cfg.ModelsDir)
	if err != nil {
		t.Fatalf("model manager: %v", err)
	}

	processing := service.NewProcessingService()
	enrollment := service.NewEnrollmentService(store, processing)
	identification := service.NewIdentificationService(store, processing)
	prediction := service.NewPredictionService("/nonexistent/model.onnx", "/nonexistent/mapping.json")

	return NewServer(cfg, store, modelMgr, processing, enrollment, identification, prediction)
}

func TestRecitersList_Empty(t *testing.T) {
	s := startTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/reciters", nil)
	w := httptest.NewRecorder()
	s.handleReciters(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp struct {
		Reciters []ReciterInfo `json:"reciters"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Reciters) != 0 {
		t.Fatalf("reciters = %d, want 0", len(resp.Reciters))
	}
}

func TestProcessRecitation_BadPayload(t *testing.T) {
	s := startTestServer(t)

	body, _ := json.Marshal(map[string]string{
		"audio":     "not valid base64!!!",
		"audioType": "mp3",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/process-recitation", bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.handleProcessRecitation(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp["error"] == "" {
		t.Fatal("expected error field in response")
	}
}

func TestProcessRecitation_UndecodableAudio(t *testing.T) {
	s := startTestServer(t)

	// Валидный base64, но не аудио
	payload := base64.StdEncoding.EncodeToString([]byte("definitely not an mp3"))
	body, _ := json.Marshal(map[string]string{
		"audio":     payload,
		"audioType": "mp3",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/process-recitation", bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.handleProcessRecitation(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
}

func TestMatch_RequiresBothSamples(t *testing.T) {
	s := startTestServer(t)

	body, _ := json.Marshal(map[string]interface{}{
		"sample1": nil,
		"sample2": nil,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/match", bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.handleMatch(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestMatch_CosineOnly(t *testing.T) {
	s := startTestServer(t)

	dim := features.FingerprintDim()
	vec := make([]float64, dim)
	vec[0] = 1.0

	bundle := &features.Bundle{FeatureVector: vec}
	body, _ := json.Marshal(matchRequest{Sample1: bundle, Sample2: bundle})

	req := httptest.NewRequest(http.MethodPost, "/api/match", bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.handleMatch(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	sim, ok := resp["similarity"].(float64)
	if !ok {
		t.Fatalf("similarity missing in response: %v", resp)
	}
	if sim < 0.99 {
		t.Fatalf("similarity = %v, want ~1.0 for identical vectors", sim)
	}
}

func TestPredictSpeaker_Unavailable(t *testing.T) {
	s := startTestServer(t)

	body, _ := json.Marshal(map[string]string{"audio": "AAAA", "audioType": "mp3"})
	req := httptest.NewRequest(http.MethodPost, "/api/predict-speaker", bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.handlePredictSpeaker(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
}
