package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"

	"tarteel/features"
	"tarteel/internal/config"
	"tarteel/internal/service"
	"tarteel/match"
	"tarteel/models"
	"tarteel/reciter"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Server struct {
	Config         *config.Config
	Store          *reciter.Store
	ModelMgr       *models.Manager
	Processing     *service.ProcessingService
	Enrollment     *service.EnrollmentService
	Identification *service.IdentificationService
	Prediction     *service.PredictionService

	clients map[*websocket.Conn]bool
	mu      sync.Mutex
}

func NewServer(
	cfg *config.Config,
	store *reciter.Store,
	modMgr *models.Manager,
	processing *service.ProcessingService,
	enrollment *service.EnrollmentService,
	identification *service.IdentificationService,
	prediction *service.PredictionService,
) *Server {
	s := &Server{
		Config:         cfg,
		Store:          store,
		ModelMgr:       modMgr,
		Processing:     processing,
		Enrollment:     enrollment,
		Identification: identification,
		Prediction:     prediction,
		clients:        make(map[*websocket.Conn]bool),
	}
	s.setupCallbacks()
	return s
}

func (s *Server) Start() {
	http.HandleFunc("/ws", s.handleWebSocket)
	http.HandleFunc("/api/process-recitation", s.handleProcessRecitation)
	http.HandleFunc("/api/reciters", s.handleReciters)
	http.HandleFunc("/api/reciters/", s.handleReciterByID)
	http.HandleFunc("/api/match", s.handleMatch)
	http.HandleFunc("/api/predict-speaker", s.handlePredictSpeaker)

	log.Printf("[Server] Listening on :%s", s.Config.Port)
	if err := http.ListenAndServe(":"+s.Config.Port, nil); err != nil {
		log.Fatal("ListenAndServe:", err)
	}
}

func (s *Server) setupCallbacks() {
	// Прогресс скачивания моделей транслируется всем клиентам
	s.ModelMgr.SetProgressCallback(func(modelID string, progress float64, status models.ModelStatus, err error) {
		errStr := ""
		if err != nil {
			errStr = err.Error()
		}
		s.broadcast(Message{
			Type:     "model_progress",
			ModelID:  modelID,
			Progress: progress,
			Data:     string(status),
			Error:    errStr,
		})
	})
}

func (s *Server) broadcast(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for conn := range s.clients {
		if err := conn.WriteJSON(msg); err != nil {
			log.Printf("[Server] Write error: %v", err)
			conn.Close()
			delete(s.clients, conn)
		}
	}
}

// ===== HTTP API =====

type audioRequest struct {
	Audio     string `json:"audio"`
	AudioType string `json:"audioType"`
	Name      string `json:"name,omitempty"`
	TopK      int    `json:"topK,omitempty"`
}

type matchRequest struct {
	Sample1 *features.Bundle `json:"sample1"`
	Sample2 *features.Bundle `json:"sample2"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func setCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// handleProcessRecitation POST {audio, audioType} -> {matches, feature_info}
func (s *Server) handleProcessRecitation(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req audioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	data, err := service.DecodePayload(req.Audio)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.Identification.Identify(r.Context(), data, req.AudioType, nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleReciters GET -> список, POST {audio, name, audioType} -> регистрация
func (s *Server) handleReciters(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)

	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"reciters": s.reciterInfos(),
		})

	case http.MethodPost:
		var req audioRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}

		data, err := service.DecodePayload(req.Audio)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		result, err := s.Enrollment.Enroll(r.Context(), req.Name, data, req.AudioType, nil)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"reciter":      reciterInfo(result.Record),
			"feature_info": result.Bundle.Shapes,
		})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleReciterByID DELETE /api/reciters/{id}
func (s *Server) handleReciterByID(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/reciters/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "reciter id is required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		rec, err := s.Store.Get(id)
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, reciterInfo(rec))

	case http.MethodDelete:
		if err := s.Store.Delete(id); err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"deleted": id})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleMatch POST {sample1, sample2} -> результат каскада
func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Sample1 == nil || req.Sample2 == nil {
		writeError(w, http.StatusBadRequest, "sample1 and sample2 are required")
		return
	}

	result, err := s.Identification.MatchSamples(r.Context(),
		match.SampleFromBundle(req.Sample1), match.SampleFromBundle(req.Sample2))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handlePredictSpeaker POST {audio, audioType, topK} -> {predictions}
func (s *Server) handlePredictSpeaker(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if !s.Prediction.Available() {
		writeError(w, http.StatusServiceUnavailable, "speaker classifier is not available")
		return
	}

	var req audioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	data, err := service.DecodePayload(req.Audio)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	predictions, err := s.Prediction.Predict(r.Context(), data, req.AudioType, req.TopK)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"predictions": predictions,
	})
}

// ===== WebSocket API =====

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("[Server] Upgrade:", err)
		return
	}

	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			log.Println("[Server] Read:", err)
			break
		}
		s.processMessage(r, conn, msg)
	}
}

// writeConn сериализует одиночные записи в соединение: обработчики пайплайна
// пишут прогресс из своих горутин
func (s *Server) writeConn(conn *websocket.Conn, msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("[Server] Write error: %v", err)
	}
}

func (s *Server) processMessage(r *http.Request, conn *websocket.Conn, msg Message) {
	switch msg.Type {
	case "process_recitation":
		data, err := service.DecodePayload(msg.Audio)
		if err != nil {
			s.writeConn(conn, Message{Type: "error", Error: err.Error()})
			return
		}

		progress := func(phase string, percent int) {
			s.writeConn(conn, Message{Type: "progress", Phase: phase, Progress: float64(percent)})
		}

		result, err := s.Identification.Identify(r.Context(), data, msg.AudioType, progress)
		if err != nil {
			s.writeConn(conn, Message{Type: "error", Error: err.Error()})
			return
		}

		s.writeConn(conn, Message{
			Type:    "recitation_processed",
			Matches: result.Matches,
			Shapes:  &result.Shapes,
		})

	case "enroll_reciter":
		if msg.Name == "" {
			s.writeConn(conn, Message{Type: "error", Error: "name is required"})
			return
		}
		data, err := service.DecodePayload(msg.Audio)
		if err != nil {
			s.writeConn(conn, Message{Type: "error", Error: err.Error()})
			return
		}

		progress := func(phase string, percent int) {
			s.writeConn(conn, Message{Type: "progress", Phase: phase, Progress: float64(percent)})
		}

		result, err := s.Enrollment.Enroll(r.Context(), msg.Name, data, msg.AudioType, progress)
		if err != nil {
			s.writeConn(conn, Message{Type: "error", Error: err.Error()})
			return
		}

		info := reciterInfo(result.Record)
		s.writeConn(conn, Message{
			Type:    "reciter_enrolled",
			Reciter: &info,
			Shapes:  &result.Bundle.Shapes,
		})

	case "list_reciters":
		s.writeConn(conn, Message{
			Type:     "reciters_list",
			Reciters: s.reciterInfos(),
		})

	case "predict_speaker":
		if !s.Prediction.Available() {
			s.writeConn(conn, Message{Type: "error", Error: "speaker classifier is not available"})
			return
		}
		data, err := service.DecodePayload(msg.Audio)
		if err != nil {
			s.writeConn(conn, Message{Type: "error", Error: err.Error()})
			return
		}
		predictions, err := s.Prediction.Predict(r.Context(), data, msg.AudioType, msg.TopK)
		if err != nil {
			s.writeConn(conn, Message{Type: "error", Error: err.Error()})
			return
		}
		s.writeConn(conn, Message{Type: "speaker_predicted", Predictions: predictions})

	case "get_models":
		s.writeConn(conn, Message{
			Type:   "models_list",
			Models: s.ModelMgr.GetAllModelsState(),
		})

	case "download_model":
		if msg.ModelID == "" {
			s.writeConn(conn, Message{Type: "error", Error: "modelId is required"})
			return
		}
		if err := s.ModelMgr.DownloadModel(msg.ModelID); err != nil {
			s.writeConn(conn, Message{Type: "error", Error: err.Error()})
			return
		}
		s.writeConn(conn, Message{Type: "download_started", ModelID: msg.ModelID})

	case "cancel_download":
		if msg.ModelID == "" {
			s.writeConn(conn, Message{Type: "error", Error: "modelId is required"})
			return
		}
		s.ModelMgr.CancelDownload(msg.ModelID)
		s.writeConn(conn, Message{Type: "download_cancelled", ModelID: msg.ModelID})

	case "delete_model":
		if msg.ModelID == "" {
			s.writeConn(conn, Message{Type: "error", Error: "modelId is required"})
			return
		}
		s.ModelMgr.DeleteModel(msg.ModelID)
		s.writeConn(conn, Message{Type: "model_deleted", ModelID: msg.ModelID})
		s.writeConn(conn, Message{Type: "models_list", Models: s.ModelMgr.GetAllModelsState()})

	default:
		s.writeConn(conn, Message{Type: "error", Error: "unknown message type: " + msg.Type})
	}
}

func (s *Server) reciterInfos() []ReciterInfo {
	records := s.Store.GetAll()
	infos := make([]ReciterInfo, len(records))
	for i := range records {
		infos[i] = reciterInfo(&records[i])
	}
	return infos
}

func reciterInfo(rec *reciter.Record) ReciterInfo {
	return ReciterInfo{
		ID:        rec.ID,
		Name:      rec.Name,
		Style:     rec.Style,
		VectorDim: len(rec.FeatureVector),
		CreatedAt: rec.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt: rec.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
