package reciter

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store хранилище эталонов чтецов
type Store struct {
	path string
	data storeFile
	mu   sync.RWMutex
}

// NewStore создаёт хранилище; reciters.json лежит в dataDir
func NewStore(dataDir string) (*Store, error) {
	path := filepath.Join(dataDir, "reciters.json")

	store := &Store{
		path: path,
		data: storeFile{Version: CurrentVersion},
	}

	if err := store.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load reciters: %w", err)
	}

	log.Printf("[Reciter] Store initialized: %s (%d reciters)", path, len(store.data.Records))
	return store, nil
}

// load загружает данные из файла
func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, &s.data); err != nil {
		return fmt.Errorf("failed to parse reciters.json: %w", err)
	}

	if s.data.Version < CurrentVersion {
		if err := s.migrate(); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// migrate выполняет миграцию формата
func (s *Store) migrate() error {
	switch s.data.Version {
	case 0:
		s.data.Version = 1
		return s.saveUnsafe()
	default:
		return nil
	}
}

// saveUnsafe сохраняет без блокировки (вызывать только при удержании lock)
// Запись атомарна: через временный файл и rename
func (s *Store) saveUnsafe() error {
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal reciters: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// GetAll возвращает копию всех записей
func (s *Store) GetAll() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Record, len(s.data.Records))
	copy(result, s.data.Records)
	return result
}

// Get возвращает запись по ID
func (s *Store) Get(id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.data.Records {
		if s.data.Records[i].ID == id {
			rec := s.data.Records[i]
			return &rec, nil
		}
	}

	return nil, fmt.Errorf("reciter not found: %s", id)
}

// GetByName возвращает запись по имени
func (s *Store) GetByName(name string) (*Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.data.Records {
		if s.data.Records[i].Name == name {
			rec := s.data.Records[i]
			return &rec, true
		}
	}

	return nil, false
}

// Upsert создаёт запись чтеца или обновляет существующую с тем же именем
// Возвращает актуальную запись
func (s *Store) Upsert(name, style string, featureVector []float64) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()

	for i := range s.data.Records {
		if s.data.Records[i].Name == name {
			rec := &s.data.Records[i]
			rec.Style = style
			rec.FeatureVector = append([]float64(nil), featureVector...)
			rec.UpdatedAt = now

			if err := s.saveUnsafe(); err != nil {
				return nil, err
			}
			log.Printf("[Reciter] Updated: %s (%s)", rec.Name, rec.ID[:8])
			result := *rec
			return &result, nil
		}
	}

	rec := Record{
		ID:            uuid.New().String(),
		Name:          name,
		Style:         style,
		FeatureVector: append([]float64(nil), featureVector...),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.data.Records = append(s.data.Records, rec)

	if err := s.saveUnsafe(); err != nil {
		// Откатываем изменения
		s.data.Records = s.data.Records[:len(s.data.Records)-1]
		return nil, err
	}

	log.Printf("[Reciter] Added: %s (%s)", rec.Name, rec.ID[:8])
	return &rec, nil
}

// SetSamplePath устанавливает путь к эталонному аудио-сэмплу
func (s *Store) SetSamplePath(id, samplePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.Records {
		if s.data.Records[i].ID == id {
			s.data.Records[i].SamplePath = samplePath
			s.data.Records[i].UpdatedAt = time.Now()
			return s.saveUnsafe()
		}
	}

	return fmt.Errorf("reciter not found: %s", id)
}

// Delete удаляет запись
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.Records {
		if s.data.Records[i].ID == id {
			name := s.data.Records[i].Name
			s.data.Records = append(
				s.data.Records[:i],
				s.data.Records[i+1:]...,
			)
			if err := s.saveUnsafe(); err != nil {
				return err
			}
			log.Printf("[Reciter] Deleted: %s (%s)", name, id[:8])
			return nil
		}
	}

	return fmt.Errorf("reciter not found: %s", id)
}

// Count возвращает количество сохранённых чтецов
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data.Records)
}

// SamplesDir возвращает директорию для эталонных аудио-сэмплов
func (s *Store) SamplesDir() string {
	return filepath.Join(filepath.Dir(s.path), "samples")
}
