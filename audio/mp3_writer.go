package audio

import (
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/braheezy/shine-mp3/pkg/mp3"
)

// MP3Writer пишет моно float64 сэмплы в MP3 файл через shine-mp3 (чистый Go)
// Используется для сохранения эталонных записей чтецов
type MP3Writer struct {
	file       *os.File
	encoder    *mp3.Encoder
	filePath   string
	sampleRate int

	// shine кодирует блоками по 1152 сэмпла (MP3 Layer III)
	buffer []int16

	samplesWritten int64
	mu             sync.Mutex
	closed         bool
}

// NewMP3Writer создаёт новый MP3 writer (моно)
func NewMP3Writer(filePath string, sampleRate int) (*MP3Writer, error) {
	file, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	return &MP3Writer{
		file:       file,
		encoder:    mp3.NewEncoder(sampleRate, 1),
		filePath:   filePath,
		sampleRate: sampleRate,
		buffer:     make([]int16, 0, 8192),
	}, nil
}

// Write записывает float64 сэмплы
func (w *MP3Writer) Write(samples []float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("writer is closed")
	}

	for _, s := range samples {
		if s > 1.0 {
			s = 1.0
		} else if s < -1.0 {
			s = -1.0
		}
		w.buffer = append(w.buffer, int16(s*32767))
	}
	w.samplesWritten += int64(len(samples))

	// Пишем когда накопилось несколько полных блоков
	const minBufferSize = 1152 * 4
	if len(w.buffer) >= minBufferSize {
		w.encoder.Write(w.file, w.buffer)
		w.buffer = w.buffer[:0]
	}

	return nil
}

// Close дописывает остаток буфера и закрывает файл
func (w *MP3Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if len(w.buffer) > 0 {
		// Дополняем до границы блока нулями
		for len(w.buffer)%1152 != 0 {
			w.buffer = append(w.buffer, 0)
		}
		w.encoder.Write(w.file, w.buffer)
		w.buffer = nil
	}

	if err := w.file.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	return nil
}

// FilePath возвращает путь к файлу
func (w *MP3Writer) FilePath() string {
	return w.filePath
}

// WriteMP3File кодирует весь буфер в MP3 файл одним вызовом
// При ошибке недописанный файл удаляется - временные артефакты не протекают
func WriteMP3File(path string, buf *Buffer) error {
	w, err := NewMP3Writer(path, buf.SampleRate)
	if err != nil {
		return err
	}

	if err := w.Write(buf.Samples); err != nil {
		w.Close()
		os.Remove(path)
		return err
	}
	if err := w.Close(); err != nil {
		os.Remove(path)
		return err
	}

	log.Printf("[Audio] Wrote MP3 sample: %s (%.2f sec)", path, buf.Duration())
	return nil
}
