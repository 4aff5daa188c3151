package audio

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"
)

// WAVWriter потоковый писатель WAV файлов (PCM16 моно)
// Используется утилитой записи с микрофона для отладочных дампов
type WAVWriter struct {
	file           *os.File
	filePath       string
	sampleRate     int
	samplesWritten int64
	mu             sync.Mutex
}

// NewWAVWriter создаёт новый WAV writer
func NewWAVWriter(filePath string, sampleRate int) (*WAVWriter, error) {
	file, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create WAV file: %w", err)
	}

	w := &WAVWriter{
		file:       file,
		filePath:   filePath,
		sampleRate: sampleRate,
	}

	// Записываем placeholder header, финальный размер допишем в Close
	if err := w.writeHeader(); err != nil {
		file.Close()
		os.Remove(filePath)
		return nil, err
	}

	return w, nil
}

// writeHeader записывает WAV header (PCM16 mono)
func (w *WAVWriter) writeHeader() error {
	if _, err := w.file.Seek(0, 0); err != nil {
		return err
	}

	const (
		channels      = 1
		bitsPerSample = 16
	)
	byteRate := w.sampleRate * channels * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8
	dataSize := uint32(w.samplesWritten * int64(bitsPerSample/8))

	// RIFF header
	w.file.WriteString("RIFF")
	binary.Write(w.file, binary.LittleEndian, uint32(36+dataSize))
	w.file.WriteString("WAVE")

	// fmt chunk
	w.file.WriteString("fmt ")
	binary.Write(w.file, binary.LittleEndian, uint32(16))           // chunk size
	binary.Write(w.file, binary.LittleEndian, uint16(1))            // PCM
	binary.Write(w.file, binary.LittleEndian, uint16(channels))     // channels
	binary.Write(w.file, binary.LittleEndian, uint32(w.sampleRate)) // sample rate
	binary.Write(w.file, binary.LittleEndian, uint32(byteRate))     // byte rate
	binary.Write(w.file, binary.LittleEndian, uint16(blockAlign))   // block align
	binary.Write(w.file, binary.LittleEndian, uint16(bitsPerSample))

	// data chunk
	w.file.WriteString("data")
	binary.Write(w.file, binary.LittleEndian, dataSize)

	return nil
}

// Write записывает float64 сэмплы (конвертирует в PCM16)
func (w *WAVWriter) Write(samples []float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1.0 {
			s = 1.0
		} else if s < -1.0 {
			s = -1.0
		}
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16(s*32767)))
	}

	if _, err := w.file.Write(pcm); err != nil {
		return fmt.Errorf("failed to write samples: %w", err)
	}
	w.samplesWritten += int64(len(samples))
	return nil
}

// Close дописывает финальный header и закрывает файл
func (w *WAVWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.writeHeader(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}
