package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/hajimehoshi/go-mp3"
)

// Decode декодирует аудио байты в Buffer с частотой MatchingSampleRate
// mimeType определяет формат: audio/wav и audio/wave - WAV, всё остальное - MP3
// (включая audio/mp3 и audio/mpeg; неизвестные типы по умолчанию считаются MP3)
func Decode(data []byte, mimeType string) (*Buffer, error) {
	return DecodeWithRate(data, mimeType, MatchingSampleRate)
}

// DecodeWithRate декодирует аудио байты и ресемплирует до targetRate
func DecodeWithRate(data []byte, mimeType string, targetRate int) (*Buffer, error) {
	if len(data) == 0 {
		return nil, &DecodeError{Format: mimeType, Err: fmt.Errorf("empty audio payload")}
	}

	var samples []float64
	var srcRate int
	var err error

	switch normalizeMIME(mimeType) {
	case "wav":
		samples, srcRate, err = decodeWAV(data)
		if err != nil {
			return nil, &DecodeError{Format: "wav", Err: err}
		}
	default:
		samples, srcRate, err = decodeMP3(data)
		if err != nil {
			return nil, &DecodeError{Format: "mp3", Err: err}
		}
	}

	if len(samples) == 0 {
		return nil, &DecodeError{Format: mimeType, Err: fmt.Errorf("no audio frames decoded")}
	}

	if srcRate != targetRate {
		samples = resampleLinear(samples, srcRate, targetRate)
	}

	log.Printf("[Audio] Decoded %s: %d samples @ %d Hz (%.2f sec)",
		mimeType, len(samples), targetRate, float64(len(samples))/float64(targetRate))

	return &Buffer{Samples: samples, SampleRate: targetRate}, nil
}

// normalizeMIME сводит MIME тип к ключу формата
func normalizeMIME(mimeType string) string {
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "audio/wav", "audio/wave", "audio/x-wav":
		return "wav"
	default:
		return "mp3"
	}
}

// decodeMP3 декодирует MP3 поток в моно float64 сэмплы
// go-mp3 всегда отдаёт signed 16-bit stereo PCM
func decodeMP3(data []byte) ([]float64, int, error) {
	decoder, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create MP3 decoder: %w", err)
	}

	pcm := make([]byte, decoder.Length())
	n, err := io.ReadFull(decoder, pcm)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, 0, fmt.Errorf("failed to read PCM data: %w", err)
	}
	pcm = pcm[:n]

	// 2 байта на сэмпл * 2 канала
	numSamples := n / 4
	mono := make([]float64, numSamples)
	for i := 0; i < numSamples; i++ {
		left := int16(binary.LittleEndian.Uint16(pcm[i*4:]))
		right := int16(binary.LittleEndian.Uint16(pcm[i*4+2:]))
		// Сводим в моно усреднением каналов
		mono[i] = (float64(left) + float64(right)) / 2.0 / 32768.0
	}

	return mono, decoder.SampleRate(), nil
}

// resampleLinear выполняет линейную интерполяцию для ресемплинга
func resampleLinear(samples []float64, srcRate, dstRate int) []float64 {
	if srcRate == dstRate {
		return samples
	}

	ratio := float64(srcRate) / float64(dstRate)
	newLen := int(float64(len(samples)) / ratio)
	if newLen < 1 {
		newLen = 1
	}
	resampled := make([]float64, newLen)

	for i := 0; i < newLen; i++ {
		srcPos := float64(i) * ratio
		srcIdx := int(srcPos)
		frac := srcPos - float64(srcIdx)

		if srcIdx+1 < len(samples) {
			resampled[i] = samples[srcIdx]*(1-frac) + samples[srcIdx+1]*frac
		} else if srcIdx < len(samples) {
			resampled[i] = samples[srcIdx]
		}
	}

	return resampled
}
