package audio

import (
	"encoding/binary"
	"fmt"
	"math"
)

// decodeWAV разбирает RIFF/WAVE контейнер и возвращает моно float64 сэмплы
// Поддерживаются PCM 8/16/24/32 бит и IEEE float32
func decodeWAV(data []byte) ([]float64, int, error) {
	if len(data) < 44 {
		return nil, 0, fmt.Errorf("WAV data too short: %d bytes", len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, fmt.Errorf("not a RIFF/WAVE stream")
	}

	var (
		audioFormat   uint16
		channels      int
		sampleRate    int
		bitsPerSample int
		dataChunk     []byte
		haveFmt       bool
	)

	// Идём по чанкам: fmt и data могут стоять в любом порядке,
	// между ними бывают LIST/INFO чанки
	pos := 12
	for pos+8 <= len(data) {
		chunkID := string(data[pos : pos+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if body+chunkSize > len(data) {
			chunkSize = len(data) - body
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return nil, 0, fmt.Errorf("fmt chunk too short: %d bytes", chunkSize)
			}
			audioFormat = binary.LittleEndian.Uint16(data[body:])
			channels = int(binary.LittleEndian.Uint16(data[body+2:]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4:]))
			bitsPerSample = int(binary.LittleEndian.Uint16(data[body+14:]))
			haveFmt = true
		case "data":
			dataChunk = data[body : body+chunkSize]
		}

		// Чанки выровнены по чётной границе
		pos = body + chunkSize
		if chunkSize%2 == 1 {
			pos++
		}
	}

	if !haveFmt {
		return nil, 0, fmt.Errorf("missing fmt chunk")
	}
	if dataChunk == nil {
		return nil, 0, fmt.Errorf("missing data chunk")
	}
	if channels < 1 || sampleRate <= 0 {
		return nil, 0, fmt.Errorf("invalid format: channels=%d rate=%d", channels, sampleRate)
	}

	const (
		formatPCM   = 1
		formatFloat = 3
	)

	bytesPerSample := bitsPerSample / 8
	if bytesPerSample == 0 {
		return nil, 0, fmt.Errorf("invalid bits per sample: %d", bitsPerSample)
	}
	frameSize := bytesPerSample * channels
	numFrames := len(dataChunk) / frameSize
	if numFrames == 0 {
		return nil, 0, fmt.Errorf("empty data chunk")
	}

	mono := make([]float64, numFrames)
	for f := 0; f < numFrames; f++ {
		var sum float64
		for c := 0; c < channels; c++ {
			off := f*frameSize + c*bytesPerSample
			var v float64
			switch {
			case audioFormat == formatFloat && bitsPerSample == 32:
				v = float64(math.Float32frombits(binary.LittleEndian.Uint32(dataChunk[off:])))
			case audioFormat == formatPCM && bitsPerSample == 16:
				v = float64(int16(binary.LittleEndian.Uint16(dataChunk[off:]))) / 32768.0
			case audioFormat == formatPCM && bitsPerSample == 8:
				// 8-bit WAV хранится unsigned
				v = (float64(dataChunk[off]) - 128.0) / 128.0
			case audioFormat == formatPCM && bitsPerSample == 24:
				raw := int32(dataChunk[off]) | int32(dataChunk[off+1])<<8 | int32(dataChunk[off+2])<<16
				if raw&0x800000 != 0 {
					raw |= ^int32(0xFFFFFF) // sign extend
				}
				v = float64(raw) / 8388608.0
			case audioFormat == formatPCM && bitsPerSample == 32:
				v = float64(int32(binary.LittleEndian.Uint32(dataChunk[off:]))) / 2147483648.0
			default:
				return nil, 0, fmt.Errorf("unsupported WAV format: format=%d bits=%d", audioFormat, bitsPerSample)
			}
			sum += v
		}
		mono[f] = sum / float64(channels)
	}

	return mono, sampleRate, nil
}
