package audio

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

// buildWAV собирает минимальный RIFF/WAVE контейнер с PCM16 моно данными
func buildWAV(samples []int16, sampleRate int) []byte {
	dataSize := len(samples) * 2
	buf := make([]byte, 44+dataSize)

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize))
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], 1) // mono
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(sampleRate*2))
	binary.LittleEndian.PutUint16(buf[32:34], 2)
	binary.LittleEndian.PutUint16(buf[34:36], 16)

	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[44+i*2:], uint16(s))
	}
	return buf
}

func TestDecode_WAV(t *testing.T) {
	samples := []int16{0, 16384, -16384, 32767}
	data := buildWAV(samples, MatchingSampleRate)

	buf, err := Decode(data, "audio/wav")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if buf.SampleRate != MatchingSampleRate {
		t.Fatalf("rate = %d, want %d", buf.SampleRate, MatchingSampleRate)
	}
	if len(buf.Samples) != len(samples) {
		t.Fatalf("got %d samples, want %d", len(buf.Samples), len(samples))
	}
	if math.Abs(buf.Samples[1]-0.5) > 1e-4 {
		t.Fatalf("sample[1] = %v, want ~0.5", buf.Samples[1])
	}
	if math.Abs(buf.Samples[2]+0.5) > 1e-4 {
		t.Fatalf("sample[2] = %v, want ~-0.5", buf.Samples[2])
	}
}

func TestDecodeWithRate_Resamples(t *testing.T) {
	// Секунда аудио на 44100 Гц должна ресемплироваться в ~22050 сэмплов
	srcRate := 44100
	samples := make([]int16, srcRate)
	for i := range samples {
		samples[i] = int16(10000 * math.Sin(2*math.Pi*440*float64(i)/float64(srcRate)))
	}
	data := buildWAV(samples, srcRate)

	buf, err := DecodeWithRate(data, "audio/wav", MatchingSampleRate)
	if err != nil {
		t.Fatalf("DecodeWithRate: %v", err)
	}
	if buf.SampleRate != MatchingSampleRate {
		t.Fatalf("rate = %d, want %d", buf.SampleRate, MatchingSampleRate)
	}
	if math.Abs(float64(len(buf.Samples))-float64(MatchingSampleRate)) > 2 {
		t.Fatalf("got %d samples, want ~%d", len(buf.Samples), MatchingSampleRate)
	}
	if math.Abs(buf.Duration()-1.0) > 0.01 {
		t.Fatalf("duration = %v, want ~1.0", buf.Duration())
	}
}

func TestDecode_BadMP3(t *testing.T) {
	_, err := Decode([]byte("definitely not an mp3 stream"), "audio/mp3")
	if err == nil {
		t.Fatal("expected error for garbage MP3 data")
	}

	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("error is not *DecodeError: %T", err)
	}
	if decodeErr.Format != "mp3" {
		t.Fatalf("format = %q, want mp3", decodeErr.Format)
	}
}

func TestDecode_Empty(t *testing.T) {
	if _, err := Decode(nil, "audio/mp3"); err == nil {
		t.Fatal("expected error for empty payload")
	}
}

func TestDecode_BadWAV(t *testing.T) {
	data := make([]byte, 64)
	copy(data, "RIFFxxxxNOPE")
	_, err := Decode(data, "audio/wav")
	if err == nil {
		t.Fatal("expected error for broken WAV header")
	}
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("error is not *DecodeError: %T", err)
	}
	if decodeErr.Format != "wav" {
		t.Fatalf("format = %q, want wav", decodeErr.Format)
	}
}

func TestNormalizeMIME(t *testing.T) {
	tests := []struct {
		mime string
		want string
	}{
		{"audio/wav", "wav"},
		{"audio/wave", "wav"},
		{"AUDIO/X-WAV", "wav"},
		{"audio/mp3", "mp3"},
		{"audio/mpeg", "mp3"},
		{"", "mp3"},
	}
	for _, tt := range tests {
		if got := normalizeMIME(tt.mime); got != tt.want {
			t.Errorf("normalizeMIME(%q) = %q, want %q", tt.mime, got, tt.want)
		}
	}
}
