// Консольный инструмент пайплайна: извлечение признаков и сравнение записей
// Запуск: go run ./cmd/audiotool --process <base64|@file> [--audio-type mp3]
//         go run ./cmd/audiotool --match <json|@file>
//
// Успех: JSON в stdout, код 0. Ошибка: {"error": ...} в stderr, код 1

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"tarteel/audio"
	"tarteel/features"
	"tarteel/internal/service"
	"tarteel/match"
)

func main() {
	processArg := flag.String("process", "", "Base64 audio to process (@file to read payload from file)")
	audioType := flag.String("audio-type", "mp3", "Audio MIME type (mp3, wav)")
	matchArg := flag.String("match", "", "JSON with sample1/sample2 feature bundles (@file to read from file)")
	flag.Parse()

	switch {
	case *processArg != "":
		runProcess(*processArg, *audioType)
	case *matchArg != "":
		runMatch(*matchArg)
	default:
		fail("either --process or --match is required")
	}
}

// resolveArg подставляет содержимое файла для аргументов с префиксом @
func resolveArg(arg string) string {
	if !strings.HasPrefix(arg, "@") {
		return arg
	}
	data, err := os.ReadFile(arg[1:])
	if err != nil {
		fail(fmt.Sprintf("failed to read %s: %v", arg[1:], err))
	}
	return strings.TrimSpace(string(data))
}

func runProcess(payload, audioType string) {
	data, err := service.DecodePayload(resolveArg(payload))
	if err != nil {
		fail(err.Error())
	}

	buf, err := audio.Decode(data, audioType)
	if err != nil {
		fail(err.Error())
	}

	bundle := features.Extract(buf)
	emit(bundle)
}

type matchInput struct {
	Sample1 *features.Bundle `json:"sample1"`
	Sample2 *features.Bundle `json:"sample2"`
}

func runMatch(payload string) {
	var input matchInput
	if err := json.Unmarshal([]byte(resolveArg(payload)), &input); err != nil {
		fail(fmt.Sprintf("failed to parse match input: %v", err))
	}
	if input.Sample1 == nil || input.Sample2 == nil {
		fail("sample1 and sample2 are required")
	}

	result, err := match.Compare(context.Background(),
		match.SampleFromBundle(input.Sample1), match.SampleFromBundle(input.Sample2))
	if err != nil {
		fail(err.Error())
	}
	emit(result)
}

func emit(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	if err := enc.Encode(v); err != nil {
		fail(fmt.Sprintf("failed to encode output: %v", err))
	}
	os.Exit(0)
}

func fail(msg string) {
	out, _ := json.Marshal(map[string]string{"error": msg})
	fmt.Fprintln(os.Stderr, string(out))
	os.Exit(1)
}
