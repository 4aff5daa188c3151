// Регистрация чтеца с микрофона
// Запуск: go run ./cmd/enrollmic --name "Имя чтеца" [--seconds 15] [--device "..."]

package main

import (
	"context"
	"flag"
	"log"
	"time"

	"tarteel/audio"
	"tarteel/internal/service"
	"tarteel/reciter"
)

func main() {
	name := flag.String("name", "", "Reciter name (required)")
	seconds := flag.Int("seconds", 15, "Recording duration in seconds")
	device := flag.String("device", "", "Capture device name (default device if empty)")
	dataDir := flag.String("data", "data/reciters", "Directory for reciter database")
	wavDump := flag.String("wav", "", "Dump the raw capture to a WAV file (debug)")
	list := flag.Bool("list-devices", false, "List capture devices and exit")
	flag.Parse()

	capture, err := audio.NewCapture()
	if err != nil {
		log.Fatalf("Ошибка инициализации захвата: %v", err)
	}
	defer capture.Close()

	if *list {
		devices, err := capture.ListDevices()
		if err != nil {
			log.Fatalf("Ошибка перечисления устройств: %v", err)
		}
		for _, d := range devices {
			log.Printf("  %s", d.Name)
		}
		return
	}

	if *name == "" {
		log.Fatal("--name обязателен")
	}

	if *device != "" {
		if err := capture.SetDeviceByName(*device); err != nil {
			log.Fatalf("Устройство не найдено: %v", err)
		}
	}

	store, err := reciter.NewStore(*dataDir)
	if err != nil {
		log.Fatalf("Ошибка открытия хранилища: %v", err)
	}

	log.Printf("=== Регистрация чтеца: %s ===", *name)
	log.Printf("Запись %d секунд с микрофона...", *seconds)

	buf, err := capture.Record(time.Duration(*seconds)*time.Second, audio.MatchingSampleRate)
	if err != nil {
		log.Fatalf("Ошибка записи: %v", err)
	}

	log.Printf("Записано %d сэмплов (%.1f сек)", len(buf.Samples),
		float64(len(buf.Samples))/float64(buf.SampleRate))

	if *wavDump != "" {
		if err := dumpWAV(*wavDump, buf); err != nil {
			log.Printf("Ошибка записи WAV дампа: %v", err)
		} else {
			log.Printf("WAV дамп: %s", *wavDump)
		}
	}

	enrollment := service.NewEnrollmentService(store, service.NewProcessingService())

	result, err := enrollment.EnrollBuffer(context.Background(), *name, buf, func(phase string, percent int) {
		log.Printf("  %s: %d%%", phase, percent)
	})
	if err != nil {
		log.Fatalf("Ошибка регистрации: %v", err)
	}

	log.Printf("Готово: %s (id=%s, style=%s, vector=%d)",
		result.Record.Name, result.Record.ID, result.Record.Style, len(result.Record.FeatureVector))
}

// dumpWAV сохраняет сырую запись в WAV для отладки захвата
func dumpWAV(path string, buf *audio.Buffer) error {
	w, err := audio.NewWAVWriter(path, buf.SampleRate)
	if err != nil {
		return err
	}
	if err := w.Write(buf.Samples); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
