// Package audio отвечает за декодирование, нормализацию и ввод-вывод
// аудио данных для пайплайна сопоставления чтецов
package audio

import "fmt"

// MatchingSampleRate частота дискретизации пайплайна сопоставления
const MatchingSampleRate = 22050

// ClassifierSampleRate частота дискретизации нейронного классификатора чтецов
const ClassifierSampleRate = 16000

// Buffer декодированный аудио сигнал
// Живёт только в рамках одного запроса и выбрасывается после извлечения признаков
type Buffer struct {
	Samples    []float64
	SampleRate int
}

// Duration возвращает длительность в секундах
func (b *Buffer) Duration() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(len(b.Samples)) / float64(b.SampleRate)
}

// DecodeError ошибка декодирования аудио (битый поток, неподдерживаемый формат)
// Фатальна для запроса - возвращается вызывающему как есть
type DecodeError struct {
	Format string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %s audio: %v", e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
