package features

import "fmt"

// SchemaVersion версия раскладки отпечатка
// Меняется при любом изменении состава или порядка под-векторов
const SchemaVersion = 1

// SubVector именованный под-вектор отпечатка фиксированной ширины
type SubVector struct {
	Name  string
	Width int
}

// FingerprintSchema описывает раскладку отпечатка: упорядоченный список
// именованных под-векторов
// Порядок конкатенации - жёсткий контракт: он задаёт размерность вектора
// и делает несовпадение размерностей между сохранённым и запрошенным
// отпечатком явной ранней ошибкой, а не тихим сбоем формы
var FingerprintSchema = []SubVector{
	{Name: "mfcc_mean", Width: NMFCC},
	{Name: "mfcc_std", Width: NMFCC},
	{Name: "chroma_mean", Width: NChromaBins},
	{Name: "mel_mean", Width: 20},
	{Name: "tempo_mean", Width: 20},
	{Name: "pitch_mean", Width: 1},
	{Name: "pitch_std", Width: 1},
	{Name: "formant_mean", Width: NFormants},
	{Name: "pause_summary", Width: 1},
}

// FingerprintDim суммарная размерность отпечатка по схеме
func FingerprintDim() int {
	dim := 0
	for _, sv := range FingerprintSchema {
		dim += sv.Width
	}
	return dim
}

// ValidateFingerprint проверяет, что вектор соответствует схеме
func ValidateFingerprint(v []float64) error {
	if want := FingerprintDim(); len(v) != want {
		return fmt.Errorf("fingerprint dimension mismatch: got %d, schema v%d requires %d",
			len(v), SchemaVersion, want)
	}
	return nil
}
