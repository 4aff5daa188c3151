package match

// CompareSegments сравнивает сегменты-аяты двух записей
// Запись с большим числом сегментов считается эталоном; для каждого сегмента
// запроса по порядку жадно выбирается ещё не занятый эталонный сегмент
// с максимальной косинусной близостью (first-come-first-served, НЕ глобально
// оптимальное паросочетание)
// Возвращает среднюю близость по сопоставленным сегментам; 0 если сегментов
// нет хотя бы с одной стороны
func CompareSegments(segments1, segments2 [][]float64) float64 {
	if len(segments1) == 0 || len(segments2) == 0 {
		return 0
	}

	reference, query := segments1, segments2
	if len(segments2) > len(segments1) {
		reference, query = segments2, segments1
	}

	// Матрица близостей эталон x запрос
	simMatrix := make([][]float64, len(reference))
	for i, ref := range reference {
		simMatrix[i] = make([]float64, len(query))
		for j, q := range query {
			simMatrix[i][j] = CosineSimilarity(ref, q)
		}
	}

	used := make(map[int]bool)
	var total float64
	matched := 0

	for j := range query {
		bestSim := -1.0
		bestIdx := -1
		for i := range reference {
			if !used[i] && simMatrix[i][j] > bestSim {
				bestSim = simMatrix[i][j]
				bestIdx = i
			}
		}
		if bestIdx >= 0 {
			used[bestIdx] = true
			total += bestSim
			matched++
		}
	}

	if matched == 0 {
		return 0
	}
	return total / float64(matched)
}
