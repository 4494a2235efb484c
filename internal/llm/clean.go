package llm

import (
	"fmt"
	"strings"
)

// CleanResponse удаляет markdown форматирование из ответа модели
func CleanResponse(response string) string {
	response = strings.ReplaceAll(response, "```json", "")
	response = strings.ReplaceAll(response, "```", "")
	return strings.TrimSpace(response)
}

// ExtractJSONObject находит первый JSON объект верхнего уровня в свободном
// тексте модели: от первой '{' до последней '}'. Любая другая форма ответа -
// ошибка, по которой вызывающий код обязан уйти в детерминированный фолбэк.
func ExtractJSONObject(response string) (string, error) {
	cleaned := CleanResponse(response)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("в ответе модели нет JSON объекта")
	}

	return cleaned[start : end+1], nil
}
