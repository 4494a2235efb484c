package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load загружает конфигурацию интервью из YAML файла
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла %s: %w", filename, err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга YAML: %w", err)
	}

	// Валидация конфигурации
	err = validateConfig(&config)
	if err != nil {
		return nil, fmt.Errorf("ошибка валидации конфигурации: %w", err)
	}

	return &config, nil
}

// validateConfig проверяет корректность конфигурации.
// Запасной список вопросов проверяется на ту же форму, которую обязан
// иметь результат генерации: точное количество и распределение по уровням.
func validateConfig(config *Config) error {
	if config.InterviewConfig.RoleProfile == "" {
		return fmt.Errorf("role_profile не может быть пустым")
	}

	if len(config.InterviewConfig.Tiers) == 0 {
		return fmt.Errorf("tiers не могут быть пустыми")
	}

	for _, tier := range config.InterviewConfig.Tiers {
		if tier.Difficulty == "" {
			return fmt.Errorf("уровень сложности должен иметь difficulty")
		}
		if tier.Count <= 0 {
			return fmt.Errorf("уровень %s: count должно быть больше 0", tier.Difficulty)
		}
		if tier.Seconds <= 0 {
			return fmt.Errorf("уровень %s: seconds должно быть больше 0", tier.Difficulty)
		}
	}

	if err := validateFallbackQuestions(config); err != nil {
		return err
	}

	// Эвристики: каждая ссылается на существующий уровень
	for _, h := range config.Heuristics {
		if _, ok := config.TierFor(h.Difficulty); !ok {
			return fmt.Errorf("эвристика для неизвестного уровня %q", h.Difficulty)
		}
	}

	return validateFeedbackBands(config.FeedbackBands)
}

func validateFallbackQuestions(config *Config) error {
	if len(config.FallbackQuestions) != config.TotalQuestions() {
		return fmt.Errorf("количество запасных вопросов (%d) не соответствует плану интервью (%d)",
			len(config.FallbackQuestions), config.TotalQuestions())
	}

	seen := make(map[string]bool)
	perTier := make(map[string]int)
	for i, q := range config.FallbackQuestions {
		if q.ID == "" {
			return fmt.Errorf("запасной вопрос %d должен иметь id", i)
		}
		if seen[q.ID] {
			return fmt.Errorf("запасной вопрос с повторяющимся id %q", q.ID)
		}
		seen[q.ID] = true

		if strings.TrimSpace(q.Prompt) == "" {
			return fmt.Errorf("запасной вопрос %s должен иметь prompt", q.ID)
		}

		tier, ok := config.TierFor(q.Difficulty)
		if !ok {
			return fmt.Errorf("запасной вопрос %s: неизвестный уровень %q", q.ID, q.Difficulty)
		}
		if q.Seconds != tier.Seconds {
			return fmt.Errorf("запасной вопрос %s: seconds %d не соответствует уровню %s (%d)",
				q.ID, q.Seconds, q.Difficulty, tier.Seconds)
		}
		perTier[q.Difficulty]++
	}

	for _, tier := range config.InterviewConfig.Tiers {
		if perTier[tier.Difficulty] != tier.Count {
			return fmt.Errorf("запасных вопросов уровня %s: %d, ожидалось %d",
				tier.Difficulty, perTier[tier.Difficulty], tier.Count)
		}
	}

	return nil
}

func validateFeedbackBands(bands []FeedbackBand) error {
	if len(bands) == 0 {
		return fmt.Errorf("feedback_bands не могут быть пустыми")
	}

	// Полосы идут по убыванию min_score, последняя покрывает минимальные оценки
	for i, band := range bands {
		if strings.TrimSpace(band.Message) == "" {
			return fmt.Errorf("полоса фидбека %d должна иметь message", i)
		}
		if !strings.Contains(band.Message, "%d") {
			return fmt.Errorf("полоса фидбека %d: message должен содержать %%d", i)
		}
		if i > 0 && band.MinScore >= bands[i-1].MinScore {
			return fmt.Errorf("полосы фидбека должны идти по убыванию min_score (полоса %d)", i)
		}
	}

	if bands[len(bands)-1].MinScore > 1 {
		return fmt.Errorf("последняя полоса фидбека должна покрывать минимальные оценки")
	}

	return nil
}
