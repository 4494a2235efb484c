package config

import (
	"fmt"
	"time"
)

// GeminiConfig содержит настройки обращений к Gemini API.
// Ядро сервера никогда не читает переменные окружения напрямую -
// конфигурация собирается здесь и внедряется в клиент при создании.
type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
	MaxAttempts int
	RetryBase   time.Duration
}

// ValidateConfig проверяет корректность конфигурации
func (c *GeminiConfig) ValidateConfig() error {
	if c.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}

	if c.Model == "" {
		return fmt.Errorf("GEMINI_MODEL must not be empty")
	}

	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("GEMINI_TEMPERATURE must be between 0 and 2")
	}

	if c.MaxAttempts <= 0 {
		return fmt.Errorf("GEMINI_MAX_ATTEMPTS must be positive")
	}

	return nil
}

// Configured сообщает, задан ли API ключ (для health-эндпоинта)
func (c *GeminiConfig) Configured() bool {
	return c.APIKey != ""
}
