package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"interview-practice-server/internal/config"
	"interview-practice-server/internal/metrics"
)

// Client представляет обертку над Gemini API
type Client struct {
	client  *genai.Client
	cfg     config.GeminiConfig
	metrics *metrics.Metrics
}

// SetMetrics подключает сборщик метрик к клиенту
func (l *Client) SetMetrics(m *metrics.Metrics) {
	l.metrics = m
}

// New создает новый Gemini клиент
func New(ctx context.Context, cfg config.GeminiConfig) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Gemini клиента: %w", err)
	}

	return &Client{
		client: client,
		cfg:    cfg,
	}, nil
}

func (l *Client) Close() {
	if l.client != nil {
		l.client.Close()
	}
}

// Generate выполняет один запрос к модели
func (l *Client) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, l.cfg.Timeout)
	defer cancel()

	model := l.client.GenerativeModel(l.cfg.Model)
	model.SetTemperature(float32(l.cfg.Temperature))

	if systemPrompt != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(systemPrompt)},
		}
	}

	if l.metrics != nil {
		l.metrics.IncLLMCall()
	}

	resp, err := model.GenerateContent(ctx, genai.Text(userPrompt))
	if err != nil {
		if l.metrics != nil {
			l.metrics.IncLLMError()
		}
		return "", fmt.Errorf("ошибка вызова Gemini: %w", err)
	}

	if resp.UsageMetadata != nil {
		slog.Debug("Gemini API call",
			"input_tokens", resp.UsageMetadata.PromptTokenCount,
			"output_tokens", resp.UsageMetadata.CandidatesTokenCount)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("пустой ответ от Gemini")
	}

	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", fmt.Errorf("неожиданный формат ответа от Gemini")
	}

	return string(text), nil
}

// GenerateWithRetry повторяет временные сбои с экспоненциальной задержкой
// (база 2s, удвоение). Ожидание не блокирует: отмена контекста прерывает его.
func (l *Client) GenerateWithRetry(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	delay := l.cfg.RetryBase

	var lastErr error
	for attempt := 1; attempt <= l.cfg.MaxAttempts; attempt++ {
		response, err := l.Generate(ctx, systemPrompt, userPrompt)
		if err == nil {
			return response, nil
		}
		lastErr = err

		if !isTransient(err) {
			return "", err
		}

		if attempt == l.cfg.MaxAttempts {
			break
		}

		slog.Warn("временный сбой Gemini, повтор",
			"attempt", attempt, "delay", delay.String(), "err", err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
		delay *= 2
	}

	return "", fmt.Errorf("Gemini недоступен после %d попыток: %w", l.cfg.MaxAttempts, lastErr)
}

// isTransient распознает сбои, которые имеет смысл повторять:
// лимит запросов и недоступность сервиса
func isTransient(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 429, 500, 502, 503:
			return true
		}
		return false
	}
	return errors.Is(err, context.DeadlineExceeded)
}
