package coach

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"interview-practice-server/internal/llm"
	"interview-practice-server/internal/prompts"
)

// Service отвечает на вопросы кандидата о подготовке к интервью
type Service struct {
	llmClient *llm.Client
}

// New создает сервис подготовки. Nil-клиент означает работу
// только на детерминированных ответах.
func New(llmClient *llm.Client) *Service {
	return &Service{llmClient: llmClient}
}

// Reply возвращает совет по сообщению кандидата.
// Никогда не возвращает ошибку: при недоступности модели
// отдается детерминированная подсказка.
func (s *Service) Reply(ctx context.Context, message string) string {
	if s.llmClient != nil {
		response, err := s.llmClient.GenerateWithRetry(ctx, "", prompts.Coach(message))
		if err == nil {
			reply := strings.TrimSpace(llm.CleanResponse(response))
			if reply != "" {
				return reply
			}
		} else {
			slog.Warn("Коуч-ответ через Gemini не удался, используется фолбэк", "error", err)
		}
	}
	return fallbackReply(message)
}

func fallbackReply(message string) string {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return "Could you share more details about your question?"
	}
	return fmt.Sprintf("Here's some guidance for: %q\n\n- Clarify requirements\n- Provide a concrete example\n- Explain trade-offs", trimmed)
}
