package questions

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"interview-practice-server/internal/config"
	"interview-practice-server/internal/domain"
	"interview-practice-server/internal/llm"
	"interview-practice-server/internal/prompts"
)

// Service представляет источник вопросов интервью.
// Generate всегда возвращает список ровно той формы, что задана планом
// в конфигурации - независимо от того, какой путь его произвел.
type Service struct {
	llmClient *llm.Client
	cfg       *config.Config
}

// New создает новый источник вопросов.
// llmClient может быть nil - тогда всегда отдается запасной список.
func New(llmClient *llm.Client, cfg *config.Config) *Service {
	return &Service{
		llmClient: llmClient,
		cfg:       cfg,
	}
}

// Generate пытается сгенерировать вопросы через Gemini и детерминированно
// откатывается на запасной список при любом сбое или нарушении формы
func (s *Service) Generate(ctx context.Context) []domain.Question {
	if s.llmClient == nil {
		return s.Fallback()
	}

	generated, err := s.generateRemote(ctx)
	if err != nil {
		slog.Warn("генерация вопросов не удалась, запасной список", "err", err)
		return s.Fallback()
	}

	return generated
}

// Fallback возвращает запасной список вопросов из конфигурации.
// Его форма проверена при загрузке конфигурации.
func (s *Service) Fallback() []domain.Question {
	questions := make([]domain.Question, 0, len(s.cfg.FallbackQuestions))
	for _, q := range s.cfg.FallbackQuestions {
		questions = append(questions, domain.Question{
			ID:         q.ID,
			Difficulty: domain.Difficulty(q.Difficulty),
			Prompt:     q.Prompt,
			Seconds:    q.Seconds,
		})
	}
	return questions
}

func (s *Service) generateRemote(ctx context.Context) ([]domain.Question, error) {
	response, err := s.llmClient.GenerateWithRetry(ctx, "", prompts.QuestionGeneration(s.cfg))
	if err != nil {
		return nil, err
	}

	jsonStr, err := llm.ExtractJSONObject(response)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Questions []domain.Question `json:"questions"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		return nil, fmt.Errorf("ошибка парсинга JSON вопросов: %w", err)
	}

	if err := s.validateShape(parsed.Questions); err != nil {
		return nil, err
	}

	return parsed.Questions, nil
}

// validateShape строго сверяет сгенерированный список с планом интервью:
// точное количество, распределение по уровням, бюджеты времени,
// уникальные id и непустые формулировки
func (s *Service) validateShape(questions []domain.Question) error {
	if len(questions) != s.cfg.TotalQuestions() {
		return fmt.Errorf("получено %d вопросов, ожидалось %d", len(questions), s.cfg.TotalQuestions())
	}

	seen := make(map[string]bool)
	perTier := make(map[string]int)
	for _, q := range questions {
		if q.ID == "" || seen[q.ID] {
			return fmt.Errorf("вопрос с пустым или повторяющимся id %q", q.ID)
		}
		seen[q.ID] = true

		if strings.TrimSpace(q.Prompt) == "" {
			return fmt.Errorf("вопрос %s с пустой формулировкой", q.ID)
		}

		tier, ok := s.cfg.TierFor(string(q.Difficulty))
		if !ok {
			return fmt.Errorf("вопрос %s: неизвестный уровень %q", q.ID, q.Difficulty)
		}
		if q.Seconds != tier.Seconds {
			return fmt.Errorf("вопрос %s: бюджет %d не соответствует уровню %s (%d)",
				q.ID, q.Seconds, q.Difficulty, tier.Seconds)
		}
		perTier[string(q.Difficulty)]++
	}

	for _, tier := range s.cfg.InterviewConfig.Tiers {
		if perTier[tier.Difficulty] != tier.Count {
			return fmt.Errorf("вопросов уровня %s: %d, ожидалось %d",
				tier.Difficulty, perTier[tier.Difficulty], tier.Count)
		}
	}

	return nil
}
