package evaluator

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

const defaultFeedback = "Good attempt. Consider providing more technical detail."

// Result представляет итог проверки одного ответа
type Result struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// Service представляет сервис проверки ответов
type Service struct {
	llmClient *llm.Client
	cfg       *config.Config
}

// New создает новый сервис проверки.
// llmClient может быть nil - тогда работает только локальная эвристика.
func New(llmClient *llm.Client, cfg *config.Config) *Service {
	return &Service{
		llmClient: llmClient,
		cfg:       cfg,
	}
}

// Evaluate проверяет ответ через Gemini и при любом сбое откатывается
// на детерминированную эвристику. Никогда не возвращает ошибку.
func (s *Service) Evaluate(ctx context.Context, question domain.Question, answer string) Result {
	if s.llmClient == nil {
		return s.Heuristic(question, answer)
	}

	result, err := s.evaluateRemote(ctx, question, answer)
	if err != nil {
		slog.Warn("проверка ответа не удалась, локальная эвристика",
			"question", question.ID, "err", err)
		return s.Heuristic(question, answer)
	}

	return result
}

func (s *Service) evaluateRemote(ctx context.Context, question domain.Question, answer string) (Result, error) {
	response, err := s.llmClient.GenerateWithRetry(ctx, "", prompts.Evaluation(question, answer))
	if err != nil {
		return Result{}, err
	}

	jsonStr, err := llm.ExtractJSONObject(response)
	if err != nil {
		return Result{}, err
	}

	var parsed struct {
		Score    *int   `json:"score"`
		Feedback string `json:"feedback"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		return Result{}, fmt.Errorf("ошибка парсинга JSON оценки: %w", err)
	}

	score := 5
	if parsed.Score != nil {
		score = clamp(*parsed.Score)
	}

	feedback := strings.TrimSpace(parsed.Feedback)
	if feedback == "" {
		feedback = defaultFeedback
	}

	return Result{Score: score, Feedback: feedback}, nil
}

// Heuristic вычисляет оценку локально, без сети и побочных эффектов.
// Детерминированность обязательна: автоотправка по таймеру не имеет права
// виснуть на повторах удаленного вызова.
func (s *Service) Heuristic(question domain.Question, answer string) Result {
	score := clamp(len(answer) / 20)

	if tier, ok := s.cfg.HeuristicFor(string(question.Difficulty)); ok {
		if len(answer) > tier.LengthOver {
			score = clamp(score + tier.LengthBonus)
		}

		lower := strings.ToLower(answer)
		for _, group := range tier.Keywords {
			for _, word := range group.Words {
				if strings.Contains(lower, word) {
					score = clamp(score + group.Bonus)
					break
				}
			}
		}
	}

	return Result{
		Score:    score,
		Feedback: s.FeedbackFor(score),
	}
}

// FeedbackFor выбирает формулировку из таблицы полос оценок
func (s *Service) FeedbackFor(score int) string {
	for _, band := range s.cfg.FeedbackBands {
		if score >= band.MinScore {
			return fmt.Sprintf(band.Message, score)
		}
	}
	return defaultFeedback
}

func clamp(score int) int {
	if score < 1 {
		return 1
	}
	if score > 10 {
		return 10
	}
	return score
}
