package domain

// Difficulty представляет уровень сложности вопроса
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Question представляет один вопрос интервью.
// Неизменяем после генерации в рамках сессии.
type Question struct {
	ID         string     `json:"id"`
	Difficulty Difficulty `json:"difficulty"`
	Prompt     string     `json:"prompt"`
	Seconds    int        `json:"seconds"`
}

// Answer представляет ответ на один вопрос. Создается в момент отправки;
// оценка и фидбек прикрепляются асинхронно после проверки.
type Answer struct {
	QuestionID    string `json:"questionId"`
	Content       string `json:"content"`
	SubmittedAt   int64  `json:"submittedAt"`
	AutoSubmitted bool   `json:"autoSubmitted"`
	Score         *int   `json:"score,omitempty"`
	Feedback      string `json:"feedback,omitempty"`
}

// CandidateStatus представляет статус кандидата в реестре
type CandidateStatus string

const (
	CandidateNotStarted CandidateStatus = "not_started"
	CandidateInProgress CandidateStatus = "in_progress"
	CandidateCompleted  CandidateStatus = "completed"
)

// Candidate представляет кандидата. Контактные поля могут содержать
// заглушки, если извлечение из резюме не дало результата.
type Candidate struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Email            string            `json:"email"`
	Phone            string            `json:"phone"`
	Score            int               `json:"score"`
	Status           CandidateStatus   `json:"status"`
	InterviewSummary *InterviewSummary `json:"interviewSummary,omitempty"`
	Answers          []Answer          `json:"answers,omitempty"`
}

// PerQuestionResult представляет оценку одного вопроса в итоговом саммари
type PerQuestionResult struct {
	QuestionID string `json:"questionId"`
	Score      *int   `json:"score,omitempty"`
	Feedback   string `json:"feedback,omitempty"`
}

// InterviewSummary представляет итог интервью. Создается один раз
// при завершении и после этого не меняется.
type InterviewSummary struct {
	TotalScore  int                 `json:"totalScore"`
	PerQuestion []PerQuestionResult `json:"perQuestion"`
	Notes       string              `json:"notes"`
}

// ScoreOf возвращает оценку ответа, отсутствующая считается нулем
func (a Answer) ScoreOf() int {
	return ScoreValue(a.Score)
}

// ScoreValue разыменовывает оценку, nil считается нулем
func ScoreValue(score *int) int {
	if score == nil {
		return 0
	}
	return *score
}
