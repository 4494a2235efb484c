package session

import (
	"interview-practice-server/internal/domain"
)

// Status представляет статус сессии интервью
type Status string

const (
	StatusNotStarted     Status = "not_started"
	StatusCollectingInfo Status = "collecting_info"
	StatusInProgress     Status = "in_progress"
	StatusCompleted      Status = "completed"
)

// Текст автоответа, когда таймер истек, а черновика нет
const AutoAnswerPlaceholder = "No answer provided (time expired)"

// State представляет полное состояние одной сессии интервью.
// Меняется только через Reduce; снаружи читается как снимок.
type State struct {
	Candidate     *domain.Candidate        `json:"candidate,omitempty"`
	Questions     []domain.Question        `json:"questions"`
	Answers       []domain.Answer          `json:"answers"`
	CurrentIndex  int                      `json:"currentIndex"`
	Status        Status                   `json:"status"`
	TimeRemaining *int                     `json:"timeRemaining,omitempty"`
	Paused        bool                     `json:"paused"`
	LastTickAt    int64                    `json:"lastTickAt,omitempty"`
	StartedAt     int64                    `json:"startedAt,omitempty"`
	CompletedAt   int64                    `json:"completedAt,omitempty"`
	Summary       *domain.InterviewSummary `json:"summary,omitempty"`
}

// InitialState возвращает документированное начальное состояние сессии
func InitialState() State {
	return State{
		Questions:    []domain.Question{},
		Answers:      []domain.Answer{},
		CurrentIndex: 0,
		Status:       StatusNotStarted,
		Paused:       false,
	}
}

// CurrentQuestion возвращает текущий вопрос, если он есть
func (s State) CurrentQuestion() (domain.Question, bool) {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Questions) {
		return domain.Question{}, false
	}
	return s.Questions[s.CurrentIndex], true
}

// Event представляет одно событие перехода состояния
type Event interface {
	eventName() string
}

// EventStartCandidate привязывает кандидата и открывает сбор контактов
type EventStartCandidate struct {
	Candidate domain.Candidate
}

// EventCollectInfo вливает непустые поля в кандидата во время сбора контактов
type EventCollectInfo struct {
	Name  string
	Email string
	Phone string
}

// EventStart запускает интервью с готовым списком вопросов
type EventStart struct {
	Candidate domain.Candidate
	Questions []domain.Question
	StartedAt int64
}

// EventTimerTick обновляет остаток времени текущего вопроса
type EventTimerTick struct {
	Remaining int
}

// EventSubmitAnswer фиксирует ответ на вопрос (ручной или автоотправленный)
type EventSubmitAnswer struct {
	QuestionID    string
	Content       string
	AutoSubmitted bool
	SubmittedAt   int64
}

// EventAttachScore прикрепляет оценку к уже записанному ответу
type EventAttachScore struct {
	QuestionID string
	Score      int
	Feedback   string
}

// EventPause замораживает таймер
type EventPause struct {
	At int64
}

// EventResume снимает паузу
type EventResume struct{}

// EventComplete завершает интервью с готовым саммари
type EventComplete struct {
	Summary     domain.InterviewSummary
	CompletedAt int64
}

// EventReset возвращает сессию в начальное состояние
type EventReset struct{}

// EventUpdateStatus напрямую меняет статус сессии
type EventUpdateStatus struct {
	Status Status
}

func (EventStartCandidate) eventName() string { return "start_candidate" }
func (EventCollectInfo) eventName() string    { return "collect_info" }
func (EventStart) eventName() string          { return "start" }
func (EventTimerTick) eventName() string      { return "timer_tick" }
func (EventSubmitAnswer) eventName() string   { return "submit_answer" }
func (EventAttachScore) eventName() string    { return "attach_score" }
func (EventPause) eventName() string          { return "pause" }
func (EventResume) eventName() string         { return "resume" }
func (EventComplete) eventName() string       { return "complete" }
func (EventReset) eventName() string          { return "reset" }
func (EventUpdateStatus) eventName() string   { return "update_status" }
