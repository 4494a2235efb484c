package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"interview-practice-server/internal/domain"
	"interview-practice-server/internal/evaluator"
	"interview-practice-server/internal/metrics"
	"interview-practice-server/internal/questions"
)

var (
	ErrNoCandidate    = errors.New("кандидат не привязан к сессии")
	ErrNotInProgress  = errors.New("интервью не запущено")
	ErrAlreadyRunning = errors.New("интервью уже запущено")
	ErrNoQuestion     = errors.New("нет текущего вопроса")
)

// Engine управляет одной сессией интервью: сериализует события,
// ведет таймер текущего вопроса и запускает асинхронную оценку ответов.
// Все публичные методы безопасны для конкурентного вызова.
type Engine struct {
	mu    sync.Mutex
	id    string
	state State

	// epoch растет при каждом start/reset; продолжения в полете
	// (оценки, завершение) сверяют его и молча выходят, если устарели
	epoch uint64

	draft        string
	timerCancel  chan struct{}
	tickInterval time.Duration
	pendingEvals sync.WaitGroup
	lastActivity time.Time

	subs       []func(State)
	onComplete func(State)

	questions *questions.Service
	evaluator *evaluator.Service
	metrics   *metrics.Metrics
}

// NewEngine создает движок сессии с начальным состоянием
func NewEngine(id string, qs *questions.Service, ev *evaluator.Service, m *metrics.Metrics, onComplete func(State)) *Engine {
	return &Engine{
		id:           id,
		state:        InitialState(),
		tickInterval: time.Second,
		lastActivity: time.Now(),
		onComplete:   onComplete,
		questions:    qs,
		evaluator:    ev,
		metrics:      m,
	}
}

// ID возвращает идентификатор сессии
func (e *Engine) ID() string {
	return e.id
}

// Snapshot возвращает текущий снимок состояния
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// LastActivity возвращает время последнего обращения к сессии
func (e *Engine) LastActivity() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastActivity
}

// Subscribe регистрирует наблюдателя, получающего каждый новый снимок.
// Наблюдатели вызываются вне блокировки движка.
func (e *Engine) Subscribe(fn func(State)) {
	e.mu.Lock()
	e.subs = append(e.subs, fn)
	e.mu.Unlock()
}

func (e *Engine) notify(snapshot State) {
	e.mu.Lock()
	subs := append([]func(State){}, e.subs...)
	e.mu.Unlock()
	for _, fn := range subs {
		fn(snapshot)
	}
}

func (e *Engine) touchLocked() {
	e.lastActivity = time.Now()
}

// StartCandidate привязывает кандидата и переводит сессию в сбор контактов
func (e *Engine) StartCandidate(c domain.Candidate) State {
	e.mu.Lock()
	e.touchLocked()
	e.state = Reduce(e.state, EventStartCandidate{Candidate: c})
	snapshot := e.state
	e.mu.Unlock()
	e.notify(snapshot)
	return snapshot
}

// CollectInfo вливает уточненные контакты кандидата
func (e *Engine) CollectInfo(name, email, phone string) State {
	e.mu.Lock()
	e.touchLocked()
	e.state = Reduce(e.state, EventCollectInfo{Name: name, Email: email, Phone: phone})
	snapshot := e.state
	e.mu.Unlock()
	e.notify(snapshot)
	return snapshot
}

// StartInterview генерирует вопросы и запускает интервью.
// Генерация идет вне блокировки: сессию могли сбросить за это время,
// тогда запуск отбрасывается.
func (e *Engine) StartInterview(ctx context.Context) (State, error) {
	e.mu.Lock()
	if e.state.Candidate == nil {
		e.mu.Unlock()
		return State{}, ErrNoCandidate
	}
	if e.state.Status == StatusInProgress {
		e.mu.Unlock()
		return State{}, ErrAlreadyRunning
	}
	candidate := *e.state.Candidate
	epochBefore := e.epoch
	e.mu.Unlock()

	qs := e.questions.Generate(ctx)

	e.mu.Lock()
	if e.epoch != epochBefore || e.state.Status == StatusInProgress {
		e.mu.Unlock()
		return State{}, fmt.Errorf("сессия изменилась во время генерации вопросов")
	}
	e.touchLocked()
	e.epoch++
	e.stopTimerLocked()
	e.draft = ""
	e.state = Reduce(e.state, EventStart{
		Candidate: candidate,
		Questions: qs,
		StartedAt: time.Now().UnixMilli(),
	})
	e.state = Reduce(e.state, EventTimerTick{Remaining: qs[0].Seconds})
	e.startTimerLocked()
	if e.metrics != nil {
		e.metrics.IncInterviewStarted()
	}
	snapshot := e.state
	e.mu.Unlock()

	slog.Info("Интервью запущено", "session", e.id, "candidate", candidate.Name, "questions", len(qs))
	e.notify(snapshot)
	return snapshot, nil
}

// StageDraft сохраняет черновик ответа на текущий вопрос.
// При истечении таймера черновик отправляется как автоответ.
func (e *Engine) StageDraft(text string) {
	e.mu.Lock()
	if e.state.Status == StatusInProgress {
		e.draft = text
		e.touchLocked()
	}
	e.mu.Unlock()
}

// SubmitAnswer фиксирует ручной ответ на текущий вопрос
func (e *Engine) SubmitAnswer(content string) (State, error) {
	e.mu.Lock()
	e.touchLocked()
	err := e.submitLocked(content, false)
	snapshot := e.state
	e.mu.Unlock()
	if err != nil {
		return State{}, err
	}
	e.notify(snapshot)
	return snapshot, nil
}

// submitLocked выполняет отправку ответа. Вызывается под блокировкой.
func (e *Engine) submitLocked(content string, auto bool) error {
	if e.state.Status != StatusInProgress {
		return ErrNotInProgress
	}
	q, ok := e.state.CurrentQuestion()
	if !ok {
		return ErrNoQuestion
	}
	e.stopTimerLocked()
	e.draft = ""
	e.state = Reduce(e.state, EventSubmitAnswer{
		QuestionID:    q.ID,
		Content:       content,
		AutoSubmitted: auto,
		SubmittedAt:   time.Now().UnixMilli(),
	})
	if e.metrics != nil {
		e.metrics.IncAnswerSubmitted(auto)
	}

	epoch := e.epoch
	e.pendingEvals.Add(1)
	go e.evaluate(q, content, epoch)

	if e.state.CurrentIndex >= len(e.state.Questions) {
		// Последний ответ: дождаться всех оценок и завершить
		go e.finish(epoch)
	} else {
		next := e.state.Questions[e.state.CurrentIndex]
		e.state = Reduce(e.state, EventTimerTick{Remaining: next.Seconds})
		e.startTimerLocked()
	}
	return nil
}

// evaluate оценивает ответ и прикрепляет результат к состоянию.
// Оценка никогда не падает: у оценщика есть детерминированный фолбэк.
func (e *Engine) evaluate(q domain.Question, content string, epoch uint64) {
	defer e.pendingEvals.Done()
	result := e.evaluator.Evaluate(context.Background(), q, content)

	e.mu.Lock()
	if e.epoch != epoch {
		e.mu.Unlock()
		return
	}
	e.state = Reduce(e.state, EventAttachScore{
		QuestionID: q.ID,
		Score:      result.Score,
		Feedback:   result.Feedback,
	})
	snapshot := e.state
	e.mu.Unlock()
	e.notify(snapshot)
}

// finish дожидается всех оценок и завершает интервью с саммари.
// Ожидание ограничено: каждая оценка имеет таймаут и фолбэк.
func (e *Engine) finish(epoch uint64) {
	e.pendingEvals.Wait()

	e.mu.Lock()
	if e.epoch != epoch || e.state.Status != StatusInProgress {
		e.mu.Unlock()
		return
	}
	summary := buildSummary(e.state)
	e.state = Reduce(e.state, EventComplete{
		Summary:     summary,
		CompletedAt: time.Now().UnixMilli(),
	})
	if e.metrics != nil {
		e.metrics.IncInterviewCompleted()
	}
	snapshot := e.state
	onComplete := e.onComplete
	e.mu.Unlock()

	slog.Info("Интервью завершено", "session", e.id, "totalScore", summary.TotalScore)
	e.notify(snapshot)
	if onComplete != nil {
		onComplete(snapshot)
	}
}

// Pause замораживает таймер. Повторная пауза — no-op.
func (e *Engine) Pause() State {
	e.mu.Lock()
	e.touchLocked()
	if e.state.Status != StatusInProgress || e.state.Paused {
		snapshot := e.state
		e.mu.Unlock()
		return snapshot
	}
	e.state = Reduce(e.state, EventPause{At: time.Now().UnixMilli()})
	e.stopTimerLocked()
	snapshot := e.state
	e.mu.Unlock()
	e.notify(snapshot)
	return snapshot
}

// Resume снимает паузу и продолжает отсчет с замороженного остатка
func (e *Engine) Resume() State {
	e.mu.Lock()
	e.touchLocked()
	if e.state.Status != StatusInProgress || !e.state.Paused {
		snapshot := e.state
		e.mu.Unlock()
		return snapshot
	}
	e.state = Reduce(e.state, EventResume{})
	if e.state.TimeRemaining != nil && *e.state.TimeRemaining > 0 {
		e.startTimerLocked()
	}
	snapshot := e.state
	e.mu.Unlock()
	e.notify(snapshot)
	return snapshot
}

// Reset возвращает сессию в начальное состояние.
// Все продолжения в полете после этого отбрасываются.
func (e *Engine) Reset() State {
	e.mu.Lock()
	e.touchLocked()
	e.epoch++
	e.stopTimerLocked()
	e.draft = ""
	e.state = Reduce(e.state, EventReset{})
	snapshot := e.state
	e.mu.Unlock()
	e.notify(snapshot)
	return snapshot
}

// Restore загружает ранее сохраненное состояние.
// Незавершенное интервью восстанавливается на паузе: таймер при
// перезапуске сервера не переживает рестарт. Снимок, сохраненный
// между последним ответом и завершением, доводится до завершения
// сразу — возобновлять в нем нечего.
func (e *Engine) Restore(s State) {
	e.mu.Lock()
	e.epoch++
	e.stopTimerLocked()
	e.draft = ""
	if s.Status == StatusInProgress && !s.Paused {
		s.Paused = true
	}
	e.state = s
	epoch := e.epoch
	finishNow := s.Status == StatusInProgress &&
		len(s.Questions) > 0 && s.CurrentIndex >= len(s.Questions)
	e.mu.Unlock()

	if finishNow {
		go e.finish(epoch)
	}
}

// Stop останавливает таймер сессии без изменения состояния
func (e *Engine) Stop() {
	e.mu.Lock()
	e.stopTimerLocked()
	e.mu.Unlock()
}

// startTimerLocked запускает таймер текущего вопроса.
// У сессии всегда не больше одного таймера.
func (e *Engine) startTimerLocked() {
	if e.timerCancel != nil {
		return
	}
	cancel := make(chan struct{})
	e.timerCancel = cancel
	go e.runTimer(cancel)
}

func (e *Engine) stopTimerLocked() {
	if e.timerCancel != nil {
		close(e.timerCancel)
		e.timerCancel = nil
	}
}

func (e *Engine) runTimer(cancel chan struct{}) {
	ticker := time.NewTicker(e.tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-cancel:
			return
		case <-ticker.C:
			if !e.tick() {
				return
			}
		}
	}
}

// tick уменьшает остаток на секунду; при нуле автоотправляет
// черновик или текст-заглушку. Возвращает false, когда таймер
// больше не нужен.
func (e *Engine) tick() bool {
	e.mu.Lock()
	if e.state.Status != StatusInProgress || e.state.Paused || e.state.TimeRemaining == nil {
		e.mu.Unlock()
		return false
	}
	remaining := *e.state.TimeRemaining - 1
	if remaining < 0 {
		remaining = 0
	}
	e.state = Reduce(e.state, EventTimerTick{Remaining: remaining})

	autoSubmitted := false
	if remaining == 0 {
		content := e.draft
		if strings.TrimSpace(content) == "" {
			content = AutoAnswerPlaceholder
		}
		if err := e.submitLocked(content, true); err != nil {
			slog.Warn("Автоотправка не удалась", "session", e.id, "error", err)
		}
		autoSubmitted = true
	}
	snapshot := e.state
	e.mu.Unlock()
	e.notify(snapshot)
	return !autoSubmitted
}

// buildSummary собирает итоговое саммари по порядку вопросов.
// Ответ без оценки учитывается как 0.
func buildSummary(s State) domain.InterviewSummary {
	perQuestion := make([]domain.PerQuestionResult, 0, len(s.Questions))
	total := 0
	for _, q := range s.Questions {
		row := domain.PerQuestionResult{QuestionID: q.ID}
		for _, a := range s.Answers {
			if a.QuestionID == q.ID {
				row.Score = a.Score
				row.Feedback = a.Feedback
				break
			}
		}
		total += domain.ScoreValue(row.Score)
		perQuestion = append(perQuestion, row)
	}
	return domain.InterviewSummary{
		TotalScore:  total,
		PerQuestion: perQuestion,
		Notes: fmt.Sprintf("Answered %d of %d questions. Total score %d out of %d.",
			len(s.Answers), len(s.Questions), total, len(s.Questions)*10),
	}
}
