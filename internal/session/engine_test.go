package session

import (
	"context"
	"testing"
	"time"

	"interview-practice-server/internal/config"
	"interview-practice-server/internal/evaluator"
	"interview-practice-server/internal/questions"
)

// Конфигурация с короткими бюджетами, чтобы таймеры в тестах
// истекали за десятки миллисекунд
func engineTestConfig() *config.Config {
	return &config.Config{
		InterviewConfig: config.InterviewConfig{
			RoleProfile: "full-stack developer",
			Tiers: []config.TierSpec{
				{Difficulty: "easy", Count: 2, Seconds: 2},
			},
		},
		FallbackQuestions: []config.QuestionSpec{
			{ID: "easy-1", Difficulty: "easy", Prompt: "Q1", Seconds: 2},
			{ID: "easy-2", Difficulty: "easy", Prompt: "Q2", Seconds: 2},
		},
		FeedbackBands: []config.FeedbackBand{
			{MinScore: 1, Message: "Score %d/10."},
		},
	}
}

func newTestEngine(t *testing.T, onComplete func(State)) *Engine {
	t.Helper()
	cfg := engineTestConfig()
	eng := NewEngine("test-session", questions.New(nil, cfg), evaluator.New(nil, cfg), nil, onComplete)
	eng.tickInterval = 20 * time.Millisecond
	t.Cleanup(eng.Stop)
	return eng
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not reached within %s", timeout)
}

func TestEngineStartRequiresCandidate(t *testing.T) {
	eng := newTestEngine(t, nil)

	if _, err := eng.StartInterview(context.Background()); err != ErrNoCandidate {
		t.Fatalf("StartInterview without candidate = %v, want ErrNoCandidate", err)
	}
}

func TestEngineManualSubmitAdvances(t *testing.T) {
	eng := newTestEngine(t, nil)
	eng.StartCandidate(testCandidate())

	state, err := eng.StartInterview(context.Background())
	if err != nil {
		t.Fatalf("StartInterview: %v", err)
	}
	if state.Status != StatusInProgress || len(state.Questions) != 2 {
		t.Fatalf("unexpected state after start: %+v", state)
	}

	state, err = eng.SubmitAnswer("my manual answer with some detail")
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if state.CurrentIndex != 1 {
		t.Errorf("CurrentIndex = %d, want 1", state.CurrentIndex)
	}
	if state.Answers[0].AutoSubmitted {
		t.Errorf("manual answer marked as auto-submitted")
	}

	// Оценка прикрепляется асинхронно
	waitFor(t, time.Second, func() bool {
		s := eng.Snapshot()
		return len(s.Answers) > 0 && s.Answers[0].Score != nil
	})
}

func TestEngineAutoSubmitsOnExpiry(t *testing.T) {
	eng := newTestEngine(t, nil)
	eng.StartCandidate(testCandidate())

	if _, err := eng.StartInterview(context.Background()); err != nil {
		t.Fatalf("StartInterview: %v", err)
	}

	waitFor(t, time.Second, func() bool {
		return len(eng.Snapshot().Answers) >= 1
	})

	answer := eng.Snapshot().Answers[0]
	if !answer.AutoSubmitted {
		t.Errorf("expired question must be auto-submitted")
	}
	if answer.Content != AutoAnswerPlaceholder {
		t.Errorf("Content = %q, want placeholder", answer.Content)
	}
}

func TestEngineAutoSubmitUsesDraft(t *testing.T) {
	eng := newTestEngine(t, nil)
	eng.StartCandidate(testCandidate())

	if _, err := eng.StartInterview(context.Background()); err != nil {
		t.Fatalf("StartInterview: %v", err)
	}
	eng.StageDraft("half-typed thought")

	waitFor(t, time.Second, func() bool {
		return len(eng.Snapshot().Answers) >= 1
	})

	answer := eng.Snapshot().Answers[0]
	if answer.Content != "half-typed thought" {
		t.Errorf("Content = %q, want staged draft", answer.Content)
	}
	if !answer.AutoSubmitted {
		t.Errorf("draft submission on expiry must be marked auto")
	}
}

func TestEngineCompletesAfterAllTimeouts(t *testing.T) {
	done := make(chan State, 1)
	eng := newTestEngine(t, func(s State) { done <- s })
	eng.StartCandidate(testCandidate())

	if _, err := eng.StartInterview(context.Background()); err != nil {
		t.Fatalf("StartInterview: %v", err)
	}

	var final State
	select {
	case final = <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("interview did not complete")
	}

	if final.Status != StatusCompleted {
		t.Errorf("Status = %s, want %s", final.Status, StatusCompleted)
	}
	if len(final.Answers) != len(final.Questions) {
		t.Errorf("answers %d != questions %d", len(final.Answers), len(final.Questions))
	}
	if final.Summary == nil {
		t.Fatalf("completed interview must carry a summary")
	}
	if len(final.Summary.PerQuestion) != len(final.Questions) {
		t.Errorf("summary rows = %d, want %d", len(final.Summary.PerQuestion), len(final.Questions))
	}

	// Все оценки успели прикрепиться до завершения
	total := 0
	for _, row := range final.Summary.PerQuestion {
		if row.Score == nil {
			t.Errorf("question %s completed without score", row.QuestionID)
			continue
		}
		total += *row.Score
	}
	if final.Summary.TotalScore != total {
		t.Errorf("TotalScore = %d, want %d", final.Summary.TotalScore, total)
	}
}

func TestEnginePauseFreezesClock(t *testing.T) {
	eng := newTestEngine(t, nil)
	// Медленные тики: пауза гарантированно успевает до первого истечения
	eng.tickInterval = 200 * time.Millisecond
	eng.StartCandidate(testCandidate())

	if _, err := eng.StartInterview(context.Background()); err != nil {
		t.Fatalf("StartInterview: %v", err)
	}

	state := eng.Pause()
	if !state.Paused {
		t.Fatalf("Pause did not apply")
	}

	frozen := state.TimeRemaining
	time.Sleep(30 * time.Millisecond)

	after := eng.Snapshot()
	if !after.Paused {
		t.Fatalf("session unpaused itself")
	}
	if frozen != nil && (after.TimeRemaining == nil || *after.TimeRemaining != *frozen) {
		t.Errorf("TimeRemaining drifted during pause: %v -> %v", frozen, after.TimeRemaining)
	}
	if len(after.Answers) != 0 {
		t.Errorf("paused session must not auto-submit")
	}

	// После возобновления отсчет продолжается и вопрос истекает
	eng.Resume()
	waitFor(t, time.Second, func() bool {
		return len(eng.Snapshot().Answers) >= 1
	})
}

func TestEngineResetDropsPendingContinuations(t *testing.T) {
	eng := newTestEngine(t, nil)
	eng.tickInterval = 200 * time.Millisecond
	eng.StartCandidate(testCandidate())

	if _, err := eng.StartInterview(context.Background()); err != nil {
		t.Fatalf("StartInterview: %v", err)
	}
	if _, err := eng.SubmitAnswer("answer right before reset"); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}

	state := eng.Reset()
	if state.Status != StatusNotStarted || len(state.Answers) != 0 {
		t.Fatalf("Reset left state dirty: %+v", state)
	}

	// Оценка, стартовавшая до сброса, не имеет права воскресить данные
	time.Sleep(30 * time.Millisecond)
	after := eng.Snapshot()
	if after.Status != StatusNotStarted || len(after.Answers) != 0 {
		t.Errorf("stale continuation mutated reset session: %+v", after)
	}
}

func TestEngineRepeatedPauseResumeIdempotent(t *testing.T) {
	eng := newTestEngine(t, nil)
	eng.tickInterval = 200 * time.Millisecond
	eng.StartCandidate(testCandidate())

	if _, err := eng.StartInterview(context.Background()); err != nil {
		t.Fatalf("StartInterview: %v", err)
	}

	eng.Pause()
	first := eng.Pause()
	second := eng.Pause()
	if first.LastTickAt != second.LastTickAt {
		t.Errorf("repeated Pause must be a no-op")
	}

	eng.Resume()
	state := eng.Resume()
	if state.Paused {
		t.Errorf("repeated Resume left session paused")
	}
}

func TestManagerSessionLifecycle(t *testing.T) {
	cfg := engineTestConfig()
	mgr := NewManager(questions.New(nil, cfg), evaluator.New(nil, cfg), nil, nil, nil)
	t.Cleanup(mgr.Close)

	eng := mgr.GetOrCreate("")
	if eng.ID() == "" {
		t.Fatalf("new session must get an id")
	}

	same := mgr.GetOrCreate(eng.ID())
	if same != eng {
		t.Errorf("GetOrCreate returned a different engine for the same id")
	}

	other := mgr.GetOrCreate("explicit-id")
	if other == eng {
		t.Errorf("distinct ids must map to distinct engines")
	}

	if _, ok := mgr.Get("missing"); ok {
		t.Errorf("Get(missing) must report absence")
	}
}

func TestManagerRestorePausesRunningSessions(t *testing.T) {
	cfg := engineTestConfig()
	mgr := NewManager(questions.New(nil, cfg), evaluator.New(nil, cfg), nil, nil, nil)
	t.Cleanup(mgr.Close)

	running := startedState()
	running.TimeRemaining = intPtr(2)

	mgr.RestoreAll(map[string]State{"restored": running})

	eng, ok := mgr.Get("restored")
	if !ok {
		t.Fatalf("restored session not found")
	}
	state := eng.Snapshot()
	if state.Status != StatusInProgress {
		t.Errorf("Status = %s, want %s", state.Status, StatusInProgress)
	}
	if !state.Paused {
		t.Errorf("restored in-progress session must come back paused")
	}

	// Без явного Resume таймер не идет
	time.Sleep(20 * time.Millisecond)
	if len(eng.Snapshot().Answers) != 0 {
		t.Errorf("restored paused session must not run its timer")
	}
}

func TestEngineRestoreFullyAnsweredCompletes(t *testing.T) {
	done := make(chan State, 1)
	eng := newTestEngine(t, func(s State) { done <- s })

	// Снимок из окна между последним ответом и завершением:
	// все вопросы отвечены, статус еще in_progress
	s := startedState()
	for _, q := range s.Questions {
		s = Reduce(s, EventSubmitAnswer{QuestionID: q.ID, Content: "answer from before restart", SubmittedAt: 1})
	}
	if s.CurrentIndex != len(s.Questions) || s.Status != StatusInProgress {
		t.Fatalf("unexpected snapshot shape: %+v", s)
	}

	eng.Restore(s)

	var final State
	select {
	case final = <-done:
	case <-time.After(time.Second):
		got := eng.Snapshot()
		t.Fatalf("restored fully-answered session never completed: status=%s index=%d", got.Status, got.CurrentIndex)
	}

	if final.Status != StatusCompleted {
		t.Errorf("Status = %s, want %s", final.Status, StatusCompleted)
	}
	if final.Paused {
		t.Errorf("completed session must not stay paused")
	}
	if final.Summary == nil || len(final.Summary.PerQuestion) != len(final.Questions) {
		t.Errorf("completion must build a full summary: %+v", final.Summary)
	}
}

func intPtr(v int) *int { return &v }
