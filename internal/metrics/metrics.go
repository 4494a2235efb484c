package metrics

import (
	"sync"
	"time"
)

// Metrics собирает счетчики работы сервера.
// Все методы безопасны для конкурентного вызова.
type Metrics struct {
	mu sync.Mutex

	startTime time.Time

	resumesUploaded     int64
	resumesParsed       int64
	interviewsStarted   int64
	interviewsCompleted int64
	answersSubmitted    int64
	answersAutoSubmit   int64
	llmCalls            int64
	llmErrors           int64
	reportsGenerated    int64
}

// New создает новый сборщик метрик
func New() *Metrics {
	return &Metrics{startTime: time.Now()}
}

func (m *Metrics) IncResumeUploaded() {
	m.mu.Lock()
	m.resumesUploaded++
	m.mu.Unlock()
}

func (m *Metrics) IncResumeParsed() {
	m.mu.Lock()
	m.resumesParsed++
	m.mu.Unlock()
}

func (m *Metrics) IncInterviewStarted() {
	m.mu.Lock()
	m.interviewsStarted++
	m.mu.Unlock()
}

func (m *Metrics) IncInterviewCompleted() {
	m.mu.Lock()
	m.interviewsCompleted++
	m.mu.Unlock()
}

func (m *Metrics) IncAnswerSubmitted(auto bool) {
	m.mu.Lock()
	m.answersSubmitted++
	if auto {
		m.answersAutoSubmit++
	}
	m.mu.Unlock()
}

func (m *Metrics) IncLLMCall() {
	m.mu.Lock()
	m.llmCalls++
	m.mu.Unlock()
}

func (m *Metrics) IncLLMError() {
	m.mu.Lock()
	m.llmErrors++
	m.mu.Unlock()
}

func (m *Metrics) IncReportGenerated() {
	m.mu.Lock()
	m.reportsGenerated++
	m.mu.Unlock()
}

// Stats возвращает снимок всех счетчиков для отдачи наружу
func (m *Metrics) Stats() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return map[string]interface{}{
		"uptime_seconds":       int64(time.Since(m.startTime).Seconds()),
		"resumes_uploaded":     m.resumesUploaded,
		"resumes_parsed":       m.resumesParsed,
		"interviews_started":   m.interviewsStarted,
		"interviews_completed": m.interviewsCompleted,
		"answers_submitted":    m.answersSubmitted,
		"answers_auto":         m.answersAutoSubmit,
		"llm_calls":            m.llmCalls,
		"llm_errors":           m.llmErrors,
		"reports_generated":    m.reportsGenerated,
	}
}
