package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"interview-practice-server/internal/evaluator"
	"interview-practice-server/internal/metrics"
	"interview-practice-server/internal/questions"
)

const (
	cleanupInterval = 1 * time.Hour
	sessionTTL      = 24 * time.Hour
)

// Manager хранит активные сессии по идентификатору и чистит
// заброшенные. Безопасен для конкурентного использования.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Engine
	stop     chan struct{}

	questions  *questions.Service
	evaluator  *evaluator.Service
	metrics    *metrics.Metrics
	onComplete func(State)

	// onChange получает каждый новый снимок любой сессии.
	// Используется для отложенной записи на диск.
	onChange func(id string, state State)

	// onRemove вызывается при удалении заброшенной сессии
	onRemove func(id string)
}

// SetOnRemove регистрирует колбэк удаления сессии
func (m *Manager) SetOnRemove(fn func(id string)) {
	m.mu.Lock()
	m.onRemove = fn
	m.mu.Unlock()
}

// NewManager создает менеджер сессий и запускает фоновую очистку
func NewManager(qs *questions.Service, ev *evaluator.Service, m *metrics.Metrics, onComplete func(State), onChange func(string, State)) *Manager {
	mgr := &Manager{
		sessions:   make(map[string]*Engine),
		stop:       make(chan struct{}),
		questions:  qs,
		evaluator:  ev,
		metrics:    m,
		onComplete: onComplete,
		onChange:   onChange,
	}
	go mgr.runCleanup()
	return mgr
}

// Get возвращает сессию по идентификатору
func (m *Manager) Get(id string) (*Engine, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	eng, ok := m.sessions[id]
	return eng, ok
}

// GetOrCreate возвращает существующую сессию или создает новую.
// Пустой идентификатор означает новую сессию со свежим UUID.
func (m *Manager) GetOrCreate(id string) *Engine {
	if id != "" {
		if eng, ok := m.Get(id); ok {
			return eng
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if id == "" {
		id = uuid.New().String()
	} else if eng, ok := m.sessions[id]; ok {
		return eng
	}
	eng := m.newEngine(id)
	m.sessions[id] = eng
	slog.Info("Создана новая сессия", "session", id)
	return eng
}

func (m *Manager) newEngine(id string) *Engine {
	eng := NewEngine(id, m.questions, m.evaluator, m.metrics, m.onComplete)
	if m.onChange != nil {
		eng.Subscribe(func(state State) {
			m.onChange(id, state)
		})
	}
	return eng
}

// Snapshot возвращает снимки всех сессий для персистентности
func (m *Manager) Snapshot() map[string]State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]State, len(m.sessions))
	for id, eng := range m.sessions {
		out[id] = eng.Snapshot()
	}
	return out
}

// RestoreAll загружает сохраненные сессии при старте сервера
func (m *Manager) RestoreAll(states map[string]State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, state := range states {
		eng := m.newEngine(id)
		eng.Restore(state)
		m.sessions[id] = eng
	}
	if len(states) > 0 {
		slog.Info("Сессии восстановлены из хранилища", "count", len(states))
	}
}

// Close останавливает фоновую очистку и таймеры всех сессий
func (m *Manager) Close() {
	close(m.stop)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, eng := range m.sessions {
		eng.Stop()
	}
}

func (m *Manager) runCleanup() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.cleanup()
		}
	}
}

// cleanup удаляет сессии без активности дольше sessionTTL
func (m *Manager) cleanup() {
	cutoff := time.Now().Add(-sessionTTL)
	m.mu.Lock()
	onRemove := m.onRemove
	var removed []string
	for id, eng := range m.sessions {
		if eng.LastActivity().Before(cutoff) {
			eng.Stop()
			delete(m.sessions, id)
			removed = append(removed, id)
			slog.Info("Удалена неактивная сессия", "session", id)
		}
	}
	m.mu.Unlock()
	if onRemove != nil {
		for _, id := range removed {
			onRemove(id)
		}
	}
}
