package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"interview-practice-server/internal/domain"
	"interview-practice-server/internal/session"
)

const (
	stateFileName = "state.json"
	// Запись на диск откладывается, чтобы шквал изменений
	// (тики таймера, оценки) не превращался в шквал записей
	persistDelay = 500 * time.Millisecond
)

// persistedRoot представляет сохраняемый корень данных
type persistedRoot struct {
	Candidates []domain.Candidate       `json:"candidates"`
	Sessions   map[string]session.State `json:"sessions"`
	SavedAt    int64                    `json:"savedAt"`
}

// persistedFile — формат файла на диске
type persistedFile struct {
	Root persistedRoot `json:"root"`
}

// Service сохраняет кандидатов и сессии в один JSON-файл.
// Запись отложенная, Flush пишет немедленно.
type Service struct {
	mu         sync.Mutex
	path       string
	candidates []domain.Candidate
	sessions   map[string]session.State
	timer      *time.Timer
	dirty      bool
}

// New создает хранилище в указанной директории
func New(dataDir string) (*Service, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("ошибка создания директории данных: %w", err)
	}
	return &Service{
		path:       filepath.Join(dataDir, stateFileName),
		candidates: []domain.Candidate{},
		sessions:   map[string]session.State{},
	}, nil
}

// Load читает сохраненные данные. Отсутствующий файл — не ошибка:
// сервер стартует с пустым состоянием.
func (s *Service) Load() ([]domain.Candidate, map[string]session.State, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return []domain.Candidate{}, map[string]session.State{}, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка чтения файла данных: %w", err)
	}

	var file persistedFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, nil, fmt.Errorf("ошибка разбора файла данных: %w", err)
	}

	candidates := file.Root.Candidates
	if candidates == nil {
		candidates = []domain.Candidate{}
	}
	sessions := file.Root.Sessions
	if sessions == nil {
		sessions = map[string]session.State{}
	}

	s.mu.Lock()
	s.candidates = append([]domain.Candidate(nil), candidates...)
	s.sessions = make(map[string]session.State, len(sessions))
	for id, st := range sessions {
		s.sessions[id] = st
	}
	s.mu.Unlock()

	slog.Info("Данные загружены", "candidates", len(candidates), "sessions", len(sessions))
	return candidates, sessions, nil
}

// SaveCandidates обновляет список кандидатов и планирует запись
func (s *Service) SaveCandidates(candidates []domain.Candidate) {
	s.mu.Lock()
	s.candidates = append([]domain.Candidate(nil), candidates...)
	s.scheduleLocked()
	s.mu.Unlock()
}

// SaveSession обновляет снимок одной сессии и планирует запись
func (s *Service) SaveSession(id string, state session.State) {
	s.mu.Lock()
	s.sessions[id] = state
	s.scheduleLocked()
	s.mu.Unlock()
}

// DeleteSession убирает сессию из сохраняемых данных
func (s *Service) DeleteSession(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.scheduleLocked()
	s.mu.Unlock()
}

// scheduleLocked откладывает запись на persistDelay.
// Повторные изменения до срабатывания таймера сольются в одну запись.
func (s *Service) scheduleLocked() {
	s.dirty = true
	if s.timer != nil {
		return
	}
	s.timer = time.AfterFunc(persistDelay, func() {
		if err := s.Flush(); err != nil {
			slog.Error("Отложенная запись не удалась", "error", err)
		}
	})
}

// Flush немедленно пишет текущее состояние на диск
func (s *Service) Flush() error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.dirty = false
	file := persistedFile{Root: persistedRoot{
		Candidates: append([]domain.Candidate(nil), s.candidates...),
		Sessions:   make(map[string]session.State, len(s.sessions)),
		SavedAt:    time.Now().UnixMilli(),
	}}
	for id, st := range s.sessions {
		file.Root.Sessions[id] = st
	}
	path := s.path
	s.mu.Unlock()

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("ошибка сериализации данных: %w", err)
	}

	// Запись через временный файл, чтобы сбой не порвал основной
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("ошибка записи файла данных: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("ошибка замены файла данных: %w", err)
	}
	return nil
}
