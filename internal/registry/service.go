package registry

import (
	"sync"

	"interview-practice-server/internal/domain"
)

// Patch описывает частичное обновление кандидата.
// nil-поле означает «не менять».
type Patch struct {
	Name    *string
	Email   *string
	Phone   *string
	Score   *int
	Status  *domain.CandidateStatus
	Summary *domain.InterviewSummary
	Answers []domain.Answer
}

// Service хранит реестр кандидатов в памяти. Новые кандидаты
// добавляются в начало списка. Дубликаты email допустимы:
// каждая загрузка резюме создает отдельную запись.
type Service struct {
	mu         sync.RWMutex
	candidates []domain.Candidate
	onChange   func([]domain.Candidate)
}

// New создает пустой реестр
func New() *Service {
	return &Service{candidates: []domain.Candidate{}}
}

// SetOnChange регистрирует колбэк, вызываемый при каждом изменении
// реестра со свежей копией списка. Используется для персистентности.
func (s *Service) SetOnChange(fn func([]domain.Candidate)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Add добавляет кандидата в начало реестра
func (s *Service) Add(c domain.Candidate) {
	s.mu.Lock()
	s.candidates = append([]domain.Candidate{c}, s.candidates...)
	snapshot := s.copyLocked()
	onChange := s.onChange
	s.mu.Unlock()
	if onChange != nil {
		onChange(snapshot)
	}
}

// Update вливает непустые поля патча в кандидата.
// Отсутствующий кандидат — no-op, ошибкой не считается.
func (s *Service) Update(id string, p Patch) (domain.Candidate, bool) {
	s.mu.Lock()
	var updated domain.Candidate
	found := false
	for i := range s.candidates {
		if s.candidates[i].ID != id {
			continue
		}
		c := &s.candidates[i]
		if p.Name != nil {
			c.Name = *p.Name
		}
		if p.Email != nil {
			c.Email = *p.Email
		}
		if p.Phone != nil {
			c.Phone = *p.Phone
		}
		if p.Score != nil {
			c.Score = *p.Score
		}
		if p.Status != nil {
			c.Status = *p.Status
		}
		if p.Summary != nil {
			c.InterviewSummary = p.Summary
		}
		if p.Answers != nil {
			c.Answers = append([]domain.Answer(nil), p.Answers...)
		}
		updated = *c
		found = true
		break
	}
	if !found {
		s.mu.Unlock()
		return domain.Candidate{}, false
	}
	snapshot := s.copyLocked()
	onChange := s.onChange
	s.mu.Unlock()
	if onChange != nil {
		onChange(snapshot)
	}
	return updated, true
}

// Delete удаляет кандидата из реестра
func (s *Service) Delete(id string) bool {
	s.mu.Lock()
	found := false
	for i := range s.candidates {
		if s.candidates[i].ID == id {
			s.candidates = append(s.candidates[:i], s.candidates[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		s.mu.Unlock()
		return false
	}
	snapshot := s.copyLocked()
	onChange := s.onChange
	s.mu.Unlock()
	if onChange != nil {
		onChange(snapshot)
	}
	return true
}

// Clear удаляет всех кандидатов из реестра
func (s *Service) Clear() {
	s.mu.Lock()
	s.candidates = []domain.Candidate{}
	onChange := s.onChange
	s.mu.Unlock()
	if onChange != nil {
		onChange([]domain.Candidate{})
	}
}

// Get возвращает кандидата по идентификатору
func (s *Service) Get(id string) (domain.Candidate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.candidates {
		if c.ID == id {
			return c, true
		}
	}
	return domain.Candidate{}, false
}

// All возвращает копию списка кандидатов в порядке реестра
func (s *Service) All() []domain.Candidate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked()
}

// SetAll заменяет содержимое реестра. Используется при загрузке
// сохраненных данных на старте, колбэк изменения не вызывается.
func (s *Service) SetAll(candidates []domain.Candidate) {
	s.mu.Lock()
	s.candidates = append([]domain.Candidate{}, candidates...)
	s.mu.Unlock()
}

func (s *Service) copyLocked() []domain.Candidate {
	return append([]domain.Candidate(nil), s.candidates...)
}
