package session

import (
	"interview-practice-server/internal/domain"
)

// Reduce применяет событие к состоянию и возвращает новое состояние.
// Чистая функция: не трогает входной снимок, копирует срезы перед записью.
// Событие, не подходящее к текущему статусу, молча игнорируется.
func Reduce(s State, ev Event) State {
	switch e := ev.(type) {
	case EventStartCandidate:
		c := e.Candidate
		s.Candidate = &c
		s.Status = StatusCollectingInfo
		return s

	case EventCollectInfo:
		if s.Status != StatusCollectingInfo || s.Candidate == nil {
			return s
		}
		c := *s.Candidate
		if e.Name != "" {
			c.Name = e.Name
		}
		if e.Email != "" {
			c.Email = e.Email
		}
		if e.Phone != "" {
			c.Phone = e.Phone
		}
		s.Candidate = &c
		return s

	case EventStart:
		if len(e.Questions) == 0 {
			return s
		}
		c := e.Candidate
		s.Candidate = &c
		s.Questions = append([]domain.Question(nil), e.Questions...)
		s.Answers = []domain.Answer{}
		s.CurrentIndex = 0
		s.Status = StatusInProgress
		s.Paused = false
		s.TimeRemaining = nil
		s.StartedAt = e.StartedAt
		s.CompletedAt = 0
		s.Summary = nil
		return s

	case EventTimerTick:
		if s.Status != StatusInProgress || s.Paused {
			return s
		}
		remaining := e.Remaining
		if remaining < 0 {
			remaining = 0
		}
		s.TimeRemaining = &remaining
		return s

	case EventSubmitAnswer:
		if s.Status != StatusInProgress {
			return s
		}
		answer := domain.Answer{
			QuestionID:    e.QuestionID,
			Content:       e.Content,
			SubmittedAt:   e.SubmittedAt,
			AutoSubmitted: e.AutoSubmitted,
		}
		for i, a := range s.Answers {
			if a.QuestionID == e.QuestionID {
				// Повторная отправка заменяет содержимое,
				// но индекс и таймер не трогает
				answer.Score = a.Score
				answer.Feedback = a.Feedback
				answers := append([]domain.Answer(nil), s.Answers...)
				answers[i] = answer
				s.Answers = answers
				return s
			}
		}
		s.Answers = append(append([]domain.Answer(nil), s.Answers...), answer)
		s.CurrentIndex++
		s.TimeRemaining = nil
		return s

	case EventAttachScore:
		for i, a := range s.Answers {
			if a.QuestionID == e.QuestionID {
				score := e.Score
				answers := append([]domain.Answer(nil), s.Answers...)
				answers[i].Score = &score
				answers[i].Feedback = e.Feedback
				s.Answers = answers
				return s
			}
		}
		return s

	case EventPause:
		if s.Status != StatusInProgress || s.Paused {
			return s
		}
		s.Paused = true
		s.LastTickAt = e.At
		return s

	case EventResume:
		if s.Status != StatusInProgress || !s.Paused {
			return s
		}
		s.Paused = false
		return s

	case EventComplete:
		if s.Status != StatusInProgress {
			return s
		}
		summary := e.Summary
		s.Status = StatusCompleted
		s.CompletedAt = e.CompletedAt
		s.Summary = &summary
		s.TimeRemaining = nil
		s.Paused = false
		return s

	case EventReset:
		return InitialState()

	case EventUpdateStatus:
		s.Status = e.Status
		return s
	}
	return s
}
