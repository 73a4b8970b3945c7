package exam

import (
	"sync"

	"github.com/learngate/learngate/internal/apperr"
)

type live struct {
	attempt *Attempt
	exam    Exam // full exam, answer key included
}

// Registry holds in-progress attempts. Attempts never touch the database:
// submit hands the score to the caller and evicts the entry, discarding the
// answers.
type Registry struct {
	mu   sync.RWMutex
	live map[string]*live
}

func NewRegistry() *Registry {
	return &Registry{live: map[string]*live{}}
}

// Start begins an attempt for studentID on e.
func (r *Registry) Start(e Exam, studentID string) (Attempt, error) {
	a, err := NewAttempt(e, studentID)
	if err != nil {
		return Attempt{}, err
	}
	r.mu.Lock()
	r.live[a.ID] = &live{attempt: a, exam: e}
	r.mu.Unlock()
	return snapshot(a), nil
}

func (r *Registry) Get(id, studentID string) (Attempt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, err := r.owned(id, studentID)
	if err != nil {
		return Attempt{}, err
	}
	return snapshot(l.attempt), nil
}

func (r *Registry) Answer(id, studentID string, q, opt int) (Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, err := r.owned(id, studentID)
	if err != nil {
		return Attempt{}, err
	}
	if err := l.attempt.SelectAnswer(l.exam, q, opt); err != nil {
		return Attempt{}, err
	}
	return snapshot(l.attempt), nil
}

func (r *Registry) Next(id, studentID string) (Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, err := r.owned(id, studentID)
	if err != nil {
		return Attempt{}, err
	}
	l.attempt.Next()
	return snapshot(l.attempt), nil
}

func (r *Registry) Previous(id, studentID string) (Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, err := r.owned(id, studentID)
	if err != nil {
		return Attempt{}, err
	}
	l.attempt.Previous()
	return snapshot(l.attempt), nil
}

// Submit grades the attempt and returns a submitted snapshot plus the exam's
// total score. The live entry is NOT evicted here: callers evict with Remove
// only after the result is safely persisted, so a failed save leaves the
// attempt intact and the submit retryable.
func (r *Registry) Submit(id, studentID string) (Attempt, float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, err := r.owned(id, studentID)
	if err != nil {
		return Attempt{}, 0, err
	}
	for _, ans := range l.attempt.Answers {
		if ans == Unanswered {
			return Attempt{}, 0, ErrUnanswered
		}
	}
	score, err := Grade(l.exam, l.attempt.Answers)
	if err != nil {
		return Attempt{}, 0, err
	}
	out := snapshot(l.attempt)
	out.Status = StatusSubmitted
	out.Score = score
	return out, l.exam.TotalScore, nil
}

// Remove evicts a live attempt, discarding its answers. No-op if the attempt
// is gone or owned by someone else.
func (r *Registry) Remove(id, studentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.live[id]; ok && l.attempt.StudentID == studentID {
		delete(r.live, id)
	}
}

// owned must be called with the mutex held.
func (r *Registry) owned(id, studentID string) (*live, error) {
	l, ok := r.live[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	if l.attempt.StudentID != studentID {
		return nil, apperr.ErrForbidden
	}
	return l, nil
}

func snapshot(a *Attempt) Attempt {
	out := *a
	out.Answers = append([]int(nil), a.Answers...)
	return out
}
