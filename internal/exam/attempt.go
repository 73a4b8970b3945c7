package exam

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
)

// Unanswered is the sentinel for a question the student has not answered yet.
const Unanswered = -1

const (
	StatusInProgress = "in_progress"
	StatusSubmitted  = "submitted"
)

var (
	ErrNoQuestions      = errors.New("exam has no questions")
	ErrUnanswered       = errors.New("attempt has unanswered questions")
	ErrAlreadySubmitted = errors.New("attempt already submitted")
	ErrOutOfRange       = errors.New("question or option index out of range")
	ErrAnswerCount      = errors.New("answer count does not match question count")
)

// Attempt is the in-progress state of one student taking one exam. It lives
// only in memory; on submit the score is persisted and the attempt is gone.
type Attempt struct {
	ID        string  `json:"id"`
	ExamID    string  `json:"exam_id"`
	StudentID string  `json:"student_id"`
	Status    string  `json:"status"`
	Current   int     `json:"current"` // 0-based question cursor
	Answers   []int   `json:"answers"` // Unanswered until selected
	StartedAt int64   `json:"started_at"`
	Score     float64 `json:"score,omitempty"` // set once submitted
}

// NewAttempt starts an attempt. An exam with no questions cannot be started.
func NewAttempt(e Exam, studentID string) (*Attempt, error) {
	if len(e.Questions) == 0 {
		return nil, ErrNoQuestions
	}
	answers := make([]int, len(e.Questions))
	for i := range answers {
		answers[i] = Unanswered
	}
	return &Attempt{
		ID:        uuid.NewString(),
		ExamID:    e.ID,
		StudentID: studentID,
		Status:    StatusInProgress,
		Answers:   answers,
		StartedAt: time.Now().Unix(),
	}, nil
}

// SelectAnswer overwrites the answer for question q. The cursor stays put.
func (a *Attempt) SelectAnswer(e Exam, q, opt int) error {
	if a.Status != StatusInProgress {
		return ErrAlreadySubmitted
	}
	if q < 0 || q >= len(a.Answers) {
		return ErrOutOfRange
	}
	if opt < 0 || opt >= len(e.Questions[q].Options) {
		return ErrOutOfRange
	}
	a.Answers[q] = opt
	return nil
}

// Next and Previous clamp to [0, n-1]; moving past a boundary is a no-op.
func (a *Attempt) Next() {
	if a.Current < len(a.Answers)-1 {
		a.Current++
	}
}

func (a *Attempt) Previous() {
	if a.Current > 0 {
		a.Current--
	}
}

// Submit grades the attempt. It refuses while any slot is unanswered and
// leaves the attempt untouched in that case.
func (a *Attempt) Submit(e Exam) (float64, error) {
	if a.Status != StatusInProgress {
		return 0, ErrAlreadySubmitted
	}
	for _, ans := range a.Answers {
		if ans == Unanswered {
			return 0, ErrUnanswered
		}
	}
	score, err := Grade(e, a.Answers)
	if err != nil {
		return 0, err
	}
	a.Status = StatusSubmitted
	a.Score = score
	return score, nil
}

// Grade scores a complete answer slice against the exam's key. Every
// question is worth total/n; the sum is rounded once at the end, so
// per-question fractions never compound.
func Grade(e Exam, answers []int) (float64, error) {
	n := len(e.Questions)
	if n == 0 {
		return 0, ErrNoQuestions
	}
	if len(answers) != n {
		return 0, ErrAnswerCount
	}
	share := e.TotalScore / float64(n)
	sum := 0.0
	for i, q := range e.Questions {
		if q.Correct != nil && answers[i] == *q.Correct {
			sum += share
		}
	}
	return math.Round(sum), nil
}

// Percentage derives the display percentage from a stored score. It is
// recomputable from the result row alone.
func Percentage(score, total float64) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(score / total * 100))
}
