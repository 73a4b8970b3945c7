package exam

import (
	"errors"
	"testing"
)

func intp(i int) *int { return &i }

func fourQuestionExam(t *testing.T) Exam {
	t.Helper()
	return Exam{
		ID:         "exam-1",
		CourseID:   "c1",
		Title:      "Midterm",
		TotalScore: 100,
		Questions: []Question{
			{Prompt: "q1", Options: []string{"a", "b", "c"}, Correct: intp(0)},
			{Prompt: "q2", Options: []string{"a", "b", "c"}, Correct: intp(1)},
			{Prompt: "q3", Options: []string{"a", "b", "c"}, Correct: intp(2)},
			{Prompt: "q4", Options: []string{"a", "b", "c"}, Correct: intp(0)},
		},
	}
}

func TestNewAttemptRefusesEmptyExam(t *testing.T) {
	_, err := NewAttempt(Exam{ID: "empty", TotalScore: 100}, "s1")
	if !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}
}

func TestNewAttemptInitialState(t *testing.T) {
	a, err := NewAttempt(fourQuestionExam(t), "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Status != StatusInProgress {
		t.Fatalf("expected in_progress, got %q", a.Status)
	}
	if a.Current != 0 {
		t.Fatalf("cursor should start at 0, got %d", a.Current)
	}
	for i, ans := range a.Answers {
		if ans != Unanswered {
			t.Fatalf("answer %d should start unanswered, got %d", i, ans)
		}
	}
}

func TestNavigationClampsAtBoundaries(t *testing.T) {
	e := fourQuestionExam(t)
	a, _ := NewAttempt(e, "s1")

	a.Previous()
	if a.Current != 0 {
		t.Fatalf("previous at start should be a no-op, got %d", a.Current)
	}
	for i := 0; i < 10; i++ {
		a.Next()
	}
	if a.Current != len(e.Questions)-1 {
		t.Fatalf("next should clamp at %d, got %d", len(e.Questions)-1, a.Current)
	}
	a.Previous()
	if a.Current != 2 {
		t.Fatalf("previous should step back to 2, got %d", a.Current)
	}
}

func TestSelectAnswerOverwritesWithoutMovingCursor(t *testing.T) {
	e := fourQuestionExam(t)
	a, _ := NewAttempt(e, "s1")

	if err := a.SelectAnswer(e, 1, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := a.SelectAnswer(e, 1, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Answers[1] != 0 {
		t.Fatalf("expected overwrite to 0, got %d", a.Answers[1])
	}
	if a.Current != 0 {
		t.Fatalf("selecting an answer must not move the cursor, got %d", a.Current)
	}

	if err := a.SelectAnswer(e, 4, 0); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange for question index, got %v", err)
	}
	if err := a.SelectAnswer(e, 0, 3); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange for option index, got %v", err)
	}
}

func TestSubmitRejectedWhileUnanswered(t *testing.T) {
	e := fourQuestionExam(t)
	a, _ := NewAttempt(e, "s1")
	_ = a.SelectAnswer(e, 0, 0)
	_ = a.SelectAnswer(e, 1, 1)

	if _, err := a.Submit(e); !errors.Is(err, ErrUnanswered) {
		t.Fatalf("expected ErrUnanswered, got %v", err)
	}
	if a.Status != StatusInProgress {
		t.Fatalf("rejected submit must not transition, got %q", a.Status)
	}
}

func TestSubmitHalfCorrectScoresFifty(t *testing.T) {
	e := fourQuestionExam(t)
	a, _ := NewAttempt(e, "s1")
	// Q1, Q2 correct; Q3, Q4 wrong.
	_ = a.SelectAnswer(e, 0, 0)
	_ = a.SelectAnswer(e, 1, 1)
	_ = a.SelectAnswer(e, 2, 0)
	_ = a.SelectAnswer(e, 3, 1)

	score, err := a.Submit(e)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if score != 50 {
		t.Fatalf("expected 50, got %v", score)
	}
	if a.Status != StatusSubmitted {
		t.Fatalf("expected submitted, got %q", a.Status)
	}
	if _, err := a.Submit(e); !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("expected ErrAlreadySubmitted, got %v", err)
	}
}

func TestGradeAllCorrectAndAllWrong(t *testing.T) {
	e := fourQuestionExam(t)

	score, err := Grade(e, []int{0, 1, 2, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if score != e.TotalScore {
		t.Fatalf("all-correct should yield %v, got %v", e.TotalScore, score)
	}

	score, err = Grade(e, []int{1, 0, 0, 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if score != 0 {
		t.Fatalf("all-wrong should yield 0, got %v", score)
	}
}

func TestGradeRoundsOnceAtTheEnd(t *testing.T) {
	// 3 questions over 100 points: each is worth 33.33..; two correct is
	// 66.66.. which rounds to 67. Per-question rounding would give 66.
	e := Exam{
		ID:         "thirds",
		TotalScore: 100,
		Questions: []Question{
			{Prompt: "q1", Options: []string{"a", "b"}, Correct: intp(0)},
			{Prompt: "q2", Options: []string{"a", "b"}, Correct: intp(0)},
			{Prompt: "q3", Options: []string{"a", "b"}, Correct: intp(0)},
		},
	}
	score, err := Grade(e, []int{0, 0, 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if score != 67 {
		t.Fatalf("expected 67 from a single final round, got %v", score)
	}
}

func TestGradeAnswerCountMismatch(t *testing.T) {
	e := fourQuestionExam(t)
	if _, err := Grade(e, []int{0, 1}); !errors.Is(err, ErrAnswerCount) {
		t.Fatalf("expected ErrAnswerCount, got %v", err)
	}
}

func TestPercentageRoundTrip(t *testing.T) {
	if p := Percentage(50, 100); p != 50 {
		t.Fatalf("expected 50%%, got %d", p)
	}
	if p := Percentage(67, 100); p != 67 {
		t.Fatalf("expected 67%%, got %d", p)
	}
	if p := Percentage(1, 3); p != 33 {
		t.Fatalf("expected 33%%, got %d", p)
	}
	if p := Percentage(10, 0); p != 0 {
		t.Fatalf("zero total should yield 0, got %d", p)
	}
}
