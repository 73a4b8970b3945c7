package exam

import (
	"errors"
	"testing"

	"github.com/learngate/learngate/internal/apperr"
)

func TestRegistryLifecycle(t *testing.T) {
	e := fourQuestionExam(t)
	reg := NewRegistry()

	a, err := reg.Start(e, "s1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	for q := 0; q < 4; q++ {
		if _, err := reg.Answer(a.ID, "s1", q, 0); err != nil {
			t.Fatalf("answer q%d: %v", q, err)
		}
	}
	got, total, err := reg.Submit(a.ID, "s1")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got.Status != StatusSubmitted {
		t.Fatalf("expected submitted, got %q", got.Status)
	}
	// Q1 and Q4 have correct=0.
	if got.Score != 50 {
		t.Fatalf("expected score 50, got %v", got.Score)
	}
	if total != 100 {
		t.Fatalf("expected total 100, got %v", total)
	}

	// The entry survives grading so the caller can retry a failed persist.
	if _, err := reg.Get(a.ID, "s1"); err != nil {
		t.Fatalf("attempt should still be live after grading: %v", err)
	}

	// Eviction is explicit, once the result is stored.
	reg.Remove(a.ID, "s1")
	if _, err := reg.Get(a.ID, "s1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after remove, got %v", err)
	}
}

func TestRegistrySubmitRepeatableUntilRemoved(t *testing.T) {
	reg := NewRegistry()
	a, err := reg.Start(fourQuestionExam(t), "s1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	for q := 0; q < 4; q++ {
		if _, err := reg.Answer(a.ID, "s1", q, 0); err != nil {
			t.Fatalf("answer q%d: %v", q, err)
		}
	}
	first, _, err := reg.Submit(a.ID, "s1")
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	second, _, err := reg.Submit(a.ID, "s1")
	if err != nil {
		t.Fatalf("retried submit: %v", err)
	}
	if first.Score != second.Score {
		t.Fatalf("retry changed score: %v vs %v", first.Score, second.Score)
	}
	reg.Remove(a.ID, "s1")
	if _, _, err := reg.Submit(a.ID, "s1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after remove, got %v", err)
	}
}

func TestRegistryRejectsForeignStudent(t *testing.T) {
	reg := NewRegistry()
	a, err := reg.Start(fourQuestionExam(t), "s1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := reg.Answer(a.ID, "s2", 0, 0); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, _, err := reg.Submit(a.ID, "s2"); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestRegistryUnansweredSubmitKeepsAttemptLive(t *testing.T) {
	reg := NewRegistry()
	a, err := reg.Start(fourQuestionExam(t), "s1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, _, err := reg.Submit(a.ID, "s1"); !errors.Is(err, ErrUnanswered) {
		t.Fatalf("expected ErrUnanswered, got %v", err)
	}
	got, err := reg.Get(a.ID, "s1")
	if err != nil {
		t.Fatalf("attempt should still be live: %v", err)
	}
	if got.Status != StatusInProgress {
		t.Fatalf("expected in_progress, got %q", got.Status)
	}
}

func TestRegistryZeroQuestionExam(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Start(Exam{ID: "empty", TotalScore: 100}, "s1"); !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}
}
