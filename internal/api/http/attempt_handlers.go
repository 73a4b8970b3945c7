package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/learngate/learngate/internal/apperr"
	"github.com/learngate/learngate/internal/audit"
	"github.com/learngate/learngate/internal/auth"
	"github.com/learngate/learngate/internal/enroll"
	"github.com/learngate/learngate/internal/exam"
)

// GetExamForStudentHandler serves the student view: answer keys stripped.
func GetExamForStudentHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "examID")
		e, err := store.GetExam(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

// StartAttemptHandler begins an in-memory attempt on an exam the student's
// course enrollment grants access to.
func StartAttemptHandler(store exam.Store, reg *exam.Registry, enrollSvc *enroll.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID := auth.SubjectFromContext(r.Context())
		examID := chi.URLParam(r, "examID")

		e, err := store.GetExamFull(r.Context(), examID)
		if err != nil {
			writeError(w, err)
			return
		}
		active, err := enrollSvc.IsActive(r.Context(), studentID, e.CourseID)
		if err != nil {
			writeError(w, err)
			return
		}
		if !active {
			writeError(w, fmt.Errorf("not enrolled in course %s: %w", e.CourseID, apperr.ErrForbidden))
			return
		}

		a, err := reg.Start(e, studentID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, a)
	}
}

func GetAttemptHandler(reg *exam.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID := auth.SubjectFromContext(r.Context())
		a, err := reg.Get(chi.URLParam(r, "attemptID"), studentID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

type answerReq struct {
	Question int `json:"question"`
	Option   int `json:"option"`
}

func AnswerHandler(reg *exam.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID := auth.SubjectFromContext(r.Context())
		var req answerReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "bad json")
			return
		}
		a, err := reg.Answer(chi.URLParam(r, "attemptID"), studentID, req.Question, req.Option)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

func NextQuestionHandler(reg *exam.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID := auth.SubjectFromContext(r.Context())
		a, err := reg.Next(chi.URLParam(r, "attemptID"), studentID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

func PreviousQuestionHandler(reg *exam.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID := auth.SubjectFromContext(r.Context())
		a, err := reg.Previous(chi.URLParam(r, "attemptID"), studentID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

// SubmitAttemptHandler grades the live attempt and persists only the score.
// The attempt is evicted after the result is stored; if the store fails the
// answers stay live and the submit can be retried.
func SubmitAttemptHandler(reg *exam.Registry, store exam.Store, log *audit.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID := auth.SubjectFromContext(r.Context())
		attemptID := chi.URLParam(r, "attemptID")
		a, total, err := reg.Submit(attemptID, studentID)
		if err != nil {
			writeError(w, err)
			return
		}
		res := exam.Result{
			ID:          uuid.NewString(),
			ExamID:      a.ExamID,
			StudentID:   studentID,
			Score:       a.Score,
			Percentage:  exam.Percentage(a.Score, total),
			SubmittedAt: time.Now().Unix(),
		}
		if err := store.SaveResult(r.Context(), res); err != nil {
			writeError(w, err)
			return
		}
		reg.Remove(attemptID, studentID)
		_ = log.Record(r.Context(), "ExamSubmitted", res.ID, res)
		writeJSON(w, http.StatusCreated, res)
	}
}

type directSubmitReq struct {
	Answers []int `json:"answers"`
}

// DirectSubmitHandler grades a complete answer sheet in one call. The score
// is always recomputed server-side from the stored answer key; a
// client-supplied score is never accepted.
func DirectSubmitHandler(store exam.Store, enrollSvc *enroll.Service, log *audit.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID := auth.SubjectFromContext(r.Context())
		examID := chi.URLParam(r, "examID")

		var req directSubmitReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "bad json")
			return
		}
		for _, a := range req.Answers {
			if a == exam.Unanswered {
				writeError(w, exam.ErrUnanswered)
				return
			}
		}

		e, err := store.GetExamFull(r.Context(), examID)
		if err != nil {
			writeError(w, err)
			return
		}
		active, err := enrollSvc.IsActive(r.Context(), studentID, e.CourseID)
		if err != nil {
			writeError(w, err)
			return
		}
		if !active {
			writeError(w, fmt.Errorf("not enrolled in course %s: %w", e.CourseID, apperr.ErrForbidden))
			return
		}

		score, err := exam.Grade(e, req.Answers)
		if err != nil {
			writeError(w, err)
			return
		}
		res := exam.Result{
			ID:          uuid.NewString(),
			ExamID:      examID,
			StudentID:   studentID,
			Score:       score,
			Percentage:  exam.Percentage(score, e.TotalScore),
			SubmittedAt: time.Now().Unix(),
		}
		if err := store.SaveResult(r.Context(), res); err != nil {
			writeError(w, err)
			return
		}
		_ = log.Record(r.Context(), "ExamSubmitted", res.ID, res)
		writeJSON(w, http.StatusCreated, res)
	}
}
