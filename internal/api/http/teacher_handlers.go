package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/learngate/learngate/internal/apperr"
	"github.com/learngate/learngate/internal/auth"
	"github.com/learngate/learngate/internal/course"
	"github.com/learngate/learngate/internal/exam"
)

// canManageCourse lets the owning teacher or an admin through.
func canManageCourse(ctx context.Context, courses *course.Store, courseID string) error {
	if auth.RoleFromContext(ctx) == "admin" {
		return nil
	}
	sub := auth.SubjectFromContext(ctx)
	ok, err := courses.IsOwner(ctx, courseID, sub)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("course %s is not yours: %w", courseID, apperr.ErrForbidden)
	}
	return nil
}

type createExamReq struct {
	Title       string          `json:"title" validate:"required"`
	Description string          `json:"description"`
	Questions   []exam.Question `json:"questions"`
	TotalScore  float64         `json:"total_score" validate:"required,gt=0"`
	DueAt       *int64          `json:"due_at"`
}

func CreateExamHandler(store exam.Store, courses *course.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := chi.URLParam(r, "courseID")
		if err := canManageCourse(r.Context(), courses, courseID); err != nil {
			writeError(w, err)
			return
		}
		if _, err := courses.Get(r.Context(), courseID); err != nil {
			writeError(w, err)
			return
		}

		var req createExamReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "bad json")
			return
		}
		if err := validate.Struct(req); err != nil {
			badRequest(w, err.Error())
			return
		}

		e := exam.Exam{
			ID:          uuid.NewString(),
			CourseID:    courseID,
			Title:       req.Title,
			Description: req.Description,
			Questions:   req.Questions,
			TotalScore:  req.TotalScore,
			DueAt:       req.DueAt,
		}
		if err := store.PutExam(r.Context(), e); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"id": e.ID})
	}
}

func DeleteExamHandler(store exam.Store, courses *course.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := chi.URLParam(r, "courseID")
		examID := chi.URLParam(r, "examID")
		if err := canManageCourse(r.Context(), courses, courseID); err != nil {
			writeError(w, err)
			return
		}
		if err := store.DeleteExam(r.Context(), courseID, examID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func ExamResultsHandler(store exam.Store, courses *course.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		examID := chi.URLParam(r, "examID")
		e, err := store.GetExamFull(r.Context(), examID)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := canManageCourse(r.Context(), courses, e.CourseID); err != nil {
			writeError(w, err)
			return
		}
		out, err := store.ListResultsForExam(r.Context(), examID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

type lessonReq struct {
	Title    string `json:"title" validate:"required"`
	Content  string `json:"content"`
	Position int    `json:"position"`
	DueAt    *int64 `json:"due_at"`
}

func CreateLessonHandler(courses *course.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := chi.URLParam(r, "courseID")
		if err := canManageCourse(r.Context(), courses, courseID); err != nil {
			writeError(w, err)
			return
		}
		var req lessonReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "bad json")
			return
		}
		if err := validate.Struct(req); err != nil {
			badRequest(w, err.Error())
			return
		}
		l := course.Lesson{
			ID:       uuid.NewString(),
			CourseID: courseID,
			Title:    req.Title,
			Content:  req.Content,
			Position: req.Position,
			DueAt:    req.DueAt,
		}
		if err := courses.AddLesson(r.Context(), l); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, l)
	}
}

func UpdateLessonHandler(courses *course.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := chi.URLParam(r, "courseID")
		lessonID := chi.URLParam(r, "lessonID")
		if err := canManageCourse(r.Context(), courses, courseID); err != nil {
			writeError(w, err)
			return
		}
		var req lessonReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "bad json")
			return
		}
		if err := validate.Struct(req); err != nil {
			badRequest(w, err.Error())
			return
		}
		l := course.Lesson{
			ID:       lessonID,
			CourseID: courseID,
			Title:    req.Title,
			Content:  req.Content,
			Position: req.Position,
			DueAt:    req.DueAt,
		}
		if err := courses.UpdateLesson(r.Context(), l); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, l)
	}
}

func DeleteLessonHandler(courses *course.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := chi.URLParam(r, "courseID")
		lessonID := chi.URLParam(r, "lessonID")
		if err := canManageCourse(r.Context(), courses, courseID); err != nil {
			writeError(w, err)
			return
		}
		if err := courses.DeleteLesson(r.Context(), courseID, lessonID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type assignmentReq struct {
	Title        string `json:"title" validate:"required"`
	Description  string `json:"description"`
	DueAt        *int64 `json:"due_at"`
	FileRequired bool   `json:"file_required"`
}

func CreateAssignmentHandler(courses *course.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := chi.URLParam(r, "courseID")
		if err := canManageCourse(r.Context(), courses, courseID); err != nil {
			writeError(w, err)
			return
		}
		var req assignmentReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "bad json")
			return
		}
		if err := validate.Struct(req); err != nil {
			badRequest(w, err.Error())
			return
		}
		a := course.Assignment{
			ID:           uuid.NewString(),
			CourseID:     courseID,
			Title:        req.Title,
			Description:  req.Description,
			DueAt:        req.DueAt,
			FileRequired: req.FileRequired,
		}
		if err := courses.AddAssignment(r.Context(), a); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, a)
	}
}

func ListSubmissionsHandler(courses *course.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assignmentID := chi.URLParam(r, "assignmentID")
		a, err := courses.GetAssignment(r.Context(), assignmentID)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := canManageCourse(r.Context(), courses, a.CourseID); err != nil {
			writeError(w, err)
			return
		}
		out, err := courses.ListSubmissions(r.Context(), assignmentID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func RosterHandler(courses *course.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := chi.URLParam(r, "courseID")
		if err := canManageCourse(r.Context(), courses, courseID); err != nil {
			writeError(w, err)
			return
		}
		out, err := courses.Roster(r.Context(), courseID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}
