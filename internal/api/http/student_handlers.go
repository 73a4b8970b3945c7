package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/learngate/learngate/internal/audit"
	"github.com/learngate/learngate/internal/auth"
	"github.com/learngate/learngate/internal/course"
	"github.com/learngate/learngate/internal/dashboard"
	"github.com/learngate/learngate/internal/enroll"
	"github.com/learngate/learngate/internal/exam"
)

func EnrollHandler(svc *enroll.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID := auth.SubjectFromContext(r.Context())
		courseID := chi.URLParam(r, "courseID")
		en, err := svc.Enroll(r.Context(), studentID, courseID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, en)
	}
}

func UnenrollHandler(svc *enroll.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID := auth.SubjectFromContext(r.Context())
		courseID := chi.URLParam(r, "courseID")
		if err := svc.Unenroll(r.Context(), studentID, courseID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func DropCourseHandler(svc *enroll.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID := auth.SubjectFromContext(r.Context())
		courseID := chi.URLParam(r, "courseID")
		if err := svc.Drop(r.Context(), studentID, courseID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func CompleteCourseHandler(svc *enroll.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID := auth.SubjectFromContext(r.Context())
		courseID := chi.URLParam(r, "courseID")
		if err := svc.Complete(r.Context(), studentID, courseID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func EnrolledCoursesHandler(svc *enroll.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID := auth.SubjectFromContext(r.Context())
		out, err := svc.ListEnrolled(r.Context(), studentID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func AvailableCoursesHandler(svc *enroll.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID := auth.SubjectFromContext(r.Context())
		out, err := svc.ListAvailable(r.Context(), studentID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func DashboardHandler(svc *enroll.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID := auth.SubjectFromContext(r.Context())
		courses, err := svc.ListEnrolled(r.Context(), studentID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, dashboard.Build(courses, time.Now()))
	}
}

func CompleteLessonHandler(svc *enroll.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID := auth.SubjectFromContext(r.Context())
		lessonID := chi.URLParam(r, "lessonID")
		if err := svc.CompleteLesson(r.Context(), studentID, lessonID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type submitAssignmentReq struct {
	SubmissionType string `json:"submission_type" validate:"required,oneof=file text"`
	FileURL        string `json:"file_url"`
	Body           string `json:"body"`
}

func SubmitAssignmentHandler(courses *course.Store, log *audit.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID := auth.SubjectFromContext(r.Context())
		assignmentID := chi.URLParam(r, "assignmentID")

		var req submitAssignmentReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "bad json")
			return
		}
		if err := validate.Struct(req); err != nil {
			badRequest(w, err.Error())
			return
		}

		sub := course.Submission{
			ID:             uuid.NewString(),
			AssignmentID:   assignmentID,
			StudentID:      studentID,
			SubmissionType: req.SubmissionType,
			SubmittedAt:    time.Now().Unix(),
		}
		if req.FileURL != "" {
			sub.FileURL = &req.FileURL
		}
		if req.Body != "" {
			sub.Body = &req.Body
		}
		if err := courses.SubmitAssignment(r.Context(), sub); err != nil {
			writeError(w, err)
			return
		}
		_ = log.Record(r.Context(), "AssignmentSubmitted", sub.ID, sub)
		writeJSON(w, http.StatusCreated, sub)
	}
}

func MyResultsHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID := auth.SubjectFromContext(r.Context())
		out, err := store.ListResultsForStudent(r.Context(), studentID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}
