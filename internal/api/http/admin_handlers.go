package http

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/learngate/learngate/internal/audit"
	"github.com/learngate/learngate/internal/course"
)

type courseReq struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description"`
	Category    string `json:"category" validate:"max=64"`
	StartAt     *int64 `json:"start_at"`
	EndAt       *int64 `json:"end_at"`
}

func CreateCourseHandler(courses *course.Store, log *audit.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req courseReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "bad json")
			return
		}
		if err := validate.Struct(req); err != nil {
			badRequest(w, err.Error())
			return
		}
		c := course.Course{
			ID:          uuid.NewString(),
			Title:       req.Title,
			Description: req.Description,
			Category:    req.Category,
			StartAt:     req.StartAt,
			EndAt:       req.EndAt,
		}
		if err := courses.Create(r.Context(), c); err != nil {
			writeError(w, err)
			return
		}
		_ = log.Record(r.Context(), "CourseCreated", c.ID, c)
		writeJSON(w, http.StatusCreated, c)
	}
}

func UpdateCourseHandler(courses *course.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req courseReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "bad json")
			return
		}
		if err := validate.Struct(req); err != nil {
			badRequest(w, err.Error())
			return
		}
		c := course.Course{
			ID:          chi.URLParam(r, "courseID"),
			Title:       req.Title,
			Description: req.Description,
			Category:    req.Category,
			StartAt:     req.StartAt,
			EndAt:       req.EndAt,
		}
		if err := courses.Update(r.Context(), c); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func DeleteCourseHandler(courses *course.Store, log *audit.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "courseID")
		if err := courses.Delete(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		_ = log.Record(r.Context(), "CourseDeleted", id, nil)
		w.WriteHeader(http.StatusNoContent)
	}
}

func ListCoursesHandler(courses *course.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := courses.List(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func GetCourseHandler(courses *course.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := courses.Get(r.Context(), chi.URLParam(r, "courseID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

type assignTeacherReq struct {
	TeacherID string `json:"teacher_id"`
}

// AssignTeacherHandler sets or clears the owning teacher of a course. An
// empty teacher_id unassigns.
func AssignTeacherHandler(courses *course.Store, log *audit.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := chi.URLParam(r, "courseID")
		var req assignTeacherReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "bad json")
			return
		}
		if err := courses.AssignTeacher(r.Context(), courseID, req.TeacherID); err != nil {
			writeError(w, err)
			return
		}
		_ = log.Record(r.Context(), "TeacherAssigned", courseID, map[string]string{"teacher_id": req.TeacherID})
		w.WriteHeader(http.StatusNoContent)
	}
}

type userInfo struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FullName  string `json:"full_name,omitempty"`
	Role      string `json:"role"`
	Active    bool   `json:"active"`
	CreatedAt int64  `json:"created_at"`
}

func ListUsersHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := `SELECT id,username,email,full_name,role,active,created_at FROM users ORDER BY created_at DESC`
		args := []any{}
		if role := r.URL.Query().Get("role"); role != "" {
			q = `SELECT id,username,email,full_name,role,active,created_at FROM users WHERE role=$1 ORDER BY created_at DESC`
			args = append(args, role)
		}
		rows, err := db.QueryContext(r.Context(), q, args...)
		if err != nil {
			writeError(w, err)
			return
		}
		defer rows.Close()
		out := []userInfo{}
		for rows.Next() {
			var u userInfo
			if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.Role, &u.Active, &u.CreatedAt); err != nil {
				writeError(w, err)
				return
			}
			out = append(out, u)
		}
		if err := rows.Err(); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// DeactivateUserHandler flips active off. The account keeps its rows but can
// no longer log in or pass the per-request identity check.
func DeactivateUserHandler(db *sql.DB, log *audit.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "userID")
		res, err := db.ExecContext(r.Context(), `UPDATE users SET active=$1 WHERE id=$2`, false, id)
		if err != nil {
			writeError(w, err)
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
			return
		}
		_ = log.Record(r.Context(), "UserDeactivated", id, nil)
		w.WriteHeader(http.StatusNoContent)
	}
}

func ReactivateUserHandler(db *sql.DB, log *audit.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "userID")
		res, err := db.ExecContext(r.Context(), `UPDATE users SET active=$1 WHERE id=$2`, true, id)
		if err != nil {
			writeError(w, err)
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
			return
		}
		_ = log.Record(r.Context(), "UserReactivated", id, nil)
		w.WriteHeader(http.StatusNoContent)
	}
}
