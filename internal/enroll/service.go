package enroll

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/learngate/learngate/internal/apperr"
	"github.com/learngate/learngate/internal/audit"
	"github.com/learngate/learngate/internal/db"
	"github.com/learngate/learngate/internal/exam"
)

// Service owns the student<->course lifecycle:
//
//	unenrolled -> active -> {dropped, completed}
//
// dropped and completed are terminal for a record; re-enrolling creates a
// new one. The enrollments table is the single source of truth — course
// rosters and student course lists are computed from it, so there is no
// mirrored state to fall out of sync on partial failure.
type Service struct {
	db    *sql.DB
	log   *audit.Log
	exams exam.Store
}

func NewService(dbh *sql.DB, log *audit.Log, exams exam.Store) *Service {
	return &Service{db: dbh, log: log, exams: exams}
}

// Enroll creates an active enrollment. The pre-check gives a friendly
// conflict on the common path; the partial unique index closes the
// check-then-act window when two requests race.
func (s *Service) Enroll(ctx context.Context, studentID, courseID string) (Enrollment, error) {
	if err := s.courseExists(ctx, courseID); err != nil {
		return Enrollment{}, err
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM enrollments WHERE course_id=$1 AND student_id=$2 AND status=$3)`,
		courseID, studentID, StatusActive).Scan(&exists); err != nil {
		return Enrollment{}, err
	}
	if exists {
		return Enrollment{}, fmt.Errorf("already enrolled in course %s: %w", courseID, apperr.ErrConflict)
	}

	e := Enrollment{
		ID:         uuid.NewString(),
		CourseID:   courseID,
		StudentID:  studentID,
		Status:     StatusActive,
		EnrolledAt: time.Now().Unix(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO enrollments (id,course_id,student_id,status,enrolled_at) VALUES ($1,$2,$3,$4,$5)`,
		e.ID, e.CourseID, e.StudentID, e.Status, e.EnrolledAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Enrollment{}, fmt.Errorf("already enrolled in course %s: %w", courseID, apperr.ErrConflict)
		}
		return Enrollment{}, err
	}
	_ = s.log.Record(ctx, "EnrollmentCreated", e.ID, e)
	return e, nil
}

// Unenroll deletes the active enrollment and the student's lesson progress
// for that course in one transaction. Either everything goes or nothing
// does; there is no partial-failure window.
func (s *Service) Unenroll(ctx context.Context, studentID, courseID string) error {
	if err := s.courseExists(ctx, courseID); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM enrollments WHERE course_id=$1 AND student_id=$2 AND status=$3`,
		courseID, studentID, StatusActive)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("no active enrollment in course %s: %w", courseID, apperr.ErrNotFound)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM lesson_progress WHERE student_id=$1
		   AND lesson_id IN (SELECT id FROM lessons WHERE course_id=$2)`,
		studentID, courseID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	_ = s.log.Record(ctx, "EnrollmentRemoved", courseID+"/"+studentID, nil)
	return nil
}

// Drop marks the active enrollment dropped. Terminal: the record is never
// reactivated.
func (s *Service) Drop(ctx context.Context, studentID, courseID string) error {
	return s.finish(ctx, studentID, courseID, StatusDropped)
}

// Complete marks the active enrollment completed.
func (s *Service) Complete(ctx context.Context, studentID, courseID string) error {
	return s.finish(ctx, studentID, courseID, StatusCompleted)
}

func (s *Service) finish(ctx context.Context, studentID, courseID, status string) error {
	var completedAt *int64
	if status == StatusCompleted {
		now := time.Now().Unix()
		completedAt = &now
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE enrollments SET status=$1, completed_at=$2 WHERE course_id=$3 AND student_id=$4 AND status=$5`,
		status, completedAt, courseID, studentID, StatusActive)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("no active enrollment in course %s: %w", courseID, apperr.ErrNotFound)
	}
	_ = s.log.Record(ctx, "EnrollmentFinished", courseID+"/"+studentID, map[string]string{"status": status})
	return nil
}

// ListEnrolled returns the student's active courses, populated with owning
// teacher, lessons annotated with completion, and exam summaries.
func (s *Service) ListEnrolled(ctx context.Context, studentID string) ([]CourseView, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.title, c.description, c.category, c.start_at, c.end_at, en.enrolled_at,
		        t.id, t.username, t.full_name
		   FROM courses c
		   JOIN enrollments en ON en.course_id=c.id AND en.student_id=$1 AND en.status=$2
		   LEFT JOIN users t ON t.id=c.teacher_id
		  ORDER BY en.enrolled_at DESC`, studentID, StatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []CourseView{}
	for rows.Next() {
		var cv CourseView
		var tid, tuser, tname sql.NullString
		if err := rows.Scan(&cv.ID, &cv.Title, &cv.Description, &cv.Category, &cv.StartAt, &cv.EndAt,
			&cv.EnrolledAt, &tid, &tuser, &tname); err != nil {
			return nil, err
		}
		if tid.Valid {
			cv.Teacher = &TeacherInfo{ID: tid.String, Username: tuser.String, FullName: tname.String}
		}
		out = append(out, cv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		lessons, err := s.lessonsFor(ctx, out[i].ID, studentID)
		if err != nil {
			return nil, err
		}
		out[i].Lessons = lessons
		exams, err := s.exams.ListByCourse(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Exams = exams
	}
	return out, nil
}

// ListAvailable returns courses the student has no active enrollment in.
func (s *Service) ListAvailable(ctx context.Context, studentID string) ([]CourseView, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.title, c.description, c.category, c.start_at, c.end_at,
		        t.id, t.username, t.full_name
		   FROM courses c
		   LEFT JOIN users t ON t.id=c.teacher_id
		  WHERE NOT EXISTS (
		        SELECT 1 FROM enrollments en
		         WHERE en.course_id=c.id AND en.student_id=$1 AND en.status=$2)
		  ORDER BY c.created_at DESC`, studentID, StatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []CourseView{}
	for rows.Next() {
		var cv CourseView
		var tid, tuser, tname sql.NullString
		if err := rows.Scan(&cv.ID, &cv.Title, &cv.Description, &cv.Category, &cv.StartAt, &cv.EndAt,
			&tid, &tuser, &tname); err != nil {
			return nil, err
		}
		if tid.Valid {
			cv.Teacher = &TeacherInfo{ID: tid.String, Username: tuser.String, FullName: tname.String}
		}
		out = append(out, cv)
	}
	return out, rows.Err()
}

// IsActive reports whether the student holds an active enrollment in the
// course.
func (s *Service) IsActive(ctx context.Context, studentID, courseID string) (bool, error) {
	var ok bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM enrollments WHERE course_id=$1 AND student_id=$2 AND status=$3)`,
		courseID, studentID, StatusActive).Scan(&ok)
	return ok, err
}

// CompleteLesson flips the student's progress flag for a lesson in a course
// they are actively enrolled in.
func (s *Service) CompleteLesson(ctx context.Context, studentID, lessonID string) error {
	var courseID string
	err := s.db.QueryRowContext(ctx, `SELECT course_id FROM lessons WHERE id=$1`, lessonID).Scan(&courseID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("lesson %s: %w", lessonID, apperr.ErrNotFound)
	}
	if err != nil {
		return err
	}

	var enrolled bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM enrollments WHERE course_id=$1 AND student_id=$2 AND status=$3)`,
		courseID, studentID, StatusActive).Scan(&enrolled); err != nil {
		return err
	}
	if !enrolled {
		return fmt.Errorf("not enrolled in course %s: %w", courseID, apperr.ErrForbidden)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO lesson_progress (lesson_id, student_id, completed, completed_at) VALUES ($1,$2,$3,$4)
		 ON CONFLICT (lesson_id, student_id) DO UPDATE SET completed=EXCLUDED.completed, completed_at=EXCLUDED.completed_at`,
		lessonID, studentID, true, time.Now().Unix())
	return err
}

func (s *Service) lessonsFor(ctx context.Context, courseID, studentID string) ([]LessonView, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT l.id, l.title, l.content, l.position, l.due_at, l.created_at,
		        COALESCE(p.completed, $1)
		   FROM lessons l
		   LEFT JOIN lesson_progress p ON p.lesson_id=l.id AND p.student_id=$2
		  WHERE l.course_id=$3
		  ORDER BY l.position, l.created_at`, false, studentID, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []LessonView{}
	for rows.Next() {
		var lv LessonView
		if err := rows.Scan(&lv.ID, &lv.Title, &lv.Content, &lv.Position, &lv.DueAt, &lv.CreatedAt, &lv.Completed); err != nil {
			return nil, err
		}
		out = append(out, lv)
	}
	return out, rows.Err()
}

func (s *Service) courseExists(ctx context.Context, courseID string) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM courses WHERE id=$1`, courseID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("course %s: %w", courseID, apperr.ErrNotFound)
	}
	return err
}
