package course

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/learngate/learngate/internal/apperr"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Create(ctx context.Context, c Course) error {
	if c.ID == "" || c.Title == "" {
		return fmt.Errorf("%w: id and title required", apperr.ErrValidation)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO courses (id,title,description,category,start_at,end_at,teacher_id,created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		c.ID, c.Title, c.Description, c.Category, c.StartAt, c.EndAt, c.TeacherID, time.Now().Unix())
	return err
}

func (s *Store) Update(ctx context.Context, c Course) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE courses SET title=$1, description=$2, category=$3, start_at=$4, end_at=$5 WHERE id=$6`,
		c.Title, c.Description, c.Category, c.StartAt, c.EndAt, c.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("course %s: %w", c.ID, apperr.ErrNotFound)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (Course, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,title,description,category,start_at,end_at,teacher_id,created_at FROM courses WHERE id=$1`, id)
	var c Course
	if err := row.Scan(&c.ID, &c.Title, &c.Description, &c.Category, &c.StartAt, &c.EndAt, &c.TeacherID, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Course{}, fmt.Errorf("course %s: %w", id, apperr.ErrNotFound)
		}
		return Course{}, err
	}
	return c, nil
}

func (s *Store) List(ctx context.Context) ([]Course, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,title,description,category,start_at,end_at,teacher_id,created_at FROM courses ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Course{}
	for rows.Next() {
		var c Course
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.Category, &c.StartAt, &c.EndAt, &c.TeacherID, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM courses WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("course %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// AssignTeacher sets the owning teacher. A single UPDATE on the authoritative
// column; there is no teacher-side course list to mirror.
func (s *Store) AssignTeacher(ctx context.Context, courseID, teacherID string) error {
	if teacherID != "" {
		var role string
		err := s.db.QueryRowContext(ctx, `SELECT role FROM users WHERE id=$1 AND active`, teacherID).Scan(&role)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("teacher %s: %w", teacherID, apperr.ErrNotFound)
		}
		if err != nil {
			return err
		}
		if role != "teacher" {
			return fmt.Errorf("%w: user %s is not a teacher", apperr.ErrValidation, teacherID)
		}
	}
	var tid any
	if teacherID != "" {
		tid = teacherID
	}
	res, err := s.db.ExecContext(ctx, `UPDATE courses SET teacher_id=$1 WHERE id=$2`, tid, courseID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("course %s: %w", courseID, apperr.ErrNotFound)
	}
	return nil
}

// IsOwner reports whether teacherID owns the course.
func (s *Store) IsOwner(ctx context.Context, courseID, teacherID string) (bool, error) {
	var ok bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM courses WHERE id=$1 AND teacher_id=$2)`, courseID, teacherID).Scan(&ok)
	return ok, err
}

// Roster lists enrollment records for a course, newest first.
func (s *Store) Roster(ctx context.Context, courseID string) ([]RosterEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT en.student_id, u.username, en.status, en.enrolled_at
		   FROM enrollments en JOIN users u ON u.id=en.student_id
		  WHERE en.course_id=$1 ORDER BY en.enrolled_at DESC`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []RosterEntry{}
	for rows.Next() {
		var e RosterEntry
		if err := rows.Scan(&e.StudentID, &e.Username, &e.Status, &e.EnrolledAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) AddLesson(ctx context.Context, l Lesson) error {
	if l.ID == "" || l.CourseID == "" || l.Title == "" {
		return fmt.Errorf("%w: id, course_id and title required", apperr.ErrValidation)
	}
	if err := s.exists(ctx, l.CourseID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO lessons (id,course_id,title,content,position,due_at,created_at) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		l.ID, l.CourseID, l.Title, l.Content, l.Position, l.DueAt, time.Now().Unix())
	return err
}

func (s *Store) UpdateLesson(ctx context.Context, l Lesson) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE lessons SET title=$1, content=$2, position=$3, due_at=$4 WHERE id=$5 AND course_id=$6`,
		l.Title, l.Content, l.Position, l.DueAt, l.ID, l.CourseID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("lesson %s: %w", l.ID, apperr.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteLesson(ctx context.Context, courseID, lessonID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM lessons WHERE id=$1 AND course_id=$2`, lessonID, courseID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("lesson %s: %w", lessonID, apperr.ErrNotFound)
	}
	return nil
}

func (s *Store) AddAssignment(ctx context.Context, a Assignment) error {
	if a.ID == "" || a.CourseID == "" || a.Title == "" {
		return fmt.Errorf("%w: id, course_id and title required", apperr.ErrValidation)
	}
	if err := s.exists(ctx, a.CourseID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO assignments (id,course_id,title,description,due_at,file_required,created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		a.ID, a.CourseID, a.Title, a.Description, a.DueAt, a.FileRequired, time.Now().Unix())
	return err
}

func (s *Store) GetAssignment(ctx context.Context, id string) (Assignment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,course_id,title,description,due_at,file_required,created_at FROM assignments WHERE id=$1`, id)
	var a Assignment
	if err := row.Scan(&a.ID, &a.CourseID, &a.Title, &a.Description, &a.DueAt, &a.FileRequired, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Assignment{}, fmt.Errorf("assignment %s: %w", id, apperr.ErrNotFound)
		}
		return Assignment{}, err
	}
	return a, nil
}

// SubmitAssignment appends a submission. Requires an active enrollment in
// the assignment's course and a file URL when the assignment demands one.
func (s *Store) SubmitAssignment(ctx context.Context, sub Submission) error {
	a, err := s.GetAssignment(ctx, sub.AssignmentID)
	if err != nil {
		return err
	}
	var enrolled bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM enrollments WHERE course_id=$1 AND student_id=$2 AND status='active')`,
		a.CourseID, sub.StudentID).Scan(&enrolled); err != nil {
		return err
	}
	if !enrolled {
		return fmt.Errorf("not enrolled in course %s: %w", a.CourseID, apperr.ErrForbidden)
	}
	if a.FileRequired && (sub.FileURL == nil || *sub.FileURL == "") {
		return fmt.Errorf("%w: assignment requires a file", apperr.ErrValidation)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO assignment_submissions (id,assignment_id,student_id,submission_type,file_url,body,submitted_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		sub.ID, sub.AssignmentID, sub.StudentID, sub.SubmissionType, sub.FileURL, sub.Body, sub.SubmittedAt)
	return err
}

func (s *Store) ListSubmissions(ctx context.Context, assignmentID string) ([]Submission, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,assignment_id,student_id,submission_type,file_url,body,submitted_at
		   FROM assignment_submissions WHERE assignment_id=$1 ORDER BY submitted_at DESC`, assignmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Submission{}
	for rows.Next() {
		var sub Submission
		if err := rows.Scan(&sub.ID, &sub.AssignmentID, &sub.StudentID, &sub.SubmissionType, &sub.FileURL, &sub.Body, &sub.SubmittedAt); err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (s *Store) exists(ctx context.Context, courseID string) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM courses WHERE id=$1`, courseID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("course %s: %w", courseID, apperr.ErrNotFound)
	}
	return err
}
