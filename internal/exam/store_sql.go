package exam

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/learngate/learngate/internal/apperr"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) PutExam(ctx context.Context, e Exam) error {
	if e.ID == "" || e.CourseID == "" || e.Title == "" {
		return fmt.Errorf("%w: id, course_id and title required", apperr.ErrValidation)
	}
	if e.TotalScore <= 0 {
		return fmt.Errorf("%w: total_score must be positive", apperr.ErrValidation)
	}
	for i, q := range e.Questions {
		if len(q.Options) < 2 {
			return fmt.Errorf("%w: question %d needs at least two options", apperr.ErrValidation, i)
		}
		if q.Correct == nil || *q.Correct < 0 || *q.Correct >= len(q.Options) {
			return fmt.Errorf("%w: question %d has no valid correct option", apperr.ErrValidation, i)
		}
	}
	qj, err := json.Marshal(e.Questions)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO exams (id,course_id,title,description,questions_json,total_score,due_at,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, description=EXCLUDED.description,
			questions_json=EXCLUDED.questions_json, total_score=EXCLUDED.total_score, due_at=EXCLUDED.due_at`,
		e.ID, e.CourseID, e.Title, e.Description, string(qj), e.TotalScore, e.DueAt, time.Now().Unix())
	return err
}

// GetExam serves the student view: answer keys stripped.
func (s *SQLStore) GetExam(ctx context.Context, id string) (Exam, error) {
	e, err := s.GetExamFull(ctx, id)
	if err != nil {
		return Exam{}, err
	}
	for i := range e.Questions {
		e.Questions[i].Correct = nil
	}
	return e, nil
}

func (s *SQLStore) GetExamFull(ctx context.Context, id string) (Exam, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,course_id,title,description,questions_json,total_score,due_at,created_at FROM exams WHERE id=$1`, id)
	var e Exam
	var qjson string
	if err := row.Scan(&e.ID, &e.CourseID, &e.Title, &e.Description, &qjson, &e.TotalScore, &e.DueAt, &e.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Exam{}, fmt.Errorf("exam %s: %w", id, apperr.ErrNotFound)
		}
		return Exam{}, err
	}
	if err := json.Unmarshal([]byte(qjson), &e.Questions); err != nil {
		return Exam{}, err
	}
	return e, nil
}

// DeleteExam removes the exam from the given course. Results cascade away
// with the row.
func (s *SQLStore) DeleteExam(ctx context.Context, courseID, examID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM exams WHERE id=$1 AND course_id=$2`, examID, courseID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("exam %s in course %s: %w", examID, courseID, apperr.ErrNotFound)
	}
	return nil
}

func (s *SQLStore) ListByCourse(ctx context.Context, courseID string) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,course_id,title,total_score,due_at FROM exams WHERE course_id=$1 ORDER BY created_at`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Summary{}
	for rows.Next() {
		var sm Summary
		if err := rows.Scan(&sm.ID, &sm.CourseID, &sm.Title, &sm.TotalScore, &sm.DueAt); err != nil {
			return nil, err
		}
		out = append(out, sm)
	}
	return out, rows.Err()
}

func (s *SQLStore) SaveResult(ctx context.Context, res Result) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exam_results (id,exam_id,student_id,score,submitted_at) VALUES ($1,$2,$3,$4,$5)`,
		res.ID, res.ExamID, res.StudentID, res.Score, res.SubmittedAt)
	return err
}

func (s *SQLStore) ListResultsForStudent(ctx context.Context, studentID string) ([]Result, error) {
	return s.listResults(ctx,
		`SELECT r.id,r.exam_id,r.student_id,r.score,r.submitted_at,e.total_score
		   FROM exam_results r JOIN exams e ON e.id=r.exam_id
		  WHERE r.student_id=$1 ORDER BY r.submitted_at DESC`, studentID)
}

func (s *SQLStore) ListResultsForExam(ctx context.Context, examID string) ([]Result, error) {
	return s.listResults(ctx,
		`SELECT r.id,r.exam_id,r.student_id,r.score,r.submitted_at,e.total_score
		   FROM exam_results r JOIN exams e ON e.id=r.exam_id
		  WHERE r.exam_id=$1 ORDER BY r.submitted_at DESC`, examID)
}

func (s *SQLStore) listResults(ctx context.Context, query string, arg any) ([]Result, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Result{}
	for rows.Next() {
		var r Result
		var total float64
		if err := rows.Scan(&r.ID, &r.ExamID, &r.StudentID, &r.Score, &r.SubmittedAt, &total); err != nil {
			return nil, err
		}
		r.Percentage = Percentage(r.Score, total)
		out = append(out, r)
	}
	return out, rows.Err()
}
