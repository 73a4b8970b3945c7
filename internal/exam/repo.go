package exam

import "context"

type Store interface {
	PutExam(ctx context.Context, e Exam) error
	GetExam(ctx context.Context, id string) (Exam, error)     // student-safe (no answer key)
	GetExamFull(ctx context.Context, id string) (Exam, error) // grading/teachers
	DeleteExam(ctx context.Context, courseID, examID string) error
	ListByCourse(ctx context.Context, courseID string) ([]Summary, error)

	SaveResult(ctx context.Context, res Result) error
	ListResultsForStudent(ctx context.Context, studentID string) ([]Result, error)
	ListResultsForExam(ctx context.Context, examID string) ([]Result, error)
}
