package enroll

import "github.com/learngate/learngate/internal/exam"

const (
	StatusActive    = "active"
	StatusDropped   = "dropped"
	StatusCompleted = "completed"
)

type Enrollment struct {
	ID          string `json:"id"`
	CourseID    string `json:"course_id"`
	StudentID   string `json:"student_id"`
	Status      string `json:"status"`
	EnrolledAt  int64  `json:"enrolled_at"`
	CompletedAt *int64 `json:"completed_at,omitempty"`
}

type TeacherInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name,omitempty"`
}

// LessonView is a lesson annotated with the viewing student's completion.
type LessonView struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content,omitempty"`
	Position  int    `json:"position"`
	DueAt     *int64 `json:"due_at,omitempty"`
	CreatedAt int64  `json:"created_at"`
	Completed bool   `json:"completed"`
}

// CourseView is a course as one student sees it.
type CourseView struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Category    string         `json:"category,omitempty"`
	StartAt     *int64         `json:"start_at,omitempty"`
	EndAt       *int64         `json:"end_at,omitempty"`
	Teacher     *TeacherInfo   `json:"teacher,omitempty"`
	Lessons     []LessonView   `json:"lessons,omitempty"`
	Exams       []exam.Summary `json:"exams,omitempty"`
	EnrolledAt  int64          `json:"enrolled_at,omitempty"`
}
