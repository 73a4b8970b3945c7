package course

type Course struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Category    string  `json:"category,omitempty"`
	StartAt     *int64  `json:"start_at,omitempty"`
	EndAt       *int64  `json:"end_at,omitempty"`
	TeacherID   *string `json:"teacher_id,omitempty"`
	CreatedAt   int64   `json:"created_at,omitempty"`
}

type Lesson struct {
	ID        string `json:"id"`
	CourseID  string `json:"course_id"`
	Title     string `json:"title"`
	Content   string `json:"content,omitempty"`
	Position  int    `json:"position"`
	DueAt     *int64 `json:"due_at,omitempty"`
	CreatedAt int64  `json:"created_at,omitempty"`
}

type Assignment struct {
	ID           string `json:"id"`
	CourseID     string `json:"course_id"`
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	DueAt        *int64 `json:"due_at,omitempty"`
	FileRequired bool   `json:"file_required"`
	CreatedAt    int64  `json:"created_at,omitempty"`
}

// Submission is append-only: a student may submit the same assignment more
// than once and every submission is kept.
type Submission struct {
	ID             string  `json:"id"`
	AssignmentID   string  `json:"assignment_id"`
	StudentID      string  `json:"student_id"`
	SubmissionType string  `json:"submission_type"` // file|text
	FileURL        *string `json:"file_url,omitempty"`
	Body           *string `json:"body,omitempty"`
	SubmittedAt    int64   `json:"submitted_at"`
}

type RosterEntry struct {
	StudentID  string `json:"student_id"`
	Username   string `json:"username"`
	Status     string `json:"status"`
	EnrolledAt int64  `json:"enrolled_at"`
}
