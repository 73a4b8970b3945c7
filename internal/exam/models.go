package exam

// Question is a single multiple-choice item. Correct is an index into
// Options; it is nil on anything served to students.
type Question struct {
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
	Correct *int     `json:"correct,omitempty"`
}

type Exam struct {
	ID          string     `json:"id"`
	CourseID    string     `json:"course_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Questions   []Question `json:"questions"`
	TotalScore  float64    `json:"total_score"`
	DueAt       *int64     `json:"due_at,omitempty"` // unix seconds
	CreatedAt   int64      `json:"created_at,omitempty"`
}

// Summary is the list view of an exam, without questions.
type Summary struct {
	ID         string  `json:"id"`
	CourseID   string  `json:"course_id"`
	Title      string  `json:"title"`
	TotalScore float64 `json:"total_score"`
	DueAt      *int64  `json:"due_at,omitempty"`
}

// Result is one finished attempt. Only the final score is kept; the
// per-question answers are discarded after grading.
type Result struct {
	ID          string  `json:"id"`
	ExamID      string  `json:"exam_id"`
	StudentID   string  `json:"student_id"`
	Score       float64 `json:"score"`
	Percentage  int     `json:"percentage"` // derived, never stored
	SubmittedAt int64   `json:"submitted_at"`
}
