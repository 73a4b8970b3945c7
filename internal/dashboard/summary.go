package dashboard

import (
	"time"

	"github.com/learngate/learngate/internal/enroll"
	"github.com/learngate/learngate/internal/exam"
)

// Summary is a stateless projection over a student's enrolled courses.
type Summary struct {
	EnrolledCount int                `json:"enrolled_count"`
	UpcomingCount int                `json:"upcoming_count"`
	FinishedCount int                `json:"finished_count"`
	NextExam      *exam.Summary      `json:"next_exam,omitempty"`
	LatestLesson  *enroll.LessonView `json:"latest_lesson,omitempty"`
}

// Build derives the dashboard from already-populated course views.
func Build(courses []enroll.CourseView, now time.Time) Summary {
	s := Summary{EnrolledCount: len(courses)}
	ts := now.Unix()

	for i := range courses {
		c := &courses[i]
		if c.StartAt != nil && *c.StartAt > ts {
			s.UpcomingCount++
		}
		if c.EndAt != nil && *c.EndAt < ts {
			s.FinishedCount++
		}
		for j := range c.Exams {
			e := &c.Exams[j]
			if e.DueAt == nil || *e.DueAt < ts {
				continue
			}
			if s.NextExam == nil || *e.DueAt < *s.NextExam.DueAt {
				s.NextExam = e
			}
		}
		for j := range c.Lessons {
			l := &c.Lessons[j]
			if s.LatestLesson == nil || l.CreatedAt > s.LatestLesson.CreatedAt {
				s.LatestLesson = l
			}
		}
	}
	return s
}
