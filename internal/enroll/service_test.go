package enroll_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/learngate/learngate/internal/apperr"
	"github.com/learngate/learngate/internal/audit"
	"github.com/learngate/learngate/internal/db"
	"github.com/learngate/learngate/internal/enroll"
	"github.com/learngate/learngate/internal/exam"
)

func newTestDB(t *testing.T, name string) *sql.DB {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	dbh, err := db.Open(ctx, db.DriverSQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = dbh.Close() })
	return dbh
}

func seedUser(t *testing.T, dbh *sql.DB, id, role string) {
	t.Helper()
	_, err := dbh.Exec(`INSERT INTO users (id,username,email,password_hash,role,active,created_at)
		VALUES ($1,$2,$3,'x',$4,1,$5)`, id, id, id+"@example.com", role, time.Now().Unix())
	if err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
}

func seedCourse(t *testing.T, dbh *sql.DB, id, teacherID string) {
	t.Helper()
	var tid any
	if teacherID != "" {
		tid = teacherID
	}
	_, err := dbh.Exec(`INSERT INTO courses (id,title,teacher_id,created_at) VALUES ($1,$2,$3,$4)`,
		id, "Course "+id, tid, time.Now().Unix())
	if err != nil {
		t.Fatalf("seed course %s: %v", id, err)
	}
}

func seedLesson(t *testing.T, dbh *sql.DB, id, courseID string, pos int) {
	t.Helper()
	_, err := dbh.Exec(`INSERT INTO lessons (id,course_id,title,position,created_at) VALUES ($1,$2,$3,$4,$5)`,
		id, courseID, "Lesson "+id, pos, time.Now().Unix())
	if err != nil {
		t.Fatalf("seed lesson %s: %v", id, err)
	}
}

func newService(dbh *sql.DB) *enroll.Service {
	return enroll.NewService(dbh, audit.NewLog(dbh), exam.NewSQLStore(dbh))
}

func TestEnrollThenListsFlip(t *testing.T) {
	dbh := newTestDB(t, "enroll_lists")
	svc := newService(dbh)
	ctx := context.Background()

	seedUser(t, dbh, "t1", "teacher")
	seedUser(t, dbh, "s1", "student")
	seedCourse(t, dbh, "c1", "t1")

	avail, err := svc.ListAvailable(ctx, "s1")
	if err != nil {
		t.Fatalf("list available: %v", err)
	}
	if len(avail) != 1 || avail[0].ID != "c1" {
		t.Fatalf("expected c1 available, got %+v", avail)
	}

	en, err := svc.Enroll(ctx, "s1", "c1")
	if err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if en.Status != enroll.StatusActive {
		t.Fatalf("expected active enrollment, got %q", en.Status)
	}

	enrolled, err := svc.ListEnrolled(ctx, "s1")
	if err != nil {
		t.Fatalf("list enrolled: %v", err)
	}
	if len(enrolled) != 1 || enrolled[0].ID != "c1" {
		t.Fatalf("expected c1 enrolled, got %+v", enrolled)
	}
	if enrolled[0].Teacher == nil || enrolled[0].Teacher.ID != "t1" {
		t.Fatalf("expected owning teacher t1, got %+v", enrolled[0].Teacher)
	}

	avail, err = svc.ListAvailable(ctx, "s1")
	if err != nil {
		t.Fatalf("list available: %v", err)
	}
	if len(avail) != 0 {
		t.Fatalf("enrolled course should not be available, got %+v", avail)
	}

	if err := svc.Unenroll(ctx, "s1", "c1"); err != nil {
		t.Fatalf("unenroll: %v", err)
	}
	enrolled, _ = svc.ListEnrolled(ctx, "s1")
	if len(enrolled) != 0 {
		t.Fatalf("expected no enrolled courses after unenroll, got %+v", enrolled)
	}
	avail, _ = svc.ListAvailable(ctx, "s1")
	if len(avail) != 1 {
		t.Fatalf("course should be available again after unenroll, got %+v", avail)
	}
}

func TestEnrollTwiceConflicts(t *testing.T) {
	dbh := newTestDB(t, "enroll_twice")
	svc := newService(dbh)
	ctx := context.Background()

	seedUser(t, dbh, "s1", "student")
	seedCourse(t, dbh, "c1", "")

	first, err := svc.Enroll(ctx, "s1", "c1")
	if err != nil {
		t.Fatalf("first enroll: %v", err)
	}
	if _, err := svc.Enroll(ctx, "s1", "c1"); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// First enrollment untouched.
	var status string
	if err := dbh.QueryRow(`SELECT status FROM enrollments WHERE id=$1`, first.ID).Scan(&status); err != nil {
		t.Fatalf("first enrollment gone: %v", err)
	}
	if status != enroll.StatusActive {
		t.Fatalf("expected active, got %q", status)
	}
	var n int
	_ = dbh.QueryRow(`SELECT COUNT(*) FROM enrollments WHERE course_id='c1' AND student_id='s1'`).Scan(&n)
	if n != 1 {
		t.Fatalf("expected exactly one enrollment row, got %d", n)
	}
}

func TestEnrollMissingCourse(t *testing.T) {
	dbh := newTestDB(t, "enroll_missing")
	svc := newService(dbh)

	seedUser(t, dbh, "s1", "student")
	if _, err := svc.Enroll(context.Background(), "s1", "ghost"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := svc.Unenroll(context.Background(), "s1", "ghost"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUnenrollRemovesProgress(t *testing.T) {
	dbh := newTestDB(t, "unenroll_progress")
	svc := newService(dbh)
	ctx := context.Background()

	seedUser(t, dbh, "s1", "student")
	seedCourse(t, dbh, "c1", "")
	seedLesson(t, dbh, "l1", "c1", 0)

	if _, err := svc.Enroll(ctx, "s1", "c1"); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if err := svc.CompleteLesson(ctx, "s1", "l1"); err != nil {
		t.Fatalf("complete lesson: %v", err)
	}

	enrolled, err := svc.ListEnrolled(ctx, "s1")
	if err != nil {
		t.Fatalf("list enrolled: %v", err)
	}
	if len(enrolled) != 1 || len(enrolled[0].Lessons) != 1 || !enrolled[0].Lessons[0].Completed {
		t.Fatalf("expected completed lesson in view, got %+v", enrolled)
	}

	if err := svc.Unenroll(ctx, "s1", "c1"); err != nil {
		t.Fatalf("unenroll: %v", err)
	}
	var n int
	_ = dbh.QueryRow(`SELECT COUNT(*) FROM lesson_progress WHERE student_id='s1'`).Scan(&n)
	if n != 0 {
		t.Fatalf("expected lesson progress removed with enrollment, got %d rows", n)
	}
}

func TestCompleteLessonRequiresEnrollment(t *testing.T) {
	dbh := newTestDB(t, "lesson_requires_enrollment")
	svc := newService(dbh)
	ctx := context.Background()

	seedUser(t, dbh, "s1", "student")
	seedCourse(t, dbh, "c1", "")
	seedLesson(t, dbh, "l1", "c1", 0)

	if err := svc.CompleteLesson(ctx, "s1", "l1"); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := svc.CompleteLesson(ctx, "s1", "ghost"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDropIsTerminalAndReenrollCreatesNewRecord(t *testing.T) {
	dbh := newTestDB(t, "drop_terminal")
	svc := newService(dbh)
	ctx := context.Background()

	seedUser(t, dbh, "s1", "student")
	seedCourse(t, dbh, "c1", "")

	first, err := svc.Enroll(ctx, "s1", "c1")
	if err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if err := svc.Drop(ctx, "s1", "c1"); err != nil {
		t.Fatalf("drop: %v", err)
	}
	// No active record left to drop again.
	if err := svc.Drop(ctx, "s1", "c1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// Course shows as available again; re-enroll makes a second record.
	avail, _ := svc.ListAvailable(ctx, "s1")
	if len(avail) != 1 {
		t.Fatalf("dropped course should be available, got %+v", avail)
	}
	second, err := svc.Enroll(ctx, "s1", "c1")
	if err != nil {
		t.Fatalf("re-enroll: %v", err)
	}
	if second.ID == first.ID {
		t.Fatalf("re-enroll must create a new record")
	}
	var n int
	_ = dbh.QueryRow(`SELECT COUNT(*) FROM enrollments WHERE course_id='c1' AND student_id='s1'`).Scan(&n)
	if n != 2 {
		t.Fatalf("expected dropped + active records, got %d", n)
	}
}

func TestCompleteSetsCompletedAt(t *testing.T) {
	dbh := newTestDB(t, "complete_course")
	svc := newService(dbh)
	ctx := context.Background()

	seedUser(t, dbh, "s1", "student")
	seedCourse(t, dbh, "c1", "")

	if _, err := svc.Enroll(ctx, "s1", "c1"); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if err := svc.Complete(ctx, "s1", "c1"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	var status string
	var completedAt sql.NullInt64
	if err := dbh.QueryRow(`SELECT status, completed_at FROM enrollments WHERE course_id='c1' AND student_id='s1'`).
		Scan(&status, &completedAt); err != nil {
		t.Fatalf("read back: %v", err)
	}
	if status != enroll.StatusCompleted || !completedAt.Valid {
		t.Fatalf("expected completed with timestamp, got %q %+v", status, completedAt)
	}
}
