package course_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/learngate/learngate/internal/apperr"
	"github.com/learngate/learngate/internal/course"
	"github.com/learngate/learngate/internal/db"
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

func strp(s string) *string { return &s }

func TestCourseCreateGetUpdate(t *testing.T) {
	dbh := newTestDB(t, "course_crud")
	st := course.NewStore(dbh)
	ctx := context.Background()

	if err := st.Create(ctx, course.Course{ID: "c1", Title: "Algebra", Category: "math"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := st.Create(ctx, course.Course{ID: "c2"}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected ErrValidation for missing title, got %v", err)
	}

	c, err := st.Get(ctx, "c1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if c.Title != "Algebra" || c.Category != "math" {
		t.Fatalf("unexpected course %+v", c)
	}

	c.Title = "Algebra II"
	if err := st.Update(ctx, c); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := st.Update(ctx, course.Course{ID: "ghost", Title: "x"}); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAssignTeacher(t *testing.T) {
	dbh := newTestDB(t, "course_assign")
	st := course.NewStore(dbh)
	ctx := context.Background()

	seedUser(t, dbh, "t1", "teacher")
	seedUser(t, dbh, "s1", "student")
	if err := st.Create(ctx, course.Course{ID: "c1", Title: "Algebra"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := st.AssignTeacher(ctx, "c1", "t1"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	owner, err := st.IsOwner(ctx, "c1", "t1")
	if err != nil || !owner {
		t.Fatalf("t1 should own c1 (err=%v)", err)
	}

	if err := st.AssignTeacher(ctx, "c1", "s1"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("assigning a student should fail validation, got %v", err)
	}
	if err := st.AssignTeacher(ctx, "c1", "ghost"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown teacher, got %v", err)
	}

	// Unassign.
	if err := st.AssignTeacher(ctx, "c1", ""); err != nil {
		t.Fatalf("unassign: %v", err)
	}
	c, _ := st.Get(ctx, "c1")
	if c.TeacherID != nil {
		t.Fatalf("expected no teacher, got %v", *c.TeacherID)
	}
}

func TestSubmitAssignment(t *testing.T) {
	dbh := newTestDB(t, "course_submit")
	st := course.NewStore(dbh)
	ctx := context.Background()

	seedUser(t, dbh, "s1", "student")
	if err := st.Create(ctx, course.Course{ID: "c1", Title: "Algebra"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := st.AddAssignment(ctx, course.Assignment{ID: "a1", CourseID: "c1", Title: "HW1", FileRequired: true}); err != nil {
		t.Fatalf("add assignment: %v", err)
	}

	sub := course.Submission{
		ID: "sub1", AssignmentID: "a1", StudentID: "s1",
		SubmissionType: "file", FileURL: strp("uploads/a1/s1.pdf"), SubmittedAt: time.Now().Unix(),
	}

	// Not enrolled yet.
	if err := st.SubmitAssignment(ctx, sub); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected ErrForbidden before enrollment, got %v", err)
	}

	_, err := dbh.Exec(`INSERT INTO enrollments (id,course_id,student_id,status,enrolled_at)
		VALUES ('e1','c1','s1','active',$1)`, time.Now().Unix())
	if err != nil {
		t.Fatalf("seed enrollment: %v", err)
	}

	// File required but missing.
	noFile := sub
	noFile.ID = "sub0"
	noFile.FileURL = nil
	if err := st.SubmitAssignment(ctx, noFile); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected ErrValidation without file, got %v", err)
	}

	if err := st.SubmitAssignment(ctx, sub); err != nil {
		t.Fatalf("submit: %v", err)
	}
	// Resubmission is allowed and appends.
	again := sub
	again.ID = "sub2"
	if err := st.SubmitAssignment(ctx, again); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	subs, err := st.ListSubmissions(ctx, "a1")
	if err != nil {
		t.Fatalf("list submissions: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("expected 2 submissions, got %d", len(subs))
	}
}
