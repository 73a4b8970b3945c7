package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	api "github.com/learngate/learngate/internal/api/http"
	"github.com/learngate/learngate/internal/audit"
	"github.com/learngate/learngate/internal/auth"
	"github.com/learngate/learngate/internal/config"
	"github.com/learngate/learngate/internal/course"
	"github.com/learngate/learngate/internal/db"
	"github.com/learngate/learngate/internal/enroll"
	"github.com/learngate/learngate/internal/exam"
	"github.com/learngate/learngate/internal/logging"
	"github.com/learngate/learngate/internal/rbac"
	"github.com/learngate/learngate/internal/storage"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	log, err := logging.New(cfg.AppEnv)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatal("db open failed", "driver", cfg.DBDriver, "err", err)
	}

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatal("blob store", "err", err)
	}

	authSvc := auth.NewAuthService(cfg.JWTSecret, cfg.TokenTTL)
	auditLog := audit.NewLog(dbh)
	examStore := exam.NewSQLStore(dbh)
	registry := exam.NewRegistry()
	courses := course.NewStore(dbh)
	enrollSvc := enroll.NewService(dbh, auditLog, examStore)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := dbh.PingContext(r.Context()); err != nil {
			http.Error(w, "db unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", api.RegisterHandler(dbh))
		r.Post("/auth/login", api.LoginHandler(dbh, authSvc))

		// Every protected request re-reads role and active from storage, so a
		// deactivated account or a changed role takes effect immediately,
		// whatever the token still claims.
		r.Group(func(pr chi.Router) {
			pr.Use(auth.Authenticate(authSvc))
			pr.Use(auth.AttachRoleFromDB(dbh))

			pr.With(rbac.Require("user:change_password")).
				Post("/users/change-password", api.ChangePasswordHandler(dbh))

			pr.Route("/files", func(fr chi.Router) {
				fr.Use(rbac.RequireAny("assignment:submit", "assignment:manage"))
				api.MountAssignmentFiles(fr, bs)
			})

			pr.Route("/student", func(sr chi.Router) {
				sr.With(rbac.Require("course:enroll")).
					Post("/enroll/{courseID}", api.EnrollHandler(enrollSvc))
				sr.With(rbac.Require("course:enroll")).
					Delete("/enroll/{courseID}", api.UnenrollHandler(enrollSvc))
				sr.With(rbac.Require("course:enroll")).
					Post("/courses/{courseID}/drop", api.DropCourseHandler(enrollSvc))
				sr.With(rbac.Require("course:enroll")).
					Post("/courses/{courseID}/complete", api.CompleteCourseHandler(enrollSvc))
				sr.With(rbac.Require("course:view")).
					Get("/enrolled-courses", api.EnrolledCoursesHandler(enrollSvc))
				sr.With(rbac.Require("course:view")).
					Get("/available-courses", api.AvailableCoursesHandler(enrollSvc))
				sr.With(rbac.Require("course:view")).
					Get("/dashboard", api.DashboardHandler(enrollSvc))

				sr.With(rbac.Require("lesson:complete")).
					Post("/lessons/{lessonID}/complete", api.CompleteLessonHandler(enrollSvc))
				sr.With(rbac.Require("assignment:submit")).
					Post("/assignments/{assignmentID}/submit", api.SubmitAssignmentHandler(courses, auditLog))

				sr.With(rbac.Require("exam:view")).
					Get("/exams/{examID}", api.GetExamForStudentHandler(examStore))
				sr.With(rbac.Require("attempt:create")).
					Post("/exams/{examID}/attempts", api.StartAttemptHandler(examStore, registry, enrollSvc))
				sr.With(rbac.Require("attempt:answer")).
					Get("/attempts/{attemptID}", api.GetAttemptHandler(registry))
				sr.With(rbac.Require("attempt:answer")).
					Post("/attempts/{attemptID}/answer", api.AnswerHandler(registry))
				sr.With(rbac.Require("attempt:answer")).
					Post("/attempts/{attemptID}/next", api.NextQuestionHandler(registry))
				sr.With(rbac.Require("attempt:answer")).
					Post("/attempts/{attemptID}/previous", api.PreviousQuestionHandler(registry))
				sr.With(rbac.Require("attempt:submit")).
					Post("/attempts/{attemptID}/submit", api.SubmitAttemptHandler(registry, examStore, auditLog))
				sr.With(rbac.Require("attempt:submit")).
					Post("/exams/{examID}/submit", api.DirectSubmitHandler(examStore, enrollSvc, auditLog))
				sr.With(rbac.Require("result:view-own")).
					Get("/results", api.MyResultsHandler(examStore))
			})

			pr.Route("/teacher", func(tr chi.Router) {
				tr.With(rbac.Require("exam:manage")).
					Post("/courses/{courseID}/exams", api.CreateExamHandler(examStore, courses))
				tr.With(rbac.Require("exam:manage")).
					Delete("/courses/{courseID}/exams/{examID}", api.DeleteExamHandler(examStore, courses))
				tr.With(rbac.Require("result:view-course")).
					Get("/exams/{examID}/results", api.ExamResultsHandler(examStore, courses))

				tr.With(rbac.Require("lesson:manage")).
					Post("/courses/{courseID}/lessons", api.CreateLessonHandler(courses))
				tr.With(rbac.Require("lesson:manage")).
					Put("/courses/{courseID}/lessons/{lessonID}", api.UpdateLessonHandler(courses))
				tr.With(rbac.Require("lesson:manage")).
					Delete("/courses/{courseID}/lessons/{lessonID}", api.DeleteLessonHandler(courses))

				tr.With(rbac.Require("assignment:manage")).
					Post("/courses/{courseID}/assignments", api.CreateAssignmentHandler(courses))
				tr.With(rbac.Require("assignment:manage")).
					Get("/assignments/{assignmentID}/submissions", api.ListSubmissionsHandler(courses))
				tr.With(rbac.Require("result:view-course")).
					Get("/courses/{courseID}/roster", api.RosterHandler(courses))
			})

			pr.Route("/admin", func(ar chi.Router) {
				ar.With(rbac.Require("course:manage")).
					Post("/courses", api.CreateCourseHandler(courses, auditLog))
				ar.With(rbac.Require("course:manage")).
					Get("/courses", api.ListCoursesHandler(courses))
				ar.With(rbac.Require("course:manage")).
					Get("/courses/{courseID}", api.GetCourseHandler(courses))
				ar.With(rbac.Require("course:manage")).
					Put("/courses/{courseID}", api.UpdateCourseHandler(courses))
				ar.With(rbac.Require("course:manage")).
					Delete("/courses/{courseID}", api.DeleteCourseHandler(courses, auditLog))
				ar.With(rbac.Require("course:manage")).
					Put("/courses/{courseID}/teacher", api.AssignTeacherHandler(courses, auditLog))

				ar.With(rbac.Require("users:list")).
					Get("/users", api.ListUsersHandler(dbh))
				ar.With(rbac.Require("users:manage")).
					Post("/users/{userID}/deactivate", api.DeactivateUserHandler(dbh, auditLog))
				ar.With(rbac.Require("users:manage")).
					Post("/users/{userID}/reactivate", api.ReactivateUserHandler(dbh, auditLog))
			})
		})
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Info("listening", "addr", cfg.HTTPAddr, "driver", cfg.DBDriver)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("server", "err", err)
	}
}
