package http

import (
	"context"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/learngate/learngate/internal/auth"
	"github.com/learngate/learngate/internal/rbac"
	"github.com/learngate/learngate/internal/storage"
)

var fileChecker = rbac.NewChecker(nil)

// canAccessKey guards blob reads and deletes. Staff with assignment:manage
// see everything; a student only reaches keys whose student segment is their
// own subject.
func canAccessKey(ctx context.Context, key string) bool {
	if fileChecker.Has(auth.RoleFromContext(ctx), "assignment:manage") {
		return true
	}
	// assignments/{assignmentID}/{studentID}/...
	parts := strings.Split(key, "/")
	return len(parts) >= 3 && parts[0] == "assignments" && parts[2] == auth.SubjectFromContext(ctx)
}

// MountAssignmentFiles serves upload, download and delete of assignment
// attachments. Uploaded blobs are keyed under the assignment and the
// uploading student so the key can double as the submission's file_url.
func MountAssignmentFiles(r chi.Router, bs storage.BlobStore) {
	// POST /files/assignments/{assignmentID}  (multipart: file=...)
	r.Post("/assignments/{assignmentID}", func(w http.ResponseWriter, r *http.Request) {
		assignmentID := chi.URLParam(r, "assignmentID")
		studentID := auth.SubjectFromContext(r.Context())

		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file required", http.StatusBadRequest)
			return
		}
		defer f.Close()

		name := path.Base(hdr.Filename)
		if name == "" || name == "." || name == "/" {
			name = "upload.bin"
		}
		key := "assignments/" + assignmentID + "/" + studentID + "/" + name
		if _, err := bs.Put(key, f); err != nil {
			http.Error(w, "store error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"key": key})
	})

	// GET /files/*  -> returns the blob at whatever follows /files/
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
		if !canAccessKey(r.Context(), key) {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
			return
		}
		rc, err := bs.Get(key)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = io.Copy(w, rc)
	})

	// DELETE /files/*  -> lets a student retract an upload before resubmitting
	r.Delete("/*", func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
		if !canAccessKey(r.Context(), key) {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
			return
		}
		if err := bs.Delete(key); err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}
