package http

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/learngate/learngate/internal/auth"
	dbx "github.com/learngate/learngate/internal/db"
)

var validate = validator.New()

const bcryptCost = 12

type registerReq struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name" validate:"max=128"`
	Role     string `json:"role" validate:"required,oneof=student teacher admin"`
}

// RegisterHandler creates an account. Usernames and emails are unique across
// all roles; duplicates are a conflict, not an internal error.
func RegisterHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "bad json")
			return
		}
		if err := validate.Struct(req); err != nil {
			badRequest(w, err.Error())
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
		if err != nil {
			writeError(w, err)
			return
		}
		id := uuid.NewString()
		_, err = db.ExecContext(r.Context(),
			`INSERT INTO users (id,username,email,full_name,password_hash,role,active,created_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			id, req.Username, req.Email, req.FullName, string(hash), req.Role, true, time.Now().Unix())
		if err != nil {
			if dbx.IsUniqueViolation(err) {
				writeJSON(w, http.StatusConflict, map[string]string{"error": "username or email already taken"})
				return
			}
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{
			"id":       id,
			"username": req.Username,
			"role":     req.Role,
		})
	}
}

type loginReq struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginHandler verifies credentials against the users table and issues a
// bearer token. One lookup serves every role.
func LoginHandler(db *sql.DB, authSvc *auth.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "bad json")
			return
		}
		if err := validate.Struct(req); err != nil {
			badRequest(w, err.Error())
			return
		}

		var id, hash, role string
		var active bool
		err := db.QueryRowContext(r.Context(),
			`SELECT id, password_hash, role, active FROM users WHERE username=$1`,
			req.Username).Scan(&id, &hash, &role, &active)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && !active) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
			return
		}
		if err != nil {
			writeError(w, err)
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
			return
		}

		tok, err := authSvc.IssueToken(id, role)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"access_token": tok,
			"token_type":   "Bearer",
			"user_id":      id,
			"role":         role,
		})
	}
}

type changePasswordReq struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

func ChangePasswordHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.SubjectFromContext(r.Context())

		var req changePasswordReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "bad json")
			return
		}
		if err := validate.Struct(req); err != nil {
			badRequest(w, err.Error())
			return
		}

		var storedHash string
		err := db.QueryRowContext(r.Context(),
			`SELECT password_hash FROM users WHERE id=$1`, userID).Scan(&storedHash)
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
			return
		}
		if err != nil {
			writeError(w, err)
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(req.OldPassword)) != nil {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "incorrect old password"})
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcryptCost)
		if err != nil {
			writeError(w, err)
			return
		}
		if _, err := db.ExecContext(r.Context(),
			`UPDATE users SET password_hash=$1 WHERE id=$2`, hash, userID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
