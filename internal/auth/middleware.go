package auth

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// Authenticate validates the bearer token and puts subject and claim role
// into the request context.
func Authenticate(a *AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				denied(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			claims, err := a.Parse(strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				denied(w, http.StatusUnauthorized, "invalid token")
				return
			}
			ctx := WithSubject(r.Context(), claims.Sub)
			ctx = WithRole(ctx, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AttachRoleFromDB replaces the claim role with the authoritative users row.
// The token alone is never trusted for authorization: a deactivated account
// is rejected even while its token is still unexpired.
func AttachRoleFromDB(dbh *sql.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sub := SubjectFromContext(ctx)

			var role string
			var active bool
			err := dbh.QueryRowContext(ctx,
				`SELECT role, active FROM users WHERE id=$1`, sub).Scan(&role, &active)
			switch {
			case errors.Is(err, sql.ErrNoRows):
				denied(w, http.StatusUnauthorized, "unknown account")
				return
			case err != nil:
				denied(w, http.StatusInternalServerError, "auth lookup failed")
				return
			case !active:
				denied(w, http.StatusUnauthorized, "account deactivated")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithRole(ctx, role)))
		})
	}
}

func denied(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
