package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/learngate/learngate/internal/apperr"
	"github.com/learngate/learngate/internal/exam"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto the wire format. Every failure body is
// {"error": string}.
func writeError(w http.ResponseWriter, err error) {
	var code int
	switch {
	case errors.Is(err, apperr.ErrUnauthorized):
		code = http.StatusUnauthorized
	case errors.Is(err, apperr.ErrForbidden):
		code = http.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, apperr.ErrConflict),
		errors.Is(err, exam.ErrAlreadySubmitted):
		code = http.StatusConflict
	case errors.Is(err, apperr.ErrValidation),
		errors.Is(err, exam.ErrNoQuestions),
		errors.Is(err, exam.ErrUnanswered),
		errors.Is(err, exam.ErrOutOfRange),
		errors.Is(err, exam.ErrAnswerCount):
		code = http.StatusBadRequest
	default:
		code = http.StatusInternalServerError
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}
