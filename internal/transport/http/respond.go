package http

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/gommon/log"

	"lessonloop/internal/domain"
)

type messageBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageBody{Message: msg})
}

// statusFor maps an error kind onto its HTTP status.
func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindInvalid:
		return http.StatusBadRequest
	case domain.KindValidation:
		return http.StatusUnprocessableEntity
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as {"message": ...}. Errors without a kind are
// logged and hidden behind a generic message.
func writeError(w http.ResponseWriter, logger *log.Logger, err error) {
	kind := domain.KindOf(err)
	status := statusFor(kind)
	msg := domain.MessageOf(err)
	if kind == domain.KindInternal || msg == "" {
		logger.Errorf("request failed: %v", err)
		msg = "Server error"
	} else if status >= http.StatusInternalServerError {
		logger.Errorf("upstream failure: %v", err)
	}
	writeMessage(w, status, msg)
}

// decodeJSON reads the request body into dst.
func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.Invalid("Malformed request body")
	}
	return nil
}
