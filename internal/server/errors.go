package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/julianstephens/daylog/internal/constants"
	apperrors "github.com/julianstephens/daylog/internal/errors"
	"github.com/julianstephens/daylog/internal/storage"
)

// messageBody is the shape of every error response and of the delete
// confirmation.
type messageBody struct {
	Message string `json:"message"`
}

// statusFor maps a classified error to its HTTP status and client message.
// Store failures never expose the underlying error.
func statusFor(err error) (int, string) {
	switch {
	case apperrors.KindOf(err) == apperrors.KindValidation:
		return http.StatusBadRequest, err.Error()
	case apperrors.KindOf(err) == apperrors.KindNotFound, errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, constants.MsgLogNotFound
	default:
		return http.StatusInternalServerError, constants.MsgServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		s.log.Debug("Request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, messageBody{Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
