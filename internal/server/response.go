package server

import (
	"encoding/json"
	"net/http"

	"github.com/litescript/ls-galaxy/internal/apperr"
	"github.com/litescript/ls-galaxy/internal/logging"
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// writeError logs err and replies with its category's status code. This is
// the only place handler errors are logged.
func writeError(w http.ResponseWriter, r *http.Request, logger *logging.Logger, err error) {
	t := apperr.TypeOf(err)
	status := apperr.StatusCode(t)

	switch t {
	case apperr.TypeNotFound, apperr.TypeValidation:
		logger.Debug("%s %s: %d %v", r.Method, r.URL.Path, status, err)
	case apperr.TypeConflict, apperr.TypeRateLimited:
		logger.Info("%s %s: %d %v", r.Method, r.URL.Path, status, err)
	default:
		logger.Error("%s %s: %d %v", r.Method, r.URL.Path, status, err)
	}

	writeJSON(w, status, ErrorResponse{
		Error:   string(t),
		Message: err.Error(),
		Code:    status,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		// Status is already sent; nothing useful to do on failure.
		_ = json.NewEncoder(w).Encode(v)
	}
}
