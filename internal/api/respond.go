package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"gridiron/ingestion/internal/repository"
)

// ErrorResponse is the error shape of every failed request
type ErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Error codes
const (
	CodeBadRequest = "BAD_REQUEST"
	CodeNotFound   = "NOT_FOUND"
	CodeInternal   = "INTERNAL_ERROR"
	CodeUnhealthy  = "UNHEALTHY"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("Failed to write response body")
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	resp := ErrorResponse{}
	resp.Error.Code = code
	resp.Error.Message = message
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	writeJSON(w, status, resp)
}

// writeFailure maps err onto a status code. Internal details are logged,
// not returned.
func writeFailure(w http.ResponseWriter, r *http.Request, err error, message string) {
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, CodeNotFound, message)
		return
	}
	log.Error().
		Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg(message)
	writeError(w, http.StatusInternalServerError, CodeInternal, message)
}
