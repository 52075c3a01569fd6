package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ignite/signup-service/internal/pkg/logger"
)

// Text writes a plain-text response with the given status code. The
// public signup surface is text-only so that any browser renders it.
func Text(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintln(w, msg)
}

// BadRequest writes a 400 plain-text response.
func BadRequest(w http.ResponseWriter, msg string) {
	Text(w, http.StatusBadRequest, msg)
}

// NotFound writes a 404 plain-text response.
func NotFound(w http.ResponseWriter) {
	Text(w, http.StatusNotFound, "not found")
}

// Throttled writes a 429 response carrying a Retry-After header.
func Throttled(w http.ResponseWriter, retryAfter int64) {
	w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
	Text(w, http.StatusTooManyRequests, fmt.Sprintf("too many requests, try again in %d seconds", retryAfter))
}

// InternalError writes a generic 500. The real error is logged, never
// leaked to the client.
func InternalError(w http.ResponseWriter, err error) {
	logger.Error("internal error", "error", err)
	Text(w, http.StatusInternalServerError, "internal error")
}

// JSON writes a JSON response, used by the health endpoint.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("json encode failed", "error", err)
	}
}
