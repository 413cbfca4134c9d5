package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/tasklevel/internal/tasklist"
)

const maxBodyBytes = 64 << 10

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON reads a bounded JSON body into v. It writes the 400 itself and
// reports false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}

// writeServiceError maps lifecycle errors to status codes. Anything unknown
// is logged and reported as a 500 with msg.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error, msg string) {
	switch {
	case errors.Is(err, tasklist.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, tasklist.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, tasklist.ErrNotPublic):
		writeError(w, http.StatusConflict, "list is not public")
	case errors.Is(err, tasklist.ErrNotResolved):
		writeError(w, http.StatusConflict, "list is neither completed nor expired")
	case errors.Is(err, tasklist.ErrInsufficientPoints):
		writeError(w, http.StatusConflict, "insufficient points")
	case errors.Is(err, tasklist.ErrInvalidVote):
		writeError(w, http.StatusBadRequest, "vote must be 1 or -1")
	case errors.Is(err, tasklist.ErrInvalidPeriod):
		writeError(w, http.StatusBadRequest, "invalid list type")
	default:
		logger.Error(msg, "error", err)
		writeError(w, http.StatusInternalServerError, msg)
	}
}

// queryLimit parses ?limit=, falling back to def and capping at ceiling.
func queryLimit(r *http.Request, def, ceiling int) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return def
	}
	if n > ceiling {
		return ceiling
	}
	return n
}
