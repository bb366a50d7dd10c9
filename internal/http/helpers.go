package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"muscleup/internal/core"
	"muscleup/internal/services"
)

// actorHeader carries the audit identity of the caller. Authentication
// lives upstream; the engine only records who acted.
const actorHeader = "X-Actor-ID"

func actor(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(actorHeader)); id != "" {
		return id
	}
	return "system"
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps domain errors onto HTTP statuses.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case services.IsValidationError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		slog.ErrorContext(ctx, "Request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// pathID extracts the trailing id segment of a prefixed route.
func pathID(r *http.Request, prefix string) (string, bool) {
	id := strings.TrimPrefix(r.URL.Path, prefix)
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}
