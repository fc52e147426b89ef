package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"orderdesk/internal/ports"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeRepoError maps repository errors to HTTP statuses.
func writeRepoError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ports.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, ports.ErrDuplicateDomain):
		writeError(w, http.StatusConflict, "shop domain already registered")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
