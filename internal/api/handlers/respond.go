package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/nkallio/cardwall/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// serviceError maps service-layer sentinel errors onto HTTP responses.
// Unexpected errors are logged and reported with a generic message so no
// internal detail leaks to the client.
func serviceError(w http.ResponseWriter, err error, notFoundMsg, genericMsg string) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		writeError(w, http.StatusNotFound, notFoundMsg)
	case errors.Is(err, services.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrConflict):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Error().Err(err).Msg(genericMsg)
		writeError(w, http.StatusInternalServerError, genericMsg)
	}
}
