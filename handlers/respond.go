// Package handlers provides the HTTP layer of the pharmacy API: one generic
// REST resource serving list, search, get, create, update, partial update and
// delete for every entity type, plus JSON response formatting.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/hmpharma/pharmacy-api/logging"
)

// RespondWithJSON writes a JSON response with the given status code.
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
	w.WriteHeader(code)
	if _, err := w.Write(data); err != nil {
		logging.Warn("Failed to write response", "error", err)
	}
}

// RespondWithError writes an {"error": msg} response with the given code.
func RespondWithError(w http.ResponseWriter, code int, msg string) {
	RespondWithJSON(w, code, map[string]string{"error": msg})
}
