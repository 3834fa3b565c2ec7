package utils

import (
	"encoding/json"
	"net/http"

	"github.com/georgeokwiri254/entered-on-audit/src/logger"
)

// SendJSONError writes a JSON error body with the given status code.
func SendJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		logger.L.Error("Error encoding JSON error response", "error", err)
	}
}

// WriteJSON writes a JSON response body with the given status code.
func WriteJSON(w http.ResponseWriter, payload any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.L.Error("Error encoding JSON response", "error", err)
	}
}
