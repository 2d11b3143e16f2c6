package common

import (
	"encoding/json"
	"net/http"
	"time"
)

// JSON writes the provided value to the response writer as JSON.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// JSONValidationError renders a 400 listing every failed constraint.
func JSONValidationError(w http.ResponseWriter, details []string) {
	JSON(w, http.StatusBadRequest, map[string]any{
		"error":   "Validation failed",
		"details": details,
	})
}

// JSONError renders an error payload with a timestamp. Debug detail is only
// attached when includeDebug is set; production deployments omit it so
// upstream internals are not leaked to browsers.
func JSONError(w http.ResponseWriter, status int, message string, debug any, includeDebug bool) {
	body := map[string]any{
		"error":     message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if includeDebug && debug != nil {
		body["debug"] = debug
	}
	JSON(w, status, body)
}
