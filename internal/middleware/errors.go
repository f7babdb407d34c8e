package middleware

import (
	"encoding/json"
	"net/http"
)

// writeError writes the failure envelope the query API uses for every
// rejected request.
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success":  false,
		"result":   nil,
		"warnings": nil,
		"error":    msg,
	})
}
