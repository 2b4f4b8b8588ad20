// Package respond writes the JSON envelopes shared by the API handlers.
package respond

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the error envelope: {"success": false, "error": "...", "fields": {...}}.
type ErrorBody struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// JSON writes payload with the given status.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// Error writes an error envelope.
func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, ErrorBody{Error: msg})
}

// FieldErrors writes a 400 envelope with per-field messages.
func FieldErrors(w http.ResponseWriter, msg string, fields map[string]string) {
	JSON(w, http.StatusBadRequest, ErrorBody{Error: msg, Fields: fields})
}

// Decode reads a JSON body of at most 1 MiB into dst.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	return dec.Decode(dst)
}
