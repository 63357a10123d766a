package utils

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

const jsonContentType = "application/json; charset=utf-8"

// WriteJSON encodes v before writing anything, so a value that cannot be
// encoded (NaN, channels) is answered with a clean 500.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to encode JSON", "error", err)
		status = http.StatusInternalServerError
		body = []byte(`{"error":"Internal Server Error","message":"failed to encode response"}`)
	}
	w.Header().Set("Content-Type", jsonContentType)
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		slog.Error("failed to write JSON", "error", err)
	}
}

// WriteError writes the infrastructure error body {"error", "message"}.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]any{
		"error":   http.StatusText(status),
		"message": msg,
	})
}

// WriteClientError writes {"Error": msg}, the body API clients match on for
// bad input and missing data.
func WriteClientError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"Error": msg})
}
