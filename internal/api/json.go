package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

// errResponse uses the {"detail": ...} shape clients read first.
type errResponse struct {
	Detail string `json:"detail"`
}

func errorBody(msg string) errResponse {
	return errResponse{Detail: msg}
}
