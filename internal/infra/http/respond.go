package http

import (
	"encoding/json"
	"net/http"
)

// RPC-style error codes surfaced to callers.
const (
	CodeUnauthenticated    = "unauthenticated"
	CodeInvalidArgument    = "invalid-argument"
	CodeFailedPrecondition = "failed-precondition"
	CodeInternal           = "internal"
)

func statusFor(code string) int {
	switch code {
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeFailedPrecondition:
		return http.StatusPreconditionFailed
	}
	return http.StatusInternalServerError
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func Error(w http.ResponseWriter, code, message string) {
	JSON(w, statusFor(code), map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}
