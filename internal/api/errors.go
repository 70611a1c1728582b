package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// AuthError signals the server rejected the credential (bad login, expired
// or revoked token). Message is user-facing.
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("authentication rejected (HTTP %d)", e.StatusCode)
}

// NetworkError signals the request never produced a server verdict. It is
// transient: revalidation treats it as fail-open, never as a logout.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ConflictError signals a booking race lost to another client (the slot is
// no longer available). Surfaced verbatim so the UI can explain and refresh.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "el horario ya fue tomado"
}

// ValidationError carries the server's message for a malformed request.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// StatusError is the fallback for any other non-2xx response.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("server returned %d", e.StatusCode)
}

// serverMessage extracts the "message" field from an error payload, if any.
func serverMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}

// errorFromResponse maps a non-2xx response onto the error taxonomy.
func errorFromResponse(status int, body []byte) error {
	msg := serverMessage(body)
	switch status {
	case http.StatusUnauthorized:
		return &AuthError{StatusCode: status, Message: msg}
	case http.StatusConflict:
		return &ConflictError{Message: msg}
	case http.StatusUnprocessableEntity, http.StatusBadRequest:
		if msg == "" {
			msg = "solicitud inválida"
		}
		return &ValidationError{Message: msg}
	default:
		return &StatusError{StatusCode: status, Message: msg}
	}
}
