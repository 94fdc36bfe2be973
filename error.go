package llmstream

import (
	"fmt"
	"net/http"
)

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	ErrSuccess Err = iota
	ErrNotFound
	ErrBadParameter
	ErrNotImplemented
	ErrTransport
	ErrProtocol
	ErrAuth
	ErrCancelled
	ErrEmptyResponse
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Errors
type Err int

// APIError is returned when a provider responds with a non-2xx status.
// The response headers and body text are retained so the retry layer
// can extract server-suggested delays from them.
type APIError struct {
	Status  int
	Message string
	Header  http.Header
	Body    string
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (e Err) Error() string {
	switch e {
	case ErrSuccess:
		return "success"
	case ErrNotFound:
		return "not found"
	case ErrBadParameter:
		return "bad parameter"
	case ErrNotImplemented:
		return "not implemented"
	case ErrTransport:
		return "transport failure"
	case ErrProtocol:
		return "protocol error"
	case ErrAuth:
		return "missing or invalid credentials"
	case ErrCancelled:
		return "cancelled"
	case ErrEmptyResponse:
		return "empty response"
	}
	return fmt.Sprintf("error code %d", int(e))
}

func (e Err) With(args ...interface{}) error {
	return fmt.Errorf("%w: %s", e, fmt.Sprint(args...))
}

func (e Err) Withf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", e, fmt.Sprintf(format, args...))
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error (status %d)", e.Status)
}
