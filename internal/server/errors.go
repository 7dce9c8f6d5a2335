package server

import (
	"errors"
	"net/http"
)

// Error kinds map to HTTP statuses at the handler boundary. Generation
// failures never reach here: the dispatcher substitutes a fallback instead.
var (
	errValidation  = errors.New("validation error")
	errNotFound    = errors.New("not found")
	errConflict    = errors.New("conflict")
	errPersistence = errors.New("persistence error")
)

var (
	errLobbyNotFound  = wrapKind(errNotFound, "lobby not found")
	errPlayerNotFound = wrapKind(errNotFound, "player not found")
)

type kindError struct {
	kind    error
	message string
}

func (e *kindError) Error() string { return e.message }

func (e *kindError) Unwrap() error { return e.kind }

func wrapKind(kind error, message string) error {
	return &kindError{kind: kind, message: message}
}

func httpStatusFor(err error) int {
	switch {
	case errors.Is(err, errValidation):
		return http.StatusBadRequest
	case errors.Is(err, errNotFound):
		return http.StatusNotFound
	case errors.Is(err, errConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
