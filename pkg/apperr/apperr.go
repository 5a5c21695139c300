package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for HTTP mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindUnauthorized // authentication failed (401)
	KindForbidden    // ownership/permission check failed (403)
	KindBadRequest
	KindExternal // upstream service failure (502)
)

// Error carries a Kind alongside the message so handlers can pick the
// right HTTP status without string matching.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// NotFound reports a missing resource, e.g. NotFound("Mission", "id", id).
func NotFound(resource, field string, value any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s not found with %s: %v", resource, field, value)}
}

// Conflict reports a uniqueness violation, e.g. Conflict("Mission", "name", name).
func Conflict(resource, field string, value any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf("%s already exists with %s: %v", resource, field, value)}
}

func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func BadRequest(message string) *Error {
	return &Error{Kind: KindBadRequest, Message: message}
}

// External wraps a failed upstream call. err may be nil.
func External(service, message string, err error) *Error {
	return &Error{Kind: KindExternal, Message: fmt.Sprintf("error in %s: %s", service, message), Err: err}
}

// StatusOf maps an error to its HTTP status code. Unknown errors are
// treated as internal so details never pick a misleading 4xx class.
func StatusOf(err error) int {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError
	}
	switch appErr.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindBadRequest:
		return http.StatusBadRequest
	case KindExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}
