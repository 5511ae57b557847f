package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies failures so callers can render a message and decide on retry.
type Kind string

const (
	KindNotFound      Kind = "not_found"
	KindValidation    Kind = "validation"
	KindDataIntegrity Kind = "data_integrity"
	KindExternal      Kind = "external"
	KindConfiguration Kind = "configuration"
	KindConflict      Kind = "conflict"
	KindInternal      Kind = "internal"
)

type Error struct {
	Kind    Kind
	Op      string
	Message string
	// ID is the entity the failure is about, when there is one.
	ID    string
	Cause error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := strings.TrimSpace(e.Message)
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	if msg == "" {
		msg = string(e.Kind)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Retryable reports whether re-invoking the same operation may succeed.
func (e *Error) Retryable() bool {
	return e != nil && e.Kind == KindExternal
}

func New(kind Kind, op, message string, cause error) *Error {
	return &Error{
		Kind:    kind,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

func NotFound(op, entity, id string) *Error {
	e := New(KindNotFound, op, fmt.Sprintf("%s not found: %s", entity, id), nil)
	e.ID = id
	return e
}

func Validation(op, message string) *Error {
	return New(KindValidation, op, message, nil)
}

func DataIntegrity(op, id, message string) *Error {
	e := New(KindDataIntegrity, op, message, nil)
	e.ID = id
	return e
}

func Conflict(op, id, message string) *Error {
	e := New(KindConflict, op, message, nil)
	e.ID = id
	return e
}

func Configuration(op, message string, cause error) *Error {
	return New(KindConfiguration, op, message, cause)
}

// External wraps a remote or transient failure, keeping the cause's message.
func External(op, id, message string, cause error) *Error {
	if cause != nil {
		message = fmt.Sprintf("%s: %s", message, cause.Error())
	}
	e := New(KindExternal, op, message, cause)
	e.ID = id
	return e
}

func Internal(op string, cause error) *Error {
	msg := "internal error"
	if cause != nil {
		msg = cause.Error()
	}
	return New(KindInternal, op, msg, cause)
}

// KindOf returns the outermost Kind in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Kind
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IDOf returns the entity id carried by err, if any.
func IDOf(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.ID
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindDataIntegrity:
		return http.StatusUnprocessableEntity
	case KindExternal:
		return http.StatusBadGateway
	case KindConfiguration:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
