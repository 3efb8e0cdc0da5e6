package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindValidation        ErrorKind = "validation"
	KindNotFound          ErrorKind = "not_found"
	KindAuthorization     ErrorKind = "authorization"
	KindInsufficientStock ErrorKind = "insufficient_stock"
	KindConflict          ErrorKind = "conflict"
	KindServer            ErrorKind = "server"
)

// Error carries a machine-distinguishable kind alongside the human message.
// Handlers map kinds to HTTP statuses; callers match with errors.As so the
// kind survives fmt.Errorf("%w") wrapping.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func ValidationError(format string, args ...interface{}) *Error {
	return newError(KindValidation, format, args...)
}

func NotFoundError(format string, args ...interface{}) *Error {
	return newError(KindNotFound, format, args...)
}

func AuthorizationError(format string, args ...interface{}) *Error {
	return newError(KindAuthorization, format, args...)
}

func InsufficientStockError(format string, args ...interface{}) *Error {
	return newError(KindInsufficientStock, format, args...)
}

func ConflictError(format string, args ...interface{}) *Error {
	return newError(KindConflict, format, args...)
}

func ServerError(format string, args ...interface{}) *Error {
	return newError(KindServer, format, args...)
}

// KindOf reports the kind of err, or KindServer for plain errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindServer
}

func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
