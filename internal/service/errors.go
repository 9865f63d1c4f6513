package service

import (
	"errors"

	"github.com/vyrodovalexey/benefits-example/internal/model"
)

// Error kinds. Every error returned by EmployeeService wraps exactly one.
var (
	ErrValidation  = errors.New("validation error")
	ErrNotFound    = errors.New("not found")
	ErrPersistence = errors.New("persistence error")
)

// Error is a failed facade operation. Message is safe to show to end users.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func newError(kind error, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// Error returns the user-facing message.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap exposes both the kind and the underlying cause to errors.Is.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Envelope converts the result of a facade call into a response envelope.
func Envelope[T any](data T, err error) model.APIResponse[T] {
	if err != nil {
		return model.NewErrorResponse[T](err.Error())
	}
	return model.NewSuccessResponse(data)
}
