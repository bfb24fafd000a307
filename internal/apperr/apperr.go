// Package apperr описывает классификацию ошибок бизнес-логики cygree.
package apperr

import (
	"errors"
	"fmt"
)

// Виды ошибок. Конкретные ошибки разворачиваются в один из них через errors.Is.
var (
	ErrValidation         = errors.New("validation_error")
	ErrNotFound           = errors.New("not_found")
	ErrState              = errors.New("state_error")
	ErrAlreadyClaimed     = errors.New("already_claimed")
	ErrInsufficientPoints = errors.New("insufficient_points")
	ErrForbidden          = errors.New("authorization_error")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrConflict           = errors.New("conflict")
)

var kinds = []error{
	ErrValidation,
	ErrNotFound,
	ErrState,
	ErrAlreadyClaimed,
	ErrInsufficientPoints,
	ErrForbidden,
	ErrUnauthorized,
	ErrConflict,
}

// Error описывает ошибку с устойчивым видом и сообщением для клиента.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// New создаёт ошибку указанного вида.
func New(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Validation создаёт ошибку вида ErrValidation.
func Validation(format string, args ...any) *Error { return New(ErrValidation, format, args...) }

// NotFound создаёт ошибку вида ErrNotFound.
func NotFound(format string, args ...any) *Error { return New(ErrNotFound, format, args...) }

// State создаёт ошибку вида ErrState.
func State(format string, args ...any) *Error { return New(ErrState, format, args...) }

// Forbidden создаёт ошибку вида ErrForbidden.
func Forbidden(format string, args ...any) *Error { return New(ErrForbidden, format, args...) }

// KindOf возвращает вид ошибки или nil, если ошибка не из таксономии.
func KindOf(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// Message возвращает сообщение для клиента.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	if k := KindOf(err); k != nil {
		return k.Error()
	}
	return "internal error"
}
