package errors

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a class of engine failure.
type ErrorCode int

const (
	ErrNotFound ErrorCode = iota + 1000
	ErrInvalidInput
	ErrInvalidTransition
	ErrSlotConflict
	ErrConcurrentSessionConflict
	ErrInvalidConsultationState
	ErrDeviceUnavailable
	ErrPermissionDenied
	ErrInternal
)

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// CodeOf extracts the ErrorCode from err or any error it wraps.
// Non-AppError chains report ErrInternal.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// Error constructors
func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func InvalidInput(message string, err error) *AppError {
	return &AppError{
		Code:    ErrInvalidInput,
		Message: message,
		Err:     err,
	}
}

func InvalidTransition(from, event string) *AppError {
	return &AppError{
		Code:    ErrInvalidTransition,
		Message: fmt.Sprintf("cannot %s a %s consultation", event, from),
	}
}

func SlotConflict(message string) *AppError {
	return &AppError{
		Code:    ErrSlotConflict,
		Message: message,
	}
}

func ConcurrentSessionConflict(message string) *AppError {
	return &AppError{
		Code:    ErrConcurrentSessionConflict,
		Message: message,
	}
}

func InvalidConsultationState(message string) *AppError {
	return &AppError{
		Code:    ErrInvalidConsultationState,
		Message: message,
	}
}

func DeviceUnavailable(err error) *AppError {
	return &AppError{
		Code:    ErrDeviceUnavailable,
		Message: "media device unavailable",
		Err:     err,
	}
}

func PermissionDenied(err error) *AppError {
	return &AppError{
		Code:    ErrPermissionDenied,
		Message: "media permission denied",
		Err:     err,
	}
}

func Internal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal error",
		Err:     err,
	}
}
