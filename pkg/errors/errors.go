package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different types of errors in the system
type ErrorType string

const (
	// ErrorTypeNotFound indicates a resource was not found
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeValidation indicates a validation error
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeConflict indicates a conflict with existing data
	ErrorTypeConflict ErrorType = "CONFLICT"

	// ErrorTypeUnauthorized indicates unauthorized access
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"

	// ErrorTypeInternal indicates an internal server error
	ErrorTypeInternal ErrorType = "INTERNAL"

	// ErrorTypeExternal indicates an error from external service
	ErrorTypeExternal ErrorType = "EXTERNAL"
)

// Conflict codes let callers tell business-rule conflicts apart
// without string matching on messages.
const (
	// CodeDailyLimit means the patient already holds the maximum number
	// of active bookings for that calendar day.
	CodeDailyLimit = "DAILY_LIMIT"

	// CodeSlotTaken means another active booking holds the slot.
	CodeSlotTaken = "SLOT_TAKEN"

	// CodeTxConflict means the store aborted the transaction and the
	// operation may be retried as a whole.
	CodeTxConflict = "TX_CONFLICT"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// AsAppError unwraps err into an *AppError when possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeConflict,
		Message: message,
	}
}

// NewDailyLimitError creates a conflict error for the per-patient daily
// booking quota.
func NewDailyLimitError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeConflict,
		Code:    CodeDailyLimit,
		Message: message,
	}
}

// NewSlotTakenError creates a conflict error for an occupied slot.
func NewSlotTakenError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeConflict,
		Code:    CodeSlotTaken,
		Message: message,
	}
}

// NewTxConflictError creates an error for a store-level transaction
// abort that exhausted its retries.
func NewTxConflictError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInternal,
		Code:    CodeTxConflict,
		Message: message,
		Err:     err,
	}
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeUnauthorized,
		Message: message,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// NewExternalError creates a new external service error
func NewExternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeExternal,
		Message: message,
		Err:     err,
	}
}
