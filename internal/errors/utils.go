package errors

import (
	"errors"
	"fmt"
)

// Wrap wraps an error with additional context, creating an AppError if the input is not already one
func Wrap(err error, errType ErrorType, code, message string) *AppError {
	if err == nil {
		return nil
	}

	// If it's already an AppError, preserve its properties but update the message
	var ae *AppError
	if errors.As(err, &ae) {
		return &AppError{
			Type:        errType,
			Code:        code,
			Message:     message,
			Cause:       ae,
			Context:     ae.Context,
			FilePath:    ae.FilePath,
			Recoverable: ae.Recoverable,
		}
	}

	return &AppError{
		Type:        errType,
		Code:        code,
		Message:     message,
		Cause:       err,
		Recoverable: errType == ErrorTypeValidation || errType == ErrorTypeNotFound,
	}
}

// WrapStorage wraps an error as a storage error (non-recoverable)
func WrapStorage(err error, code, message string) *AppError {
	appErr := Wrap(err, ErrorTypeStorage, code, message)
	if appErr != nil {
		appErr.Recoverable = false
	}
	return appErr
}

// WrapInternal wraps an error as an internal error
func WrapInternal(err error, message string) *AppError {
	return Wrap(err, ErrorTypeInternal, ErrCodeInternalError, message)
}

// Combine combines multiple errors into a single error
func Combine(errs ...error) error {
	var nonNilErrors []error
	for _, err := range errs {
		if err != nil {
			nonNilErrors = append(nonNilErrors, err)
		}
	}

	switch len(nonNilErrors) {
	case 0:
		return nil
	case 1:
		return nonNilErrors[0]
	default:
		return fmt.Errorf("multiple errors: %w", errors.Join(nonNilErrors...))
	}
}
