package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeStorage    ErrorType = "storage"
	ErrorTypeTemplate   ErrorType = "template"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
)

// AppError is a structured error type with context.
type AppError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]interface{}
	FilePath    string
	Recoverable bool
}

// Error implements the error interface.
func (e *AppError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.FilePath != "" {
		parts = append(parts, e.FilePath)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithFile adds the file the error relates to.
func (e *AppError) WithFile(filePath string) *AppError {
	e.FilePath = filePath

	return e
}

// Error creation functions

// NewNotFoundError creates an error for a record that does not exist.
func NewNotFoundError(code, message string) *AppError {
	return &AppError{
		Type:        ErrorTypeNotFound,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *AppError {
	return &AppError{
		Type:        ErrorTypeValidation,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewStorageCorruptionError creates an error for a data file that is missing
// or cannot be decoded.
func NewStorageCorruptionError(path string, cause error) *AppError {
	return &AppError{
		Type:        ErrorTypeStorage,
		Code:        ErrCodeStorageCorrupt,
		Message:     "data file is missing or corrupt",
		Cause:       cause,
		FilePath:    path,
		Recoverable: false,
	}
}

// NewStorageWriteError creates an error for a data file that could not be written.
func NewStorageWriteError(path string, cause error) *AppError {
	return &AppError{
		Type:        ErrorTypeStorage,
		Code:        ErrCodeStorageWrite,
		Message:     "failed to write data file",
		Cause:       cause,
		FilePath:    path,
		Recoverable: false,
	}
}

// NewTemplateLoadError creates an error for a fragment that cannot be read.
func NewTemplateLoadError(path string, cause error) *AppError {
	return &AppError{
		Type:        ErrorTypeTemplate,
		Code:        ErrCodeTemplateLoad,
		Message:     "failed to load template fragment",
		Cause:       cause,
		FilePath:    path,
		Recoverable: false,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string, cause error) *AppError {
	return &AppError{
		Type:        ErrorTypeConfig,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *AppError {
	return &AppError{
		Type:        ErrorTypeInternal,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// Error recovery and handling utilities

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Recoverable
	}

	return false
}

// anyInChain walks every AppError in the cause chain, outermost first.
func anyInChain(err error, match func(*AppError) bool) bool {
	for err != nil {
		var ae *AppError
		if !errors.As(err, &ae) {
			return false
		}
		if match(ae) {
			return true
		}
		err = ae.Cause
	}

	return false
}

func isType(err error, t ErrorType) bool {
	return anyInChain(err, func(ae *AppError) bool { return ae.Type == t })
}

// IsNotFound checks if an error reports a missing record.
func IsNotFound(err error) bool { return isType(err, ErrorTypeNotFound) }

// IsValidation checks if an error is a validation failure.
func IsValidation(err error) bool { return isType(err, ErrorTypeValidation) }

// IsStorageCorruption checks if an error comes from an unreadable data file.
func IsStorageCorruption(err error) bool {
	return anyInChain(err, func(ae *AppError) bool {
		return ae.Type == ErrorTypeStorage && ae.Code == ErrCodeStorageCorrupt
	})
}

// IsStorage checks if an error comes from the storage layer.
func IsStorage(err error) bool { return isType(err, ErrorTypeStorage) }

// IsTemplateLoad checks if an error comes from loading a template fragment.
func IsTemplateLoad(err error) bool { return isType(err, ErrorTypeTemplate) }

// IsConfig checks if an error reports invalid configuration.
func IsConfig(err error) bool { return isType(err, ErrorTypeConfig) }

// ErrorHandler provides centralized error handling.
type ErrorHandler struct {
	logger Logger
}

// Logger interface for error logging.
type Logger interface {
	Error(ctx context.Context, err error, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle processes an error with appropriate logging.
func (h *ErrorHandler) Handle(ctx context.Context, err error) {
	if err == nil || h.logger == nil {
		return
	}

	var ae *AppError
	if !errors.As(err, &ae) {
		h.logger.Error(ctx, err, "Unhandled error occurred")
		return
	}

	if IsRecoverable(err) {
		h.logger.Warn(ctx, err, "Request rejected",
			"type", ae.Type,
			"code", ae.Code)
		return
	}

	switch ae.Type {
	case ErrorTypeStorage, ErrorTypeTemplate:
		h.logger.Error(ctx, err, "File access failed",
			"type", ae.Type,
			"code", ae.Code,
			"file", ae.FilePath)
	default:
		h.logger.Error(ctx, err, "Error occurred",
			"type", ae.Type,
			"code", ae.Code)
	}
}

// Common error codes.
const (
	ErrCodeBookNotFound     = "ERR_BOOK_NOT_FOUND"
	ErrCodeSessionNotFound  = "ERR_SESSION_NOT_FOUND"
	ErrCodeValidationFailed = "ERR_VALIDATION_FAILED"
	ErrCodeStorageCorrupt   = "ERR_STORAGE_CORRUPT"
	ErrCodeStorageWrite     = "ERR_STORAGE_WRITE"
	ErrCodeTemplateLoad     = "ERR_TEMPLATE_LOAD"
	ErrCodeTemplateRender   = "ERR_TEMPLATE_RENDER"
	ErrCodeConfigInvalid    = "ERR_CONFIG_INVALID"
	ErrCodeInternalError    = "ERR_INTERNAL"
)

// FieldValidationError reports the form fields that failed validation.
type FieldValidationError struct {
	Fields []string
}

// Error implements the error interface.
func (fve *FieldValidationError) Error() string {
	return fmt.Sprintf("validation failed: missing %s", strings.Join(fve.Fields, ", "))
}

// ToAppError converts the field validation error to an AppError.
func (fve *FieldValidationError) ToAppError() *AppError {
	return NewValidationError(ErrCodeValidationFailed, fve.Error()).
		WithContext("fields", fve.Fields)
}
