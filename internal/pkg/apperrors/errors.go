package apperrors

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the record layer
var (
	ErrValidationFailed = errors.New("validation failed")
	ErrResourceNotFound = errors.New("resource not found")
	ErrStorage          = errors.New("storage failure")
	ErrFileOperation    = errors.New("file operation failed")
)

// Authentication and authorization errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
)

// Entity specific not-found errors. Each one matches ErrResourceNotFound.
var (
	ErrStudentNotFound      = &CustomError{Err: ErrResourceNotFound, Message: "student not found", Code: "student"}
	ErrPresentationNotFound = &CustomError{Err: ErrResourceNotFound, Message: "presentation not found", Code: "presentation"}
	ErrSynopsisNotFound     = &CustomError{Err: ErrResourceNotFound, Message: "synopsis not found", Code: "synopsis"}
	ErrCertificateNotFound  = &CustomError{Err: ErrResourceNotFound, Message: "certificate not found", Code: "certificate"}
)

// CustomError carries a kind sentinel plus a user facing message
type CustomError struct {
	Err     error
	Message string
	Code    string
	Details map[string]interface{}
}

func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

func (e *CustomError) Unwrap() error {
	return e.Err
}

// WithDetails attaches context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// NewValidationError reports a missing or malformed field.
func NewValidationError(field, message string) error {
	return &CustomError{
		Err:     ErrValidationFailed,
		Message: message,
		Details: map[string]interface{}{"field": field},
	}
}

// NewNotFoundError wraps one of the entity sentinels with an id-specific message.
func NewNotFoundError(sentinel error, format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), sentinel)
}

// storageError keeps the driver error reachable for errors.As while matching ErrStorage.
type storageError struct {
	op  string
	err error
}

func (e *storageError) Error() string {
	return fmt.Sprintf("%s: %v", e.op, e.err)
}

func (e *storageError) Unwrap() []error {
	return []error{ErrStorage, e.err}
}

// NewStorageError wraps an underlying store failure. Nil stays nil.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *storageError
	if errors.As(err, &se) {
		return err
	}
	return &storageError{op: op, err: err}
}

// fileError matches ErrFileOperation and exposes the failing path.
type fileError struct {
	Path string
	err  error
}

func (e *fileError) Error() string {
	return fmt.Sprintf("file %s: %v", e.Path, e.err)
}

func (e *fileError) Unwrap() []error {
	return []error{ErrFileOperation, e.err}
}

// NewFileError wraps a copy or remove failure on an attachment.
func NewFileError(path string, err error) error {
	if err == nil {
		return nil
	}
	return &fileError{Path: path, err: err}
}

// Is reports whether err matches target or any of errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}
	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

// UserMessage returns the message that may be shown to an end user.
// Storage and file causes are replaced by a generic line.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrStorage):
		return "the record store could not complete the operation"
	case errors.Is(err, ErrFileOperation):
		return "an attachment file could not be processed"
	case errors.Is(err, ErrInvalidCredentials):
		return ErrInvalidCredentials.Error()
	}
	var ce *CustomError
	if errors.As(err, &ce) && ce.Message != "" && !errors.Is(err, ErrResourceNotFound) {
		return ce.Message
	}
	return err.Error()
}
