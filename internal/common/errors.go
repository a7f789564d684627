package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrValidation   = errors.New("validation failed")

	// ErrNotConfigured means the LLM credential is missing. Raised before any network I/O.
	ErrNotConfigured = errors.New("llm not configured")
	// ErrExtractionUnavailable means the PDF text backend cannot run at all.
	ErrExtractionUnavailable = errors.New("pdf extraction unavailable")
	// ErrProvider covers transport and provider failures from the model call.
	ErrProvider = errors.New("llm provider failure")
	// ErrInvalidModelOutput means no JSON object could be recovered from the reply.
	ErrInvalidModelOutput = errors.New("invalid model output")
	// ErrAlreadyExists means a record directory already exists for the id.
	ErrAlreadyExists = errors.New("record already exists")
)

// Error codes carried by AppError.
const (
	CodeNotConfigured         = "NOT_CONFIGURED"
	CodeExtractionUnavailable = "EXTRACTION_UNAVAILABLE"
	CodeExtractionFailed      = "EXTRACTION_FAILED"
	CodeProvider              = "PROVIDER_FAILURE"
	CodeInvalidModelOutput    = "INVALID_MODEL_OUTPUT"
	CodeAlreadyExists         = "ALREADY_EXISTS"
	CodeNotFound              = "NOT_FOUND"
	CodeValidation            = "VALIDATION_ERROR"
	CodeInvalidInput          = "INVALID_INPUT"
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

func NotConfiguredError(message string) error {
	return NewAppError(CodeNotConfigured, message, ErrNotConfigured)
}

func ExtractionUnavailableError(message string, cause error) error {
	return NewAppError(CodeExtractionUnavailable, message, errors.Join(ErrExtractionUnavailable, cause))
}

func ProviderError(message string, cause error) error {
	if cause == nil {
		return NewAppError(CodeProvider, message, ErrProvider)
	}
	return NewAppError(CodeProvider, message, errors.Join(ErrProvider, cause))
}

func InvalidModelOutputError(message string) error {
	return NewAppError(CodeInvalidModelOutput, message, ErrInvalidModelOutput)
}

func AlreadyExistsError(message string) error {
	return NewAppError(CodeAlreadyExists, message, ErrAlreadyExists)
}

func NotFoundError(message string) error {
	return NewAppError(CodeNotFound, message, ErrNotFound)
}

func InvalidInputErrorf(format string, args ...interface{}) error {
	return NewAppError(CodeInvalidInput, fmt.Sprintf(format, args...), ErrInvalidInput)
}

// ErrorCode returns the code of the outermost AppError in err's chain, or "".
func ErrorCode(err error) string {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}
