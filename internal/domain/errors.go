package domain

import (
	"errors"
	"fmt"
)

// Error types for domain-specific errors
type ErrorType string

const (
	ErrorTypeUnreadablePDF   ErrorType = "unreadable_pdf"
	ErrorTypeInvalidTemplate ErrorType = "invalid_template"
	ErrorTypeModelInvocation ErrorType = "model_invocation"
	ErrorTypeEmptyExtraction ErrorType = "empty_extraction"
	ErrorTypeOutputWrite     ErrorType = "output_write"
	ErrorTypeConfig          ErrorType = "config"
	ErrorTypeValidation      ErrorType = "validation"
)

// DomainError represents a pipeline error with enough context to tell a bad
// PDF apart from bad credentials or an unusable model response.
type DomainError struct {
	Type    ErrorType
	Stage   Stage
	Message string
	Status  int // HTTP status from the inference service, when known
	Err     error
}

func (e *DomainError) Error() string {
	msg := e.Message
	if e.Stage != "" {
		msg = fmt.Sprintf("%s: %s", e.Stage, msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, msg, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, msg)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewError creates a new domain error
func NewError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// Common error constructors
func UnreadablePDFError(message string, err error) *DomainError {
	return NewError(ErrorTypeUnreadablePDF, message, err)
}

func InvalidTemplateError(message string, err error) *DomainError {
	return NewError(ErrorTypeInvalidTemplate, message, err)
}

// ModelInvocationError preserves the inference service status code so callers
// can decide whether a retry makes sense.
func ModelInvocationError(message string, status int, err error) *DomainError {
	return &DomainError{
		Type:    ErrorTypeModelInvocation,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

func EmptyExtractionError(message string) *DomainError {
	return NewError(ErrorTypeEmptyExtraction, message, nil)
}

func OutputWriteError(message string, err error) *DomainError {
	return NewError(ErrorTypeOutputWrite, message, err)
}

func ConfigError(message string, err error) *DomainError {
	return NewError(ErrorTypeConfig, message, err)
}

func ValidationError(message string, err error) *DomainError {
	return NewError(ErrorTypeValidation, message, err)
}

// IsType reports whether err is a DomainError of the given type.
func IsType(err error, t ErrorType) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Type == t
	}
	return false
}

// Staged annotates a DomainError with the pipeline stage it surfaced in.
// Non-domain errors are wrapped into a validation error for that stage.
func Staged(err error, stage Stage) error {
	if err == nil {
		return nil
	}
	var de *DomainError
	if errors.As(err, &de) {
		if de.Stage == "" {
			de.Stage = stage
		}
		return err
	}
	return &DomainError{Type: ErrorTypeValidation, Stage: stage, Message: "unexpected error", Err: err}
}
