package errors

import (
	"fmt"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   appErr,
		}
	}
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// GetCode returns the error code if it's an AppError, otherwise returns "UNKNOWN"
func GetCode(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return "UNKNOWN"
}

// Error kind codes, one per the engine's error-handling design : each
// models a distinct collaborator failure with its own retry/surface policy.
const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeInferenceError  = "INFERENCE_ERROR"
	CodeTransportError  = "TRANSPORT_ERROR"
	CodeDurableWrite    = "DURABLE_WRITE_ERROR"
	CodeConfigInvalid   = "CONFIG_ERROR"
	CodeArtifactError   = "ARTIFACT_ERROR"
	CodeInternalError   = "INTERNAL_ERROR"
)

// ValidationError builds a not-retried error surfaced as the sensor_health
// field of an OFFLINE report (EMPTY_BUFFER, MISSING_COLUMNS:..., INVALID_RANGE:...).
func ValidationError(detail string) *AppError {
	return New(CodeValidationError, detail)
}

// InferenceError builds an error the predictor converts to (ERROR, 0.0); the
// pipeline retries up to 3 times with exponential backoff before giving up.
func InferenceError(message string, cause error) *AppError {
	return &AppError{Code: CodeInferenceError, Message: message, Cause: cause}
}

// TransportError builds a broker disconnect/publish failure; the ingest
// loop reconnects with bounded exponential backoff rather than surfacing this.
func TransportError(message string, cause error) *AppError {
	return &AppError{Code: CodeTransportError, Message: message, Cause: cause}
}

// DurableWriteError builds a failed CSV/Postgres write; retried up to 3
// times by the durable logger, then dropped with a warning. Never reaches the pipeline.
func DurableWriteError(message string, cause error) *AppError {
	return &AppError{Code: CodeDurableWrite, Message: message, Cause: cause}
}

// ConfigInvalid builds a fail-fast startup error (bad threshold, missing env, ordering violation).
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

// ArtifactError builds a missing/unreadable model or scaler error. When
// STRICT_ARTIFACT_CHECK is unset the caller should swallow this and run in UNKNOWN mode.
func ArtifactError(message string, cause error) *AppError {
	return &AppError{Code: CodeArtifactError, Message: message, Cause: cause}
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}


