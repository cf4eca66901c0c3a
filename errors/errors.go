// Package errors provides unified error handling for the flow runtime.
// It implements structured error types with error codes, HTTP status mapping,
// and retryable detection following RFC 7807.
package errors

import (
	"fmt"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// --- Startup constructors ---

// ConfigError creates a new AppError for an invalid flow specification.
func ConfigError(reason string) *AppError {
	return &AppError{
		Code: ErrCodeConfigInvalid, Message: fmt.Sprintf("invalid flow specification: %s", reason),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// PluginLoadError creates a new AppError for a plugin that could not be resolved or loaded.
func PluginLoadError(pluginName string, cause error) *AppError {
	return &AppError{
		Code: ErrCodePluginLoad, Message: fmt.Sprintf("failed to load plugin %q", pluginName),
		HTTPStatus: http.StatusInternalServerError, Retryable: false,
		Details: map[string]any{"plugin": pluginName}, Cause: cause,
	}
}

// StageInstantiateError creates a new AppError for a stage factory that rejected its configuration.
func StageInstantiateError(stageName string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeStageInstantiate, Message: fmt.Sprintf("failed to instantiate stage %q", stageName),
		HTTPStatus: http.StatusInternalServerError, Retryable: false,
		Details: map[string]any{"stage": stageName}, Cause: cause,
	}
}

// --- Runtime constructors ---

// WorkerFault creates a new AppError for an error that escaped a stage's worker loop.
func WorkerFault(stageName string, threadIndex int, cause error) *AppError {
	return &AppError{
		Code: ErrCodeWorkerFault, Message: fmt.Sprintf("stage %q worker %d failed", stageName, threadIndex),
		HTTPStatus: http.StatusInternalServerError, Retryable: false,
		Details: map[string]any{"stage": stageName, "thread_index": threadIndex}, Cause: cause,
	}
}

// SchemaMismatch creates a new AppError for a payload whose schema id does not match its queue.
func SchemaMismatch(queueName string, want, got string) *AppError {
	return &AppError{
		Code: ErrCodeSchemaMismatch, Message: fmt.Sprintf("payload schema id %q does not match queue %q schema id %q", got, queueName, want),
		HTTPStatus: http.StatusInternalServerError, Retryable: false,
		Details: map[string]any{"queue": queueName, "want_schema_id": want, "got_schema_id": got},
	}
}

// PushFailed creates a new AppError for a failed enqueue, typically because the target queue closed.
func PushFailed(queueName string, cause error) *AppError {
	return &AppError{
		Code: ErrCodePushFailed, Message: fmt.Sprintf("failed to push to queue %q", queueName),
		HTTPStatus: http.StatusInternalServerError, Retryable: false,
		Details: map[string]any{"queue": queueName}, Cause: cause,
	}
}

// --- Generic constructors ---

// NotFound creates a new AppError for a resource that was not found.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("the requested %s was not found", resource),
		HTTPStatus: http.StatusNotFound, Retryable: false, Details: details,
	}
}

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("invalid input: %s", reason),
		HTTPStatus: http.StatusBadRequest, Retryable: false, Details: details,
	}
}

// Timeout creates a new AppError for an operation that timed out.
func Timeout(operation string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: "the operation took too long",
		HTTPStatus: http.StatusGatewayTimeout, Retryable: true,
		Details: map[string]any{"operation": operation},
	}
}

// Internal creates a new AppError for an internal error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "an unexpected error occurred",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}
