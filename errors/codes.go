package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Startup errors — detected before any worker runs; the runtime refuses to start.
const (
	// ErrCodeConfigInvalid indicates the flow specification failed validation.
	ErrCodeConfigInvalid ErrorCode = "CONFIG_INVALID"
	// ErrCodePluginLoad indicates a plugin could not be resolved or loaded.
	ErrCodePluginLoad ErrorCode = "PLUGIN_LOAD_FAILED"
	// ErrCodeStageInstantiate indicates a stage factory rejected its configuration.
	ErrCodeStageInstantiate ErrorCode = "STAGE_INSTANTIATE_FAILED"
)

// Runtime errors — surfaced while a flow is executing.
const (
	// ErrCodeWorkerFault indicates an error escaped a stage's produce/process/consume call.
	ErrCodeWorkerFault ErrorCode = "WORKER_FAULT"
	// ErrCodeSchemaMismatch indicates a payload's schema id did not match its queue's declared schema id.
	ErrCodeSchemaMismatch ErrorCode = "SCHEMA_MISMATCH"
	// ErrCodePushFailed indicates a stage could not enqueue a result, typically because the queue closed.
	ErrCodePushFailed ErrorCode = "PUSH_FAILED"
)

// Generic errors retained for callers outside the flow lifecycle (CLI flags, config loading).
const (
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrCodeTimeout indicates an operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeConfigInvalid:    false,
	ErrCodePluginLoad:       false,
	ErrCodeStageInstantiate: false,
	ErrCodeWorkerFault:      false,
	ErrCodeSchemaMismatch:   false,
	ErrCodePushFailed:       false,
	ErrCodeNotFound:         false,
	ErrCodeInvalidInput:     false,
	ErrCodeInternal:         false,
	ErrCodeTimeout:          true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
