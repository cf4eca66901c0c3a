package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestNew_Success(t *testing.T) {
	err := New(ErrCodeNotFound, "not found", http.StatusNotFound)
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, err.Code)
	}
	if err.Message != "not found" {
		t.Errorf("expected message 'not found', got %q", err.Message)
	}
	if err.HTTPStatus != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, err.HTTPStatus)
	}
	if err.Retryable {
		t.Error("NOT_FOUND should not be retryable")
	}
}

func TestNew_Retryable(t *testing.T) {
	err := New(ErrCodeTimeout, "timed out", http.StatusGatewayTimeout)
	if !err.Retryable {
		t.Error("TIMEOUT should be retryable")
	}
}

func TestConfigError(t *testing.T) {
	err := ConfigError("queue \"q1\" must declare a positive capacity")
	if err.Code != ErrCodeConfigInvalid {
		t.Errorf("expected CONFIG_INVALID, got %s", err.Code)
	}
	if err.HTTPStatus != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", err.HTTPStatus)
	}
	if err.Retryable {
		t.Error("a rejected flow specification should not be retryable")
	}
	if !strings.Contains(err.Message, "q1") {
		t.Errorf("expected message to include the failure reason, got %q", err.Message)
	}
}

func TestPluginLoadError(t *testing.T) {
	cause := fmt.Errorf("plugin: symbol lookup error")
	err := PluginLoadError("libstage_gen.so", cause)
	if err.Code != ErrCodePluginLoad {
		t.Errorf("expected PLUGIN_LOAD_FAILED, got %s", err.Code)
	}
	if err.Details["plugin"] != "libstage_gen.so" {
		t.Errorf("expected plugin detail, got %v", err.Details["plugin"])
	}
	if err.Cause != cause {
		t.Error("expected cause to be preserved")
	}
}

func TestStageInstantiateError(t *testing.T) {
	err := StageInstantiateError("sink", fmt.Errorf("missing config key"))
	if err.Code != ErrCodeStageInstantiate {
		t.Errorf("expected STAGE_INSTANTIATE_FAILED, got %s", err.Code)
	}
	if err.Details["stage"] != "sink" {
		t.Errorf("expected stage detail, got %v", err.Details["stage"])
	}
}

func TestWorkerFault(t *testing.T) {
	err := WorkerFault("transform", 2, fmt.Errorf("panic recovered"))
	if err.Code != ErrCodeWorkerFault {
		t.Errorf("expected WORKER_FAULT, got %s", err.Code)
	}
	if err.Details["stage"] != "transform" || err.Details["thread_index"] != 2 {
		t.Errorf("expected stage/thread_index details, got %v", err.Details)
	}
}

func TestSchemaMismatch(t *testing.T) {
	err := SchemaMismatch("q1", "order.v1", "order.v2")
	if err.Code != ErrCodeSchemaMismatch {
		t.Errorf("expected SCHEMA_MISMATCH, got %s", err.Code)
	}
	if err.Details["queue"] != "q1" || err.Details["want_schema_id"] != "order.v1" || err.Details["got_schema_id"] != "order.v2" {
		t.Errorf("expected queue/want/got schema details, got %v", err.Details)
	}
	if err.Retryable {
		t.Error("a schema mismatch should not be retryable")
	}
}

func TestPushFailed(t *testing.T) {
	err := PushFailed("q1", nil)
	if err.Code != ErrCodePushFailed {
		t.Errorf("expected PUSH_FAILED, got %s", err.Code)
	}
	if err.Details["queue"] != "q1" {
		t.Errorf("expected queue detail, got %v", err.Details["queue"])
	}
}

func TestNotFound(t *testing.T) {
	err := NotFound("flow", "checkout-v2")
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected NOT_FOUND, got %s", err.Code)
	}
	if err.HTTPStatus != http.StatusNotFound {
		t.Errorf("expected 404, got %d", err.HTTPStatus)
	}
	if err.Details["resource"] != "flow" || err.Details["id"] != "checkout-v2" {
		t.Errorf("expected resource/id details, got %v", err.Details)
	}
}

func TestNotFound_EmptyID(t *testing.T) {
	err := NotFound("flow", "")
	if _, ok := err.Details["id"]; ok {
		t.Error("expected no 'id' key in details when id is empty")
	}
}

func TestInvalidInput(t *testing.T) {
	err := InvalidInput("threads", "must be at least 1")
	if err.Code != ErrCodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %s", err.Code)
	}
	if err.Details["field"] != "threads" {
		t.Errorf("expected field detail, got %v", err.Details["field"])
	}
}

func TestTimeout(t *testing.T) {
	err := Timeout("graceful shutdown")
	if err.Code != ErrCodeTimeout {
		t.Errorf("expected TIMEOUT, got %s", err.Code)
	}
	if !err.Retryable {
		t.Error("TIMEOUT should be retryable")
	}
}

func TestInternal(t *testing.T) {
	cause := fmt.Errorf("registry corrupted")
	err := Internal(cause)
	if err.Code != ErrCodeInternal {
		t.Errorf("expected INTERNAL_ERROR, got %s", err.Code)
	}
	if err.Cause != cause {
		t.Error("expected cause to be set")
	}
	if err.Retryable {
		t.Error("Internal should not be retryable by default")
	}
}

func TestWithCause_Chain(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := NotFound("stage", "gen").WithCause(cause)
	if err.Cause != cause {
		t.Error("expected cause to be set via WithCause")
	}
	if !strings.Contains(err.Error(), "root cause") {
		t.Errorf("Error() should contain cause, got %q", err.Error())
	}
}

func TestWithDetails_Merge(t *testing.T) {
	err := NotFound("stage", "gen").WithDetails(map[string]any{"extra": "info"})
	if err.Details["extra"] != "info" {
		t.Errorf("expected extra=info in details")
	}
	if err.Details["resource"] != "stage" {
		t.Error("expected original details to be preserved")
	}

	err.WithDetails(map[string]any{"another": "detail"})
	if err.Details["another"] != "detail" {
		t.Error("expected another=detail to be merged")
	}
	if err.Details["extra"] != "info" {
		t.Error("expected extra=info to be preserved after second merge")
	}
}

func TestWithDetails_Nil(t *testing.T) {
	err := Internal(nil).WithDetails(nil)
	if err.Details == nil {
		t.Fatal("expected Details map to be initialized even with nil input")
	}
}

func TestWithDetail_Single(t *testing.T) {
	err := Internal(nil).WithDetail("queue", "q1")
	if err.Details["queue"] != "q1" {
		t.Errorf("expected queue=q1 in details")
	}

	err.WithDetail("queue", "q2")
	if err.Details["queue"] != "q2" {
		t.Errorf("expected queue=q2 after overwrite")
	}
}

func TestWithDetail_NilMap(t *testing.T) {
	err := &AppError{}
	err.WithDetail("key", "value")
	if err.Details == nil {
		t.Fatal("expected Details map to be initialized")
	}
	if err.Details["key"] != "value" {
		t.Errorf("expected key=value, got %v", err.Details["key"])
	}
}

func TestError_Format(t *testing.T) {
	err := NotFound("stage", "sink")
	s := err.Error()
	if !strings.Contains(s, "NOT_FOUND") {
		t.Errorf("expected error string to contain code, got %q", s)
	}
	if !strings.Contains(s, "was not found") {
		t.Errorf("expected error string to contain message, got %q", s)
	}
}

func TestUnwrap_Success(t *testing.T) {
	cause := fmt.Errorf("underlying")
	err := Internal(cause)
	if err.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}

	err2 := NotFound("x", "")
	if err2.Unwrap() != nil {
		t.Error("Unwrap should return nil when no cause")
	}
}

func TestIsRetryableCode_Table(t *testing.T) {
	retryable := []ErrorCode{ErrCodeTimeout}
	for _, code := range retryable {
		if !IsRetryableCode(code) {
			t.Errorf("expected %s to be retryable", code)
		}
	}

	nonRetryable := []ErrorCode{
		ErrCodeConfigInvalid, ErrCodePluginLoad, ErrCodeStageInstantiate,
		ErrCodeWorkerFault, ErrCodeSchemaMismatch, ErrCodePushFailed,
		ErrCodeNotFound, ErrCodeInvalidInput, ErrCodeInternal,
	}
	for _, code := range nonRetryable {
		if IsRetryableCode(code) {
			t.Errorf("expected %s to NOT be retryable", code)
		}
	}
}

func TestToResponse_Success(t *testing.T) {
	err := NotFound("flow", "checkout-v2")
	resp := err.ToResponse()
	if resp.Error.Code != ErrCodeNotFound {
		t.Errorf("expected code NOT_FOUND in response, got %s", resp.Error.Code)
	}
	if resp.Error.Retryable {
		t.Error("expected retryable=false in response")
	}
	if resp.Error.Details["resource"] != "flow" {
		t.Error("expected resource=flow in response details")
	}
}

func TestIsAppError_Success(t *testing.T) {
	appErr := NotFound("x", "")
	if !IsAppError(appErr) {
		t.Error("expected IsAppError to return true for AppError")
	}

	wrapped := fmt.Errorf("wrapped: %w", appErr)
	if !IsAppError(wrapped) {
		t.Error("expected IsAppError to return true for wrapped AppError")
	}

	plain := fmt.Errorf("plain error")
	if IsAppError(plain) {
		t.Error("expected IsAppError to return false for plain error")
	}
}

func TestAsAppError_Success(t *testing.T) {
	appErr := Internal(nil)
	wrapped := fmt.Errorf("wrap: %w", appErr)

	got, ok := AsAppError(wrapped)
	if !ok {
		t.Fatal("expected AsAppError to succeed for wrapped AppError")
	}
	if got.Code != ErrCodeInternal {
		t.Errorf("expected INTERNAL_ERROR, got %s", got.Code)
	}

	_, ok = AsAppError(fmt.Errorf("not an app error"))
	if ok {
		t.Error("expected AsAppError to return false for non-AppError")
	}
}

func TestImplementsErrorInterface(t *testing.T) {
	var err error = NotFound("test", "1")
	if err.Error() == "" {
		t.Error("Error() should not be empty")
	}

	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		t.Error("stderrors.As should work with AppError")
	}
}
