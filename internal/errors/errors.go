// Package errors provides structured error types for the voitta-mcp server.
// These errors include hints that guide a tool-calling client to correct
// course when something goes wrong.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents a category of error for programmatic handling
type ErrorCode string

const (
	// Session errors
	CodeNoSession       ErrorCode = "NO_SESSION"
	CodeNotSuspended    ErrorCode = "NOT_SUSPENDED"
	CodeSessionNotFound ErrorCode = "SESSION_NOT_FOUND"
	CodeAttachFailed    ErrorCode = "ATTACH_FAILED"

	// Introspection errors
	CodeFrameOutOfRange  ErrorCode = "FRAME_OUT_OF_RANGE"
	CodeStackWalkFailed  ErrorCode = "STACK_WALK_FAILED"
	CodeEvaluationFailed ErrorCode = "EVALUATION_FAILED"
	CodeTimeout          ErrorCode = "TIMEOUT"

	// Parameter errors
	CodeMissingParameter ErrorCode = "MISSING_PARAMETER"
	CodeInvalidParameter ErrorCode = "INVALID_PARAMETER"

	// Permission errors
	CodePermissionDenied ErrorCode = "PERMISSION_DENIED"

	// Analysis errors
	CodeParseFailed  ErrorCode = "PARSE_FAILED"
	CodeFileNotFound ErrorCode = "FILE_NOT_FOUND"
)

// DebugError is a structured error type that includes enough context for the
// caller to understand what went wrong and how to fix it.
type DebugError struct {
	// Code is a machine-readable error category
	Code ErrorCode `json:"code"`

	// Message is a human-readable description of what went wrong
	Message string `json:"message"`

	// Hint provides actionable guidance on how to fix the error
	Hint string `json:"hint,omitempty"`

	// Details contains additional context (e.g., the invalid value)
	Details map[string]interface{} `json:"details,omitempty"`

	// Cause is the underlying error, if any
	Cause error `json:"-"`
}

// Error implements the error interface
func (e *DebugError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)

	if e.Hint != "" {
		sb.WriteString(" | Hint: ")
		sb.WriteString(e.Hint)
	}

	return sb.String()
}

// Unwrap returns the underlying error for error chaining
func (e *DebugError) Unwrap() error {
	return e.Cause
}

// WithDetails adds details to the error
func (e *DebugError) WithDetails(key string, value interface{}) *DebugError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// --- Session errors ---

// NoSession reports that no debugger is attached.
func NoSession() *DebugError {
	return &DebugError{
		Code:    CodeNoSession,
		Message: "no active debug session",
		Hint:    "Use debug_attach to connect to a running debug adapter before calling inspection tools.",
	}
}

// NotSuspended reports that the debuggee is running, so its state cannot be read.
func NotSuspended() *DebugError {
	return &DebugError{
		Code:    CodeNotSuspended,
		Message: "debuggee is not suspended",
		Hint:    "Stack frames and variables are only readable while the program is halted at a breakpoint or step. Resume inspection after the program stops.",
	}
}

// SessionNotFound reports an unknown session ID.
func SessionNotFound(sessionID string) *DebugError {
	return &DebugError{
		Code:    CodeSessionNotFound,
		Message: fmt.Sprintf("session '%s' not found", sessionID),
		Hint:    "Use debug_list_sessions to see active sessions, or debug_attach to create one.",
		Details: map[string]interface{}{
			"sessionId": sessionID,
		},
	}
}

// AttachFailed reports a failed connection to a debug adapter.
func AttachFailed(address string, err error) *DebugError {
	return &DebugError{
		Code:    CodeAttachFailed,
		Message: fmt.Sprintf("failed to attach to debug adapter at %s: %v", address, err),
		Hint:    "Ensure a DAP-speaking adapter is listening at the address (e.g. 'dlv dap --listen' or a JDWP bridge) and that the host/port are correct.",
		Cause:   err,
		Details: map[string]interface{}{
			"address": address,
		},
	}
}

// --- Introspection errors ---

// FrameOutOfRange reports a frame index beyond the captured stack.
func FrameOutOfRange(index, available int) *DebugError {
	return &DebugError{
		Code:    CodeFrameOutOfRange,
		Message: fmt.Sprintf("frame index %d is out of range (stack has %d frames)", index, available),
		Hint:    "Use get_current_stack_trace to see valid frame indices. Index 0 is the innermost frame.",
		Details: map[string]interface{}{
			"frameIndex":      index,
			"availableFrames": available,
		},
	}
}

// EvaluationFailed reports an expression evaluation failure.
func EvaluationFailed(expression string, err error) *DebugError {
	return &DebugError{
		Code:    CodeEvaluationFailed,
		Message: fmt.Sprintf("failed to evaluate expression '%s': %v", expression, err),
		Hint:    "Check that the expression syntax is correct for the target language and that referenced variables are in scope in the chosen frame.",
		Cause:   err,
		Details: map[string]interface{}{
			"expression": expression,
		},
	}
}

// Timeout reports a bounded wait that expired.
func Timeout(operation string, millis int64) *DebugError {
	return &DebugError{
		Code:    CodeTimeout,
		Message: fmt.Sprintf("%s timed out after %dms", operation, millis),
		Hint:    "The debug backend did not answer in time. The debuggee may be busy or the adapter wedged; retry after the program re-suspends.",
		Details: map[string]interface{}{
			"operation":     operation,
			"timeoutMillis": millis,
		},
	}
}

// --- Parameter errors ---

// MissingParameter reports a missing required tool parameter.
func MissingParameter(paramName, description string) *DebugError {
	return &DebugError{
		Code:    CodeMissingParameter,
		Message: fmt.Sprintf("required parameter '%s' is missing", paramName),
		Hint:    description,
		Details: map[string]interface{}{
			"parameter": paramName,
		},
	}
}

// InvalidParameter reports a parameter with an unusable value.
func InvalidParameter(paramName string, value interface{}, expected string) *DebugError {
	return &DebugError{
		Code:    CodeInvalidParameter,
		Message: fmt.Sprintf("invalid value for parameter '%s': %v", paramName, value),
		Hint:    fmt.Sprintf("Expected: %s", expected),
		Details: map[string]interface{}{
			"parameter": paramName,
			"value":     value,
			"expected":  expected,
		},
	}
}

// --- Permission errors ---

// PermissionDenied reports an operation blocked by server mode.
func PermissionDenied(operation, mode string) *DebugError {
	var hint string
	switch operation {
	case "attach":
		hint = "The server is configured to disallow attaching to processes. Ask the administrator to enable 'allowAttach' in the configuration."
	case "evaluate":
		hint = "Expression evaluation is disabled in the current server mode. Evaluated expressions can call mutating code, so readonly deployments turn it off."
	default:
		hint = fmt.Sprintf("This operation is not allowed in '%s' mode.", mode)
	}

	return &DebugError{
		Code:    CodePermissionDenied,
		Message: fmt.Sprintf("%s is not allowed in current server mode", operation),
		Hint:    hint,
		Details: map[string]interface{}{
			"operation": operation,
			"mode":      mode,
		},
	}
}

// --- Analysis errors ---

// ParseFailed reports a source file that could not be analyzed.
func ParseFailed(path string, err error) *DebugError {
	return &DebugError{
		Code:    CodeParseFailed,
		Message: fmt.Sprintf("failed to parse %s: %v", path, err),
		Hint:    "Check that the file is valid Go source. Partial results may still be available for files with isolated syntax errors.",
		Cause:   err,
		Details: map[string]interface{}{
			"path": path,
		},
	}
}

// FileNotFound reports a missing analysis target.
func FileNotFound(path string) *DebugError {
	return &DebugError{
		Code:    CodeFileNotFound,
		Message: fmt.Sprintf("file not found: %s", path),
		Hint:    "Provide a path relative to the configured workspace root, or an absolute path inside it.",
		Details: map[string]interface{}{
			"path": path,
		},
	}
}

// Wrap wraps a generic error with context
func Wrap(code ErrorCode, message string, hint string, err error) *DebugError {
	return &DebugError{
		Code:    code,
		Message: message,
		Hint:    hint,
		Cause:   err,
	}
}

// FromError creates a DebugError from a generic error, preserving any
// existing structure.
func FromError(err error) *DebugError {
	var de *DebugError
	if stderrors.As(err, &de) {
		return de
	}
	return &DebugError{
		Code:    "UNKNOWN_ERROR",
		Message: err.Error(),
		Cause:   err,
	}
}
