// Package types defines the shared data model for the voitta-mcp server.
//
// Every entity here is a transient snapshot: it is built fresh for one tool
// invocation, serialized to JSON, and discarded. Nothing is cached across
// invocations because the debuggee's state is presumed stale the moment
// execution resumes.
package types

import "time"

// VariableScope classifies where a variable was found in a frame.
type VariableScope string

const (
	ScopeLocal     VariableScope = "Local"
	ScopeParameter VariableScope = "Parameter"
	ScopeField     VariableScope = "Field"
	ScopeStatic    VariableScope = "Static"
)

// SuspendReason is a best-effort classification of why the debuggee stopped.
// When the backend does not report an explicit cause it is inferred from
// whether a source location resolved, so "breakpoint" vs "step" is a
// heuristic, not ground truth.
type SuspendReason string

const (
	SuspendReasonBreakpoint SuspendReason = "breakpoint"
	SuspendReasonStep       SuspendReason = "step"
	SuspendReasonUnknown    SuspendReason = "unknown"
)

// StackFrame is one activation record of a suspended thread's call stack.
// FrameIndex 0 is the innermost (currently executing) frame; indices walk
// outward through callers in calling order.
type StackFrame struct {
	MethodName string `json:"methodName"`
	ClassName  string `json:"className"`
	FileName   string `json:"fileName,omitempty"`
	LineNumber int    `json:"lineNumber"`
	IsUserCode bool   `json:"isUserCode"`
	FrameIndex int    `json:"frameIndex"`
}

// Variable is one named value record extracted from a frame. Children are
// populated only when expansion was requested and depth budget remained.
type Variable struct {
	Name         string        `json:"name"`
	Value        string        `json:"value,omitempty"`
	Type         string        `json:"type,omitempty"`
	Scope        VariableScope `json:"scope"`
	IsExpandable bool          `json:"isExpandable"`
	IsPrimitive  bool          `json:"isPrimitive"`
	Children     []Variable    `json:"children,omitempty"`
}

// SessionState is a coarse, point-in-time view of the debug session.
// Each field degrades independently: a failed sub-read blanks only its own
// field, never the whole state.
type SessionState struct {
	IsActive            bool          `json:"isActive"`
	IsSuspended         bool          `json:"isSuspended"`
	SuspendedThreadName string        `json:"suspendedThreadName,omitempty"`
	CurrentLocation     string        `json:"currentLocation,omitempty"`
	TotalThreads        int           `json:"totalThreads"`
	SuspendReason       SuspendReason `json:"suspendReason,omitempty"`
}

// EvaluationResult reports the outcome of one expression evaluation.
// Exactly one of (Value, Type) or Error is meaningful, gated by Success.
type EvaluationResult struct {
	Value         string `json:"value,omitempty"`
	Type          string `json:"type,omitempty"`
	Success       bool   `json:"success"`
	Error         string `json:"error,omitempty"`
	ElapsedMillis int64  `json:"elapsedMillis"`
}

// Snapshot aggregates session state with optional stack and variable views.
// Nil slices mean the caller did not request that section; they serialize as
// absent fields so "not requested" is distinguishable from "empty".
type Snapshot struct {
	SessionState   SessionState `json:"sessionState"`
	StackFrames    []StackFrame `json:"stackFrames,omitempty"`
	FrameVariables []Variable   `json:"frameVariables,omitempty"`
	Timestamp      time.Time    `json:"timestamp"`
}

// --- Source analysis results ---

// FieldInfo describes one struct field.
type FieldInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Tag  string `json:"tag,omitempty"`
	Line int    `json:"line"`
}

// FunctionInfo describes a function or method declaration.
type FunctionInfo struct {
	Name      string `json:"name"`
	Receiver  string `json:"receiver,omitempty"`
	Signature string `json:"signature"`
	Doc       string `json:"doc,omitempty"`
	Line      int    `json:"line"`
	Exported  bool   `json:"exported"`
}

// TypeInfo describes a type declaration with its fields and methods.
type TypeInfo struct {
	Name     string         `json:"name"`
	Kind     string         `json:"kind"` // struct, interface, alias, other
	Doc      string         `json:"doc,omitempty"`
	Line     int            `json:"line"`
	Exported bool           `json:"exported"`
	Fields   []FieldInfo    `json:"fields,omitempty"`
	Methods  []FunctionInfo `json:"methods,omitempty"`
}

// FileStructure is the analyzed outline of one source file.
type FileStructure struct {
	Path      string         `json:"path"`
	Package   string         `json:"package"`
	Imports   []string       `json:"imports,omitempty"`
	Types     []TypeInfo     `json:"types,omitempty"`
	Functions []FunctionInfo `json:"functions,omitempty"`
}

// SymbolMatch is one hit from a workspace symbol search.
type SymbolMatch struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	File      string `json:"file"`
	Line      int    `json:"line"`
	Container string `json:"container,omitempty"`
}
