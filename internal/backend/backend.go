// Package backend defines the narrow capability interface through which the
// debug core reads a suspended process's state.
//
// The interface deliberately mirrors what any debugger wire protocol can
// provide: frame listing, visible variables, argument vectors, a receiver
// object, and frame-bound expression evaluation. Every accessor can fail
// independently because the values live in a foreign memory space that may be
// collected, mutated, or disconnected between any two calls. A concrete
// implementation over the Debug Adapter Protocol lives in dap.go; the core in
// internal/debug never depends on a specific protocol.
package backend

import "errors"

// ErrNotSuspended is returned by reads that require a halted debuggee.
var ErrNotSuspended = errors.New("debuggee is not suspended")

// Kind is the coarse shape of a foreign value, used to pick a formatting path.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindPrimitive
	KindObject
)

// Value is a handle to one value in the debuggee's memory. Name and Kind are
// determined at extraction time; every other accessor re-reads foreign state
// and can fail on its own.
type Value interface {
	// Name is the variable or field name this value was bound to, or "" for
	// anonymous values such as evaluation results.
	Name() string

	// Kind reports the coarse shape of the value.
	Kind() Kind

	// TypeName reports the runtime type name.
	TypeName() (string, error)

	// Text reports the runtime's own textual rendering of the value.
	Text() (string, error)

	// ObjectID reports a stable identity for object values, used to build
	// reference tokens. Non-objects return an error.
	ObjectID() (int64, error)

	// Fields enumerates the object's declared fields as child values.
	// Non-objects return an empty slice.
	Fields() ([]Value, error)
}

// Frame is one raw activation record as delivered by the backend. Zero or
// empty fields are legal: native and synthetic frames routinely lack source
// information, and the stack walker substitutes placeholders rather than
// dropping the frame.
type Frame struct {
	// Ref is the backend's handle for this frame, valid only while the
	// debuggee stays suspended.
	Ref int

	Method string
	Class  string
	File   string
	Line   int
}

// FrameListener receives the results of an asynchronous frame-list request.
//
// Frames arrive in one or more batches in stack order (innermost first).
// The request is complete only when a batch carries last=true, or when
// OnError fires; exactly one of those terminal signals is delivered, but a
// listener must tolerate late duplicate calls after it has already observed
// a terminal signal (the backend is not required to stop talking the moment
// the caller loses interest).
type FrameListener interface {
	OnFrames(batch []Frame, last bool)
	OnError(err error)
}

// Evaluator evaluates expressions in the context of one frame.
// Results are delivered through callbacks; exactly one of the two fires per
// Evaluate call, at an arbitrary later time.
type Evaluator interface {
	Evaluate(expression string, onResult func(Value), onError func(error))
}

// Backend is the capability surface of a live debug session. All reads are
// assumed to be invoked under the owning session's access discipline; the
// backend itself performs no cross-call locking.
type Backend interface {
	// Connected reports whether a debuggee is attached at all.
	Connected() bool

	// Suspended reports whether the debuggee is currently halted.
	Suspended() bool

	// ThreadCount reports the number of debuggee threads.
	ThreadCount() (int, error)

	// CurrentThread returns the backend ref of the suspended thread.
	CurrentThread() (int, error)

	// CurrentThreadName reports the suspended thread's name.
	CurrentThreadName() (string, error)

	// CurrentLocation reports a human-readable source position for the
	// suspension point, e.g. "Main.java:42".
	CurrentLocation() (string, error)

	// SuspendCause reports the backend's own stop reason ("breakpoint",
	// "step", ...) or "" when the backend does not distinguish causes.
	SuspendCause() (string, error)

	// RequestFrames starts an asynchronous stack walk for a thread.
	// It returns immediately; delivery happens through the listener.
	RequestFrames(threadRef int, l FrameListener)

	// TopFrame synchronously fetches only the innermost frame. It is the
	// cheap fallback used when the asynchronous walk fails or times out.
	TopFrame(threadRef int) (Frame, error)

	// VisibleVariables enumerates the variables visible at the frame's
	// current program counter.
	VisibleVariables(frameRef int) ([]Value, error)

	// Arguments returns the frame's argument-value vector in slot order.
	Arguments(frameRef int) ([]Value, error)

	// ParameterNames returns the method's declared parameter names in
	// declaration order. The slice may diverge in length from Arguments
	// (varargs, synthetic parameters).
	ParameterNames(frameRef int) ([]string, error)

	// Receiver returns the frame's receiver object, or nil for static
	// frames.
	Receiver(frameRef int) (Value, error)

	// Evaluator resolves an evaluator bound to the frame, or an error when
	// evaluation is unavailable there.
	Evaluator(frameRef int) (Evaluator, error)
}
