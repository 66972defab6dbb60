package backend

import (
	"fmt"
	"strings"

	godap "github.com/google/go-dap"

	"github.com/voitta-ai/jetbrains-voitta/internal/dap"
)

// frameBatchSize is the stackTrace page size. Paged requests make the
// adapter deliver the stack in several batches, which is exactly the
// multi-batch + last-flag contract the stack walker is built for.
const frameBatchSize = 20

// DAPBackend adapts a Debug Adapter Protocol client to the Backend interface.
type DAPBackend struct {
	client *dap.Client
}

// NewDAPBackend wraps an initialized DAP client.
func NewDAPBackend(client *dap.Client) *DAPBackend {
	return &DAPBackend{client: client}
}

func (b *DAPBackend) Connected() bool {
	return b.client != nil && !b.client.Terminated()
}

func (b *DAPBackend) Suspended() bool {
	return b.Connected() && b.client.Stopped() != nil
}

func (b *DAPBackend) ThreadCount() (int, error) {
	threads, err := b.client.Threads()
	if err != nil {
		return 0, err
	}
	return len(threads), nil
}

func (b *DAPBackend) CurrentThread() (int, error) {
	stopped := b.client.Stopped()
	if stopped == nil {
		return 0, ErrNotSuspended
	}
	return stopped.ThreadID, nil
}

func (b *DAPBackend) CurrentThreadName() (string, error) {
	stopped := b.client.Stopped()
	if stopped == nil {
		return "", ErrNotSuspended
	}
	threads, err := b.client.Threads()
	if err != nil {
		return "", err
	}
	for _, t := range threads {
		if t.Id == stopped.ThreadID {
			return t.Name, nil
		}
	}
	return "", fmt.Errorf("thread %d not reported by adapter", stopped.ThreadID)
}

func (b *DAPBackend) CurrentLocation() (string, error) {
	threadRef, err := b.CurrentThread()
	if err != nil {
		return "", err
	}
	top, err := b.TopFrame(threadRef)
	if err != nil {
		return "", err
	}
	if top.File == "" {
		return "", fmt.Errorf("no source for current frame")
	}
	return fmt.Sprintf("%s:%d", top.File, top.Line), nil
}

func (b *DAPBackend) SuspendCause() (string, error) {
	stopped := b.client.Stopped()
	if stopped == nil {
		return "", ErrNotSuspended
	}
	return stopped.Reason, nil
}

// RequestFrames pages the adapter's stackTrace request and forwards each page
// as one batch. The last flag is derived from totalFrames when the adapter
// reports it, or from an underfull page otherwise.
func (b *DAPBackend) RequestFrames(threadRef int, l FrameListener) {
	go func() {
		start := 0
		for {
			raw, total, err := b.client.StackTrace(threadRef, start, frameBatchSize)
			if err != nil {
				l.OnError(err)
				return
			}

			batch := make([]Frame, len(raw))
			for i, f := range raw {
				batch[i] = frameFromDAP(f)
			}

			start += len(raw)
			last := len(raw) < frameBatchSize || (total > 0 && start >= total)
			if len(raw) == 0 {
				// Empty page with no frames at all: report as a final
				// empty batch so the listener still completes.
				last = true
			}
			l.OnFrames(batch, last)
			if last {
				return
			}
		}
	}()
}

func (b *DAPBackend) TopFrame(threadRef int) (Frame, error) {
	raw, _, err := b.client.StackTrace(threadRef, 0, 1)
	if err != nil {
		return Frame{}, err
	}
	if len(raw) == 0 {
		return Frame{}, fmt.Errorf("thread %d has no frames", threadRef)
	}
	return frameFromDAP(raw[0]), nil
}

func (b *DAPBackend) VisibleVariables(frameRef int) ([]Value, error) {
	return b.scopeValues(frameRef, isLocalsScope)
}

func (b *DAPBackend) Arguments(frameRef int) ([]Value, error) {
	return b.scopeValues(frameRef, isArgumentsScope)
}

func (b *DAPBackend) ParameterNames(frameRef int) ([]string, error) {
	args, err := b.Arguments(frameRef)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(args))
	for i, a := range args {
		names[i] = a.Name()
	}
	return names, nil
}

// Receiver looks for the conventional self-reference among the frame's
// arguments and locals. Static frames have none, which is not an error.
func (b *DAPBackend) Receiver(frameRef int) (Value, error) {
	for _, pick := range []func(int) ([]Value, error){b.Arguments, b.VisibleVariables} {
		vals, err := pick(frameRef)
		if err != nil {
			continue
		}
		for _, v := range vals {
			switch v.Name() {
			case "this", "self":
				return v, nil
			}
		}
	}
	return nil, nil
}

func (b *DAPBackend) Evaluator(frameRef int) (Evaluator, error) {
	if !b.Suspended() {
		return nil, ErrNotSuspended
	}
	return &dapEvaluator{client: b.client, frameRef: frameRef}, nil
}

// scopeValues fetches the variables of every scope matching the predicate.
func (b *DAPBackend) scopeValues(frameRef int, match func(godap.Scope) bool) ([]Value, error) {
	scopes, err := b.client.Scopes(frameRef)
	if err != nil {
		return nil, err
	}

	var values []Value
	for _, scope := range scopes {
		if !match(scope) || scope.VariablesReference <= 0 {
			continue
		}
		vars, err := b.client.Variables(scope.VariablesReference)
		if err != nil {
			return nil, err
		}
		for _, v := range vars {
			values = append(values, &dapValue{client: b.client, raw: v})
		}
	}
	return values, nil
}

func isLocalsScope(s godap.Scope) bool {
	hint := strings.ToLower(s.PresentationHint)
	name := strings.ToLower(s.Name)
	return hint == "locals" || name == "locals" || name == "local"
}

func isArgumentsScope(s godap.Scope) bool {
	hint := strings.ToLower(s.PresentationHint)
	name := strings.ToLower(s.Name)
	return hint == "arguments" || name == "arguments" || name == "args"
}

// frameFromDAP maps a wire frame, splitting "Class.method" names the way JVM
// and Go adapters render them. Missing pieces stay zero; the stack walker
// substitutes placeholders.
func frameFromDAP(f godap.StackFrame) Frame {
	frame := Frame{
		Ref:    f.Id,
		Method: f.Name,
		Line:   f.Line,
	}
	if idx := strings.LastIndex(f.Name, "."); idx > 0 && idx < len(f.Name)-1 {
		frame.Class = f.Name[:idx]
		frame.Method = f.Name[idx+1:]
	}
	if f.Source != nil {
		if f.Source.Name != "" {
			frame.File = f.Source.Name
		} else {
			frame.File = f.Source.Path
		}
	}
	return frame
}

// dapValue adapts one wire variable to the Value interface. Field access
// round-trips to the adapter, so Fields can fail even after the parent value
// was read successfully.
type dapValue struct {
	client *dap.Client
	raw    godap.Variable
}

func (v *dapValue) Name() string {
	return v.raw.Name
}

func (v *dapValue) Kind() Kind {
	switch {
	case v.raw.Value == "null" || v.raw.Value == "nil" || v.raw.Value == "<nil>":
		return KindNull
	case strings.HasPrefix(v.raw.Value, `"`):
		return KindString
	case v.raw.VariablesReference > 0:
		return KindObject
	default:
		return KindPrimitive
	}
}

func (v *dapValue) TypeName() (string, error) {
	if v.raw.Type == "" {
		return "", fmt.Errorf("adapter reported no type for %q", v.raw.Name)
	}
	return v.raw.Type, nil
}

func (v *dapValue) Text() (string, error) {
	return v.raw.Value, nil
}

func (v *dapValue) ObjectID() (int64, error) {
	if v.raw.VariablesReference <= 0 {
		return 0, fmt.Errorf("%q is not an object", v.raw.Name)
	}
	return int64(v.raw.VariablesReference), nil
}

func (v *dapValue) Fields() ([]Value, error) {
	if v.raw.VariablesReference <= 0 {
		return nil, nil
	}
	children, err := v.client.Variables(v.raw.VariablesReference)
	if err != nil {
		return nil, err
	}
	fields := make([]Value, len(children))
	for i, c := range children {
		fields[i] = &dapValue{client: v.client, raw: c}
	}
	return fields, nil
}

// dapEvaluator submits evaluate requests for one frame. The DAP request is
// synchronous on the wire, so the asynchronous contract is provided by
// dispatching it on its own goroutine.
type dapEvaluator struct {
	client   *dap.Client
	frameRef int
}

func (e *dapEvaluator) Evaluate(expression string, onResult func(Value), onError func(error)) {
	go func() {
		body, err := e.client.Evaluate(expression, e.frameRef)
		if err != nil {
			onError(err)
			return
		}
		onResult(&dapValue{
			client: e.client,
			raw: godap.Variable{
				Value:              body.Result,
				Type:               body.Type,
				VariablesReference: body.VariablesReference,
			},
		})
	}()
}
