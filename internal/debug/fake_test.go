package debug

import (
	"fmt"
	"time"

	"github.com/voitta-ai/jetbrains-voitta/internal/backend"
)

// fakeValue is a scripted backend.Value. Any accessor can be forced to fail
// to exercise the per-item degradation paths.
type fakeValue struct {
	name     string
	kind     backend.Kind
	typeName string
	text     string
	objectID int64
	fields   []backend.Value

	textErr   error
	typeErr   error
	fieldsErr error
	idErr     error
}

func (v *fakeValue) Name() string       { return v.name }
func (v *fakeValue) Kind() backend.Kind { return v.kind }

func (v *fakeValue) TypeName() (string, error) {
	if v.typeErr != nil {
		return "", v.typeErr
	}
	return v.typeName, nil
}

func (v *fakeValue) Text() (string, error) {
	if v.textErr != nil {
		return "", v.textErr
	}
	return v.text, nil
}

func (v *fakeValue) ObjectID() (int64, error) {
	if v.idErr != nil {
		return 0, v.idErr
	}
	if v.kind != backend.KindObject {
		return 0, fmt.Errorf("%s is not an object", v.name)
	}
	return v.objectID, nil
}

func (v *fakeValue) Fields() ([]backend.Value, error) {
	if v.fieldsErr != nil {
		return nil, v.fieldsErr
	}
	return v.fields, nil
}

func intValue(name string, n int) *fakeValue {
	return &fakeValue{name: name, kind: backend.KindPrimitive, typeName: "int", text: fmt.Sprintf("%d", n)}
}

func stringValue(name, s string) *fakeValue {
	return &fakeValue{name: name, kind: backend.KindString, typeName: "java.lang.String", text: s}
}

func objectValue(name, typeName string, id int64, fields ...backend.Value) *fakeValue {
	return &fakeValue{name: name, kind: backend.KindObject, typeName: typeName, objectID: id, fields: fields}
}

// frameBatch is one scripted delivery to the frame listener.
type frameBatch struct {
	frames []backend.Frame
	last   bool
	delay  time.Duration
	err    error
}

// fakeBackend is a scripted backend.Backend used across the package tests.
type fakeBackend struct {
	connected bool
	suspended bool

	threadCount    int
	threadCountErr error
	threadRef      int
	threadErr      error
	threadName     string
	threadNameErr  error
	location       string
	locationErr    error
	cause          string
	causeErr       error

	batches []frameBatch

	topFrame    backend.Frame
	topFrameErr error

	locals        []backend.Value
	localsErr     error
	args          []backend.Value
	argsErr       error
	paramNames    []string
	paramNamesErr error
	receiver      backend.Value
	receiverErr   error

	evaluator    backend.Evaluator
	evaluatorErr error
}

func suspendedBackend() *fakeBackend {
	return &fakeBackend{
		connected:   true,
		suspended:   true,
		threadCount: 4,
		threadRef:   1,
		threadName:  "main",
		location:    "Main.java:42",
	}
}

func (b *fakeBackend) Connected() bool { return b.connected }
func (b *fakeBackend) Suspended() bool { return b.suspended }

func (b *fakeBackend) ThreadCount() (int, error) {
	return b.threadCount, b.threadCountErr
}

func (b *fakeBackend) CurrentThread() (int, error) {
	return b.threadRef, b.threadErr
}

func (b *fakeBackend) CurrentThreadName() (string, error) {
	return b.threadName, b.threadNameErr
}

func (b *fakeBackend) CurrentLocation() (string, error) {
	return b.location, b.locationErr
}

func (b *fakeBackend) SuspendCause() (string, error) {
	return b.cause, b.causeErr
}

func (b *fakeBackend) RequestFrames(threadRef int, l backend.FrameListener) {
	batches := b.batches
	go func() {
		for _, batch := range batches {
			if batch.delay > 0 {
				time.Sleep(batch.delay)
			}
			if batch.err != nil {
				l.OnError(batch.err)
				return
			}
			l.OnFrames(batch.frames, batch.last)
		}
	}()
}

func (b *fakeBackend) TopFrame(threadRef int) (backend.Frame, error) {
	return b.topFrame, b.topFrameErr
}

func (b *fakeBackend) VisibleVariables(frameRef int) ([]backend.Value, error) {
	return b.locals, b.localsErr
}

func (b *fakeBackend) Arguments(frameRef int) ([]backend.Value, error) {
	return b.args, b.argsErr
}

func (b *fakeBackend) ParameterNames(frameRef int) ([]string, error) {
	return b.paramNames, b.paramNamesErr
}

func (b *fakeBackend) Receiver(frameRef int) (backend.Value, error) {
	return b.receiver, b.receiverErr
}

func (b *fakeBackend) Evaluator(frameRef int) (backend.Evaluator, error) {
	return b.evaluator, b.evaluatorErr
}

// fakeEvaluator answers each Evaluate call with a scripted outcome after an
// optional delay.
type fakeEvaluator struct {
	value backend.Value
	err   error
	delay time.Duration
}

func (e *fakeEvaluator) Evaluate(expression string, onResult func(backend.Value), onError func(error)) {
	go func() {
		if e.delay > 0 {
			time.Sleep(e.delay)
		}
		if e.err != nil {
			onError(e.err)
			return
		}
		onResult(e.value)
	}()
}

func valueSlice(values ...backend.Value) []backend.Value {
	return values
}

func userFrame(ref int, method string) backend.Frame {
	return backend.Frame{Ref: ref, Method: method, Class: "com.example.Main", File: "Main.java", Line: 10 + ref}
}
