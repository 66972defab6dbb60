package debug

import (
	"log"
	"strings"
	"sync"
	"time"

	"github.com/voitta-ai/jetbrains-voitta/internal/backend"
	"github.com/voitta-ai/jetbrains-voitta/pkg/types"
)

// DefaultStackTimeout bounds how long a stack walk waits for the backend's
// asynchronous frame delivery before degrading to the top-frame fallback.
const DefaultStackTimeout = 5 * time.Second

// runtimePrefixes mark declaring types that belong to the language runtime
// rather than user code.
var runtimePrefixes = []string{
	"java.", "javax.", "jdk.", "sun.", "com.sun.",
	"kotlin.", "kotlinx.", "scala.",
	"runtime.", "reflect.", "syscall.",
}

// StackWalker captures a suspended thread's call stack through the backend's
// batch-delivery frame API.
type StackWalker struct {
	// Timeout bounds the wait for the last batch. Zero means
	// DefaultStackTimeout.
	Timeout time.Duration
}

// frameAccumulator collects delivered batches in order. Only the last-batch
// flag completes the walk: completing on the first batch would silently
// truncate the stack to whatever the backend sent first.
type frameAccumulator struct {
	mu     sync.Mutex
	frames []backend.Frame
	comp   *completion[[]backend.Frame]
}

func (a *frameAccumulator) OnFrames(batch []backend.Frame, last bool) {
	a.mu.Lock()
	a.frames = append(a.frames, batch...)
	snapshot := make([]backend.Frame, len(a.frames))
	copy(snapshot, a.frames)
	a.mu.Unlock()

	if last {
		a.comp.complete(snapshot)
	}
}

func (a *frameAccumulator) OnError(err error) {
	a.comp.fail(err)
}

// collected returns whatever arrived so far, for the partial-result path.
func (a *frameAccumulator) collected() []backend.Frame {
	a.mu.Lock()
	defer a.mu.Unlock()
	snapshot := make([]backend.Frame, len(a.frames))
	copy(snapshot, a.frames)
	return snapshot
}

// CaptureStack walks the thread's call stack and returns frames ordered by
// index, 0 = innermost. The result is truncated to maxFrames only after
// collection completes, so truncation can never interact with the backend's
// last-batch semantics. A timed-out or failed walk degrades to the single
// top frame rather than returning nothing.
func (w *StackWalker) CaptureStack(b backend.Backend, threadRef, maxFrames int) []types.StackFrame {
	raw := w.captureFrames(b, threadRef)
	if maxFrames > 0 && len(raw) > maxFrames {
		raw = raw[:maxFrames]
	}

	frames := make([]types.StackFrame, len(raw))
	for i, f := range raw {
		frames[i] = normalizeFrame(f, i)
	}
	return frames
}

// captureFrames returns raw backend frames, including the Ref handles needed
// for follow-up variable reads.
func (w *StackWalker) captureFrames(b backend.Backend, threadRef int) []backend.Frame {
	timeout := w.Timeout
	if timeout <= 0 {
		timeout = DefaultStackTimeout
	}

	acc := &frameAccumulator{comp: newCompletion[[]backend.Frame]()}
	b.RequestFrames(threadRef, acc)

	frames, err, timedOut := acc.comp.await(timeout)
	switch {
	case timedOut:
		// Keep whatever batches arrived before the deadline; only an empty
		// accumulator warrants the synchronous fallback.
		if partial := acc.collected(); len(partial) > 0 {
			log.Printf("stack walk timed out after %s with %d partial frames", timeout, len(partial))
			return partial
		}
		log.Printf("stack walk timed out after %s, falling back to top frame", timeout)
		return w.topFrameFallback(b, threadRef)
	case err != nil:
		log.Printf("stack walk failed (%v), falling back to top frame", err)
		return w.topFrameFallback(b, threadRef)
	default:
		return frames
	}
}

// topFrameFallback fetches only the innermost frame through the cheaper
// synchronous path.
func (w *StackWalker) topFrameFallback(b backend.Backend, threadRef int) []backend.Frame {
	top, err := b.TopFrame(threadRef)
	if err != nil {
		log.Printf("top frame fallback failed: %v", err)
		return nil
	}
	return []backend.Frame{top}
}

// normalizeFrame converts a raw frame, substituting placeholders for fields
// that native or synthetic frames could not provide. Frames are never
// discarded for missing source info.
func normalizeFrame(f backend.Frame, index int) types.StackFrame {
	frame := types.StackFrame{
		MethodName: f.Method,
		ClassName:  f.Class,
		FileName:   f.File,
		LineNumber: f.Line,
		FrameIndex: index,
	}
	if frame.MethodName == "" {
		frame.MethodName = "Unknown"
	}
	if frame.ClassName == "" {
		frame.ClassName = "Unknown"
	}
	if frame.LineNumber <= 0 {
		frame.LineNumber = -1
	}
	frame.IsUserCode = isUserCode(f.Class, f.File)
	return frame
}

// isUserCode distinguishes user frames from runtime internals. Frames with
// no source file are treated as non-user (native, synthetic, or generated).
func isUserCode(class, file string) bool {
	if file == "" {
		return false
	}
	for _, prefix := range runtimePrefixes {
		if strings.HasPrefix(class, prefix) {
			return false
		}
	}
	return true
}
