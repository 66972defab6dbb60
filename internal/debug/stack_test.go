package debug

import (
	"errors"
	"testing"
	"time"

	"github.com/voitta-ai/jetbrains-voitta/internal/backend"
)

func TestCaptureStackSingleBatch(t *testing.T) {
	b := suspendedBackend()
	b.batches = []frameBatch{
		{frames: []backend.Frame{userFrame(100, "inner"), userFrame(101, "caller")}, last: true},
	}

	w := &StackWalker{Timeout: time.Second}
	frames := w.CaptureStack(b, 1, 20)

	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(frames))
	}
	if frames[0].MethodName != "inner" || frames[1].MethodName != "caller" {
		t.Errorf("frames out of order: %+v", frames)
	}
}

func TestCaptureStackWaitsForLastBatch(t *testing.T) {
	// The first batch must not complete the walk: only the last flag does.
	b := suspendedBackend()
	b.batches = []frameBatch{
		{frames: []backend.Frame{userFrame(100, "inner")}},
		{frames: []backend.Frame{userFrame(101, "mid"), userFrame(102, "outer")}, last: true, delay: 50 * time.Millisecond},
	}

	w := &StackWalker{Timeout: 2 * time.Second}
	frames := w.CaptureStack(b, 1, 20)

	if len(frames) != 3 {
		t.Fatalf("expected 3 frames across both batches, got %d", len(frames))
	}
	for i, f := range frames {
		if f.FrameIndex != i {
			t.Errorf("frame %d has index %d, want %d", i, f.FrameIndex, i)
		}
	}
	if frames[2].MethodName != "outer" {
		t.Errorf("outermost frame = %q, want outer", frames[2].MethodName)
	}
}

func TestCaptureStackTruncatesAfterCollection(t *testing.T) {
	// Truncation happens after the full walk completes, so the limit cannot
	// interfere with last-batch delivery.
	b := suspendedBackend()
	b.batches = []frameBatch{
		{frames: []backend.Frame{userFrame(100, "f0"), userFrame(101, "f1"), userFrame(102, "f2")}},
		{frames: []backend.Frame{userFrame(103, "f3"), userFrame(104, "f4")}, last: true},
	}

	w := &StackWalker{Timeout: time.Second}
	frames := w.CaptureStack(b, 1, 3)

	if len(frames) != 3 {
		t.Fatalf("expected truncation to 3 frames, got %d", len(frames))
	}
	if frames[2].MethodName != "f2" {
		t.Errorf("truncation kept wrong frames: %+v", frames)
	}
}

func TestCaptureStackTimeoutKeepsPartialFrames(t *testing.T) {
	b := suspendedBackend()
	b.batches = []frameBatch{
		{frames: []backend.Frame{userFrame(100, "inner")}},
		{frames: []backend.Frame{userFrame(101, "outer")}, last: true, delay: 2 * time.Second},
	}

	w := &StackWalker{Timeout: 100 * time.Millisecond}
	start := time.Now()
	frames := w.CaptureStack(b, 1, 20)
	elapsed := time.Since(start)

	if elapsed > time.Second {
		t.Errorf("timeout not honored: walk took %s", elapsed)
	}
	if len(frames) != 1 {
		t.Fatalf("expected the 1 partial frame, got %d", len(frames))
	}
	if frames[0].MethodName != "inner" {
		t.Errorf("partial frame = %q, want inner", frames[0].MethodName)
	}
}

func TestCaptureStackTimeoutFallsBackToTopFrame(t *testing.T) {
	b := suspendedBackend()
	b.batches = nil // no delivery at all
	b.topFrame = userFrame(100, "top")

	w := &StackWalker{Timeout: 50 * time.Millisecond}
	frames := w.CaptureStack(b, 1, 20)

	if len(frames) != 1 {
		t.Fatalf("expected single fallback frame, got %d", len(frames))
	}
	if frames[0].MethodName != "top" || frames[0].FrameIndex != 0 {
		t.Errorf("unexpected fallback frame: %+v", frames[0])
	}
}

func TestCaptureStackErrorFallsBackToTopFrame(t *testing.T) {
	b := suspendedBackend()
	b.batches = []frameBatch{{err: errors.New("vm disconnected")}}
	b.topFrame = userFrame(100, "top")

	w := &StackWalker{Timeout: time.Second}
	frames := w.CaptureStack(b, 1, 20)

	if len(frames) != 1 || frames[0].MethodName != "top" {
		t.Fatalf("expected top-frame fallback, got %+v", frames)
	}
}

func TestCaptureStackEmptyWhenFallbackFails(t *testing.T) {
	b := suspendedBackend()
	b.batches = []frameBatch{{err: errors.New("vm disconnected")}}
	b.topFrameErr = errors.New("also gone")

	w := &StackWalker{Timeout: time.Second}
	frames := w.CaptureStack(b, 1, 20)

	if len(frames) != 0 {
		t.Fatalf("expected no frames when even the fallback fails, got %d", len(frames))
	}
}

func TestNormalizeFramePlaceholders(t *testing.T) {
	frame := normalizeFrame(backend.Frame{Ref: 7}, 3)

	if frame.MethodName != "Unknown" || frame.ClassName != "Unknown" {
		t.Errorf("missing names not substituted: %+v", frame)
	}
	if frame.LineNumber != -1 {
		t.Errorf("line = %d, want -1", frame.LineNumber)
	}
	if frame.FrameIndex != 3 {
		t.Errorf("index = %d, want 3", frame.FrameIndex)
	}
	if frame.IsUserCode {
		t.Error("frame without source must not be user code")
	}
}

func TestIsUserCode(t *testing.T) {
	tests := []struct {
		class string
		file  string
		want  bool
	}{
		{"com.example.Main", "Main.java", true},
		{"java.util.ArrayList", "ArrayList.java", false},
		{"kotlin.collections.CollectionsKt", "Collections.kt", false},
		{"sun.misc.Unsafe", "Unsafe.java", false},
		{"com.example.Native", "", false},
	}

	for _, tt := range tests {
		if got := isUserCode(tt.class, tt.file); got != tt.want {
			t.Errorf("isUserCode(%q, %q) = %v, want %v", tt.class, tt.file, got, tt.want)
		}
	}
}
