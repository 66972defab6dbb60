package debug

import (
	"errors"
	"testing"

	"github.com/voitta-ai/jetbrains-voitta/pkg/types"
)

func TestReadStateInactive(t *testing.T) {
	st := ReadState(nil)
	if st.IsActive || st.IsSuspended {
		t.Errorf("nil backend should read as inactive, got %+v", st)
	}

	b := &fakeBackend{connected: false}
	st = ReadState(b)
	if st.IsActive {
		t.Errorf("disconnected backend should read as inactive, got %+v", st)
	}
}

func TestReadStateRunning(t *testing.T) {
	b := &fakeBackend{connected: true, suspended: false, threadCount: 8}

	st := ReadState(b)
	if !st.IsActive || st.IsSuspended {
		t.Errorf("state = %+v", st)
	}
	if st.TotalThreads != 8 {
		t.Errorf("threads = %d, want 8", st.TotalThreads)
	}
	if st.SuspendedThreadName != "" || st.CurrentLocation != "" {
		t.Errorf("running session must not report suspension details: %+v", st)
	}
}

func TestReadStateSuspended(t *testing.T) {
	b := suspendedBackend()
	b.cause = "breakpoint"

	st := ReadState(b)
	if !st.IsActive || !st.IsSuspended {
		t.Fatalf("state = %+v", st)
	}
	if st.SuspendedThreadName != "main" {
		t.Errorf("thread name = %q", st.SuspendedThreadName)
	}
	if st.CurrentLocation != "Main.java:42" {
		t.Errorf("location = %q", st.CurrentLocation)
	}
	if st.SuspendReason != types.SuspendReasonBreakpoint {
		t.Errorf("reason = %q, want breakpoint", st.SuspendReason)
	}
}

func TestReadStateGuardedSubReads(t *testing.T) {
	// A failing thread-name lookup must not blank the rest of the state.
	b := suspendedBackend()
	b.threadNameErr = errors.New("thread gone")

	st := ReadState(b)
	if st.SuspendedThreadName != "" {
		t.Errorf("thread name = %q, want empty", st.SuspendedThreadName)
	}
	if st.TotalThreads != 4 || st.CurrentLocation != "Main.java:42" {
		t.Errorf("sibling fields damaged: %+v", st)
	}
}

func TestClassifySuspendReason(t *testing.T) {
	tests := []struct {
		name             string
		cause            string
		causeErr         error
		locationResolved bool
		want             types.SuspendReason
	}{
		{"explicit breakpoint", "breakpoint", nil, true, types.SuspendReasonBreakpoint},
		{"explicit function breakpoint", "function breakpoint", nil, true, types.SuspendReasonBreakpoint},
		{"explicit step", "step", nil, true, types.SuspendReasonStep},
		{"pause is unknown", "pause", nil, true, types.SuspendReasonUnknown},
		{"exception is unknown", "exception", nil, false, types.SuspendReasonUnknown},
		{"no cause with location", "", nil, true, types.SuspendReasonBreakpoint},
		{"no cause without location", "", nil, false, types.SuspendReasonStep},
		{"cause read fails with location", "", errors.New("unsupported"), true, types.SuspendReasonBreakpoint},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := suspendedBackend()
			b.cause = tt.cause
			b.causeErr = tt.causeErr

			if got := classifySuspendReason(b, tt.locationResolved); got != tt.want {
				t.Errorf("classifySuspendReason = %q, want %q", got, tt.want)
			}
		})
	}
}
