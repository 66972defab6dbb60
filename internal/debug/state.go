package debug

import (
	"strings"

	"github.com/voitta-ai/jetbrains-voitta/internal/backend"
	"github.com/voitta-ai/jetbrains-voitta/pkg/types"
)

// ReadState produces a coarse session status without touching frame
// internals. Every sub-read is independently guarded: a failing thread-name
// lookup must not blank the thread count, and vice versa. The returned state
// is a snapshot, re-queried on every call.
func ReadState(b backend.Backend) types.SessionState {
	var st types.SessionState
	if b == nil || !b.Connected() {
		return st
	}
	st.IsActive = true
	st.IsSuspended = b.Suspended()

	if n, err := b.ThreadCount(); err == nil {
		st.TotalThreads = n
	}

	if !st.IsSuspended {
		return st
	}

	if name, err := b.CurrentThreadName(); err == nil {
		st.SuspendedThreadName = name
	}

	locationResolved := false
	if loc, err := b.CurrentLocation(); err == nil && loc != "" {
		st.CurrentLocation = loc
		locationResolved = true
	}

	st.SuspendReason = classifySuspendReason(b, locationResolved)
	return st
}

// classifySuspendReason prefers the backend's explicit stop cause when it
// reports one. Without it, a resolvable source location is taken to mean a
// breakpoint hit and anything else a step. A best-effort heuristic, not
// ground truth.
func classifySuspendReason(b backend.Backend, locationResolved bool) types.SuspendReason {
	if cause, err := b.SuspendCause(); err == nil && cause != "" {
		c := strings.ToLower(cause)
		switch {
		case strings.Contains(c, "breakpoint"):
			return types.SuspendReasonBreakpoint
		case strings.Contains(c, "step"):
			return types.SuspendReasonStep
		case strings.Contains(c, "pause"), strings.Contains(c, "exception"), strings.Contains(c, "entry"):
			return types.SuspendReasonUnknown
		}
	}

	if locationResolved {
		return types.SuspendReasonBreakpoint
	}
	return types.SuspendReasonStep
}
