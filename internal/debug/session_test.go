package debug

import (
	"strings"
	"testing"
	"time"

	"github.com/voitta-ai/jetbrains-voitta/internal/backend"
	"github.com/voitta-ai/jetbrains-voitta/internal/config"
	"github.com/voitta-ai/jetbrains-voitta/internal/errors"
)

func newTestSession(b backend.Backend) *Session {
	cfg := config.DefaultConfig()
	cfg.StackTimeout = time.Second
	cfg.EvaluateTimeout = time.Second
	return NewSession(b, cfg)
}

func TestManagerCurrentWithoutSessions(t *testing.T) {
	m := NewManager(nil)

	_, err := m.Current()
	if err == nil {
		t.Fatal("expected an error, not an empty result")
	}
	de := errors.FromError(err)
	if de.Code != errors.CodeNoSession {
		t.Errorf("code = %q, want %q", de.Code, errors.CodeNoSession)
	}
	if de.Hint == "" {
		t.Error("no-session error should carry a hint")
	}
}

func TestManagerRegisterGetDisconnect(t *testing.T) {
	m := NewManager(nil)
	session := newTestSession(suspendedBackend())
	m.Register(session)

	got, err := m.Current()
	if err != nil || got.ID != session.ID {
		t.Fatalf("Current() = %v, %v", got, err)
	}
	if _, err := m.Get(session.ID); err != nil {
		t.Errorf("Get(%s) failed: %v", session.ID, err)
	}
	if len(m.List()) != 1 {
		t.Errorf("List() = %d sessions, want 1", len(m.List()))
	}

	if err := m.Disconnect(session.ID); err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}
	if _, err := m.Current(); err == nil {
		t.Error("Current() should fail after disconnecting the only session")
	}
	if err := m.Disconnect(session.ID); err == nil {
		t.Error("second Disconnect should report an unknown session")
	}
}

func TestSessionRequiresSuspension(t *testing.T) {
	b := suspendedBackend()
	b.suspended = false
	s := newTestSession(b)

	if _, err := s.CaptureStack(0); errors.FromError(err).Code != errors.CodeNotSuspended {
		t.Errorf("CaptureStack error = %v, want NOT_SUSPENDED", err)
	}
	if _, err := s.FrameVariables(0, DefaultCollectOptions()); errors.FromError(err).Code != errors.CodeNotSuspended {
		t.Errorf("FrameVariables error = %v, want NOT_SUSPENDED", err)
	}
	if _, err := s.Snapshot(SnapshotOptions{}); errors.FromError(err).Code != errors.CodeNotSuspended {
		t.Errorf("Snapshot error = %v, want NOT_SUSPENDED", err)
	}
}

func TestSessionStateNeverFails(t *testing.T) {
	s := newTestSession(&fakeBackend{connected: false})

	st := s.State()
	if st.IsActive {
		t.Errorf("disconnected session should report inactive, got %+v", st)
	}
}

func TestSessionFrameVariablesTopFrame(t *testing.T) {
	b := suspendedBackend()
	b.topFrame = userFrame(100, "inner")
	b.locals = valueSlice(intValue("n", 7))
	s := newTestSession(b)

	vars, err := s.FrameVariables(0, DefaultCollectOptions())
	if err != nil {
		t.Fatalf("FrameVariables failed: %v", err)
	}
	if len(vars) != 1 || vars[0].Name != "n" || vars[0].Value != "7" {
		t.Errorf("vars = %+v", vars)
	}
}

func TestSessionFrameVariablesOutOfRange(t *testing.T) {
	b := suspendedBackend()
	b.batches = []frameBatch{
		{frames: []backend.Frame{userFrame(100, "inner"), userFrame(101, "outer")}, last: true},
	}
	s := newTestSession(b)

	vars, err := s.FrameVariables(5, DefaultCollectOptions())
	if err != nil {
		t.Fatalf("out-of-range index should degrade, not fail: %v", err)
	}
	if len(vars) != 1 || vars[0].Name != "Frame Access" {
		t.Fatalf("expected single Frame Access row, got %+v", vars)
	}
	if !strings.Contains(vars[0].Value, "out of range") {
		t.Errorf("marker = %q", vars[0].Value)
	}
}

func TestSessionEvaluateFrameOutOfRange(t *testing.T) {
	b := suspendedBackend()
	b.batches = []frameBatch{
		{frames: []backend.Frame{userFrame(100, "inner")}, last: true},
	}
	s := newTestSession(b)

	result, err := s.Evaluate(9, "x", time.Second)
	if err != nil {
		t.Fatalf("frame resolution failure should land in the result: %v", err)
	}
	if result.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(result.Error, "out of range") {
		t.Errorf("error = %q", result.Error)
	}
	if result.ElapsedMillis < 0 {
		t.Errorf("elapsed = %d", result.ElapsedMillis)
	}
}

func TestSessionEvaluateInnerFrame(t *testing.T) {
	b := suspendedBackend()
	b.topFrame = userFrame(100, "inner")
	b.evaluator = &fakeEvaluator{value: stringValue("", "ok")}
	s := newTestSession(b)

	result, err := s.Evaluate(0, "status()", 0)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !result.Success || result.Value != `"ok"` {
		t.Errorf("result = %+v", result)
	}
}

func TestSessionSnapshotSections(t *testing.T) {
	b := suspendedBackend()
	b.topFrame = userFrame(100, "inner")
	b.batches = []frameBatch{
		{frames: []backend.Frame{userFrame(100, "inner"), userFrame(101, "outer")}, last: true},
	}
	b.locals = valueSlice(intValue("n", 1))
	s := newTestSession(b)

	snap, err := s.Snapshot(SnapshotOptions{IncludeStackTrace: true, IncludeVariables: true})
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if !snap.SessionState.IsSuspended {
		t.Error("snapshot state should report suspension")
	}
	if len(snap.StackFrames) != 2 {
		t.Errorf("stack frames = %d, want 2", len(snap.StackFrames))
	}
	if len(snap.FrameVariables) != 1 {
		t.Errorf("frame variables = %+v", snap.FrameVariables)
	}
	if snap.Timestamp.IsZero() {
		t.Error("timestamp not set")
	}

	// Unrequested sections stay nil so they serialize as absent.
	snap, err = s.Snapshot(SnapshotOptions{IncludeStackTrace: true})
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if snap.FrameVariables != nil {
		t.Errorf("variables section should be nil when not requested, got %+v", snap.FrameVariables)
	}

	snap, err = s.Snapshot(SnapshotOptions{IncludeVariables: true})
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if snap.StackFrames != nil {
		t.Errorf("stack section should be nil when not requested, got %+v", snap.StackFrames)
	}
}
