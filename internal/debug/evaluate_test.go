package debug

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestEvaluateExpressionSuccess(t *testing.T) {
	b := suspendedBackend()
	b.evaluator = &fakeEvaluator{value: intValue("", 42)}

	result := EvaluateExpression(b, 100, "a + b", time.Second, nil)

	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	if result.Value != "42" {
		t.Errorf("value = %q, want 42", result.Value)
	}
	if result.Type != "int" {
		t.Errorf("type = %q, want int", result.Type)
	}
	if result.ElapsedMillis < 0 {
		t.Errorf("elapsed = %d, want >= 0", result.ElapsedMillis)
	}
}

func TestEvaluateExpressionBackendError(t *testing.T) {
	b := suspendedBackend()
	b.evaluator = &fakeEvaluator{err: errors.New("cannot resolve symbol 'b'")}

	result := EvaluateExpression(b, 100, "a + b", time.Second, nil)

	if result.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(result.Error, "cannot resolve symbol") {
		t.Errorf("error = %q", result.Error)
	}
}

func TestEvaluateExpressionTimeout(t *testing.T) {
	b := suspendedBackend()
	b.evaluator = &fakeEvaluator{value: intValue("", 1), delay: 2 * time.Second}

	start := time.Now()
	result := EvaluateExpression(b, 100, "slowCall()", 100*time.Millisecond, nil)
	elapsed := time.Since(start)

	if elapsed > time.Second {
		t.Errorf("timeout not honored: took %s", elapsed)
	}
	if result.Success {
		t.Fatal("expected timeout failure")
	}
	if !strings.Contains(result.Error, "timed out after 100ms") {
		t.Errorf("error = %q", result.Error)
	}
	if result.ElapsedMillis < 100 {
		t.Errorf("elapsed = %dms, expected at least the timeout", result.ElapsedMillis)
	}
}

func TestEvaluateExpressionNoEvaluator(t *testing.T) {
	b := suspendedBackend()
	b.evaluatorErr = errors.New("native frame")

	result := EvaluateExpression(b, 100, "x", time.Second, nil)

	if result.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(result.Error, "no evaluator available") {
		t.Errorf("error = %q", result.Error)
	}
}

func TestLateCallbackAfterTimeoutIsDiscarded(t *testing.T) {
	comp := newCompletion[int]()

	_, _, timedOut := comp.await(20 * time.Millisecond)
	if !timedOut {
		t.Fatal("expected timeout")
	}

	// The backend answers after the waiter gave up; the slot must reject it.
	if comp.complete(99) {
		t.Error("late completion accepted after timeout")
	}
	if comp.fail(errors.New("late error")) {
		t.Error("late failure accepted after timeout")
	}
}

func TestCompletionFirstTerminalWins(t *testing.T) {
	comp := newCompletion[string]()

	if !comp.complete("first") {
		t.Fatal("first completion rejected")
	}
	if comp.complete("second") {
		t.Error("second completion accepted")
	}
	if comp.fail(errors.New("late")) {
		t.Error("failure accepted after completion")
	}

	v, err, timedOut := comp.await(time.Second)
	if timedOut || err != nil || v != "first" {
		t.Errorf("await = (%q, %v, %v), want (first, nil, false)", v, err, timedOut)
	}
}
