// Package debug implements the live-introspection core: stack walking,
// variable collection, value formatting, session state reads, and expression
// evaluation. Everything is written against the backend capability interface
// and is careful to degrade per item rather than fail whole operations; the
// debuggee lives in a foreign memory space that can throw at every step.
package debug

import (
	"sync"
	"time"
)

// completionState tracks the lifecycle of one asynchronous request:
// Requested -> {Completed | Errored | TimedOut}. Completed and Errored are
// driven by the backend's callbacks; TimedOut is imposed locally by the
// waiter and does not cancel the in-flight backend work.
type completionState int

const (
	stateRequested completionState = iota
	stateCompleted
	stateErrored
	stateTimedOut
)

// completion is a single-assignment result slot shared by the stack walker
// and the expression evaluator. The first terminal transition wins; anything
// arriving after that, including a backend callback firing long after the
// waiter gave up, is ignored without touching the already-returned result.
type completion[T any] struct {
	mu    sync.Mutex
	state completionState
	val   T
	err   error
	done  chan struct{}
}

func newCompletion[T any]() *completion[T] {
	return &completion[T]{done: make(chan struct{})}
}

// complete records a successful result. Returns false if the slot already
// reached a terminal state.
func (c *completion[T]) complete(v T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != stateRequested {
		return false
	}
	c.state = stateCompleted
	c.val = v
	close(c.done)
	return true
}

// fail records a failure. Returns false if the slot already reached a
// terminal state.
func (c *completion[T]) fail(err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != stateRequested {
		return false
	}
	c.state = stateErrored
	c.err = err
	close(c.done)
	return true
}

// await blocks until the slot completes or the timeout elapses. The third
// return is true only for a timeout, in which case the slot is sealed so
// late callbacks cannot mutate it.
func (c *completion[T]) await(timeout time.Duration) (T, error, bool) {
	var zero T

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-c.done:
	case <-timer.C:
		c.mu.Lock()
		if c.state == stateRequested {
			c.state = stateTimedOut
			c.mu.Unlock()
			return zero, nil, true
		}
		// A completion raced the timer and won; fall through to read it.
		c.mu.Unlock()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == stateErrored {
		return zero, c.err, false
	}
	return c.val, nil, false
}
