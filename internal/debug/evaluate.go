package debug

import (
	"fmt"
	"time"

	"github.com/voitta-ai/jetbrains-voitta/internal/backend"
	"github.com/voitta-ai/jetbrains-voitta/pkg/types"
)

// DefaultEvaluateTimeout bounds the wait for an evaluation result.
const DefaultEvaluateTimeout = 5 * time.Second

// EvaluateExpression submits an expression for evaluation in a frame's
// context and awaits the asynchronous result with a bounded timeout.
//
// The function never returns an error and never panics: every failure mode
// (no evaluator, backend error, timeout) is reported through the result's
// Success/Error fields, always with the elapsed time filled in. A timeout
// does not cancel the in-flight evaluation; if the backend answers later,
// the completion slot discards the late callback.
//
// Results are rendered through the formatter's non-expanding path; deep
// object-graph expansion is deliberately not offered for evaluation results
// to bound latency.
func EvaluateExpression(b backend.Backend, frameRef int, expression string, timeout time.Duration, f *Formatter) types.EvaluationResult {
	start := time.Now()
	elapsed := func() int64 { return time.Since(start).Milliseconds() }

	if timeout <= 0 {
		timeout = DefaultEvaluateTimeout
	}
	if f == nil {
		f = NewFormatter(0, 0)
	}

	ev, err := b.Evaluator(frameRef)
	if err != nil {
		// No evaluator for this frame: fail fast without a backend
		// round-trip.
		return types.EvaluationResult{
			Success:       false,
			Error:         fmt.Sprintf("no evaluator available: %v", err),
			ElapsedMillis: elapsed(),
		}
	}

	comp := newCompletion[backend.Value]()
	ev.Evaluate(expression,
		func(v backend.Value) { comp.complete(v) },
		func(err error) { comp.fail(err) },
	)

	value, err, timedOut := comp.await(timeout)
	switch {
	case timedOut:
		return types.EvaluationResult{
			Success:       false,
			Error:         fmt.Sprintf("timed out after %dms", timeout.Milliseconds()),
			ElapsedMillis: elapsed(),
		}
	case err != nil:
		return types.EvaluationResult{
			Success:       false,
			Error:         err.Error(),
			ElapsedMillis: elapsed(),
		}
	}

	result := types.EvaluationResult{
		Success:       true,
		Value:         f.Format(value, false, 0),
		ElapsedMillis: elapsed(),
	}
	if value != nil {
		if typeName, terr := value.TypeName(); terr == nil {
			result.Type = typeName
		}
	}
	return result
}
