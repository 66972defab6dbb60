package debug

import (
	"fmt"

	"github.com/voitta-ai/jetbrains-voitta/internal/backend"
	"github.com/voitta-ai/jetbrains-voitta/pkg/types"
)

// CollectOptions selects which variable categories a frame snapshot includes
// and how deep object expansion goes.
type CollectOptions struct {
	IncludeLocals     bool
	IncludeParameters bool
	IncludeFields     bool
	Expand            bool
	MaxDepth          int
}

// DefaultCollectOptions includes everything at the standard depth.
func DefaultCollectOptions() CollectOptions {
	return CollectOptions{
		IncludeLocals:     true,
		IncludeParameters: true,
		IncludeFields:     true,
		Expand:            false,
		MaxDepth:          2,
	}
}

// Collector extracts named variable records from a suspended frame.
// The contract is per-item tolerance: a variable whose value cannot be read
// still appears in the result with an "<unavailable: ...>" marker, because
// callers must see that the variable existed even when its value is lost.
type Collector struct {
	formatter *Formatter
}

// NewCollector returns a collector that renders values with the given
// formatter.
func NewCollector(f *Formatter) *Collector {
	if f == nil {
		f = NewFormatter(0, 0)
	}
	return &Collector{formatter: f}
}

// Collect gathers locals, parameters, and the receiver for one frame.
// It always returns a non-empty, serializable result: an empty scope yields
// an informational placeholder, and a collection-wide failure degrades to a
// single row carrying the error text.
func (c *Collector) Collect(b backend.Backend, frameRef int, opts CollectOptions) (vars []types.Variable) {
	defer func() {
		if r := recover(); r != nil {
			vars = []types.Variable{{
				Name:  "Collection Error",
				Value: fmt.Sprintf("<error: %v>", r),
				Scope: types.ScopeLocal,
			}}
		}
	}()

	if opts.IncludeLocals {
		vars = append(vars, c.collectLocals(b, frameRef, opts)...)
	}
	if opts.IncludeParameters {
		vars = append(vars, c.collectParameters(b, frameRef, opts)...)
	}
	if opts.IncludeFields {
		vars = append(vars, c.collectReceiver(b, frameRef, opts)...)
	}

	if len(vars) == 0 {
		vars = []types.Variable{{
			Name:  "Scope Info",
			Value: "No variables are visible in the current scope",
			Scope: types.ScopeLocal,
		}}
	}
	return vars
}

func (c *Collector) collectLocals(b backend.Backend, frameRef int, opts CollectOptions) []types.Variable {
	values, err := b.VisibleVariables(frameRef)
	if err != nil {
		return []types.Variable{{
			Name:  "Locals",
			Value: fmt.Sprintf("<unavailable: %v>", err),
			Scope: types.ScopeLocal,
		}}
	}

	vars := make([]types.Variable, 0, len(values))
	for _, v := range values {
		vars = append(vars, c.variableFromValue(v, v.Name(), types.ScopeLocal, opts.Expand, opts.MaxDepth))
	}
	return vars
}

// collectParameters pairs declared parameter names against the frame's
// argument-value vector positionally. When the two diverge (varargs,
// synthetic parameters), naming degrades to positional placeholders instead
// of failing.
func (c *Collector) collectParameters(b backend.Backend, frameRef int, opts CollectOptions) []types.Variable {
	args, err := b.Arguments(frameRef)
	if err != nil {
		return []types.Variable{{
			Name:  "Parameters",
			Value: fmt.Sprintf("<unavailable: %v>", err),
			Scope: types.ScopeParameter,
		}}
	}
	if len(args) == 0 {
		return nil
	}

	names, err := b.ParameterNames(frameRef)
	positional := err != nil || len(names) != len(args)

	vars := make([]types.Variable, 0, len(args))
	for i, arg := range args {
		name := ""
		if positional {
			name = fmt.Sprintf("arg%d", i)
		} else {
			name = names[i]
		}
		vars = append(vars, c.variableFromValue(arg, name, types.ScopeParameter, opts.Expand, opts.MaxDepth))
	}
	return vars
}

// collectReceiver emits the conventional self-reference row for non-static
// frames. Static frames simply contribute nothing.
func (c *Collector) collectReceiver(b backend.Backend, frameRef int, opts CollectOptions) []types.Variable {
	recv, err := b.Receiver(frameRef)
	if err != nil {
		return []types.Variable{{
			Name:  "this",
			Value: fmt.Sprintf("<unavailable: %v>", err),
			Scope: types.ScopeField,
		}}
	}
	if recv == nil {
		return nil
	}
	return []types.Variable{c.variableFromValue(recv, "this", types.ScopeField, opts.Expand, opts.MaxDepth)}
}

// variableFromValue builds one record, absorbing every per-value failure
// into an inline marker.
func (c *Collector) variableFromValue(v backend.Value, name string, scope types.VariableScope, expand bool, depth int) (out types.Variable) {
	out = types.Variable{Name: name, Scope: scope}
	defer func() {
		if r := recover(); r != nil {
			out.Value = fmt.Sprintf("<unavailable: %v>", r)
		}
	}()

	if v == nil {
		out.Value = "null"
		out.IsPrimitive = true
		return out
	}

	if typeName, err := v.TypeName(); err == nil {
		out.Type = typeName
	}

	switch v.Kind() {
	case backend.KindNull:
		out.Value = "null"
		out.IsPrimitive = true
	case backend.KindString, backend.KindPrimitive:
		out.IsPrimitive = true
		if _, err := v.Text(); err != nil {
			out.Value = fmt.Sprintf("<unavailable: %v>", err)
			return out
		}
		out.Value = c.formatter.Format(v, false, 0)
	default:
		out.IsExpandable = true
		out.Value = c.formatter.Format(v, false, 0)
		if expand && depth > 0 {
			out.Children = c.childVariables(v, depth)
		}
	}
	return out
}

// childVariables expands an object's declared fields one level, bounded by
// the formatter's field cap and the remaining depth budget.
func (c *Collector) childVariables(v backend.Value, depth int) []types.Variable {
	fields, err := v.Fields()
	if err != nil {
		return []types.Variable{{
			Name:  "fields",
			Value: fmt.Sprintf("<unavailable: %v>", err),
			Scope: types.ScopeField,
		}}
	}

	children := make([]types.Variable, 0, len(fields))
	for i, field := range fields {
		if i >= c.formatter.MaxFields {
			break
		}
		children = append(children, c.variableFromValue(field, field.Name(), types.ScopeField, true, depth-1))
	}
	return children
}
