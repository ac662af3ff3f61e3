// Package filter compiles CEL expressions evaluated against decoded metric
// values, for callers that need sharper selection than tag and step sets.
package filter

import (
	"strings"

	"github.com/google/cel-go/cel"
)

// Filter wraps a compiled CEL program. The zero value (and any Filter built
// from an empty expression) is disabled and matches everything.
type Filter struct {
	prog    cel.Program
	enabled bool
}

// New compiles expr against the value variables. An empty expression yields
// a disabled filter.
//
// Available variables: tag (string), step (int), kind (string, one of
// scalar/histogram/image/audio/tensor), value (double; 0 for non-scalar
// kinds), wall_time (double).
func New(expr string) (Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Filter{}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("tag", cel.StringType),
		cel.Variable("step", cel.IntType),
		cel.Variable("kind", cel.StringType),
		cel.Variable("value", cel.DoubleType),
		cel.Variable("wall_time", cel.DoubleType),
	)
	if err != nil {
		return Filter{}, err
	}
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return Filter{}, iss.Err()
	}
	prog, err := env.Program(ast)
	if err != nil {
		return Filter{}, err
	}
	return Filter{prog: prog, enabled: true}, nil
}

// Eval evaluates the expression for one value. A disabled filter matches
// everything; evaluation errors count as no match.
func (f Filter) Eval(tag string, step int64, kind string, value, wallTime float64) bool {
	if !f.enabled {
		return true
	}
	out, _, err := f.prog.Eval(map[string]any{
		"tag":       tag,
		"step":      step,
		"kind":      kind,
		"value":     value,
		"wall_time": wallTime,
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
