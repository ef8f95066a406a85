package workload

import (
	"fmt"
	"regexp"
	"strconv"
)

// arrivalFunc computes N(t), the number of visits to launch in bucket t,
// or ok=false when the schedule should stop (spec.md §4.1: the
// synthesizer "emits ... arrival schedule until N(t) = None").
type arrivalFunc func(t int) (n int, ok bool)

// arrivalExprPattern matches the one closed form spec.md §9 allows:
// "int(t/c1 + c2) if t < c3 else None", with c1/c2/c3 signed decimal
// literals. Grounded on spec.md §9 Design Notes: "a small fixed-grammar
// parser in place of runtime code eval" — free-form expressions are
// rejected outright rather than evaluated.
var arrivalExprPattern = regexp.MustCompile(
	`^int\(t\s*/\s*(-?\d+(?:\.\d+)?)\s*\+\s*(-?\d+(?:\.\d+)?)\)\s*if\s*t\s*<\s*(-?\d+(?:\.\d+)?)\s*else\s*None$`,
)

// parseArrivalFunc parses expr against the fixed grammar and returns a
// callable N(t). A non-matching expr is a fatal configuration error
// (spec.md §4.1 Failures: "pattern-rejected synth function is fatal"),
// never evaluated as code.
func parseArrivalFunc(expr string) (arrivalFunc, error) {
	m := arrivalExprPattern.FindStringSubmatch(expr)
	if m == nil {
		return nil, fmt.Errorf("workload: arrival function %q does not match the allowed grammar int(t/c1 + c2) if t < c3 else None", expr)
	}
	c1, err := strconv.ParseFloat(m[1], 64)
	if err != nil || c1 == 0 {
		return nil, fmt.Errorf("workload: arrival function divisor must be a nonzero number, got %q", m[1])
	}
	c2, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return nil, fmt.Errorf("workload: arrival function offset must be a number, got %q", m[2])
	}
	c3, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return nil, fmt.Errorf("workload: arrival function bound must be a number, got %q", m[3])
	}

	return func(t int) (int, bool) {
		if float64(t) >= c3 {
			return 0, false
		}
		return int(float64(t)/c1 + c2), true
	}, nil
}
