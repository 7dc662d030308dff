package optimize

import (
	"math"
	"testing"
)

func TestMinimizeQuadraticBowl(t *testing.T) {
	obj := func(x []float64) float64 {
		dx := x[0] - 3
		dy := x[1] + 1
		return dx*dx + dy*dy
	}

	res := Minimize(obj, []float64{0, 0}, Config{
		Scale:         1,
		Tolerance:     1e-4,
		MaxIterations: 500,
	})

	if res.Reason != MinFunctionToleranceChangeReached {
		t.Errorf("expected convergence by tolerance, got %v after %d iters", res.Reason, res.Iters)
	}
	if d := dist(res.X, []float64{3, -1}); d > 1e-2 {
		t.Errorf("expected vertex within 1e-2 of (3,-1), got %v (dist %v)", res.X, d)
	}
}

func TestMinimizeRespectsStop(t *testing.T) {
	calls := 0
	obj := func(x []float64) float64 {
		calls++
		return x[0]*x[0] + x[1]*x[1]
	}

	res := Minimize(obj, []float64{5, 5}, Config{
		Scale:         1,
		MaxIterations: 10000,
		Stop:          func() bool { return calls > 5 },
	})

	if res.Reason != ExecutionAborted {
		t.Errorf("expected ExecutionAborted, got %v", res.Reason)
	}
}

func TestMinimizeIsNegativeNotAllowed(t *testing.T) {
	obj := func(x []float64) float64 {
		return x[0] // unconstrained minimum is -inf
	}

	res := Minimize(obj, []float64{1}, Config{
		Scale:                1,
		MaxIterations:        200,
		IsNegativeNotAllowed: true,
	})

	if res.X[0] < 0 {
		t.Errorf("expected non-negative result, got %v", res.X[0])
	}
}

func dist(a, b []float64) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return math.Sqrt(s)
}
