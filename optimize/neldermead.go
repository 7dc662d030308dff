// Package optimize implements a Nelder-Mead simplex search over a model's
// continuous parameter vector, minimizing a caller-supplied objective.
package optimize

import "math"

// StopReason names why Minimize returned.
type StopReason int

const (
	MinFunctionToleranceChangeReached StopReason = iota
	MaxIterationsReached
	ExecutionAborted
)

func (r StopReason) String() string {
	switch r {
	case MinFunctionToleranceChangeReached:
		return "MinFunctionToleranceChangeReached"
	case MaxIterationsReached:
		return "MaxIterationsReached"
	case ExecutionAborted:
		return "ExecutionAborted"
	default:
		return "Unknown"
	}
}

const (
	reflectCoef  = 1.0
	expandCoef   = 2.0
	contractCoef = 0.5
	shrinkCoef   = 0.5
)

// Objective is the function being minimized.
type Objective func(x []float64) float64

// Config parameterizes a Nelder-Mead run.
type Config struct {
	Scale                float64     // initial simplex edge length per dimension
	Tolerance            float64     // relative function-value convergence tolerance
	MaxIterations        int
	IsNegativeNotAllowed bool        // candidate vertices with any negative coordinate score +Inf
	Stop                 func() bool // cooperative external abort flag, checked each iteration
}

// Result is the outcome of a Minimize call.
type Result struct {
	X      []float64
	F      float64
	Reason StopReason
	Iters  int
}

// Minimize runs simplex search from x0 and returns the best vertex found.
// The simplex has n+1 vertices: x0, plus x0+scale*e_i for each dimension i.
func Minimize(obj Objective, x0 []float64, cfg Config) Result {
	n := len(x0)
	scale := cfg.Scale
	if scale == 0 {
		scale = 1.0
	}
	tol := cfg.Tolerance
	if tol <= 0 {
		tol = 1e-4
	}
	maxIter := cfg.MaxIterations
	if maxIter <= 0 {
		maxIter = 500
	}

	simplex := make([][]float64, n+1)
	simplex[0] = append([]float64(nil), x0...)
	for i := 0; i < n; i++ {
		v := append([]float64(nil), x0...)
		v[i] += scale
		simplex[i+1] = v
	}

	score := func(x []float64) float64 {
		if cfg.IsNegativeNotAllowed {
			for _, v := range x {
				if v < 0 {
					return math.Inf(1)
				}
			}
		}
		return obj(x)
	}

	f := make([]float64, n+1)
	for i, v := range simplex {
		f[i] = score(v)
	}

	iters := 0
	for ; iters < maxIter; iters++ {
		if cfg.Stop != nil && cfg.Stop() {
			return bestResult(simplex, f, ExecutionAborted, iters)
		}

		lo, hi, secondHi := rankSimplex(f)

		if terminate(f[lo], f[hi], tol) {
			return bestResult(simplex, f, MinFunctionToleranceChangeReached, iters)
		}

		centroid := centroidExcluding(simplex, hi)
		worst := simplex[hi]

		reflected := along(centroid, worst, reflectCoef)
		fReflected := score(reflected)

		switch {
		case fReflected < f[lo]:
			// new best: try pushing further in the same direction
			expanded := along(centroid, worst, expandCoef)
			fExpanded := score(expanded)
			if fExpanded < fReflected {
				simplex[hi], f[hi] = expanded, fExpanded
			} else {
				simplex[hi], f[hi] = reflected, fReflected
			}

		case fReflected < f[secondHi]:
			// better than the second worst: keep the reflection
			simplex[hi], f[hi] = reflected, fReflected

		default:
			var candidate []float64
			if fReflected < f[hi] {
				// reflection improved on the worst: contract toward it
				candidate = along(centroid, worst, contractCoef)
			} else {
				// reflection did not improve: contract toward the worst
				candidate = along(centroid, worst, -contractCoef)
			}
			fCandidate := score(candidate)

			if fCandidate >= f[hi] {
				shrinkSimplex(simplex, f, lo, shrinkCoef, score)
			} else {
				simplex[hi], f[hi] = candidate, fCandidate
			}
		}
	}

	return bestResult(simplex, f, MaxIterationsReached, iters)
}

func terminate(fLo, fHi, tol float64) bool {
	denom := math.Abs(fHi) + math.Abs(fLo)
	if denom == 0 {
		return true
	}
	return 3*math.Abs(fHi-fLo)/denom < tol
}

// rankSimplex returns the indices of the best (lo), worst (hi), and
// second-worst (secondHi) vertices.
func rankSimplex(f []float64) (lo, hi, secondHi int) {
	lo, hi = 0, 0
	for i, v := range f {
		if v < f[lo] {
			lo = i
		}
		if v > f[hi] {
			hi = i
		}
	}
	secondHi = lo
	for i, v := range f {
		if i != hi && v > f[secondHi] {
			secondHi = i
		}
	}
	return
}

func centroidExcluding(simplex [][]float64, exclude int) []float64 {
	n := len(simplex[0])
	c := make([]float64, n)
	count := 0
	for i, v := range simplex {
		if i == exclude {
			continue
		}
		for j, x := range v {
			c[j] += x
		}
		count++
	}
	for j := range c {
		c[j] /= float64(count)
	}
	return c
}

// along returns centroid + coef*(centroid - worst): coef=1 reflects,
// coef=2 expands past the reflection, coef=0.5 contracts halfway toward
// the reflected side, coef=-0.5 contracts halfway toward worst.
func along(centroid, worst []float64, coef float64) []float64 {
	out := make([]float64, len(centroid))
	for i := range out {
		out[i] = centroid[i] + coef*(centroid[i]-worst[i])
	}
	return out
}

func shrinkSimplex(simplex [][]float64, f []float64, best int, coef float64, score func([]float64) float64) {
	for i := range simplex {
		if i == best {
			continue
		}
		for j := range simplex[i] {
			simplex[i][j] = simplex[best][j] + coef*(simplex[i][j]-simplex[best][j])
		}
		f[i] = score(simplex[i])
	}
}

func bestResult(simplex [][]float64, f []float64, reason StopReason, iters int) Result {
	best := 0
	for i, v := range f {
		if v < f[best] {
			best = i
		}
	}
	return Result{X: append([]float64(nil), simplex[best]...), F: f[best], Reason: reason, Iters: iters}
}
