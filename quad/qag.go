package quad

import (
	"container/heap"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrSubdivisionLimit means the workspace ran out of subintervals before
	// the requested tolerance was reached.
	ErrSubdivisionLimit = errors.New("quad: maximum number of subdivisions reached")
	// ErrRoundoff means roundoff error prevents the requested tolerance from
	// being reached.
	ErrRoundoff = errors.New("quad: roundoff error prevents the requested tolerance")
	// ErrBadIntegrand means a subinterval shrank to machine resolution,
	// which usually indicates a non-integrable singularity.
	ErrBadIntegrand = errors.New("quad: bad integrand behavior")
	// ErrTolerance means the requested tolerances cannot be achieved.
	ErrTolerance = errors.New("quad: tolerance cannot be achieved")
)

type interval struct {
	a, b, result, err float64
}

// intervalHeap is a max-heap on the interval error estimates.
type intervalHeap []interval

func (h intervalHeap) Len() int            { return len(h) }
func (h intervalHeap) Less(i, j int) bool  { return h[i].err > h[j].err }
func (h intervalHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *intervalHeap) Push(x interface{}) { *h = append(*h, x.(interval)) }
func (h *intervalHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// Workspace holds the subintervals of an adaptive integration. It is reused
// by successive integrations to avoid allocation.
//
// Workspaces should not be shared between goroutines.
type Workspace struct {
	limit     int
	intervals intervalHeap
	fv        []float64
}

// NewWorkspace returns a Workspace which can hold up to limit subintervals.
func NewWorkspace(limit int) *Workspace {
	if limit < 1 {
		panic(fmt.Sprintf("Workspace limit must be positive, but is %d.", limit))
	}
	return &Workspace{
		limit: limit, intervals: make(intervalHeap, 0, limit),
	}
}

// Limit returns the maximum number of subintervals w can hold.
func (w *Workspace) Limit() int { return w.limit }

// Size returns the number of subintervals used by the last integration.
func (w *Workspace) Size() int { return len(w.intervals) }

// QAG integrates f over [a, b] to within max(epsabs, epsrel*|result|) by
// repeatedly bisecting the subinterval with the largest error estimate, in
// the manner of QUADPACK's QAG routine.
//
// If the tolerance cannot be met, the best estimate is returned along with
// an error wrapping one of ErrSubdivisionLimit, ErrRoundoff,
// ErrBadIntegrand, or ErrTolerance.
func (w *Workspace) QAG(
	f func(float64) float64, a, b, epsabs, epsrel float64, rule *Rule,
) (result, abserr float64, err error) {
	w.intervals = w.intervals[:0]
	if cap(w.fv) < rule.Points() {
		w.fv = make([]float64, rule.Points())
	}
	fv := w.fv[:rule.Points()]

	if epsabs <= 0 && (epsrel < 50*eps || epsrel < 0.5e-28) {
		return 0, 0, fmt.Errorf(
			"%w: epsabs = %g and epsrel = %g", ErrTolerance, epsabs, epsrel,
		)
	}

	r0, e0, resabs, resasc := rule.apply(f, a, b, fv)
	w.push(interval{a, b, r0, e0})

	tol := math.Max(epsabs, epsrel*math.Abs(r0))
	round := 50 * eps * resabs

	if e0 <= round && e0 > tol {
		return r0, e0, fmt.Errorf(
			"%w on the first interval (error %g)", ErrRoundoff, e0,
		)
	} else if (e0 <= tol && e0 != resasc) || e0 == 0 {
		return r0, e0, nil
	} else if w.limit == 1 {
		return r0, e0, fmt.Errorf("%w (limit 1)", ErrSubdivisionLimit)
	}

	area, errsum := r0, e0
	roundoff1, roundoff2 := 0, 0

	for iter := 1; len(w.intervals) < w.limit; iter++ {
		worst := heap.Pop(&w.intervals).(interval)
		mid := 0.5 * (worst.a + worst.b)

		r1, e1, _, asc1 := rule.apply(f, worst.a, mid, fv)
		r2, e2, _, asc2 := rule.apply(f, mid, worst.b, fv)

		area12, err12 := r1+r2, e1+e2
		errsum += err12 - worst.err
		area += area12 - worst.result

		if asc1 != e1 && asc2 != e2 {
			delta := worst.result - area12
			if math.Abs(delta) <= 1e-5*math.Abs(area12) &&
				err12 >= 0.99*worst.err {
				roundoff1++
			}
			if iter >= 10 && err12 > worst.err {
				roundoff2++
			}
		}

		w.push(interval{worst.a, mid, r1, e1})
		w.push(interval{mid, worst.b, r2, e2})

		tol = math.Max(epsabs, epsrel*math.Abs(area))
		if errsum <= tol {
			return w.sum(), errsum, nil
		}

		if roundoff1 >= 6 || roundoff2 >= 20 {
			return w.sum(), errsum, fmt.Errorf(
				"%w after %d subdivisions (error %g, tolerance %g)",
				ErrRoundoff, iter, errsum, tol,
			)
		} else if tooSmall(worst.a, mid, worst.b) {
			return w.sum(), errsum, fmt.Errorf(
				"%w near x = %g", ErrBadIntegrand, mid,
			)
		}
	}

	return w.sum(), errsum, fmt.Errorf(
		"%w (limit %d, error %g, tolerance %g)",
		ErrSubdivisionLimit, w.limit, errsum, tol,
	)
}

func (w *Workspace) push(iv interval) { heap.Push(&w.intervals, iv) }

func (w *Workspace) sum() float64 {
	total := 0.0
	for i := range w.intervals {
		total += w.intervals[i].result
	}
	return total
}

// tooSmall returns true if [a1, b2] split at a2 cannot be resolved in
// floating point.
func tooSmall(a1, a2, b2 float64) bool {
	tmp := (1 + 100*eps) * (math.Abs(a2) + 1000*uflow)
	return math.Abs(a1) <= tmp && math.Abs(b2) <= tmp
}
