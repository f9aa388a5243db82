package biot

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/phil-mansfield/bsfield/geom"
	"github.com/phil-mansfield/bsfield/quad"
)

var axisNames = [3]string{"x", "y", "z"}

// Params controls the accuracy of a Solver.
type Params struct {
	// AbsError and RelError are the tolerances of each axis integral,
	// applied before the result is scaled by Mu0Over4Pi.
	AbsError, RelError float64
	// Limit is the maximum number of subintervals per integral.
	Limit int
	// Points selects the Gauss-Kronrod rule.
	Points int
	// ConcurrentAxes integrates the three components in parallel.
	ConcurrentAxes bool
}

// DefaultParams returns the standard tolerances: an absolute error of 1e-5,
// a relative error of 1e-3, 1000 subintervals and the 41-point rule.
func DefaultParams() Params {
	return Params{AbsError: 1e-5, RelError: 1e-3, Limit: 1000, Points: 41}
}

// ConvergenceError is returned when the integral for one field component
// does not reach its tolerance.
type ConvergenceError struct {
	Point geom.Vec
	Axis  int
	Err   error
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf(
		"Integration of B%s at (%g, %g, %g) did not converge: %s",
		axisNames[e.Axis], e.Point[0], e.Point[1], e.Point[2], e.Err.Error(),
	)
}

func (e *ConvergenceError) Unwrap() error { return e.Err }

// Solver computes the field of a single Curve. Each axis owns its own
// quad.Workspace, so a Solver may integrate its three components
// concurrently, but a Solver must not be used by more than one goroutine at
// a time.
type Solver struct {
	curve  *geom.Curve
	params Params
	rule   *quad.Rule
	ws     [3]*quad.Workspace
}

// NewSolver returns a Solver for c.
func NewSolver(c *geom.Curve, p Params) (*Solver, error) {
	if p.Limit < 1 {
		return nil, fmt.Errorf(
			"Subdivision limit must be positive, but is %d.", p.Limit,
		)
	} else if p.AbsError < 0 || p.RelError < 0 {
		return nil, fmt.Errorf(
			"Error tolerances must be non-negative, but are %g and %g.",
			p.AbsError, p.RelError,
		)
	}

	rule, err := quad.NewRule(p.Points)
	if err != nil {
		return nil, err
	}

	s := &Solver{curve: c, params: p, rule: rule}
	for i := range s.ws {
		s.ws[i] = quad.NewWorkspace(p.Limit)
	}

	lo, hi := c.Range()
	Logger().Debug("created solver",
		zap.String("shape", c.Shape().String()),
		zap.Float64("current", c.Current()),
		zap.Float64("t_min", lo), zap.Float64("t_max", hi),
		zap.Int("rule", rule.Points()),
		zap.Int("limit", p.Limit),
		zap.Float64("abs_error", p.AbsError),
		zap.Float64("rel_error", p.RelError),
		zap.Bool("concurrent_axes", p.ConcurrentAxes),
	)

	return s, nil
}

// Curve returns the curve whose field s computes.
func (s *Solver) Curve() *geom.Curve { return s.curve }

// Params returns the parameters s was created with.
func (s *Solver) Params() Params { return s.params }

// Field returns the magnetic field at point in Tesla along with the
// integrator's absolute error estimate for each component.
func (s *Solver) Field(point geom.Vec) (field, fieldErr geom.Vec, err error) {
	var errs [3]error

	if s.params.ConcurrentAxes {
		wg := sync.WaitGroup{}
		for axis := 0; axis < 3; axis++ {
			wg.Add(1)
			go func(axis int) {
				defer wg.Done()
				field[axis], fieldErr[axis], errs[axis] =
					s.integrate(point, axis)
			}(axis)
		}
		wg.Wait()
	} else {
		for axis := 0; axis < 3; axis++ {
			field[axis], fieldErr[axis], errs[axis] = s.integrate(point, axis)
		}
	}

	for axis := range errs {
		if errs[axis] != nil {
			return field, fieldErr, errs[axis]
		}
	}
	return field, fieldErr, nil
}

func (s *Solver) integrate(point geom.Vec, axis int) (b, bErr float64, err error) {
	lo, hi := s.curve.Range()
	f := Integrand(s.curve, point, axis)

	res, abserr, err := s.ws[axis].QAG(
		f, lo, hi, s.params.AbsError, s.params.RelError, s.rule,
	)
	if err != nil {
		Logger().Warn("integration failed",
			zap.String("axis", axisNames[axis]),
			zap.Float64s("point", point[:]),
			zap.Int("intervals", s.ws[axis].Size()),
			zap.Error(err),
		)
		return Mu0Over4Pi * res, Mu0Over4Pi * abserr,
			&ConvergenceError{Point: point, Axis: axis, Err: err}
	}

	return Mu0Over4Pi * res, Mu0Over4Pi * abserr, nil
}
