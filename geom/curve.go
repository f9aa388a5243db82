package geom

import (
	"fmt"
	"math"
	"strings"
)

// Shape is the tag of a Curve.
type Shape int

const (
	Circle Shape = iota
	Coil
	EndShape
)

func (s Shape) String() string {
	switch s {
	case Circle:
		return "Circle"
	case Coil:
		return "Coil"
	}
	panic(fmt.Sprintf("Unrecognized Shape %d.", int(s)))
}

// ParseShape converts a Shape name to a Shape, ignoring case.
func ParseShape(str string) (Shape, error) {
	var s Shape
	for s = 0; s < EndShape; s++ {
		if strings.EqualFold(strings.TrimSpace(str), s.String()) {
			return s, nil
		}
	}
	return EndShape, fmt.Errorf("Unknown shape '%s'.", str)
}

// ParamRange is the convention used for the curve parameter.
type ParamRange int

const (
	// Centered runs the parameter over [-period/2, period/2].
	Centered ParamRange = iota
	// Positive runs the parameter over [0, period].
	Positive
	EndParamRange
)

func (r ParamRange) String() string {
	switch r {
	case Centered:
		return "Centered"
	case Positive:
		return "Positive"
	}
	panic(fmt.Sprintf("Unrecognized ParamRange %d.", int(r)))
}

// ParseParamRange converts a ParamRange name to a ParamRange, ignoring case.
func ParseParamRange(str string) (ParamRange, error) {
	var r ParamRange
	for r = 0; r < EndParamRange; r++ {
		if strings.EqualFold(strings.TrimSpace(str), r.String()) {
			return r, nil
		}
	}
	return EndParamRange, fmt.Errorf("Unknown parameter range '%s'.", str)
}

// Singularity selects how a Curve decides that a point lies inside the wire.
type Singularity int

const (
	// WireRadiusTest flags points closer to the filament than the wire
	// radius.
	WireRadiusTest Singularity = iota
	// HeuristicTest flags points within a fixed fraction of the nominal
	// loop radius and extent, ignoring the wire radius.
	HeuristicTest
	EndSingularity
)

func (s Singularity) String() string {
	switch s {
	case WireRadiusTest:
		return "WireRadius"
	case HeuristicTest:
		return "Heuristic"
	}
	panic(fmt.Sprintf("Unrecognized Singularity %d.", int(s)))
}

// ParseSingularity converts a Singularity name to a Singularity, ignoring
// case.
func ParseSingularity(str string) (Singularity, error) {
	var s Singularity
	for s = 0; s < EndSingularity; s++ {
		if strings.EqualFold(strings.TrimSpace(str), s.String()) {
			return s, nil
		}
	}
	return EndSingularity, fmt.Errorf("Unknown singularity test '%s'.", str)
}

const (
	newtonSteps = 8
	// filamentTol is the distance from the filament, in units of the curve
	// radius, within which a point is singular even if the wire radius is 0.
	filamentTol = 1e-6

	heuristicLow   = 0.985
	heuristicHigh  = 1.01
	heuristicWidth = 0.01
)

// Curve is a closed set of current-carrying filament geometries. Every
// method dispatches on the curve's Shape. Curves are immutable after
// construction and are safe to share between goroutines.
type Curve struct {
	shape                       Shape
	radius, current, wireRadius float64
	turns                       int
	length                      float64
	period                      float64

	rng  ParamRange
	test Singularity
}

// NewCircle returns a loop of the given radius lying in the x-y plane and
// centered on the origin.
func NewCircle(radius, current, wireRadius float64) (Curve, error) {
	if err := checkWire(radius, wireRadius); err != nil {
		return Curve{}, err
	}
	return Curve{
		shape: Circle, radius: radius, current: current,
		wireRadius: wireRadius, turns: 1, period: 2 * math.Pi,
	}, nil
}

// NewCoil returns a helix with the given number of turns wound around the
// z axis.
func NewCoil(
	radius, current float64, turns int, length, wireRadius float64,
) (Curve, error) {
	if err := checkWire(radius, wireRadius); err != nil {
		return Curve{}, err
	}
	if turns < 1 {
		return Curve{}, fmt.Errorf(
			"Coil needs at least one turn, but has %d.", turns,
		)
	} else if !(length > 0) {
		return Curve{}, fmt.Errorf(
			"Coil length must be positive, but is %g.", length,
		)
	}
	return Curve{
		shape: Coil, radius: radius, current: current,
		wireRadius: wireRadius, turns: turns, length: length,
		period: float64(turns) * 2 * math.Pi,
	}, nil
}

func checkWire(radius, wireRadius float64) error {
	if !(radius > 0) {
		return fmt.Errorf("Radius must be positive, but is %g.", radius)
	} else if wireRadius < 0 || math.IsNaN(wireRadius) {
		return fmt.Errorf(
			"Wire radius must be non-negative, but is %g.", wireRadius,
		)
	} else if wireRadius >= radius {
		return fmt.Errorf(
			"Wire radius %g must be smaller than the radius %g.",
			wireRadius, radius,
		)
	}
	return nil
}

// WithRange returns a copy of c which uses the given parameter convention.
func (c Curve) WithRange(r ParamRange) Curve {
	if r < 0 || r >= EndParamRange {
		panic(fmt.Sprintf("Unrecognized ParamRange %d.", int(r)))
	}
	c.rng = r
	return c
}

// WithSingularity returns a copy of c which uses the given singularity test.
func (c Curve) WithSingularity(s Singularity) Curve {
	if s < 0 || s >= EndSingularity {
		panic(fmt.Sprintf("Unrecognized Singularity %d.", int(s)))
	}
	c.test = s
	return c
}

func (c *Curve) Shape() Shape             { return c.shape }
func (c *Curve) Radius() float64          { return c.radius }
func (c *Curve) Current() float64         { return c.current }
func (c *Curve) WireRadius() float64      { return c.wireRadius }
func (c *Curve) Turns() int               { return c.turns }
func (c *Curve) Length() float64          { return c.length }
func (c *Curve) Period() float64          { return c.period }
func (c *Curve) ParamRange() ParamRange   { return c.rng }
func (c *Curve) Singularity() Singularity { return c.test }

// Range returns the bounds of the curve parameter.
func (c *Curve) Range() (lo, hi float64) {
	switch c.rng {
	case Centered:
		return -c.period / 2, c.period / 2
	case Positive:
		return 0, c.period
	}
	panic("Impossible")
}

// Parametrize returns the point on the filament at parameter t.
func (c *Curve) Parametrize(t float64) Vec {
	sin, cos := math.Sincos(t)
	switch c.shape {
	case Circle:
		return Vec{c.radius * cos, c.radius * sin, 0}
	case Coil:
		return Vec{c.radius * cos, c.radius * sin, c.length * t / c.period}
	}
	panic("Impossible")
}

// Tangent returns the derivative of Parametrize at t. It is not normalized.
func (c *Curve) Tangent(t float64) Vec {
	sin, cos := math.Sincos(t)
	switch c.shape {
	case Circle:
		return Vec{-c.radius * sin, c.radius * cos, 0}
	case Coil:
		return Vec{-c.radius * sin, c.radius * cos, c.length / c.period}
	}
	panic("Impossible")
}

// curvature returns the second derivative of Parametrize at t.
func (c *Curve) curvature(t float64) Vec {
	sin, cos := math.Sincos(t)
	switch c.shape {
	case Circle, Coil:
		return Vec{-c.radius * cos, -c.radius * sin, 0}
	}
	panic("Impossible")
}

// Extent returns the characteristic size of the curve: the radius of a
// Circle and the radius plus half the length of a Coil.
func (c *Curve) Extent() float64 {
	switch c.shape {
	case Circle:
		return c.radius
	case Coil:
		return c.radius + 0.5*c.length
	}
	panic("Impossible")
}

// IsSingular returns true if p lies inside the wire, in which case the
// filament field at p is not meaningful. Points on the filament itself are
// always singular.
func (c *Curve) IsSingular(p Vec) bool {
	switch c.test {
	case WireRadiusTest:
		d := c.Distance(p)
		return d < c.wireRadius || d <= filamentTol*c.radius
	case HeuristicTest:
		return c.heuristicSingular(p)
	}
	panic("Impossible")
}

func (c *Curve) heuristicSingular(p Vec) bool {
	rho := math.Hypot(p[0], p[1])
	inRing := heuristicLow*c.radius < rho && rho < heuristicHigh*c.radius

	switch c.shape {
	case Circle:
		w := heuristicWidth * c.radius
		return -w < p[2] && p[2] < w && inRing
	case Coil:
		lo, _ := c.Range()
		z := p[2] - c.length*lo/c.period
		w := heuristicWidth * c.length
		return -w < z && z < c.length+w && inRing
	}
	panic("Impossible")
}

// Distance returns the distance from p to the filament. For a Circle this is
// exact. For a Coil the turn nearest p is found by inverting the axial
// coordinate and the parameter is refined with Newton's method, which is
// exact for points near the wire.
func (c *Curve) Distance(p Vec) float64 {
	switch c.shape {
	case Circle:
		return math.Hypot(math.Hypot(p[0], p[1])-c.radius, p[2])
	case Coil:
		return c.coilDistance(p)
	}
	panic("Impossible")
}

func (c *Curve) coilDistance(p Vec) float64 {
	lo, hi := c.Range()
	phi := math.Atan2(p[1], p[0])
	t0 := c.period * p[2] / c.length
	k := math.Round((t0 - phi) / (2 * math.Pi))

	dist := math.Min(
		p.Sub(c.Parametrize(lo)).Norm(), p.Sub(c.Parametrize(hi)).Norm(),
	)
	for dk := -1.0; dk <= 1; dk++ {
		t := clamp(phi+2*math.Pi*(k+dk), lo, hi)
		t = c.refine(p, t, lo, hi)
		dist = math.Min(dist, p.Sub(c.Parametrize(t)).Norm())
	}
	return dist
}

// refine minimizes |Parametrize(t) - p| near t.
func (c *Curve) refine(p Vec, t, lo, hi float64) float64 {
	for i := 0; i < newtonSteps; i++ {
		r := c.Parametrize(t).Sub(p)
		dl := c.Tangent(t)
		g := r.Dot(dl)
		h := dl.Dot(dl) + r.Dot(c.curvature(t))
		if h <= 0 || g == 0 {
			break
		}
		t = clamp(t-g/h, lo, hi)
	}
	return t
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	} else if x > hi {
		return hi
	}
	return x
}

// Sample returns points along the whole filament, perTurn per turn, with
// both ends of the parameter range included.
func (c *Curve) Sample(perTurn int) []Vec {
	if perTurn < 1 {
		perTurn = 1
	}
	n := perTurn * c.turns
	lo, hi := c.Range()
	dt := (hi - lo) / float64(n)

	pts := make([]Vec, n+1)
	for i := range pts {
		pts[i] = c.Parametrize(lo + float64(i)*dt)
	}
	return pts
}
